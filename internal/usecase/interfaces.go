package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
)

type ListingUsecase interface {
	CreateListing(ctx context.Context, in models.CreateListingInput) (*models.ListingResult, error)
	UpdateListing(ctx context.Context, in models.UpdateListingInput) (*models.ListingResult, error)
	ListListings(ctx context.Context, callerID string) ([]models.ListingWithMetafields, error)
	DeleteListing(ctx context.Context, productID int64, callerID string) error
}

type IdentityResolver interface {
	ResolveTier(ctx context.Context, callerID string) (models.Tier, error)
}

// OwnershipCodec encodes and checks the owner tag carried by every listing.
type OwnershipCodec interface {
	TagFor(callerID string) string
	Owns(listing *models.Listing, callerID string) bool
	Stamp(tags, callerID string) string
}

type QuotaEnforcer interface {
	Check(ctx context.Context, callerID string, tier models.Tier) error
}

// ImageReconciler moves staged files onto a listing and back out again.
// Staged files handed to it are always removed once their attempt ends.
type ImageReconciler interface {
	UploadAll(ctx context.Context, productID int64, files []models.LocalImage) ([]models.Image, error)
	ReplaceAll(ctx context.Context, listing *models.Listing, files []models.LocalImage) ([]models.Image, error)
	Restore(ctx context.Context, productID int64, images []models.Image) error
	Remove(ctx context.Context, productID int64, images []models.Image) error
}
