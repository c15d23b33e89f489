package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/kafka"
	"github.com/nguyentranbao-ct/listing-proxy/internal/metrics"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/quotalock"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/shopify"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/uploads"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
	"golang.org/x/sync/errgroup"
)

var listFields = []string{"id", "title", "variants", "tags", "images"}

const (
	metafieldSize     = "size"
	metafieldBedrooms = "bedrooms"
	metafieldBaths    = "baths"

	typeText    = "single_line_text_field"
	typeInteger = "number_integer"
)

type listingUsecase struct {
	catalog   shopify.Client
	identity  IdentityResolver
	ownership OwnershipCodec
	quota     QuotaEnforcer
	images    ImageReconciler
	locker    quotalock.Locker
	publisher kafka.Publisher
	stager    uploads.Stager

	compensate bool
	workers    int
	namespace  string
	now        func() time.Time
}

func NewListingUsecase(
	cfg *config.Config,
	catalog shopify.Client,
	identity IdentityResolver,
	ownership OwnershipCodec,
	quota QuotaEnforcer,
	images ImageReconciler,
	locker quotalock.Locker,
	publisher kafka.Publisher,
	stager uploads.Stager,
) ListingUsecase {
	workers := cfg.Listing.MetafieldWorkers
	if workers <= 0 {
		workers = 1
	}
	return &listingUsecase{
		catalog:    catalog,
		identity:   identity,
		ownership:  ownership,
		quota:      quota,
		images:     images,
		locker:     locker,
		publisher:  publisher,
		stager:     stager,
		compensate: cfg.Listing.Compensate,
		workers:    workers,
		namespace:  cfg.Listing.MetafieldNamespace,
		now:        time.Now,
	}
}

func (uc *listingUsecase) CreateListing(ctx context.Context, in models.CreateListingInput) (res *models.ListingResult, err error) {
	defer func() { metrics.ListingOperations.WithLabelValues("create", metrics.Result(err)).Inc() }()

	// staged files are released here unless the image engine took them over
	handedOff := false
	defer func() {
		if !handedOff {
			uc.stager.Release(ctx, in.Images)
		}
	}()

	if in.CallerID == "" {
		return nil, models.NewValidationError("Missing required fields")
	}

	tier, err := uc.identity.ResolveTier(ctx, in.CallerID)
	if err != nil {
		return nil, fmt.Errorf("resolve tier: %w", err)
	}
	ctx = logctx.WithFields(ctx, "tier", tier)

	product, err := uc.createWithinQuota(ctx, in, tier)
	if err != nil {
		return nil, err
	}
	ctx = logctx.WithFields(ctx, "product_id", product.ID)

	tx := newSaga(uc.compensate)
	tx.add("delete product", func(ctx context.Context) error {
		return uc.catalog.DeleteProduct(ctx, product.ID)
	})

	handedOff = true
	images, err := uc.images.UploadAll(ctx, product.ID, in.Images)
	if err != nil {
		return nil, tx.abort(ctx, fmt.Errorf("upload images: %w", err))
	}

	logctx.Infow(ctx, "listing created", "images", len(images))
	uc.publish(ctx, models.ListingEvent{
		Type:       models.ListingCreated,
		ProductID:  product.ID,
		CallerID:   in.CallerID,
		ImageCount: len(images),
	})
	return &models.ListingResult{ProductID: product.ID, Images: images}, nil
}

// createWithinQuota holds the caller's lock across the quota check and the
// create so two concurrent requests cannot both pass the check.
func (uc *listingUsecase) createWithinQuota(ctx context.Context, in models.CreateListingInput, tier models.Tier) (*models.Listing, error) {
	unlock, err := uc.locker.Lock(ctx, in.CallerID)
	if err != nil {
		return nil, fmt.Errorf("lock quota: %w", err)
	}
	defer unlock()

	if err := uc.quota.Check(ctx, in.CallerID, tier); err != nil {
		return nil, err
	}

	product, err := uc.catalog.CreateProduct(ctx, models.ProductInput{
		Title:    in.Title,
		BodyHTML: in.BodyHTML,
		Tags:     uc.ownership.Stamp("", in.CallerID),
		Variants: []models.Variant{{Price: in.Price}},
		Metafields: []models.Metafield{
			{Namespace: uc.namespace, Key: metafieldSize, Value: in.Size, Type: typeText},
			{Namespace: uc.namespace, Key: metafieldBedrooms, Value: in.Bedrooms, Type: typeInteger},
			{Namespace: uc.namespace, Key: metafieldBaths, Value: in.Baths, Type: typeText},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (uc *listingUsecase) UpdateListing(ctx context.Context, in models.UpdateListingInput) (res *models.ListingResult, err error) {
	defer func() { metrics.ListingOperations.WithLabelValues("update", metrics.Result(err)).Inc() }()

	handedOff := false
	defer func() {
		if !handedOff {
			uc.stager.Release(ctx, in.Images)
		}
	}()

	ctx = logctx.WithFields(ctx, "product_id", in.ProductID)

	product, err := uc.ownedProduct(ctx, in.ProductID, in.CallerID, "update")
	if err != nil {
		return nil, err
	}

	_, err = uc.catalog.UpdateProduct(ctx, product.ID, models.ProductInput{
		Title:    in.Title,
		BodyHTML: in.BodyHTML,
		Tags:     uc.ownership.Stamp(product.Tags, in.CallerID),
		Variants: priceVariants(product.Variants, in.Price),
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	images := []models.Image{}
	if len(in.Images) > 0 {
		tx := newSaga(uc.compensate)
		tx.add("restore product", func(ctx context.Context) error {
			var variants []models.Variant
			if len(product.Variants) > 0 {
				variants = priceVariants(product.Variants, product.Variants[0].Price)
			}
			_, err := uc.catalog.UpdateProduct(ctx, product.ID, models.ProductInput{
				Title:    product.Title,
				BodyHTML: product.BodyHTML,
				Tags:     product.Tags,
				Variants: variants,
			})
			return err
		})

		handedOff = true
		images, err = uc.images.ReplaceAll(ctx, product, in.Images)
		if err != nil {
			uc.addImageCompensations(tx, product, err)
			return nil, tx.abort(ctx, fmt.Errorf("replace images: %w", err))
		}
	}

	logctx.Infow(ctx, "listing updated", "images", len(images))
	uc.publish(ctx, models.ListingEvent{
		Type:       models.ListingUpdated,
		ProductID:  product.ID,
		CallerID:   in.CallerID,
		ImageCount: len(images),
	})
	return &models.ListingResult{ProductID: product.ID, Images: images}, nil
}

// addImageCompensations registers the undo of a failed replace. Newly
// uploaded images are removed before the previous ones are re-attached.
func (uc *listingUsecase) addImageCompensations(tx *saga, product *models.Listing, err error) {
	var perr *models.PartialUploadError
	if !errors.As(err, &perr) {
		return
	}

	var removed, added []models.Image
	switch perr.Op {
	case imageOpDelete:
		removed = perr.Succeeded
	case imageOpUpload:
		removed = product.Images
		added = perr.Succeeded
	}

	if len(removed) > 0 {
		tx.add("restore images", func(ctx context.Context) error {
			return uc.images.Restore(ctx, product.ID, removed)
		})
	}
	if len(added) > 0 {
		tx.add("remove uploaded images", func(ctx context.Context) error {
			return uc.images.Remove(ctx, product.ID, added)
		})
	}
}

func (uc *listingUsecase) ListListings(ctx context.Context, callerID string) (_ []models.ListingWithMetafields, err error) {
	defer func() { metrics.ListingOperations.WithLabelValues("list", metrics.Result(err)).Inc() }()

	var owned []models.Listing
	err = uc.catalog.IterateProducts(ctx, listFields, func(p models.Listing) error {
		if uc.ownership.Owns(&p, callerID) {
			owned = append(owned, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	out := make([]models.ListingWithMetafields, len(owned))
	g := errgroup.Group{}
	g.SetLimit(uc.workers)
	for i, p := range owned {
		g.Go(func() error {
			mfs, err := uc.catalog.GetMetafields(ctx, p.ID)
			if err != nil {
				logctx.Warnw(ctx, "get metafields failed", "product_id", p.ID, "error", err)
				mfs = []models.Metafield{}
			}
			out[i] = models.ListingWithMetafields{Listing: p, Metafields: mfs}
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

func (uc *listingUsecase) DeleteListing(ctx context.Context, productID int64, callerID string) (err error) {
	defer func() { metrics.ListingOperations.WithLabelValues("delete", metrics.Result(err)).Inc() }()

	ctx = logctx.WithFields(ctx, "product_id", productID)

	product, err := uc.ownedProduct(ctx, productID, callerID, "delete")
	if err != nil {
		return err
	}
	if err := uc.catalog.DeleteProduct(ctx, product.ID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	logctx.Infow(ctx, "listing deleted")
	uc.publish(ctx, models.ListingEvent{
		Type:      models.ListingDeleted,
		ProductID: product.ID,
		CallerID:  callerID,
	})
	return nil
}

func (uc *listingUsecase) ownedProduct(ctx context.Context, productID int64, callerID, action string) (*models.Listing, error) {
	if callerID == "" {
		return nil, models.NewValidationError("Missing storefront_user_id in request body.")
	}
	product, err := uc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !uc.ownership.Owns(product, callerID) {
		logctx.Warnw(ctx, "ownership check failed", "action", action)
		return nil, &models.AuthorizationError{Action: action, ProductID: productID, CallerID: callerID}
	}
	return product, nil
}

// publish never fails the operation; the mutation is already committed.
func (uc *listingUsecase) publish(ctx context.Context, event models.ListingEvent) {
	event.OccurredAt = uc.now().UTC()
	if err := uc.publisher.Publish(ctx, event); err != nil {
		logctx.Warnw(ctx, "publish listing event failed", "type", event.Type, "error", err)
	}
}

// priceVariants sets price on the first variant, or creates one when the
// listing has none.
func priceVariants(current []models.Variant, price string) []models.Variant {
	if len(current) == 0 {
		return []models.Variant{{Price: price}}
	}
	return []models.Variant{{ID: current[0].ID, Price: price}}
}
