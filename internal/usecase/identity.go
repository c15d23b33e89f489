package usecase

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/shopify"
)

type identityResolver struct {
	catalog shopify.Client
}

func NewIdentityResolver(catalog shopify.Client) IdentityResolver {
	return &identityResolver{catalog: catalog}
}

// ResolveTier looks the caller up as a store customer by email. Unknown
// callers are public.
func (r *identityResolver) ResolveTier(ctx context.Context, callerID string) (models.Tier, error) {
	customers, err := r.catalog.SearchCustomers(ctx, "email:"+callerID)
	if err != nil {
		return "", fmt.Errorf("search customer: %w", err)
	}
	if len(customers) == 0 {
		return models.TierPublic, nil
	}
	return customers[0].Tier(), nil
}
