package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/metrics"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/shopify"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
)

var quotaFields = []string{"id", "tags"}

type quotaEnforcer struct {
	catalog   shopify.Client
	ownership OwnershipCodec
	limits    map[models.Tier]int
}

func NewQuotaEnforcer(cfg *config.Config, catalog shopify.Client, ownership OwnershipCodec) QuotaEnforcer {
	return &quotaEnforcer{
		catalog:   catalog,
		ownership: ownership,
		limits: map[models.Tier]int{
			models.TierPrivate: cfg.Quota.PrivateLimit,
			models.TierPublic:  cfg.Quota.PublicLimit,
		},
	}
}

func (q *quotaEnforcer) Check(ctx context.Context, callerID string, tier models.Tier) error {
	limit := q.limits[tier]
	if limit <= 0 {
		return nil
	}

	count := 0
	err := q.catalog.IterateProducts(ctx, quotaFields, func(p models.Listing) error {
		if !q.ownership.Owns(&p, callerID) {
			return nil
		}
		count++
		if count >= limit {
			return shopify.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, shopify.ErrStop) {
		return fmt.Errorf("count listings: %w", err)
	}

	if count >= limit {
		metrics.QuotaRejections.WithLabelValues(string(tier)).Inc()
		logctx.Infow(ctx, "quota exceeded", "tier", tier, "limit", limit)
		return &models.QuotaExceededError{Tier: tier, Limit: limit, Count: count}
	}
	return nil
}
