package usecase

import (
	"context"
	"net/http"
	"testing"

	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTier(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.customers["vip@x.com"] = models.Customer{ID: 1, Email: "vip@x.com", Note: "user_type:private"}
	catalog.customers["plain@x.com"] = models.Customer{ID: 2, Email: "plain@x.com", Note: "likes cats"}
	r := NewIdentityResolver(catalog)

	tier, err := r.ResolveTier(ctx, "vip@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TierPrivate, tier)

	tier, err = r.ResolveTier(ctx, "plain@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TierPublic, tier)

	tier, err = r.ResolveTier(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TierPublic, tier)

	catalog.searchErr = upstreamErr(http.StatusBadGateway)
	_, err = r.ResolveTier(ctx, "vip@x.com")
	var rce *models.RemoteCatalogError
	assert.ErrorAs(t, err, &rce)
}
