package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, Fields(ctx))
	assert.Equal(t, ctx, WithFields(ctx))

	ctx1 := WithFields(ctx, "request_id", "abc")
	ctx2 := WithFields(ctx1, "storefront_user_id", "a@x.com")

	assert.Equal(t, []any{"request_id", "abc"}, Fields(ctx1))
	assert.Equal(t, []any{"request_id", "abc", "storefront_user_id", "a@x.com"}, Fields(ctx2))

	assert.NotPanics(t, func() {
		Infow(ctx2, "hello", "k", "v")
		Errorw(ctx2, "boom")
	})
}
