// Package ctxval lets inner handlers publish values that outer middleware
// reads back after the handler returns, e.g. the caller id for the access log.
package ctxval

import (
	"context"
	"sync"
)

type bagKey struct{}

type bag struct {
	mu     sync.RWMutex
	values map[any]any
}

// Wrap attaches a mutable value bag to ctx. Wrapping twice reuses the bag.
func Wrap(ctx context.Context) context.Context {
	if _, ok := ctx.Value(bagKey{}).(*bag); ok {
		return ctx
	}
	return context.WithValue(ctx, bagKey{}, &bag{values: map[any]any{}})
}

// Set is a no-op when ctx was not wrapped.
func Set[K comparable, V any](ctx context.Context, k K, v V) {
	b, ok := ctx.Value(bagKey{}).(*bag)
	if !ok {
		return
	}
	b.mu.Lock()
	b.values[k] = v
	b.mu.Unlock()
}

func Get[K comparable, V any](ctx context.Context, k K) (V, bool) {
	var zero V
	b, ok := ctx.Value(bagKey{}).(*bag)
	if !ok {
		return zero, false
	}
	b.mu.RLock()
	raw, found := b.values[k]
	b.mu.RUnlock()
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	return v, ok
}
