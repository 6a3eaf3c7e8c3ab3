// file: internal/requestctx/requestctx.go
// version: 1.0.0
// guid: 0b3c5d7e-9f1a-4b2c-8d4e-6f0a2b4c6d8e

// Package requestctx carries the per-request cache-bypass flag through the
// call chain. The flag is bound once when request handling starts and read
// by the cache store on its read path; concurrent requests never observe
// each other's value.
package requestctx

import "context"

type skipCacheKey struct{}

// WithSkipCache returns a context carrying the bypass flag.
func WithSkipCache(ctx context.Context, skip bool) context.Context {
	return context.WithValue(ctx, skipCacheKey{}, skip)
}

// SkipCache reports whether the context asks cache reads to miss. A context
// without the flag means "use the cache".
func SkipCache(ctx context.Context) bool {
	skip, _ := ctx.Value(skipCacheKey{}).(bool)
	return skip
}
