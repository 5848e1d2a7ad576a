package idempotency

import (
	"context"
)

// Header carries the client's key for POST /tickets.
const Header = "Idempotency-Key"

type ctxKey struct{}

func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

// Key returns the key set by the caller, if any.
func Key(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(ctxKey{}).(string)
	return key, ok && key != ""
}
