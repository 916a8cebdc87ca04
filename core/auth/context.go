package auth

import "context"

type ctxKey struct{}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFromContext returns the resolved caller, or nil when the request
// never went through the identity middleware.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(ctxKey{}).(*Identity)
	return identity
}
