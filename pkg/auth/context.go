// Package auth resolves the caller's identity from a bearer token and makes
// it available to handlers through the request context. Identity issuance
// lives outside this service; this is only the verification adapter.
package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyIdentity is the context key for the authenticated wallet address
	ContextKeyIdentity contextKey = "identity"
)

// WithIdentity adds the authenticated wallet address to the context
func WithIdentity(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, address)
}

// IdentityFromContext retrieves the authenticated wallet address from the context
func IdentityFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyIdentity).(string)
	return addr, ok && addr != ""
}
