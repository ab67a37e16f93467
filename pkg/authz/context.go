package authz

import (
	"context"

	"github.com/photoatom/photoatom-core/pkg/auth"
)

// contextKey is an unexported type for context keys defined by this
// package, preventing collisions with keys from other packages.
type contextKey int

const (
	tokenContextKey contextKey = iota
	authoritiesContextKey
)

// ContextWithToken returns a new context carrying the validated token.
func ContextWithToken(ctx context.Context, token *auth.ValidatedToken) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// TokenFromContext extracts the validated token from the context. The
// second return value reports whether a token was present.
func TokenFromContext(ctx context.Context) (*auth.ValidatedToken, bool) {
	token, ok := ctx.Value(tokenContextKey).(*auth.ValidatedToken)
	return token, ok && token != nil
}

// ContextWithAuthorities returns a new context carrying the request's
// authority set.
func ContextWithAuthorities(ctx context.Context, authorities auth.AuthoritySet) context.Context {
	return context.WithValue(ctx, authoritiesContextKey, authorities)
}

// AuthoritiesFromContext extracts the authority set from the context.
// The second return value reports whether one was present.
func AuthoritiesFromContext(ctx context.Context) (auth.AuthoritySet, bool) {
	authorities, ok := ctx.Value(authoritiesContextKey).(auth.AuthoritySet)
	return authorities, ok
}
