package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ValidatedToken is the immutable result of a successful validation: the
// token's principal claims plus a snapshot of the full claim set. It carries
// no reference to the raw token string.
type ValidatedToken struct {
	subject   string
	issuer    string
	expiresAt time.Time
	claims    map[string]any
}

// newValidatedToken snapshots the verified claims into a ValidatedToken.
func newValidatedToken(mc jwt.MapClaims) *ValidatedToken {
	claims := make(map[string]any, len(mc))
	for k, v := range mc {
		claims[k] = v
	}

	subject, _ := mc["sub"].(string)
	issuer, _ := mc["iss"].(string)

	var expiresAt time.Time
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return &ValidatedToken{
		subject:   subject,
		issuer:    issuer,
		expiresAt: expiresAt,
		claims:    claims,
	}
}

// Subject returns the token's "sub" claim.
func (t *ValidatedToken) Subject() string {
	return t.subject
}

// Issuer returns the token's "iss" claim.
func (t *ValidatedToken) Issuer() string {
	return t.issuer
}

// ExpiresAt returns the token's expiry time.
func (t *ValidatedToken) ExpiresAt() time.Time {
	return t.expiresAt
}

// Claims returns a copy of the token's claim set. Mutating the returned map
// does not affect the token.
func (t *ValidatedToken) Claims() map[string]any {
	out := make(map[string]any, len(t.claims))
	for k, v := range t.claims {
		out[k] = v
	}
	return out
}

// Authorities maps the token's realm roles onto an [AuthoritySet] using
// [RealmRoleAuthorities].
func (t *ValidatedToken) Authorities() AuthoritySet {
	return RealmRoleAuthorities(t.claims)
}
