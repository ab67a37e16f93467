package auth

import "sort"

// Authority is a single granted authority, carried verbatim from a realm
// role string. Comparisons are case-sensitive.
type Authority string

// AuthoritySet is a deduplicated set of authorities.
type AuthoritySet map[Authority]struct{}

// NewAuthoritySet builds a set from the given authorities, deduplicating
// repeats.
func NewAuthoritySet(authorities ...Authority) AuthoritySet {
	set := make(AuthoritySet, len(authorities))
	for _, a := range authorities {
		set[a] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given authority.
func (s AuthoritySet) Has(a Authority) bool {
	_, ok := s[a]
	return ok
}

// Values returns the authorities in sorted order, for stable logging and
// comparison in tests.
func (s AuthoritySet) Values() []Authority {
	out := make([]Authority, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RealmRoleAuthorities maps the realm_access.roles claim onto an
// AuthoritySet. Role strings pass through verbatim and case-sensitively,
// deduplicated by set semantics.
//
// The mapping is total: a missing realm_access claim, a realm_access that
// is not an object, a missing or non-list roles entry, all yield the empty
// set. Non-string elements inside the roles list are skipped; the remaining
// strings still map.
func RealmRoleAuthorities(claims map[string]any) AuthoritySet {
	set := make(AuthoritySet)

	realmAccess, ok := claims["realm_access"].(map[string]any)
	if !ok {
		return set
	}
	roles, ok := realmAccess["roles"].([]any)
	if !ok {
		return set
	}

	for _, role := range roles {
		if name, ok := role.(string); ok {
			set[Authority(name)] = struct{}{}
		}
	}
	return set
}
