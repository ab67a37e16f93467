package authz

import (
	"strings"

	paerr "github.com/photoatom/photoatom-core/pkg/errors"
)

// ---------------------------------------------------------------------------
// Requirement
// ---------------------------------------------------------------------------

// Requirement is the access requirement a policy rule imposes on the paths
// it matches.
type Requirement int

const (
	// RequireAuthenticated grants access to any request carrying a valid
	// token, regardless of the authorities it maps to.
	RequireAuthenticated Requirement = iota

	// RequireDenyAll denies every request. It is the terminal catch-all of
	// every policy: a path not explicitly listed is unreachable.
	RequireDenyAll
)

// String returns a human-readable name for the requirement.
func (r Requirement) String() string {
	switch r {
	case RequireAuthenticated:
		return "authenticated"
	case RequireDenyAll:
		return "deny-all"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Rule and Policy
// ---------------------------------------------------------------------------

// PatternAll matches every request path. It is the pattern of the terminal
// deny-all rule.
const PatternAll = "/**"

// Rule binds a path pattern to an access requirement.
//
// Three pattern forms are supported:
//
//   - "/path"    — matches that exact path only
//   - "/path/*"  — matches "/path" and every path below it
//   - "/**"      — matches every path
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// matches reports whether the rule's pattern covers the given request path.
func (r Rule) matches(path string) bool {
	if r.Pattern == PatternAll {
		return true
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

// catchAll reports whether the rule denies every path, making any rule
// after it unreachable.
func (r Rule) catchAll() bool {
	return r.Pattern == PatternAll && r.Requirement == RequireDenyAll
}

// Policy is an ordered list of rules evaluated first-match. Every policy
// ends with a deny-all catch-all, so a path no rule lists is denied: there
// is no implicit allow anywhere.
//
// Create a Policy with [NewPolicy]. A Policy is immutable and safe for
// concurrent use.
type Policy struct {
	rules []Rule
}

// NewPolicy creates a Policy from the given rules, preserving their order.
// If the last rule is not a deny-all catch-all, one is appended, so the
// resulting policy always denies unlisted paths.
//
// Returns a *[paerr.Error] with code [paerr.CodeValidation] if any pattern
// is empty, does not start with "/", or contains a wildcard anywhere but
// the end.
func NewPolicy(rules ...Rule) (*Policy, error) {
	for _, r := range rules {
		if err := validatePattern(r.Pattern); err != nil {
			return nil, err
		}
		if r.Requirement != RequireAuthenticated && r.Requirement != RequireDenyAll {
			return nil, paerr.Newf(paerr.CodeValidation,
				"authz: rule %q has unknown requirement %d", r.Pattern, r.Requirement)
		}
	}

	owned := make([]Rule, len(rules), len(rules)+1)
	copy(owned, rules)
	if len(owned) == 0 || !owned[len(owned)-1].catchAll() {
		owned = append(owned, Rule{Pattern: PatternAll, Requirement: RequireDenyAll})
	}
	return &Policy{rules: owned}, nil
}

func validatePattern(pattern string) error {
	if pattern == "" {
		return paerr.New(paerr.CodeValidationRequired, "authz: rule pattern must not be empty")
	}
	if !strings.HasPrefix(pattern, "/") {
		return paerr.Newf(paerr.CodeValidation, "authz: rule pattern %q must start with \"/\"", pattern)
	}
	if pattern == PatternAll {
		return nil
	}
	if i := strings.IndexByte(pattern, '*'); i >= 0 && !strings.HasSuffix(pattern, "/*") {
		return paerr.Newf(paerr.CodeValidation,
			"authz: rule pattern %q may only use a trailing \"/*\" wildcard", pattern)
	}
	if strings.Contains(strings.TrimSuffix(pattern, "/*"), "*") {
		return paerr.Newf(paerr.CodeValidation,
			"authz: rule pattern %q may only use a trailing \"/*\" wildcard", pattern)
	}
	return nil
}

// Match returns the first rule whose pattern covers the given path. The
// terminal catch-all guarantees a match always exists.
func (p *Policy) Match(path string) Rule {
	for _, r := range p.rules {
		if r.matches(path) {
			return r
		}
	}
	// Unreachable: the constructor guarantees a catch-all.
	return Rule{Pattern: PatternAll, Requirement: RequireDenyAll}
}

// Rules returns a copy of the policy's rules in evaluation order, including
// the terminal catch-all.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}
