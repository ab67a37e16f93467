// Package authz makes per-request access decisions from an ordered,
// deny-by-default policy.
//
// A [Gate] combines a [Policy] with a token validator. For each request it
// finds the first policy rule matching the request path and decides:
//
//   - a rule requiring authentication allows the request only with a valid
//     token, and the decision carries the token's authorities
//   - the deny-all rule denies the request regardless of any token
//
// A token that is present is always validated, even on paths whose rule
// does not require one: a forged token is never silently carried along.
//
// Evaluation is stateless. No session is created or consulted; every
// request is authorized independently, so there is no session fixation or
// CSRF surface on this channel.
//
// The HTTP middleware (see [Middleware]) writes one uniform forbidden
// response for every deny reason, so a probing client cannot distinguish
// a missing token from an invalid one or from an unlisted path.
package authz

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/photoatom/photoatom-core/pkg/auth"
	paerr "github.com/photoatom/photoatom-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope for this package.
const tracerName = "github.com/photoatom/photoatom-core/pkg/authz"

// ---------------------------------------------------------------------------
// Decision
// ---------------------------------------------------------------------------

// DenyReason classifies why a request was denied. It is for internal
// logging and metrics only; the HTTP surface never exposes it.
type DenyReason int

const (
	// DenyNone is the zero reason carried by allow decisions.
	DenyNone DenyReason = iota

	// DenyNoToken means the matched rule requires authentication and the
	// request carried no token.
	DenyNoToken

	// DenyInvalidToken means the request carried a token that failed
	// validation.
	DenyInvalidToken

	// DenyPolicyDenied means the matched rule denies all access to the
	// path, regardless of the token.
	DenyPolicyDenied
)

// String returns a human-readable name for the deny reason.
func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "none"
	case DenyNoToken:
		return "no-token"
	case DenyInvalidToken:
		return "invalid-token"
	case DenyPolicyDenied:
		return "policy-denied"
	default:
		return "unknown"
	}
}

// Decision is the outcome of authorizing a single request. An allow
// decision carries the validated token and its authorities; a deny
// decision carries the reason.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Reason is DenyNone for allow decisions and the deny classification
	// otherwise.
	Reason DenyReason

	// Token is the validated token, set on allow decisions for rules that
	// require authentication. Nil on deny decisions.
	Token *auth.ValidatedToken

	// Authorities are the realm roles of the validated token. Nil on deny
	// decisions.
	Authorities auth.AuthoritySet
}

// ---------------------------------------------------------------------------
// Gate
// ---------------------------------------------------------------------------

// TokenValidator validates a raw bearer token. *[auth.Validator] satisfies
// this interface.
type TokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*auth.ValidatedToken, error)
}

// Gate authorizes requests against a [Policy], validating bearer tokens
// through the configured validator. It is safe for concurrent use.
//
// Create a Gate with [NewGate].
type Gate struct {
	policy    *Policy
	validator TokenValidator
	tracer    trace.Tracer
}

// NewGate creates a Gate from the given policy and token validator.
//
// Returns a *[paerr.Error] with code [paerr.CodeValidationRequired] if
// either is nil.
func NewGate(policy *Policy, validator TokenValidator) (*Gate, error) {
	if policy == nil {
		return nil, paerr.New(paerr.CodeValidationRequired, "authz: policy must not be nil")
	}
	if validator == nil {
		return nil, paerr.New(paerr.CodeValidationRequired, "authz: token validator must not be nil")
	}
	return &Gate{
		policy:    policy,
		validator: validator,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Authorize decides whether a request for the given path, carrying the
// given raw token (empty string for none), may proceed.
//
// The first policy rule matching the path decides the outcome:
//
//   - [RequireAuthenticated]: no token yields [DenyNoToken], an invalid
//     token yields [DenyInvalidToken], a valid token yields an allow
//     decision carrying the token and its authorities.
//   - [RequireDenyAll]: the request is denied with [DenyPolicyDenied]
//     regardless of the token.
//
// A present token is validated in every case, including on deny-all
// paths, so token abuse is observable wherever it happens.
func (g *Gate) Authorize(ctx context.Context, path, rawToken string) Decision {
	ctx, span := g.tracer.Start(ctx, "authz.Authorize",
		trace.WithAttributes(attribute.String("http.route", path)),
	)
	defer span.End()

	rule := g.policy.Match(path)
	span.SetAttributes(
		attribute.String("authz.rule.pattern", rule.Pattern),
		attribute.String("authz.rule.requirement", rule.Requirement.String()),
	)

	var (
		token       *auth.ValidatedToken
		validateErr error
	)
	if rawToken != "" {
		token, validateErr = g.validator.Validate(ctx, rawToken)
	}

	decision := g.decide(rule, rawToken, token, validateErr)
	span.SetAttributes(
		attribute.Bool("authz.allowed", decision.Allowed),
		attribute.String("authz.deny_reason", decision.Reason.String()),
	)
	return decision
}

func (g *Gate) decide(rule Rule, rawToken string, token *auth.ValidatedToken, validateErr error) Decision {
	if rule.Requirement == RequireDenyAll {
		return Decision{Reason: DenyPolicyDenied}
	}

	if rawToken == "" {
		return Decision{Reason: DenyNoToken}
	}
	if validateErr != nil {
		return Decision{Reason: DenyInvalidToken}
	}
	return Decision{
		Allowed:     true,
		Token:       token,
		Authorities: token.Authorities(),
	}
}
