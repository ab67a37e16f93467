// Package auth validates bearer tokens issued by the photoatom identity
// provider and maps their claims onto authorities.
//
// # Token Validation
//
// [Validator] verifies RS256/ES256 JWTs against the issuer's published
// signing keys. The keys are discovered through the issuer's
// .well-known/openid-configuration document and fetched from its JWKS
// endpoint over the mutual-TLS channel of a [trust.Context]; a validator
// cannot be built without one.
//
//	trustCtx, err := trust.Build(...)
//	...
//	validator, err := auth.NewValidator(auth.ValidatorConfig{
//	    IssuerURL: "https://keycloak.photoatom.local/realms/photoatom",
//	}, trustCtx)
//	...
//	token, err := validator.Validate(ctx, rawToken)
//
// Validation failures carry AUTH_xxx error codes distinguishing malformed
// tokens, invalid signatures, expired tokens, issuer mismatches, and key
// fetch failures. Expiry and issuer are checked on the unverified claims
// before signature verification, so an expired or misdirected token is
// reported as such even when its signature cannot be verified.
//
// # Key Caching
//
// Fetched signing keys are cached in-process by key ID. A token carrying an
// unknown kid triggers a refresh (key rotation), but refreshes are
// deduplicated across concurrent requests and bounded by a minimum interval
// so that a flood of forged tokens cannot be amplified into a flood of
// requests against the issuer.
//
// # Authority Mapping
//
// [RealmRoleAuthorities] maps the realm_access.roles claim onto an
// [AuthoritySet]. The mapping is total: any missing or mistyped claim
// yields the empty set, never an error.
package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	paerr "github.com/photoatom/photoatom-core/pkg/errors"
	"github.com/photoatom/photoatom-core/pkg/trust"
)

// tracerName is the OpenTelemetry instrumentation scope name for auth spans.
const tracerName = "github.com/photoatom/photoatom-core/pkg/auth"

// maxTokenSize is the maximum accepted size for a JWT token string (8 KB).
// Tokens larger than this are rejected to prevent resource exhaustion.
const maxTokenSize = 8192

// Default validator settings.
const (
	// DefaultJWKSCacheTTL is the time fetched signing keys are served from
	// cache before a background-free refresh on next use.
	DefaultJWKSCacheTTL = 1 * time.Hour

	// DefaultMinRefreshInterval is the minimum time between JWKS fetches.
	// Unknown-kid tokens arriving inside this window are rejected without
	// contacting the issuer.
	DefaultMinRefreshInterval = 30 * time.Second

	// DefaultClockSkew is the maximum allowed clock difference between the
	// validator and the token issuer.
	DefaultClockSkew = 30 * time.Second

	// DefaultHTTPTimeout bounds discovery and JWKS requests to the issuer.
	DefaultHTTPTimeout = 10 * time.Second
)

// HTTPClient abstracts the HTTP client used for fetching JWKS and OIDC
// discovery documents. The standard [http.Client] satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ---------------------------------------------------------------------------
// ValidatorConfig
// ---------------------------------------------------------------------------

// ValidatorConfig holds the configuration for [Validator].
type ValidatorConfig struct {
	// IssuerURL is the base URL of the token issuer (e.g.,
	// "https://keycloak.photoatom.local/realms/photoatom"). The validator
	// appends "/.well-known/openid-configuration" to discover the JWKS
	// endpoint, and requires the "iss" claim of every token to match this
	// value exactly. Required.
	// Environment variable: AUTH_ISSUER_URL
	IssuerURL string `json:"issuer_url" env:"AUTH_ISSUER_URL" required:"true"`

	// Audience is the expected "aud" claim. If empty, the audience claim
	// is not validated.
	// Environment variable: AUTH_AUDIENCE
	Audience string `json:"audience,omitempty" env:"AUTH_AUDIENCE"`

	// JWKSCacheTTL is the time fetched signing keys are cached before
	// being refreshed from the issuer. Must be non-negative.
	// Default: 1h
	// Environment variable: AUTH_JWKS_CACHE_TTL
	JWKSCacheTTL time.Duration `json:"jwks_cache_ttl" env:"AUTH_JWKS_CACHE_TTL" envDefault:"1h"`

	// MinRefreshInterval is the minimum time between JWKS fetches triggered
	// by unknown key IDs. It bounds how hard unauthenticated traffic can
	// make this service hit the issuer. Must be non-negative.
	// Default: 30s
	// Environment variable: AUTH_MIN_REFRESH_INTERVAL
	MinRefreshInterval time.Duration `json:"min_refresh_interval" env:"AUTH_MIN_REFRESH_INTERVAL" envDefault:"30s"`

	// ClockSkew is the maximum allowed clock difference between the
	// validator and the token issuer. Must be non-negative.
	// Default: 30s
	// Environment variable: AUTH_CLOCK_SKEW
	ClockSkew time.Duration `json:"clock_skew" env:"AUTH_CLOCK_SKEW" envDefault:"30s"`

	// HTTPTimeout bounds each discovery and JWKS request to the issuer.
	// Default: 10s
	// Environment variable: AUTH_HTTP_TIMEOUT
	HTTPTimeout time.Duration `json:"http_timeout" env:"AUTH_HTTP_TIMEOUT" envDefault:"10s"`

	// HTTPClient overrides the mTLS client derived from the trust context.
	// Intended for tests; leave nil in production so every issuer request
	// rides the mutual-TLS channel.
	HTTPClient HTTPClient `json:"-"`
}

// DefaultValidatorConfig returns a ValidatorConfig with default cache,
// refresh, and timeout settings. IssuerURL must be set by the caller.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		JWKSCacheTTL:       DefaultJWKSCacheTTL,
		MinRefreshInterval: DefaultMinRefreshInterval,
		ClockSkew:          DefaultClockSkew,
		HTTPTimeout:        DefaultHTTPTimeout,
	}
}

// Validate checks the configuration for logical correctness and applies
// defaults for zero-valued fields. Returns a *[paerr.Error] with code
// [paerr.CodeValidation] if any field is invalid.
func (c *ValidatorConfig) Validate() *paerr.Error {
	if c.IssuerURL == "" {
		return paerr.New(paerr.CodeValidationRequired, "auth: issuer URL must not be empty")
	}
	if !strings.HasPrefix(c.IssuerURL, "https://") && !strings.HasPrefix(c.IssuerURL, "http://") {
		return paerr.Newf(paerr.CodeValidation, "auth: issuer URL must be an http(s) URL, got %q", c.IssuerURL)
	}
	if c.JWKSCacheTTL < 0 {
		return paerr.New(paerr.CodeValidation, "auth: JWKS cache TTL must be non-negative")
	}
	if c.MinRefreshInterval < 0 {
		return paerr.New(paerr.CodeValidation, "auth: min refresh interval must be non-negative")
	}
	if c.ClockSkew < 0 {
		return paerr.New(paerr.CodeValidation, "auth: clock skew must be non-negative")
	}

	if c.JWKSCacheTTL == 0 {
		c.JWKSCacheTTL = DefaultJWKSCacheTTL
	}
	if c.MinRefreshInterval == 0 {
		c.MinRefreshInterval = DefaultMinRefreshInterval
	}
	if c.ClockSkew == 0 {
		c.ClockSkew = DefaultClockSkew
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validator
// ---------------------------------------------------------------------------

// Validator verifies bearer tokens against the issuer's published signing
// keys, fetched over mutual TLS. It is safe for concurrent use by multiple
// goroutines.
//
// Create a Validator with [NewValidator].
type Validator struct {
	config ValidatorConfig
	tracer trace.Tracer
	keys   *keyCache
}

// NewValidator creates a Validator for the configured issuer. The trust
// context supplies the mutual-TLS channel for discovery and JWKS requests
// and must not be nil: without trust material there is no safe way to talk
// to the issuer, so construction fails with a credential error and the
// caller must not start.
//
// NewValidator does not contact the issuer. Call [Validator.Health] at
// startup so an unreachable issuer fails the process before it serves
// traffic instead of surfacing as per-request key fetch errors.
//
// Error codes returned:
//   - [paerr.CodeValidation]: invalid configuration
//   - [paerr.CodeCredential]: nil trust context
func NewValidator(cfg ValidatorConfig, trustCtx *trust.Context) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if trustCtx == nil && cfg.HTTPClient == nil {
		return nil, paerr.New(paerr.CodeCredential,
			"auth: validator requires a trust context for the issuer channel")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = trustCtx.HTTPClient(cfg.HTTPTimeout)
	}

	return &Validator{
		config: cfg,
		tracer: otel.Tracer(tracerName),
		keys:   newKeyCache(cfg.IssuerURL, cfg.JWKSCacheTTL, cfg.MinRefreshInterval, client),
	}, nil
}

// Validate verifies the given raw token string and returns the
// [ValidatedToken] it represents.
//
// The method performs the following steps:
//  1. Rejects empty, oversized, and structurally malformed tokens
//  2. Rejects the "none" algorithm
//  3. Checks expiry on the unverified claims, so an expired token is
//     reported as expired regardless of its signature
//  4. Checks the issuer claim against the configured issuer, exact match
//  5. Verifies the signature against the issuer's signing keys (RS256 or
//     ES256 only), resolving the key by the token's kid header
//
// Error codes returned:
//   - [paerr.CodeTokenMalformed]: not a structurally valid JWT
//   - [paerr.CodeTokenExpired]: the token's exp claim is in the past
//   - [paerr.CodeTokenIssuer]: the iss claim does not match the issuer
//   - [paerr.CodeTokenSignature]: signature invalid or signing key unknown
//   - [paerr.CodeTokenKeyFetch]: the issuer's keys could not be fetched
func (v *Validator) Validate(ctx context.Context, raw string) (*ValidatedToken, error) {
	ctx, span := v.tracer.Start(ctx, "auth.Validate")
	defer span.End()

	if raw == "" {
		return nil, failSpan(span, paerr.New(paerr.CodeTokenMalformed, "auth: token must not be empty"))
	}
	if len(raw) > maxTokenSize {
		return nil, failSpan(span, paerr.New(paerr.CodeTokenMalformed, "auth: token exceeds maximum size"))
	}

	// Structural parse without verification, to inspect header and claims.
	parser := jwt.NewParser()
	unverified, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil || unverified == nil {
		return nil, failSpan(span, paerr.Wrap(err, paerr.CodeTokenMalformed, "auth: token is malformed"))
	}

	alg, _ := unverified.Header["alg"].(string)
	if strings.EqualFold(alg, "none") {
		return nil, failSpan(span, paerr.New(paerr.CodeTokenSignature, "auth: algorithm 'none' is not permitted"))
	}

	mc, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return nil, failSpan(span, paerr.New(paerr.CodeTokenMalformed, "auth: unable to extract claims"))
	}

	// Expiry pre-check on the unverified claims. An expired token is
	// reported as expired even when its signature would not verify.
	exp, expErr := mc.GetExpirationTime()
	if expErr != nil {
		return nil, failSpan(span, paerr.Wrap(expErr, paerr.CodeTokenMalformed, "auth: exp claim is invalid"))
	}
	if exp == nil {
		return nil, failSpan(span, paerr.New(paerr.CodeTokenMalformed, "auth: exp claim is required"))
	}
	if time.Now().After(exp.Time.Add(v.config.ClockSkew)) {
		return nil, failSpan(span, paerr.New(paerr.CodeTokenExpired, "auth: token has expired"))
	}

	// Issuer pre-check, exact match. A token minted for another issuer is
	// an issuer mismatch even when its signature is valid.
	issuer, _ := mc["iss"].(string)
	if issuer != v.config.IssuerURL {
		return nil, failSpan(span, paerr.Newf(paerr.CodeTokenIssuer,
			"auth: token issuer %q does not match configured issuer", issuer))
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(v.config.IssuerURL),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.config.ClockSkew),
	}
	if v.config.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, paerr.New(paerr.CodeTokenSignature, "auth: token header missing kid")
		}
		return v.keys.getKey(ctx, kid)
	}, parserOpts...)
	if err != nil {
		return nil, failSpan(span, classifyError(err))
	}

	verified, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, failSpan(span, paerr.New(paerr.CodeTokenSignature, "auth: token did not verify"))
	}

	validated := newValidatedToken(verified)
	span.SetAttributes(
		attribute.String("auth.subject", validated.Subject()),
		attribute.String("auth.issuer", validated.Issuer()),
	)
	return validated, nil
}

// Health verifies the issuer channel end to end by fetching the discovery
// document and key set over the mutual-TLS channel, warming the key cache
// as a side effect. Call it once at startup, before serving traffic, and
// from readiness checks afterwards: an issuer that cannot be reached
// degrades the whole service's authentication capability and must surface
// as a startup or health failure, not as a stream of per-request denials.
//
// Error codes returned:
//   - [paerr.CodeUnavailableDependency]: discovery or JWKS fetch failed
func (v *Validator) Health(ctx context.Context) error {
	if err := v.keys.forceRefresh(ctx); err != nil {
		return paerr.Wrap(err, paerr.CodeUnavailableDependency,
			"auth: issuer health check failed")
	}
	return nil
}

// classifyError converts a JWT library error to a *paerr.Error with the
// appropriate token error code. Errors that already carry a platform code
// (e.g., key fetch failures surfaced through the keyfunc) pass through
// unchanged.
func classifyError(err error) *paerr.Error {
	if err == nil {
		return nil
	}

	var paError *paerr.Error
	if errors.As(err, &paError) {
		return paError
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return paerr.Wrap(err, paerr.CodeTokenExpired, "auth: token has expired")
	}
	if errors.Is(err, jwt.ErrTokenMalformed) {
		return paerr.Wrap(err, paerr.CodeTokenMalformed, "auth: token is malformed")
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return paerr.Wrap(err, paerr.CodeTokenSignature, "auth: token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
		return paerr.Wrap(err, paerr.CodeTokenIssuer, "auth: token issuer is invalid")
	}

	return paerr.Wrap(err, paerr.CodeToken, "auth: token validation failed")
}

// failSpan records the error on the span and returns it. Validation has a
// single span per call; every early return funnels through here.
func failSpan(span trace.Span, err *paerr.Error) *paerr.Error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ---------------------------------------------------------------------------
// keyCache — issuer signing keys by kid, with bounded deduped refresh
// ---------------------------------------------------------------------------

// keyCache caches the issuer's signing keys by key ID. On an unknown kid it
// refreshes from the issuer's JWKS endpoint, deduplicating concurrent
// refreshes through a singleflight group and refusing to fetch more often
// than minRefresh. The JWKS URL itself is discovered once from the issuer's
// .well-known/openid-configuration document.
type keyCache struct {
	issuerURL  string
	ttl        time.Duration
	minRefresh time.Duration
	client     HTTPClient

	group singleflight.Group

	mu          sync.RWMutex
	jwksURL     string
	keys        map[string]any // kid -> *rsa.PublicKey or *ecdsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

func newKeyCache(issuerURL string, ttl, minRefresh time.Duration, client HTTPClient) *keyCache {
	return &keyCache{
		issuerURL:  issuerURL,
		ttl:        ttl,
		minRefresh: minRefresh,
		client:     client,
	}
}

// getKey resolves a signing key by kid. Cached keys are served while fresh;
// a miss triggers at most one bounded refresh.
//
// Error codes returned:
//   - [paerr.CodeTokenKeyFetch]: discovery or JWKS fetch failed
//   - [paerr.CodeTokenSignature]: the kid is unknown to the issuer
func (c *keyCache) getKey(ctx context.Context, kid string) (any, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	fresh := !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl
	recentAttempt := !c.lastAttempt.IsZero() && time.Since(c.lastAttempt) < c.minRefresh
	c.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	// Unknown kid (or stale cache). Refusing to refetch inside the
	// minimum interval keeps forged-token floods from hammering the
	// issuer; the kid simply stays unknown until the window passes.
	if recentAttempt {
		if ok {
			return key, nil // Stale but present beats a denied refresh.
		}
		return nil, paerr.Newf(paerr.CodeTokenSignature,
			"auth: signing key %q not found", kid)
	}

	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	if err != nil {
		return nil, paerr.Wrap(err, paerr.CodeTokenKeyFetch,
			"auth: failed to fetch issuer signing keys")
	}

	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, paerr.Newf(paerr.CodeTokenSignature,
			"auth: signing key %q not found", kid)
	}
	return key, nil
}

// forceRefresh performs an unconditional discovery and JWKS fetch,
// deduplicated with any in-flight refresh. Unlike getKey it ignores the
// minimum refresh interval: health checks are operator-initiated, not
// driven by inbound tokens.
func (c *keyCache) forceRefresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

// refresh discovers the JWKS URL if needed, fetches the key set, and
// replaces the cache. The attempt timestamp advances on failure too, so
// failed fetches are rate-limited the same as successful ones.
func (c *keyCache) refresh(ctx context.Context) error {
	c.mu.Lock()
	c.lastAttempt = time.Now()
	jwksURL := c.jwksURL
	c.mu.Unlock()

	if jwksURL == "" {
		discovered, err := fetchDiscovery(ctx, c.issuerURL, c.client)
		if err != nil {
			return err
		}
		jwksURL = discovered.JWKSURI
		c.mu.Lock()
		c.jwksURL = jwksURL
		c.mu.Unlock()
	}

	keys, err := fetchJWKS(ctx, jwksURL, c.client)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// discoveryResponse holds the relevant fields from an issuer's
// .well-known/openid-configuration document.
type discoveryResponse struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// fetchDiscovery fetches and parses the issuer's OIDC discovery document.
func fetchDiscovery(ctx context.Context, issuerURL string, client HTTPClient) (*discoveryResponse, error) {
	discoveryURL := strings.TrimRight(issuerURL, "/") + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to create discovery request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: discovery request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: discovery endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read discovery response: %w", err)
	}

	var discovery discoveryResponse
	if err := json.Unmarshal(body, &discovery); err != nil {
		return nil, fmt.Errorf("auth: failed to parse discovery JSON: %w", err)
	}
	if discovery.JWKSURI == "" {
		return nil, fmt.Errorf("auth: discovery document missing jwks_uri")
	}
	return &discovery, nil
}

// jwksResponse represents the JSON structure of a JWKS endpoint response.
type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

// jwkKey represents a single key in a JWKS response. Only the fields
// needed for RSA and EC key reconstruction are included.
type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	// RSA fields
	N string `json:"n"`
	E string `json:"e"`
	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// fetchJWKS fetches the key set from the JWKS URL and constructs a map of
// key ID to public key. Supports RSA and ECDSA (P-256, P-384, P-521) key
// types; malformed and kid-less keys are skipped.
//
// The response body is limited to 1 MB to prevent resource exhaustion.
func fetchJWKS(ctx context.Context, jwksURL string, client HTTPClient) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to create JWKS request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: JWKS request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read JWKS response: %w", err)
	}

	var jwks jwksResponse
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("auth: failed to parse JWKS JSON: %w", err)
	}

	keys := make(map[string]any, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kid == "" {
			continue
		}
		switch k.Kty {
		case "RSA":
			pubKey, err := parseRSAPublicKey(k.N, k.E)
			if err != nil {
				continue // Skip malformed keys.
			}
			keys[k.Kid] = pubKey
		case "EC":
			pubKey, err := parseECPublicKey(k.Crv, k.X, k.Y)
			if err != nil {
				continue // Skip malformed keys.
			}
			keys[k.Kid] = pubKey
		}
	}
	return keys, nil
}

// parseRSAPublicKey constructs an *rsa.PublicKey from base64url-encoded
// modulus (n) and exponent (e) values.
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// parseECPublicKey constructs an *ecdsa.PublicKey from a curve name and
// base64url-encoded x and y coordinates.
func parseECPublicKey(crv, xBase64, yBase64 string) (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("auth: unsupported EC curve %q", crv)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(xBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode EC x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(yBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode EC y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
