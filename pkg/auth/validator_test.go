package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/photoatom/photoatom-core/internal/testutil"
	"github.com/photoatom/photoatom-core/pkg/auth"
	paerr "github.com/photoatom/photoatom-core/pkg/errors"
)

// newValidator builds a Validator against the fake issuer over plain HTTP,
// overriding the mTLS client for tests.
func newValidator(t *testing.T, iss *testutil.Issuer, mutate func(*auth.ValidatorConfig)) *auth.Validator {
	t.Helper()
	cfg := auth.DefaultValidatorConfig()
	cfg.IssuerURL = iss.URL()
	cfg.HTTPClient = iss.Client()
	if mutate != nil {
		mutate(&cfg)
	}
	v, err := auth.NewValidator(cfg, nil)
	require.NoError(t, err)
	return v
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	raw := iss.Mint(t, key, "kid-1", iss.StandardClaims("user-123", "photoatom-user", "uploader"))

	token, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Equal(t, "user-123", token.Subject())
	assert.Equal(t, iss.URL(), token.Issuer())
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), token.ExpiresAt(), 10*time.Second)
	assert.True(t, token.Authorities().Has("photoatom-user"))
	assert.True(t, token.Authorities().Has("uploader"))
}

func TestValidator_Validate_EmptyToken(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	v := newValidator(t, iss, nil)

	_, err := v.Validate(context.Background(), "")
	testutil.RequireErrorCode(t, err, paerr.CodeTokenMalformed)
}

func TestValidator_Validate_Garbage(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	v := newValidator(t, iss, nil)

	_, err := v.Validate(context.Background(), "not.a.jwt-at-all")
	testutil.RequireErrorCode(t, err, paerr.CodeTokenMalformed)
}

func TestValidator_Validate_AlgNone(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	v := newValidator(t, iss, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, iss.StandardClaims("user-123"))
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), raw)
	testutil.RequireErrorCode(t, err, paerr.CodeTokenSignature)
}

// TestValidator_Validate_ExpiredBeforeSignature pins the reporting order:
// an expired token is reported as expired even when its signature is from
// a key the issuer never published.
func TestValidator_Validate_ExpiredBeforeSignature(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	rogue, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	claims := iss.StandardClaims("user-123")
	claims["exp"] = time.Now().Add(-10 * time.Minute).Unix()
	raw := iss.Mint(t, rogue, "unknown-kid", claims)

	_, err = v.Validate(context.Background(), raw)
	testutil.RequireErrorCode(t, err, paerr.CodeTokenExpired)
	assert.Zero(t, iss.JWKSFetches(), "expired token must be rejected without contacting the issuer")
}

// TestValidator_Validate_IssuerMismatchWithValidSignature pins the second
// ordering property: a token minted for another issuer is an issuer
// mismatch even when this issuer's own key signed it.
func TestValidator_Validate_IssuerMismatchWithValidSignature(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	claims := iss.StandardClaims("user-123")
	claims["iss"] = "https://other-issuer.example.com"
	raw := iss.Mint(t, key, "kid-1", claims)

	_, err := v.Validate(context.Background(), raw)
	testutil.RequireErrorCode(t, err, paerr.CodeTokenIssuer)
}

func TestValidator_Validate_SignatureInvalid(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	// Signed by a rogue key but claiming the published kid.
	rogue, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	raw := iss.Mint(t, rogue, "kid-1", iss.StandardClaims("user-123"))

	_, err = v.Validate(context.Background(), raw)
	testutil.RequireErrorCode(t, err, paerr.CodeTokenSignature)
}

func TestValidator_Validate_UnknownKid(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	raw := iss.Mint(t, key, "kid-never-published", iss.StandardClaims("user-123"))

	_, err := v.Validate(context.Background(), raw)
	testutil.RequireErrorCode(t, err, paerr.CodeTokenSignature)
}

func TestValidator_Validate_KeyFetchFailed(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	raw := iss.Mint(t, key, "kid-1", iss.StandardClaims("user-123"))

	v := newValidator(t, iss, nil)
	iss.Close()

	_, err := v.Validate(context.Background(), raw)
	testutil.RequireErrorCode(t, err, paerr.CodeTokenKeyFetch)
}

// TestValidator_Validate_SingleFlight issues many concurrent validations
// against a cold key cache and verifies the issuer sees exactly one JWKS
// fetch.
func TestValidator_Validate_SingleFlight(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	raw := iss.Mint(t, key, "kid-1", iss.StandardClaims("user-123", "photoatom-user"))

	const workers = 32
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = v.Validate(context.Background(), raw)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, int64(1), iss.JWKSFetches(),
		"concurrent cold-cache validations must collapse into one JWKS fetch")
}

// TestValidator_Validate_RefreshRateBound verifies the denial-amplification
// guard: unknown-kid tokens inside the minimum refresh interval are denied
// without another trip to the issuer.
func TestValidator_Validate_RefreshRateBound(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, func(cfg *auth.ValidatorConfig) {
		cfg.MinRefreshInterval = time.Hour
	})

	// Warm the cache.
	raw := iss.Mint(t, key, "kid-1", iss.StandardClaims("user-123"))
	_, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, int64(1), iss.JWKSFetches())

	// A burst of unknown-kid tokens must not trigger further fetches.
	rogue, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		forged := iss.Mint(t, rogue, "forged-kid", iss.StandardClaims("user-123"))
		_, err := v.Validate(context.Background(), forged)
		testutil.AssertErrorCode(t, err, paerr.CodeTokenSignature)
	}
	assert.Equal(t, int64(1), iss.JWKSFetches(),
		"unknown-kid burst inside the refresh interval must not hit the issuer")
}

// TestValidator_Validate_KeyRotation verifies that a token signed with a
// newly rotated key validates once the refresh window allows a refetch.
func TestValidator_Validate_KeyRotation(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	oldKey := iss.AddKey(t, "kid-old")
	v := newValidator(t, iss, func(cfg *auth.ValidatorConfig) {
		cfg.MinRefreshInterval = time.Nanosecond // No artificial waiting in tests.
	})

	_, err := v.Validate(context.Background(), iss.Mint(t, oldKey, "kid-old", iss.StandardClaims("user-123")))
	require.NoError(t, err)

	newKey := iss.AddKey(t, "kid-new")
	token, err := v.Validate(context.Background(), iss.Mint(t, newKey, "kid-new", iss.StandardClaims("user-123")))
	require.NoError(t, err)
	assert.Equal(t, "user-123", token.Subject())
}

func TestValidator_Validate_CachedKeysSkipIssuer(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	for i := 0; i < 5; i++ {
		_, err := v.Validate(context.Background(), iss.Mint(t, key, "kid-1", iss.StandardClaims("user-123")))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), iss.JWKSFetches(),
		"known-kid validations must be served from the key cache")
}

func TestNewValidator_RequiresTrustContext(t *testing.T) {
	t.Parallel()
	cfg := auth.DefaultValidatorConfig()
	cfg.IssuerURL = "https://keycloak.photoatom.local/realms/photoatom"

	_, err := auth.NewValidator(cfg, nil)
	testutil.RequireErrorCode(t, err, paerr.CodeCredential)
}

func TestNewValidator_ConfigValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*auth.ValidatorConfig)
		code   paerr.Code
	}{
		{
			name:   "missing issuer URL",
			mutate: func(cfg *auth.ValidatorConfig) { cfg.IssuerURL = "" },
			code:   paerr.CodeValidationRequired,
		},
		{
			name:   "non-http issuer URL",
			mutate: func(cfg *auth.ValidatorConfig) { cfg.IssuerURL = "ldap://issuer" },
			code:   paerr.CodeValidation,
		},
		{
			name:   "negative cache TTL",
			mutate: func(cfg *auth.ValidatorConfig) { cfg.JWKSCacheTTL = -time.Second },
			code:   paerr.CodeValidation,
		},
		{
			name:   "negative refresh interval",
			mutate: func(cfg *auth.ValidatorConfig) { cfg.MinRefreshInterval = -time.Second },
			code:   paerr.CodeValidation,
		},
		{
			name:   "negative clock skew",
			mutate: func(cfg *auth.ValidatorConfig) { cfg.ClockSkew = -time.Second },
			code:   paerr.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := auth.DefaultValidatorConfig()
			cfg.IssuerURL = "https://keycloak.photoatom.local/realms/photoatom"
			cfg.HTTPClient = http.DefaultClient
			tt.mutate(&cfg)

			_, err := auth.NewValidator(cfg, nil)
			testutil.RequireErrorCode(t, err, tt.code)
		})
	}
}

// ===========================================================================
// OTel Tests
// ===========================================================================

// TestValidator_Validate_CreatesSpan verifies that a validation records an
// auth.Validate span on the global tracer provider.
func TestValidator_Validate_CreatesSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	raw := iss.Mint(t, key, "kid-1", iss.StandardClaims("span-user"))
	_, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)

	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)

	var found bool
	for _, s := range spans {
		if s.Name == "auth.Validate" {
			found = true
			break
		}
	}
	assert.True(t, found, "auth.Validate span should exist in recorded spans")
}

// ===========================================================================
// Health Tests
// ===========================================================================

// TestValidator_Health warms the key cache through the startup health check and
// verifies that subsequent validations are served without another fetch.
func TestValidator_Health(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	key := iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)

	require.NoError(t, v.Health(context.Background()))
	assert.EqualValues(t, 1, iss.JWKSFetches())

	raw := iss.Mint(t, key, "kid-1", iss.StandardClaims("user-123"))
	_, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.EqualValues(t, 1, iss.JWKSFetches(), "validation after a health check should hit the warmed cache")
}

// TestValidator_Health_IssuerUnreachable verifies that an unreachable
// issuer surfaces through Health as a startup/readiness failure.
// Construction alone does not contact the issuer, so without this check a
// dead issuer would only be visible as per-request key fetch denials.
func TestValidator_Health_IssuerUnreachable(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, nil)
	iss.Close()

	err := v.Health(context.Background())
	require.Error(t, err)
	testutil.RequireErrorCode(t, err, paerr.CodeUnavailableDependency)
}

// TestValidator_Health_IgnoresRefreshBound verifies that operator health checks
// are not rate-limited the way token-driven refreshes are: two health
// checks in a row both reach the issuer even under a long minimum
// refresh interval.
func TestValidator_Health_IgnoresRefreshBound(t *testing.T) {
	t.Parallel()
	iss := testutil.NewIssuer(t)
	iss.AddKey(t, "kid-1")
	v := newValidator(t, iss, func(cfg *auth.ValidatorConfig) {
		cfg.MinRefreshInterval = time.Hour
	})

	require.NoError(t, v.Health(context.Background()))
	require.NoError(t, v.Health(context.Background()))
	assert.EqualValues(t, 2, iss.JWKSFetches())
}
