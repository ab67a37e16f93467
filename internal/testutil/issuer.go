package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Issuer is a fake token issuer for tests: an [httptest.Server] publishing
// an OIDC discovery document and a JWKS endpoint, plus the signing keys to
// mint tokens against it.
//
// The JWKS endpoint counts its hits, so tests can assert how often a
// validator went back to the issuer for keys.
type Issuer struct {
	server      *httptest.Server
	keysMu      sync.RWMutex
	keys        map[string]*rsa.PrivateKey
	jwksFetches atomic.Int64
}

// NewIssuer starts a fake issuer. The server is closed automatically when
// the test finishes.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	iss := &Issuer{keys: make(map[string]*rsa.PrivateKey)}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   base,
			"jwks_uri": base + "/protocol/openid-connect/certs",
		})
	})
	mux.HandleFunc("/protocol/openid-connect/certs", func(w http.ResponseWriter, r *http.Request) {
		iss.jwksFetches.Add(1)
		iss.keysMu.RLock()
		defer iss.keysMu.RUnlock()
		var keys []map[string]string
		for kid, key := range iss.keys {
			pub := &key.PublicKey
			keys = append(keys, map[string]string{
				"kty": "RSA",
				"kid": kid,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
	})

	iss.server = httptest.NewServer(mux)
	t.Cleanup(iss.server.Close)
	return iss
}

// URL returns the issuer URL. Tokens minted by this issuer carry it as
// their iss claim.
func (i *Issuer) URL() string {
	return i.server.URL
}

// Client returns an HTTP client for talking to the issuer.
func (i *Issuer) Client() *http.Client {
	return i.server.Client()
}

// Close shuts the issuer down immediately, making key fetches fail.
func (i *Issuer) Close() {
	i.server.Close()
}

// JWKSFetches returns how many times the JWKS endpoint has been hit.
func (i *Issuer) JWKSFetches() int64 {
	return i.jwksFetches.Load()
}

// AddKey generates an RSA signing key and publishes it in the JWKS under
// the given kid.
func (i *Issuer) AddKey(t testing.TB, kid string) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	i.keysMu.Lock()
	i.keys[kid] = key
	i.keysMu.Unlock()
	return key
}

// Mint signs an RS256 token with the given key and kid. The claims map is
// used as-is; callers set iss/sub/exp as the scenario requires.
func (i *Issuer) Mint(t testing.TB, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	raw, err := token.SignedString(key)
	require.NoError(t, err)
	return raw
}

// StandardClaims returns a claim set for a token valid for five minutes,
// issued by this issuer, with the given subject and realm roles.
func (i *Issuer) StandardClaims(subject string, roles ...any) jwt.MapClaims {
	return jwt.MapClaims{
		"iss": i.URL(),
		"sub": subject,
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"realm_access": map[string]any{
			"roles": roles,
		},
	}
}
