package trust_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoatom/photoatom-core/internal/testutil"
	paerr "github.com/photoatom/photoatom-core/pkg/errors"
	"github.com/photoatom/photoatom-core/pkg/trust"
)

const (
	identityPassword = "identity-pass"
	trustPassword    = "trust-pass"
)

// buildStores generates a CA, a leaf keypair, an identity store holding the
// leaf, and a trust store holding the CA, returning the two store paths and
// the CA for further certificate issuance.
func buildStores(t *testing.T) (identityPath, trustPath string, ca *testutil.KeyPair) {
	t.Helper()
	ca = testutil.NewCA(t)
	leaf := ca.Issue(t, "photoatom-backend")
	identityPath = testutil.WriteIdentityStore(t, leaf, identityPassword, ca.Cert)
	trustPath = testutil.WriteTrustStore(t, trustPassword, ca.Cert)
	return identityPath, trustPath, ca
}

func TestBuild(t *testing.T) {
	t.Parallel()
	identityPath, trustPath, _ := buildStores(t)

	ctx, err := trust.Build(identityPath, identityPassword, trustPath, trustPassword)
	require.NoError(t, err)
	require.NotNil(t, ctx)

	assert.Equal(t, "photoatom-backend", ctx.Leaf().Subject.CommonName)
	assert.Len(t, ctx.TrustedCertificates(), 1)
}

func TestBuild_IdentityStoreMissing(t *testing.T) {
	t.Parallel()
	_, trustPath, _ := buildStores(t)

	_, err := trust.Build("/nonexistent/identity.p12", identityPassword, trustPath, trustPassword)
	testutil.RequireErrorCode(t, err, paerr.CodeCredentialUnreadable)
}

func TestBuild_IdentityStoreWrongPassword(t *testing.T) {
	t.Parallel()
	identityPath, trustPath, _ := buildStores(t)

	_, err := trust.Build(identityPath, "not-the-password", trustPath, trustPassword)
	testutil.RequireErrorCode(t, err, paerr.CodeCredentialPassword)
}

func TestBuild_IdentityStoreCorrupt(t *testing.T) {
	t.Parallel()
	_, trustPath, _ := buildStores(t)
	corrupt := filepath.Join(t.TempDir(), "identity.p12")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a pkcs12 store"), 0o600))

	_, err := trust.Build(corrupt, identityPassword, trustPath, trustPassword)
	testutil.RequireErrorCode(t, err, paerr.CodeCredential)
}

func TestBuild_TrustStoreMissing(t *testing.T) {
	t.Parallel()
	identityPath, _, _ := buildStores(t)

	_, err := trust.Build(identityPath, identityPassword, "/nonexistent/trust.jks", trustPassword)
	testutil.RequireErrorCode(t, err, paerr.CodeCredentialUnreadable)
}

func TestBuild_TrustStoreWrongPassword(t *testing.T) {
	t.Parallel()
	identityPath, trustPath, _ := buildStores(t)

	_, err := trust.Build(identityPath, identityPassword, trustPath, "not-the-password")
	testutil.RequireErrorCode(t, err, paerr.CodeCredentialPassword)
}

func TestBuild_TrustStoreCorrupt(t *testing.T) {
	t.Parallel()
	identityPath, _, _ := buildStores(t)
	corrupt := filepath.Join(t.TempDir(), "trust.jks")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a jks store"), 0o600))

	_, err := trust.Build(identityPath, identityPassword, corrupt, trustPassword)
	testutil.RequireError(t, err)
	paErr, ok := paerr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "CRED", paErr.Code.Category(), "corrupt trust store must be a credential error")
}

func TestBuild_TrustStoreEmpty(t *testing.T) {
	t.Parallel()
	identityPath, _, _ := buildStores(t)
	emptyTrustPath := testutil.WriteTrustStore(t, trustPassword)

	_, err := trust.Build(identityPath, identityPassword, emptyTrustPath, trustPassword)
	testutil.RequireErrorCode(t, err, paerr.CodeCredentialEmpty)
}

func TestBuild_IdentityKeyCertificateMismatch(t *testing.T) {
	t.Parallel()
	ca := testutil.NewCA(t)
	leafA := ca.Issue(t, "service-a")
	leafB := ca.Issue(t, "service-b")
	trustPath := testutil.WriteTrustStore(t, trustPassword, ca.Cert)

	// Pair service-a's key with service-b's certificate.
	mismatched := &testutil.KeyPair{Key: leafA.Key, Cert: leafB.Cert}
	identityPath := testutil.WriteIdentityStore(t, mismatched, identityPassword)

	_, err := trust.Build(identityPath, identityPassword, trustPath, trustPassword)
	testutil.RequireErrorCode(t, err, paerr.CodeCredentialIncompatible)
}

func TestBuild_ErrorsAreStartupFatal(t *testing.T) {
	t.Parallel()
	// Every Build failure must be recognizable as a credential error so
	// callers can refuse to start.
	_, trustPath, _ := buildStores(t)

	_, err := trust.Build("/nonexistent/identity.p12", identityPassword, trustPath, trustPassword)
	require.Error(t, err)
	assert.True(t, paerr.IsCredential(err))
}

func TestSecret_Redaction(t *testing.T) {
	t.Parallel()
	secret := trust.Secret("super-secret-password")

	assert.Equal(t, "[REDACTED]", secret.String())
	assert.Equal(t, "[REDACTED]", secret.GoString())
	assert.Equal(t, "super-secret-password", secret.Value())

	assert.NotContains(t, fmt.Sprintf("%v", secret), "super-secret")
	assert.NotContains(t, fmt.Sprintf("%#v", secret), "super-secret")
}

func TestSecret_MarshalText(t *testing.T) {
	t.Parallel()
	type payload struct {
		Password trust.Secret `json:"password"`
	}

	data, err := json.Marshal(payload{Password: "super-secret-password"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")
	assert.Contains(t, string(data), "[REDACTED]")
}
