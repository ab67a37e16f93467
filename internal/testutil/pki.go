package testutil

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"
)

// KeyPair is a throwaway private key and certificate for tests. Use [NewCA]
// to create a self-signed authority and [KeyPair.Issue] to sign leaf
// certificates under it.
type KeyPair struct {
	Key  *ecdsa.PrivateKey
	Cert *x509.Certificate
}

// NewCA generates a self-signed certificate authority valid for one hour.
func NewCA(t testing.TB) *KeyPair {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate CA key")

	template := &x509.Certificate{
		SerialNumber:          newSerial(t),
		Subject:               pkix.Name{CommonName: "photoatom test CA"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err, "failed to self-sign CA certificate")
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &KeyPair{Key: key, Cert: cert}
}

// Issue signs a leaf certificate under the receiver CA. The certificate is
// valid for one hour, carries the given common name, and is usable for both
// client and server authentication. DNS names and "127.0.0.1" are added as
// subject alternative names so the certificate works with httptest servers.
func (ca *KeyPair) Issue(t testing.TB, commonName string, dnsNames ...string) *KeyPair {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate leaf key")

	template := &x509.Certificate{
		SerialNumber: newSerial(t),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:     dnsNames,
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, ca.Cert, &key.PublicKey, ca.Key)
	require.NoError(t, err, "failed to issue leaf certificate")
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &KeyPair{Key: key, Cert: cert}
}

// TLSCertificate returns the KeyPair as a tls.Certificate for use in test
// server configurations.
func (kp *KeyPair) TLSCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{kp.Cert.Raw},
		PrivateKey:  kp.Key,
		Leaf:        kp.Cert,
	}
}

// WriteIdentityStore encodes the KeyPair (plus any CA certificates) into a
// PKCS#12 identity store inside t.TempDir() and returns the file path.
func WriteIdentityStore(t testing.TB, kp *KeyPair, password string, caCerts ...*x509.Certificate) string {
	t.Helper()
	data, err := pkcs12.Modern.Encode(kp.Key, kp.Cert, caCerts, password)
	require.NoError(t, err, "failed to encode identity store")

	path := filepath.Join(t.TempDir(), "identity.p12")
	err = os.WriteFile(path, data, 0o600)
	require.NoError(t, err, "failed to write identity store %s", path)
	return path
}

// WriteTrustStore encodes the given certificates into a JKS trust store
// inside t.TempDir() and returns the file path.
func WriteTrustStore(t testing.TB, password string, certs ...*x509.Certificate) string {
	t.Helper()
	ks := keystore.New()
	for i, cert := range certs {
		alias := "trusted-" + big.NewInt(int64(i)).String()
		err := ks.SetTrustedCertificateEntry(alias, keystore.TrustedCertificateEntry{
			CreationTime: time.Now(),
			Certificate: keystore.Certificate{
				Type:    "X509",
				Content: cert.Raw,
			},
		})
		require.NoError(t, err, "failed to add trust store entry %s", alias)
	}

	var buf bytes.Buffer
	err := ks.Store(&buf, []byte(password))
	require.NoError(t, err, "failed to encode trust store")

	path := filepath.Join(t.TempDir(), "trust.jks")
	err = os.WriteFile(path, buf.Bytes(), 0o600)
	require.NoError(t, err, "failed to write trust store %s", path)
	return path
}

// newSerial generates a random certificate serial number.
func newSerial(t testing.TB) *big.Int {
	t.Helper()
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	require.NoError(t, err, "failed to generate serial number")
	return serial
}
