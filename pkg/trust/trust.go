// Package trust builds immutable mutual-TLS trust material from credential
// stores on disk for services running on the photoatom platform.
//
// # Credential Stores
//
// Two stores feed a [Context]: an identity store (PKCS#12, carrying exactly
// one private key and its certificate chain) proving who this service is,
// and a trust store (JKS, carrying one or more trusted certificates)
// pinning which peers this service believes. Both stores are decoded once
// at startup with [Build]:
//
//	trustCtx, err := trust.Build(
//	    "/etc/photoatom/pki/identity.p12", trust.Secret(os.Getenv("IDENTITY_STORE_PASSWORD")),
//	    "/etc/photoatom/pki/trust.jks", trust.Secret(os.Getenv("TRUST_STORE_PASSWORD")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := trustCtx.HTTPClient(10 * time.Second)
//
// # Failure Semantics
//
// Every failure mode of [Build] is a credential error (CRED_xxx code) and is
// startup-fatal: a missing file, a wrong password, a store with no usable
// entries, or key material that cannot serve a TLS handshake all mean no
// valid trust material exists, and the process must not come up half-trusted.
// Build never degrades to system roots or to an empty keypair.
//
// # Kubernetes Integration
//
// On the photoatom platform the stores are projected into the pod filesystem
// from cert-manager Secrets, and the store passwords are injected as
// environment variables by the External Secrets Operator.
package trust

import (
	"bytes"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"strings"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"software.sslmate.com/src/go-pkcs12"

	paerr "github.com/photoatom/photoatom-core/pkg/errors"
)

// Secret is a string type that prevents accidental logging of sensitive
// values such as store passwords. Its [Secret.String] and [Secret.GoString]
// methods return a redacted placeholder. Use [Secret.Value] to retrieve the
// actual secret value.
type Secret string

// redacted is the placeholder string returned by Secret's string methods.
const redacted = "[REDACTED]"

// String returns "[REDACTED]" to prevent accidental logging of the secret.
func (s Secret) String() string {
	return redacted
}

// GoString returns "[REDACTED]" for fmt.Sprintf("%#v", secret) safety.
func (s Secret) GoString() string {
	return redacted
}

// Value returns the actual secret string. Handle the returned value with
// care; avoid logging, serializing, or storing it in plaintext.
func (s Secret) Value() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler, returning "[REDACTED]" to
// prevent the secret from appearing in JSON, YAML, or other text-based
// serialization formats.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Build decodes the identity store (PKCS#12) and the trust store (JKS) and
// returns an immutable [Context] holding the resulting TLS material.
//
// The identity store must contain exactly one private key with its
// certificate chain. The trust store must contain at least one trusted
// certificate entry; private key entries in the trust store are ignored.
//
// Error codes returned (all startup-fatal):
//   - [paerr.CodeCredentialUnreadable]: a store file cannot be read
//   - [paerr.CodeCredentialPassword]: a store password is wrong
//   - [paerr.CodeCredentialEmpty]: the trust store has no certificate entries
//   - [paerr.CodeCredentialIncompatible]: key material cannot serve TLS
//   - [paerr.CodeCredential]: a store cannot be decoded
func Build(identityStorePath string, identityStorePassword Secret, trustStorePath string, trustStorePassword Secret) (*Context, error) {
	certificate, leaf, err := loadIdentityStore(identityStorePath, identityStorePassword)
	if err != nil {
		return nil, err
	}

	pool, trusted, err := loadTrustStore(trustStorePath, trustStorePassword)
	if err != nil {
		return nil, err
	}

	return &Context{
		certificate: certificate,
		leaf:        leaf,
		pool:        pool,
		trusted:     trusted,
	}, nil
}

// loadIdentityStore reads and decodes a PKCS#12 identity store, returning
// the TLS certificate (private key + chain) and the leaf certificate.
func loadIdentityStore(path string, password Secret) (tls.Certificate, *x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, nil, paerr.Wrapf(err, paerr.CodeCredentialUnreadable,
			"trust: failed to read identity store %q", path)
	}

	key, leaf, caCerts, err := pkcs12.DecodeChain(data, password.Value())
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return tls.Certificate{}, nil, paerr.Wrapf(err, paerr.CodeCredentialPassword,
				"trust: wrong password for identity store %q", path)
		}
		return tls.Certificate{}, nil, paerr.Wrapf(err, paerr.CodeCredential,
			"trust: failed to decode identity store %q", path)
	}

	// The private key must be able to sign TLS handshakes and must belong
	// to the leaf certificate.
	signer, ok := key.(crypto.Signer)
	if !ok {
		return tls.Certificate{}, nil, paerr.Newf(paerr.CodeCredentialIncompatible,
			"trust: identity store %q private key type %T cannot sign TLS handshakes", path, key)
	}
	if !publicKeysEqual(signer.Public(), leaf.PublicKey) {
		return tls.Certificate{}, nil, paerr.Newf(paerr.CodeCredentialIncompatible,
			"trust: identity store %q private key does not match its certificate", path)
	}

	chain := [][]byte{leaf.Raw}
	for _, ca := range caCerts {
		chain = append(chain, ca.Raw)
	}

	return tls.Certificate{
		Certificate: chain,
		PrivateKey:  signer,
		Leaf:        leaf,
	}, leaf, nil
}

// loadTrustStore reads and decodes a JKS trust store, returning a certificate
// pool with every trusted certificate entry and the parsed certificates.
func loadTrustStore(path string, password Secret) (*x509.CertPool, []*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, paerr.Wrapf(err, paerr.CodeCredentialUnreadable,
			"trust: failed to read trust store %q", path)
	}

	ks := keystore.New()
	if err := ks.Load(bytes.NewReader(data), []byte(password.Value())); err != nil {
		// keystore-go reports a wrong password as a digest mismatch; there
		// is no sentinel error to match against.
		if strings.Contains(err.Error(), "digest") {
			return nil, nil, paerr.Wrapf(err, paerr.CodeCredentialPassword,
				"trust: wrong password for trust store %q", path)
		}
		return nil, nil, paerr.Wrapf(err, paerr.CodeCredential,
			"trust: failed to decode trust store %q", path)
	}

	pool := x509.NewCertPool()
	var trusted []*x509.Certificate
	for _, alias := range ks.Aliases() {
		if !ks.IsTrustedCertificateEntry(alias) {
			continue
		}
		entry, err := ks.GetTrustedCertificateEntry(alias)
		if err != nil {
			return nil, nil, paerr.Wrapf(err, paerr.CodeCredential,
				"trust: failed to read trust store entry %q", alias)
		}
		cert, err := x509.ParseCertificate(entry.Certificate.Content)
		if err != nil {
			return nil, nil, paerr.Wrapf(err, paerr.CodeCredential,
				"trust: trust store entry %q is not a valid X.509 certificate", alias)
		}
		pool.AddCert(cert)
		trusted = append(trusted, cert)
	}

	if len(trusted) == 0 {
		return nil, nil, paerr.Newf(paerr.CodeCredentialEmpty,
			"trust: trust store %q contains no trusted certificate entries", path)
	}

	return pool, trusted, nil
}

// publicKeysEqual reports whether two public keys are the same key. Every
// key type produced by PKCS#12 decoding (RSA, ECDSA, Ed25519) implements
// the Equal method.
func publicKeysEqual(a, b crypto.PublicKey) bool {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}
	if ae, ok := a.(equaler); ok {
		return ae.Equal(b)
	}
	return false
}
