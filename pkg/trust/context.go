package trust

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"time"
)

// Context is the immutable result of decoding the credential stores: the
// service's own keypair plus the set of peer certificates it trusts.
//
// A Context is safe for concurrent use by multiple goroutines. It holds no
// connections and watches no files; rotating credentials means building a
// new Context and swapping it at the call sites.
//
// Create a Context with [Build].
type Context struct {
	certificate tls.Certificate
	leaf        *x509.Certificate
	pool        *x509.CertPool
	trusted     []*x509.Certificate
}

// TLSConfig returns a fresh *tls.Config for each call, presenting the
// identity keypair and verifying peers against the trust store pool with
// standard chain and hostname verification. The minimum negotiated protocol
// version is TLS 1.2.
//
// Callers may mutate the returned config (for example to set ServerName)
// without affecting the Context or other callers.
func (c *Context) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{c.certificate},
		RootCAs:      c.pool.Clone(),
	}
}

// HTTPClient returns an *http.Client whose transport dials with this
// Context's TLS material. The timeout bounds the entire request, including
// connection establishment, the TLS handshake, and reading the response
// body. A timeout of zero means no limit.
//
// Each call returns an independent client with its own transport and
// connection pool.
func (c *Context) HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: c.TLSConfig(),
		},
	}
}

// Leaf returns the leaf certificate from the identity store. It is useful
// for logging the presented identity (subject, expiry) at startup. The
// returned certificate must not be modified.
func (c *Context) Leaf() *x509.Certificate {
	return c.leaf
}

// TrustedCertificates returns a copy of the certificates loaded from the
// trust store.
func (c *Context) TrustedCertificates() []*x509.Certificate {
	out := make([]*x509.Certificate, len(c.trusted))
	copy(out, c.trusted)
	return out
}
