package config

import (
	"time"

	"github.com/photoatom/photoatom-core/pkg/auth"
	"github.com/photoatom/photoatom-core/pkg/clients/valkey"
	paerr "github.com/photoatom/photoatom-core/pkg/errors"
	"github.com/photoatom/photoatom-core/pkg/trust"
)

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// Default server settings.
const (
	// DefaultServerAddr is the address the HTTP server listens on.
	DefaultServerAddr = ":8080"

	// DefaultServerReadTimeout bounds the time spent reading a request,
	// including the body.
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout bounds the time spent writing a response.
	DefaultServerWriteTimeout = 10 * time.Second

	// DefaultServerIdleTimeout is how long an idle keep-alive connection
	// is held open.
	DefaultServerIdleTimeout = 60 * time.Second

	// DefaultServerShutdownTimeout is how long graceful shutdown waits
	// for in-flight requests before forcing connections closed.
	DefaultServerShutdownTimeout = 15 * time.Second
)

// ---------------------------------------------------------------------------
// ServerConfig
// ---------------------------------------------------------------------------

// ServerConfig holds the HTTP listener settings for the backend server.
type ServerConfig struct {
	// Addr is the listen address in host:port form. Default: ":8080"
	Addr string `json:"addr,omitempty" env:"ADDR" envDefault:":8080"`

	// ReadTimeout bounds reading a request, including the body.
	// Default: 10s
	ReadTimeout time.Duration `json:"read_timeout,omitempty" env:"READ_TIMEOUT" envDefault:"10s"`

	// WriteTimeout bounds writing a response. Default: 10s
	WriteTimeout time.Duration `json:"write_timeout,omitempty" env:"WRITE_TIMEOUT" envDefault:"10s"`

	// IdleTimeout is the keep-alive idle connection timeout. Default: 60s
	IdleTimeout time.Duration `json:"idle_timeout,omitempty" env:"IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the graceful shutdown deadline. Default: 15s
	ShutdownTimeout time.Duration `json:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Validate checks the server configuration, applying defaults for unset
// fields first.
//
// Error codes returned:
//   - [paerr.CodeValidation]: a timeout is negative
func (c *ServerConfig) Validate() error {
	c.applyDefaults()

	if c.ReadTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation,
			"config: server read timeout must not be negative, got %s", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation,
			"config: server write timeout must not be negative, got %s", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation,
			"config: server idle timeout must not be negative, got %s", c.IdleTimeout)
	}
	if c.ShutdownTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation,
			"config: server shutdown timeout must not be negative, got %s", c.ShutdownTimeout)
	}

	return nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultServerAddr
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultServerReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultServerIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultServerShutdownTimeout
	}
}

// ---------------------------------------------------------------------------
// TrustMaterial
// ---------------------------------------------------------------------------

// TrustMaterial names the on-disk credential stores for one mutual-TLS
// peer relationship: the PKCS#12 identity store proving who this service
// is and the JKS trust store pinning which peer certificates it accepts.
//
// The backend carries one TrustMaterial per peer: one for the token
// issuer and one for the cache. The store passwords are [trust.Secret]
// values and never appear in logs or serialized output.
type TrustMaterial struct {
	// IdentityStorePath is the filesystem path of the PKCS#12 identity
	// store.
	IdentityStorePath string `json:"identity_store_path" env:"IDENTITY_STORE_PATH" required:"true"`

	// IdentityStorePassword decrypts the identity store.
	IdentityStorePassword trust.Secret `json:"-" env:"IDENTITY_STORE_PASSWORD"`

	// TrustStorePath is the filesystem path of the JKS trust store.
	TrustStorePath string `json:"trust_store_path" env:"TRUST_STORE_PATH" required:"true"`

	// TrustStorePassword verifies the trust store integrity digest.
	TrustStorePassword trust.Secret `json:"-" env:"TRUST_STORE_PASSWORD"`
}

// Build decodes the two stores into an immutable [trust.Context]. All
// failures are startup-fatal credential errors; see [trust.Build].
func (m TrustMaterial) Build() (*trust.Context, error) {
	return trust.Build(m.IdentityStorePath, m.IdentityStorePassword,
		m.TrustStorePath, m.TrustStorePassword)
}

// ---------------------------------------------------------------------------
// AppConfig
// ---------------------------------------------------------------------------

// AppConfig is the complete startup configuration of the backend server.
// It composes the per-package configuration structs so a single [Load]
// call materializes every setting from the config file and environment:
//
//	cfg := config.MustLoad[AppConfig](
//	    config.New().
//	        WithEnvPrefix("PHOTOATOM").
//	        WithFile(os.Getenv("PHOTOATOM_CONFIG_FILE")),
//	)
//
// With the PHOTOATOM prefix the environment variables line up as
// PHOTOATOM_SERVER_ADDR, PHOTOATOM_AUTH_ISSUER_URL,
// PHOTOATOM_AUTH_IDENTITY_STORE_PATH, PHOTOATOM_VALKEY_HOST,
// PHOTOATOM_VALKEY_TRUST_STORE_PATH, and so on.
type AppConfig struct {
	// Server configures the HTTP listener.
	Server ServerConfig `json:"server" env:"SERVER"`

	// Auth configures remote token validation against the issuer.
	Auth auth.ValidatorConfig `json:"auth"`

	// AuthTrust names the credential stores for the mutual-TLS channel
	// to the token issuer.
	AuthTrust TrustMaterial `json:"auth_trust" env:"AUTH"`

	// Cache configures the Valkey cache client.
	Cache valkey.Config `json:"cache"`

	// CacheTrust names the credential stores for the mutual-TLS channel
	// to the cache.
	CacheTrust TrustMaterial `json:"cache_trust" env:"VALKEY"`
}

// Validate implements [Validator] by delegating to each section's own
// Validate method. The first failure wins; every returned error carries
// a VAL_xxx code.
func (c *AppConfig) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}
