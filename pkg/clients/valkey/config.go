// Package valkey provides the secure cache client for the PhotoAtom
// backend: a Valkey client with mandatory TLS, OpenTelemetry tracing, and
// structured error handling.
//
// # Connection Management
//
// The client wraps go-redis (github.com/redis/go-redis/v9), which speaks
// the Valkey wire protocol, and adds cross-cutting concerns (tracing,
// error classification, key namespacing) transparently. Connection
// pooling, reconnection, and retry are handled internally by go-redis.
//
// Every connection is established over TLS using the cache-side trust
// context and authenticated with the configured password. Before a client
// is handed to the caller, [NewClient] performs an ECHO liveness check
// with a unique payload: if the cache does not return the payload byte
// for byte, the client is closed and construction fails. A cache handle
// that was ever observed misbehaving is never returned usable.
//
// # Degradable by Contract
//
// The cache is never a correctness dependency. Read and write failures
// surface as typed cache errors ([paerr.IsCache] returns true) so callers
// can bypass the cache and recompute; they must never fail a request
// because the cache is down.
//
// # Key Namespacing
//
// All keys are namespaced as prefix + name + "::" + key, where name is
// the logical cache name (e.g., "say-hello"). Entries written by other
// backend instances sharing the prefix are therefore interoperable.
//
// # Configuration
//
//	cfg := valkey.DefaultConfig()
//	cfg.Password = valkey.Secret(os.Getenv("VALKEY_PASSWORD"))
//	client, err := valkey.NewClient(ctx, *cfg, trustCtx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// For testing, use [NewFromClient] to inject a mock:
//
//	mock := &mockCmdable{}
//	client := valkey.NewFromClient(mock, nil)
package valkey

import (
	"time"

	paerr "github.com/photoatom/photoatom-core/pkg/errors"
)

// maxStatementTruncateLen is the maximum length for cache command
// statements recorded in OpenTelemetry trace spans. Statements longer
// than this are truncated to prevent sensitive data from leaking into
// telemetry systems.
const maxStatementTruncateLen = 100

// Default connection pool, timeout, and namespacing settings for the
// PhotoAtom Kubernetes deployment.
const (
	// DefaultHost is the Kubernetes Service DNS name for the Valkey
	// cache in the PhotoAtom deployment.
	DefaultHost = "valkey.photoatom.svc.cluster.local"

	// DefaultPort is the standard Valkey port.
	DefaultPort = 6379

	// DefaultKeyPrefix is the namespace prefix prepended to every cache
	// key. It matches the prefix used by the rest of the backend, so
	// entries are shared across instances.
	DefaultKeyPrefix = "photoatom.backend."

	// DefaultTTL is the expiry applied to cache entries when the caller
	// does not specify one. Expiry is enforced server-side.
	DefaultTTL = 15 * time.Minute

	// DefaultPoolSize is the maximum number of connections in the pool.
	DefaultPoolSize = 25

	// DefaultMinIdleConns is the minimum number of idle connections
	// maintained in the pool.
	DefaultMinIdleConns = 5

	// DefaultMaxRetries is the maximum number of retries before giving
	// up on a command.
	DefaultMaxRetries = 3

	// DefaultPoolTimeout is the maximum time a caller waits for a
	// connection when the pool is exhausted before the operation fails.
	DefaultPoolTimeout = 6 * time.Second

	// DefaultDialTimeout is the maximum time to wait when establishing
	// a new connection to the cache.
	DefaultDialTimeout = 10 * time.Second

	// DefaultReadTimeout is the maximum time to wait for a read response.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum time to wait for a write to
	// complete.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultHealthTimeout is the maximum time for a health check ping
	// when the caller's context has no deadline.
	DefaultHealthTimeout = 5 * time.Second
)

// Secret is a string type that prevents accidental logging of sensitive
// values such as the cache password. Its [Secret.String] and
// [Secret.GoString] methods return a redacted placeholder. Use
// [Secret.Value] to retrieve the actual secret value.
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

// MarshalText implements encoding.TextMarshaler, returning "[REDACTED]"
// to prevent the secret from appearing in JSON, YAML, or other text-based
// serialization formats.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Config holds the Valkey connection configuration. Environment variable
// names are documented in env struct tags; values are typically injected
// by the deployment.
type Config struct {
	// Host is the Valkey server hostname or IP address.
	// Default: "valkey.photoatom.svc.cluster.local"
	Host string `json:"host,omitempty" env:"VALKEY_HOST"`

	// Port is the Valkey server port.
	// Default: 6379
	Port int `json:"port,omitempty" env:"VALKEY_PORT"`

	// Password is the AUTH password. Uses the [Secret] type to prevent
	// accidental logging.
	Password Secret `json:"-" env:"VALKEY_PASSWORD"`

	// KeyPrefix is the namespace prefix prepended to every cache key.
	// Default: "photoatom.backend."
	KeyPrefix string `json:"key_prefix,omitempty" env:"VALKEY_KEY_PREFIX"`

	// TTL is the expiry applied to entries written without an explicit
	// one. Default: 15m
	TTL time.Duration `json:"ttl,omitempty" env:"VALKEY_TTL" envDefault:"15m"`

	// PoolSize is the maximum number of connections in the pool.
	// Default: 25
	PoolSize int `json:"pool_size,omitempty" env:"VALKEY_POOL_SIZE"`

	// MinIdleConns is the minimum number of idle connections maintained
	// in the pool. Default: 5
	MinIdleConns int `json:"min_idle_conns,omitempty" env:"VALKEY_MIN_IDLE_CONNS"`

	// MaxRetries is the maximum number of retries before giving up on a
	// command. Set to -1 to disable retries. Default: 3
	MaxRetries int `json:"max_retries,omitempty" env:"VALKEY_MAX_RETRIES"`

	// PoolTimeout is the maximum time to wait for a connection when the
	// pool is exhausted. Exhaustion blocks the caller at most this long
	// and then fails the operation; it never blocks indefinitely.
	// Default: 6s
	PoolTimeout time.Duration `json:"pool_timeout,omitempty" env:"VALKEY_POOL_TIMEOUT"`

	// DialTimeout is the maximum time to wait when establishing a new
	// connection. Default: 10s
	DialTimeout time.Duration `json:"dial_timeout,omitempty" env:"VALKEY_DIAL_TIMEOUT"`

	// ReadTimeout is the maximum time to wait for a read response.
	// Default: 5s
	ReadTimeout time.Duration `json:"read_timeout,omitempty" env:"VALKEY_READ_TIMEOUT"`

	// WriteTimeout is the maximum time to wait for a write to complete.
	// Default: 5s
	WriteTimeout time.Duration `json:"write_timeout,omitempty" env:"VALKEY_WRITE_TIMEOUT"`
}

// DefaultConfig returns a Config with default values for the PhotoAtom
// Kubernetes deployment. Callers should override fields as needed before
// passing the config to [NewClient].
func DefaultConfig() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		KeyPrefix:    DefaultKeyPrefix,
		TTL:          DefaultTTL,
		PoolSize:     DefaultPoolSize,
		MinIdleConns: DefaultMinIdleConns,
		MaxRetries:   DefaultMaxRetries,
		PoolTimeout:  DefaultPoolTimeout,
		DialTimeout:  DefaultDialTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Validate checks the configuration for invalid values and applies
// defaults for zero-valued fields. Returns a *[paerr.Error] with code
// [paerr.CodeValidation] for the first invalid field.
func (c *Config) Validate() error {
	c.applyDefaults()

	if c.Port < 1 || c.Port > 65535 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config port must be between 1 and 65535, got %d", c.Port)
	}
	if c.PoolSize < 1 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config pool_size must be >= 1, got %d", c.PoolSize)
	}
	if c.MinIdleConns < 0 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config min_idle_conns must be >= 0, got %d", c.MinIdleConns)
	}
	if c.PoolSize < c.MinIdleConns {
		return paerr.Newf(paerr.CodeValidation, "valkey: config pool_size (%d) must be >= min_idle_conns (%d)", c.PoolSize, c.MinIdleConns)
	}
	if c.TTL < 0 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config ttl must not be negative, got %v", c.TTL)
	}
	if c.PoolTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config pool_timeout must not be negative, got %v", c.PoolTimeout)
	}
	if c.DialTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config dial_timeout must not be negative, got %v", c.DialTimeout)
	}
	if c.ReadTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config read_timeout must not be negative, got %v", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return paerr.Newf(paerr.CodeValidation, "valkey: config write_timeout must not be negative, got %v", c.WriteTimeout)
	}

	return nil
}

// applyDefaults sets default values for zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = DefaultMinIdleConns
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.PoolTimeout == 0 {
		c.PoolTimeout = DefaultPoolTimeout
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}

// truncateStatement truncates a cache command statement to
// [maxStatementTruncateLen] runes for safe inclusion in OpenTelemetry
// trace spans. Truncated statements are suffixed with "..." to indicate
// truncation. The truncation is rune-aware to avoid splitting multi-byte
// UTF-8 characters.
func truncateStatement(s string) string {
	runes := []rune(s)
	if len(runes) <= maxStatementTruncateLen {
		return s
	}
	return string(runes[:maxStatementTruncateLen]) + "..."
}
