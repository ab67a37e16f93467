package valkey

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	paerr "github.com/photoatom/photoatom-core/pkg/errors"
	"github.com/photoatom/photoatom-core/pkg/trust"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
// It follows the Go module path convention for OTel instrumentation libraries.
const tracerName = "github.com/photoatom/photoatom-core/pkg/clients/valkey"

// namespaceSeparator joins the cache name and the entry key inside a
// namespaced cache key.
const namespaceSeparator = "::"

// Cmdable defines the interface for the cache command operations this
// package uses. It is satisfied by [*redis.Client] and by mock
// implementations for unit testing, enabling dependency injection via
// [NewFromClient] without a real cache instance.
//
// The interface is intentionally narrow, exposing only the operations
// that the [Client] wraps with tracing and error handling.
type Cmdable interface {
	// Echo returns the given message, round-tripped through the server.
	Echo(ctx context.Context, message interface{}) *redis.StringCmd

	// Ping pings the server.
	Ping(ctx context.Context) *redis.StatusCmd

	// Get returns the string value of a key.
	Get(ctx context.Context, key string) *redis.StringCmd

	// Set sets the string value of a key with an optional expiration.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd

	// Del deletes one or more keys.
	Del(ctx context.Context, keys ...string) *redis.IntCmd

	// TTL returns the remaining time to live of a key.
	TTL(ctx context.Context, key string) *redis.DurationCmd

	// Close closes the client connection.
	Close() error
}

// Compile-time interface compliance check. This ensures that *redis.Client
// satisfies the Cmdable interface at compile time rather than at runtime.
var _ Cmdable = (*redis.Client)(nil)

// Client is the secure cache client: a Valkey client with mandatory TLS,
// OpenTelemetry tracing, key namespacing, and structured error handling.
//
// A Client is safe for concurrent use by multiple goroutines. Create one
// Client per cache instance and share it across the application.
//
// Create a Client with [NewClient] for production use, or [NewFromClient]
// for testing with mock implementations.
type Client struct {
	cmdable Cmdable
	config  *Config
	tracer  trace.Tracer
}

// NewClient creates a new cache client with connection pooling. It
// validates the configuration, dials the cache over TLS using the given
// trust context, authenticates with the configured password, and verifies
// liveness with an ECHO round-trip carrying a unique payload. If the
// echoed payload does not match byte for byte, the connection is torn
// down and construction fails: a handle that misbehaved is never
// returned usable.
//
// The caller must call [Client.Close] when the client is no longer
// needed to release connection resources.
//
// Error codes returned:
//   - [paerr.CodeValidation]: invalid configuration
//   - [paerr.CodeCredential]: nil trust context
//   - [paerr.CodeCacheConnection]: connect, AUTH, or ECHO failure
//
// Example:
//
//	cfg := valkey.DefaultConfig()
//	cfg.Password = valkey.Secret(os.Getenv("VALKEY_PASSWORD"))
//	client, err := valkey.NewClient(ctx, *cfg, trustCtx)
//	if err != nil {
//	    return fmt.Errorf("connecting to valkey: %w", err)
//	}
//	defer client.Close()
func NewClient(ctx context.Context, cfg Config, trustCtx *trust.Context) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if trustCtx == nil {
		return nil, paerr.New(paerr.CodeCredential,
			"valkey: client requires a trust context for the cache channel")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password.Value(),
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		PoolTimeout:  cfg.PoolTimeout,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		TLSConfig:    trustCtx.TLSConfig(),
	})

	if err := verifyEcho(ctx, rdb); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Client{
		cmdable: rdb,
		config:  &cfg,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// NewFromClient creates a Client with a pre-existing [Cmdable]. This
// constructor is intended for testing with mock implementations and for
// advanced use cases where a custom client implementation is needed.
//
// No liveness check is performed. The cfg parameter has defaults applied
// but is not validated; pass nil for a default config in tests.
//
// Example (testing):
//
//	mock := &mockCmdable{}
//	client := valkey.NewFromClient(mock, nil)
func NewFromClient(cmdable Cmdable, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.applyDefaults()
	return &Client{
		cmdable: cmdable,
		config:  cfg,
		tracer:  otel.Tracer(tracerName),
	}
}

// verifyEcho performs the ECHO liveness round-trip with a freshly
// generated payload and compares the response byte for byte.
func verifyEcho(ctx context.Context, cmdable Cmdable) error {
	payload := uuid.NewString()
	echoed, err := cmdable.Echo(ctx, payload).Result()
	if err != nil {
		return paerr.Wrap(err, paerr.CodeCacheConnection,
			"valkey: echo liveness check failed")
	}
	if subtle.ConstantTimeCompare([]byte(echoed), []byte(payload)) != 1 {
		return paerr.New(paerr.CodeCacheConnection,
			"valkey: echo liveness check returned a mismatched payload")
	}
	return nil
}

// keyFor builds the namespaced cache key: prefix + name + "::" + key.
func (c *Client) keyFor(name, key string) string {
	return c.config.KeyPrefix + name + namespaceSeparator + key
}

// Get looks up the entry under the given cache name and key, with
// OpenTelemetry tracing. The second return value reports whether the
// entry was present: a miss is (nil, false, nil), not an error.
//
// Errors are wrapped as *[paerr.Error]:
//   - [paerr.CodeTimeoutDependency] if the context deadline is exceeded
//   - [paerr.CodeCacheRead] for all other cache errors
//
// On error, callers should bypass the cache and recompute; the cache is
// never a correctness dependency.
//
// Example:
//
//	value, found, err := client.Get(ctx, "say-hello", "greeting")
func (c *Client) Get(ctx context.Context, name, key string) ([]byte, bool, error) {
	namespaced := c.keyFor(name, key)
	ctx, span := c.startSpan(ctx, "Get", fmt.Sprintf("GET %s", namespaced))
	val, err := c.cmdable.Get(ctx, namespaced).Bytes()
	if errors.Is(err, redis.Nil) {
		finishSpan(span, nil)
		return nil, false, nil
	}
	finishSpan(span, err)
	if err != nil {
		return nil, false, wrapError(err, paerr.CodeCacheRead, "valkey: get failed")
	}
	return val, true, nil
}

// Put stores the value under the given cache name and key with the given
// expiry, with OpenTelemetry tracing. Expiry is enforced server-side. A
// non-positive ttl falls back to the configured default.
//
// A nil value is a no-op and never an error: null values are not stored,
// so a miss always means "not cached", never "cached null".
//
// Errors are wrapped as *[paerr.Error]:
//   - [paerr.CodeTimeoutDependency] if the context deadline is exceeded
//   - [paerr.CodeCacheWrite] for all other cache errors
//
// Example:
//
//	err := client.Put(ctx, "say-hello", "greeting", []byte("Hello!"), 15*time.Minute)
func (c *Client) Put(ctx context.Context, name, key string, value []byte, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.config.TTL
	}

	namespaced := c.keyFor(name, key)
	ctx, span := c.startSpan(ctx, "Put", fmt.Sprintf("SET %s EX %v", namespaced, ttl))
	err := c.cmdable.Set(ctx, namespaced, value, ttl).Err()
	finishSpan(span, err)
	if err != nil {
		return wrapError(err, paerr.CodeCacheWrite, "valkey: put failed")
	}
	return nil
}

// Del removes the entry under the given cache name and key, with
// OpenTelemetry tracing. Deleting an absent entry is not an error.
//
// Example:
//
//	err := client.Del(ctx, "say-hello", "greeting")
func (c *Client) Del(ctx context.Context, name, key string) error {
	namespaced := c.keyFor(name, key)
	ctx, span := c.startSpan(ctx, "Del", fmt.Sprintf("DEL %s", namespaced))
	err := c.cmdable.Del(ctx, namespaced).Err()
	finishSpan(span, err)
	if err != nil {
		return wrapError(err, paerr.CodeCacheWrite, "valkey: del failed")
	}
	return nil
}

// TTL returns the remaining time to live of the entry under the given
// cache name and key, with OpenTelemetry tracing. Returns -1 if the
// entry exists but has no expiry, and -2 if the entry does not exist.
//
// Example:
//
//	remaining, err := client.TTL(ctx, "say-hello", "greeting")
func (c *Client) TTL(ctx context.Context, name, key string) (time.Duration, error) {
	namespaced := c.keyFor(name, key)
	ctx, span := c.startSpan(ctx, "TTL", fmt.Sprintf("TTL %s", namespaced))
	val, err := c.cmdable.TTL(ctx, namespaced).Result()
	finishSpan(span, err)
	if err != nil {
		return 0, wrapError(err, paerr.CodeCacheRead, "valkey: ttl failed")
	}
	return val, nil
}

// Health verifies that the cache connection is alive by executing a ping.
// It applies [DefaultHealthTimeout] if the provided context has no
// deadline.
//
// Returns nil if the cache is reachable, or a *[paerr.Error] with code
// [paerr.CodeUnavailableDependency] if the ping fails. This method is
// designed for use with health check endpoints and readiness checks.
//
// Example:
//
//	if err := client.Health(ctx); err != nil {
//	    slog.Warn("cache health check failed", "error", err)
//	}
func (c *Client) Health(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "Health", "PING")

	// Apply a default timeout if the caller's context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultHealthTimeout)
		defer cancel()
	}

	err := c.cmdable.Ping(ctx).Err()
	finishSpan(span, err)
	if err != nil {
		return paerr.Wrap(err, paerr.CodeUnavailableDependency,
			"valkey: health check failed")
	}
	return nil
}

// Close releases all connection resources. After Close is called, the
// client must not be used. Close is safe to call multiple times.
func (c *Client) Close() error {
	return c.cmdable.Close()
}

// startSpan creates a new OpenTelemetry span with standard database
// semantic attributes. It follows the OpenTelemetry semantic conventions
// for database client spans:
// https://opentelemetry.io/docs/specs/semconv/database/
func (c *Client) startSpan(ctx context.Context, operationName, statement string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "valkey."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "valkey"),
		attribute.String("db.statement", truncateStatement(statement)),
	)
	return ctx, span
}

// finishSpan records an error on the span (if any) and ends it. If err is
// nil, the span status is set to OK.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// wrapError converts a cache error to a platform *[paerr.Error].
// [context.DeadlineExceeded] is classified as [paerr.CodeTimeoutDependency]
// (retryable); everything else gets the given cache code, which callers
// treat as a signal to bypass the cache via [paerr.IsCache].
func wrapError(err error, code paerr.Code, message string) *paerr.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return paerr.Wrap(err, paerr.CodeTimeoutDependency, message)
	}
	return paerr.Wrap(err, code, message)
}
