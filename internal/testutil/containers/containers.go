//go:build integration

// Package containers provides testcontainers-go helpers for integration
// testing against a real cache container.
//
// All helpers in this package are gated behind the "integration" build
// tag so they do not pull Docker-related dependencies into unit test
// builds. Use them exclusively from test files that carry the same tag:
//
//	//go:build integration
//
// # Valkey
//
// [StartValkey] starts a Valkey container and returns a [ValkeyResult]
// containing the container handle and the host/port to connect to:
//
//	result, err := containers.StartValkey(ctx)
//	if err != nil { ... }
//	defer result.Container.Terminate(ctx)
//
//	cfg := valkey.DefaultConfig()
//	cfg.Host, cfg.Port = result.Host, result.Port
package containers

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// DefaultValkeyImage is the container image used for cache integration
// tests. Valkey speaks the same wire protocol as Redis, so the
// testcontainers redis module drives it unchanged. Alpine variant is
// used for minimal image size and fast startup.
const DefaultValkeyImage = "docker.io/valkey/valkey:8-alpine"

// ValkeyResult holds a started Valkey container and the address needed
// to connect to it. The caller is responsible for terminating the
// container when it is no longer needed:
//
//	defer result.Container.Terminate(ctx)
//
// The container listens in plaintext without authentication, suitable
// only for ephemeral test containers on a trusted local network; the
// TLS and AUTH paths are covered by unit tests.
type ValkeyResult struct {
	// Container is the started Valkey testcontainer. Use it to
	// retrieve mapped ports, inspect logs, or terminate the container.
	Container *tcredis.RedisContainer

	// Host is the hostname the mapped cache port is reachable on.
	Host string

	// Port is the mapped cache port on the host.
	Port int
}

// StartValkey starts a Valkey container using testcontainers-go and
// returns a [ValkeyResult] containing the container handle and the
// host/port to connect to.
//
// The caller must terminate the container when done:
//
//	result, err := containers.StartValkey(ctx)
//	if err != nil {
//	    return err
//	}
//	defer result.Container.Terminate(ctx)
//
// StartValkey returns an error if the container fails to start or if
// the mapped address cannot be retrieved. In the latter case, the
// container is terminated before returning.
func StartValkey(ctx context.Context) (*ValkeyResult, error) {
	container, err := tcredis.Run(ctx, DefaultValkeyImage)
	if err != nil {
		return nil, fmt.Errorf("containers: failed to start valkey container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("containers: failed to get valkey connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("containers: failed to parse valkey connection string: %w", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("containers: failed to split valkey address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("containers: invalid valkey port %q: %w", portStr, err)
	}

	return &ValkeyResult{
		Container: container,
		Host:      host,
		Port:      port,
	}, nil
}
