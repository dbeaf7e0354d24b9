package runtime

import (
	"fmt"
	"os"
	"strings"

	"github.com/hutchdb/hutch/pkg/types"
)

const (
	// DefaultDockerSocket is the default Docker Engine socket
	DefaultDockerSocket = "/var/run/docker.sock"

	// DefaultPodmanSocket is the default rootful Podman socket
	DefaultPodmanSocket = "/run/podman/podman.sock"

	dockerAPIPrefix = "/v1.41"
	podmanAPIPrefix = "/v4.0.0/libpod"
)

// Endpoint identifies a reachable runtime socket and the dialect it
// speaks. The dialect is inferred once from the path and never
// re-derived mid-request; every request issued through one endpoint
// uses exactly that dialect.
type Endpoint struct {
	SocketPath string
	Dialect    types.Dialect
}

// NewEndpoint builds an endpoint for the given socket path, inferring
// the dialect from the path.
func NewEndpoint(socketPath string) Endpoint {
	return Endpoint{
		SocketPath: socketPath,
		Dialect:    DetectDialect(socketPath),
	}
}

// DetectDialect infers the runtime dialect from a socket path. Any path
// mentioning podman is treated as libpod; everything else speaks the
// Docker Engine dialect.
func DetectDialect(socketPath string) types.Dialect {
	if strings.Contains(socketPath, "podman") {
		return types.DialectPodman
	}
	return types.DialectDocker
}

// DiscoverEndpoint probes well-known socket locations and returns the
// first one present on this host. Rootless Podman is probed last so a
// system-wide engine wins when both exist.
func DiscoverEndpoint() (Endpoint, error) {
	candidates := []string{
		DefaultDockerSocket,
		DefaultPodmanSocket,
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		candidates = append(candidates, dir+"/podman/podman.sock")
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return NewEndpoint(path), nil
		}
	}
	return Endpoint{}, fmt.Errorf("no runtime socket found at %s", strings.Join(candidates, ", "))
}

// apiPrefix returns the versioned path prefix for the endpoint's dialect.
func (e Endpoint) apiPrefix() string {
	if e.Dialect == types.DialectPodman {
		return podmanAPIPrefix
	}
	return dockerAPIPrefix
}
