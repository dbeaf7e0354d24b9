package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/hutchdb/hutch/pkg/types"
)

// DefaultIdentity is the identity assumed when discovery fails.
// Ownership correctness of the data directory is best-effort, so a
// failed discovery never aborts a deployment.
var DefaultIdentity = types.ImageIdentity{UID: 1000, GID: 1000}

// IdentityDiscoverer finds the default user a database image runs as.
type IdentityDiscoverer interface {
	Discover(ctx context.Context, image string) (types.ImageIdentity, error)
}

// CLIDiscoverer discovers image identity by running a throwaway
// container through the runtime's CLI binary. This is a process-level
// operation, deliberately outside the socket gateway: the CLI already
// knows how to wire a one-shot container with the image's entrypoint
// replaced.
type CLIDiscoverer struct {
	Binary  string
	Timeout time.Duration
}

// NewCLIDiscoverer picks the CLI binary matching the runtime dialect.
func NewCLIDiscoverer(dialect types.Dialect) *CLIDiscoverer {
	binary := "docker"
	if dialect == types.DialectPodman {
		binary = "podman"
	}
	return &CLIDiscoverer{
		Binary:  binary,
		Timeout: 60 * time.Second,
	}
}

// Discover runs `<cli> run --rm --entrypoint id <image>` and parses the
// uid/gid from its output.
func (d *CLIDiscoverer) Discover(ctx context.Context, image string) (types.ImageIdentity, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.Binary, "run", "--rm", "--entrypoint", "id", image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return types.ImageIdentity{}, fmt.Errorf("%s run failed: %w: %s", d.Binary, err, stderr.String())
		}
		return types.ImageIdentity{}, fmt.Errorf("%s run failed: %w", d.Binary, err)
	}
	return parseIdentity(stdout.String())
}

var identityRE = regexp.MustCompile(`uid=(\d+)(?:\(([^)]*)\))?\s+gid=(\d+)`)

// parseIdentity extracts uid/gid/username from id(1) output of the
// form `uid=999(mysql) gid=999(mysql) groups=...`.
func parseIdentity(output string) (types.ImageIdentity, error) {
	m := identityRE.FindStringSubmatch(output)
	if m == nil {
		return types.ImageIdentity{}, fmt.Errorf("unexpected id output: %q", truncate(output, 80))
	}
	uid, _ := strconv.Atoi(m[1])
	gid, _ := strconv.Atoi(m[3])
	return types.ImageIdentity{UID: uid, GID: gid, Username: m[2]}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
