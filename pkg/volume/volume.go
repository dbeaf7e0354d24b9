package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hutchdb/hutch/pkg/log"
)

const (
	// DefaultRoot is the base directory for database storage
	DefaultRoot = "/var/lib/hutch/volumes"

	// DefaultDirMode is the mode applied to created data directories
	DefaultDirMode = os.FileMode(0o750)
)

// Manager provides the filesystem operations the orchestrator and the
// API need: listing immediate subdirectories and creating data
// directories with a given owner. Every path is resolved to an absolute
// path and rejected when it escapes the configured root.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at the given directory, creating
// the root if needed.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		root = DefaultRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve volume root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create volume root: %w", err)
	}
	return &Manager{root: abs}, nil
}

// Root returns the absolute volume root.
func (m *Manager) Root() string { return m.root }

// Resolve turns a caller-supplied path into an absolute path under the
// root. Relative paths are joined to the root; anything resolving
// outside the root is rejected.
func (m *Manager) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if abs != m.root && !strings.HasPrefix(abs, m.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the volume root", abs)
	}
	return abs, nil
}

// ListSubdirs returns the names of the immediate subdirectories of the
// given path.
func (m *Manager) ListSubdirs(path string) ([]string, error) {
	abs, err := m.Resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// EnsureDir makes sure the directory exists with the given mode and
// owner. An existing directory is success, not failure, including the
// race where another caller creates it first. Ownership is best-effort:
// a failed chown is logged, not returned. The returned flag reports
// whether this call created the directory.
func (m *Manager) EnsureDir(path string, mode os.FileMode, uid, gid int) (bool, error) {
	abs, err := m.Resolve(path)
	if err != nil {
		return false, err
	}

	if info, err := os.Stat(abs); err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", abs)
		}
		return false, nil
	}

	if err := os.MkdirAll(abs, mode); err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.Chmod(abs, mode); err != nil {
		return true, fmt.Errorf("failed to set mode on %s: %w", abs, err)
	}
	if err := os.Chown(abs, uid, gid); err != nil {
		logger := log.WithComponent("volume")
		logger.Warn().
			Err(err).
			Str("path", abs).
			Int("uid", uid).
			Int("gid", gid).
			Msg("failed to set ownership")
	}
	return true, nil
}
