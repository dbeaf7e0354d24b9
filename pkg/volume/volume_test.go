package volume

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/hutchdb/hutch/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "volumes"))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerCreatesRoot(t *testing.T) {
	m := newTestManager(t)
	info, err := os.Stat(m.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestResolve(t *testing.T) {
	m := newTestManager(t)

	abs, err := m.Resolve("orders")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if abs != filepath.Join(m.Root(), "orders") {
		t.Errorf("Resolve = %q", abs)
	}

	// The root itself is a valid path.
	if _, err := m.Resolve(m.Root()); err != nil {
		t.Errorf("Resolve(root) failed: %v", err)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	m := newTestManager(t)

	tests := []string{
		"../outside",
		"orders/../../outside",
		"/etc/passwd",
		"",
	}
	for _, path := range tests {
		if _, err := m.Resolve(path); err == nil {
			t.Errorf("Resolve(%q) succeeded, want rejection", path)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	m := newTestManager(t)

	created, err := m.EnsureDir("orders", DefaultDirMode, os.Getuid(), os.Getgid())
	if err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !created {
		t.Error("expected created=true on first call")
	}

	info, err := os.Stat(filepath.Join(m.Root(), "orders"))
	if err != nil {
		t.Fatalf("directory missing: %v", err)
	}
	if info.Mode().Perm() != DefaultDirMode {
		t.Errorf("mode = %o, want %o", info.Mode().Perm(), DefaultDirMode)
	}

	// Second call: already exists, still success.
	created, err = m.EnsureDir("orders", DefaultDirMode, os.Getuid(), os.Getgid())
	if err != nil {
		t.Fatalf("EnsureDir on existing dir failed: %v", err)
	}
	if created {
		t.Error("expected created=false on second call")
	}
}

func TestEnsureDirNested(t *testing.T) {
	m := newTestManager(t)
	created, err := m.EnsureDir("projects/orders/data", DefaultDirMode, os.Getuid(), os.Getgid())
	if err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
}

func TestEnsureDirFileCollision(t *testing.T) {
	m := newTestManager(t)
	if err := os.WriteFile(filepath.Join(m.Root(), "taken"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.EnsureDir("taken", DefaultDirMode, os.Getuid(), os.Getgid()); err == nil {
		t.Error("expected error when path is a file")
	}
}

func TestListSubdirs(t *testing.T) {
	m := newTestManager(t)
	for _, name := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(m.Root(), name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(m.Root(), "file.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := m.ListSubdirs(".")
	if err != nil {
		t.Fatalf("ListSubdirs failed: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("ListSubdirs = %v, want [a b]", names)
	}
}

func TestListSubdirsOutsideRoot(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ListSubdirs("/etc"); err == nil {
		t.Error("expected rejection of path outside root")
	}
}
