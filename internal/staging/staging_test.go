package staging

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/app-packager/internal/domain/pack"
)

func testConfig(t *testing.T) *pack.Config {
	t.Helper()

	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "myapp"), []byte("#!/bin/sh\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "README.md"), []byte("# readme\n"), 0o644))

	return &pack.Config{
		Name:    "myapp",
		Version: "1.0.0",
		Title:   "My App",
		BaseDir: base,
		CopyOperations: []pack.CopyOperation{
			{Source: "myapp", Destination: "myapp"},
			{Source: "README.md", Destination: "README.md"},
		},
	}
}

// TestAssembleBundle checks bundle placement, documentation routing, and the
// executable bit inside Contents/MacOS.
func TestAssembleBundle(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits required")
	}

	cfg := testConfig(t)

	dir, err := NewAssembler(cfg).AssembleBundle(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})

	binary := filepath.Join(dir, "My App.app", "Contents", "MacOS", "myapp")
	info, err := os.Stat(binary)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// Documentation stays at the staging root, next to the bundle.
	require.FileExists(t, filepath.Join(dir, "README.md"))
	require.NoFileExists(t, filepath.Join(dir, "My App.app", "Contents", "MacOS", "README.md"))
	require.FileExists(t, filepath.Join(dir, "My App.app", "Contents", "Info.plist"))
}

// TestAssembleTree checks the flat archive layout.
func TestAssembleTree(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	dir, err := NewAssembler(cfg).AssembleTree(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})

	require.FileExists(t, filepath.Join(dir, "myapp", "myapp"))
	require.FileExists(t, filepath.Join(dir, "myapp", "README.md"))
}

// TestCopyTreePreservesLinksAndModes covers the recursive copy helper.
func TestCopyTreePreservesLinksAndModes(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks are unreliable on Windows runners")
	}

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "tool"), []byte("bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "plain.txt"), []byte("text"), 0o644))
	require.NoError(t, os.Symlink("plain.txt", filepath.Join(src, "alias")))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyTree(src, dst))

	info, err := os.Stat(filepath.Join(dst, "nested", "tool"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	target, err := os.Readlink(filepath.Join(dst, "alias"))
	require.NoError(t, err)
	require.Equal(t, "plain.txt", target)
}
