package dmg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/staging"
)

// fakeDisk implements DiskImage in memory: Create touches the image file,
// Attach serves a local directory as the volume, Convert copies the image.
type fakeDisk struct {
	mountDir     string
	busyDetaches int
	failCreate   bool
	failConvert  bool

	attached    bool
	detachCalls int
}

func (d *fakeDisk) Create(_ context.Context, path, _ string, sizeBytes int64) error {
	if d.failCreate {
		return &pack.ToolError{Tool: "hdiutil", Stderr: "operation not permitted", Err: errors.New("exit status 1")}
	}

	return os.WriteFile(path, []byte(fmt.Sprintf("rw image %d", sizeBytes)), 0o644)
}

func (d *fakeDisk) Attach(_ context.Context, _ string) (string, error) {
	d.attached = true

	return d.mountDir, nil
}

func (d *fakeDisk) Detach(_ context.Context, _ string) error {
	d.detachCalls++

	if d.busyDetaches > 0 {
		d.busyDetaches--

		return fmt.Errorf("%w: volume in use", pack.ErrVolumeBusy)
	}

	d.attached = false

	return nil
}

func (d *fakeDisk) Convert(_ context.Context, sourcePath, outputPath string) error {
	if d.failConvert {
		return &pack.ToolError{Tool: "hdiutil", Stderr: "convert failed", Err: errors.New("exit status 1")}
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}

	return os.WriteFile(outputPath, append([]byte("udzo "), data...), 0o644)
}

func (d *fakeDisk) MountedAt(_ context.Context, _ string) (string, bool) {
	return "", false
}

// fakeHost records executed scripts and optionally fails.
type fakeHost struct {
	scripts []string
	err     error
}

func (h *fakeHost) Run(_ context.Context, script string) error {
	h.scripts = append(h.scripts, script)

	return h.err
}

// newTestRun prepares a staging tree with a fake app bundle and a config
// pointing at temporary folders. filename must be unique per test because the
// temporary read/write image lands in os.TempDir().
func newTestRun(t *testing.T, filename string) (string, *pack.Config) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("pipeline test uses symlinks")
	}

	stagingDir := t.TempDir()
	appDir := filepath.Join(stagingDir, "My App.app", "Contents", "MacOS")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "myapp"), []byte("binary"), 0o755))

	cfg := &pack.Config{
		Name:         "myapp",
		Version:      "1.0.0",
		Title:        "My App",
		Filename:     filename,
		OutputFolder: t.TempDir(),
		DMG: &pack.DmgConfig{
			WindowSize:           pack.Size{Width: 600, Height: 400},
			AppPosition:          pack.Point{X: 150, Y: 200},
			ApplicationsPosition: pack.Point{X: 450, Y: 200},
		},
	}

	return stagingDir, cfg
}

func tempImagePath(filename string) string {
	return filepath.Join(os.TempDir(), filename+".rw.dmg")
}

// TestAssembleRetriesBusyDetach simulates a volume that is busy twice before
// detaching: the run must succeed without leaking the temporary image.
func TestAssembleRetriesBusyDetach(t *testing.T) {
	t.Parallel()

	stagingDir, cfg := newTestRun(t, "myapp-busy-detach")
	disk := &fakeDisk{mountDir: t.TempDir(), busyDetaches: 2}
	host := &fakeHost{}

	p := NewPackager(disk, host)
	p.detachBackoff = time.Millisecond

	artifact, err := p.Assemble(context.Background(), stagingDir, cfg)
	require.NoError(t, err)
	require.Equal(t, pack.ArtifactDiskImage, artifact.Kind)
	require.FileExists(t, artifact.Path)
	require.Equal(t, 3, disk.detachCalls)
	require.False(t, disk.attached)
	require.NoFileExists(t, tempImagePath(cfg.Filename))

	// The volume received the bundle and the Applications alias.
	require.FileExists(t, filepath.Join(disk.mountDir, "My App.app", "Contents", "MacOS", "myapp"))

	target, err := os.Readlink(filepath.Join(disk.mountDir, "Applications"))
	require.NoError(t, err)
	require.Equal(t, "/Applications", target)

	// The layout script ran against the volume.
	require.Len(t, host.scripts, 1)
	require.Contains(t, host.scripts[0], `tell disk "My App"`)
}

// TestAssembleDetachRetriesExhausted verifies the bounded retry gives up and
// cleans up the temporary image.
func TestAssembleDetachRetriesExhausted(t *testing.T) {
	t.Parallel()

	stagingDir, cfg := newTestRun(t, "myapp-detach-exhausted")
	disk := &fakeDisk{mountDir: t.TempDir(), busyDetaches: 10}

	p := NewPackager(disk, &fakeHost{})
	p.detachBackoff = time.Millisecond

	_, err := p.Assemble(context.Background(), stagingDir, cfg)
	require.ErrorIs(t, err, pack.ErrVolumeBusy)
	require.NoFileExists(t, tempImagePath(cfg.Filename))
	require.NoFileExists(t, filepath.Join(cfg.OutputFolder, cfg.Filename+".dmg"))
}

// TestAssembleCompressionFailure ensures a failed conversion is fatal and
// leaves neither an artifact nor a temporary image behind.
func TestAssembleCompressionFailure(t *testing.T) {
	t.Parallel()

	stagingDir, cfg := newTestRun(t, "myapp-convert-failure")
	disk := &fakeDisk{mountDir: t.TempDir(), failConvert: true}

	p := NewPackager(disk, &fakeHost{})

	_, err := p.Assemble(context.Background(), stagingDir, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "compress image")
	require.NoFileExists(t, filepath.Join(cfg.OutputFolder, cfg.Filename+".dmg"))
	require.NoFileExists(t, tempImagePath(cfg.Filename))
	require.False(t, disk.attached)
}

// TestAssembleCosmeticLayoutFailure checks that a failing automation script
// is downgraded to a warning and the artifact is still produced.
func TestAssembleCosmeticLayoutFailure(t *testing.T) {
	t.Parallel()

	stagingDir, cfg := newTestRun(t, "myapp-cosmetic-failure")
	disk := &fakeDisk{mountDir: t.TempDir()}
	host := &fakeHost{err: errors.New("Finder got an error")}

	artifact, err := NewPackager(disk, host).Assemble(context.Background(), stagingDir, cfg)
	require.NoError(t, err)
	require.FileExists(t, artifact.Path)
	require.Len(t, host.scripts, 1)
}

// TestAssembleCreateFailure verifies image creation failures abort before
// anything is mounted.
func TestAssembleCreateFailure(t *testing.T) {
	t.Parallel()

	stagingDir, cfg := newTestRun(t, "myapp-create-failure")
	disk := &fakeDisk{mountDir: t.TempDir(), failCreate: true}

	_, err := NewPackager(disk, &fakeHost{}).Assemble(context.Background(), stagingDir, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "create image")
	require.False(t, disk.attached)
}

// TestProvisionalImageSize pins the documented margin policy: +20% with a
// 10 MiB floor, measured against staging trees of exactly known size.
func TestProvisionalImageSize(t *testing.T) {
	t.Parallel()

	small := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(small, "tiny"), make([]byte, 100), 0o644))

	size, err := provisionalSize(small)
	require.NoError(t, err)
	require.EqualValues(t, minImageBytes, size)

	large := t.TempDir()
	payload := int64(12 << 20)
	require.NoError(t, os.WriteFile(filepath.Join(large, "big"), make([]byte, payload), 0o644))

	size, err = provisionalSize(large)
	require.NoError(t, err)
	require.Equal(t, payload+payload/5, size)
}

// TestAssembleEndToEnd runs the complete scenario: a staged 10 MB bundle and
// a window layout produce an image artifact whose size accounts for the
// provisional margin.
func TestAssembleEndToEnd(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("pipeline test uses symlinks")
	}

	stagingDir := t.TempDir()
	appDir := filepath.Join(stagingDir, "MyApp.app", "Contents", "MacOS")
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "MyApp"), make([]byte, 10<<20), 0o755))

	cfg := &pack.Config{
		Name:         "MyApp",
		Version:      "2.0.0",
		Title:        "MyApp",
		Filename:     "myapp-end-to-end",
		OutputFolder: t.TempDir(),
		DMG: &pack.DmgConfig{
			WindowSize:           pack.Size{Width: 600, Height: 400},
			AppPosition:          pack.Point{X: 150, Y: 200},
			ApplicationsPosition: pack.Point{X: 450, Y: 200},
		},
	}

	disk := &fakeDisk{mountDir: t.TempDir()}

	artifact, err := NewPackager(disk, &fakeHost{}).Assemble(context.Background(), stagingDir, cfg)
	require.NoError(t, err)
	require.FileExists(t, artifact.Path)

	// The fake records the provisional size in the image payload.
	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)

	wantSize := int64(10<<20) + int64(10<<20)/5
	require.Contains(t, string(data), fmt.Sprintf("rw image %d", wantSize))

	require.FileExists(t, filepath.Join(disk.mountDir, "MyApp.app", "Contents", "MacOS", "MyApp"))

	_, err = os.Readlink(filepath.Join(disk.mountDir, "Applications"))
	require.NoError(t, err)
}

// TestCopyTreeIntoVolumeKeepsStagingIntact guards the read-only contract of
// the staging directory.
func TestCopyTreeIntoVolumeKeepsStagingIntact(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "file"), []byte("payload"), 0o644))

	before, err := os.ReadFile(filepath.Join(src, "file"))
	require.NoError(t, err)

	require.NoError(t, staging.CopyTree(src, filepath.Join(t.TempDir(), "volume")))

	after, err := os.ReadFile(filepath.Join(src, "file"))
	require.NoError(t, err)
	require.Equal(t, before, after)
}
