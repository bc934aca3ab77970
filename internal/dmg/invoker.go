package dmg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/app-packager/internal/command"
	"github.com/oshokin/app-packager/internal/domain/pack"
)

var (
	// errNoMountPoint is returned when hdiutil attach output carries no volume path.
	errNoMountPoint = errors.New("unable to determine mount point from attach output")
)

// DiskImage abstracts the platform disk image facility. The production
// implementation shells out to hdiutil; tests substitute a fake so the full
// pipeline runs anywhere.
type DiskImage interface {
	// Create makes a writable, read/write-formatted image of the given size.
	Create(ctx context.Context, path, volumeName string, sizeBytes int64) error
	// Attach mounts the image and returns its mount point.
	Attach(ctx context.Context, path string) (string, error)
	// Detach unmounts the volume. A busy volume surfaces as pack.ErrVolumeBusy.
	Detach(ctx context.Context, mountPoint string) error
	// Convert produces a compressed read-only image from a read/write one.
	Convert(ctx context.Context, sourcePath, outputPath string) error
	// MountedAt reports where the image is currently mounted, if anywhere.
	MountedAt(ctx context.Context, path string) (string, bool)
}

// ScriptHost executes a GUI-automation script against the mounted volume.
type ScriptHost interface {
	Run(ctx context.Context, script string) error
}

// Hdiutil is the production DiskImage backed by the hdiutil tool.
type Hdiutil struct{}

// Create makes an HFS+ UDRW image sized in whole kilobytes (hdiutil rejects
// byte-granular sizes).
func (Hdiutil) Create(ctx context.Context, path, volumeName string, sizeBytes int64) error {
	size := fmt.Sprintf("%dk", (sizeBytes+1023)/1024)

	return command.Run(ctx, "", "hdiutil",
		"create",
		"-size", size,
		"-volname", volumeName,
		"-fs", "HFS+",
		"-format", "UDRW",
		"-ov",
		path,
	)
}

// Attach mounts the image without verification or auto-open and parses the
// mount point out of the tool output.
func (Hdiutil) Attach(ctx context.Context, path string) (string, error) {
	out, err := command.Output(ctx, "", "hdiutil",
		"attach",
		"-readwrite",
		"-noverify",
		"-noautoopen",
		path,
	)
	if err != nil {
		return "", err
	}

	// Attach output lists partitions; the mounted volume line ends with
	// "/Volumes/<name>", which may itself contain spaces.
	for _, line := range strings.Split(out, "\n") {
		if idx := strings.Index(line, "/Volumes/"); idx >= 0 {
			return strings.TrimSpace(line[idx:]), nil
		}
	}

	return "", errNoMountPoint
}

// Detach unmounts the volume, translating busy failures into the retryable
// pack.ErrVolumeBusy.
func (Hdiutil) Detach(ctx context.Context, mountPoint string) error {
	err := command.Run(ctx, "", "hdiutil", "detach", mountPoint)
	if err == nil {
		return nil
	}

	var toolErr *pack.ToolError
	if errors.As(err, &toolErr) && strings.Contains(strings.ToLower(toolErr.Stderr), "busy") {
		return fmt.Errorf("%w: %s", pack.ErrVolumeBusy, toolErr)
	}

	return err
}

// Convert compresses the read/write image into a read-only UDZO image.
func (Hdiutil) Convert(ctx context.Context, sourcePath, outputPath string) error {
	return command.Run(ctx, "", "hdiutil",
		"convert", sourcePath,
		"-format", "UDZO",
		"-imagekey", "zlib-level=9",
		"-o", outputPath,
	)
}

// MountedAt inspects the mount table (hdiutil info) for the image path.
func (Hdiutil) MountedAt(ctx context.Context, path string) (string, bool) {
	out, err := command.Output(ctx, "", "hdiutil", "info")
	if err != nil {
		return "", false
	}

	seen := false

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, path) {
			seen = true
			continue
		}

		if !seen {
			continue
		}

		// Section separator means the image had no mounted volume line.
		if strings.HasPrefix(line, "===") {
			return "", false
		}

		if idx := strings.Index(line, "/Volumes/"); idx >= 0 {
			return strings.TrimSpace(line[idx:]), true
		}
	}

	return "", false
}

// Osascript runs layout scripts through the osascript automation host.
type Osascript struct{}

// Run writes the script to a temporary file and feeds it to osascript.
func (Osascript) Run(ctx context.Context, script string) error {
	f, err := os.CreateTemp("", "app-packager-layout-*.applescript")
	if err != nil {
		return fmt.Errorf("write layout script: %w", err)
	}

	path := f.Name()

	defer func() {
		_ = os.Remove(path)
	}()

	if _, err = f.WriteString(script); err != nil {
		_ = f.Close()

		return fmt.Errorf("write layout script: %w", err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("write layout script: %w", err)
	}

	return command.Run(ctx, "", "osascript", path)
}
