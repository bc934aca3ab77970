package dmg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshokin/app-packager/internal/bundle"
	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/icns"
	"github.com/oshokin/app-packager/internal/logger"
	"github.com/oshokin/app-packager/internal/staging"
)

const (
	// sizeMarginDivisor adds 20% headroom to the provisional image size so
	// HFS+ metadata and allocation slack never cause a disk-full mid-copy.
	sizeMarginDivisor = 5

	// minImageBytes is the smallest image worth creating; hdiutil rejects
	// tiny sizes and the filesystem itself needs room.
	minImageBytes = 10 << 20

	// detachAttempts bounds the retries for a busy volume, the one transient
	// condition in the pipeline.
	detachAttempts = 3

	// defaultDetachBackoff separates detach retries.
	defaultDetachBackoff = 500 * time.Millisecond

	// mountTimeout bounds attach/detach calls, which can hang on OS locks.
	mountTimeout = 30 * time.Second

	// scriptTimeout bounds the automation host, which drives a GUI process.
	scriptTimeout = 60 * time.Second

	// backgroundDir is the hidden folder holding the window background image.
	backgroundDir = ".background"

	// backgroundFilename is the background image name inside backgroundDir.
	backgroundFilename = "background.png"
)

// Packager assembles the staging tree into a compressed read-only disk
// image. The disk image tool and the automation host are injected so the
// whole pipeline is testable with fakes.
type Packager struct {
	disk DiskImage
	host ScriptHost

	// detachBackoff is overridable in tests to keep retries fast.
	detachBackoff time.Duration
}

// NewPackager returns a disk image packager using the provided facilities.
func NewPackager(disk DiskImage, host ScriptHost) *Packager {
	return &Packager{
		disk:          disk,
		host:          host,
		detachBackoff: defaultDetachBackoff,
	}
}

// Assemble runs the pipeline: create a sized writable image, mount it, fill
// the volume, apply the cosmetic layout, unmount, compress to the output
// path. Every acquired resource is released on every exit path; a cosmetic
// layout failure never discards the artifact.
func (p *Packager) Assemble(ctx context.Context, stagingDir string, cfg *pack.Config) (*pack.Artifact, error) {
	if err := os.MkdirAll(cfg.OutputFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	outPath := filepath.Join(cfg.OutputFolder, cfg.Filename+"."+pack.ArtifactDiskImage.Extension())
	if err := os.Remove(outPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove previous artifact: %w", err)
	}

	size, err := provisionalSize(stagingDir)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Creating writable disk image",
		"size_bytes", size, "volume", cfg.Title)

	tempImage := filepath.Join(os.TempDir(), cfg.Filename+".rw.dmg")

	// A leftover mount of the temporary image means a previous run is still
	// holding it; attaching again would fail confusingly.
	if mountPoint, mounted := p.disk.MountedAt(ctx, tempImage); mounted {
		return nil, fmt.Errorf("mount image: %s is already mounted at %s", tempImage, mountPoint)
	}

	rel := &releaser{}
	defer rel.release()

	if err = p.disk.Create(ctx, tempImage, cfg.Title, size); err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}

	rel.add(func() {
		_ = os.Remove(tempImage)
	})

	attachCtx, cancelAttach := context.WithTimeout(ctx, mountTimeout)
	defer cancelAttach()

	mountPoint, err := p.disk.Attach(attachCtx, tempImage)
	if err != nil {
		return nil, fmt.Errorf("mount image: %w", err)
	}

	logger.DebugKV(ctx, "Mounted image", "mount_point", mountPoint)

	mounted := true

	rel.add(func() {
		if mounted {
			_ = p.disk.Detach(ctx, mountPoint)
		}
	})

	if err = p.fillVolume(ctx, stagingDir, mountPoint, cfg); err != nil {
		return nil, err
	}

	if cfg.DMG != nil {
		// Layout failures are cosmetic: the image is functionally complete,
		// only its window presentation did not apply.
		if err = p.applyLayout(ctx, mountPoint, cfg); err != nil {
			logger.Warnf(ctx, "Window layout was not applied, the image is still valid: %v",
				&pack.CosmeticError{Err: err})
		}
	}

	if err = p.detachWithRetry(ctx, mountPoint); err != nil {
		return nil, fmt.Errorf("unmount volume: %w", err)
	}

	mounted = false

	logger.Info(ctx, "Compressing disk image")

	if err = p.disk.Convert(ctx, tempImage, outPath); err != nil {
		// Never leave a partial artifact behind.
		_ = os.Remove(outPath)

		return nil, fmt.Errorf("compress image: %w", err)
	}

	if err = os.Remove(tempImage); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove temporary image: %w", err)
	}

	if _, err = os.Stat(outPath); err != nil {
		return nil, fmt.Errorf("artifact missing after compression: %w", err)
	}

	return &pack.Artifact{Path: outPath, Kind: pack.ArtifactDiskImage}, nil
}

// fillVolume copies the staged tree into the mounted volume, adds the
// /Applications alias, and installs the icon into the bundle copy. The
// staging tree itself is never written to.
func (p *Packager) fillVolume(ctx context.Context, stagingDir, mountPoint string, cfg *pack.Config) error {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return fmt.Errorf("read staging directory: %w", err)
	}

	for _, entry := range entries {
		src := filepath.Join(stagingDir, entry.Name())
		dst := filepath.Join(mountPoint, entry.Name())

		if err = staging.CopyTree(src, dst); err != nil {
			return fmt.Errorf("fill volume: %w", err)
		}
	}

	if err = os.Symlink("/Applications", filepath.Join(mountPoint, "Applications")); err != nil {
		return fmt.Errorf("create Applications alias: %w", err)
	}

	if cfg.Icon != "" {
		if err = p.installIcon(ctx, mountPoint, cfg); err != nil {
			return err
		}
	}

	return nil
}

// installIcon places the icon container into the bundle copy inside the
// volume, converting the source image unless it already is a container.
func (p *Packager) installIcon(ctx context.Context, mountPoint string, cfg *pack.Config) error {
	iconSource := cfg.Icon
	if !filepath.IsAbs(iconSource) {
		iconSource = filepath.Join(cfg.BaseDir, iconSource)
	}

	target := filepath.Join(mountPoint, cfg.AppBundleName(), "Contents", "Resources", bundle.IconFilename)

	if strings.EqualFold(filepath.Ext(iconSource), ".icns") {
		if err := staging.CopyTree(iconSource, target); err != nil {
			return fmt.Errorf("install icon: %w", err)
		}

		return nil
	}

	logger.Info(ctx, "Converting icon to icns format")

	set, err := icns.Convert(ctx, iconSource)
	if err != nil {
		return fmt.Errorf("convert icon: %w", err)
	}

	if err = set.WriteFile(target); err != nil {
		return fmt.Errorf("install icon: %w", err)
	}

	return nil
}

// applyLayout stages the background image and runs the rendered automation
// script against the mounted volume.
func (p *Packager) applyLayout(ctx context.Context, mountPoint string, cfg *pack.Config) error {
	backgroundFile := ""

	if cfg.DMG.Background != "" {
		source := cfg.DMG.Background
		if !filepath.IsAbs(source) {
			source = filepath.Join(cfg.BaseDir, source)
		}

		dst := filepath.Join(mountPoint, backgroundDir, backgroundFilename)
		if err := staging.CopyTree(source, dst); err != nil {
			return fmt.Errorf("stage background image: %w", err)
		}

		backgroundFile = backgroundDir + ":" + backgroundFilename
	}

	script := Script(LayoutFromConfig(cfg.DMG), cfg.Title, cfg.AppBundleName(), backgroundFile)

	scriptCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	if err := p.host.Run(scriptCtx, script); err != nil {
		return fmt.Errorf("apply window layout: %w", err)
	}

	return nil
}

// detachWithRetry unmounts the volume, retrying a bounded number of times
// with a short backoff when the volume is busy.
func (p *Packager) detachWithRetry(ctx context.Context, mountPoint string) error {
	var err error

	for attempt := 1; attempt <= detachAttempts; attempt++ {
		detachCtx, cancel := context.WithTimeout(ctx, mountTimeout)
		err = p.disk.Detach(detachCtx, mountPoint)

		cancel()

		if err == nil {
			return nil
		}

		if !errors.Is(err, pack.ErrVolumeBusy) || attempt == detachAttempts {
			return err
		}

		logger.Warnf(ctx, "Volume is busy, retrying detach (%d/%d)", attempt, detachAttempts)

		select {
		case <-time.After(p.detachBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// provisionalSize sums the staging tree and applies the safety margin: +20%
// with a 10 MiB floor.
func provisionalSize(stagingDir string) (int64, error) {
	var total int64

	err := filepath.WalkDir(stagingDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		total += info.Size()

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure staging directory: %w", err)
	}

	total += total / sizeMarginDivisor
	if total < minImageBytes {
		total = minImageBytes
	}

	return total, nil
}
