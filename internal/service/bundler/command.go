package bundler

import (
	"context"
	"fmt"
	"os"

	"github.com/oshokin/app-packager/internal/archive"
	"github.com/oshokin/app-packager/internal/command"
	"github.com/oshokin/app-packager/internal/config"
	"github.com/oshokin/app-packager/internal/dmg"
	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/logger"
	"github.com/oshokin/app-packager/internal/staging"
)

// Options contains inputs for the packaging entry point.
type Options struct {
	// ManifestPath is an optional explicit manifest file path. When empty,
	// the manifest is discovered inside Path.
	ManifestPath string
	// Path is the project directory searched for a manifest (defaults to
	// the current directory).
	Path string
	// Archive requests a zip instead of the platform default on macOS.
	Archive bool
	// DMG requests a disk image explicitly; fails off macOS.
	DMG bool
	// NoBuild skips the manifest build commands.
	NoBuild bool
}

// Run executes the full packaging workflow: manifest, build, staging,
// artifact. The staging tree is removed before Run returns; the artifact
// stays in the configured output folder.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "app-packager")

	g := newGuard()
	if err := g.acquire(ctx); err != nil {
		return err
	}

	defer g.release(ctx)

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	kind, err := pack.Route(pack.Current(), opts.Archive, opts.DMG)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Packaging application",
		"name", cfg.Name,
		"version", cfg.Version,
		"format", kind)

	if opts.NoBuild {
		logger.Info(ctx, "Skipping build commands")
	} else if err = runBuild(ctx, cfg); err != nil {
		return err
	}

	stagingDir, err := stage(ctx, kind, cfg)
	if err != nil {
		return fmt.Errorf("assemble staging tree: %w", err)
	}

	defer func() {
		if removeErr := os.RemoveAll(stagingDir); removeErr != nil {
			logger.Warnf(ctx, "Unable to remove staging directory: %v", removeErr)
		}
	}()

	artifact, err := packagerFor(kind).Assemble(ctx, stagingDir, cfg)
	if err != nil {
		return fmt.Errorf("assemble %s artifact: %w", kind, err)
	}

	if _, err = os.Stat(artifact.Path); err != nil {
		return fmt.Errorf("artifact missing after assembly: %w", err)
	}

	logger.InfoKV(ctx, "Artifact ready", "path", artifact.Path, "format", artifact.Kind)

	return nil
}

// loadConfig resolves the manifest from the explicit path or the project
// directory and returns the expanded configuration.
func loadConfig(opts *Options) (*pack.Config, error) {
	if opts.ManifestPath != "" {
		return config.Load(opts.ManifestPath)
	}

	return config.Load(opts.Path)
}

// runBuild executes the manifest build commands in the project directory,
// stopping at the first failure.
func runBuild(ctx context.Context, cfg *pack.Config) error {
	for _, line := range cfg.BuildCommands {
		logger.InfoKV(ctx, "Running build command", "command", line)

		if err := command.RunLine(ctx, cfg.BaseDir, line); err != nil {
			return fmt.Errorf("build command %q: %w", line, err)
		}
	}

	return nil
}

// stage assembles the staging layout matching the artifact kind: a bundle
// skeleton for disk images, a flat application folder for archives.
func stage(ctx context.Context, kind pack.ArtifactKind, cfg *pack.Config) (string, error) {
	assembler := staging.NewAssembler(cfg)

	if kind == pack.ArtifactDiskImage {
		return assembler.AssembleBundle(ctx)
	}

	return assembler.AssembleTree(ctx)
}

// packagerFor maps an artifact kind to its packager implementation.
func packagerFor(kind pack.ArtifactKind) pack.Packager {
	switch kind {
	case pack.ArtifactDiskImage:
		return dmg.NewPackager(dmg.Hdiutil{}, dmg.Osascript{})
	case pack.ArtifactZip:
		return archive.ZipPackager{}
	default:
		return archive.TarGzPackager{}
	}
}
