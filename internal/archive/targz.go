package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/logger"
)

// TarGzPackager streams the staging tree into a gzip-compressed tarball.
type TarGzPackager struct{}

// Assemble writes <output-folder>/<filename>.tar.gz from the staging tree.
// Ordering, permission bits and symlinks follow the same rules as the zip
// packager; tar stores links natively.
func (TarGzPackager) Assemble(ctx context.Context, stagingDir string, cfg *pack.Config) (*pack.Artifact, error) {
	outputPath := filepath.Join(cfg.OutputFolder, cfg.Filename+"."+pack.ArtifactTarGz.Extension())

	logger.InfoKV(ctx, "Creating tar.gz archive", "path", outputPath)

	err := withOutputFile(outputPath, func(f *os.File) error {
		entries, err := walkStaging(stagingDir)
		if err != nil {
			return err
		}

		gz := gzip.NewWriter(f)
		w := tar.NewWriter(gz)

		for _, e := range entries {
			if err = writeTarEntry(w, e); err != nil {
				return fmt.Errorf("archive %s: %w", e.relPath, err)
			}
		}

		if err = w.Close(); err != nil {
			return fmt.Errorf("finalize archive: %w", err)
		}

		if err = gz.Close(); err != nil {
			return fmt.Errorf("finalize compression: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &pack.Artifact{Path: outputPath, Kind: pack.ArtifactTarGz}, nil
}

func writeTarEntry(w *tar.Writer, e entry) error {
	header, err := tar.FileInfoHeader(e.info, e.linkTarget)
	if err != nil {
		return err
	}

	header.Name = e.relPath
	if e.info.IsDir() {
		header.Name += "/"
	}

	if err = w.WriteHeader(header); err != nil {
		return err
	}

	if !e.info.Mode().IsRegular() {
		return nil
	}

	in, err := os.Open(e.fullPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	_, err = io.Copy(w, in)

	return err
}
