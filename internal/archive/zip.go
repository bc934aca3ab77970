package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/logger"
)

// ZipPackager streams the staging tree into a zip archive.
type ZipPackager struct{}

// Assemble writes <output-folder>/<filename>.zip from the staging tree.
// Entries are emitted in lexical order; permission bits and symlinks are
// preserved through the unix mode field of each entry header.
func (ZipPackager) Assemble(ctx context.Context, stagingDir string, cfg *pack.Config) (*pack.Artifact, error) {
	outputPath := filepath.Join(cfg.OutputFolder, cfg.Filename+"."+pack.ArtifactZip.Extension())

	logger.InfoKV(ctx, "Creating zip archive", "path", outputPath)

	err := withOutputFile(outputPath, func(f *os.File) error {
		entries, err := walkStaging(stagingDir)
		if err != nil {
			return err
		}

		w := zip.NewWriter(f)

		for _, e := range entries {
			if err = writeZipEntry(w, e); err != nil {
				return fmt.Errorf("archive %s: %w", e.relPath, err)
			}
		}

		if err = w.Close(); err != nil {
			return fmt.Errorf("finalize archive: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &pack.Artifact{Path: outputPath, Kind: pack.ArtifactZip}, nil
}

func writeZipEntry(w *zip.Writer, e entry) error {
	header, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return err
	}

	header.Name = e.relPath
	header.Method = zip.Deflate

	switch {
	case e.info.IsDir():
		header.Name += "/"

		_, err = w.CreateHeader(header)

		return err
	case e.linkTarget != "":
		// Symlink entries store the target path as their content, which is
		// what unzip implementations with link support expect. Tools without
		// it extract the target path as a small text file.
		var out io.Writer

		if out, err = w.CreateHeader(header); err != nil {
			return err
		}

		_, err = out.Write([]byte(e.linkTarget))

		return err
	default:
		out, err := w.CreateHeader(header)
		if err != nil {
			return err
		}

		in, err := os.Open(e.fullPath)
		if err != nil {
			return err
		}

		defer func() {
			_ = in.Close()
		}()

		_, err = io.Copy(out, in)

		return err
	}
}
