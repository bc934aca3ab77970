package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// entry is one staging tree member destined for the container.
type entry struct {
	// relPath is the slash-separated path inside the container.
	relPath string
	// fullPath is the absolute source location.
	fullPath string
	// info is the lstat result, so symlinks stay symlinks.
	info fs.FileInfo
	// linkTarget is set for symlink entries.
	linkTarget string
}

// walkStaging lists the staging tree in lexical order, the property that
// makes repeated runs on identical input produce identical archives. The
// staging root itself is not listed.
func walkStaging(stagingDir string) ([]entry, error) {
	var entries []entry

	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == stagingDir {
			return nil
		}

		rel, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		e := entry{
			relPath:  filepath.ToSlash(rel),
			fullPath: path,
			info:     info,
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if e.linkTarget, err = os.Readlink(path); err != nil {
				return fmt.Errorf("read link %s: %w", path, err)
			}
		}

		entries = append(entries, e)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk staging directory: %w", err)
	}

	return entries, nil
}

// withOutputFile wraps archive writing so a failure never leaves a partial
// artifact: the output is created, handed to write, and removed again if
// anything goes wrong.
func withOutputFile(outputPath string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}

	f, err := os.Create(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	if err = write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(outputPath)

		return err
	}

	if err = f.Close(); err != nil {
		_ = os.Remove(outputPath)

		return fmt.Errorf("close archive: %w", err)
	}

	return nil
}
