package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyTree copies a file, directory tree, or symlink from source to
// destination. Symlinks are recreated as links, regular files keep their
// permission bits. Parent directories of the destination are created.
func CopyTree(source, destination string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return fmt.Errorf("stat %s: %w", source, err)
	}

	if err = os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(destination), err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return copyLink(source, destination)
	case info.IsDir():
		return copyDir(source, destination)
	default:
		return copyFile(source, destination, info.Mode().Perm())
	}
}

func copyDir(source, destination string) error {
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	for _, entry := range entries {
		src := filepath.Join(source, entry.Name())
		dst := filepath.Join(destination, entry.Name())

		if err = CopyTree(src, dst); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(source, destination string, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(source))
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(destination), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", destination, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return fmt.Errorf("copy %s: %w", source, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destination, err)
	}

	return nil
}

func copyLink(source, destination string) error {
	target, err := os.Readlink(source)
	if err != nil {
		return fmt.Errorf("read link %s: %w", source, err)
	}

	// Replace a stale link if one is already there.
	_ = os.Remove(destination)

	if err = os.Symlink(target, destination); err != nil {
		return fmt.Errorf("link %s: %w", destination, err)
	}

	return nil
}
