package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/app-packager/internal/bundle"
	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/logger"
)

// executableMode is applied to regular files placed next to the bundle
// executable, matching what the launcher expects.
const executableMode os.FileMode = 0o755

// documentationExtensions lists destination extensions that belong next to
// the application instead of inside it: readmes, licenses and the like stay
// visible at the image or archive root.
var documentationExtensions = map[string]struct{}{
	".md":   {},
	".txt":  {},
	".pdf":  {},
	".html": {},
	".toml": {},
}

// Assembler builds the staging tree the packagers consume. The tree lives in
// a fresh temporary directory per run; the caller removes it when the run
// finishes. Packagers treat the result as read-only.
type Assembler struct {
	cfg *pack.Config
}

// NewAssembler returns an assembler for the given expanded configuration.
func NewAssembler(cfg *pack.Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// AssembleBundle produces the disk image staging layout: the application
// bundle skeleton with executables in Contents/MacOS, plus documentation
// files placed at the staging root next to the bundle.
func (a *Assembler) AssembleBundle(ctx context.Context) (string, error) {
	dir, err := a.tempDir()
	if err != nil {
		return "", err
	}

	layout, err := bundle.Create(ctx, dir, a.cfg)
	if err != nil {
		return "", err
	}

	for _, op := range a.cfg.CopyOperations {
		src := a.resolveSource(op.Source)

		var dst string
		if isDocumentation(op.Destination) {
			dst = filepath.Join(dir, op.Destination)
		} else {
			dst = filepath.Join(layout.MacOS, op.Destination)
		}

		logger.DebugKV(ctx, "Staging file", "source", src, "destination", dst)

		if err = CopyTree(src, dst); err != nil {
			return "", fmt.Errorf("stage %s: %w", op.Source, err)
		}

		if err = markExecutable(dst, layout.MacOS); err != nil {
			return "", err
		}
	}

	return dir, nil
}

// AssembleTree produces the archive staging layout: a single <name> folder
// holding the copy operations as-is.
func (a *Assembler) AssembleTree(ctx context.Context) (string, error) {
	dir, err := a.tempDir()
	if err != nil {
		return "", err
	}

	appDir := filepath.Join(dir, a.cfg.Name)
	if err = os.MkdirAll(appDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging folder: %w", err)
	}

	for _, op := range a.cfg.CopyOperations {
		src := a.resolveSource(op.Source)
		dst := filepath.Join(appDir, op.Destination)

		logger.DebugKV(ctx, "Staging file", "source", src, "destination", dst)

		if err = CopyTree(src, dst); err != nil {
			return "", fmt.Errorf("stage %s: %w", op.Source, err)
		}
	}

	return dir, nil
}

func (a *Assembler) tempDir() (string, error) {
	dir, err := os.MkdirTemp("", "app-packager-"+a.cfg.Name+"-")
	if err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	return dir, nil
}

func (a *Assembler) resolveSource(source string) string {
	if filepath.IsAbs(source) {
		return source
	}

	return filepath.Join(a.cfg.BaseDir, source)
}

// isDocumentation reports whether the destination belongs at the staging
// root rather than inside the bundle.
func isDocumentation(destination string) bool {
	_, ok := documentationExtensions[strings.ToLower(filepath.Ext(destination))]

	return ok
}

// markExecutable sets the executable mode on regular files placed into the
// bundle's MacOS folder.
func markExecutable(path, macOSDir string) error {
	rel, err := filepath.Rel(macOSDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil //nolint:nilerr // Paths outside MacOS keep their modes.
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil //nolint:nilerr // Directories and links keep their modes.
	}

	if err = os.Chmod(path, executableMode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	return nil
}
