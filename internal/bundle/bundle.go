package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"

	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/logger"
)

const (
	// IconFilename is the icon container name referenced from Info.plist.
	IconFilename = "icon.icns"

	// minimumSystemVersion is the oldest macOS release the bundle declares support for.
	minimumSystemVersion = "10.13"

	// dirMode is used for every directory inside the bundle.
	dirMode os.FileMode = 0o755
)

// Layout points at the directories of a created .app bundle skeleton.
type Layout struct {
	// Root is the <Title>.app directory.
	Root string
	// MacOS is Contents/MacOS, where executables live.
	MacOS string
	// Resources is Contents/Resources, where the icon lands.
	Resources string
}

// Create builds the application bundle skeleton under dir and writes its
// Info.plist. The returned layout is used by the staging assembler to place
// executables and resources.
func Create(ctx context.Context, dir string, cfg *pack.Config) (*Layout, error) {
	root := filepath.Join(dir, cfg.AppBundleName())
	contents := filepath.Join(root, "Contents")

	l := &Layout{
		Root:      root,
		MacOS:     filepath.Join(contents, "MacOS"),
		Resources: filepath.Join(contents, "Resources"),
	}

	for _, d := range []string{l.MacOS, l.Resources} {
		if err := os.MkdirAll(d, dirMode); err != nil {
			return nil, fmt.Errorf("create bundle structure: %w", err)
		}
	}

	if err := writeInfoPlist(contents, cfg); err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Created application bundle skeleton", "path", root)

	return l, nil
}

// writeInfoPlist renders Contents/Info.plist from the configuration.
func writeInfoPlist(contentsDir string, cfg *pack.Config) error {
	info := map[string]any{
		"CFBundleDevelopmentRegion":     "en",
		"CFBundleExecutable":            cfg.Name,
		"CFBundleIdentifier":            fmt.Sprintf("com.%s.%s", cfg.Name, cfg.Name),
		"CFBundleInfoDictionaryVersion": "6.0",
		"CFBundleName":                  cfg.Title,
		"CFBundleDisplayName":           cfg.Title,
		"CFBundlePackageType":           "APPL",
		"CFBundleShortVersionString":    cfg.Version,
		"CFBundleVersion":               cfg.Version,
		"CFBundleIconFile":              IconFilename,
		"LSMinimumSystemVersion":        minimumSystemVersion,
		"NSHighResolutionCapable":       true,
	}

	data, err := plist.MarshalIndent(info, plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("marshal Info.plist: %w", err)
	}

	path := filepath.Join(contentsDir, "Info.plist")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write Info.plist: %w", err)
	}

	return nil
}
