package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/app-packager/internal/domain/pack"
)

const (
	// DefaultProjectManifest is the Cargo-style project manifest filename.
	DefaultProjectManifest = "packager.toml"

	// DefaultStandaloneManifest is the standalone manifest filename.
	DefaultStandaloneManifest = "packager.yaml"

	// DefaultOutputFolder receives artifacts when the manifest names none.
	DefaultOutputFolder = "setup"

	// defaultFilenameTemplate names artifacts when the manifest names none.
	defaultFilenameTemplate = "$NAME-$PLATFORM-$VERSION"
)

var (
	// errManifestNotFound is returned when no manifest exists at the search path.
	errManifestNotFound = errors.New("packaging manifest not found")
	// errUnknownManifestFormat is returned for manifest files with an unexpected extension.
	errUnknownManifestFormat = errors.New("unknown manifest format")
	// errNameRequired is returned when the manifest misses the application name.
	errNameRequired = errors.New("application name must be provided")
	// errVersionRequired is returned when the manifest misses the application version.
	errVersionRequired = errors.New("application version must be provided")
	// errWindowSize is returned for non-positive disk image window dimensions.
	errWindowSize = errors.New("dmg window size components must be positive")
	// errMissingPackagerSection is returned when the project manifest has no packager metadata.
	errMissingPackagerSection = errors.New("missing [package.metadata.packager] section")
)

// settings is the packaging section shared by both manifest formats.
type settings struct {
	// Title is the human-readable application title; defaults to the name.
	Title string `toml:"title"                yaml:"title"`
	// Filename is the artifact base name template.
	Filename string `toml:"filename"         yaml:"filename"`
	// Build lists command lines executed before staging.
	Build []string `toml:"build"             yaml:"build"`
	// Copy lists the files staged into the package.
	Copy []copyEntry `toml:"copy"            yaml:"copy"`
	// OutputFolder receives the final artifact.
	OutputFolder string `toml:"output-folder" yaml:"output_folder"`
	// Icon is the source icon image path.
	Icon string `toml:"icon"                 yaml:"icon"`
	// DMG is the optional disk image window layout.
	DMG *dmgSettings `toml:"dmg"             yaml:"dmg"`
}

type copyEntry struct {
	Source      string `toml:"source"      yaml:"source"`
	Destination string `toml:"destination" yaml:"destination"`
}

// dmgSettings mirrors the manifest representation of the window layout;
// coordinate pairs stay optional so defaults can fill the gaps.
type dmgSettings struct {
	Background           string  `toml:"background"            yaml:"background"`
	WindowPosition       *[2]int `toml:"window_position"       yaml:"window_position"`
	WindowSize           *[2]int `toml:"window_size"           yaml:"window_size"`
	AppPosition          *[2]int `toml:"app_position"          yaml:"app_position"`
	ApplicationsPosition *[2]int `toml:"applications_position" yaml:"applications_position"`
}

// projectManifest is the Cargo-style format: package identity plus a
// [package.metadata.packager] section.
type projectManifest struct {
	Package struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
		Metadata    struct {
			Packager *settings `toml:"packager"`
		} `toml:"metadata"`
	} `toml:"package"`
}

// standaloneManifest is the flat YAML format carrying identity and settings
// in one document.
type standaloneManifest struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Settings    settings `yaml:",inline"`
}

// Load discovers and parses the packaging manifest, expands templates and
// validates the result. path may name a manifest file directly or a project
// directory searched for the default manifest names.
func Load(path string) (*pack.Config, error) {
	manifestPath, err := discover(path)
	if err != nil {
		return nil, err
	}

	var (
		name, version string
		s             *settings
	)

	switch strings.ToLower(filepath.Ext(manifestPath)) {
	case ".toml":
		name, version, s, err = loadProject(manifestPath)
	case ".yaml", ".yml":
		name, version, s, err = loadStandalone(manifestPath)
	default:
		err = fmt.Errorf("%w: %s", errUnknownManifestFormat, manifestPath)
	}

	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(manifestPath)

	cfg, err := expand(baseDir, name, version, s)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// discover resolves the manifest location from a file path, a directory, or
// the current directory when path is empty.
func discover(path string) (string, error) {
	if path == "" {
		path = "."
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errManifestNotFound, path)
	}

	if !info.IsDir() {
		return path, nil
	}

	for _, candidate := range []string{DefaultProjectManifest, DefaultStandaloneManifest} {
		manifestPath := filepath.Join(path, candidate)
		if _, err = os.Stat(manifestPath); err == nil {
			return manifestPath, nil
		}
	}

	return "", fmt.Errorf("%w: no %s or %s in %s",
		errManifestNotFound, DefaultProjectManifest, DefaultStandaloneManifest, path)
}

func loadProject(path string) (string, string, *settings, error) {
	var manifest projectManifest

	if _, err := toml.DecodeFile(path, &manifest); err != nil {
		return "", "", nil, fmt.Errorf("parse %s: %w", path, err)
	}

	s := manifest.Package.Metadata.Packager
	if s == nil {
		return "", "", nil, fmt.Errorf("%s: %w", path, errMissingPackagerSection)
	}

	return manifest.Package.Name, manifest.Package.Version, s, nil
}

func loadStandalone(path string) (string, string, *settings, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", "", nil, fmt.Errorf("read %s: %w", path, err)
	}

	var manifest standaloneManifest
	if err = yaml.Unmarshal(contents, &manifest); err != nil {
		return "", "", nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return manifest.Name, manifest.Version, &manifest.Settings, nil
}

// expand applies template variables and defaults, producing the immutable
// configuration the engine consumes.
func expand(baseDir, name, version string, s *settings) (*pack.Config, error) {
	if name == "" {
		return nil, errNameRequired
	}

	if version == "" {
		return nil, errVersionRequired
	}

	tpl := NewTemplate()
	tpl.Register("NAME", name)
	tpl.Register("VERSION", version)
	tpl.Register("PLATFORM", pack.Current().String())

	title := name
	if s.Title != "" {
		title = tpl.Expand(s.Title)
	}

	filenameTemplate := s.Filename
	if filenameTemplate == "" {
		filenameTemplate = defaultFilenameTemplate
	}

	outputFolder := s.OutputFolder
	if outputFolder == "" {
		outputFolder = DefaultOutputFolder
	}

	outputFolder = tpl.Expand(outputFolder)
	if !filepath.IsAbs(outputFolder) {
		outputFolder = filepath.Join(baseDir, outputFolder)
	}

	copyOperations := make([]pack.CopyOperation, 0, len(s.Copy))
	for _, op := range s.Copy {
		copyOperations = append(copyOperations, pack.CopyOperation{
			Source:      tpl.Expand(op.Source),
			Destination: tpl.Expand(op.Destination),
		})
	}

	dmgConfig, err := expandDmg(s.DMG)
	if err != nil {
		return nil, err
	}

	return &pack.Config{
		Name:           name,
		Version:        version,
		Title:          title,
		Filename:       tpl.Expand(filenameTemplate),
		OutputFolder:   outputFolder,
		BaseDir:        baseDir,
		Icon:           tpl.Expand(s.Icon),
		BuildCommands:  tpl.ExpandAll(s.Build),
		CopyOperations: copyOperations,
		DMG:            dmgConfig,
	}, nil
}

func expandDmg(s *dmgSettings) (*pack.DmgConfig, error) {
	if s == nil {
		return nil, nil
	}

	cfg := &pack.DmgConfig{Background: s.Background}

	if s.WindowPosition != nil {
		cfg.WindowPosition = pack.Point{X: s.WindowPosition[0], Y: s.WindowPosition[1]}
	}

	if s.WindowSize != nil {
		if s.WindowSize[0] <= 0 || s.WindowSize[1] <= 0 {
			return nil, fmt.Errorf("%w: got %dx%d", errWindowSize, s.WindowSize[0], s.WindowSize[1])
		}

		cfg.WindowSize = pack.Size{Width: s.WindowSize[0], Height: s.WindowSize[1]}
	}

	if s.AppPosition != nil {
		cfg.AppPosition = pack.Point{X: s.AppPosition[0], Y: s.AppPosition[1]}
	}

	if s.ApplicationsPosition != nil {
		cfg.ApplicationsPosition = pack.Point{X: s.ApplicationsPosition[0], Y: s.ApplicationsPosition[1]}
	}

	return cfg, nil
}
