package pack

import (
	"context"
	"runtime"
)

// Platform identifies a packaging target operating system.
type Platform string

const (
	// PlatformMacOS produces disk images by default.
	PlatformMacOS Platform = "macos"
	// PlatformLinux produces compressed tarballs.
	PlatformLinux Platform = "linux"
	// PlatformWindows produces zip archives.
	PlatformWindows Platform = "windows"
)

// Current returns the platform the packager is running on.
func Current() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	default:
		return PlatformLinux
	}
}

// String returns the platform identifier used in expanded filenames.
func (p Platform) String() string {
	return string(p)
}

// ArtifactKind names the container format of a produced artifact.
type ArtifactKind string

const (
	// ArtifactDiskImage is a compressed read-only macOS disk image.
	ArtifactDiskImage ArtifactKind = "dmg"
	// ArtifactZip is a zip archive.
	ArtifactZip ArtifactKind = "zip"
	// ArtifactTarGz is a gzip-compressed tarball.
	ArtifactTarGz ArtifactKind = "tar.gz"
)

// Extension returns the filename extension for the artifact kind, without a leading dot.
func (k ArtifactKind) Extension() string {
	return string(k)
}

// Artifact is the final output of a successful packaging run.
// Its absence on disk after a reported success is a contract violation.
type Artifact struct {
	// Path is the absolute location of the produced file.
	Path string
	// Kind is the container format of the file at Path.
	Kind ArtifactKind
}

// Point is a pixel coordinate inside the disk image Finder window.
type Point struct {
	X int
	Y int
}

// Size is a window extent in pixels. Both components must be positive.
type Size struct {
	Width  int
	Height int
}

// DmgConfig describes the Finder window presentation of the disk image.
// Positions outside the window bounds are not rejected: they only produce a
// visually incorrect layout, never a failed run.
type DmgConfig struct {
	// Background is the path to a background image, relative to the project root.
	Background string
	// WindowPosition is the top-left corner of the Finder window on screen.
	WindowPosition Point
	// WindowSize is the inner size of the Finder window.
	WindowSize Size
	// AppPosition is where the application bundle icon is placed.
	AppPosition Point
	// ApplicationsPosition is where the /Applications alias is placed.
	ApplicationsPosition Point
}

// CopyOperation maps a source file or directory to a destination
// relative to the staged application.
type CopyOperation struct {
	// Source is resolved against the project base directory.
	Source string
	// Destination is relative to the staging target for the platform.
	Destination string
}

// Config is the fully merged, template-expanded packaging configuration.
// It is immutable once constructed and owned exclusively by the active
// packaging run.
type Config struct {
	// Name is the machine-readable application name.
	Name string
	// Version is the application version embedded in bundles and filenames.
	Version string
	// Title is the human-readable application title (bundle and volume name).
	Title string
	// Filename is the artifact base name, already template-expanded.
	Filename string
	// OutputFolder is where the final artifact is written.
	OutputFolder string
	// BaseDir is the project root against which relative paths resolve.
	BaseDir string
	// Icon is an optional path to a source icon image.
	Icon string
	// BuildCommands are shell command lines executed before staging.
	BuildCommands []string
	// CopyOperations are the files placed into the staging tree.
	CopyOperations []CopyOperation
	// DMG is the optional disk image window layout.
	DMG *DmgConfig
}

// AppBundleName returns the name of the .app directory for the configuration.
func (c *Config) AppBundleName() string {
	return c.Title + ".app"
}

// Packager assembles a staged application tree into a distributable artifact.
// Implementations must treat the staging directory as read-only and must not
// leave partial artifacts behind on failure.
type Packager interface {
	Assemble(ctx context.Context, stagingDir string, cfg *Config) (*Artifact, error)
}
