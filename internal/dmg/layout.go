package dmg

import "github.com/oshokin/app-packager/internal/domain/pack"

// Default Finder window geometry, used when the manifest omits a value.
var (
	defaultWindowPosition       = pack.Point{X: 100, Y: 100}
	defaultWindowSize           = pack.Size{Width: 600, Height: 400}
	defaultAppPosition          = pack.Point{X: 150, Y: 200}
	defaultApplicationsPosition = pack.Point{X: 450, Y: 200}
)

// defaultIconSize is the Finder icon size inside the image window.
const defaultIconSize = 72

// Layout is the pure geometry of the disk image Finder window: window bounds
// and the two icon placements. It carries no behavior and is consumed only by
// the script generator.
type Layout struct {
	// WindowPosition is the top-left corner of the window on screen.
	WindowPosition pack.Point
	// WindowSize is the window extent.
	WindowSize pack.Size
	// AppPosition is where the application bundle icon sits.
	AppPosition pack.Point
	// ApplicationsPosition is where the /Applications alias sits.
	ApplicationsPosition pack.Point
	// IconSize is the Finder icon size in the window.
	IconSize int
}

// LayoutFromConfig builds a layout from the optional manifest section,
// filling gaps with the defaults above. A nil config yields the full default
// layout.
func LayoutFromConfig(cfg *pack.DmgConfig) Layout {
	l := Layout{
		WindowPosition:       defaultWindowPosition,
		WindowSize:           defaultWindowSize,
		AppPosition:          defaultAppPosition,
		ApplicationsPosition: defaultApplicationsPosition,
		IconSize:             defaultIconSize,
	}

	if cfg == nil {
		return l
	}

	if cfg.WindowPosition != (pack.Point{}) {
		l.WindowPosition = cfg.WindowPosition
	}

	if cfg.WindowSize != (pack.Size{}) {
		l.WindowSize = cfg.WindowSize
	}

	if cfg.AppPosition != (pack.Point{}) {
		l.AppPosition = cfg.AppPosition
	}

	if cfg.ApplicationsPosition != (pack.Point{}) {
		l.ApplicationsPosition = cfg.ApplicationsPosition
	}

	return l
}
