package dmg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/app-packager/internal/domain/pack"
)

// TestScriptIsPure verifies byte-identical output for identical inputs.
func TestScriptIsPure(t *testing.T) {
	t.Parallel()

	layout := LayoutFromConfig(&pack.DmgConfig{
		WindowPosition:       pack.Point{X: 200, Y: 120},
		WindowSize:           pack.Size{Width: 600, Height: 400},
		AppPosition:          pack.Point{X: 150, Y: 200},
		ApplicationsPosition: pack.Point{X: 450, Y: 200},
	})

	first := Script(layout, "My App", "My App.app", ".background:background.png")
	second := Script(layout, "My App", "My App.app", ".background:background.png")
	require.Equal(t, first, second)
}

// TestScriptContents checks window bounds arithmetic and both icon positions.
func TestScriptContents(t *testing.T) {
	t.Parallel()

	layout := LayoutFromConfig(&pack.DmgConfig{
		WindowPosition:       pack.Point{X: 100, Y: 100},
		WindowSize:           pack.Size{Width: 600, Height: 400},
		AppPosition:          pack.Point{X: 150, Y: 200},
		ApplicationsPosition: pack.Point{X: 450, Y: 200},
	})

	script := Script(layout, "My App", "My App.app", "")
	require.Contains(t, script, `tell disk "My App"`)
	require.Contains(t, script, "set the bounds of container window to {100, 100, 700, 500}")
	require.Contains(t, script, `set position of item "My App.app" to {150, 200}`)
	require.Contains(t, script, `set position of item "Applications" to {450, 200}`)
	require.NotContains(t, script, "background picture")
}

// TestScriptBackground ensures the background clause appears only when a
// background file is supplied.
func TestScriptBackground(t *testing.T) {
	t.Parallel()

	script := Script(LayoutFromConfig(nil), "Vol", "Vol.app", ".background:background.png")
	require.Contains(t, script, `set background picture of viewOptions to file ".background:background.png"`)
}

// TestScriptOutOfRangePositions exercises positions beyond the window bounds.
// The generator must not reject them: the result is only visually wrong.
func TestScriptOutOfRangePositions(t *testing.T) {
	t.Parallel()

	layout := LayoutFromConfig(&pack.DmgConfig{
		WindowSize:           pack.Size{Width: 300, Height: 200},
		AppPosition:          pack.Point{X: 5000, Y: -40},
		ApplicationsPosition: pack.Point{X: 9999, Y: 9999},
	})

	script := Script(layout, "Vol", "Vol.app", "")
	require.Contains(t, script, "{5000, -40}")
	require.Contains(t, script, "{9999, 9999}")
}

// TestLayoutFromConfigDefaults checks that omitted fields pick up defaults.
func TestLayoutFromConfigDefaults(t *testing.T) {
	t.Parallel()

	l := LayoutFromConfig(nil)
	require.Equal(t, defaultWindowPosition, l.WindowPosition)
	require.Equal(t, defaultWindowSize, l.WindowSize)
	require.Equal(t, defaultIconSize, l.IconSize)

	partial := LayoutFromConfig(&pack.DmgConfig{AppPosition: pack.Point{X: 10, Y: 20}})
	require.Equal(t, pack.Point{X: 10, Y: 20}, partial.AppPosition)
	require.Equal(t, defaultApplicationsPosition, partial.ApplicationsPosition)
}
