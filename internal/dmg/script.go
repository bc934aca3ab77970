package dmg

import (
	"fmt"
	"strings"
)

// Script renders the Finder automation script that applies the window layout
// to the mounted volume. appName is the bundle directory name inside the
// volume; backgroundFile, when non-empty, is the classic-path reference to
// the background image inside the volume (e.g. ".background:background.png").
//
// The function is pure: identical inputs always produce byte-identical
// script text. Errors only surface when the host executes the result.
func Script(layout Layout, volumeName, appName, backgroundFile string) string {
	background := ""
	if backgroundFile != "" {
		background = fmt.Sprintf(
			"\n        set background picture of viewOptions to file %q", backgroundFile)
	}

	var b strings.Builder

	fmt.Fprintf(&b, `tell application "Finder"
    tell disk %q
        open
        set current view of container window to icon view
        set toolbar visible of container window to false
        set statusbar visible of container window to false
        set the bounds of container window to {%d, %d, %d, %d}
        set viewOptions to the icon view options of container window
        set arrangement of viewOptions to not arranged
        set icon size of viewOptions to %d%s
        set position of item %q to {%d, %d}
        set position of item "Applications" to {%d, %d}
        close
        open
        update without registering applications
        delay 2
    end tell
end tell
`,
		volumeName,
		layout.WindowPosition.X,
		layout.WindowPosition.Y,
		layout.WindowPosition.X+layout.WindowSize.Width,
		layout.WindowPosition.Y+layout.WindowSize.Height,
		layout.IconSize,
		background,
		appName,
		layout.AppPosition.X,
		layout.AppPosition.Y,
		layout.ApplicationsPosition.X,
		layout.ApplicationsPosition.Y,
	)

	return b.String()
}
