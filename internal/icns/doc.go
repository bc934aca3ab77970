// Package icns converts an arbitrary raster image into a macOS icon
// container: every nominal size in the canonical table plus its retina
// double, rendered with a high-quality scaler and packed into the fixed
// icns chunk layout the host OS expects.
package icns
