package icns

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/logger"

	// Common source icon formats.
	_ "image/gif"
	_ "image/jpeg"
)

// Convert renders the raster image at sourcePath into the full multi-resolution
// icon set. Sources that cannot be decoded fail with pack.ErrUnsupportedFormat.
// Sources smaller than the largest level are upsampled with a warning instead
// of failing: a soft icon beats no icon.
//
// Non-square sources are padded to a square canvas with transparent pixels
// before resizing, so artwork is never cropped.
func Convert(ctx context.Context, sourcePath string) (*IconSet, error) {
	f, err := os.Open(filepath.Clean(sourcePath))
	if err != nil {
		return nil, fmt.Errorf("open icon source: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", pack.ErrUnsupportedFormat, sourcePath, err)
	}

	logger.DebugKV(ctx, "Decoded icon source", "path", sourcePath, "format", format)

	squared := padToSquare(img)
	if side := squared.Bounds().Dx(); side < largestPixels {
		logger.Warnf(ctx, "Icon source is %dpx, levels above that are upsampled and may look soft", side)
	}

	set := &IconSet{entries: make([]Entry, 0, len(sizeTable))}

	for _, lvl := range sizeTable {
		resized := resample(squared, lvl.pixels)

		var buf bytes.Buffer
		if err = png.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("encode %dpx level: %w", lvl.pixels, err)
		}

		set.entries = append(set.entries, Entry{
			OSType: lvl.osType,
			Pixels: lvl.pixels,
			Retina: lvl.retina,
			Data:   buf.Bytes(),
		})
	}

	return set, nil
}

// padToSquare centers the image on a transparent square canvas whose side is
// the larger of the two dimensions. Square sources are returned untouched.
func padToSquare(img image.Image) image.Image {
	bounds := img.Bounds()

	width, height := bounds.Dx(), bounds.Dy()
	if width == height {
		return img
	}

	side := max(width, height)

	canvas := image.NewNRGBA(image.Rect(0, 0, side, side))
	offset := image.Pt((side-width)/2, (side-height)/2)

	xdraw.Draw(canvas, bounds.Sub(bounds.Min).Add(offset), img, bounds.Min, xdraw.Over)

	return canvas
}

// resample scales the square source to the requested dimension with a
// Catmull-Rom kernel, the highest quality scaler x/image ships.
func resample(img image.Image, pixels int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, pixels, pixels))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	return dst
}
