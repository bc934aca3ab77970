package icns

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// level is one row of the canonical macOS icon size table.
type level struct {
	// osType is the 4-byte chunk identifier in the icns container.
	osType string
	// points is the nominal icon size.
	points int
	// pixels is the actual bitmap dimension (doubled for retina levels).
	pixels int
	// retina marks the 2x variant of a nominal size.
	retina bool
}

// sizeTable is the fixed set of levels macOS expects in an icon container,
// each nominal size paired with its retina double. The chunk identifiers and
// their dimensions are dictated by the icns format and must not change.
var sizeTable = []level{
	{osType: "icp4", points: 16, pixels: 16},
	{osType: "ic11", points: 16, pixels: 32, retina: true},
	{osType: "icp5", points: 32, pixels: 32},
	{osType: "ic12", points: 32, pixels: 64, retina: true},
	{osType: "ic07", points: 128, pixels: 128},
	{osType: "ic13", points: 128, pixels: 256, retina: true},
	{osType: "ic08", points: 256, pixels: 256},
	{osType: "ic14", points: 256, pixels: 512, retina: true},
	{osType: "ic09", points: 512, pixels: 512},
	{osType: "ic10", points: 512, pixels: 1024, retina: true},
}

const (
	// containerMagic opens every icns file.
	containerMagic = "icns"
	// chunkHeaderSize is the OSType plus the big-endian length, in bytes.
	chunkHeaderSize = 8
	// largestPixels is the biggest bitmap dimension in the size table.
	largestPixels = 1024
)

// Entry is one rendered icon bitmap together with its container chunk type.
type Entry struct {
	// OSType is the chunk identifier the bitmap is stored under.
	OSType string
	// Pixels is the bitmap dimension (the canvas is always square).
	Pixels int
	// Retina marks 2x variants.
	Retina bool
	// Data is the PNG-encoded bitmap.
	Data []byte
}

// IconSet is the ordered sequence of rendered bitmaps covering the size
// table. It is built once per packaging run and never mutated afterwards.
type IconSet struct {
	entries []Entry
}

// Entries returns the rendered bitmaps in container order.
func (s *IconSet) Entries() []Entry {
	return s.entries
}

// WriteTo emits the icns container: the magic and total length, followed by
// one typed, length-prefixed chunk per entry in table order.
func (s *IconSet) WriteTo(w io.Writer) (int64, error) {
	total := chunkHeaderSize
	for _, e := range s.entries {
		total += chunkHeaderSize + len(e.Data)
	}

	var header [chunkHeaderSize]byte

	copy(header[:4], containerMagic)
	binary.BigEndian.PutUint32(header[4:], uint32(total))

	written, err := w.Write(header[:])
	n := int64(written)

	if err != nil {
		return n, fmt.Errorf("write container header: %w", err)
	}

	for _, e := range s.entries {
		copy(header[:4], e.OSType)
		binary.BigEndian.PutUint32(header[4:], uint32(chunkHeaderSize+len(e.Data)))

		written, err = w.Write(header[:])
		n += int64(written)

		if err != nil {
			return n, fmt.Errorf("write %s chunk header: %w", e.OSType, err)
		}

		written, err = w.Write(e.Data)
		n += int64(written)

		if err != nil {
			return n, fmt.Errorf("write %s chunk: %w", e.OSType, err)
		}
	}

	return n, nil
}

// WriteFile writes the container to the given path, creating parent
// directories as needed.
func (s *IconSet) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create icon folder: %w", err)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create icon file: %w", err)
	}

	if _, err = s.WriteTo(f); err != nil {
		_ = f.Close()

		return err
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close icon file: %w", err)
	}

	return nil
}
