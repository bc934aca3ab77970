package pack

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedPlatform is returned when a disk image is requested on a
	// platform that cannot produce one.
	ErrUnsupportedPlatform = errors.New("platform is not supported")

	// ErrUnsupportedFormat is returned when a source icon image cannot be decoded.
	ErrUnsupportedFormat = errors.New("image format is not supported")

	// ErrVolumeBusy marks a detach failure caused by the volume being held open.
	// It is the only transient condition in the pipeline and is retried.
	ErrVolumeBusy = errors.New("volume is busy")
)

// ToolError reports an external tool that could not be started or returned a
// non-zero status. Captured stderr is attached for diagnosis.
type ToolError struct {
	// Tool is the executable name.
	Tool string
	// Args are the arguments the tool was invoked with.
	Args []string
	// Stderr is the captured standard error output, trimmed.
	Stderr string
	// Err is the underlying exec error.
	Err error
}

// Error renders the failed command line together with its captured stderr.
func (e *ToolError) Error() string {
	var b strings.Builder

	b.WriteString(e.Tool)

	if len(e.Args) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(e.Args, " "))
	}

	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	if e.Stderr != "" {
		b.WriteString(": ")
		b.WriteString(e.Stderr)
	}

	return b.String()
}

// Unwrap exposes the underlying exec error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// CosmeticError marks a failure that affects only the visual presentation of
// the artifact. The orchestration downgrades it to a warning and keeps the
// artifact.
type CosmeticError struct {
	// Err is the underlying failure.
	Err error
}

// Error describes the cosmetic failure.
func (e *CosmeticError) Error() string {
	return fmt.Sprintf("cosmetic: %v", e.Err)
}

// Unwrap exposes the underlying failure.
func (e *CosmeticError) Unwrap() error {
	return e.Err
}

// IsCosmetic reports whether err only affects artifact presentation.
func IsCosmetic(err error) bool {
	var cosmetic *CosmeticError

	return errors.As(err, &cosmetic)
}
