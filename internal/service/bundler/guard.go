package bundler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/app-packager/internal/logger"
)

const (
	// markerFilename marks that a packaging run is in progress to avoid
	// parallel runs clobbering each other's staging and output.
	markerFilename = "app-packager-marker.bin"

	// markerLifetime is the period after which a marker alone is no longer
	// trusted and the process list decides whether a run is really active.
	markerLifetime = 30 * time.Second

	// executableBaseName is the process name scanned for when a stale
	// marker is found.
	executableBaseName = "app-packager"
)

// errAlreadyRunning indicates that another packaging run holds the marker.
var errAlreadyRunning = errors.New("another packaging run is already in progress")

// guard serializes packaging runs through a marker file in the system
// temporary directory. A stale marker left behind by a crashed run is
// reclaimed once no other packager process is found.
type guard struct {
	path string
}

func newGuard() *guard {
	return &guard{path: filepath.Join(os.TempDir(), markerFilename)}
}

// acquire claims the run marker or returns errAlreadyRunning.
func (g *guard) acquire(ctx context.Context) error {
	info, err := os.Stat(g.path)

	switch {
	case err == nil:
		if time.Since(info.ModTime()) <= markerLifetime {
			return errAlreadyRunning
		}

		if anotherInstanceRunning() {
			return errAlreadyRunning
		}

		logger.Info(ctx, "Removing stale run marker")

		if err = os.Remove(g.path); err != nil {
			return fmt.Errorf("remove stale run marker: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("inspect run marker: %w", err)
	}

	marker, err := os.Create(g.path)
	if err != nil {
		return fmt.Errorf("create run marker: %w", err)
	}

	return marker.Close()
}

// release removes the run marker. A missing marker is not an error.
func (g *guard) release(ctx context.Context) {
	if err := os.Remove(g.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf(ctx, "Unable to remove run marker: %v", err)
	}
}

// anotherInstanceRunning scans the process list for a packager process other
// than this one. Enumeration failures count as not running: the marker age
// check already filtered the common case.
func anotherInstanceRunning() bool {
	processes, err := ps.Processes()
	if err != nil {
		return false
	}

	self := os.Getpid()
	name := executableName()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if process.Executable() == name {
			return true
		}
	}

	return false
}

func executableName() string {
	if runtime.GOOS == "windows" {
		return executableBaseName + ".exe"
	}

	return executableBaseName
}
