package pack

import "fmt"

// Route picks the artifact kind for a target platform and the CLI flags.
//
// macOS defaults to a disk image; --archive switches it to a zip unless --dmg
// explicitly asks for the native image. Linux always produces tar.gz, Windows
// always produces zip. Requesting --dmg anywhere but macOS fails with
// ErrUnsupportedPlatform.
func Route(target Platform, archiveRequested, dmgRequested bool) (ArtifactKind, error) {
	switch target {
	case PlatformMacOS:
		if archiveRequested && !dmgRequested {
			return ArtifactZip, nil
		}

		return ArtifactDiskImage, nil
	case PlatformLinux:
		if dmgRequested {
			return "", fmt.Errorf("%w: disk images require macOS, got %s", ErrUnsupportedPlatform, target)
		}

		return ArtifactTarGz, nil
	case PlatformWindows:
		if dmgRequested {
			return "", fmt.Errorf("%w: disk images require macOS, got %s", ErrUnsupportedPlatform, target)
		}

		return ArtifactZip, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, target)
	}
}
