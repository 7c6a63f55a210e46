package share

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/service/install"
)

// windowsDir holds the Windows installer inside a build directory on the share.
const windowsDir = "Windows-x64"

// ErrNoInstaller is returned when no build on the share carries an installer.
var ErrNoInstaller = errors.New("no installer found on share")

// Build is a build directory on the installer share.
type Build struct {
	ID suite.BuildID
	// Dir is the build directory.
	Dir string
	// Installer is the silent installer executable.
	Installer string
}

// Latest returns the newest build under <root>/<buildType>/<release> that
// carries a silent installer for platform.
func Latest(root string, buildType suite.BuildType, release suite.Release, platform suite.Platform) (Build, error) {
	if platform != suite.Windows {
		return Build{}, fmt.Errorf("%s: %w", platform, suite.ErrUnsupportedPlatform)
	}

	releaseDir := filepath.Join(root, string(buildType), release.String())

	entries, err := os.ReadDir(releaseDir)
	if err != nil {
		return Build{}, fmt.Errorf("list %s: %w", releaseDir, err)
	}

	builds := make([]suite.BuildID, 0, len(entries))
	// ParseBuildID lowercases; directories keep their name on disk.
	names := make(map[suite.BuildID]string, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id, parseErr := suite.ParseBuildID(entry.Name())
		if parseErr != nil {
			continue
		}

		builds = append(builds, id)
		names[id] = entry.Name()
	}

	suite.SortBuildsDescending(builds)

	for _, id := range builds {
		dir := filepath.Join(releaseDir, names[id])
		installer := filepath.Join(dir, windowsDir, install.WindowsInstaller)

		if info, statErr := os.Stat(installer); statErr == nil && !info.IsDir() {
			return Build{ID: id, Dir: dir, Installer: installer}, nil
		}
	}

	return Build{}, fmt.Errorf("%s: %w", releaseDir, ErrNoInstaller)
}
