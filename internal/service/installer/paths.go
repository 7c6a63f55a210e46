package installer

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/build-installer/internal/domain/suite"
)

const (
	// windowsProgramFiles is the parent of default Windows installations.
	windowsProgramFiles = `C:\Program Files`
	// macInstallRoot is the parent of default macOS installations.
	macInstallRoot = "/opt/schrodinger"
	// linuxInstallRoot is the parent of default Linux installations.
	linuxInstallRoot = "/scr"
)

var (
	errDownloadDirMissing = errors.New("download directory does not exist")
	errNoHomeDir          = errors.New("cannot determine the home directory")
)

// ResolveDownloadDir picks the download directory: the flag, then the
// configured value, then ~/Downloads. The directory must already exist.
func ResolveDownloadDir(flag, configured string) (string, error) {
	dir := flag
	if dir == "" {
		dir = configured
	}

	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return "", errNoHomeDir
		}

		dir = filepath.Join(home, "Downloads")
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s: %w", dir, errDownloadDirMissing)
	}

	return dir, nil
}

// InstallDir returns where release is installed. A custom parent gives
// <custom>/suites<release>; otherwise the platform default is used.
func InstallDir(platform suite.Platform, release suite.Release, custom string) string {
	if custom != "" {
		return filepath.Join(custom, "suites"+release.String())
	}

	switch platform {
	case suite.Windows:
		return windowsProgramFiles + `\Schrodinger` + release.String()
	case suite.MacOSX:
		return path.Join(macInstallRoot, "suites"+release.String())
	default:
		return path.Join(linuxInstallRoot, "schrodinger"+release.String())
	}
}
