package suite

import (
	"errors"
	"sort"
)

var (
	// ErrKNIMEBundle is returned when KNIME is requested for a bundle without a KNIME flavour.
	ErrKNIMEBundle = errors.New("KNIME can only be requested for general or advanced bundles")
	// ErrKNIMEPlatform is returned when KNIME is requested outside macOS.
	ErrKNIMEPlatform = errors.New("KNIME bundles are only published for MacOSX")
	// ErrInstallDirOnWindows is returned when a custom install directory is given on Windows.
	ErrInstallDirOnWindows = errors.New("a custom install directory is not available on Windows")
)

// Query describes the installer a run is looking for.
type Query struct {
	Release   Release
	BuildType BuildType
	Bundle    BundleType
	Platform  Platform
	KNIME     bool
	// Build pins the search to a single build when set.
	Build BuildID
}

// Bundle is an installer located on the build server.
type Bundle struct {
	Release   Release
	BuildType BuildType
	Build     BuildID
	Type      BundleType
	Platform  Platform
	// FileName is the last path segment of the installer link.
	FileName string
	// URL is the absolute download location.
	URL string
}

// ValidateRequest enforces the platform and bundle compatibility rules of a run.
func ValidateRequest(bundle BundleType, platform Platform, knime, customInstallDir bool) error {
	if knime && !bundle.SupportsKNIME() {
		return ErrKNIMEBundle
	}

	if knime && platform != MacOSX {
		return ErrKNIMEPlatform
	}

	if customInstallDir && platform == Windows {
		return ErrInstallDirOnWindows
	}

	return nil
}

// SortBuildsDescending orders builds by number, newest first.
// Ordering is numeric because build page names are only sometimes zero padded.
func SortBuildsDescending(builds []BuildID) {
	sort.SliceStable(builds, func(i, j int) bool {
		return builds[i].number > builds[j].number
	})
}
