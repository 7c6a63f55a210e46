package suite

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// BuildType distinguishes nightly from official builds.
type BuildType string

// Known build types.
const (
	NightlyBuild  BuildType = "NB"
	OfficialBuild BuildType = "OB"
)

// BundleType is the feature set of an installer bundle.
type BundleType string

// Known bundle types.
const (
	Academic BundleType = "academic"
	General  BundleType = "general"
	Advanced BundleType = "advanced"
	DESRES   BundleType = "desres"
)

// Platform is the operating system label used on build pages.
type Platform string

// Supported platforms.
const (
	Windows Platform = "Windows"
	MacOSX  Platform = "MacOSX"
	Linux   Platform = "Linux"
)

// desresKeyword is the link text marking DESRES installers.
const desresKeyword = "DESRES"

var (
	// ErrUnknownBuildType is returned for build types other than NB and OB.
	ErrUnknownBuildType = errors.New("unknown build type")
	// ErrUnknownBundleType is returned for unsupported bundle types.
	ErrUnknownBundleType = errors.New("unknown bundle type")
	// ErrUnsupportedPlatform is returned for operating systems without installers.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// BuildTypes lists the accepted build types in CLI order.
func BuildTypes() []string {
	return []string{string(NightlyBuild), string(OfficialBuild)}
}

// BundleTypes lists the accepted bundle types in CLI order.
func BundleTypes() []string {
	return []string{string(Academic), string(General), string(Advanced), string(DESRES)}
}

// ParseBuildType validates s as a build type. Matching is case-insensitive.
func ParseBuildType(s string) (BuildType, error) {
	switch bt := BuildType(strings.ToUpper(strings.TrimSpace(s))); bt {
	case NightlyBuild, OfficialBuild:
		return bt, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownBuildType)
	}
}

// ParseBundleType validates s as a bundle type. Matching is case-insensitive.
func ParseBundleType(s string) (BundleType, error) {
	switch bt := BundleType(strings.ToLower(strings.TrimSpace(s))); bt {
	case Academic, General, Advanced, DESRES:
		return bt, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownBundleType)
	}
}

// Header returns the label of the section listing this bundle's installers.
// DESRES installers are published under the academic section.
func (b BundleType) Header() string {
	label := b
	if b == DESRES {
		label = Academic
	}

	s := string(label)
	if s == "" {
		return ""
	}

	return strings.ToUpper(s[:1]) + s[1:] + " Installers"
}

// SupportsKNIME reports whether a KNIME flavour of the bundle is published.
func (b BundleType) SupportsKNIME() bool {
	return b == General || b == Advanced
}

// PlatformFromGOOS maps a runtime.GOOS value to a build page platform.
func PlatformFromGOOS(goos string) (Platform, error) {
	switch goos {
	case "windows":
		return Windows, nil
	case "darwin":
		return MacOSX, nil
	case "linux":
		return Linux, nil
	default:
		return "", fmt.Errorf("%s: %w", goos, ErrUnsupportedPlatform)
	}
}

// CurrentPlatform returns the platform the process runs on.
func CurrentPlatform() (Platform, error) {
	return PlatformFromGOOS(runtime.GOOS)
}

// ParsePlatform reads a platform from its build page label or a GOOS name,
// ignoring case. An empty value means the current platform.
func ParsePlatform(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CurrentPlatform()
	}

	for _, p := range []Platform{Windows, MacOSX, Linux} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}

	return PlatformFromGOOS(strings.ToLower(s))
}

// Keyword returns the text an installer link must contain to match
// this platform and bundle.
func (p Platform) Keyword(bundle BundleType) string {
	if bundle == DESRES {
		return desresKeyword
	}

	return string(p)
}
