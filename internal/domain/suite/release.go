package suite

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var (
	// shortReleasePattern is the CLI form "YY-Q" with years 2020-2029.
	shortReleasePattern = regexp.MustCompile(`^2[0-9]-[1-4]$`)
	// longReleasePattern is the form used in build server paths.
	longReleasePattern = regexp.MustCompile(`^20[0-9]{2}-[1-4]$`)
)

// ErrInvalidRelease is returned for values that are not quarterly releases.
var ErrInvalidRelease = errors.New("invalid release")

// Release is a quarterly product version such as "2021-3".
type Release struct {
	name    string
	version *goversion.Version
}

// ParseRelease accepts "YY-Q" (e.g. "21-3") or "YYYY-Q" (e.g. "2021-3").
func ParseRelease(s string) (Release, error) {
	name := strings.TrimSpace(s)

	switch {
	case shortReleasePattern.MatchString(name):
		name = "20" + name
	case longReleasePattern.MatchString(name):
	default:
		return Release{}, fmt.Errorf("%q: %w", s, ErrInvalidRelease)
	}

	v, err := goversion.NewVersion(strings.Replace(name, "-", ".", 1))
	if err != nil {
		return Release{}, fmt.Errorf("%q: %w", s, ErrInvalidRelease)
	}

	return Release{name: name, version: v}, nil
}

// String returns the "YYYY-Q" form.
func (r Release) String() string {
	return r.name
}

// IsZero reports whether r was never set.
func (r Release) IsZero() bool {
	return r.version == nil
}

// Compare returns -1, 0 or 1 when r is older than, equal to or newer than other.
func (r Release) Compare(other Release) int {
	switch {
	case r.version == nil && other.version == nil:
		return 0
	case r.version == nil:
		return -1
	case other.version == nil:
		return 1
	default:
		return r.version.Compare(other.version)
	}
}

// LatestRelease picks the newest valid release among labels.
// Labels that are not releases are ignored; ok is false when none remain.
func LatestRelease(labels []string) (Release, bool) {
	releases := make([]Release, 0, len(labels))

	for _, label := range labels {
		r, err := ParseRelease(label)
		if err != nil {
			continue
		}

		releases = append(releases, r)
	}

	if len(releases) == 0 {
		return Release{}, false
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Compare(releases[j]) > 0
	})

	return releases[0], true
}
