package suite

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// buildPrefix starts every build page name on the build server.
const buildPrefix = "build-"

// buildIDPattern accepts "build-012", "Build 12" and "012".
var buildIDPattern = regexp.MustCompile(`^(?i:build[- ])?(\d{1,4})$`)

// ErrInvalidBuildID is returned when a value cannot be read as a build identifier.
var ErrInvalidBuildID = errors.New("invalid build id")

// BuildID is a numbered build of a release, e.g. "build-012".
type BuildID struct {
	raw    string
	number int
}

// ParseBuildID reads a build identifier in machine ("build-012"),
// human ("Build 12") or bare ("012") form.
func ParseBuildID(s string) (BuildID, error) {
	trimmed := strings.TrimSpace(s)

	m := buildIDPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return BuildID{}, fmt.Errorf("%q: %w", s, ErrInvalidBuildID)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return BuildID{}, fmt.Errorf("%q: %w", s, ErrInvalidBuildID)
	}

	raw := trimmed
	if !strings.HasPrefix(strings.ToLower(trimmed), buildPrefix) {
		raw = fmt.Sprintf("%s%03d", buildPrefix, n)
	}

	return BuildID{raw: strings.ToLower(raw), number: n}, nil
}

// String returns the page name of the build, e.g. "build-012".
func (b BuildID) String() string {
	return b.raw
}

// Number returns the numeric part of the identifier.
func (b BuildID) Number() int {
	return b.number
}

// IsZero reports whether b was never set.
func (b BuildID) IsZero() bool {
	return b.raw == ""
}

// Formatted returns the form written into the version marker, e.g. "Build 12".
func (b BuildID) Formatted() string {
	return "Build " + strconv.Itoa(b.number)
}

// FormatBuildID converts a build identifier to the form found in version.txt:
// "build-012" becomes "Build 12". Leading zeros are dropped, so formatting an
// already formatted value returns it unchanged. Values that are not build
// identifiers are returned with only the first letter capitalised and dashes
// replaced by spaces.
func FormatBuildID(id string) string {
	b, err := ParseBuildID(id)
	if err == nil {
		return b.Formatted()
	}

	s := strings.ReplaceAll(strings.TrimSpace(id), "-", " ")
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
