package locator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
)

// buildLabelSubstring marks build entries on a release listing page.
const buildLabelSubstring = "build"

// knimeKeyword marks the KNIME flavour of macOS installers.
const knimeKeyword = "KNIME"

var (
	// ErrNoInstaller is returned when no build of the release carries a matching installer.
	ErrNoInstaller = errors.New("no matching installer found for this release")
	// ErrNoRelease is returned when the index page lists no release.
	ErrNoRelease = errors.New("no release found on the build server")
	// ErrBadHTTPStatus is returned for non-2xx responses.
	ErrBadHTTPStatus = errors.New("unexpected http status")
)

// Locator finds installers on the build-download web server.
type Locator struct {
	// base is the root URL of the build server.
	base *url.URL
	// client performs page requests.
	client *http.Client
}

// New returns a Locator for the server at baseURL.
// A nil client means http.DefaultClient.
func New(baseURL string, client *http.Client) (*Locator, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &Locator{
		base:   base,
		client: client,
	}, nil
}

// URL joins segments onto the base URL.
func (l *Locator) URL(segments ...string) string {
	u := *l.base
	u.Path = path.Join(append([]string{"/", u.Path}, segments...)...)

	return u.String()
}

// LatestRelease returns the newest release listed for buildType.
func (l *Locator) LatestRelease(ctx context.Context, buildType suite.BuildType) (suite.Release, error) {
	pageURL := l.URL(string(buildType))

	doc, err := l.fetch(ctx, pageURL)
	if err != nil {
		return suite.Release{}, err
	}

	release, ok := suite.LatestRelease(entryLabels(doc))
	if !ok {
		return suite.Release{}, fmt.Errorf("%s: %w", pageURL, ErrNoRelease)
	}

	logger.InfoKV(ctx, "Resolved latest release from the build server", "release", release.String())

	return release, nil
}

// Builds returns the builds of a release, newest first.
func (l *Locator) Builds(ctx context.Context, buildType suite.BuildType, release suite.Release) ([]suite.BuildID, error) {
	doc, err := l.fetch(ctx, l.URL(string(buildType), release.String()))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	var builds []suite.BuildID

	for _, label := range entryLabels(doc) {
		if !strings.Contains(label, buildLabelSubstring) {
			continue
		}

		build, err := suite.ParseBuildID(label)
		if err != nil {
			logger.DebugKV(ctx, "Skipping listing entry", "label", label)
			continue
		}

		if _, dup := seen[build.String()]; dup {
			continue
		}

		seen[build.String()] = struct{}{}
		builds = append(builds, build)
	}

	suite.SortBuildsDescending(builds)

	return builds, nil
}

// Locate returns the installer of the newest build matching q.
// It returns ErrNoInstaller when every candidate build has been visited
// without a match, including when the release lists no builds at all.
func (l *Locator) Locate(ctx context.Context, q suite.Query) (suite.Bundle, error) {
	candidates := []suite.BuildID{q.Build}

	if q.Build.IsZero() {
		var err error

		candidates, err = l.Builds(ctx, q.BuildType, q.Release)
		if err != nil {
			return suite.Bundle{}, err
		}
	}

	logger.Infof(ctx, "Finding the latest available %s build for %s", q.Bundle, q.Platform)

	for _, build := range candidates {
		bundle, found, err := l.FindInBuild(ctx, q, build)
		if err != nil {
			return suite.Bundle{}, err
		}

		if found {
			logger.Infof(ctx, "Latest %s build for %s is %s", q.Bundle, q.Platform, build)
			return bundle, nil
		}
	}

	return suite.Bundle{}, fmt.Errorf("%s %s %s for %s: %w",
		q.BuildType, q.Release, q.Bundle, q.Platform, ErrNoInstaller)
}

// FindInBuild looks for the installer of q on the page of build.
// found is false when the page has no section or link for it.
func (l *Locator) FindInBuild(ctx context.Context, q suite.Query, build suite.BuildID) (suite.Bundle, bool, error) {
	pageURL := l.URL(string(q.BuildType), q.Release.String(), build.String())

	doc, err := l.fetch(ctx, pageURL)
	if err != nil {
		return suite.Bundle{}, false, err
	}

	heading := findHeading(doc, q.Bundle.Header())
	if heading == nil {
		logger.Infof(ctx, "No %s installers found for %s, moving to next build", q.Bundle, pageURL)
		return suite.Bundle{}, false, nil
	}

	section := nextElementSibling(heading)
	if section == nil {
		logger.Infof(ctx, "Empty %s section on %s, moving to next build", q.Bundle, pageURL)
		return suite.Bundle{}, false, nil
	}

	link := selectInstaller(anchors(section), q)
	if link == nil {
		logger.Infof(ctx, "No %s %s installer found for %s, moving to next build", q.Platform, q.Bundle, pageURL)
		return suite.Bundle{}, false, nil
	}

	fileName := hrefFileName(attr(link, "href"))
	if fileName == "" {
		logger.WarnKV(ctx, "Installer link without a file name", "page", pageURL)
		return suite.Bundle{}, false, nil
	}

	return suite.Bundle{
		Release:   q.Release,
		BuildType: q.BuildType,
		Build:     build,
		Type:      q.Bundle,
		Platform:  q.Platform,
		FileName:  fileName,
		URL:       l.URL(string(q.BuildType), q.Release.String(), build.String(), fileName),
	}, true, nil
}

// hrefFileName returns the decoded last path segment of href without its
// query or fragment, or "" when there is none.
func hrefFileName(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	name := path.Base(strings.TrimRight(u.Path, "/"))
	switch name {
	case ".", "..", "/", "":
		return ""
	}

	return name
}

// selectInstaller filters links by the platform keyword and picks the one
// for q. On macOS the KNIME and plain flavours are told apart by their text.
func selectInstaller(links []*html.Node, q suite.Query) *html.Node {
	keyword := q.Platform.Keyword(q.Bundle)

	var matching []*html.Node

	for _, link := range links {
		if strings.Contains(textOf(link), keyword) {
			matching = append(matching, link)
		}
	}

	// DESRES links are matched by bundle; prefer the ones naming this platform.
	if keyword != string(q.Platform) {
		var onPlatform []*html.Node

		for _, link := range matching {
			if strings.Contains(textOf(link), string(q.Platform)) {
				onPlatform = append(onPlatform, link)
			}
		}

		if len(onPlatform) > 0 {
			matching = onPlatform
		}
	}

	if q.Platform != suite.MacOSX {
		if len(matching) == 0 {
			return nil
		}

		return matching[0]
	}

	for _, link := range matching {
		if strings.Contains(textOf(link), knimeKeyword) == q.KNIME {
			return link
		}
	}

	return nil
}

// fetch downloads and parses an HTML page.
func (l *Locator) fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Fetching page", "url", pageURL)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s, %s: %w", pageURL, resp.Status, ErrBadHTTPStatus)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, nil
}
