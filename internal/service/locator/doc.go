// Package locator scrapes the build-download web server for installers.
//
// A release page lists its builds; each build page groups installer links
// under "<Bundle> Installers" headings. Locate visits the builds newest first
// and stops at the first one carrying an installer for the requested bundle
// and platform, or returns ErrNoInstaller once every build has been visited.
package locator
