// Package installer implements the bundle-installer command: it finds the
// newest installer for a bundle on the build-download server, downloads it and
// replaces the local installation when the installed build is outdated.
package installer
