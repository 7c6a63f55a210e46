// Package suite contains the identifiers of the build server: build and
// bundle types, platforms, quarterly releases, numbered builds and the
// installers located for them.
//
// FormatBuildID turns a build page name into the form recorded in the
// version.txt marker of a local installation.
package suite
