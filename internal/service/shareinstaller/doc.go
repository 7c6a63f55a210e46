// Package shareinstaller implements the share-installer command, which keeps a
// Windows workstation on the newest nightly build published on the installer
// share.
package shareinstaller
