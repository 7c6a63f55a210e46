// Package common holds helpers shared by several services.
//
// It detects the current system actor (hostname/username) recorded with every
// installation and terminates running suite processes before an uninstall.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
