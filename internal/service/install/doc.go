// Package install runs the silent suite installer shipped in a bundle.
package install
