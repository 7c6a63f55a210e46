// Package download streams installer bundles from the build server to disk.
package download
