// Package config loads, validates and saves the YAML settings of the
// installer binaries: build server URLs, download and install locations and
// request timeouts.
package config
