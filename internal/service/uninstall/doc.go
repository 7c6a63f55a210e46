// Package uninstall removes an outdated suite installation before a new one
// is put in place.
package uninstall
