// Package hosts installs a generated schrodinger.hosts file into a fresh
// installation.
package hosts
