// Package install reads and writes the files that describe a local suite
// installation: the version.txt marker shipped with every build and the
// install record written after a successful run.
package install
