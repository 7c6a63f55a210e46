// Package share finds the newest installable build on a mounted installer share.
package share
