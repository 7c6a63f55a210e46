// Package extract unpacks downloaded installer bundles.
//
// Windows bundles are zip archives and Linux bundles are tar archives; both
// wrap their content in a directory named after the bundle, which is lifted
// into the destination. macOS bundles are disk images holding a pkg that is
// expanded with xar.
package extract
