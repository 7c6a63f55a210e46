// Package logger wraps a zap sugared logger for the installer binaries.
//
// A global console logger is created at start-up. Commands scope it with
// WithName and WithKV and pass it down through the context; every helper
// (Info, InfoKV, Warnf, ErrorKV, ...) takes the context as its first argument.
package logger
