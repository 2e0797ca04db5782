// Package logger provides structured logging helpers built on the
// standard slog package.
//
// Attribute helpers use the empty Attr pattern for nil safety, so calls
// like log.Error("msg", logger.Error(err)) need no explicit nil checks.
package logger
