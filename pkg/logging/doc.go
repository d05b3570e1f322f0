// Package logging provides structured logging configuration for specmock.
//
// This package wraps log/slog to provide consistent logging across all
// components. It supports configurable log levels and output formats.
//
// # Usage
//
// Create a logger with desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "port", 4010)
//	logger.Error("failed to load spec", "error", err)
//
// # Request scope
//
// The engine attaches a logger carrying the request ID, method and path to
// every request context. Code running on behalf of a request should log
// through FromContext:
//
//	logging.FromContext(ctx).Debug("generated body", "bytes", n)
//
// # Integration
//
// Components should accept a *slog.Logger in their constructor or via an
// option. If no logger is provided, use logging.Nop() for a no-op logger.
package logging
