// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Lifecycle diagnostics deserve a note: the window manager treats
// invariant violations caused by racing lifecycle events (a pause
// requested when nothing is resumed, a stale timeout firing) as
// recoverable. Those paths log through Logger.Diag, which tags the
// entry so dashboards can separate expected races from real errors.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Diag("pause requested with nothing resumed", zap.Int("task", 7))
package logging
