// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default so the CLI can keep stdout for command output.
// Every subsystem receives a named child logger (locator, scoring, session,
// storage, cart, http) through Component.
//
// Example Usage:
//
//	logger := logging.NewOrNop(logging.DefaultConfig())
//	locator := backend.NewLocator(client, candidates, backend.WithLogger(logger.Component("locator")))
//	logger.Info("Bridge starting", zap.String("addr", addr))
package logging
