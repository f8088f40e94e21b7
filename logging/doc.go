// Package logging provides a minimal logging interface and adapters for qrscan.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the capture manager, album coordinator and session controller use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ScanLogger with component/session context and scanning helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	scanner := qrscan.New(func(o *qrscan.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
