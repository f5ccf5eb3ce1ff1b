// Package logging provides structured logging for the recuair CLI.
//
// This package wraps zap logger with convenience functions. A CLI must
// stay silent unless asked, so logging is disabled by default and all
// log output goes to stderr, never mixing with command results on
// stdout.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (requests, retries, form data)
//   - Info: Normal operations (discovery results, command outcomes)
//   - Warn: Non-fatal issues (retries, slow devices)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Debug("resolved device from registry",
//	    zap.String("device", "bedroom"),
//	    zap.String("address", "192.168.1.44"),
//	)
//
// Device traffic has dedicated helpers (LogRequest, LogResponse,
// LogRetry) so request logs stay uniform across read and write paths;
// LogResponse annotates each status code with the firmware's meaning
// for it.
//
// # Configuration
//
// Initialize logging at command startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Verbosity is controlled by the RECUAIR_LOG_LEVEL environment variable
// or the --debug flag. When neither is set, nothing is logged.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
