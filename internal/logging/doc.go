// Package logging provides structured logging for the SensDot node agent.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the agent. It provides both general logging functions
// and specialized functions for the connect/publish cycle.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (payload bodies, link polling, command parsing)
//   - Info: Normal operations (mode choice, connections, publishes, sleep scheduling)
//   - Warn: Non-fatal issues (failed attempts, clamped config fields, sensor dropouts)
//   - Error: Fatal issues (startup failures, persist errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Station connected",
//	    zap.String("ssid", "home-net"),
//	    zap.String("ip", "192.168.1.40"),
//	    zap.Duration("elapsed", elapsed),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogAttempt("wifi_connect", attempt, maxAttempts, err)
//	logging.LogPublish(topic, len(payload), qos, retained)
//	logging.LogCommand(topic, "restart")
//	logging.LogPayload("Data payload", topic, payload)
//
// # Configuration
//
// Initialize logging at agent startup:
//
//	if err := logging.InitializeWithFile("info", "/var/log/sensdot/agent.log"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The file sink rotates at 1 MB with three backups kept, so logs cannot
// exhaust the flash partition on long deployments. Console output is always
// enabled alongside the file.
//
// When no level is passed and SENSDOT_LOG_LEVEL is unset, the logger is a
// no-op. This keeps one-shot CLI commands (config show, validate) silent
// unless the operator asks for output.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
