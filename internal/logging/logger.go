package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

// activeLevel gates every core so the level can be raised after the
// device configuration is loaded (debug_mode)
var activeLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "SENSDOT_LOG_LEVEL"

// Log file rotation bounds. The node keeps logs on flash, so the total
// footprint must stay small: one active file plus three rotated backups.
const (
	logFileMaxSizeMB = 1
	logFileBackups   = 3
	logFileMaxAgeDay = 28
)

// Initialize creates a new logger with the specified level.
// If level is empty, it checks SENSDOT_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	return InitializeWithFile(level, "")
}

// InitializeWithFile creates a logger that writes to the console and,
// when logPath is non-empty, to a size-rotated file at logPath.
// Level resolution follows the same rules as Initialize.
func InitializeWithFile(level, logPath string) error {
	// If no level provided, check environment variable
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	// If still no level, use silent mode (nop logger)
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	activeLevel.SetLevel(parseLevel(level))

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		activeLevel,
	)

	if logPath == "" {
		logger = zap.New(consoleCore, zap.AddCaller())
		return nil
	}

	// File sink uses a plain (non-colored) encoder and lumberjack rotation
	// so a chatty debug run cannot fill the flash partition.
	fileEncoderConfig := zap.NewDevelopmentEncoderConfig()
	fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileBackups,
		MaxAge:     logFileMaxAgeDay,
	}

	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(fileEncoderConfig),
		zapcore.AddSync(rotator),
		activeLevel,
	)

	logger = zap.New(zapcore.NewTee(consoleCore, fileCore), zap.AddCaller())
	return nil
}

// EnableDebug raises the active level to debug for the rest of the
// run. Called when the loaded device configuration sets debug_mode.
func EnableDebug() {
	activeLevel.SetLevel(zapcore.DebugLevel)
}

// DebugEnabled reports whether debug-level logging is active
func DebugEnabled() bool {
	return activeLevel.Enabled(zapcore.DebugLevel)
}

// InitializeFromEnv initializes the logger from the SENSDOT_LOG_LEVEL
// environment variable. This is the recommended way to initialize logging
// for CLI commands that want silent mode by default.
func InitializeFromEnv() error {
	return Initialize("")
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		return zapcore.InfoLevel
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		// This ensures no unexpected log output in CLI commands
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogAttempt logs one try of a bounded-retry operation
func LogAttempt(label string, attempt, maxAttempts int, err error) {
	if err == nil {
		Info("Attempt succeeded",
			zap.String("operation", label),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
		)
		return
	}
	Warn("Attempt failed",
		zap.String("operation", label),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", maxAttempts),
		zap.Error(err),
	)
}

// LogPublish logs an outbound MQTT publish
func LogPublish(topic string, size int, qos byte, retained bool) {
	Info("Published message",
		zap.String("topic", topic),
		zap.Int("bytes", size),
		zap.Uint8("qos", qos),
		zap.Bool("retained", retained),
	)
}

// LogCommand logs an inbound command received over MQTT
func LogCommand(topic string, command string) {
	Info("Command received",
		zap.String("topic", topic),
		zap.String("command", command),
	)
}

// LogPayload logs a payload body at debug level (truncated for large bodies)
func LogPayload(label string, topic string, data []byte) {
	Debug(label,
		zap.String("topic", topic),
		zap.Int("length", len(data)),
		zap.String("content", truncatePayload(data)),
	)
}

func truncatePayload(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	// Limit to first 256 bytes for logging
	if len(data) > 256 {
		return string(data[:256]) + "..."
	}
	return string(data)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
