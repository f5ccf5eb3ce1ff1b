package logging

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar controls verbosity when no level is given explicitly.
// Unset means silent. Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "RECUAIR_LOG_LEVEL"

// Initialize sets up the global logger at the given level, falling back
// to RECUAIR_LOG_LEVEL when the level is empty. With neither set the
// logger is a nop; a CLI must stay quiet unless asked.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	// Console encoder tuned for reading, not ingestion. Everything goes
	// to stderr so command output on stdout stays clean.
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv reads the level from RECUAIR_LOG_LEVEL. This is the
// normal entry point for commands: silent by default, verbose on demand.
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
		// An unrecognized value still asked for output; info is the
		// least surprising interpretation.
		return zapcore.InfoLevel
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Nothing initialized the logger; stay silent.
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

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// LogRequest logs an outgoing request to a unit
func LogRequest(device, method, target string, form url.Values) {
	fields := []zap.Field{
		zap.String("device", device),
		zap.String("method", method),
		zap.String("url", target),
	}
	if len(form) > 0 {
		fields = append(fields, zap.String("form", form.Encode()))
	}
	Debug("device request", fields...)
}

// LogResponse logs a unit's answer together with what the firmware
// means by that status code
func LogResponse(device string, statusCode int) {
	Debug("device response",
		zap.String("device", device),
		zap.Int("status_code", statusCode),
		zap.String("meaning", statusMeaning(statusCode)),
	)
}

// LogRetry logs the wait before the next attempt of an operation
func LogRetry(device, operation string, attempt int, delay time.Duration) {
	Debug("retry scheduled",
		zap.String("device", device),
		zap.String("operation", operation),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)
}

// statusMeaning translates a status code into the firmware's intent.
// The unit's HTTP usage is idiosyncratic: an accepted command answers
// with a redirect, while 200 on a POST means the command was refused.
func statusMeaning(statusCode int) string {
	switch statusCode {
	case 200:
		return "page served (after a POST: command refused)"
	case 303:
		return "command applied"
	case 301:
		return "command applied (firmware 12)"
	case 401:
		return "authentication required"
	case 503:
		return "unit busy"
	default:
		if statusCode >= 500 {
			return "unit error"
		}
		return "unexpected"
	}
}
