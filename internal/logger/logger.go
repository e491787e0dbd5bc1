package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the component-scoped logging contract used across the enhancer.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// ParseLevel maps a textual level to a zerolog level. Unknown values fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LevelFromEnv reads ENHANCER_LOG_LEVEL, honouring DEBUG=1 when it is unset.
func LevelFromEnv() zerolog.Level {
	if v := os.Getenv("ENHANCER_LOG_LEVEL"); v != "" {
		return ParseLevel(v)
	}
	if os.Getenv("DEBUG") == "1" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewZerolog(io.Discard, zerolog.Disabled)
}
