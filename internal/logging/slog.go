// Package logging configures log/slog and provides attribute helpers so every
// component logs with the same keys.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Common log attribute keys.
const (
	KeyMethod   = "method"
	KeyAttempt  = "attempt"
	KeyStatus   = "status"
	KeyDelay    = "delay"
	KeyDuration = "duration"
	KeyError    = "error"
	KeyTool     = "tool"
	KeyID       = "id"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds a logger writing to w.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything, used when stdout carries a
// protocol stream and no log file was given.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// WithMethod returns a logger with the API method attribute set.
func WithMethod(logger *slog.Logger, method string) *slog.Logger {
	return logger.With(slog.String(KeyMethod, method))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

func Method(method string) slog.Attr { return slog.String(KeyMethod, method) }

func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

func Status(code int) slog.Attr { return slog.Int(KeyStatus, code) }

func Delay(d time.Duration) slog.Attr { return slog.Duration(KeyDelay, d) }

func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }

func ID(id string) slog.Attr { return slog.String(KeyID, id) }

// Err returns a slog attribute for an error. A nil err yields an empty group,
// which slog omits from output.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken masks a credential for logging, keeping only its length.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
