package security

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a structured logger whose output passes through the
// redactor. Format is "text" or "json" (text by default); level is one of
// debug, info, warn, error (info by default).
func NewLogger(w io.Writer, level, format string, redactor *Redactor) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var inner slog.Handler
	if strings.EqualFold(format, "json") {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	if redactor == nil {
		redactor = NewRedactor()
	}
	return slog.New(NewRedactingHandler(inner, redactor))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
