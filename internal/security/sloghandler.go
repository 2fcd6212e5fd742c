package security

import (
	"context"
	"log/slog"
	"strings"
)

// sensitiveKeys name attributes whose values are secrets by position, not
// by shape: connector auth headers, provider keys, tokens. Their string
// values are blanked wholesale instead of pattern-scanned, so a key with
// an unrecognized format still never reaches the log output.
var sensitiveKeys = map[string]struct{}{
	"api_key":       {},
	"apikey":        {},
	"authorization": {},
	"header":        {},
	"headers":       {},
	"password":      {},
	"secret":        {},
	"token":         {},
}

// RedactingHandler is slog middleware: every string that reaches the
// wrapped handler, the message included, has first passed through the
// Redactor, and attributes under a sensitive key are blanked outright.
// Loggers for connectors and providers are built on it so command strings
// and headers cannot leak credentials wherever the log call originates.
type RedactingHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

var _ slog.Handler = (*RedactingHandler)(nil)

func NewRedactingHandler(inner slog.Handler, redactor *Redactor) *RedactingHandler {
	return &RedactingHandler{inner: inner, redactor: redactor}
}

// Enabled delegates to the wrapped handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle rebuilds the record with a redacted message and attributes before
// delegating.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.redactor.Redact(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a, false))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs redacts the attributes before folding them into the wrapped
// handler, so nothing pre-resolved can bypass Handle.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a, false)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

// redactAttr walks one attribute. blanked carries a sensitive-key decision
// down into groups, so every leaf under conn.headers is covered, not just
// the group value itself.
func (h *RedactingHandler) redactAttr(a slog.Attr, blanked bool) slog.Attr {
	// Resolve first so LogValuer, error, and fmt.Stringer values are in
	// their final representation before any string leaves the handler.
	a.Value = a.Value.Resolve()
	blanked = blanked || isSensitiveKey(a.Key)

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.redactString(a.Value.String(), blanked))
	case slog.KindGroup:
		members := a.Value.Group()
		redacted := make([]slog.Attr, len(members))
		for i, m := range members {
			redacted[i] = h.redactAttr(m, blanked)
		}
		a.Value = slog.GroupValue(redacted...)
	case slog.KindAny:
		// Post-Resolve leftovers (error values, maps) are stringified;
		// only rewrite the attribute when redaction changed something.
		s := a.Value.String()
		if redacted := h.redactString(s, blanked); redacted != s {
			a.Value = slog.StringValue(redacted)
		}
	}
	return a
}

func (h *RedactingHandler) redactString(s string, blanked bool) string {
	if blanked && s != "" {
		return RedactPlaceholder
	}
	return h.redactor.Redact(s)
}

// isSensitiveKey matches the key itself or an underscore-separated suffix,
// so "anthropic_api_key" and "proxy_authorization" are caught too.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for k := range sensitiveKeys {
		if key == k || strings.HasSuffix(key, "_"+k) {
			return true
		}
	}
	return false
}
