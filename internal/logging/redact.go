package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const (
	Redaction = "***"
	Separator = ";"
)

// PIIFields are redacted from every log record.
var PIIFields = []string{"name", "email", "password", "ssn", "phone"}

// datumFilter holds one compiled field=value<separator> pattern per field.
type datumFilter struct {
	patterns     []*regexp.Regexp
	replacements []string
}

func newDatumFilter(fields []string, redaction, separator string) *datumFilter {
	sep := regexp.QuoteMeta(separator)
	f := &datumFilter{}
	for _, field := range fields {
		f.patterns = append(f.patterns, regexp.MustCompile(regexp.QuoteMeta(field)+"=(.*?)"+sep))
		f.replacements = append(f.replacements, field+"="+redaction+separator)
	}
	return f
}

func (f *datumFilter) apply(message string) string {
	for i, re := range f.patterns {
		message = re.ReplaceAllLiteralString(message, f.replacements[i])
	}
	return message
}

// FilterDatum replaces the value of each field=value<separator> pair in
// message with redaction.
func FilterDatum(fields []string, redaction, message, separator string) string {
	return newDatumFilter(fields, redaction, separator).apply(message)
}

// RedactingHandler masks attribute values whose key is a PII field and
// filters field=value; pairs out of messages.
type RedactingHandler struct {
	next   slog.Handler
	filter *datumFilter
	keys   map[string]struct{}
}

func NewRedactingHandler(next slog.Handler, fields []string) *RedactingHandler {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		keys[strings.ToLower(f)] = struct{}{}
	}
	return &RedactingHandler{
		next:   next,
		filter: newDatumFilter(fields, Redaction, Separator),
		keys:   keys,
	}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.filter.apply(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redacted), filter: h.filter, keys: h.keys}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name), filter: h.filter, keys: h.keys}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redaction)
	}
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		attrs := make([]any, len(group))
		for i, ga := range group {
			attrs[i] = h.redact(ga)
		}
		return slog.Group(a.Key, attrs...)
	case slog.KindString:
		return slog.String(a.Key, h.filter.apply(v.String()))
	}
	return slog.Attr{Key: a.Key, Value: v}
}
