// Package logging builds the process logger. Every handler it returns
// redacts personally identifying fields.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/config"
)

// New returns a logger writing to w as configured.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	fields := append(append([]string{}, PIIFields...), cfg.Redact...)
	return slog.New(NewRedactingHandler(h, fields))
}

// ParseLevel maps a level name onto slog; unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
