// Package logger provides the structured logging surface used throughout
// this module. Callers always log through *slog.Logger; the concrete
// handler underneath is backed by zerolog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the process-wide logger New builds.
type Config struct {
	Level      string    // "trace", "debug", "info", "warn", "error"
	Writer     io.Writer // defaults to os.Stdout
	ConsoleFmt bool       // human-readable console output instead of JSON
}

// LevelTrace extends slog's level set with a trace level below Debug,
// matching this lineage's convention of a five-level hierarchy.
const LevelTrace = slog.Level(-8)

// New builds a *slog.Logger backed by a zerolog writer/level combination.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	if cfg.ConsoleFmt {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(cfg.Level))
	return slog.New(newZerologHandler(zl))
}

func toZerologLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// zerologHandler adapts slog.Handler to a zerolog.Logger sink, so the rest
// of the module never imports zerolog directly.
type zerologHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	group  string
}

func newZerologHandler(zl zerolog.Logger) *zerologHandler {
	return &zerologHandler{logger: zl}
}

func (h *zerologHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= toZerologLevelFromSlog(level)
}

func toZerologLevelFromSlog(level slog.Level) zerolog.Level {
	switch {
	case level <= LevelTrace:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (h *zerologHandler) Handle(_ context.Context, record slog.Record) error {
	ev := h.logger.WithLevel(toZerologLevelFromSlog(record.Level))
	for _, a := range h.attrs {
		ev = addAttr(ev, h.group, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, h.group, a)
		return true
	})
	ev.Msg(record.Message)
	return nil
}

func addAttr(ev *zerolog.Event, group string, a slog.Attr) *zerolog.Event {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if err, ok := a.Value.Any().(error); ok {
		return ev.Str(key, err.Error())
	}
	return ev.Interface(key, a.Value.Any())
}

func (h *zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &zerologHandler{logger: h.logger, group: h.group}
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return next
}

func (h *zerologHandler) WithGroup(name string) slog.Handler {
	next := &zerologHandler{logger: h.logger, attrs: h.attrs}
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return next
}
