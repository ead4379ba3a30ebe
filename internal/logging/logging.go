// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger used by the CLI and forwards
// merge diagnostics to it.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/bibmerge/internal/merge"
	"github.com/pdiddy/bibmerge/pkg/types"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	// DefaultLevel only lets warnings through, so dubious matches are
	// visible without any flag.
	DefaultLevel = "warn"
)

// New creates a logger writing to w according to cfg. Unknown levels fall
// back to DefaultLevel; unknown formats fall back to console.
func New(cfg types.LogConfig, w io.Writer) zerolog.Logger {
	var out io.Writer = w
	if !strings.EqualFold(cfg.Format, FormatJSON) {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    true,
		}
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("logger", "bibmerge").
		Logger()
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "verbose":
		return zerolog.InfoLevel
	case "warn", "warning", "":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "none", "off":
		return zerolog.Disabled
	default:
		if l, err := zerolog.ParseLevel(level); err == nil {
			return l
		}
		return zerolog.WarnLevel
	}
}

// LevelFromFlags returns the level selected by the debug and verbose flags.
// debug takes precedence; with neither, configured is kept.
func LevelFromFlags(debug, verbose bool, configured string) string {
	switch {
	case debug:
		return "debug"
	case verbose:
		return "info"
	case configured != "":
		return configured
	default:
		return DefaultLevel
	}
}

// Sink forwards merge events to a zerolog logger at the event's level.
type Sink struct {
	Logger zerolog.Logger
}

// NewSink returns a Sink writing to logger.
func NewSink(logger zerolog.Logger) *Sink {
	return &Sink{Logger: logger}
}

// Emit implements merge.Sink.
func (s *Sink) Emit(e merge.Event) {
	var ev *zerolog.Event
	switch e.Level {
	case merge.LevelWarn:
		ev = s.Logger.Warn()
	case merge.LevelInfo:
		ev = s.Logger.Info()
	default:
		ev = s.Logger.Debug()
	}
	ev = ev.Str("kind", string(e.Kind)).Str("key", e.Key)
	if e.Primary != "" && e.Primary != e.Key {
		ev = ev.Str("primary", e.Primary)
	}
	if e.Rule != "" {
		ev = ev.Str("rule", string(e.Rule))
	}
	if e.Field != "" {
		ev = ev.Str("field", e.Field)
	}
	if e.Source != "" {
		ev = ev.Str("source", e.Source)
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	ev.Msg(msg)
}

var _ merge.Sink = (*Sink)(nil)
