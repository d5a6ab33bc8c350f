// Package logging provides structured logging for xbrlgraph components.
// Every line is a zerolog event carrying the component and an event name.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds process-wide logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // console output for terminals
	Output io.Writer
}

var (
	baseMu sync.RWMutex
	base   = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Setup configures the writer and level shared by every Logger.
func Setup(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	baseMu.Lock()
	base = zerolog.New(out).Level(level).With().Timestamp().Logger()
	baseMu.Unlock()
}

// Logger emits structured events for one component.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger for a component.
func New(component string) *Logger {
	baseMu.RLock()
	zl := base.With().Str("component", component).Logger()
	baseMu.RUnlock()
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// FromZerolog wraps an existing zerolog logger.
func FromZerolog(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// With returns a logger carrying an extra field on every event.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithReport scopes the logger to one filer and report.
func (l *Logger) WithReport(cik, reportID string) *Logger {
	return &Logger{zl: l.zl.With().Str("cik", cik).Str("report_id", reportID).Logger()}
}

// WithRunID scopes the logger to one processing run.
func (l *Logger) WithRunID(runID string) *Logger {
	if runID == "" {
		return l
	}
	return &Logger{zl: l.zl.With().Str("run_id", runID).Logger()}
}

// Zerolog exposes the underlying logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

func (l *Logger) emit(e *zerolog.Event, event string, extra map[string]any, err error) {
	if extra != nil {
		e = e.Fields(extra)
	}
	if err != nil {
		e = e.Err(err)
	}
	e.Str("event", event).Send()
}

// Debug logs a debug event.
func (l *Logger) Debug(event string, extra map[string]any) {
	l.emit(l.zl.Debug(), event, extra, nil)
}

// Info logs an info event.
func (l *Logger) Info(event string, extra map[string]any) {
	l.emit(l.zl.Info(), event, extra, nil)
}

// Warn logs a warning event.
func (l *Logger) Warn(event string, extra map[string]any, err error) {
	l.emit(l.zl.Warn(), event, extra, err)
}

// Error logs an error event.
func (l *Logger) Error(event string, extra map[string]any, err error) {
	l.emit(l.zl.Error(), event, extra, err)
}

// TimedEvent logs an info event with the elapsed time since start.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]any) {
	e := l.zl.Info().Int64("duration_ms", time.Since(start).Milliseconds())
	l.emit(e, event, extra, nil)
}
