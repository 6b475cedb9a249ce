// Package logging builds the structured logger owned by one synchronization run.
// Every entry is written to the configured sink and kept in memory so the run
// summary can report what was logged.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type Options struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	Output io.Writer
}

// Entry is one collected log record.
type Entry struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Run couples a zap logger with the collector of its entries.
type Run struct {
	ID     string
	Logger *zap.Logger

	observed *observer.ObservedLogs
}

func NewRun(opts Options) (*Run, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	sink := opts.Output
	if sink == nil {
		sink = io.Discard
	}

	collector, observed := observer.New(zapcore.DebugLevel)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(sink), level),
		collector,
	)

	id := uuid.NewString()
	return &Run{
		ID:       id,
		Logger:   zap.New(core).With(zap.String("run_id", id)),
		observed: observed,
	}, nil
}

// Nop returns a run whose entries are collected but never written.
func Nop() *Run {
	run, _ := NewRun(Options{Output: io.Discard})
	return run
}

func (r *Run) Entries() []Entry {
	logged := r.observed.All()
	entries := make([]Entry, 0, len(logged))
	for _, item := range logged {
		fields := item.ContextMap()
		delete(fields, "run_id")
		if len(fields) == 0 {
			fields = nil
		}
		entries = append(entries, Entry{
			Level:   item.Level.String(),
			Message: item.Message,
			Fields:  fields,
		})
	}
	return entries
}

// Count returns how many entries were logged at level or above.
func (r *Run) Count(level zapcore.Level) int {
	n := 0
	for _, item := range r.observed.All() {
		if item.Level >= level {
			n++
		}
	}
	return n
}

func (r *Run) Sync() {
	_ = r.Logger.Sync()
}
