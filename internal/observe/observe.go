package observe

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("genie")

// Observer handles logging and tracing
type Observer struct {
	log    *bolt.Logger
	closer io.Closer
}

func withLevel(l *bolt.Logger, verbose bool) *bolt.Logger {
	if !verbose {
		l.SetLevel(bolt.WARN)
	}
	return l
}

// New creates a new Observer with console output.
// If verbose is false, only warnings and errors are shown.
func New(out io.Writer, verbose bool) *Observer {
	return &Observer{log: withLevel(bolt.New(bolt.NewConsoleHandler(out)), verbose)}
}

// NewJSON creates a new Observer with JSON output.
// If verbose is false, only warnings and errors are shown.
func NewJSON(out io.Writer, verbose bool) *Observer {
	return &Observer{log: withLevel(bolt.New(bolt.NewJSONHandler(out)), verbose)}
}

// NewFile appends JSON logs to path. Used while the TUI owns the terminal.
func NewFile(path string, verbose bool) (*Observer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &Observer{log: withLevel(bolt.New(bolt.NewJSONHandler(f)), verbose), closer: f}, nil
}

// Discard returns an Observer that drops everything.
func Discard() *Observer {
	return New(io.Discard, false)
}

// Log returns the underlying logger
func (o *Observer) Log() *bolt.Logger {
	return o.log
}

// StartSpan starts a new OTel span
func (o *Observer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// Close flushes and releases the log file, if any.
func (o *Observer) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}
