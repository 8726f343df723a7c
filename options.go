package flowpipe

import (
	"log/slog"
	"time"
)

// Option configures a Pipe at construction time. The functional-options
// shape is grounded on this corpus's panyam-gocurrent package (ReaderOption,
// WithOutputBuffer, WithOnDone).
type Option func(*pipeOptions)

type pipeOptions struct {
	hasSinkDeadline   bool
	sinkDeadline      time.Time
	hasSourceDeadline bool
	sourceDeadline    time.Time
	logger            *slog.Logger
}

func newOptions() *pipeOptions {
	return &pipeOptions{}
}

// WithSinkDeadline sets the sink's initial deadline, equivalent to calling
// Pipe.Sink().Deadline().SetDeadline(t) before the first Write.
func WithSinkDeadline(t time.Time) Option {
	return func(o *pipeOptions) {
		o.hasSinkDeadline = true
		o.sinkDeadline = t
	}
}

// WithSourceDeadline sets the source's initial deadline, equivalent to
// calling Pipe.Source().Deadline().SetDeadline(t) before the first Read.
func WithSourceDeadline(t time.Time) Option {
	return func(o *pipeOptions) {
		o.hasSourceDeadline = true
		o.sourceDeadline = t
	}
}

// WithLogger attaches a structured logger; the pipe reports close,
// fold, and timeout/interruption transitions to it at slog.LevelDebug. A
// nil logger (the default) disables this reporting entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(o *pipeOptions) {
		o.logger = logger
	}
}
