package flowpipe

// Pipe owns the shared rendezvous state between one Sink and one Source
// (spec component C3, exposed as C6 here). Both endpoints exist from the
// moment NewPipe returns and are independently closable; the state is
// retained as long as either endpoint is reachable.
type Pipe struct {
	state  *pipeState
	sink   *PipeSink
	source *PipeSource
}

// NewPipe creates a pipe whose internal buffer holds at most capacity
// bytes before a writer blocks. Non-positive capacities are clamped to 1,
// since spec §3 requires capacity to be a positive integer and a pipe
// with no room to buffer anything is still useful as a hand-off point.
func NewPipe(capacity int, opts ...Option) *Pipe {
	if capacity <= 0 {
		capacity = 1
	}

	cfg := newOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	state := newPipeState(capacity, cfg.logger)

	sinkDeadline := NewDeadline()
	if cfg.hasSinkDeadline {
		sinkDeadline.SetDeadline(cfg.sinkDeadline)
	}
	sourceDeadline := NewDeadline()
	if cfg.hasSourceDeadline {
		sourceDeadline.SetDeadline(cfg.sourceDeadline)
	}

	return &Pipe{
		state:  state,
		sink:   newPipeSink(state, sinkDeadline),
		source: newPipeSource(state, sourceDeadline),
	}
}

// Sink returns the pipe's write endpoint.
func (p *Pipe) Sink() *PipeSink { return p.sink }

// Source returns the pipe's read endpoint.
func (p *Pipe) Source() *PipeSource { return p.source }

// Fold permanently diverts the pipe's future and already-buffered bytes
// into dst, turning the pipe from a buffering intermediary into a direct
// conduit (spec §4.4). It is only legal while the internal buffer is
// empty, the sink is open, the source is open, and no fold is already in
// place; any violation fails with ErrIllegalState and changes nothing.
//
// After Fold succeeds, PipeSink.Write forwards to dst outside the pipe's
// monitor (so dst's own blocking cannot stall unrelated state
// transitions), PipeSink.Flush flushes dst, and PipeSink.Close closes dst.
func (p *Pipe) Fold(dst Sink) error {
	state := p.state
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.foldedSink != nil || state.sinkClosed || state.sourceClosed || state.buf.size() > 0 {
		return ErrIllegalState
	}

	state.foldedSink = dst
	state.signalLocked()
	state.debug("fold established")
	return nil
}
