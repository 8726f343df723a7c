package flowpipe

import (
	"context"
	"io"
	"sync/atomic"
)

// Sink is the narrow contract a pipe's bytes can be diverted into, either
// the pipe's own write endpoint or a folded downstream destination (spec
// §4.4). It is exported so callers can pass any compatible type — not just
// *PipeSink — to Pipe.Fold.
type Sink interface {
	Write(ctx context.Context, b []byte) (int, error)
	Flush() error
	Close() error
}

// PipeSink is the write endpoint of a Pipe (spec component C4).
type PipeSink struct {
	state    *pipeState
	deadline *Deadline
	closed   atomic.Bool
}

func newPipeSink(state *pipeState, deadline *Deadline) *PipeSink {
	return &PipeSink{state: state, deadline: deadline}
}

// Deadline returns this sink's own deadline, consulted only while Write is
// blocked on a full buffer.
func (s *PipeSink) Deadline() *Deadline { return s.deadline }

// Write transfers exactly len(b) bytes into the pipe, blocking while the
// buffer is full. It returns as soon as the source closes, the sink's
// deadline elapses, ctx is cancelled, or all bytes have been accepted. A
// non-nil error is only returned alongside a short count; the prefix that
// was accepted before the failure remains readable, per spec §7.
func (s *PipeSink) Write(ctx context.Context, b []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	state := s.state

	state.mu.Lock()
	folded := state.foldedSink
	state.mu.Unlock()
	if folded != nil {
		return folded.Write(ctx, b)
	}

	var written int
	for len(b) > 0 {
		if s.closed.Load() {
			return written, ErrClosed
		}

		state.mu.Lock()

		if state.foldedSink != nil {
			dst := state.foldedSink
			state.mu.Unlock()
			n, err := dst.Write(ctx, b)
			written += n
			return written, err
		}

		if state.sourceClosed {
			err := state.sourceClosedErr
			state.mu.Unlock()
			if err == nil {
				err = ErrSourceClosed
			}
			return written, err
		}

		available := state.capacity - state.buf.size()
		if available == 0 {
			// enterWriterWaitLocked panics if a second writer is already
			// waiting; run it under a defer so that panic still releases
			// the lock as the stack unwinds, instead of leaving the pipe
			// permanently locked.
			wake := func() <-chan struct{} {
				defer state.mu.Unlock()
				state.enterWriterWaitLocked()
				return state.notify
			}()

			disp := s.deadline.await(ctx, wake)

			state.mu.Lock()
			state.exitWriterWaitLocked()
			state.mu.Unlock()

			switch disp {
			case dispositionElapsed:
				state.debug("write deadline exceeded", "written", written)
				return written, &TimeoutError{Op: "write"}
			case dispositionInterrupted:
				state.debug("write interrupted", "written", written)
				return written, &InterruptedError{Op: "write", Err: ctx.Err()}
			}
			continue
		}

		n := state.buf.write(b)
		b = b[n:]
		written += n
		state.signalLocked()
		state.mu.Unlock()
	}

	return written, nil
}

// WriteBytes adapts Write to the plain io.Writer shape used by io.Copy and
// similar helpers, threading context.Background() through.
func (s *PipeSink) WriteBytes(b []byte) (int, error) {
	return s.Write(context.Background(), b)
}

// ReadFrom implements io.ReaderFrom by copying from r into the pipe until
// EOF, mirroring the teacher's io.Pipe-style plumbing.
func (s *PipeSink) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, rErr := r.Read(buf)
		if n > 0 {
			wn, wErr := s.WriteBytes(buf[:n])
			total += int64(wn)
			if wErr != nil {
				return total, wErr
			}
		}
		if rErr != nil {
			if rErr == io.EOF {
				return total, nil
			}
			return total, rErr
		}
	}
}

// Flush ensures previously accepted bytes are observable by the reader.
// For an in-memory pipe bytes are observable as soon as Write returns, so
// Flush never blocks; it only surfaces the loss condition where the
// source has gone away while bytes remain unread.
func (s *PipeSink) Flush() error {
	if s.closed.Load() {
		return ErrClosed
	}

	state := s.state
	state.mu.Lock()
	folded := state.foldedSink
	sourceClosed := state.sourceClosed
	pending := state.buf.size() > 0
	sourceClosedErr := state.sourceClosedErr
	state.mu.Unlock()

	if folded != nil {
		return folded.Flush()
	}

	if sourceClosed && pending {
		if sourceClosedErr != nil {
			return sourceClosedErr
		}
		return ErrSourceClosed
	}
	return nil
}

// Close closes the sink. It is idempotent in the sense that repeated
// calls never change pipe state further, but — per spec §4.2 — each call
// re-evaluates whether bytes would be stranded: if the source has already
// closed while bytes remain buffered, Close fails with ErrSourceClosed
// every time it is called in that state, not just the first.
func (s *PipeSink) Close() error {
	state := s.state
	state.mu.Lock()

	state.sinkClosed = true
	var failure error
	if state.sourceClosed && state.buf.size() > 0 {
		failure = state.sourceClosedErr
		if failure == nil {
			failure = ErrSourceClosed
		}
	}
	// closed must be set before the monitor is released: a writer already
	// blocked in await wakes as soon as signalLocked below closes notify,
	// and only needs the lock back (not this flag) to resume — if closed
	// were set after unlocking, that writer could re-acquire the lock and
	// push more bytes into the buffer in the gap, even though Close has
	// already run to completion.
	s.closed.Store(true)

	state.signalLocked()
	state.debug("sink closed", "bytes_stranded", state.buf.size(), "source_closed", state.sourceClosed)
	folded := state.foldedSink
	state.mu.Unlock()

	if folded != nil {
		if cerr := folded.Close(); cerr != nil && failure == nil {
			failure = cerr
		}
	}
	return failure
}

// CloseWithError closes the sink and arranges for err (or io.EOF if err is
// nil) to be returned by the source's next Read once the buffer drains,
// mirroring io.PipeWriter.CloseWithError. Unlike Close, it never fails on
// account of stranded bytes: the caller is explicitly choosing what the
// reader sees instead.
func (s *PipeSink) CloseWithError(err error) error {
	state := s.state
	state.mu.Lock()

	wasClosed := state.sinkClosed
	state.sinkClosed = true
	if !wasClosed {
		state.endOfStreamErr = err
	}

	// See Close for why this must happen before the monitor is released.
	s.closed.Store(true)

	state.signalLocked()
	state.debug("sink closed with error", "err", err, "was_closed", wasClosed)
	folded := state.foldedSink
	state.mu.Unlock()

	if folded != nil {
		return folded.Close()
	}
	return nil
}
