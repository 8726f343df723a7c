package flowpipe

import (
	"context"
	"io"
	"sync/atomic"
)

// Source is the narrow contract satisfied by a pipe's read endpoint.
type Source interface {
	Read(ctx context.Context, b []byte) (int, error)
	Close() error
}

// PipeSource is the read endpoint of a Pipe (spec component C5).
type PipeSource struct {
	state    *pipeState
	deadline *Deadline
	closed   atomic.Bool
}

func newPipeSource(state *pipeState, deadline *Deadline) *PipeSource {
	return &PipeSource{state: state, deadline: deadline}
}

// Deadline returns this source's own deadline, consulted only while Read
// is blocked on an empty buffer.
func (r *PipeSource) Deadline() *Deadline { return r.deadline }

// Read transfers up to len(b) bytes out of the pipe, blocking while the
// buffer is empty and the sink is still open. It returns io.EOF (or the
// error given to Sink.CloseWithError) once the sink has closed and the
// buffer has drained. A zero-length b returns (0, nil) at once; for a
// non-empty b it never returns (0, nil).
func (r *PipeSource) Read(ctx context.Context, b []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	if len(b) == 0 {
		return 0, nil
	}

	state := r.state

	for {
		if r.closed.Load() {
			return 0, ErrClosed
		}

		state.mu.Lock()

		if state.buf.size() > 0 {
			n := state.buf.read(b)
			state.signalLocked()
			state.mu.Unlock()
			return n, nil
		}

		if state.sinkClosed {
			err := state.endOfStreamErr
			state.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}

		// enterReaderWaitLocked panics if a second reader is already
		// waiting; run it under a defer so that panic still releases the
		// lock as the stack unwinds, instead of leaving the pipe
		// permanently locked out from under the recovering caller.
		wake := func() <-chan struct{} {
			defer state.mu.Unlock()
			state.enterReaderWaitLocked()
			return state.notify
		}()

		disp := r.deadline.await(ctx, wake)

		state.mu.Lock()
		state.exitReaderWaitLocked()
		state.mu.Unlock()

		switch disp {
		case dispositionElapsed:
			state.debug("read deadline exceeded")
			return 0, &TimeoutError{Op: "read"}
		case dispositionInterrupted:
			state.debug("read interrupted")
			return 0, &InterruptedError{Op: "read", Err: ctx.Err()}
		}
	}
}

// ReadBytes adapts Read to the plain io.Reader shape used by io.Copy and
// similar helpers, threading context.Background() through.
func (r *PipeSource) ReadBytes(b []byte) (int, error) {
	return r.Read(context.Background(), b)
}

// WriteTo implements io.WriterTo by reading from the pipe and writing to w
// until end-of-stream, mirroring the teacher's io.Pipe-style plumbing.
func (r *PipeSource) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, rErr := r.ReadBytes(buf)
		if n > 0 {
			wn, wErr := w.Write(buf[:n])
			total += int64(wn)
			if wErr != nil {
				return total, wErr
			}
			if wn != n {
				return total, io.ErrShortWrite
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

// Close closes the source, discarding any buffered, unread bytes. Per
// spec §4.3 this is deliberate: the sink, woken by the signal, observes
// sourceClosed and fails rather than having its unread bytes silently
// dropped later. Idempotent.
func (r *PipeSource) Close() error {
	return r.closeWithError(nil)
}

// CloseWithError closes the source and arranges for err (or ErrSourceClosed
// if err is nil) to be returned by the sink's next Write/Flush/Close,
// mirroring io.PipeReader.CloseWithError.
func (r *PipeSource) CloseWithError(err error) error {
	return r.closeWithError(err)
}

func (r *PipeSource) closeWithError(err error) error {
	state := r.state
	state.mu.Lock()

	wasClosed := state.sourceClosed
	state.sourceClosed = true
	if !wasClosed {
		state.sourceClosedErr = err
	}
	discarded := state.buf.size()
	state.buf.clear()

	// Set before the monitor is released, for the same reason as
	// PipeSink.Close: a reader already blocked in await only needs the
	// lock back to resume, not this flag, so setting it after unlocking
	// would leave a window where a self-closed reader's own blocked Read
	// loops back into another wait instead of observing its own closure.
	r.closed.Store(true)

	state.signalLocked()
	state.debug("source closed", "bytes_discarded", discarded)
	state.mu.Unlock()

	return nil
}
