package flowpipe

import (
	"log/slog"

	"github.com/sasha-s/go-deadlock"
)

// pipeState is the rendezvous object shared by exactly one Sink and one
// Source (spec component C3). All of its fields are read and written only
// while mu is held. A single wake channel stands in for spec's "single
// condition": every mutation that could unblock a waiter closes it and
// installs a fresh one (signalLocked), and every wait site re-reads the
// current channel under the lock immediately before releasing it, so no
// wakeup can be missed between deciding to wait and starting to wait.
type pipeState struct {
	// mu is a deadlock-detecting mutex (github.com/sasha-s/go-deadlock),
	// a drop-in sync.Mutex used the same way the teacher-sibling
	// distributed system in this corpus guards its own condvar-backed
	// rendezvous objects: any accidental re-entrant lock or lock-order
	// cycle panics with a goroutine dump instead of hanging forever.
	mu deadlock.Mutex

	capacity int
	buf      *ringBuffer

	sinkClosed   bool
	sourceClosed bool

	// endOfStreamErr is what Read returns once sinkClosed is true and the
	// buffer has drained; nil means plain io.EOF. Set by
	// Sink.CloseWithError, mirroring io.PipeWriter.CloseWithError.
	endOfStreamErr error

	// sourceClosedErr is what Write/Flush/Close return once sourceClosed
	// is true; nil means ErrSourceClosed. Set by Source.CloseWithError,
	// mirroring io.PipeReader.CloseWithError.
	sourceClosedErr error

	foldedSink Sink

	notify chan struct{}

	writerWaiting bool
	readerWaiting bool

	logger *slog.Logger
}

func newPipeState(capacity int, logger *slog.Logger) *pipeState {
	return &pipeState{
		capacity: capacity,
		buf:      newRingBuffer(capacity),
		notify:   make(chan struct{}),
		logger:   logger,
	}
}

// signalLocked wakes every current waiter. Must be called with mu held.
func (s *pipeState) signalLocked() {
	close(s.notify)
	s.notify = make(chan struct{})
}

// enterWriterWaitLocked marks a goroutine as the pipe's one permitted
// blocked writer (invariant 6: single producer). Must be called with mu
// held; the caller must call exitWriterWaitLocked before returning.
func (s *pipeState) enterWriterWaitLocked() {
	if s.writerWaiting {
		panic("flowpipe: concurrent writers blocked on the same sink")
	}
	s.writerWaiting = true
}

func (s *pipeState) exitWriterWaitLocked() {
	s.writerWaiting = false
}

func (s *pipeState) enterReaderWaitLocked() {
	if s.readerWaiting {
		panic("flowpipe: concurrent readers blocked on the same source")
	}
	s.readerWaiting = true
}

func (s *pipeState) exitReaderWaitLocked() {
	s.readerWaiting = false
}

func (s *pipeState) debug(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, args...)
}
