// Package flowpipe implements an in-memory, bounded, single-producer/
// single-consumer byte pipe with blocking flow control and deadline-based
// cancellation.
//
// A Pipe connects a Sink (the write endpoint) to a Source (the read
// endpoint) through a fixed-capacity ring buffer. Writers block while the
// buffer is full; readers block while it is empty. Each endpoint carries
// its own Deadline, consulted only while that endpoint is blocked. Closing
// either endpoint unblocks the other in a well-defined way: a blocked
// writer sees ErrSourceClosed once the source goes away, and a blocked
// reader sees io.EOF once the sink closes and the buffer drains.
//
// A pipe can be folded onto a downstream Sink with Pipe.Fold, which
// diverts the sink's future writes directly to that destination, turning
// the pipe from a buffering intermediary into a direct forwarding
// conduit without copying through the internal buffer.
package flowpipe
