// Package channel implements the duplex channel (C6): a pair of bounded
// FIFO message queues connecting the chain-watcher and prover-driver
// tasks.
package channel

import "errors"

// ErrClosed is returned by Recv when the channel has been closed and
// drained.
var ErrClosed = errors.New("channel: closed")

// Endpoint is one side of a duplex channel: a sender into the peer's
// inbound queue, and a receiver draining this side's own inbound queue.
type Endpoint[T any] struct {
	out chan T
	in  chan T
}

// Send enqueues msg, blocking if the peer's inbound queue is full.
func (e *Endpoint[T]) Send(msg T) { e.out <- msg }

// Recv dequeues the next message, blocking if empty. It returns ErrClosed
// once the channel is closed and drained.
func (e *Endpoint[T]) Recv() (T, error) {
	msg, ok := <-e.in
	if !ok {
		var zero T
		return zero, ErrClosed
	}
	return msg, nil
}

// TryRecv dequeues the next message without blocking. ok is false if the
// queue is currently empty (closed is left to Recv to report).
func (e *Endpoint[T]) TryRecv() (msg T, ok bool) {
	select {
	case m, open := <-e.in:
		if !open {
			return m, false
		}
		return m, true
	default:
		var zero T
		return zero, false
	}
}

// Pending reports the number of messages currently queued for this
// endpoint without blocking.
func (e *Endpoint[T]) Pending() int { return len(e.in) }

// NewPair builds two connected Endpoints, each of capacity k (the duplex
// channel's bound, default 4096 per spec §4.5). Closing the underlying
// channel from one side causes the peer's Recv to return ErrClosed once
// drained.
func NewPair[T any](k int) (a, b *Endpoint[T]) {
	ab := make(chan T, k)
	ba := make(chan T, k)
	return &Endpoint[T]{out: ab, in: ba}, &Endpoint[T]{out: ba, in: ab}
}

// Close closes this endpoint's outbound channel, so the peer observes
// ErrClosed once its queue drains. Only one side of a pair should close
// its own send direction; closing twice panics, matching close()'s usual
// semantics.
func (e *Endpoint[T]) Close() { close(e.out) }
