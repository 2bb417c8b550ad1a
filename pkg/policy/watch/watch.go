// Package watch implements a single value broadcast cell. A Sender replaces the value and every
// Receiver observes the latest value, intermediate values are conflated.
package watch

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrClosed is returned by Next once the sender closed the cell and every value was seen
var ErrClosed = errors.New("watch: sender closed")

type cell[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	closed  bool
	changed chan struct{}
}

// Sender publishes values to the receivers of a cell
type Sender[T any] struct {
	c *cell[T]
}

// Receiver observes the values of a cell. A Receiver must not be shared between goroutines,
// clone it with Clone instead.
type Receiver[T any] struct {
	c    *cell[T]
	seen uint64
}

// New returns a sender and a receiver for a cell holding the initial value. The receiver
// sees the initial value as unchanged.
func New[T any](initial T) (*Sender[T], *Receiver[T]) {
	c := &cell[T]{value: initial, changed: make(chan struct{})}
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// Send replaces the value and wakes up the receivers. Values sent after Close are dropped.
func (s *Sender[T]) Send(value T) {
	s.c.mu.Lock()
	if s.c.closed {
		s.c.mu.Unlock()
		return
	}
	s.c.value = value
	s.c.version++
	close(s.c.changed)
	s.c.changed = make(chan struct{})
	s.c.mu.Unlock()
}

// SendIfModified calls modify with the current value and publishes the value it returns
// if modify reports a change
func (s *Sender[T]) SendIfModified(modify func(T) (T, bool)) bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if s.c.closed {
		return false
	}
	value, ok := modify(s.c.value)
	if !ok {
		return false
	}

	s.c.value = value
	s.c.version++
	close(s.c.changed)
	s.c.changed = make(chan struct{})
	return true
}

// Close wakes up the receivers a last time. Receivers keep the last value and Next
// returns ErrClosed once it was seen.
func (s *Sender[T]) Close() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if s.c.closed {
		return
	}
	s.c.closed = true
	close(s.c.changed)
}

// Borrow returns the current value
func (s *Sender[T]) Borrow() T {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	return s.c.value
}

// Subscribe returns a new receiver that sees the current value as unchanged
func (s *Sender[T]) Subscribe() *Receiver[T] {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	return &Receiver[T]{c: s.c, seen: s.c.version}
}

// Version returns the number of values sent
func (s *Sender[T]) Version() uint64 {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()
	return s.c.version
}

// Borrow returns the current value without marking it as seen
func (r *Receiver[T]) Borrow() T {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	return r.c.value
}

// BorrowAndUpdate returns the current value and marks it as seen
func (r *Receiver[T]) BorrowAndUpdate() T {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	r.seen = r.c.version
	return r.c.value
}

// HasChanged returns true if a value was sent since the receiver last marked a value as seen
func (r *Receiver[T]) HasChanged() bool {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	return r.c.version != r.seen
}

// Version returns the version of the last value marked as seen
func (r *Receiver[T]) Version() uint64 {
	return r.seen
}

// IsClosed returns true if the sender closed the cell
func (r *Receiver[T]) IsClosed() bool {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	return r.c.closed
}

// Changed returns a channel closed once a value newer than the last seen one is available,
// or once the sender closed the cell
func (r *Receiver[T]) Changed() <-chan struct{} {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	if r.c.version != r.seen {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return r.c.changed
}

// Next waits for a value newer than the last seen one, marks it as seen and returns it.
// It returns ErrClosed when the cell is closed and the last value was already seen.
func (r *Receiver[T]) Next(ctx context.Context) (T, error) {
	select {
	case <-r.Changed():
		r.c.mu.RLock()
		defer r.c.mu.RUnlock()
		if r.c.version == r.seen {
			var zero T
			return zero, ErrClosed
		}
		r.seen = r.c.version
		return r.c.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Clone returns a receiver that has seen the same version as r
func (r *Receiver[T]) Clone() *Receiver[T] {
	return &Receiver[T]{c: r.c, seen: r.seen}
}
