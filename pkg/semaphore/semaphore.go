// Package semaphore provides a small bounded-concurrency primitive with
// close semantics; no package in this module imports it.
package semaphore

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Acquire/TryAcquire once the semaphore is closed.
var ErrClosed = errors.New("semaphore: closed")

// Semaphore limits the number of concurrent holders of a resource.
type Semaphore struct {
	ch     chan struct{}
	mu     sync.RWMutex
	closed bool
}

// New creates a Semaphore allowing up to maxConcurrent concurrent holders.
func New(maxConcurrent int) *Semaphore {
	return &Semaphore{ch: make(chan struct{}, maxConcurrent)}
}

// Acquire blocks until a slot is free, ctx is done, or the semaphore closes.
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- struct{}{}:
		return nil
	}
}

// TryAcquire acquires a slot without blocking, returning false if none is free.
func (s *Semaphore) TryAcquire() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees one held slot.
func (s *Semaphore) Release() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
}

// Close marks the semaphore closed; further Acquire/TryAcquire calls fail.
func (s *Semaphore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Available returns the number of free slots.
func (s *Semaphore) Available() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return cap(s.ch) - len(s.ch)
}
