// Package lazy provides single-initialization lazy values, used to defer
// expensive provider/database lookups until they are actually needed.
package lazy

import "sync"

// Value wraps a value computed at most once, on first Get.
type Value[T any] struct {
	once   sync.Once
	value  T
	err    error
	loader func() (T, error)
}

// NewValue creates a Value that computes its contents via loader on first Get.
func NewValue[T any](loader func() (T, error)) *Value[T] {
	return &Value[T]{loader: loader}
}

// Get returns the computed value, running loader exactly once across all callers.
func (v *Value[T]) Get() (T, error) {
	v.once.Do(func() {
		v.value, v.err = v.loader()
	})
	return v.value, v.err
}

// Reset clears the cached result so the next Get recomputes it.
func (v *Value[T]) Reset() {
	v.once = sync.Once{}
}

// Seq is a finite, not-restartable lazy sequence of items, matching the
// "coroutine iterator" shape provider library listings are specified with:
// items are produced on demand and the sequence cannot be driven twice.
type Seq[T any] struct {
	next func() (T, bool, error)
}

// NewSeq builds a Seq from a next function that returns the next item, a
// bool indicating whether an item was available, and an error.
func NewSeq[T any](next func() (T, bool, error)) *Seq[T] {
	return &Seq[T]{next: next}
}

// ForEach drives the sequence to completion, invoking fn for every item
// until exhaustion, an error, or ctxDone returns true.
func (s *Seq[T]) ForEach(fn func(T) error, ctxDone func() bool) error {
	for {
		if ctxDone != nil && ctxDone() {
			return nil
		}
		item, ok, err := s.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(item); err != nil {
			return err
		}
	}
}

// Collect drains the sequence into a slice. Intended for small listings
// (e.g. playlist tracks); large library listings should use ForEach instead.
func (s *Seq[T]) Collect() ([]T, error) {
	var out []T
	err := s.ForEach(func(item T) error {
		out = append(out, item)
		return nil
	}, nil)
	return out, err
}
