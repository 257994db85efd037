package buffer

import (
	"sync"
)

// Buffer collects entries in insertion order.
type Buffer[T any] struct {
	mu sync.Mutex
	ts []T
}

func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// Add appends the entry built by fn and returns its index.
// fn runs under the buffer lock so the index it receives is the final one.
func (b *Buffer[T]) Add(fn func(idx int) T) T {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := fn(len(b.ts))
	b.ts = append(b.ts, e)
	return e
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ts)
}

// Last returns the most recently added entry.
func (b *Buffer[T]) Last() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.ts) == 0 {
		var zero T
		return zero, false
	}
	return b.ts[len(b.ts)-1], true
}

// Snapshot returns a copy of the entries.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]T, len(b.ts))
	copy(out, b.ts)
	return out
}

func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	es := b.ts
	b.ts = nil
	b.mu.Unlock()
	return es
}

func (b *Buffer[T]) Reset() {
	b.Drain()
}
