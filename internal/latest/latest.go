// Package latest provides a single-slot "latest value" cell for handing
// state across a goroutine boundary.
//
// A writer overwrites the slot; a reader always sees the most recently
// stored value, or the previous one if nothing new arrived. Neither side
// ever blocks, and a reader never observes a half-written value.
package latest

import "sync"

// Value is a single-slot cell holding the most recently stored T.
// The zero value is empty and ready to use.
type Value[T any] struct {
	mu  sync.RWMutex
	val T
	set bool
}

// Store overwrites the slot.
func (v *Value[T]) Store(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.val = val
	v.set = true
}

// Load returns the most recently stored value. ok is false only before the
// first Store.
func (v *Value[T]) Load() (val T, ok bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.val, v.set
}
