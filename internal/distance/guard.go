package distance

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrPoisoned is reported when a resource was left mid-mutation by a panic
	ErrPoisoned = errors.New("resource poisoned by an earlier panic")

	// ErrEncode is reported when a ranking result cannot be serialized
	ErrEncode = errors.New("failed to encode distances")
)

// FatalError is the value panicked with when the store can no longer
// guarantee the integrity of a resource. It is never returned as an error:
// callers are not expected to recover and retry.
type FatalError struct {
	Resource string
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal fault on %s: %v", e.Resource, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether a recovered panic value is a *FatalError
func IsFatal(recovered any) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// guard is a named RWMutex that poisons itself when a panic unwinds
// through a critical section.
type guard struct {
	name     string
	mu       sync.RWMutex
	poisoned atomic.Bool
}

func newGuard(name string) *guard {
	return &guard{name: name}
}

func (g *guard) check() {
	if g.poisoned.Load() {
		panic(&FatalError{Resource: g.name, Err: ErrPoisoned})
	}
}

// write runs fn with the exclusive lock held
func (g *guard) write(fn func()) {
	g.check()
	g.mu.Lock()
	g.recheck(g.mu.Unlock)
	defer g.release(g.mu.Unlock)
	fn()
}

// read runs fn with the shared lock held
func (g *guard) read(fn func()) {
	g.check()
	g.mu.RLock()
	g.recheck(g.mu.RUnlock)
	defer g.release(g.mu.RUnlock)
	fn()
}

// recheck catches a poisoning that happened while the caller was blocked
// waiting for the lock.
func (g *guard) recheck(unlock func()) {
	if g.poisoned.Load() {
		unlock()
		panic(&FatalError{Resource: g.name, Err: ErrPoisoned})
	}
}

func (g *guard) release(unlock func()) {
	if r := recover(); r != nil {
		g.poisoned.Store(true)
		unlock()
		panic(r)
	}
	unlock()
}
