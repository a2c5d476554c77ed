package analyzer

import "sync/atomic"

// Lock provides non-blocking lock semantics so a second analysis of the
// same store can be rejected instead of queued.
type Lock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *Lock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the holder that successfully acquired the lock.
func (l *Lock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is currently held.
func (l *Lock) Held() bool {
	return l.state.Load() == 1
}
