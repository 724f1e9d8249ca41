package pipeline

import "sync"

// ProcessingLock tracks contacts currently being processed plus a
// per-contact failure count. It is process-local and intentionally so:
// single-instance deployments get mutual exclusion for free, and the
// structure resets on restart. Multi-instance deployments need a shared
// lease store instead; see DESIGN.md.
type ProcessingLock struct {
	mu       sync.Mutex
	active   map[string]bool
	failures map[string]int
}

// NewProcessingLock creates an empty lock table.
func NewProcessingLock() *ProcessingLock {
	return &ProcessingLock{
		active:   make(map[string]bool),
		failures: make(map[string]int),
	}
}

// TryAcquire claims a contact for processing. Returns false if another
// invocation already holds it.
func (l *ProcessingLock) TryAcquire(contactID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[contactID] {
		return false
	}
	l.active[contactID] = true
	return true
}

// Release frees a contact after processing, whatever the outcome.
func (l *ProcessingLock) Release(contactID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, contactID)
}

// Locked reports whether a contact is currently being processed.
func (l *ProcessingLock) Locked(contactID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[contactID]
}

// RecordFailure increments the failure count and returns the new total.
func (l *ProcessingLock) RecordFailure(contactID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[contactID]++
	return l.failures[contactID]
}

// Failures returns the failure count for a contact.
func (l *ProcessingLock) Failures(contactID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[contactID]
}

// Exhausted reports whether a contact has hit the retry ceiling and is
// excluded from automatic reprocessing.
func (l *ProcessingLock) Exhausted(contactID string, maxAttempts int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[contactID] >= maxAttempts
}

// ActiveCount returns how many contacts are locked right now.
func (l *ProcessingLock) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

// ReleaseAll clears the active set at the end of a top-level run.
// Failure counts are kept for the process lifetime: a contact that hit
// the retry ceiling stays excluded from later discovery cycles until
// the counts are cleared or the process restarts.
func (l *ProcessingLock) ReleaseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = make(map[string]bool)
}

// ClearFailures wipes the failure counts, re-admitting exhausted
// contacts to discovery. This is the manual-intervention escape hatch.
func (l *ProcessingLock) ClearFailures() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = make(map[string]int)
}
