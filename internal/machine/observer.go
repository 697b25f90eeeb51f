package machine

import (
	"sync"
)

// ─────────────────────────────────────────────────────────────────────────────
// Observer Pattern Interfaces
// ─────────────────────────────────────────────────────────────────────────────

// ProgressObserver receives chunk progress of a running frame.
type ProgressObserver interface {
	// Update is called after every finished chunk.
	//
	// Parameters:
	//   - frame: The index of the frame being calculated.
	//   - progress: The fraction of chunks done (0.0 to 1.0).
	Update(frame int, progress float64)
}

// ProgressUpdate is one progress notification, as carried over channels.
type ProgressUpdate struct {
	Frame int     `json:"frame"`
	Value float64 `json:"progress"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress Subject (Observable)
// ─────────────────────────────────────────────────────────────────────────────

// ProgressSubject manages observer registration and notification for
// progress events. Workers notify it concurrently, so observers must be safe
// for concurrent use.
//
// ProgressSubject is safe for concurrent use.
type ProgressSubject struct {
	observers []ProgressObserver
	mu        sync.RWMutex
}

// NewProgressSubject creates a new subject for managing progress observers.
//
// Returns:
//   - *ProgressSubject: A new, empty subject ready to accept observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{
		observers: make([]ProgressObserver, 0),
	}
}

// Register adds an observer to receive progress updates.
// Observers are notified in the order they are registered.
//
// Parameters:
//   - observer: The observer to add. If nil, this call is a no-op.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes an observer from receiving updates.
// If the observer is not found, this call is a no-op.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify sends a progress update to all registered observers, synchronously
// and in registration order.
func (s *ProgressSubject) Notify(frame int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, observer := range s.observers {
		observer.Update(frame, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}
