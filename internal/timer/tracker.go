package timer

import (
	"sync"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

// Tracker records which step identities an alert has already fired for.
// Keys are only ever added.
type Tracker struct {
	mu    sync.Mutex
	fired map[domain.StepKey]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{fired: make(map[domain.StepKey]struct{})}
}

// Mark records key and reports whether the alert should fire, i.e. whether
// key was absent before the call.
func (t *Tracker) Mark(key domain.StepKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.fired[key]; ok {
		return false
	}
	t.fired[key] = struct{}{}
	return true
}

// Has reports whether key has fired.
func (t *Tracker) Has(key domain.StepKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.fired[key]
	return ok
}

// Len returns the number of recorded keys.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.fired)
}
