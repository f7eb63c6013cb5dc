package alerts

import (
	"sync"
	"time"
)

// DefaultResolveTTL is how long a resolution hides an alert that keeps
// firing.
const DefaultResolveTTL = 24 * time.Hour

// Tracker remembers which alert IDs were resolved and when. A resolution
// expires after TTL, after which a still-firing alert shows again.
//
// Tracker is safe for concurrent use.
type Tracker struct {
	TTL time.Duration

	mu       sync.Mutex
	resolved map[string]time.Time

	// now is replaceable in tests.
	now func() time.Time
}

func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultResolveTTL
	}
	return &Tracker{TTL: ttl, resolved: make(map[string]time.Time), now: time.Now}
}

// Resolve marks id resolved as of now.
func (t *Tracker) Resolve(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resolved[id] = t.now()
}

// Unresolve clears a resolution. It reports whether one existed.
func (t *Tracker) Unresolve(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.resolved[id]
	delete(t.resolved, id)
	return ok
}

// Apply sets Resolved on alerts with a live resolution and drops expired
// resolutions. The input slice is not modified.
func (t *Tracker) Apply(alerts []Alert) []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, at := range t.resolved {
		if now.Sub(at) > t.TTL {
			delete(t.resolved, id)
		}
	}

	out := make([]Alert, len(alerts))
	for i, a := range alerts {
		_, a.Resolved = t.resolved[a.ID]
		out[i] = a
	}
	return out
}
