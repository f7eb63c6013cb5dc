package alerts

import "time"

// SetTrackerClock replaces the tracker's clock.
func SetTrackerClock(t *Tracker, now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}
