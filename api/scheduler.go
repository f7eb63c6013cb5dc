/*
scheduler.go - Periodic aggregation refresh

PURPOSE:
  Periodically aggregates the current month-to-date so the result cache is
  warm and the Prometheus gauges reflect recent data even when no client
  is polling.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each run resolves month_to_date relative to today
  - The response is cached under the same key POST /api/aggregate uses
  - The last run is kept for the UI (GET /api/refresh/last)

CONFIGURATION:
  - Interval: How often to refresh (default: 15 minutes)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRefreshScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Aggregate endpoint
  - metrics/metrics.go: Gauges updated on each run
*/
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/capacity-engine/generic"
)

// RefreshRun records one scheduler pass.
type RefreshRun struct {
	ResultID  string    `json:"result_id,omitempty"`
	Period    PeriodDTO `json:"period"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Units     int       `json:"units"`
	Warnings  int       `json:"warnings"`
	Error     string    `json:"error,omitempty"`
}

// RefreshScheduler re-aggregates the current month on an interval.
type RefreshScheduler struct {
	Handler  *Handler
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastMu  sync.RWMutex
	lastRun *RefreshRun
}

// NewRefreshScheduler creates a new scheduler.
func NewRefreshScheduler(handler *Handler) *RefreshScheduler {
	return &RefreshScheduler{
		Handler:  handler,
		Interval: 15 * time.Minute,
		Enabled:  true,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Handler.Log.Info().Msg("refresh scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.wg.Add(1)

	go rs.run()

	rs.Handler.Log.Info().Dur("interval", rs.Interval).Msg("refresh scheduler started")
}

// Stop stops the scheduler. Safe to call more than once.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Handler.Log.Info().Msg("refresh scheduler stopped")
	}
}

func (rs *RefreshScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunOnce(context.Background())

	for {
		select {
		case <-rs.ticker.C:
			rs.RunOnce(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// RunOnce aggregates month-to-date, caches the response and records the run.
func (rs *RefreshScheduler) RunOnce(ctx context.Context) RefreshRun {
	h := rs.Handler
	asOf := h.now()
	started := time.Now()

	period, _ := generic.NamedPeriod(generic.PeriodMonthToDate, asOf)
	run := RefreshRun{Period: ToPeriodDTO(period), StartedAt: started}

	gen := h.cache.Generation()
	result, err := h.aggregate(ctx, "refresh", period, asOf, Exclusions{})
	if err != nil {
		run.Error = err.Error()
		h.Log.Error().Err(err).Str("period", period.String()).Msg("refresh failed")
	} else {
		resp := ToAggregateResponse(uuid.NewString(), result)
		h.cache.Put(NewCacheKey(period, asOf, Exclusions{}), gen, resp)
		run.ResultID = resp.ResultID
		run.Units = len(result.Units)
		run.Warnings = len(result.Warnings)
		h.Log.Debug().Str("period", period.String()).Int("units", run.Units).Msg("refresh complete")
	}
	run.Duration = time.Since(started).String()

	rs.lastMu.Lock()
	rs.lastRun = &run
	rs.lastMu.Unlock()
	return run
}

// LastRun returns the most recent run, or nil before the first one.
func (rs *RefreshScheduler) LastRun() *RefreshRun {
	rs.lastMu.RLock()
	defer rs.lastMu.RUnlock()
	if rs.lastRun == nil {
		return nil
	}
	run := *rs.lastRun
	return &run
}

// GetLastRun serves the most recent run.
func (rs *RefreshScheduler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rs.LastRun())
}

// TriggerRun runs a refresh synchronously.
func (rs *RefreshScheduler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rs.RunOnce(r.Context()))
}
