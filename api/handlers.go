/*
handlers.go - HTTP API handlers for the capacity engine

PURPOSE:
  Exposes aggregation, breakdowns, the weekly series, calendar management,
  record ingestion and what-if comparison via REST. Handles HTTP
  request/response and JSON serialization, and delegates to the engine.

ENDPOINTS:
  Aggregation:
    POST   /api/aggregate                 Unit rows + company KPIs (cached)
    GET    /api/periods/{kind}            Resolve a named period
    GET    /api/persons/{id}/breakdown    One person's figures
    GET    /api/series/weekly             Weekly load series

  Calendar:
    GET    /api/calendar?from=&to=        Stored calendar days
    POST   /api/calendar                  Bulk upsert calendar days

  Ingestion (ingest.go):
    POST   /api/persons, /api/units, /api/work-items, /api/time-log,
           /api/plans, /api/import

  What-if (whatif.go):
    POST   /api/whatif                    Baseline vs scenario

  Scenarios (scenarios.go):
    GET    /api/scenarios                 List demo datasets
    POST   /api/scenarios/load            Load a demo dataset

  Alerts (alerts.go):
    GET    /api/alerts                    Alerts for a period
    POST   /api/alerts/{id}/resolve       Hide an alert for a day
    POST   /api/alerts/{id}/unresolve     Show it again

  Operations:
    GET    /api/config                    Active engine configuration
    GET    /api/presets                   Norm preset names
    GET    /health                        Liveness

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Snapshot source and record writes
  - engine: Swapped atomically on config reload
  - cache: Aggregation responses keyed by CacheKey

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve period and as-of date
  3. Fetch a snapshot, apply exclusions
  4. Aggregate, serialize
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (generic.IsClientError)
  - 404: Resource not found (generic.IsNotFound)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - cache.go: Result cache
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/warp/capacity-engine/alerts"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/generic"
	"github.com/warp/capacity-engine/metrics"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store capacity.Store
	Log   zerolog.Logger

	mu     sync.RWMutex
	engine *capacity.Engine

	// thresholds overrides alerts.DefaultThresholds of the engine config.
	thresholds *alerts.Thresholds

	cache   *ResultCache
	tracker *alerts.Tracker

	// Track currently loaded demo scenario
	currentScenario string

	// now is replaceable in tests.
	now func() generic.TimePoint
}

// NewHandler creates a handler. cacheSize <= 0 disables the result cache.
func NewHandler(store capacity.Store, engine *capacity.Engine, cacheSize int, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:   store,
		Log:     logger,
		engine:  engine,
		cache:   NewResultCache(cacheSize),
		tracker: alerts.NewTracker(alerts.DefaultResolveTTL),
		now:     generic.Today,
	}
}

// Engine returns the engine currently serving requests.
func (h *Handler) Engine() *capacity.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// SetEngine swaps the engine (config reload) and drops cached results
// computed with the old thresholds.
func (h *Handler) SetEngine(e *capacity.Engine) {
	h.mu.Lock()
	h.engine = e
	h.mu.Unlock()
	h.cache.Invalidate()
	metrics.ConfigReloadsTotal.Inc()
	h.Log.Info().
		Str("low", e.Config().LowThreshold.String()).
		Str("high", e.Config().HighThreshold.String()).
		Msg("engine configuration replaced")
}

// invalidate is called after every successful write.
func (h *Handler) invalidate(kind string, n int) {
	h.cache.Invalidate()
	metrics.RecordsIngestedTotal.WithLabelValues(kind).Add(float64(n))
}

// =============================================================================
// REQUEST RESOLUTION
// =============================================================================

// resolvePeriod parses start/end, falling back to a named period relative to
// asOf. An empty period is a client error.
func resolvePeriod(start, end, kind string, asOf generic.TimePoint) (generic.Period, error) {
	if start == "" && end == "" && kind != "" {
		return generic.NamedPeriod(generic.PeriodKind(kind), asOf)
	}
	from, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, err
	}
	to, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, err
	}
	p := generic.NewPeriod(from, to)
	if p.IsEmpty() {
		return generic.Period{}, generic.ErrInvalidPeriod
	}
	return p, nil
}

func (h *Handler) resolveAsOf(s string) (generic.TimePoint, error) {
	if s == "" {
		return h.now(), nil
	}
	return generic.ParseDate(s)
}

func (h *Handler) resolveRequest(req AggregateRequest) (generic.Period, generic.TimePoint, Exclusions, error) {
	asOf, err := h.resolveAsOf(req.AsOf)
	if err != nil {
		return generic.Period{}, generic.TimePoint{}, Exclusions{}, err
	}
	period, err := resolvePeriod(req.Start, req.End, req.Period, asOf)
	if err != nil {
		return generic.Period{}, generic.TimePoint{}, Exclusions{}, err
	}
	excl := Exclusions{Units: req.ExcludeUnits, WorkItems: req.ExcludeWorkItems, Statuses: req.ExcludeStatuses, Activities: req.ExcludeActivities}
	if err := excl.validate(); err != nil {
		return generic.Period{}, generic.TimePoint{}, Exclusions{}, err
	}
	return period, asOf, excl.normalize(), nil
}

// applyExclusions drops excluded units, and excluded work items together
// with the time-log entries and plans that reference them.
func applyExclusions(s capacity.Snapshot, excl Exclusions) capacity.Snapshot {
	if excl.IsEmpty() {
		return s
	}
	s.Units = lo.Reject(s.Units, func(u capacity.Unit, _ int) bool {
		return lo.Contains(excl.Units, string(u.ID))
	})

	dropped := make(map[capacity.WorkItemID]bool)
	s.WorkItems = lo.Reject(s.WorkItems, func(w capacity.WorkItem, _ int) bool {
		if lo.Contains(excl.WorkItems, string(w.ID)) || lo.Contains(excl.Statuses, w.Status) {
			dropped[w.ID] = true
			return true
		}
		return false
	})
	if len(dropped) == 0 {
		return s
	}
	s.TimeLog = lo.Reject(s.TimeLog, func(e capacity.TimeLogEntry, _ int) bool { return dropped[e.WorkItemID] })
	s.Plans = lo.Reject(s.Plans, func(p capacity.PlanEntry, _ int) bool { return dropped[p.WorkItemID] })
	return s
}

// aggregate runs the engine and records metrics.
func (h *Handler) aggregate(ctx context.Context, endpoint string, period generic.Period, asOf generic.TimePoint, excl Exclusions) (capacity.Result, error) {
	snap, err := h.Store.Snapshot(ctx, period)
	if err != nil {
		return capacity.Result{}, err
	}
	snap = applyExclusions(snap, excl)
	return h.aggregateSnapshot(endpoint, snap, period, asOf, excl), nil
}

func (h *Handler) aggregateSnapshot(endpoint string, snap capacity.Snapshot, period generic.Period, asOf generic.TimePoint, excl Exclusions) capacity.Result {
	started := time.Now()
	result := h.Engine().AggregateWith(snap, period, asOf, excl.Options())
	metrics.AggregationDurationSeconds.Observe(time.Since(started).Seconds())
	metrics.AggregationsTotal.WithLabelValues(endpoint).Inc()
	observeResult(result)

	if len(result.Warnings) > 0 {
		h.Log.Warn().Int("warnings", len(result.Warnings)).Str("period", period.String()).Msg("aggregation skipped malformed records")
	}
	return result
}

func observeResult(r capacity.Result) {
	metrics.WarningsTotal.Add(float64(len(r.Warnings)))
	metrics.UnitsAggregated.Set(float64(len(r.Units)))
	counts := lo.CountValuesBy(r.Units, func(u capacity.UnitAggregate) capacity.LoadStatus { return u.Status })
	for _, st := range []capacity.LoadStatus{capacity.StatusUnder, capacity.StatusOK, capacity.StatusOver} {
		metrics.UnitsByStatus.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
	metrics.AvgLoad.Set(r.KPIs.AvgLoad.InexactFloat64())
	metrics.AvgDataQuality.Set(r.KPIs.AvgDataQuality.InexactFloat64())
}

// =============================================================================
// AGGREGATION HANDLERS
// =============================================================================

// Aggregate computes unit rows and KPIs, serving repeats from the cache.
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, asOf, excl, err := h.resolveRequest(req)
	if err != nil {
		writeDomainError(w, "Invalid aggregation request", err)
		return
	}

	key := NewCacheKey(period, asOf, excl)
	if resp, ok := h.cache.Get(key); ok {
		metrics.CacheHitsTotal.Inc()
		resp.Cached = true
		writeJSON(w, http.StatusOK, resp)
		return
	}
	metrics.CacheMissesTotal.Inc()

	gen := h.cache.Generation()
	result, err := h.aggregate(r.Context(), "aggregate", period, asOf, excl)
	if err != nil {
		writeDomainError(w, "Failed to aggregate", err)
		return
	}
	resp := ToAggregateResponse(uuid.NewString(), result)
	h.cache.Put(key, gen, resp)
	writeJSON(w, http.StatusOK, resp)
}

// GetPeriod resolves a named period relative to ?as_of (default today).
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	asOf, err := h.resolveAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		writeDomainError(w, "Invalid as_of", err)
		return
	}
	p, err := generic.NamedPeriod(generic.PeriodKind(kind), asOf)
	if err != nil {
		writeDomainError(w, "Unknown period", err)
		return
	}
	writeJSON(w, http.StatusOK, NamedPeriodResponse{Kind: kind, AsOf: asOf.String(), Period: ToPeriodDTO(p)})
}

// GetPersonBreakdown returns one person's figures for ?start&end (or ?period).
func (h *Handler) GetPersonBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asOf, err := h.resolveAsOf(q.Get("as_of"))
	if err != nil {
		writeDomainError(w, "Invalid as_of", err)
		return
	}
	period, err := resolvePeriod(q.Get("start"), q.Get("end"), q.Get("period"), asOf)
	if err != nil {
		writeDomainError(w, "Invalid period", err)
		return
	}

	snap, err := h.Store.Snapshot(r.Context(), period)
	if err != nil {
		writeDomainError(w, "Failed to load snapshot", err)
		return
	}
	id := capacity.PersonID(chi.URLParam(r, "id"))
	row, warnings, err := h.Engine().PersonBreakdown(snap, id, period, asOf)
	if err != nil {
		writeDomainError(w, "Person not found", err)
		return
	}
	writeJSON(w, http.StatusOK, PersonBreakdownResponse{
		Period:   ToPeriodDTO(period),
		AsOf:     asOf.String(),
		Person:   ToPersonRowDTO(row),
		Warnings: nonNil(warnings),
	})
}

// GetWeeklySeries returns Monday-anchored weekly loads over the period.
// ?exclude_units=a,b drops units before counting members.
func (h *Handler) GetWeeklySeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asOf, err := h.resolveAsOf(q.Get("as_of"))
	if err != nil {
		writeDomainError(w, "Invalid as_of", err)
		return
	}
	period, err := resolvePeriod(q.Get("start"), q.Get("end"), q.Get("period"), asOf)
	if err != nil {
		writeDomainError(w, "Invalid period", err)
		return
	}

	snap, err := h.Store.Snapshot(r.Context(), period)
	if err != nil {
		writeDomainError(w, "Failed to load snapshot", err)
		return
	}
	snap = applyExclusions(snap, Exclusions{Units: splitList(q.Get("exclude_units"))}.normalize())

	weeks, warnings := h.Engine().WeeklySeries(snap, period)
	metrics.AggregationsTotal.WithLabelValues("weekly_series").Inc()
	writeJSON(w, http.StatusOK, WeeklySeriesResponse{
		Period:   ToPeriodDTO(period),
		Weeks:    lo.Map(weeks, func(wl capacity.WeekLoad, _ int) WeekLoadDTO { return ToWeekLoadDTO(wl) }),
		Warnings: nonNil(warnings),
	})
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListCalendar returns stored days in [from, to] in date order.
func (h *Handler) ListCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := generic.ParseDate(q.Get("from"))
	if err != nil {
		writeDomainError(w, "Invalid from", err)
		return
	}
	to, err := generic.ParseDate(q.Get("to"))
	if err != nil {
		writeDomainError(w, "Invalid to", err)
		return
	}

	cal, err := h.Store.CalendarRange(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, "Failed to load calendar", err)
		return
	}
	days := make([]factory.CalendarDayJSON, 0, len(cal))
	for _, day := range generic.NewPeriod(from, to).Days() {
		if d, ok := cal.Lookup(day); ok {
			days = append(days, factory.FromCalendarDay(d))
		}
	}
	writeJSON(w, http.StatusOK, CalendarResponse{From: from.String(), To: to.String(), Days: days})
}

// ImportCalendar upserts calendar days.
func (h *Handler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	var req CalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	days := make([]generic.CalendarDay, 0, len(req.Days))
	for _, dj := range req.Days {
		d, err := factory.ToCalendarDay(dj)
		if err != nil {
			writeDomainError(w, "Invalid calendar day", err)
			return
		}
		days = append(days, d)
	}
	if err := h.Store.SaveCalendarDays(r.Context(), days); err != nil {
		writeDomainError(w, "Failed to save calendar", err)
		return
	}
	h.invalidate("calendar_day", len(days))
	writeJSON(w, http.StatusCreated, CreatedResponse{Kind: "calendar_day", Count: len(days)})
}

// =============================================================================
// OPERATIONS
// =============================================================================

// GetConfig returns the active engine configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToJSON(h.Engine().Config()))
}

// ListPresets returns the norm preset definitions by name.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]factory.NormJSON, len(factory.NormPresets))
	for _, name := range factory.PresetNames() {
		out[name] = factory.NormPresets[name]
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error class.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return lo.Map(strings.Split(s, ","), func(part string, _ int) string { return strings.TrimSpace(part) })
}
