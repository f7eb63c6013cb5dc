package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/warp/capacity-engine/alerts"
	"github.com/warp/capacity-engine/generic"
	"github.com/warp/capacity-engine/metrics"
)

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// AlertThresholds returns the override set by SetAlertThresholds, or the
// defaults derived from the current engine config.
func (h *Handler) AlertThresholds() alerts.Thresholds {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.thresholds != nil {
		return *h.thresholds
	}
	return alerts.DefaultThresholds(h.engine.Config())
}

// SetAlertThresholds replaces the alert thresholds (config reload).
func (h *Handler) SetAlertThresholds(th alerts.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	h.mu.Lock()
	h.thresholds = &th
	h.mu.Unlock()
	return nil
}

// alertFilter holds the optional GET /api/alerts narrowing parameters.
type alertFilter struct {
	severities      []alerts.Severity
	categories      []alerts.Category
	includeResolved bool
}

func parseAlertFilter(q url.Values) (alertFilter, error) {
	f := alertFilter{
		severities: lo.Map(splitList(q.Get("severity")), func(s string, _ int) alerts.Severity { return alerts.Severity(s) }),
		categories: lo.Map(splitList(q.Get("category")), func(s string, _ int) alerts.Category { return alerts.Category(s) }),
	}
	if bad, ok := lo.Find(f.severities, func(s alerts.Severity) bool { return !lo.Contains(alerts.Severities, s) }); ok {
		return alertFilter{}, &generic.ValidationError{Kind: "alert_filter", ID: string(bad), Message: "unknown severity"}
	}
	if bad, ok := lo.Find(f.categories, func(c alerts.Category) bool { return !lo.Contains(alerts.Categories, c) }); ok {
		return alertFilter{}, &generic.ValidationError{Kind: "alert_filter", ID: string(bad), Message: "unknown category"}
	}
	if s := q.Get("include_resolved"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return alertFilter{}, &generic.ValidationError{Kind: "alert_filter", ID: s, Message: "include_resolved must be a boolean", Err: err}
		}
		f.includeResolved = v
	}
	return f, nil
}

func (f alertFilter) keep(a alerts.Alert) bool {
	if a.Resolved && !f.includeResolved {
		return false
	}
	if len(f.severities) > 0 && !lo.Contains(f.severities, a.Severity) {
		return false
	}
	return len(f.categories) == 0 || lo.Contains(f.categories, a.Category)
}

// ListAlerts evaluates the alert rules for ?start&end (or ?period) and
// ?as_of. Optional filters: exclude_units=a,b, severity=critical,warning,
// category=load, include_resolved=true. Stats count every unresolved alert
// regardless of the severity and category filters.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
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
	filter, err := parseAlertFilter(q)
	if err != nil {
		writeDomainError(w, "Invalid alert filter", err)
		return
	}

	snap, err := h.Store.Snapshot(r.Context(), period)
	if err != nil {
		writeDomainError(w, "Failed to load snapshot", err)
		return
	}
	excl := Exclusions{Units: splitList(q.Get("exclude_units"))}.normalize()
	snap = applyExclusions(snap, excl)
	result := h.aggregateSnapshot("alerts", snap, period, asOf, excl)

	all := h.tracker.Apply(alerts.Generate(result, snap, h.AlertThresholds()))
	stats := toAlertStatsDTO(all)
	for _, sev := range alerts.Severities {
		metrics.AlertsFiring.WithLabelValues(string(sev)).Set(float64(stats.BySeverity[string(sev)]))
	}

	kept := lo.Filter(all, func(a alerts.Alert, _ int) bool { return filter.keep(a) })
	writeJSON(w, http.StatusOK, AlertsResponse{
		Period: ToPeriodDTO(period),
		AsOf:   asOf.String(),
		Alerts: lo.Map(kept, func(a alerts.Alert, _ int) AlertDTO { return ToAlertDTO(a) }),
		Stats:  stats,
	})
}

// ResolveAlert hides an alert ID until the resolution expires. IDs are not
// checked against the current alerts, so an alert can be resolved before
// it fires.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.tracker.Resolve(id)
	h.Log.Info().Str("alert", id).Msg("alert resolved")
	writeJSON(w, http.StatusOK, AlertResolutionResponse{ID: id, Resolved: true})
}

// UnresolveAlert clears a resolution. 404 when none is recorded.
func (h *Handler) UnresolveAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.tracker.Unresolve(id) {
		writeDomainError(w, "Alert is not resolved", generic.ErrAlertNotFound)
		return
	}
	h.Log.Info().Str("alert", id).Msg("alert unresolved")
	writeJSON(w, http.StatusOK, AlertResolutionResponse{ID: id, Resolved: false})
}
