/*
scenarios.go - Demo datasets for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the store with realistic data
	for testing and demos. Each dataset creates persons with norms, units,
	work items, a time log up to yesterday and plans for the rest of the
	month, all relative to the current month.

AVAILABLE SCENARIOS:

	balanced-team:       Two units logging close to their norms
	overloaded-delivery: Delivery logs overtime and has more work planned
	presale-pipeline:    Presale bids at different win probabilities
	sparse-data:         Missing norms, stale plans and undated work items

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Build a factory.SnapshotJSON document
 3. Convert it and write it with capacity.Import
 4. Drop cached aggregations

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overloaded-delivery"}

	POST /api/scenarios/reset

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a builder to 'scenarioBuilders'

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - factory/snapshot.go: Snapshot JSON schema
  - factory/presets.go: Norm presets used below
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "balanced-team",
		Name:        "Balanced Team",
		Description: "Delivery and presale units logging close to their norms",
	},
	{
		ID:          "overloaded-delivery",
		Name:        "Overloaded Delivery",
		Description: "Delivery logs 10h days and has a second project planned",
	},
	{
		ID:          "presale-pipeline",
		Name:        "Presale Pipeline",
		Description: "Bids at 20%, 50% and 90% win probability",
	},
	{
		ID:          "sparse-data",
		Name:        "Sparse Data",
		Description: "Missing norms, stale plans and undated work items lower data quality",
	},
}

// scenarioBuilders build a dataset for the month containing asOf.
var scenarioBuilders = map[string]func(asOf generic.TimePoint) factory.SnapshotJSON{
	"balanced-team":       balancedTeam,
	"overloaded-delivery": overloadedDelivery,
	"presale-pipeline":    presalePipeline,
	"sparse-data":         sparseData,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario resets the store and loads a predefined dataset.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	build, ok := scenarioBuilders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID, build(h.now())); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetStore deletes all data and forgets the loaded scenario.
func (h *Handler) ResetStore(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	h.cache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) loadScenario(ctx context.Context, id string, doc factory.SnapshotJSON) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	h.cache.Invalidate()

	snap, err := factory.ToSnapshot(doc)
	if err != nil {
		return err
	}
	if err := capacity.Import(ctx, h.Store, snap); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	h.Log.Info().Str("scenario", id).Int("persons", len(doc.Persons)).Msg("demo scenario loaded")
	return nil
}

// =============================================================================
// DATASET BUILDERS
// =============================================================================

// monthDoc carries the month being populated and the document under
// construction.
type monthDoc struct {
	month generic.Period
	asOf  generic.TimePoint
	doc   factory.SnapshotJSON
}

func newMonthDoc(asOf generic.TimePoint) *monthDoc {
	month, _ := generic.NamedPeriod(generic.PeriodMonth, asOf)
	m := &monthDoc{month: month, asOf: asOf}
	for _, d := range month.Days() {
		m.doc.Calendar = append(m.doc.Calendar, factory.CalendarDayJSON{Date: d.String(), Workday: d.ISOWeekday() < 6})
	}
	return m
}

func (m *monthDoc) person(id, name, preset string) {
	m.doc.Persons = append(m.doc.Persons, factory.PersonJSON{
		ID:     id,
		Name:   name,
		Active: true,
		Norms:  []factory.NormJSON{{ID: id + "-norm", Preset: preset, ValidFrom: m.month.Start.String()}},
	})
}

func (m *monthDoc) unit(id, name string, members ...string) {
	m.doc.Units = append(m.doc.Units, factory.UnitJSON{ID: id, Name: name, Members: members})
}

// item adds an active work item spanning the month.
func (m *monthDoc) item(id, name string, kind capacity.ActivityType, members ...string) {
	m.doc.WorkItems = append(m.doc.WorkItems, factory.WorkItemJSON{
		ID:      id,
		Name:    name,
		Type:    string(kind),
		Status:  "active",
		Active:  true,
		Start:   m.month.Start.String(),
		End:     m.month.End.String(),
		Members: members,
	})
}

// logDaily logs hours on every weekday of the month before asOf.
func (m *monthDoc) logDaily(person, item string, hours float64) {
	for _, d := range m.month.Days() {
		if !d.Before(m.asOf) {
			break
		}
		if d.ISOWeekday() > 5 {
			continue
		}
		m.doc.TimeLog = append(m.doc.TimeLog, factory.TimeLogJSON{PersonID: person, WorkItemID: item, Date: d.String(), Hours: hours})
	}
}

// plan adds a person-on-item plan over the whole month, recorded at asOf.
func (m *monthDoc) plan(person, item string, hours float64, probability *float64) {
	m.doc.Plans = append(m.doc.Plans, factory.PlanJSON{
		ID:          fmt.Sprintf("plan-%s-%s", person, item),
		PersonID:    person,
		WorkItemID:  item,
		Start:       m.month.Start.String(),
		End:         m.month.End.String(),
		Hours:       hours,
		Probability: probability,
		RecordedOn:  m.asOf.String(),
	})
}

func prob(p float64) *float64 { return &p }

func balancedTeam(asOf generic.TimePoint) factory.SnapshotJSON {
	m := newMonthDoc(asOf)
	m.person("p-alice", "Alice Novak", "full_time")
	m.person("p-bob", "Bob Horvat", "full_time")
	m.person("p-carol", "Carol Kral", "part_time")
	m.person("p-dan", "Dan Varga", "presale_heavy")
	m.person("p-eva", "Eva Balaz", "presale_heavy")
	m.unit("u-delivery", "Delivery", "p-alice", "p-bob", "p-carol")
	m.unit("u-presale", "Presale", "p-dan", "p-eva")

	m.item("w-atlas", "Atlas rollout", capacity.ActivityCommercial, "p-alice", "p-bob", "p-carol")
	m.item("w-acme-bid", "Acme bid", capacity.ActivityPresale, "p-dan", "p-eva")
	m.item("w-tooling", "Internal tooling", capacity.ActivityInternal, "p-dan", "p-eva")

	m.logDaily("p-alice", "w-atlas", 7.5)
	m.logDaily("p-bob", "w-atlas", 7)
	m.logDaily("p-carol", "w-atlas", 4)
	m.logDaily("p-dan", "w-acme-bid", 3)
	m.logDaily("p-dan", "w-tooling", 4)
	m.logDaily("p-eva", "w-acme-bid", 3.5)
	m.logDaily("p-eva", "w-tooling", 4)

	m.plan("p-alice", "w-atlas", 160, nil)
	m.plan("p-bob", "w-atlas", 150, nil)
	m.plan("p-carol", "w-atlas", 80, nil)
	m.plan("p-dan", "w-acme-bid", 60, prob(0.8))
	m.plan("p-eva", "w-acme-bid", 60, prob(0.8))
	return m.doc
}

func overloadedDelivery(asOf generic.TimePoint) factory.SnapshotJSON {
	m := newMonthDoc(asOf)
	m.person("p-alice", "Alice Novak", "full_time")
	m.person("p-bob", "Bob Horvat", "full_time")
	m.person("p-frank", "Frank Toth", "full_time")
	m.unit("u-delivery", "Delivery", "p-alice", "p-bob", "p-frank")

	m.item("w-atlas", "Atlas rollout", capacity.ActivityCommercial, "p-alice", "p-bob", "p-frank")
	m.item("w-borealis", "Borealis migration", capacity.ActivityCommercial, "p-alice", "p-bob", "p-frank")

	for _, p := range []string{"p-alice", "p-bob", "p-frank"} {
		m.logDaily(p, "w-atlas", 10)
		m.plan(p, "w-atlas", 170, nil)
	}
	// Project-level plan, split across the item's active members.
	m.doc.Plans = append(m.doc.Plans, factory.PlanJSON{
		ID:         "plan-borealis",
		WorkItemID: "w-borealis",
		Hours:      240,
		RecordedOn: asOf.String(),
	})
	return m.doc
}

func presalePipeline(asOf generic.TimePoint) factory.SnapshotJSON {
	m := newMonthDoc(asOf)
	m.person("p-dan", "Dan Varga", "presale_heavy")
	m.person("p-eva", "Eva Balaz", "presale_heavy")
	m.person("p-gita", "Gita Sulc", "full_time")
	m.unit("u-presale", "Presale", "p-dan", "p-eva", "p-gita")

	m.item("w-bid-long", "Long-shot bid", capacity.ActivityPresale, "p-dan", "p-eva", "p-gita")
	m.item("w-bid-even", "Coin-flip bid", capacity.ActivityPresale, "p-dan", "p-eva", "p-gita")
	m.item("w-bid-near", "Near-certain bid", capacity.ActivityPresale, "p-dan", "p-eva", "p-gita")

	m.logDaily("p-dan", "w-bid-near", 4)
	m.logDaily("p-eva", "w-bid-even", 4)
	m.logDaily("p-gita", "w-bid-near", 6)

	for _, p := range []string{"p-dan", "p-eva", "p-gita"} {
		m.plan(p, "w-bid-long", 40, prob(0.2))
		m.plan(p, "w-bid-even", 40, prob(0.5))
		m.plan(p, "w-bid-near", 40, prob(0.9))
	}
	return m.doc
}

func sparseData(asOf generic.TimePoint) factory.SnapshotJSON {
	m := newMonthDoc(asOf)
	m.person("p-alice", "Alice Novak", "full_time")
	m.doc.Persons = append(m.doc.Persons,
		factory.PersonJSON{ID: "p-hana", Name: "Hana Benes", Active: true},
		factory.PersonJSON{ID: "p-ivan", Name: "Ivan Molnar", Active: true},
	)
	m.unit("u-ops", "Operations", "p-alice", "p-hana", "p-ivan")

	m.item("w-support", "Support rotation", capacity.ActivityCommercial, "p-alice", "p-hana")
	m.doc.WorkItems = append(m.doc.WorkItems, factory.WorkItemJSON{
		ID:      "w-undated",
		Name:    "Undated cleanup",
		Type:    string(capacity.ActivityInternal),
		Status:  "active",
		Active:  true,
		Members: []string{"p-ivan"},
	})

	m.logDaily("p-alice", "w-support", 6)
	m.plan("p-alice", "w-support", 100, nil)
	// Recorded two months ago: counts as stale.
	m.doc.Plans = append(m.doc.Plans, factory.PlanJSON{
		ID:         "plan-hana-stale",
		PersonID:   "p-hana",
		WorkItemID: "w-support",
		Hours:      80,
		RecordedOn: asOf.AddMonths(-2).String(),
	})
	return m.doc
}
