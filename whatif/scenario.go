/*
Package whatif overlays hypothetical people and work items on a snapshot.

PURPOSE:
  Planners ask "what if we hired two engineers into Delivery" or "what if
  the Acme bid closes". A Scenario describes those additions; Apply builds a
  new snapshot with them merged in, and Compare runs the engine on both the
  baseline and the scenario.

KEY CONCEPTS:
  - HypotheticalPerson: A capacity.Contributor that exists only in a scenario
  - HypotheticalWorkItem: A work item with per-person planned hours
  - Scenario: A named set of additions
  - Comparison: Baseline vs scenario figures per unit

The baseline snapshot is never modified.

SEE ALSO:
  - capacity/types.go: Contributor interface
  - api/whatif.go: HTTP endpoint
*/
package whatif

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// IDPrefix marks identifiers minted for hypothetical records.
const IDPrefix = "hypothetical-"

// NewID mints a fresh hypothetical identifier.
func NewID() string {
	return IDPrefix + uuid.NewString()
}

// =============================================================================
// HYPOTHETICAL PERSON
// =============================================================================

// HypotheticalPerson is always active. A nil Norm means "no norm yet".
type HypotheticalPerson struct {
	ID        capacity.PersonID
	Name      string
	Norm      *capacity.Norm
	Vacations []capacity.VacationRange
}

// NewHypotheticalPerson mints an ID for a new hypothetical person.
func NewHypotheticalPerson(name string, norm *capacity.Norm) HypotheticalPerson {
	return HypotheticalPerson{ID: capacity.PersonID(NewID()), Name: name, Norm: norm}
}

func (h HypotheticalPerson) ContributorID() capacity.PersonID { return h.ID }
func (h HypotheticalPerson) DisplayName() string              { return h.Name }
func (h HypotheticalPerson) IsActive() bool                   { return true }
func (h HypotheticalPerson) IsHypothetical() bool             { return true }

func (h HypotheticalPerson) CurrentNorm() (capacity.Norm, bool) {
	if h.Norm == nil {
		return capacity.Norm{}, false
	}
	return *h.Norm, true
}

func (h HypotheticalPerson) OnVacation(day generic.TimePoint) bool {
	for _, v := range h.Vacations {
		if v.Covers(day) {
			return true
		}
	}
	return false
}

// =============================================================================
// HYPOTHETICAL WORK ITEM
// =============================================================================

// MemberPlan is planned hours for one member of a hypothetical work item.
type MemberPlan struct {
	PersonID capacity.PersonID
	Hours    generic.Hours
}

// HypotheticalWorkItem is an active work item that exists only in a scenario.
type HypotheticalWorkItem struct {
	ID          capacity.WorkItemID
	Name        string
	Type        capacity.ActivityType
	Start       *generic.TimePoint
	End         *generic.TimePoint
	Probability *decimal.Decimal
	Plans       []MemberPlan
}

// WorkItem converts to the engine's work item, with plan members as members.
func (h HypotheticalWorkItem) WorkItem() capacity.WorkItem {
	members := make([]capacity.PersonID, 0, len(h.Plans))
	for _, p := range h.Plans {
		members = append(members, p.PersonID)
	}
	return capacity.WorkItem{
		ID:           h.ID,
		Name:         h.Name,
		Type:         h.Type,
		Status:       "hypothetical",
		Active:       true,
		Start:        h.Start,
		End:          h.End,
		Members:      members,
		Hypothetical: true,
	}
}

// PlanEntries returns one person-level plan per member plan.
func (h HypotheticalWorkItem) PlanEntries() []capacity.PlanEntry {
	plans := make([]capacity.PlanEntry, 0, len(h.Plans))
	for i, p := range h.Plans {
		plans = append(plans, capacity.PlanEntry{
			ID:          capacity.PlanID(fmt.Sprintf("%s/plan-%d", h.ID, i)),
			PersonID:    p.PersonID,
			WorkItemID:  h.ID,
			Hours:       p.Hours,
			Probability: h.Probability,
		})
	}
	return plans
}

// =============================================================================
// SCENARIO
// =============================================================================

// Placement puts a hypothetical person into a unit.
type Placement struct {
	UnitID capacity.UnitID
	Person HypotheticalPerson
}

// Scenario is a named set of hypothetical additions.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Persons     []Placement
	WorkItems   []HypotheticalWorkItem
}

// NewScenario mints an ID for a new scenario.
func NewScenario(name string) Scenario {
	return Scenario{ID: uuid.NewString(), Name: name}
}

// Apply returns a copy of the snapshot with the scenario merged in. Every
// placement must name a unit present in the snapshot.
func (sc Scenario) Apply(s capacity.Snapshot) (capacity.Snapshot, error) {
	out := capacity.Snapshot{
		Units:     make([]capacity.Unit, len(s.Units)),
		WorkItems: append([]capacity.WorkItem(nil), s.WorkItems...),
		TimeLog:   s.TimeLog,
		Plans:     append([]capacity.PlanEntry(nil), s.Plans...),
		Calendar:  s.Calendar,
	}

	unitIndex := make(map[capacity.UnitID]int, len(s.Units))
	for i, u := range s.Units {
		out.Units[i] = capacity.Unit{
			ID:      u.ID,
			Name:    u.Name,
			Members: append([]capacity.Contributor(nil), u.Members...),
		}
		unitIndex[u.ID] = i
	}

	for _, p := range sc.Persons {
		i, ok := unitIndex[p.UnitID]
		if !ok {
			return capacity.Snapshot{}, fmt.Errorf("scenario %s: place %s: %w: %s", sc.ID, p.Person.ID, generic.ErrUnitNotFound, p.UnitID)
		}
		if p.Person.ID == "" {
			p.Person.ID = capacity.PersonID(NewID())
		}
		out.Units[i].Members = append(out.Units[i].Members, p.Person)
	}

	for _, w := range sc.WorkItems {
		if w.ID == "" {
			w.ID = capacity.WorkItemID(NewID())
		}
		out.WorkItems = append(out.WorkItems, w.WorkItem())
		out.Plans = append(out.Plans, w.PlanEntries()...)
	}
	return out, nil
}
