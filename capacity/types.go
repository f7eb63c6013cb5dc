/*
Package capacity computes capacity, demand, forecast, load, and data quality
for people and organizational units over a date period.

PURPOSE:
  Dashboards and what-if planning need to know, for any period, how many
  hours each unit has available, how many were actually logged, how many
  are projected, and how trustworthy the underlying data is. This package
  derives all of those figures from an immutable Snapshot of entities.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person / Contributor: Who supplies capacity (persisted or hypothetical)
  - Norm: Daily hour allotments and weekly work pattern
  - VacationRange: Inclusive days off
  - Unit: Ordered group of contributors
  - WorkItem, TimeLogEntry, PlanEntry: What consumes and is planned against capacity
  - Snapshot: Everything one aggregation call reads

DESIGN PRINCIPLES:
  1. Pure: No I/O, no clock, no caching. "Today" is an input.
  2. Read-only: Inputs are never mutated; outputs are new records.
  3. Explicit absence: A missing Norm is (Norm{}, false), never a zero norm.
  4. Best effort: Malformed records are skipped and reported as warnings.

SEE ALSO:
  - workdays.go: Working-day arithmetic
  - engine.go: Aggregation across units
  - whatif/: Hypothetical contributors
*/
package capacity

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type UnitID string
type WorkItemID string
type PlanID string
type NormID string

// =============================================================================
// ACTIVITY TYPE
// =============================================================================

// ActivityType classifies work. The empty value means "not specified".
type ActivityType string

const (
	ActivityCommercial ActivityType = "commercial"
	ActivityPresale    ActivityType = "presale"
	ActivityInternal   ActivityType = "internal"
	ActivityOther      ActivityType = "other"
)

// ActivityTypes lists the known types in reporting order.
var ActivityTypes = []ActivityType{ActivityCommercial, ActivityPresale, ActivityInternal, ActivityOther}

func (a ActivityType) IsKnown() bool {
	switch a {
	case ActivityCommercial, ActivityPresale, ActivityInternal, ActivityOther:
		return true
	}
	return false
}

// =============================================================================
// NORM - Daily allotments and weekly pattern
// =============================================================================

// WeekdaySet is a set of ISO weekdays (Monday=1 … Sunday=7).
type WeekdaySet uint8

// NewWeekdaySet rejects any day outside 1..7.
func NewWeekdaySet(days ...int) (WeekdaySet, error) {
	var s WeekdaySet
	for _, d := range days {
		if d < 1 || d > 7 {
			return 0, fmt.Errorf("weekday %d outside 1..7", d)
		}
		s |= 1 << d
	}
	return s, nil
}

func MustWeekdaySet(days ...int) WeekdaySet {
	s, err := NewWeekdaySet(days...)
	if err != nil {
		panic(err)
	}
	return s
}

// WeekdaysMonFri is the standard five-day week.
var WeekdaysMonFri = MustWeekdaySet(1, 2, 3, 4, 5)

func (s WeekdaySet) Contains(isoWeekday int) bool {
	if isoWeekday < 1 || isoWeekday > 7 {
		return false
	}
	return s&(1<<isoWeekday) != 0
}

// Days returns the members in ascending order.
func (s WeekdaySet) Days() []int {
	var days []int
	for d := 1; d <= 7; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Norm is a person's configured daily hours and work pattern, valid from a date.
type Norm struct {
	ID              NormID
	ValidFrom       generic.TimePoint
	Commercial      generic.Hours
	Presale         generic.Hours
	Internal        generic.Hours
	Weekdays        WeekdaySet
	WorksOnHolidays bool
}

// DailyHours is the sum of the three allotments.
func (n Norm) DailyHours() generic.Hours {
	return generic.SumHours(n.Commercial, n.Presale, n.Internal)
}

// Validate checks that no allotment is negative.
func (n Norm) Validate() error {
	allotments := []struct {
		name  string
		hours generic.Hours
	}{
		{"commercial", n.Commercial}, {"presale", n.Presale}, {"internal", n.Internal},
	}
	for _, a := range allotments {
		if a.hours.IsNegative() {
			return fmt.Errorf("%w: norm %s has negative %s hours", generic.ErrInvalidHours, n.ID, a.name)
		}
	}
	return nil
}

// ResolveNorm picks the current norm: the most recent ValidFrom wins, and
// on equal ValidFrom the lexicographically highest ID wins.
func ResolveNorm(norms []Norm) (Norm, bool) {
	if len(norms) == 0 {
		return Norm{}, false
	}
	best := norms[0]
	for _, n := range norms[1:] {
		if n.ValidFrom.After(best.ValidFrom) ||
			(n.ValidFrom.Equal(best.ValidFrom) && n.ID > best.ID) {
			best = n
		}
	}
	return best, true
}

// =============================================================================
// VACATION
// =============================================================================

type VacationType string

const (
	VacationPaid   VacationType = "paid"
	VacationUnpaid VacationType = "unpaid"
	VacationSick   VacationType = "sick"
	VacationDayOff VacationType = "day_off"
	VacationOther  VacationType = "other"
)

// VacationRange is an inclusive range of days off. Overlapping ranges
// union: a day is vacation if any range covers it.
type VacationRange struct {
	Start generic.TimePoint
	End   generic.TimePoint
	Type  VacationType
}

func (v VacationRange) Covers(day generic.TimePoint) bool {
	return generic.Period{Start: v.Start, End: v.End}.Contains(day)
}

// =============================================================================
// CONTRIBUTOR - Anything that supplies capacity
// =============================================================================

// Contributor is the read-only view of a person consumed by the engines.
// Persisted people (Person) and what-if people (whatif.HypotheticalPerson)
// both implement it.
type Contributor interface {
	ContributorID() PersonID
	DisplayName() string
	IsActive() bool
	// CurrentNorm returns false when the contributor has no norm.
	CurrentNorm() (Norm, bool)
	OnVacation(day generic.TimePoint) bool
	IsHypothetical() bool
}

// Person is a persisted employee.
type Person struct {
	ID        PersonID
	Name      string
	Active    bool
	Norms     []Norm
	Vacations []VacationRange
}

func (p Person) ContributorID() PersonID   { return p.ID }
func (p Person) DisplayName() string       { return p.Name }
func (p Person) IsActive() bool            { return p.Active }
func (p Person) IsHypothetical() bool      { return false }
func (p Person) CurrentNorm() (Norm, bool) { return ResolveNorm(p.Norms) }

func (p Person) OnVacation(day generic.TimePoint) bool {
	for _, v := range p.Vacations {
		if v.Covers(day) {
			return true
		}
	}
	return false
}

// normless hides the norm of a contributor whose norm failed validation.
type normless struct {
	Contributor
}

func (normless) CurrentNorm() (Norm, bool) { return Norm{}, false }

// =============================================================================
// UNIT
// =============================================================================

// Unit is an organizational unit (department) with ordered members.
type Unit struct {
	ID      UnitID
	Name    string
	Members []Contributor
}

// =============================================================================
// WORK ITEMS, TIME LOG, PLANS
// =============================================================================

// WorkItem is a project or other unit of work hours are logged against.
type WorkItem struct {
	ID           WorkItemID
	Name         string
	Type         ActivityType
	Status       string
	Active       bool
	Start        *generic.TimePoint
	End          *generic.TimePoint
	Members      []PersonID
	Hypothetical bool
}

// TimeLogEntry is hours a person actually logged on a date.
type TimeLogEntry struct {
	PersonID   PersonID
	WorkItemID WorkItemID
	Date       generic.TimePoint
	Hours      generic.Hours
	Type       ActivityType
}

// PlanEntry is planned hours for a person, a work item, or a person on a
// work item. A nil Period means "the work item's dates, else the analysis
// period". A nil Probability means 1.
type PlanEntry struct {
	ID          PlanID
	PersonID    PersonID
	WorkItemID  WorkItemID
	Period      *generic.Period
	Hours       generic.Hours
	Probability *decimal.Decimal
	RecordedOn  *generic.TimePoint
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the full, already-filtered input of one aggregation call.
type Snapshot struct {
	Units     []Unit
	WorkItems []WorkItem
	TimeLog   []TimeLogEntry
	Plans     []PlanEntry
	Calendar  generic.Calendar
}

// Contributors returns the distinct members of all units sorted by ID.
// The first occurrence of an ID wins.
func (s Snapshot) Contributors() []Contributor {
	seen := make(map[PersonID]bool)
	var out []Contributor
	for _, u := range s.Units {
		for _, m := range u.Members {
			if seen[m.ContributorID()] {
				continue
			}
			seen[m.ContributorID()] = true
			out = append(out, m)
		}
	}
	sortContributors(out)
	return out
}

func sortContributors(cs []Contributor) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].ContributorID() < cs[j].ContributorID()
	})
}
