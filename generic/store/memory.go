// Package store provides an in-memory capacity.Store.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type unitRecord struct {
	id      capacity.UnitID
	name    string
	members []capacity.PersonID
}

type Memory struct {
	mu sync.RWMutex

	persons   map[capacity.PersonID]capacity.Person
	units     []unitRecord
	workItems []capacity.WorkItem
	timeLog   []capacity.TimeLogEntry // ordered by Date
	plans     []capacity.PlanEntry
	calendar  generic.Calendar
}

var _ capacity.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		persons:  make(map[capacity.PersonID]capacity.Person),
		calendar: make(generic.Calendar),
	}
}

// Reset deletes all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persons = make(map[capacity.PersonID]capacity.Person)
	m.units = nil
	m.workItems = nil
	m.timeLog = nil
	m.plans = nil
	m.calendar = make(generic.Calendar)
	return nil
}

func (m *Memory) SavePerson(_ context.Context, p capacity.Person) error {
	if p.ID == "" {
		return generic.ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Norms = append([]capacity.Norm(nil), p.Norms...)
	p.Vacations = append([]capacity.VacationRange(nil), p.Vacations...)
	m.persons[p.ID] = p
	return nil
}

func (m *Memory) Person(_ context.Context, id capacity.PersonID) (capacity.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.persons[id]
	if !ok {
		return capacity.Person{}, generic.ErrPersonNotFound
	}
	return p, nil
}

func (m *Memory) SaveUnit(_ context.Context, id capacity.UnitID, name string, members []capacity.PersonID) error {
	if id == "" {
		return generic.ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pid := range members {
		if _, ok := m.persons[pid]; !ok {
			return &generic.ValidationError{Kind: "unit", ID: string(id), Message: "unknown member " + string(pid), Err: generic.ErrPersonNotFound}
		}
	}
	rec := unitRecord{id: id, name: name, members: append([]capacity.PersonID(nil), members...)}
	for i := range m.units {
		if m.units[i].id == id {
			m.units[i] = rec
			return nil
		}
	}
	m.units = append(m.units, rec)
	return nil
}

func (m *Memory) SaveWorkItem(_ context.Context, w capacity.WorkItem) error {
	if w.ID == "" {
		return generic.ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w.Members = append([]capacity.PersonID(nil), w.Members...)
	for i := range m.workItems {
		if m.workItems[i].ID == w.ID {
			m.workItems[i] = w
			return nil
		}
	}
	m.workItems = append(m.workItems, w)
	return nil
}

// AppendTimeLog validates the whole batch before writing any of it.
func (m *Memory) AppendTimeLog(_ context.Context, entries []capacity.TimeLogEntry) error {
	for _, e := range entries {
		if e.PersonID == "" {
			return &generic.ValidationError{Kind: "time_log", Message: "missing person", Err: generic.ErrMissingID}
		}
		if e.Hours.IsNegative() {
			return &generic.ValidationError{Kind: "time_log", ID: string(e.PersonID), Message: "negative hours", Err: generic.ErrInvalidHours}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.insertEntryLocked(e)
	}
	return nil
}

func (m *Memory) insertEntryLocked(e capacity.TimeLogEntry) {
	// Entries on the same day keep arrival order.
	i := sort.Search(len(m.timeLog), func(i int) bool {
		return m.timeLog[i].Date.After(e.Date)
	})
	m.timeLog = append(m.timeLog, capacity.TimeLogEntry{})
	copy(m.timeLog[i+1:], m.timeLog[i:])
	m.timeLog[i] = e
}

func (m *Memory) SavePlan(_ context.Context, p capacity.PlanEntry) (capacity.PlanID, error) {
	if p.PersonID == "" && p.WorkItemID == "" {
		return "", &generic.ValidationError{Kind: "plan", ID: string(p.ID), Message: "no person or work item", Err: generic.ErrMissingID}
	}
	if p.ID == "" {
		p.ID = capacity.PlanID(uuid.NewString())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.plans {
		if m.plans[i].ID == p.ID {
			m.plans[i] = p
			return p.ID, nil
		}
	}
	m.plans = append(m.plans, p)
	return p.ID, nil
}

func (m *Memory) SaveCalendarDays(_ context.Context, days []generic.CalendarDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range days {
		m.calendar[d.Date] = d
	}
	return nil
}

func (m *Memory) CalendarRange(_ context.Context, from, to generic.TimePoint) (generic.Calendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calendarLocked(generic.NewPeriod(from, to)), nil
}

func (m *Memory) calendarLocked(p generic.Period) generic.Calendar {
	out := make(generic.Calendar)
	for day, d := range m.calendar {
		if p.Contains(day) {
			out[day] = d
		}
	}
	return out
}

// Snapshot copies everything the engine needs for the period.
func (m *Memory) Snapshot(_ context.Context, period generic.Period) (capacity.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s capacity.Snapshot
	for _, u := range m.units {
		unit := capacity.Unit{ID: u.id, Name: u.name}
		for _, pid := range u.members {
			unit.Members = append(unit.Members, m.persons[pid])
		}
		s.Units = append(s.Units, unit)
	}
	s.WorkItems = append(s.WorkItems, m.workItems...)
	s.Plans = append(s.Plans, m.plans...)
	s.Calendar = m.calendarLocked(capacity.CalendarSpan(period, s.WorkItems, s.Plans))

	from := sort.Search(len(m.timeLog), func(i int) bool {
		return !m.timeLog[i].Date.Before(period.Start)
	})
	for _, e := range m.timeLog[from:] {
		if e.Date.After(period.End) {
			break
		}
		s.TimeLog = append(s.TimeLog, e)
	}
	return s, nil
}
