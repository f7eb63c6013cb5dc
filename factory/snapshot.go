package factory

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// SNAPSHOT SCHEMA
// =============================================================================

// Dates are "2006-01-02" strings; an empty string means "not set".

type NormJSON struct {
	ID              string  `json:"id,omitempty"`
	Preset          string  `json:"preset,omitempty"`
	ValidFrom       string  `json:"valid_from,omitempty"`
	Commercial      float64 `json:"commercial"`
	Presale         float64 `json:"presale"`
	Internal        float64 `json:"internal"`
	Weekdays        []int   `json:"weekdays"`
	WorksOnHolidays bool    `json:"works_on_holidays"`
}

type VacationJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type,omitempty"`
}

type PersonJSON struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Active    bool           `json:"active"`
	Norms     []NormJSON     `json:"norms,omitempty"`
	Vacations []VacationJSON `json:"vacations,omitempty"`
}

type UnitJSON struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type WorkItemJSON struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Status  string   `json:"status,omitempty"`
	Active  bool     `json:"active"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
	Members []string `json:"members,omitempty"`
}

type TimeLogJSON struct {
	PersonID   string  `json:"person_id"`
	WorkItemID string  `json:"work_item_id,omitempty"`
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Type       string  `json:"type,omitempty"`
}

type PlanJSON struct {
	ID          string   `json:"id,omitempty"`
	PersonID    string   `json:"person_id,omitempty"`
	WorkItemID  string   `json:"work_item_id,omitempty"`
	Start       string   `json:"start,omitempty"`
	End         string   `json:"end,omitempty"`
	Hours       float64  `json:"hours"`
	Probability *float64 `json:"probability,omitempty"`
	RecordedOn  string   `json:"recorded_on,omitempty"`
}

type CalendarDayJSON struct {
	Date     string `json:"date"`
	Workday  bool   `json:"workday"`
	Holiday  bool   `json:"holiday"`
	ShortDay bool   `json:"short_day,omitempty"`
}

// SnapshotJSON is a whole snapshot. Units reference persons by ID.
type SnapshotJSON struct {
	Persons   []PersonJSON      `json:"persons"`
	Units     []UnitJSON        `json:"units"`
	WorkItems []WorkItemJSON    `json:"work_items"`
	TimeLog   []TimeLogJSON     `json:"time_log"`
	Plans     []PlanJSON        `json:"plans"`
	Calendar  []CalendarDayJSON `json:"calendar"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// optionalDate parses s, returning nil for "".
func optionalDate(s string) (*generic.TimePoint, error) {
	if s == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func invalid(kind, id string, err error) error {
	return &generic.ValidationError{Kind: kind, ID: id, Message: err.Error(), Err: err}
}

func ToNorm(nj NormJSON) (capacity.Norm, error) {
	nj, err := expandPreset(nj)
	if err != nil {
		return capacity.Norm{}, invalid("norm", nj.ID, err)
	}
	weekdays, err := capacity.NewWeekdaySet(nj.Weekdays...)
	if err != nil {
		return capacity.Norm{}, invalid("norm", nj.ID, err)
	}
	n := capacity.Norm{
		ID:              capacity.NormID(nj.ID),
		Commercial:      generic.NewHours(nj.Commercial),
		Presale:         generic.NewHours(nj.Presale),
		Internal:        generic.NewHours(nj.Internal),
		Weekdays:        weekdays,
		WorksOnHolidays: nj.WorksOnHolidays,
	}
	if nj.ValidFrom != "" {
		if n.ValidFrom, err = generic.ParseDate(nj.ValidFrom); err != nil {
			return capacity.Norm{}, invalid("norm", nj.ID, err)
		}
	}
	return n, nil
}

func ToPerson(pj PersonJSON) (capacity.Person, error) {
	p := capacity.Person{ID: capacity.PersonID(pj.ID), Name: pj.Name, Active: pj.Active}
	for _, nj := range pj.Norms {
		n, err := ToNorm(nj)
		if err != nil {
			return capacity.Person{}, fmt.Errorf("person %s: %w", pj.ID, err)
		}
		p.Norms = append(p.Norms, n)
	}
	for _, vj := range pj.Vacations {
		start, err := generic.ParseDate(vj.Start)
		if err != nil {
			return capacity.Person{}, invalid("person", pj.ID, err)
		}
		end, err := generic.ParseDate(vj.End)
		if err != nil {
			return capacity.Person{}, invalid("person", pj.ID, err)
		}
		p.Vacations = append(p.Vacations, capacity.VacationRange{Start: start, End: end, Type: capacity.VacationType(vj.Type)})
	}
	return p, nil
}

func ToWorkItem(wj WorkItemJSON) (capacity.WorkItem, error) {
	start, err := optionalDate(wj.Start)
	if err != nil {
		return capacity.WorkItem{}, invalid("work_item", wj.ID, err)
	}
	end, err := optionalDate(wj.End)
	if err != nil {
		return capacity.WorkItem{}, invalid("work_item", wj.ID, err)
	}
	w := capacity.WorkItem{
		ID:     capacity.WorkItemID(wj.ID),
		Name:   wj.Name,
		Type:   capacity.ActivityType(wj.Type),
		Status: wj.Status,
		Active: wj.Active,
		Start:  start,
		End:    end,
	}
	for _, m := range wj.Members {
		w.Members = append(w.Members, capacity.PersonID(m))
	}
	return w, nil
}

func ToTimeLogEntry(tj TimeLogJSON) (capacity.TimeLogEntry, error) {
	e := capacity.TimeLogEntry{
		PersonID:   capacity.PersonID(tj.PersonID),
		WorkItemID: capacity.WorkItemID(tj.WorkItemID),
		Hours:      generic.NewHours(tj.Hours),
		Type:       capacity.ActivityType(tj.Type),
	}
	if tj.Date != "" {
		d, err := generic.ParseDate(tj.Date)
		if err != nil {
			return capacity.TimeLogEntry{}, invalid("time_log", tj.PersonID, err)
		}
		e.Date = d
	}
	return e, nil
}

func ToPlanEntry(pj PlanJSON) (capacity.PlanEntry, error) {
	p := capacity.PlanEntry{
		ID:         capacity.PlanID(pj.ID),
		PersonID:   capacity.PersonID(pj.PersonID),
		WorkItemID: capacity.WorkItemID(pj.WorkItemID),
		Hours:      generic.NewHours(pj.Hours),
	}
	if pj.Start != "" || pj.End != "" {
		start, err := generic.ParseDate(pj.Start)
		if err != nil {
			return capacity.PlanEntry{}, invalid("plan", pj.ID, err)
		}
		end, err := generic.ParseDate(pj.End)
		if err != nil {
			return capacity.PlanEntry{}, invalid("plan", pj.ID, err)
		}
		p.Period = &generic.Period{Start: start, End: end}
	}
	if pj.Probability != nil {
		prob := decimal.NewFromFloat(*pj.Probability)
		p.Probability = &prob
	}
	recorded, err := optionalDate(pj.RecordedOn)
	if err != nil {
		return capacity.PlanEntry{}, invalid("plan", pj.ID, err)
	}
	p.RecordedOn = recorded
	return p, nil
}

func ToCalendarDay(cj CalendarDayJSON) (generic.CalendarDay, error) {
	d, err := generic.ParseDate(cj.Date)
	if err != nil {
		return generic.CalendarDay{}, invalid("calendar_day", cj.Date, err)
	}
	return generic.CalendarDay{Date: d, Workday: cj.Workday, Holiday: cj.Holiday, ShortDay: cj.ShortDay}, nil
}

func FromCalendarDay(d generic.CalendarDay) CalendarDayJSON {
	return CalendarDayJSON{Date: d.Date.String(), Workday: d.Workday, Holiday: d.Holiday, ShortDay: d.ShortDay}
}

// ToSnapshot converts a whole document. A unit member that names no person
// in the document is an error.
func ToSnapshot(sj SnapshotJSON) (capacity.Snapshot, error) {
	var s capacity.Snapshot

	persons := make(map[string]capacity.Person, len(sj.Persons))
	for _, pj := range sj.Persons {
		p, err := ToPerson(pj)
		if err != nil {
			return capacity.Snapshot{}, err
		}
		persons[pj.ID] = p
	}

	for _, uj := range sj.Units {
		u := capacity.Unit{ID: capacity.UnitID(uj.ID), Name: uj.Name}
		for _, id := range uj.Members {
			p, ok := persons[id]
			if !ok {
				return capacity.Snapshot{}, fmt.Errorf("unit %s: %w: %s", uj.ID, generic.ErrPersonNotFound, id)
			}
			u.Members = append(u.Members, p)
		}
		s.Units = append(s.Units, u)
	}

	for _, wj := range sj.WorkItems {
		w, err := ToWorkItem(wj)
		if err != nil {
			return capacity.Snapshot{}, err
		}
		s.WorkItems = append(s.WorkItems, w)
	}
	for _, tj := range sj.TimeLog {
		e, err := ToTimeLogEntry(tj)
		if err != nil {
			return capacity.Snapshot{}, err
		}
		s.TimeLog = append(s.TimeLog, e)
	}
	for _, pj := range sj.Plans {
		p, err := ToPlanEntry(pj)
		if err != nil {
			return capacity.Snapshot{}, err
		}
		s.Plans = append(s.Plans, p)
	}

	s.Calendar = make(generic.Calendar, len(sj.Calendar))
	for _, cj := range sj.Calendar {
		d, err := ToCalendarDay(cj)
		if err != nil {
			return capacity.Snapshot{}, err
		}
		s.Calendar[d.Date] = d
	}
	return s, nil
}

// ParseSnapshot decodes and converts a JSON snapshot document.
func ParseSnapshot(data []byte) (capacity.Snapshot, error) {
	var sj SnapshotJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return capacity.Snapshot{}, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	return ToSnapshot(sj)
}

// LoadSnapshotFile reads a JSON snapshot from disk.
func LoadSnapshotFile(path string) (capacity.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return capacity.Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return ParseSnapshot(data)
}
