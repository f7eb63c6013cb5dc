/*
source.go - Persistence interfaces for aggregation input

PURPOSE:
  The engine is pure: it never reads a database. Callers fetch a Snapshot
  from a SnapshotSource and hand it to Engine.Aggregate. The Store
  interface adds the writes the HTTP surface and importers need.

KEY INTERFACES:
  SnapshotSource: Materialize everything needed for one period
  Store:          SnapshotSource + generic.CalendarSource + record writes

WRITE SEMANTICS:
  Persons, units, work items, plans and calendar days are upserted by ID
  (calendar days by date). Time-log entries are append-only; a correction
  is a new entry. Saving a unit that names an unknown person fails with
  generic.ErrPersonNotFound.

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory for tests and demos
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - types.go: Snapshot
  - engine.go: Aggregate
*/
package capacity

import (
	"context"
	"fmt"

	"github.com/warp/capacity-engine/generic"
)

// SnapshotSource is the data-fetch layer the engine's callers read from.
type SnapshotSource interface {
	// Snapshot materializes every entity needed to aggregate the period:
	// all units with resolved members, all work items, time-log entries
	// dated inside the period, all plans, and calendar days of
	// CalendarSpan(period, items, plans).
	Snapshot(ctx context.Context, period generic.Period) (Snapshot, error)
}

// Store persists the records a Snapshot is built from.
type Store interface {
	SnapshotSource
	generic.CalendarSource

	SavePerson(ctx context.Context, p Person) error
	// SaveUnit replaces the unit's name and ordered member list.
	SaveUnit(ctx context.Context, id UnitID, name string, members []PersonID) error
	SaveWorkItem(ctx context.Context, w WorkItem) error
	// AppendTimeLog adds entries atomically.
	AppendTimeLog(ctx context.Context, entries []TimeLogEntry) error
	// SavePlan assigns a new ID when p.ID is empty and returns the stored ID.
	SavePlan(ctx context.Context, p PlanEntry) (PlanID, error)
	SaveCalendarDays(ctx context.Context, days []generic.CalendarDay) error

	// Person returns a stored person or generic.ErrPersonNotFound.
	Person(ctx context.Context, id PersonID) (Person, error)

	// Reset deletes all data (for demo/testing).
	Reset(ctx context.Context) error
}

// Import writes every record of s into st. Members that are not stored
// persons (hypothetical contributors) are rejected.
func Import(ctx context.Context, st Store, s Snapshot) error {
	for _, c := range s.Contributors() {
		p, ok := c.(Person)
		if !ok {
			return &generic.ValidationError{Kind: "person", ID: string(c.ContributorID()), Message: "only stored persons can be imported", Err: generic.ErrMissingID}
		}
		if err := st.SavePerson(ctx, p); err != nil {
			return fmt.Errorf("import person %s: %w", p.ID, err)
		}
	}
	for _, u := range s.Units {
		ids := make([]PersonID, 0, len(u.Members))
		for _, m := range u.Members {
			ids = append(ids, m.ContributorID())
		}
		if err := st.SaveUnit(ctx, u.ID, u.Name, ids); err != nil {
			return fmt.Errorf("import unit %s: %w", u.ID, err)
		}
	}
	for _, w := range s.WorkItems {
		if err := st.SaveWorkItem(ctx, w); err != nil {
			return fmt.Errorf("import work item %s: %w", w.ID, err)
		}
	}
	if len(s.TimeLog) > 0 {
		if err := st.AppendTimeLog(ctx, s.TimeLog); err != nil {
			return fmt.Errorf("import time log: %w", err)
		}
	}
	for _, p := range s.Plans {
		if _, err := st.SavePlan(ctx, p); err != nil {
			return fmt.Errorf("import plan %s: %w", p.ID, err)
		}
	}
	days := make([]generic.CalendarDay, 0, len(s.Calendar))
	for _, d := range s.Calendar {
		days = append(days, d)
	}
	return st.SaveCalendarDays(ctx, days)
}
