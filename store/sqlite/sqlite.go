/*
Package sqlite provides a SQLite-backed capacity.Store.

PURPOSE:
  Persists persons, units, work items, the time log, plans and the
  production calendar, and materializes a capacity.Snapshot for any
  period. In production the same patterns apply to PostgreSQL with only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  capacity.SnapshotSource: Snapshot(ctx, period)
  generic.CalendarSource:  CalendarRange(ctx, from, to)
  capacity.Store:          Upserts and time-log appends

KEY TABLES:
  persons, norms, vacations:         Contributors with versioned norms
  units, unit_members:               Ordered unit membership
  work_items, work_item_members:     Projects and their assignees
  time_log:                          Append-only fact hours
  plans:                             Planned hours (person, item, or both)
  calendar_days:                     Workday / holiday / short-day flags

STORAGE FORMAT:
  Dates are "2006-01-02" TEXT; empty string means "not set".
  Hours and probabilities are decimal TEXT so sums stay exact.
  Norm weekday patterns are a JSON array of ISO weekdays.

ORDERING:
  Units, members, work items and plans come back in insertion order
  (rowid / position). Upserts keep the original rowid, so renaming a unit
  does not move it.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block and a single writer runs at a time.

USAGE:
  store, err := sqlite.New("./data/capacity.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  snap, err := store.Snapshot(ctx, period)
  result := engine.Aggregate(snap, period, asOf)

SEE ALSO:
  - capacity/source.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// Store implements capacity.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ capacity.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS norms (
		person_id TEXT NOT NULL REFERENCES persons(id),
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		valid_from TEXT NOT NULL DEFAULT '',
		commercial TEXT NOT NULL,
		presale TEXT NOT NULL,
		internal TEXT NOT NULL,
		weekdays_json TEXT NOT NULL,
		works_on_holidays BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (person_id, position)
	);

	CREATE TABLE IF NOT EXISTS vacations (
		person_id TEXT NOT NULL REFERENCES persons(id),
		position INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (person_id, position)
	);

	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS unit_members (
		unit_id TEXT NOT NULL REFERENCES units(id),
		position INTEGER NOT NULL,
		person_id TEXT NOT NULL REFERENCES persons(id),
		PRIMARY KEY (unit_id, position)
	);

	CREATE TABLE IF NOT EXISTS work_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS work_item_members (
		work_item_id TEXT NOT NULL REFERENCES work_items(id),
		position INTEGER NOT NULL,
		person_id TEXT NOT NULL,
		PRIMARY KEY (work_item_id, position)
	);

	-- Time log (append-only)
	CREATE TABLE IF NOT EXISTS time_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		person_id TEXT NOT NULL,
		work_item_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Hot path: Snapshot(period) range scan
	CREATE INDEX IF NOT EXISTS idx_time_log_date
		ON time_log(date, seq);
	CREATE INDEX IF NOT EXISTS idx_time_log_person_date
		ON time_log(person_id, date);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL DEFAULT '',
		work_item_id TEXT NOT NULL DEFAULT '',
		period_start TEXT NOT NULL DEFAULT '',
		period_end TEXT NOT NULL DEFAULT '',
		hours TEXT NOT NULL,
		probability TEXT,
		recorded_on TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_plans_work_item
		ON plans(work_item_id) WHERE work_item_id != '';

	CREATE TABLE IF NOT EXISTS calendar_days (
		date TEXT PRIMARY KEY,
		workday BOOLEAN NOT NULL,
		holiday BOOLEAN NOT NULL DEFAULT FALSE,
		short_day BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// PERSONS
// =============================================================================

// SavePerson upserts a person and replaces its norms and vacations.
func (s *Store) SavePerson(ctx context.Context, p capacity.Person) error {
	if p.ID == "" {
		return generic.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO persons (id, name, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				active = excluded.active,
				updated_at = excluded.updated_at
		`, p.ID, p.Name, p.Active, now, now)
		if err != nil {
			return fmt.Errorf("failed to save person: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM norms WHERE person_id = ?`, p.ID); err != nil {
			return err
		}
		for i, n := range p.Norms {
			if err := insertNorm(ctx, tx, p.ID, i, n); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM vacations WHERE person_id = ?`, p.ID); err != nil {
			return err
		}
		for i, v := range p.Vacations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO vacations (person_id, position, start_date, end_date, type)
				VALUES (?, ?, ?, ?, ?)
			`, p.ID, i, v.Start.String(), v.End.String(), string(v.Type))
			if err != nil {
				return fmt.Errorf("failed to save vacation: %w", err)
			}
		}
		return nil
	})
}

func insertNorm(ctx context.Context, db execer, personID capacity.PersonID, position int, n capacity.Norm) error {
	weekdays, err := json.Marshal(n.Weekdays.Days())
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO norms (person_id, position, id, valid_from, commercial, presale, internal, weekdays_json, works_on_holidays)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		personID,
		position,
		n.ID,
		formatDate(n.ValidFrom),
		n.Commercial.String(),
		n.Presale.String(),
		n.Internal.String(),
		string(weekdays),
		n.WorksOnHolidays,
	)
	if err != nil {
		return fmt.Errorf("failed to save norm: %w", err)
	}
	return nil
}

// Person returns a stored person with norms and vacations.
func (s *Store) Person(ctx context.Context, id capacity.PersonID) (capacity.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons, err := s.loadPersons(ctx, `WHERE id = ?`, id)
	if err != nil {
		return capacity.Person{}, err
	}
	p, ok := persons[id]
	if !ok {
		return capacity.Person{}, generic.ErrPersonNotFound
	}
	return p, nil
}

// loadPersons reads persons matching where (may be empty) with their
// norms and vacations attached.
func (s *Store) loadPersons(ctx context.Context, where string, args ...any) (map[capacity.PersonID]capacity.Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, active FROM persons `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	persons := make(map[capacity.PersonID]capacity.Person)
	for rows.Next() {
		var p capacity.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Active); err != nil {
			return nil, err
		}
		persons[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachNorms(ctx, persons); err != nil {
		return nil, err
	}
	if err := s.attachVacations(ctx, persons); err != nil {
		return nil, err
	}
	return persons, nil
}

func (s *Store) attachNorms(ctx context.Context, persons map[capacity.PersonID]capacity.Person) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, id, valid_from, commercial, presale, internal, weekdays_json, works_on_holidays
		FROM norms
		ORDER BY person_id, position
	`)
	if err != nil {
		return fmt.Errorf("failed to query norms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			personID                      capacity.PersonID
			n                             capacity.Norm
			validFrom, weekdaysJSON       string
			commercial, presale, internal string
		)
		if err := rows.Scan(&personID, &n.ID, &validFrom, &commercial, &presale, &internal, &weekdaysJSON, &n.WorksOnHolidays); err != nil {
			return err
		}
		p, ok := persons[personID]
		if !ok {
			continue
		}
		if n.ValidFrom, err = parseOptionalDate(validFrom); err != nil {
			return err
		}
		if n.Commercial, err = generic.ParseHours(commercial); err != nil {
			return err
		}
		if n.Presale, err = generic.ParseHours(presale); err != nil {
			return err
		}
		if n.Internal, err = generic.ParseHours(internal); err != nil {
			return err
		}
		var days []int
		if err := json.Unmarshal([]byte(weekdaysJSON), &days); err != nil {
			return fmt.Errorf("norm %s weekdays: %w", n.ID, err)
		}
		if n.Weekdays, err = capacity.NewWeekdaySet(days...); err != nil {
			return fmt.Errorf("norm %s weekdays: %w", n.ID, err)
		}
		p.Norms = append(p.Norms, n)
		persons[personID] = p
	}
	return rows.Err()
}

func (s *Store) attachVacations(ctx context.Context, persons map[capacity.PersonID]capacity.Person) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, start_date, end_date, type
		FROM vacations
		ORDER BY person_id, position
	`)
	if err != nil {
		return fmt.Errorf("failed to query vacations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var personID capacity.PersonID
		var start, end, typ string
		if err := rows.Scan(&personID, &start, &end, &typ); err != nil {
			return err
		}
		p, ok := persons[personID]
		if !ok {
			continue
		}
		v := capacity.VacationRange{Type: capacity.VacationType(typ)}
		if v.Start, err = generic.ParseDate(start); err != nil {
			return err
		}
		if v.End, err = generic.ParseDate(end); err != nil {
			return err
		}
		p.Vacations = append(p.Vacations, v)
		persons[personID] = p
	}
	return rows.Err()
}

// =============================================================================
// UNITS
// =============================================================================

// SaveUnit upserts a unit and replaces its member list.
func (s *Store) SaveUnit(ctx context.Context, id capacity.UnitID, name string, members []capacity.PersonID) error {
	if id == "" {
		return generic.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, pid := range members {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons WHERE id = ?`, pid).Scan(&exists)
			if err != nil {
				return err
			}
			if exists == 0 {
				return &generic.ValidationError{Kind: "unit", ID: string(id), Message: "unknown member " + string(pid), Err: generic.ErrPersonNotFound}
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO units (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name
		`, id, name)
		if err != nil {
			return fmt.Errorf("failed to save unit: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM unit_members WHERE unit_id = ?`, id); err != nil {
			return err
		}
		for i, pid := range members {
			_, err := tx.ExecContext(ctx, `INSERT INTO unit_members (unit_id, position, person_id) VALUES (?, ?, ?)`, id, i, pid)
			if err != nil {
				return fmt.Errorf("failed to save unit member: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) loadUnits(ctx context.Context, persons map[capacity.PersonID]capacity.Person) ([]capacity.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, m.person_id
		FROM units u
		LEFT JOIN unit_members m ON m.unit_id = u.id
		ORDER BY u.rowid, m.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	var units []capacity.Unit
	for rows.Next() {
		var id capacity.UnitID
		var name string
		var member sql.NullString
		if err := rows.Scan(&id, &name, &member); err != nil {
			return nil, err
		}
		if len(units) == 0 || units[len(units)-1].ID != id {
			units = append(units, capacity.Unit{ID: id, Name: name})
		}
		if !member.Valid {
			continue
		}
		if p, ok := persons[capacity.PersonID(member.String)]; ok {
			u := &units[len(units)-1]
			u.Members = append(u.Members, p)
		}
	}
	return units, rows.Err()
}

// =============================================================================
// WORK ITEMS
// =============================================================================

// SaveWorkItem upserts a work item and replaces its member list.
func (s *Store) SaveWorkItem(ctx context.Context, w capacity.WorkItem) error {
	if w.ID == "" {
		return generic.ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO work_items (id, name, type, status, active, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				type = excluded.type,
				status = excluded.status,
				active = excluded.active,
				start_date = excluded.start_date,
				end_date = excluded.end_date
		`, w.ID, w.Name, string(w.Type), w.Status, w.Active, formatDatePtr(w.Start), formatDatePtr(w.End))
		if err != nil {
			return fmt.Errorf("failed to save work item: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM work_item_members WHERE work_item_id = ?`, w.ID); err != nil {
			return err
		}
		for i, pid := range w.Members {
			_, err := tx.ExecContext(ctx, `INSERT INTO work_item_members (work_item_id, position, person_id) VALUES (?, ?, ?)`, w.ID, i, pid)
			if err != nil {
				return fmt.Errorf("failed to save work item member: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) loadWorkItems(ctx context.Context) ([]capacity.WorkItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.name, w.type, w.status, w.active, w.start_date, w.end_date, m.person_id
		FROM work_items w
		LEFT JOIN work_item_members m ON m.work_item_id = w.id
		ORDER BY w.rowid, m.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}
	defer rows.Close()

	var items []capacity.WorkItem
	for rows.Next() {
		var (
			w          capacity.WorkItem
			typ        string
			start, end string
			member     sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.Name, &typ, &w.Status, &w.Active, &start, &end, &member); err != nil {
			return nil, err
		}
		if len(items) == 0 || items[len(items)-1].ID != w.ID {
			w.Type = capacity.ActivityType(typ)
			if w.Start, err = parseDatePtr(start); err != nil {
				return nil, err
			}
			if w.End, err = parseDatePtr(end); err != nil {
				return nil, err
			}
			items = append(items, w)
		}
		if member.Valid {
			last := &items[len(items)-1]
			last.Members = append(last.Members, capacity.PersonID(member.String))
		}
	}
	return items, rows.Err()
}

// =============================================================================
// TIME LOG (append-only)
// =============================================================================

// AppendTimeLog adds entries atomically.
func (s *Store) AppendTimeLog(ctx context.Context, entries []capacity.TimeLogEntry) error {
	for _, e := range entries {
		if e.PersonID == "" {
			return &generic.ValidationError{Kind: "time_log", Message: "missing person", Err: generic.ErrMissingID}
		}
		if e.Hours.IsNegative() {
			return &generic.ValidationError{Kind: "time_log", ID: string(e.PersonID), Message: "negative hours", Err: generic.ErrInvalidHours}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO time_log (person_id, work_item_id, date, hours, type, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, e.PersonID, e.WorkItemID, e.Date.String(), e.Hours.String(), string(e.Type), now)
			if err != nil {
				return fmt.Errorf("failed to append time log: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) loadTimeLog(ctx context.Context, period generic.Period) ([]capacity.TimeLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, work_item_id, date, hours, type
		FROM time_log
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, seq ASC
	`, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query time log: %w", err)
	}
	defer rows.Close()

	var entries []capacity.TimeLogEntry
	for rows.Next() {
		var e capacity.TimeLogEntry
		var date, hours, typ string
		if err := rows.Scan(&e.PersonID, &e.WorkItemID, &date, &hours, &typ); err != nil {
			return nil, err
		}
		if e.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		if e.Hours, err = generic.ParseHours(hours); err != nil {
			return nil, err
		}
		e.Type = capacity.ActivityType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// PLANS
// =============================================================================

// SavePlan upserts a plan, generating an ID when none is given.
func (s *Store) SavePlan(ctx context.Context, p capacity.PlanEntry) (capacity.PlanID, error) {
	if p.PersonID == "" && p.WorkItemID == "" {
		return "", &generic.ValidationError{Kind: "plan", ID: string(p.ID), Message: "no person or work item", Err: generic.ErrMissingID}
	}
	if p.ID == "" {
		p.ID = capacity.PlanID(uuid.NewString())
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var start, end string
	if p.Period != nil {
		start, end = p.Period.Start.String(), p.Period.End.String()
	}
	var probability sql.NullString
	if p.Probability != nil {
		probability = sql.NullString{String: p.Probability.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (id, person_id, work_item_id, period_start, period_end, hours, probability, recorded_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			person_id = excluded.person_id,
			work_item_id = excluded.work_item_id,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			hours = excluded.hours,
			probability = excluded.probability,
			recorded_on = excluded.recorded_on
	`, p.ID, p.PersonID, p.WorkItemID, start, end, p.Hours.String(), probability, formatDatePtr(p.RecordedOn))
	if err != nil {
		return "", fmt.Errorf("failed to save plan: %w", err)
	}
	return p.ID, nil
}

func (s *Store) loadPlans(ctx context.Context) ([]capacity.PlanEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, work_item_id, period_start, period_end, hours, probability, recorded_on
		FROM plans
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []capacity.PlanEntry
	for rows.Next() {
		var (
			p                 capacity.PlanEntry
			start, end, hours string
			recorded          string
			probability       sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.PersonID, &p.WorkItemID, &start, &end, &hours, &probability, &recorded); err != nil {
			return nil, err
		}
		if start != "" && end != "" {
			period, err := parsePeriod(start, end)
			if err != nil {
				return nil, err
			}
			p.Period = &period
		}
		if p.Hours, err = generic.ParseHours(hours); err != nil {
			return nil, err
		}
		if probability.Valid {
			prob, err := decimal.NewFromString(probability.String)
			if err != nil {
				return nil, fmt.Errorf("plan %s probability: %w", p.ID, err)
			}
			p.Probability = &prob
		}
		if p.RecordedOn, err = parseDatePtr(recorded); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// =============================================================================
// CALENDAR
// =============================================================================

// SaveCalendarDays upserts days by date.
func (s *Store) SaveCalendarDays(ctx context.Context, days []generic.CalendarDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range days {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO calendar_days (date, workday, holiday, short_day)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(date) DO UPDATE SET
					workday = excluded.workday,
					holiday = excluded.holiday,
					short_day = excluded.short_day
			`, d.Date.String(), d.Workday, d.Holiday, d.ShortDay)
			if err != nil {
				return fmt.Errorf("failed to save calendar day: %w", err)
			}
		}
		return nil
	})
}

// CalendarRange returns the stored days in [from, to].
func (s *Store) CalendarRange(ctx context.Context, from, to generic.TimePoint) (generic.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadCalendar(ctx, from, to)
}

func (s *Store) loadCalendar(ctx context.Context, from, to generic.TimePoint) (generic.Calendar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, workday, holiday, short_day
		FROM calendar_days
		WHERE date >= ? AND date <= ?
	`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}
	defer rows.Close()

	cal := make(generic.Calendar)
	for rows.Next() {
		var d generic.CalendarDay
		var date string
		if err := rows.Scan(&date, &d.Workday, &d.Holiday, &d.ShortDay); err != nil {
			return nil, err
		}
		if d.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		cal[d.Date] = d
	}
	return cal, rows.Err()
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot materializes everything the engine needs for the period.
func (s *Store) Snapshot(ctx context.Context, period generic.Period) (capacity.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	persons, err := s.loadPersons(ctx, "")
	if err != nil {
		return capacity.Snapshot{}, err
	}
	var snap capacity.Snapshot
	if snap.Units, err = s.loadUnits(ctx, persons); err != nil {
		return capacity.Snapshot{}, err
	}
	if snap.WorkItems, err = s.loadWorkItems(ctx); err != nil {
		return capacity.Snapshot{}, err
	}
	if snap.TimeLog, err = s.loadTimeLog(ctx, period); err != nil {
		return capacity.Snapshot{}, err
	}
	if snap.Plans, err = s.loadPlans(ctx); err != nil {
		return capacity.Snapshot{}, err
	}
	span := capacity.CalendarSpan(period, snap.WorkItems, snap.Plans)
	if snap.Calendar, err = s.loadCalendar(ctx, span.Start, span.End); err != nil {
		return capacity.Snapshot{}, err
	}
	return snap, nil
}

// Reset deletes all data (for demo/testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"unit_members", "units", "work_item_members", "work_items",
		"norms", "vacations", "persons", "time_log", "plans", "calendar_days",
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
		return nil
	})
}

// Helper functions

func formatDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}

func formatDatePtr(tp *generic.TimePoint) string {
	if tp == nil {
		return ""
	}
	return tp.String()
}

func parseOptionalDate(s string) (generic.TimePoint, error) {
	if s == "" {
		return generic.TimePoint{}, nil
	}
	return generic.ParseDate(s)
}

func parseDatePtr(s string) (*generic.TimePoint, error) {
	if s == "" {
		return nil, nil
	}
	tp, err := generic.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

func parsePeriod(start, end string) (generic.Period, error) {
	from, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, err
	}
	to, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.NewPeriod(from, to), nil
}
