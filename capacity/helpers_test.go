package capacity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.TimePoint {
	return generic.MustParseDate(s)
}

func datePtr(s string) *generic.TimePoint {
	d := date(s)
	return &d
}

func period(start, end string) generic.Period {
	return generic.NewPeriod(date(start), date(end))
}

func periodPtr(start, end string) *generic.Period {
	p := period(start, end)
	return &p
}

// firstWeek2024 is Monday 2024-01-01 .. Sunday 2024-01-07.
func firstWeek2024() generic.Period {
	return period("2024-01-01", "2024-01-07")
}

func hours(v float64) generic.Hours {
	return generic.NewHours(v)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// weekendCalendar marks Saturdays and Sundays of January 2024 as non-workdays.
func weekendCalendar() generic.Calendar {
	return generic.WeekendCalendar(period("2024-01-01", "2024-01-31"))
}

func norm(commercial, presale, internal float64) capacity.Norm {
	return capacity.Norm{
		ID:         "norm-1",
		ValidFrom:  date("2023-01-01"),
		Commercial: hours(commercial),
		Presale:    hours(presale),
		Internal:   hours(internal),
		Weekdays:   capacity.WeekdaysMonFri,
	}
}

func person(id string, active bool, norms ...capacity.Norm) capacity.Person {
	return capacity.Person{ID: capacity.PersonID(id), Name: id, Active: active, Norms: norms}
}

func logEntry(personID, itemID, day string, h float64) capacity.TimeLogEntry {
	return capacity.TimeLogEntry{
		PersonID:   capacity.PersonID(personID),
		WorkItemID: capacity.WorkItemID(itemID),
		Date:       date(day),
		Hours:      hours(h),
	}
}

func newEngine(t *testing.T) *capacity.Engine {
	t.Helper()
	e, err := capacity.New(capacity.DefaultConfig())
	require.NoError(t, err)
	return e
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func assertHours(t *testing.T, want string, got generic.Hours) {
	t.Helper()
	assertDecimal(t, want, got.Value)
}
