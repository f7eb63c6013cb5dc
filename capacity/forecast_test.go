package capacity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/capacity-engine/capacity"
)

// forecastSnapshot: alice and bob work Mon-Fri 8h in one unit; alice logged
// 8+8+6 hours Mon-Wed and 5 hours on Thursday.
func forecastSnapshot() capacity.Snapshot {
	workWeek := period("2024-01-01", "2024-01-05")

	return capacity.Snapshot{
		Units: []capacity.Unit{{
			ID:   "u1",
			Name: "Delivery",
			Members: []capacity.Contributor{
				person("alice", true, norm(8, 0, 0)),
				person("bob", true, norm(8, 0, 0)),
			},
		}},
		WorkItems: []capacity.WorkItem{
			{ID: "presale-1", Name: "Bid", Type: capacity.ActivityPresale, Active: true, Members: []capacity.PersonID{"alice", "bob"}},
			{ID: "closed-1", Name: "Old", Type: capacity.ActivityCommercial, Active: false, Members: []capacity.PersonID{"alice"}},
		},
		TimeLog: []capacity.TimeLogEntry{
			logEntry("alice", "presale-1", "2024-01-01", 8),
			logEntry("alice", "presale-1", "2024-01-02", 8),
			logEntry("alice", "presale-1", "2024-01-03", 6),
			logEntry("alice", "presale-1", "2024-01-04", 5),
		},
		Plans: []capacity.PlanEntry{
			// 40h over Mon-Fri: 8h per working day.
			{ID: "p-own", PersonID: "alice", Period: &workWeek, Hours: hours(40)},
			// Item-level presale plan at 50%, split between alice and bob.
			{ID: "p-bid", WorkItemID: "presale-1", Period: &workWeek, Hours: hours(20), Probability: decPtr("0.5")},
			// Inactive item: ignored.
			{ID: "p-closed", PersonID: "alice", WorkItemID: "closed-1", Period: &workWeek, Hours: hours(100)},
		},
		Calendar: weekendCalendar(),
	}
}

func TestForecast_ElapsedActualsPlusRemainingPlan(t *testing.T) {
	// GIVEN: Today is Thursday 01-04
	e := newEngine(t)
	s := forecastSnapshot()
	alice := s.Units[0].Members[0]

	// WHEN: Forecasting the first week
	got := e.Forecast(alice, firstWeek2024(), date("2024-01-04"), s)

	// THEN: 22h logged Mon-Wed
	//     + own plan 8h × 2 remaining days (Thu, Fri) = 16h
	//     + presale plan 20h × 0.5 × 2/5 days / 2 members = 2h
	assertHours(t, "40", got)
}

func TestForecast_PastPeriodIsActualsOnly(t *testing.T) {
	// GIVEN: Today is after the period
	e := newEngine(t)
	s := forecastSnapshot()
	alice := s.Units[0].Members[0]

	// THEN: All logged hours, no planned part
	assertHours(t, "27", e.Forecast(alice, firstWeek2024(), date("2024-01-10"), s))
}

func TestForecast_FuturePeriodIsPlanOnly(t *testing.T) {
	// GIVEN: Today is before the period starts
	e := newEngine(t)
	s := forecastSnapshot()
	bob := s.Units[0].Members[1]

	// THEN: bob has no logs; his half of the 50% presale plan = 5h
	assertHours(t, "5", e.Forecast(bob, firstWeek2024(), date("2023-12-01"), s))
}

func TestForecast_PresaleWithoutProbabilityAtFaceValue(t *testing.T) {
	e := newEngine(t)
	s := forecastSnapshot()
	s.Plans[1].Probability = nil
	bob := s.Units[0].Members[1]

	assertHours(t, "10", e.Forecast(bob, firstWeek2024(), date("2023-12-01"), s))
}

func TestForecast_ProbabilityIgnoredForCommercial(t *testing.T) {
	e := newEngine(t)
	s := forecastSnapshot()
	s.WorkItems[0].Type = capacity.ActivityCommercial
	bob := s.Units[0].Members[1]

	assertHours(t, "10", e.Forecast(bob, firstWeek2024(), date("2023-12-01"), s))
}

func TestForecast_EmptyPeriod(t *testing.T) {
	e := newEngine(t)
	s := forecastSnapshot()

	got := e.Forecast(s.Units[0].Members[0], period("2024-01-07", "2024-01-01"), date("2024-01-04"), s)

	assertHours(t, "0", got)
}

func TestUnitForecast_SumsActiveMembers(t *testing.T) {
	e := newEngine(t)
	s := forecastSnapshot()

	got := e.UnitForecast(s.Units[0].Members, firstWeek2024(), date("2024-01-04"), s)

	// alice 40h + bob 2h
	assertHours(t, "42", got)
}

func TestCalendarSpan_WidensToPlanWindows(t *testing.T) {
	tests := []struct {
		name  string
		items []capacity.WorkItem
		plans []capacity.PlanEntry
		want  string
	}{
		{
			name: "no plans keeps the period",
			want: "2024-01-08..2024-01-14",
		},
		{
			name:  "explicit plan period",
			plans: []capacity.PlanEntry{{PersonID: "alice", Period: periodPtr("2024-01-01", "2024-01-31")}},
			want:  "2024-01-01..2024-01-31",
		},
		{
			name:  "work item dates",
			items: []capacity.WorkItem{{ID: "w1", Start: datePtr("2023-12-15"), End: datePtr("2024-02-10")}},
			plans: []capacity.PlanEntry{{WorkItemID: "w1"}},
			want:  "2023-12-15..2024-02-10",
		},
		{
			name:  "open-ended item keeps the period end",
			items: []capacity.WorkItem{{ID: "w1", Start: datePtr("2024-01-02")}},
			plans: []capacity.PlanEntry{{WorkItemID: "w1"}},
			want:  "2024-01-02..2024-01-14",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capacity.CalendarSpan(period("2024-01-08", "2024-01-14"), tt.items, tt.plans)
			assert.Equal(t, tt.want, got.Start.String()+".."+got.End.String())
		})
	}
}
