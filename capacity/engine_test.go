package capacity_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// scenarioSnapshot: unit "u1" has alice (active, 4+2+1 Mon-Fri) and bob
// (inactive); alice logged 42 hours in the first week of 2024.
func scenarioSnapshot() capacity.Snapshot {
	return capacity.Snapshot{
		Units: []capacity.Unit{{
			ID:   "u1",
			Name: "Delivery",
			Members: []capacity.Contributor{
				person("bob", false, norm(8, 0, 0)),
				person("alice", true, norm(4, 2, 1)),
			},
		}},
		WorkItems: []capacity.WorkItem{
			{ID: "w1", Name: "Portal", Type: capacity.ActivityCommercial, Active: true, Members: []capacity.PersonID{"alice"}},
		},
		TimeLog: []capacity.TimeLogEntry{
			logEntry("alice", "w1", "2024-01-01", 10),
			logEntry("alice", "w1", "2024-01-02", 10),
			logEntry("alice", "w1", "2024-01-03", 10),
			logEntry("alice", "w1", "2024-01-04", 10),
			logEntry("alice", "w1", "2024-01-05", 2),
			logEntry("bob", "w1", "2024-01-05", 8),
		},
		Calendar: weekendCalendar(),
	}
}

// multiUnitSnapshot builds several units with varied members and logs.
func multiUnitSnapshot() capacity.Snapshot {
	s := capacity.Snapshot{Calendar: weekendCalendar()}
	for u := 0; u < 6; u++ {
		unit := capacity.Unit{ID: capacity.UnitID(fmt.Sprintf("u%d", u)), Name: fmt.Sprintf("Unit %d", u)}
		for m := 0; m < 4; m++ {
			id := fmt.Sprintf("p%d-%d", u, m)
			unit.Members = append(unit.Members, person(id, m != 3, norm(float64(4+m), 1, 0.5)))
			for d := 1; d <= 5; d++ {
				s.TimeLog = append(s.TimeLog, logEntry(id, "w1", fmt.Sprintf("2024-01-0%d", d), 0.1*float64(u+m+d)))
			}
		}
		s.Units = append(s.Units, unit)
	}
	s.WorkItems = []capacity.WorkItem{{ID: "w1", Name: "Shared", Type: capacity.ActivityInternal, Active: true}}
	return s
}

// render flattens a result to strings so runs can be compared exactly.
func render(r capacity.Result) []string {
	var out []string
	for _, u := range r.Units {
		out = append(out, strings.Join([]string{
			string(u.UnitID), u.Capacity.String(), u.Demand.String(), u.Forecast.String(),
			u.LoadPct.String(), string(u.Status), u.DataQuality.String(),
		}, "|"))
	}
	out = append(out, r.KPIs.AvgLoad.String(), r.KPIs.AvgDataQuality.String())
	return out
}

// =============================================================================
// AGGREGATION TESTS
// =============================================================================

func TestAggregate_UnitScenario_Over(t *testing.T) {
	// GIVEN: alice active with 7h/day, bob inactive; 42h logged by alice
	e := newEngine(t) // high threshold 1.1

	// WHEN: Aggregating the first week
	result := e.Aggregate(scenarioSnapshot(), firstWeek2024(), date("2024-01-08"))

	// THEN: capacity 35, demand 42, load 1.2, over
	require.Len(t, result.Units, 1)
	row := result.Units[0]
	assertHours(t, "35", row.Capacity)
	assertHours(t, "42", row.Demand)
	assertDecimal(t, "1.2", row.LoadPct)
	assert.Equal(t, capacity.StatusOver, row.Status)
	assert.Equal(t, 1, row.ActiveMembers)
	require.Len(t, row.Members, 1)
	assert.Equal(t, capacity.PersonID("alice"), row.Members[0].PersonID)
	assert.Equal(t, 5, row.Members[0].WorkingDays)
	assert.Empty(t, result.Warnings)
}

func TestAggregate_ZeroActivePersons(t *testing.T) {
	// GIVEN: Unit with only an inactive member
	e := newEngine(t)
	s := scenarioSnapshot()
	s.Units[0].Members = s.Units[0].Members[:1]

	result := e.Aggregate(s, firstWeek2024(), date("2024-01-08"))

	// THEN: No divide-by-zero artifacts
	row := result.Units[0]
	assertHours(t, "0", row.Capacity)
	assertDecimal(t, "0", row.LoadPct)
	assert.Equal(t, capacity.StatusUnder, row.Status)
	assertDecimal(t, "1", row.DataQuality)
	assertDecimal(t, "1", row.DataQualityBreakdown.NormCoverage)
	assertDecimal(t, "1", row.DataQualityBreakdown.Freshness)
}

func TestAggregate_KPIs(t *testing.T) {
	// GIVEN: Two units sharing alice, plus carol in the second
	e := newEngine(t)
	s := scenarioSnapshot()
	s.Units = append(s.Units, capacity.Unit{
		ID:   "u2",
		Name: "Sales",
		Members: []capacity.Contributor{
			person("alice", true, norm(4, 2, 1)),
			person("carol", true, norm(8, 0, 0)),
		},
	})
	s.WorkItems = append(s.WorkItems, capacity.WorkItem{ID: "w2", Name: "Closed", Active: false})

	result := e.Aggregate(s, firstWeek2024(), date("2024-01-08"))

	// THEN: u1 load 1.2; u2 load 42/75 = 0.56; mean 0.88
	require.Len(t, result.Units, 2)
	assertDecimal(t, "0.56", result.Units[1].LoadPct)
	assertDecimal(t, "0.88", result.KPIs.AvgLoad)
	assert.Equal(t, 2, result.KPIs.ActiveMemberCount, "alice counted once")
	assert.Equal(t, 1, result.KPIs.ActiveWorkItemCount)
	assert.True(t, result.KPIs.AvgDataQuality.IsPositive())
}

func TestAggregate_NoUnits(t *testing.T) {
	e := newEngine(t)

	result := e.Aggregate(capacity.Snapshot{}, firstWeek2024(), date("2024-01-08"))

	assert.Empty(t, result.Units)
	assertDecimal(t, "0", result.KPIs.AvgLoad)
	assertDecimal(t, "0", result.KPIs.AvgDataQuality)
	assert.Equal(t, 0, result.KPIs.ActiveMemberCount)
}

func TestAggregate_StartAfterEnd_ZeroValues(t *testing.T) {
	e := newEngine(t)

	result := e.Aggregate(scenarioSnapshot(), period("2024-01-07", "2024-01-01"), date("2024-01-08"))

	row := result.Units[0]
	assertHours(t, "0", row.Capacity)
	assertHours(t, "0", row.Demand)
	assertHours(t, "0", row.Forecast)
	assertDecimal(t, "0", row.LoadPct)
}

func TestAggregate_PreservesUnitOrder(t *testing.T) {
	e := newEngine(t)
	s := multiUnitSnapshot()
	s.Units[0], s.Units[5] = s.Units[5], s.Units[0]

	result := e.Aggregate(s, firstWeek2024(), date("2024-01-08"))

	assert.Equal(t, []capacity.UnitID{"u5", "u1", "u2", "u3", "u4", "u0"}, result.UnitOrder())
}

func TestAggregate_Deterministic(t *testing.T) {
	// GIVEN: The same snapshot aggregated twice, sequentially and in parallel
	s := multiUnitSnapshot()
	e := newEngine(t)

	cfg := capacity.DefaultConfig()
	cfg.Workers = 4
	parallel, err := capacity.New(cfg)
	require.NoError(t, err)

	// WHEN
	first := e.Aggregate(s, firstWeek2024(), date("2024-01-03"))
	second := e.Aggregate(s, firstWeek2024(), date("2024-01-03"))
	third := parallel.Aggregate(s, firstWeek2024(), date("2024-01-03"))

	// THEN: Identical output
	assert.Equal(t, render(first), render(second))
	assert.Equal(t, render(first), render(third))
}

func TestAggregate_MemberOrderDoesNotMatter(t *testing.T) {
	e := newEngine(t)
	s := multiUnitSnapshot()
	reversed := multiUnitSnapshot()
	for i := range reversed.Units {
		m := reversed.Units[i].Members
		for l, r := 0, len(m)-1; l < r; l, r = l+1, r-1 {
			m[l], m[r] = m[r], m[l]
		}
	}

	assert.Equal(t,
		render(e.Aggregate(s, firstWeek2024(), date("2024-01-03"))),
		render(e.Aggregate(reversed, firstWeek2024(), date("2024-01-03"))))
}

func TestAggregate_HoursByActivity(t *testing.T) {
	// GIVEN: 42h on a commercial item, 6h tagged presale on the same item
	e := newEngine(t)
	s := scenarioSnapshot()
	s.TimeLog = append(s.TimeLog, capacity.TimeLogEntry{
		PersonID: "alice", WorkItemID: "w1", Date: date("2024-01-05"), Hours: hours(6), Type: capacity.ActivityPresale,
	})

	row := e.Aggregate(s, firstWeek2024(), date("2024-01-08")).Units[0]

	require.Len(t, row.ByActivity, 4)
	assert.Equal(t, capacity.ActivityCommercial, row.ByActivity[0].Type)
	assertHours(t, "42", row.ByActivity[0].Hours)
	assertDecimal(t, "0.875", row.ByActivity[0].Share)
	assertHours(t, "6", row.ByActivity[1].Hours)
	assertDecimal(t, "0.125", row.ByActivity[1].Share)
	assertHours(t, "0", row.ByActivity[2].Hours)
	assertHours(t, "0", row.ByActivity[3].Hours)
}

func TestAggregateWith_ActivityFilterMatchesHoursByActivity(t *testing.T) {
	// GIVEN: 42h untagged on a commercial item and 6h tagged presale
	e := newEngine(t)
	s := scenarioSnapshot()
	s.TimeLog = append(s.TimeLog, capacity.TimeLogEntry{
		PersonID: "alice", WorkItemID: "w1", Date: date("2024-01-05"), Hours: hours(6), Type: capacity.ActivityPresale,
	})

	// WHEN
	full := e.Aggregate(s, firstWeek2024(), date("2024-01-08")).Units[0]
	commercial := e.AggregateWith(s, firstWeek2024(), date("2024-01-08"), capacity.Options{
		Activities: capacity.ActivityFilter{capacity.ActivityCommercial},
	}).Units[0]
	noPresale := e.AggregateWith(s, firstWeek2024(), date("2024-01-08"), capacity.Options{
		Activities: capacity.ExcludingActivities([]capacity.ActivityType{capacity.ActivityCommercial}),
	}).Units[0]

	// THEN: Filtered demand equals the matching by-activity row; capacity is untouched
	assertHours(t, "48", full.Demand)
	assertHours(t, full.ByActivity[0].Hours.String(), commercial.Demand)
	assertHours(t, "42", commercial.Demand)
	assertHours(t, "35", commercial.Capacity)
	assert.Equal(t, capacity.StatusOver, commercial.Status)
	assertHours(t, "6", noPresale.Demand)
	assert.Equal(t, capacity.StatusUnder, noPresale.Status)
	assert.Equal(t, full.ByActivity, commercial.ByActivity)
}

// =============================================================================
// WARNINGS TESTS
// =============================================================================

func TestAggregate_MalformedRecordsSkippedWithWarnings(t *testing.T) {
	// GIVEN: A snapshot with one bad record of each kind
	e := newEngine(t)
	s := scenarioSnapshot()
	badNorm := norm(-2, 0, 0)
	s.Units[0].Members = append(s.Units[0].Members,
		person("", true, norm(8, 0, 0)),
		person("alice", true, norm(4, 2, 1)), // duplicate
		person("dave", true, badNorm),
	)
	s.WorkItems = append(s.WorkItems, capacity.WorkItem{Name: "Nameless"})
	s.TimeLog = append(s.TimeLog,
		capacity.TimeLogEntry{WorkItemID: "w1", Date: date("2024-01-02"), Hours: hours(3)},
		capacity.TimeLogEntry{PersonID: "alice", WorkItemID: "w1", Date: date("2024-01-02"), Hours: hours(-3)},
	)
	s.Plans = append(s.Plans,
		capacity.PlanEntry{ID: "orphan", Hours: hours(10)},
		capacity.PlanEntry{ID: "odds", PersonID: "alice", Hours: hours(10), Probability: decPtr("1.5")},
	)

	// WHEN
	result := e.Aggregate(s, firstWeek2024(), date("2024-01-08"))

	// THEN: Valid data still aggregates; every skip is reported
	row := result.Units[0]
	assertHours(t, "35", row.Capacity) // dave contributes no capacity
	assertHours(t, "42", row.Demand)
	assert.Equal(t, 2, row.ActiveMembers)
	assert.Len(t, result.Warnings, 8)
	assertDecimal(t, "0.5", row.DataQualityBreakdown.NormCoverage)
}

// =============================================================================
// PERSON BREAKDOWN / SERIES TESTS
// =============================================================================

func TestPersonBreakdown(t *testing.T) {
	e := newEngine(t)

	p, warnings, err := e.PersonBreakdown(scenarioSnapshot(), "alice", firstWeek2024(), date("2024-01-08"))

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, p.HasNorm)
	assertHours(t, "35", p.Capacity)
	assertHours(t, "42", p.Demand)
	assertHours(t, "42", p.Forecast)
	assert.Equal(t, capacity.StatusOver, p.Status)
}

func TestPersonBreakdown_NotFound(t *testing.T) {
	e := newEngine(t)

	_, _, err := e.PersonBreakdown(scenarioSnapshot(), "nobody", firstWeek2024(), date("2024-01-08"))

	assert.ErrorIs(t, err, generic.ErrPersonNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestWeeklySeries(t *testing.T) {
	// GIVEN: alice's logs in week one only, period covering two weeks
	e := newEngine(t)

	series, _ := e.WeeklySeries(scenarioSnapshot(), period("2024-01-01", "2024-01-14"))

	require.Len(t, series, 2)
	assertHours(t, "35", series[0].Capacity)
	assertHours(t, "42", series[0].Demand)
	assert.Equal(t, capacity.StatusOver, series[0].Status)
	assertHours(t, "35", series[1].Capacity)
	assertHours(t, "0", series[1].Demand)
	assert.Equal(t, capacity.StatusUnder, series[1].Status)
}
