package capacity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// CAPACITY TESTS
// =============================================================================

func TestCapacity_WorkingDaysTimesDailyHours(t *testing.T) {
	// GIVEN: Norm 4 commercial + 2 presale + 1 internal, Mon-Fri
	e := newEngine(t)
	p := person("alice", true, norm(4, 2, 1))

	// WHEN: Capacity over the first week of 2024
	got := e.Capacity(p, firstWeek2024(), weekendCalendar())

	// THEN: 5 days × 7h
	assertHours(t, "35", got)
	assertHours(t, "7", capacity.DailyCapacity(p))
}

func TestCapacity_NoNorm_Zero(t *testing.T) {
	e := newEngine(t)
	p := person("bob", true)

	assert.True(t, e.Capacity(p, firstWeek2024(), weekendCalendar()).IsZero())
	assert.True(t, capacity.DailyCapacity(p).IsZero())
}

func TestCapacity_ShortDayReduced(t *testing.T) {
	// GIVEN: Friday 01-05 is a pre-holiday short day
	e := newEngine(t)
	cal := weekendCalendar()
	cal[date("2024-01-05")] = generic.CalendarDay{Date: date("2024-01-05"), Workday: true, ShortDay: true}
	p := person("alice", true, norm(8, 0, 0))

	// THEN: One hour less than 5 × 8h
	assertHours(t, "39", e.Capacity(p, firstWeek2024(), cal))
}

func TestCapacity_ShortDayReductionDisabled(t *testing.T) {
	cfg := capacity.DefaultConfig()
	cfg.ShortDayReduction = generic.ZeroHours()
	e, err := capacity.New(cfg)
	assert.NoError(t, err)

	cal := weekendCalendar()
	cal[date("2024-01-05")] = generic.CalendarDay{Date: date("2024-01-05"), Workday: true, ShortDay: true}

	assertHours(t, "40", e.Capacity(person("alice", true, norm(8, 0, 0)), firstWeek2024(), cal))
}

func TestCapacity_ShortDayNeverNegative(t *testing.T) {
	// GIVEN: Half-hour norm and a one-hour reduction on a short day
	e := newEngine(t)
	cal := generic.NewCalendar(generic.CalendarDay{Date: date("2024-01-02"), Workday: true, ShortDay: true})
	p := person("alice", true, norm(0.5, 0, 0))

	// THEN: The short day contributes zero, not -0.5
	assertHours(t, "0", e.Capacity(p, period("2024-01-02", "2024-01-02"), cal))
}

func TestUnitCapacity_OnlyActiveMembers(t *testing.T) {
	e := newEngine(t)
	members := []capacity.Contributor{
		person("alice", true, norm(4, 2, 1)),
		person("bob", false, norm(8, 0, 0)),
	}

	assertHours(t, "35", e.UnitCapacity(members, firstWeek2024(), weekendCalendar()))
}

// =============================================================================
// DEMAND TESTS
// =============================================================================

func TestDemand_SumsPersonEntriesInRange(t *testing.T) {
	log := []capacity.TimeLogEntry{
		logEntry("alice", "w1", "2023-12-31", 5), // before
		logEntry("alice", "w1", "2024-01-01", 8),
		logEntry("alice", "w2", "2024-01-07", 1.25),
		logEntry("alice", "w1", "2024-01-08", 5), // after
		logEntry("bob", "w1", "2024-01-02", 8),
	}

	got := capacity.Demand("alice", firstWeek2024(), log, nil, nil)

	assertHours(t, "9.25", got)
}

func TestDemand_ActivityFilter(t *testing.T) {
	log := []capacity.TimeLogEntry{
		{PersonID: "alice", Date: date("2024-01-02"), Hours: hours(3), Type: capacity.ActivityPresale},
		{PersonID: "alice", Date: date("2024-01-03"), Hours: hours(5), Type: capacity.ActivityCommercial},
		{PersonID: "alice", Date: date("2024-01-04"), Hours: hours(2), Type: capacity.ActivityInternal},
	}

	filter := capacity.ActivityFilter{capacity.ActivityPresale, capacity.ActivityInternal}

	assertHours(t, "5", capacity.Demand("alice", firstWeek2024(), log, filter, nil))
	assertHours(t, "10", capacity.Demand("alice", firstWeek2024(), log, nil, nil))
}

func TestDemand_FilterFallsBackToWorkItemType(t *testing.T) {
	// GIVEN: Untagged entries on a commercial and a presale item, one unknown item
	items := map[capacity.WorkItemID]capacity.WorkItem{
		"atlas": {ID: "atlas", Type: capacity.ActivityCommercial},
		"bid":   {ID: "bid", Type: capacity.ActivityPresale},
	}
	log := []capacity.TimeLogEntry{
		logEntry("alice", "atlas", "2024-01-02", 6),
		logEntry("alice", "bid", "2024-01-03", 2),
		logEntry("alice", "ghost", "2024-01-04", 1),
		{PersonID: "alice", WorkItemID: "atlas", Date: date("2024-01-05"), Hours: hours(4), Type: capacity.ActivityInternal},
	}

	// WHEN / THEN: The item type classifies untagged entries; own tags win
	assertHours(t, "6", capacity.Demand("alice", firstWeek2024(), log, capacity.ActivityFilter{capacity.ActivityCommercial}, items))
	assertHours(t, "2", capacity.Demand("alice", firstWeek2024(), log, capacity.ActivityFilter{capacity.ActivityPresale}, items))
	assertHours(t, "4", capacity.Demand("alice", firstWeek2024(), log, capacity.ActivityFilter{capacity.ActivityInternal}, items))
	assertHours(t, "1", capacity.Demand("alice", firstWeek2024(), log, capacity.ActivityFilter{capacity.ActivityOther}, items))
	assertHours(t, "13", capacity.Demand("alice", firstWeek2024(), log, nil, items))
}

func TestExcludingActivities(t *testing.T) {
	assert.Nil(t, capacity.ExcludingActivities(nil))
	assert.Equal(t,
		capacity.ActivityFilter{capacity.ActivityCommercial, capacity.ActivityInternal},
		capacity.ExcludingActivities([]capacity.ActivityType{capacity.ActivityPresale, capacity.ActivityOther}))
}

func TestDemand_EmptyPeriod(t *testing.T) {
	log := []capacity.TimeLogEntry{logEntry("alice", "w1", "2024-01-02", 8)}

	assert.True(t, capacity.Demand("alice", period("2024-01-05", "2024-01-01"), log, nil, nil).IsZero())
}

func TestUnitDemand_SkipsInactive(t *testing.T) {
	members := []capacity.Contributor{
		person("alice", true, norm(8, 0, 0)),
		person("bob", false, norm(8, 0, 0)),
	}
	log := []capacity.TimeLogEntry{
		logEntry("alice", "w1", "2024-01-02", 8),
		logEntry("bob", "w1", "2024-01-02", 8),
	}

	assertHours(t, "8", capacity.UnitDemand(members, firstWeek2024(), log, nil, nil))
}
