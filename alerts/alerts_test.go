package alerts_test

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/alerts"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func firstWeek() generic.Period {
	return generic.NewPeriod(date("2024-01-01"), date("2024-01-07"))
}

func fullTime() []capacity.Norm {
	return []capacity.Norm{{ID: "n1", Commercial: generic.NewHours(8), Weekdays: capacity.WeekdaysMonFri}}
}

func entry(person, item, day string, h float64) capacity.TimeLogEntry {
	return capacity.TimeLogEntry{PersonID: capacity.PersonID(person), WorkItemID: capacity.WorkItemID(item), Date: date(day), Hours: generic.NewHours(h)}
}

// alertSnapshot: Alice logs 48h against 40h; Bob logs 8h and is away
// Thursday and Friday; Dave has no norm; the empty unit only holds an
// inactive person; the Acme bid has neither dates nor plans.
func alertSnapshot() capacity.Snapshot {
	start, end := date("2023-12-01"), date("2024-03-31")
	return capacity.Snapshot{
		Units: []capacity.Unit{
			{ID: "delivery", Name: "Delivery", Members: []capacity.Contributor{
				capacity.Person{ID: "alice", Name: "Alice", Active: true, Norms: fullTime()},
			}},
			{ID: "presale", Name: "Presale", Members: []capacity.Contributor{
				capacity.Person{ID: "bob", Name: "Bob", Active: true, Norms: fullTime(), Vacations: []capacity.VacationRange{
					{Start: date("2024-01-04"), End: date("2024-01-05"), Type: capacity.VacationPaid},
				}},
				capacity.Person{ID: "dave", Name: "Dave", Active: true},
			}},
			{ID: "empty", Name: "Empty", Members: []capacity.Contributor{
				capacity.Person{ID: "carol", Name: "Carol", Active: false},
			}},
		},
		WorkItems: []capacity.WorkItem{
			{ID: "atlas", Name: "Atlas", Type: capacity.ActivityCommercial, Active: true, Start: &start, End: &end, Members: []capacity.PersonID{"alice"}},
			{ID: "bid", Name: "Acme bid", Type: capacity.ActivityPresale, Active: true, Members: []capacity.PersonID{"bob"}},
			{ID: "old", Name: "Old", Type: capacity.ActivityCommercial, Active: false},
		},
		TimeLog: []capacity.TimeLogEntry{
			entry("alice", "atlas", "2024-01-01", 10),
			entry("alice", "atlas", "2024-01-02", 10),
			entry("alice", "atlas", "2024-01-03", 10),
			entry("alice", "atlas", "2024-01-04", 10),
			entry("alice", "atlas", "2024-01-05", 8),
			entry("bob", "bid", "2024-01-02", 8),
		},
		Plans: []capacity.PlanEntry{
			{ID: "p1", PersonID: "alice", WorkItemID: "atlas", Hours: generic.NewHours(10)},
		},
		Calendar: generic.WeekendCalendar(firstWeek()),
	}
}

func generate(t *testing.T, th func(*alerts.Thresholds)) []alerts.Alert {
	t.Helper()
	engine, err := capacity.New(capacity.DefaultConfig())
	require.NoError(t, err)
	s := alertSnapshot()
	result := engine.Aggregate(s, firstWeek(), date("2024-01-08"))

	thresholds := alerts.DefaultThresholds(engine.Config())
	thresholds.LowQuality = decimal.Zero
	if th != nil {
		th(&thresholds)
	}
	return alerts.Generate(result, s, thresholds)
}

func byID(list []alerts.Alert) map[string]alerts.Alert {
	return lo.KeyBy(list, func(a alerts.Alert) string { return a.ID })
}

func TestGenerate_Rules(t *testing.T) {
	// GIVEN / WHEN
	got := byID(generate(t, nil))

	// THEN
	tests := []struct {
		id       string
		severity alerts.Severity
		category alerts.Category
	}{
		{"unit_critical_overload:delivery:2024-01-01", alerts.SeverityCritical, alerts.CategoryLoad},
		{"person_critical_overload:alice:2024-01-01", alerts.SeverityCritical, alerts.CategoryLoad},
		{"person_forecast_overload:alice:2024-01-01", alerts.SeverityCritical, alerts.CategoryForecast},
		{"person_underload:bob:2024-01-01", alerts.SeverityWarning, alerts.CategoryLoad},
		{"person_vacation:bob:2024-01-01", alerts.SeverityInfo, alerts.CategoryVacation},
		{"item_no_dates:bid:2024-01-01", alerts.SeverityCritical, alerts.CategoryDataQuality},
		{"item_no_plans:bid:2024-01-01", alerts.SeverityCritical, alerts.CategoryProject},
		{"persons_without_norm:system:2024-01-01", alerts.SeverityWarning, alerts.CategoryNorms},
		{"empty_units:system:2024-01-01", alerts.SeverityWarning, alerts.CategoryDataQuality},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			a, ok := got[tt.id]
			require.True(t, ok, "missing %s", tt.id)
			assert.Equal(t, tt.severity, a.Severity)
			assert.Equal(t, tt.category, a.Category)
			assert.NotEmpty(t, a.Message)
			assert.Equal(t, firstWeek(), a.Period)
		})
	}
}

func TestGenerate_Values(t *testing.T) {
	got := byID(generate(t, nil))

	overload := got["unit_critical_overload:delivery:2024-01-01"]
	assert.Equal(t, "1.2", overload.Value.String())
	require.NotNil(t, overload.Threshold)
	assert.Equal(t, "1.1", overload.Threshold.String())
	assert.Contains(t, overload.Message, "120%")

	assert.Equal(t, "2", got["person_vacation:bob:2024-01-01"].Value.String())
	assert.Equal(t, "1", got["persons_without_norm:system:2024-01-01"].Value.String())
	assert.Nil(t, got["item_no_dates:bid:2024-01-01"].Threshold)
}

func TestGenerate_FirstMatchingBandOnly(t *testing.T) {
	got := byID(generate(t, nil))

	// Critical overload suppresses the plain overload warning.
	assert.NotContains(t, got, "unit_overload:delivery:2024-01-01")
	assert.NotContains(t, got, "person_overload:alice:2024-01-01")
	// Nothing on inactive or fully described items, nor on idle people.
	assert.NotContains(t, got, "item_no_dates:old:2024-01-01")
	assert.NotContains(t, got, "item_no_plans:atlas:2024-01-01")
	assert.NotContains(t, got, "person_underload:dave:2024-01-01")
	assert.NotContains(t, got, "person_forecast_overload:dave:2024-01-01")
}

func TestGenerate_WarningBandBelowCritical(t *testing.T) {
	// GIVEN: Critical raised above Alice's 1.2 load
	got := byID(generate(t, func(th *alerts.Thresholds) { th.CriticalOverload = decimal.RequireFromString("1.5") }))

	// THEN
	assert.NotContains(t, got, "unit_critical_overload:delivery:2024-01-01")
	assert.Equal(t, alerts.SeverityWarning, got["unit_overload:delivery:2024-01-01"].Severity)
	assert.Equal(t, alerts.SeverityWarning, got["person_overload:alice:2024-01-01"].Severity)
}

func TestGenerate_LowQuality(t *testing.T) {
	// GIVEN: Any imperfect score alerts; the bid's missing dates lower every unit
	got := byID(generate(t, func(th *alerts.Thresholds) { th.LowQuality = decimal.NewFromInt(1) }))

	// THEN: Units with active members only
	a, ok := got["unit_low_quality:delivery:2024-01-01"]
	require.True(t, ok)
	assert.Equal(t, alerts.CategoryDataQuality, a.Category)
	assert.True(t, a.Value.LessThan(decimal.NewFromInt(1)))
	assert.NotContains(t, got, "unit_low_quality:empty:2024-01-01")
}

func TestGenerate_OrderedBySeverityThenID(t *testing.T) {
	list := generate(t, nil)

	rank := map[alerts.Severity]int{alerts.SeverityCritical: 0, alerts.SeverityWarning: 1, alerts.SeverityInfo: 2}
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if rank[prev.Severity] == rank[cur.Severity] {
			assert.Less(t, prev.ID, cur.ID)
		} else {
			assert.Less(t, rank[prev.Severity], rank[cur.Severity])
		}
	}
	assert.Equal(t, generate(t, nil), list)
}

func TestGenerate_EmptyResult(t *testing.T) {
	th := alerts.DefaultThresholds(capacity.DefaultConfig())

	assert.Empty(t, alerts.Generate(capacity.Result{Period: firstWeek()}, capacity.Snapshot{}, th))
}

func TestThresholds_Validate(t *testing.T) {
	th := alerts.DefaultThresholds(capacity.DefaultConfig())
	require.NoError(t, th.Validate())
	assert.Equal(t, "1", th.Overload.String())
	assert.Equal(t, "0.7", th.Underload.String())

	negative := th
	negative.Underload = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), generic.ErrInvalidConfig)

	tooHigh := th
	tooHigh.LowQuality = decimal.RequireFromString("1.5")
	assert.ErrorIs(t, tooHigh.Validate(), generic.ErrInvalidConfig)
}

// =============================================================================
// TRACKER
// =============================================================================

func TestTracker_ResolveExpiresAfterTTL(t *testing.T) {
	// GIVEN: An alert resolved now
	tr := alerts.NewTracker(time.Hour)
	clock := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	alerts.SetTrackerClock(tr, func() time.Time { return clock })
	list := []alerts.Alert{{ID: "a"}, {ID: "b"}}
	tr.Resolve("a")

	// WHEN / THEN: Hidden within the TTL
	got := tr.Apply(list)
	assert.True(t, got[0].Resolved)
	assert.False(t, got[1].Resolved)
	assert.False(t, list[0].Resolved)

	// WHEN / THEN: Shown again once it expires
	clock = clock.Add(2 * time.Hour)
	assert.False(t, tr.Apply(list)[0].Resolved)
	assert.False(t, tr.Unresolve("a"))
}

func TestTracker_Unresolve(t *testing.T) {
	tr := alerts.NewTracker(0)
	assert.Equal(t, alerts.DefaultResolveTTL, tr.TTL)

	tr.Resolve("a")
	assert.True(t, tr.Unresolve("a"))
	assert.False(t, tr.Apply([]alerts.Alert{{ID: "a"}})[0].Resolved)
}
