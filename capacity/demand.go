package capacity

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// DEMAND - Hours actually logged
// =============================================================================

// ActivityFilter narrows demand to some activity types. A nil or empty
// filter allows everything.
type ActivityFilter []ActivityType

func (f ActivityFilter) Allows(t ActivityType) bool {
	return len(f) == 0 || lo.Contains(f, t)
}

// ExcludingActivities allows every known type except the excluded ones.
// Nothing excluded gives the allow-all filter.
func ExcludingActivities(excluded []ActivityType) ActivityFilter {
	if len(excluded) == 0 {
		return nil
	}
	return lo.Without(ActivityTypes, excluded...)
}

// Demand sums the hours of the person's entries dated inside the period.
// Under a filter an entry is matched on its effective type: its own tag,
// else the type of its work item in items, else "other". items may be nil.
func Demand(personID PersonID, period generic.Period, log []TimeLogEntry, filter ActivityFilter, items map[WorkItemID]WorkItem) generic.Hours {
	total := generic.ZeroHours()
	if period.IsEmpty() {
		return total
	}
	for _, e := range log {
		if e.PersonID != personID || !period.Contains(e.Date) {
			continue
		}
		if len(filter) > 0 && !filter.Allows(effectiveType(e, items)) {
			continue
		}
		total = total.Add(e.Hours)
	}
	return total
}

// UnitDemand sums Demand over the active contributors in ID order.
func UnitDemand(members []Contributor, period generic.Period, log []TimeLogEntry, filter ActivityFilter, items map[WorkItemID]WorkItem) generic.Hours {
	byPerson := lo.GroupBy(log, func(e TimeLogEntry) PersonID { return e.PersonID })
	total := generic.ZeroHours()
	for _, c := range activeSorted(members) {
		total = total.Add(Demand(c.ContributorID(), period, byPerson[c.ContributorID()], filter, items))
	}
	return total
}

// =============================================================================
// HOURS BY ACTIVITY - Demand split by activity type
// =============================================================================

// ActivityShare is the demand logged under one activity type.
type ActivityShare struct {
	Type  ActivityType
	Hours generic.Hours
	// Share of total demand in [0,1]; zero when nothing was logged.
	Share decimal.Decimal
}

// effectiveType resolves an entry's activity: its own tag, else its work
// item's type, else "other".
func effectiveType(e TimeLogEntry, items map[WorkItemID]WorkItem) ActivityType {
	if e.Type.IsKnown() {
		return e.Type
	}
	if item, ok := items[e.WorkItemID]; ok && item.Type.IsKnown() {
		return item.Type
	}
	return ActivityOther
}

// hoursByActivity returns one share per known activity type in reporting
// order, including zero rows.
func hoursByActivity(entries []TimeLogEntry, period generic.Period, items map[WorkItemID]WorkItem) []ActivityShare {
	sums := make(map[ActivityType]generic.Hours, len(ActivityTypes))
	total := generic.ZeroHours()
	for _, e := range entries {
		if !period.Contains(e.Date) {
			continue
		}
		t := effectiveType(e, items)
		sums[t] = sums[t].Add(e.Hours)
		total = total.Add(e.Hours)
	}

	shares := make([]ActivityShare, 0, len(ActivityTypes))
	for _, t := range ActivityTypes {
		h := sums[t].Add(generic.ZeroHours())
		shares = append(shares, ActivityShare{
			Type:  t,
			Hours: h,
			Share: generic.Ratio(h.Value, total.Value, decimal.Zero),
		})
	}
	return shares
}
