package capacity

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// FORECAST - Logged so far plus planned for the rest of the period
// =============================================================================

// The period is split at asOf ("today"):
//
//	elapsed   = [start, asOf-1]    logged hours (demand)
//	remaining = [max(start, asOf), end]  planned hours
//
// Each relevant plan is prorated over the contributor's working days in the
// plan window, and the share falling into the remaining window is counted.
// Relevant plans are the contributor's own plans and the work-item-level
// plans of active items the contributor is a member of, split evenly across
// the item's active members. Plans on presale items are scaled by their
// probability. Plans on inactive or unknown items are ignored.

// Forecast projects the contributor's hours for the period.
func (e *Engine) Forecast(c Contributor, period generic.Period, asOf generic.TimePoint, s Snapshot) generic.Hours {
	return e.forecast(c, period, asOf, s.Calendar, newIndex(s))
}

func (e *Engine) forecast(c Contributor, period generic.Period, asOf generic.TimePoint, cal generic.Calendar, idx *index) generic.Hours {
	if period.IsEmpty() {
		return generic.ZeroHours()
	}
	id := c.ContributorID()

	elapsed := generic.Period{Start: period.Start, End: generic.MinTime(period.End, asOf.AddDays(-1))}
	total := Demand(id, elapsed, idx.logByPerson[id], nil, idx.items)

	remaining := generic.Period{Start: generic.MaxTime(period.Start, asOf), End: period.End}
	if remaining.IsEmpty() {
		return total
	}

	for _, p := range idx.plansByPerson[id] {
		total = total.Add(e.plannedShare(c, p, 1, period, remaining, cal, idx))
	}
	for _, itemID := range idx.memberItems[id] {
		members := len(idx.itemMembers[itemID])
		for _, p := range idx.itemPlans[itemID] {
			total = total.Add(e.plannedShare(c, p, members, period, remaining, cal, idx))
		}
	}
	return total
}

// plannedShare is the part of plan p that falls on the contributor's
// working days in the remaining window, divided across `split` members.
func (e *Engine) plannedShare(c Contributor, p PlanEntry, split int, period, remaining generic.Period, cal generic.Calendar, idx *index) generic.Hours {
	weight := decimal.NewFromInt(1)
	window := period

	if p.WorkItemID != "" {
		item, ok := idx.activeItem(p.WorkItemID)
		if !ok {
			return generic.ZeroHours()
		}
		window = itemWindow(item, period)
		if item.Type == ActivityPresale && p.Probability != nil {
			weight = *p.Probability
		}
	}
	if p.Period != nil {
		window = *p.Period
	}

	planDays := WorkingDays(c, window, cal)
	if planDays == 0 || split < 1 {
		return generic.ZeroHours()
	}
	remDays := WorkingDays(c, window.Intersect(remaining), cal)
	if remDays == 0 {
		return generic.ZeroHours()
	}

	return p.Hours.
		Mul(weight).
		MulInt(remDays).
		Div(decimal.NewFromInt(int64(planDays * split)))
}

// itemWindow uses the item's dates where set and the analysis period
// otherwise.
func itemWindow(item WorkItem, period generic.Period) generic.Period {
	window := period
	if item.Start != nil {
		window.Start = *item.Start
	}
	if item.End != nil {
		window.End = *item.End
	}
	return window
}

// CalendarSpan widens the period to every plan window, because plans are
// prorated over all working days of their window and not only those inside
// the period. Stores load calendar days for this span.
func CalendarSpan(period generic.Period, items []WorkItem, plans []PlanEntry) generic.Period {
	if period.IsEmpty() {
		return period
	}
	byID := lo.KeyBy(items, func(w WorkItem) WorkItemID { return w.ID })
	span := period
	for _, p := range plans {
		window := period
		if item, ok := byID[p.WorkItemID]; ok {
			window = itemWindow(item, period)
		}
		if p.Period != nil {
			window = *p.Period
		}
		if window.IsEmpty() {
			continue
		}
		span.Start = generic.MinTime(span.Start, window.Start)
		span.End = generic.MaxTime(span.End, window.End)
	}
	return span
}

// UnitForecast sums Forecast over the active contributors in ID order.
func (e *Engine) UnitForecast(members []Contributor, period generic.Period, asOf generic.TimePoint, s Snapshot) generic.Hours {
	idx := newIndex(s)
	total := generic.ZeroHours()
	for _, c := range activeSorted(members) {
		total = total.Add(e.forecast(c, period, asOf, s.Calendar, idx))
	}
	return total
}
