package capacity

import (
	"github.com/samber/lo"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// CAPACITY - Available hours from working days and the norm
// =============================================================================

// DailyCapacity is the norm's commercial+presale+internal hours, or zero
// when the contributor has no norm.
func DailyCapacity(c Contributor) generic.Hours {
	norm, ok := c.CurrentNorm()
	if !ok {
		return generic.ZeroHours()
	}
	return norm.DailyHours()
}

// Capacity returns workingDays × dailyHours for the period. Pre-holiday
// short days count dailyHours minus the configured reduction, never below
// zero.
func (e *Engine) Capacity(c Contributor, period generic.Period, cal generic.Calendar) generic.Hours {
	daily := DailyCapacity(c)
	if daily.IsZero() {
		return generic.ZeroHours()
	}

	dates := WorkingDates(c, period, cal)
	total := daily.MulInt(len(dates))

	if e.cfg.ShortDayReduction.IsZero() {
		return total
	}
	reduction := e.cfg.ShortDayReduction.Min(daily)
	for _, day := range dates {
		if cd, ok := cal.Lookup(day); ok && cd.ShortDay {
			total = total.Sub(reduction)
		}
	}
	return total
}

// UnitCapacity sums Capacity over the active contributors in ID order.
func (e *Engine) UnitCapacity(members []Contributor, period generic.Period, cal generic.Calendar) generic.Hours {
	total := generic.ZeroHours()
	for _, c := range activeSorted(members) {
		total = total.Add(e.Capacity(c, period, cal))
	}
	return total
}

// activeSorted returns the active contributors sorted by ID, leaving the
// input untouched.
func activeSorted(members []Contributor) []Contributor {
	active := lo.Filter(members, func(m Contributor, _ int) bool { return m.IsActive() })
	sortContributors(active)
	return active
}
