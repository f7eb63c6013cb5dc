package capacity

import (
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// WeekLoad is company-wide load for one Monday-anchored week.
type WeekLoad struct {
	Week     generic.Period
	Capacity generic.Hours
	Demand   generic.Hours
	LoadPct  decimal.Decimal
	Status   LoadStatus
}

// WeeklySeries splits the period into weeks clipped to the period and
// computes capacity, demand, and load over the distinct active contributors
// of all units.
func (e *Engine) WeeklySeries(s Snapshot, period generic.Period) ([]WeekLoad, []string) {
	clean, warnings := sanitize(s)
	idx := newIndex(clean)
	contributors := activeSorted(clean.Contributors())

	var series []WeekLoad
	for _, week := range period.Weeks() {
		w := WeekLoad{Week: week, Capacity: generic.ZeroHours(), Demand: generic.ZeroHours()}
		for _, c := range contributors {
			id := c.ContributorID()
			w.Capacity = w.Capacity.Add(e.Capacity(c, week, clean.Calendar))
			w.Demand = w.Demand.Add(Demand(id, week, idx.logByPerson[id], nil, idx.items))
		}
		w.LoadPct, w.Status = e.classifier.Classify(w.Demand, w.Capacity)
		series = append(series, w)
	}
	return series, warnings
}
