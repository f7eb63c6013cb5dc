package whatif

import (
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// UnitDelta is scenario minus baseline for one unit.
type UnitDelta struct {
	UnitID   capacity.UnitID
	Baseline capacity.UnitAggregate
	Scenario capacity.UnitAggregate
	Capacity generic.Hours
	Demand   generic.Hours
	Forecast generic.Hours
	LoadPct  decimal.Decimal
}

// Comparison holds both aggregation results and per-unit deltas in unit order.
type Comparison struct {
	Baseline capacity.Result
	Scenario capacity.Result
	Units    []UnitDelta
}

// Compare aggregates the baseline and the scenario over the same period
// under the same options.
func Compare(e *capacity.Engine, s capacity.Snapshot, sc Scenario, period generic.Period, asOf generic.TimePoint, opts capacity.Options) (Comparison, error) {
	overlaid, err := sc.Apply(s)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{
		Baseline: e.AggregateWith(s, period, asOf, opts),
		Scenario: e.AggregateWith(overlaid, period, asOf, opts),
	}
	// Apply never adds or reorders units, so rows line up by index.
	for i, base := range cmp.Baseline.Units {
		what := cmp.Scenario.Units[i]
		cmp.Units = append(cmp.Units, UnitDelta{
			UnitID:   base.UnitID,
			Baseline: base,
			Scenario: what,
			Capacity: what.Capacity.Sub(base.Capacity),
			Demand:   what.Demand.Sub(base.Demand),
			Forecast: what.Forecast.Sub(base.Forecast),
			LoadPct:  what.LoadPct.Sub(base.LoadPct),
		})
	}
	return cmp, nil
}
