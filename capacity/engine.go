package capacity

import (
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// ENGINE - Aggregation across units
// =============================================================================

// Engine holds validated configuration and nothing else; every method is a
// pure function of its arguments and safe for concurrent use.
type Engine struct {
	cfg        Config
	classifier Classifier
	scorer     *Scorer
}

// New validates cfg. Configuration errors are the only fatal errors the
// engine reports.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		scorer:     NewScorer(cfg),
	}, nil
}

func (e *Engine) Config() Config         { return e.cfg }
func (e *Engine) Classifier() Classifier { return e.classifier }
func (e *Engine) Scorer() *Scorer        { return e.scorer }

// =============================================================================
// RESULT RECORDS
// =============================================================================

// PersonAggregate is one contributor's figures for the period.
type PersonAggregate struct {
	PersonID     PersonID
	Name         string
	Hypothetical bool
	HasNorm      bool
	WorkingDays  int
	Capacity     generic.Hours
	Demand       generic.Hours
	Forecast     generic.Hours
	LoadPct      decimal.Decimal
	Status       LoadStatus
	ByActivity   []ActivityShare
}

// UnitAggregate is one row of the aggregate table.
type UnitAggregate struct {
	UnitID               UnitID
	UnitName             string
	ActiveMembers        int
	Capacity             generic.Hours
	Demand               generic.Hours
	Forecast             generic.Hours
	LoadPct              decimal.Decimal
	Status               LoadStatus
	DataQuality          decimal.Decimal
	DataQualityBreakdown QualityBreakdown
	ByActivity           []ActivityShare
	Members              []PersonAggregate
}

// CompanyKPIs summarizes all units.
type CompanyKPIs struct {
	AvgLoad             decimal.Decimal
	ActiveMemberCount   int
	ActiveWorkItemCount int
	AvgDataQuality      decimal.Decimal
}

// Result is the output of one aggregation call.
type Result struct {
	Period   generic.Period
	AsOf     generic.TimePoint
	Units    []UnitAggregate
	KPIs     CompanyKPIs
	Warnings []string
}

// =============================================================================
// AGGREGATE
// =============================================================================

// Options narrows an aggregation.
type Options struct {
	// Activities limits Demand, and with it load and status, to these
	// activity types. Capacity, forecast and the by-activity split are not
	// filtered. Empty means all.
	Activities ActivityFilter
}

// Aggregate computes one row per unit in the snapshot's unit order plus
// company KPIs. Members are summed in ID order, so identical snapshots give
// identical results regardless of Config.Workers.
func (e *Engine) Aggregate(s Snapshot, period generic.Period, asOf generic.TimePoint) Result {
	return e.AggregateWith(s, period, asOf, Options{})
}

// AggregateWith is Aggregate under opts.
func (e *Engine) AggregateWith(s Snapshot, period generic.Period, asOf generic.TimePoint, opts Options) Result {
	clean, warnings := sanitize(s)
	idx := newIndex(clean)

	rows := make([]UnitAggregate, len(clean.Units))
	e.forEachUnit(len(clean.Units), func(i int) {
		rows[i] = e.aggregateUnit(clean.Units[i], clean, idx, period, asOf, opts)
	})

	return Result{
		Period:   period,
		AsOf:     asOf,
		Units:    rows,
		KPIs:     e.kpis(rows, idx),
		Warnings: warnings,
	}
}

// forEachUnit runs fn for 0..n-1, concurrently when Workers > 1. Each call
// writes only its own slot.
func (e *Engine) forEachUnit(n int, fn func(i int)) {
	if e.cfg.Workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func (e *Engine) aggregateUnit(u Unit, s Snapshot, idx *index, period generic.Period, asOf generic.TimePoint, opts Options) UnitAggregate {
	active := activeSorted(u.Members)

	row := UnitAggregate{
		UnitID:        u.ID,
		UnitName:      u.Name,
		ActiveMembers: len(active),
		Capacity:      generic.ZeroHours(),
		Demand:        generic.ZeroHours(),
		Forecast:      generic.ZeroHours(),
	}

	var unitLog []TimeLogEntry
	for _, c := range active {
		p := e.personAggregate(c, s.Calendar, idx, period, asOf, opts)
		row.Members = append(row.Members, p)
		row.Capacity = row.Capacity.Add(p.Capacity)
		row.Demand = row.Demand.Add(p.Demand)
		row.Forecast = row.Forecast.Add(p.Forecast)
		unitLog = append(unitLog, idx.logByPerson[c.ContributorID()]...)
	}

	row.LoadPct, row.Status = e.classifier.Classify(row.Demand, row.Capacity)
	row.ByActivity = hoursByActivity(unitLog, period, idx.items)

	quality := e.scorer.Score(QualityInput{
		Period:    period,
		Persons:   active,
		WorkItems: idx.activeItems,
		TimeLog:   unitLog,
		Plans:     s.Plans,
		Calendar:  s.Calendar,
	})
	row.DataQuality = quality.Score
	row.DataQualityBreakdown = quality.Breakdown
	return row
}

func (e *Engine) personAggregate(c Contributor, cal generic.Calendar, idx *index, period generic.Period, asOf generic.TimePoint, opts Options) PersonAggregate {
	id := c.ContributorID()
	_, hasNorm := c.CurrentNorm()
	log := idx.logByPerson[id]

	p := PersonAggregate{
		PersonID:     id,
		Name:         c.DisplayName(),
		Hypothetical: c.IsHypothetical(),
		HasNorm:      hasNorm,
		WorkingDays:  WorkingDays(c, period, cal),
		Capacity:     e.Capacity(c, period, cal),
		Demand:       Demand(id, period, log, opts.Activities, idx.items),
		Forecast:     e.forecast(c, period, asOf, cal, idx),
		ByActivity:   hoursByActivity(log, period, idx.items),
	}
	p.LoadPct, p.Status = e.classifier.Classify(p.Demand, p.Capacity)
	return p
}

func (e *Engine) kpis(rows []UnitAggregate, idx *index) CompanyKPIs {
	k := CompanyKPIs{
		AvgLoad:             decimal.Zero,
		ActiveMemberCount:   len(idx.activePersons),
		ActiveWorkItemCount: len(idx.activeItems),
		AvgDataQuality:      decimal.Zero,
	}
	if len(rows) == 0 {
		return k
	}

	n := decimal.NewFromInt(int64(len(rows)))
	k.AvgLoad = decimal.Sum(decimal.Zero, lo.Map(rows, func(r UnitAggregate, _ int) decimal.Decimal { return r.LoadPct })...).Div(n)
	k.AvgDataQuality = decimal.Sum(decimal.Zero, lo.Map(rows, func(r UnitAggregate, _ int) decimal.Decimal { return r.DataQuality })...).
		Div(n).
		Round(e.cfg.QualityPrecision)
	return k
}

// =============================================================================
// PERSON BREAKDOWN
// =============================================================================

// PersonBreakdown returns the figures of one contributor found in any unit
// of the snapshot, active or not.
func (e *Engine) PersonBreakdown(s Snapshot, id PersonID, period generic.Period, asOf generic.TimePoint) (PersonAggregate, []string, error) {
	clean, warnings := sanitize(s)
	idx := newIndex(clean)

	for _, c := range clean.Contributors() {
		if c.ContributorID() == id {
			return e.personAggregate(c, clean.Calendar, idx, period, asOf, Options{}), warnings, nil
		}
	}
	return PersonAggregate{}, warnings, generic.ErrPersonNotFound
}

// UnitOrder returns unit IDs in their result order.
func (r Result) UnitOrder() []UnitID {
	return lo.Map(r.Units, func(u UnitAggregate, _ int) UnitID { return u.UnitID })
}
