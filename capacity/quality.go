package capacity

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// DATA QUALITY - Weighted completeness and freshness score
// =============================================================================

// Sub-scores, each in [0,1], zero denominators scoring 1:
//
//	norm coverage      active persons with a current norm / active persons
//	fact coverage      (person, working day) cells with a time-log entry / all cells
//	plan coverage      mean of (active items with a plan / active items)
//	                   and (active persons with a plan / active persons)
//	item completeness  mean fraction of {name, start, end, type} set per active item
//	freshness          period days with a log entry or plan recorded / period days
//
// A unit with no active persons scores 1 on every metric.

// QualityBreakdown holds the five sub-scores.
type QualityBreakdown struct {
	NormCoverage     decimal.Decimal
	FactCoverage     decimal.Decimal
	PlanCoverage     decimal.Decimal
	ItemCompleteness decimal.Decimal
	Freshness        decimal.Decimal
}

type QualityResult struct {
	Score     decimal.Decimal
	Breakdown QualityBreakdown
}

// QualityInput is what the scorer reads for one unit. Inactive persons and
// work items are ignored.
type QualityInput struct {
	Period    generic.Period
	Persons   []Contributor
	WorkItems []WorkItem
	TimeLog   []TimeLogEntry
	Plans     []PlanEntry
	Calendar  generic.Calendar
}

// Scorer computes data-quality scores with fixed weights.
type Scorer struct {
	weights   QualityWeights
	precision int32
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{weights: cfg.Weights, precision: cfg.QualityPrecision}
}

var decimalOne = decimal.NewFromInt(1)

// fraction is num/den, or 1 when den is zero.
func fraction(num, den int) decimal.Decimal {
	return generic.Ratio(decimal.NewFromInt(int64(num)), decimal.NewFromInt(int64(den)), decimalOne)
}

func (s *Scorer) Score(in QualityInput) QualityResult {
	persons := activeSorted(in.Persons)
	if len(persons) == 0 {
		return s.result(QualityBreakdown{
			NormCoverage:     decimalOne,
			FactCoverage:     decimalOne,
			PlanCoverage:     decimalOne,
			ItemCompleteness: decimalOne,
			Freshness:        decimalOne,
		})
	}
	items := lo.Filter(in.WorkItems, func(w WorkItem, _ int) bool { return w.Active })
	members := lo.SliceToMap(persons, func(c Contributor) (PersonID, bool) { return c.ContributorID(), true })

	return s.result(QualityBreakdown{
		NormCoverage:     normCoverage(persons),
		FactCoverage:     factCoverage(persons, in.Period, in.TimeLog, in.Calendar),
		PlanCoverage:     planCoverage(persons, items, in.Plans),
		ItemCompleteness: itemCompleteness(items),
		Freshness:        freshness(in.Period, members, items, in.TimeLog, in.Plans),
	})
}

func (s *Scorer) result(b QualityBreakdown) QualityResult {
	b = QualityBreakdown{
		NormCoverage:     generic.Clamp01(b.NormCoverage),
		FactCoverage:     generic.Clamp01(b.FactCoverage),
		PlanCoverage:     generic.Clamp01(b.PlanCoverage),
		ItemCompleteness: generic.Clamp01(b.ItemCompleteness),
		Freshness:        generic.Clamp01(b.Freshness),
	}

	score := decimal.Sum(
		b.NormCoverage.Mul(s.weights.NormCoverage),
		b.FactCoverage.Mul(s.weights.FactCoverage),
		b.PlanCoverage.Mul(s.weights.PlanCoverage),
		b.ItemCompleteness.Mul(s.weights.ItemCompleteness),
		b.Freshness.Mul(s.weights.Freshness),
	)

	return QualityResult{
		Score: generic.Clamp01(score).Round(s.precision),
		Breakdown: QualityBreakdown{
			NormCoverage:     b.NormCoverage.Round(s.precision),
			FactCoverage:     b.FactCoverage.Round(s.precision),
			PlanCoverage:     b.PlanCoverage.Round(s.precision),
			ItemCompleteness: b.ItemCompleteness.Round(s.precision),
			Freshness:        b.Freshness.Round(s.precision),
		},
	}
}

func normCoverage(persons []Contributor) decimal.Decimal {
	withNorm := lo.CountBy(persons, func(c Contributor) bool {
		_, ok := c.CurrentNorm()
		return ok
	})
	return fraction(withNorm, len(persons))
}

func factCoverage(persons []Contributor, period generic.Period, log []TimeLogEntry, cal generic.Calendar) decimal.Decimal {
	logged := make(map[PersonID]map[generic.TimePoint]bool)
	for _, e := range log {
		if !period.Contains(e.Date) {
			continue
		}
		if logged[e.PersonID] == nil {
			logged[e.PersonID] = make(map[generic.TimePoint]bool)
		}
		logged[e.PersonID][e.Date] = true
	}

	cells, filled := 0, 0
	for _, c := range persons {
		days := logged[c.ContributorID()]
		for _, day := range WorkingDates(c, period, cal) {
			cells++
			if days[day] {
				filled++
			}
		}
	}
	return fraction(filled, cells)
}

func planCoverage(persons []Contributor, items []WorkItem, plans []PlanEntry) decimal.Decimal {
	plannedPersons := make(map[PersonID]bool)
	plannedItems := make(map[WorkItemID]bool)
	for _, p := range plans {
		if p.PersonID != "" {
			plannedPersons[p.PersonID] = true
		}
		if p.WorkItemID != "" {
			plannedItems[p.WorkItemID] = true
		}
	}

	itemFrac := fraction(lo.CountBy(items, func(w WorkItem) bool { return plannedItems[w.ID] }), len(items))
	personFrac := fraction(lo.CountBy(persons, func(c Contributor) bool { return plannedPersons[c.ContributorID()] }), len(persons))

	return itemFrac.Add(personFrac).Div(decimal.NewFromInt(2))
}

const requiredItemFields = 4

func itemCompleteness(items []WorkItem) decimal.Decimal {
	if len(items) == 0 {
		return decimalOne
	}
	populated := 0
	for _, w := range items {
		if strings.TrimSpace(w.Name) != "" {
			populated++
		}
		if w.Start != nil {
			populated++
		}
		if w.End != nil {
			populated++
		}
		if w.Type.IsKnown() {
			populated++
		}
	}
	return fraction(populated, len(items)*requiredItemFields)
}

func freshness(period generic.Period, members map[PersonID]bool, items []WorkItem, log []TimeLogEntry, plans []PlanEntry) decimal.Decimal {
	activeItems := lo.SliceToMap(items, func(w WorkItem) (WorkItemID, bool) { return w.ID, true })

	updated := make(map[generic.TimePoint]bool)
	for _, e := range log {
		if members[e.PersonID] && period.Contains(e.Date) {
			updated[e.Date] = true
		}
	}
	for _, p := range plans {
		if p.RecordedOn == nil || !period.Contains(*p.RecordedOn) {
			continue
		}
		if members[p.PersonID] || (p.PersonID == "" && activeItems[p.WorkItemID]) {
			updated[*p.RecordedOn] = true
		}
	}
	return fraction(len(updated), period.NumDays())
}
