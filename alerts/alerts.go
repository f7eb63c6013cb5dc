/*
alerts.go - Alerts derived from an aggregation result

PURPOSE:
  Turns the numbers of one capacity.Result into a list of actionable
  findings: overloaded or idle units and people, forecast overload,
  missing norms, empty units, incomplete work items, and vacations.
  Generation is pure; resolution state lives in Tracker.

RULES:
  unit_critical_overload    load > CriticalOverload          critical  load
  unit_overload             load > Overload                  warning   load
  unit_low_quality          quality < LowQuality             warning   data_quality
  person_critical_overload  load > CriticalOverload          critical  load
  person_overload           load > Overload                  warning   load
  person_underload          load < Underload, demand > 0     warning   load
  person_forecast_overload  forecast/capacity > Overload     critical  forecast
  person_vacation           vacation days in the period      info      vacation
  item_no_dates             neither start nor end            critical  data_quality
  item_no_start / no_end    one date missing                 warning   data_quality
  item_no_plans             active item without a plan       critical  project
  persons_without_norm      count of active persons > 0      warning   norms
  empty_units               count of units > 0               warning   data_quality

IDS:
  rule:entity:periodStart, stable across regenerations so a resolution
  recorded by Tracker still applies after the data is refreshed.

SEE ALSO:
  - condition.go: Threshold comparison
  - tracker.go: Resolve / unresolve
*/
package alerts

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Severities lists severities from most to least urgent.
var Severities = []Severity{SeverityCritical, SeverityWarning, SeverityInfo}

type Category string

const (
	CategoryLoad        Category = "load"
	CategoryForecast    Category = "forecast"
	CategoryDataQuality Category = "data_quality"
	CategoryNorms       Category = "norms"
	CategoryProject     Category = "project"
	CategoryVacation    Category = "vacation"
)

// Categories lists every category in reporting order.
var Categories = []Category{CategoryLoad, CategoryForecast, CategoryDataQuality, CategoryNorms, CategoryProject, CategoryVacation}

type EntityType string

const (
	EntityUnit     EntityType = "unit"
	EntityPerson   EntityType = "person"
	EntityWorkItem EntityType = "work_item"
	EntitySystem   EntityType = "system"
)

// Alert is one finding about one entity for one period.
type Alert struct {
	ID         string
	Rule       string
	Severity   Severity
	Category   Category
	EntityType EntityType
	EntityID   string
	EntityName string
	Message    string
	Period     generic.Period
	Value      decimal.Decimal
	// Threshold is nil for rules without one (counts, missing data).
	Threshold *decimal.Decimal
	Resolved  bool
}

// Generate evaluates every rule against r. s must be the snapshot r was
// computed from; it supplies work items and vacations, which the result
// does not carry. Alerts are ordered by severity, then ID.
func Generate(r capacity.Result, s capacity.Snapshot, th Thresholds) []Alert {
	g := generator{period: r.Period, th: th}

	persons := make(map[capacity.PersonID]capacity.Contributor)
	for _, c := range s.Contributors() {
		persons[c.ContributorID()] = c
	}

	emptyUnits := 0
	for _, u := range r.Units {
		g.unit(u)
		if u.ActiveMembers == 0 {
			emptyUnits++
		}
		for _, p := range u.Members {
			g.person(p, persons[p.PersonID])
		}
	}
	g.items(s)

	withoutNorm := lo.CountBy(lo.Values(persons), func(c capacity.Contributor) bool {
		_, ok := c.CurrentNorm()
		return c.IsActive() && !ok
	})
	if withoutNorm > 0 {
		g.add(Alert{
			Rule: "persons_without_norm", Severity: SeverityWarning, Category: CategoryNorms,
			EntityType: EntitySystem, EntityID: "system", EntityName: "System",
			Message: fmt.Sprintf("%d active people have no working-time norm", withoutNorm),
			Value:   decimal.NewFromInt(int64(withoutNorm)),
		})
	}
	if emptyUnits > 0 {
		g.add(Alert{
			Rule: "empty_units", Severity: SeverityWarning, Category: CategoryDataQuality,
			EntityType: EntitySystem, EntityID: "system", EntityName: "System",
			Message: fmt.Sprintf("%d units have no active members", emptyUnits),
			Value:   decimal.NewFromInt(int64(emptyUnits)),
		})
	}

	out := lo.UniqBy(g.alerts, func(a Alert) string { return a.ID })
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func severityRank(s Severity) int {
	return lo.IndexOf(Severities, s)
}

type generator struct {
	period generic.Period
	th     Thresholds
	alerts []Alert
}

func (g *generator) add(a Alert) {
	a.Period = g.period
	a.ID = fmt.Sprintf("%s:%s:%s", a.Rule, a.EntityID, g.period.Start)
	g.alerts = append(g.alerts, a)
}

func (g *generator) unit(u capacity.UnitAggregate) {
	entity := Alert{EntityType: EntityUnit, EntityID: string(u.UnitID), EntityName: u.UnitName, Category: CategoryLoad, Value: u.LoadPct}

	if r, ok := g.th.loadRules("unit").first(u.LoadPct); ok {
		a := entity
		a.Rule, a.Severity, a.Threshold = r.Name, r.Severity, &r.Threshold
		a.Message = fmt.Sprintf("Unit %q is loaded at %s%%", u.UnitName, percent(u.LoadPct))
		g.add(a)
	}

	if u.ActiveMembers > 0 && below(u.DataQuality, g.th.LowQuality) {
		a := entity
		a.Rule, a.Severity, a.Category = "unit_low_quality", SeverityWarning, CategoryDataQuality
		a.Value, a.Threshold = u.DataQuality, &g.th.LowQuality
		a.Message = fmt.Sprintf("Data quality of unit %q is %s%%", u.UnitName, percent(u.DataQuality))
		g.add(a)
	}
}

func (g *generator) person(p capacity.PersonAggregate, c capacity.Contributor) {
	entity := Alert{EntityType: EntityPerson, EntityID: string(p.PersonID), EntityName: p.Name, Category: CategoryLoad, Value: p.LoadPct}

	if r, ok := g.th.loadRules("person").first(p.LoadPct); ok {
		a := entity
		a.Rule, a.Severity, a.Threshold = r.Name, r.Severity, &r.Threshold
		a.Message = fmt.Sprintf("%s is loaded at %s%%", p.Name, percent(p.LoadPct))
		g.add(a)
	} else if p.Demand.IsPositive() && below(p.LoadPct, g.th.Underload) {
		a := entity
		a.Rule, a.Severity, a.Threshold = "person_underload", SeverityWarning, &g.th.Underload
		a.Message = fmt.Sprintf("%s is loaded at only %s%%", p.Name, percent(p.LoadPct))
		g.add(a)
	}

	if p.Capacity.IsPositive() {
		ratio := p.Forecast.Value.Div(p.Capacity.Value)
		if above(ratio, g.th.Overload) {
			a := entity
			a.Rule, a.Severity, a.Category = "person_forecast_overload", SeverityCritical, CategoryForecast
			a.Value, a.Threshold = ratio, &g.th.Overload
			a.Message = fmt.Sprintf("%s is forecast at %sh against %sh of capacity", p.Name, p.Forecast.Round(1), p.Capacity.Round(1))
			g.add(a)
		}
	}

	if c == nil {
		return
	}
	days := lo.CountBy(g.period.Days(), c.OnVacation)
	if days > 0 {
		a := entity
		a.Rule, a.Severity, a.Category = "person_vacation", SeverityInfo, CategoryVacation
		a.Value = decimal.NewFromInt(int64(days))
		a.Message = fmt.Sprintf("%s is on vacation for %d days of the period", p.Name, days)
		g.add(a)
	}
}

func (g *generator) items(s capacity.Snapshot) {
	planned := make(map[capacity.WorkItemID]bool)
	for _, p := range s.Plans {
		planned[p.WorkItemID] = true
	}

	for _, w := range s.WorkItems {
		if !w.Active {
			continue
		}
		entity := Alert{EntityType: EntityWorkItem, EntityID: string(w.ID), EntityName: w.Name, Category: CategoryDataQuality}

		switch {
		case w.Start == nil && w.End == nil:
			a := entity
			a.Rule, a.Severity = "item_no_dates", SeverityCritical
			a.Message = fmt.Sprintf("Work item %q has no start or end date", w.Name)
			g.add(a)
		case w.Start == nil:
			a := entity
			a.Rule, a.Severity = "item_no_start", SeverityWarning
			a.Message = fmt.Sprintf("Work item %q has no start date", w.Name)
			g.add(a)
		case w.End == nil:
			a := entity
			a.Rule, a.Severity = "item_no_end", SeverityWarning
			a.Message = fmt.Sprintf("Work item %q has no end date", w.Name)
			g.add(a)
		}

		if !planned[w.ID] {
			a := entity
			a.Rule, a.Severity, a.Category = "item_no_plans", SeverityCritical, CategoryProject
			a.Message = fmt.Sprintf("Work item %q has no planned hours", w.Name)
			g.add(a)
		}
	}
}

// percent renders a ratio as a whole percentage.
func percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).Round(0).String()
}
