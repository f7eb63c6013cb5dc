/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Hours, loads
  and scores are exact decimals inside the engine and plain JSON numbers
  here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Aggregation:
    AggregateRequest, AggregateResponse, UnitRowDTO, PersonRowDTO, KPIsDTO

  Breakdown and series:
    PersonBreakdownResponse, WeeklySeriesResponse, WeekLoadDTO

  Calendar:
    CalendarRequest, CalendarResponse (days are factory.CalendarDayJSON)

  Ingestion:
    bodies are the factory.*JSON snapshot types

  What-if:
    WhatIfRequest, WhatIfResponse, UnitDeltaDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

  Alerts:
    AlertsResponse, AlertDTO, AlertStatsDTO, AlertResolutionResponse

VALIDATION:
  Validation is done in handlers and the factory, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/snapshot.go: Record JSON schema
*/
package api

import (
	"github.com/samber/lo"
	"github.com/warp/capacity-engine/alerts"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// AGGREGATION
// =============================================================================

// AggregateRequest selects the period, as-of date and exclusions. Period
// names a generic.PeriodKind used when Start/End are empty. Excluded
// activities are left out of demand and load only.
type AggregateRequest struct {
	Start             string   `json:"start"`
	End               string   `json:"end"`
	Period            string   `json:"period,omitempty"`
	AsOf              string   `json:"as_of,omitempty"`
	ExcludeUnits      []string `json:"exclude_units,omitempty"`
	ExcludeWorkItems  []string `json:"exclude_work_items,omitempty"`
	ExcludeStatuses   []string `json:"exclude_statuses,omitempty"`
	ExcludeActivities []string `json:"exclude_activities,omitempty"`
}

type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

type ActivityDTO struct {
	Type  string  `json:"type"`
	Hours float64 `json:"hours"`
	Share float64 `json:"share"`
}

type QualityDTO struct {
	NormCoverage     float64 `json:"norm_coverage"`
	FactCoverage     float64 `json:"fact_coverage"`
	PlanCoverage     float64 `json:"plan_coverage"`
	ItemCompleteness float64 `json:"item_completeness"`
	Freshness        float64 `json:"freshness"`
}

type PersonRowDTO struct {
	PersonID     string        `json:"person_id"`
	Name         string        `json:"name"`
	Hypothetical bool          `json:"hypothetical,omitempty"`
	HasNorm      bool          `json:"has_norm"`
	WorkingDays  int           `json:"working_days"`
	Capacity     float64       `json:"capacity"`
	Demand       float64       `json:"demand"`
	Forecast     float64       `json:"forecast"`
	LoadPct      float64       `json:"load_pct"`
	Status       string        `json:"status"`
	ByActivity   []ActivityDTO `json:"by_activity"`
}

type UnitRowDTO struct {
	UnitID               string         `json:"unit_id"`
	UnitName             string         `json:"unit_name"`
	ActiveMembers        int            `json:"active_members"`
	Capacity             float64        `json:"capacity"`
	Demand               float64        `json:"demand"`
	Forecast             float64        `json:"forecast"`
	LoadPct              float64        `json:"load_pct"`
	Status               string         `json:"status"`
	DataQuality          float64        `json:"data_quality"`
	DataQualityBreakdown QualityDTO     `json:"data_quality_breakdown"`
	ByActivity           []ActivityDTO  `json:"by_activity"`
	Members              []PersonRowDTO `json:"members"`
}

type KPIsDTO struct {
	AvgLoad             float64 `json:"avg_load"`
	ActiveMemberCount   int     `json:"active_member_count"`
	ActiveWorkItemCount int     `json:"active_work_item_count"`
	AvgDataQuality      float64 `json:"avg_data_quality"`
}

type AggregateResponse struct {
	ResultID string       `json:"result_id"`
	Cached   bool         `json:"cached"`
	Period   PeriodDTO    `json:"period"`
	AsOf     string       `json:"as_of"`
	Units    []UnitRowDTO `json:"units"`
	KPIs     KPIsDTO      `json:"kpis"`
	Warnings []string     `json:"warnings"`
}

// =============================================================================
// BREAKDOWN, SERIES, PERIODS
// =============================================================================

type PersonBreakdownResponse struct {
	Period   PeriodDTO    `json:"period"`
	AsOf     string       `json:"as_of"`
	Person   PersonRowDTO `json:"person"`
	Warnings []string     `json:"warnings"`
}

type WeekLoadDTO struct {
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Capacity float64 `json:"capacity"`
	Demand   float64 `json:"demand"`
	LoadPct  float64 `json:"load_pct"`
	Status   string  `json:"status"`
}

type WeeklySeriesResponse struct {
	Period   PeriodDTO     `json:"period"`
	Weeks    []WeekLoadDTO `json:"weeks"`
	Warnings []string      `json:"warnings"`
}

type NamedPeriodResponse struct {
	Kind   string    `json:"kind"`
	AsOf   string    `json:"as_of"`
	Period PeriodDTO `json:"period"`
}

// =============================================================================
// CALENDAR AND INGESTION
// =============================================================================

type CalendarRequest struct {
	Days []factory.CalendarDayJSON `json:"days"`
}

type CalendarResponse struct {
	From string                    `json:"from"`
	To   string                    `json:"to"`
	Days []factory.CalendarDayJSON `json:"days"`
}

type TimeLogRequest struct {
	Entries []factory.TimeLogJSON `json:"entries"`
}

type CreatedResponse struct {
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
	Count int    `json:"count,omitempty"`
}

// =============================================================================
// WHAT-IF
// =============================================================================

// HypotheticalPersonRequest places a new person in a unit. Ref lets work
// item plans in the same request point at this person.
type HypotheticalPersonRequest struct {
	Ref    string            `json:"ref"`
	UnitID string            `json:"unit_id"`
	Name   string            `json:"name"`
	Norm   *factory.NormJSON `json:"norm,omitempty"`
}

// MemberPlanRequest names either an existing person (PersonID) or a
// hypothetical one from the same request (PersonRef).
type MemberPlanRequest struct {
	PersonID  string  `json:"person_id,omitempty"`
	PersonRef string  `json:"person_ref,omitempty"`
	Hours     float64 `json:"hours"`
}

type HypotheticalWorkItemRequest struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Start       string              `json:"start,omitempty"`
	End         string              `json:"end,omitempty"`
	Probability *float64            `json:"probability,omitempty"`
	Plans       []MemberPlanRequest `json:"plans"`
}

type WhatIfRequest struct {
	AggregateRequest
	Name        string                        `json:"name"`
	Description string                        `json:"description,omitempty"`
	Persons     []HypotheticalPersonRequest   `json:"persons"`
	WorkItems   []HypotheticalWorkItemRequest `json:"work_items"`
}

type UnitDeltaDTO struct {
	UnitID   string     `json:"unit_id"`
	Baseline UnitRowDTO `json:"baseline"`
	Scenario UnitRowDTO `json:"scenario"`
	Capacity float64    `json:"capacity_delta"`
	Demand   float64    `json:"demand_delta"`
	Forecast float64    `json:"forecast_delta"`
	LoadPct  float64    `json:"load_pct_delta"`
}

type WhatIfResponse struct {
	ScenarioID   string         `json:"scenario_id"`
	Name         string         `json:"name"`
	Period       PeriodDTO      `json:"period"`
	AsOf         string         `json:"as_of"`
	Units        []UnitDeltaDTO `json:"units"`
	BaselineKPIs KPIsDTO        `json:"baseline_kpis"`
	ScenarioKPIs KPIsDTO        `json:"scenario_kpis"`
	Warnings     []string       `json:"warnings"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ALERTS
// =============================================================================

type AlertDTO struct {
	ID         string    `json:"id"`
	Rule       string    `json:"rule"`
	Severity   string    `json:"severity"`
	Category   string    `json:"category"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	Message    string    `json:"message"`
	Period     PeriodDTO `json:"period"`
	Value      float64   `json:"value"`
	Threshold  *float64  `json:"threshold,omitempty"`
	Resolved   bool      `json:"resolved"`
}

// AlertStatsDTO counts unresolved alerts before severity and category
// filters are applied.
type AlertStatsDTO struct {
	Total      int            `json:"total"`
	Unresolved int            `json:"unresolved"`
	BySeverity map[string]int `json:"by_severity"`
	ByCategory map[string]int `json:"by_category"`
}

type AlertsResponse struct {
	Period PeriodDTO     `json:"period"`
	AsOf   string        `json:"as_of"`
	Alerts []AlertDTO    `json:"alerts"`
	Stats  AlertStatsDTO `json:"stats"`
}

type AlertResolutionResponse struct {
	ID       string `json:"id"`
	Resolved bool   `json:"resolved"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func ToPeriodDTO(p generic.Period) PeriodDTO {
	return PeriodDTO{Start: p.Start.String(), End: p.End.String(), Days: p.NumDays()}
}

func toActivityDTOs(shares []capacity.ActivityShare) []ActivityDTO {
	return lo.Map(shares, func(s capacity.ActivityShare, _ int) ActivityDTO {
		return ActivityDTO{Type: string(s.Type), Hours: s.Hours.Float64(), Share: s.Share.InexactFloat64()}
	})
}

func ToPersonRowDTO(p capacity.PersonAggregate) PersonRowDTO {
	return PersonRowDTO{
		PersonID:     string(p.PersonID),
		Name:         p.Name,
		Hypothetical: p.Hypothetical,
		HasNorm:      p.HasNorm,
		WorkingDays:  p.WorkingDays,
		Capacity:     p.Capacity.Float64(),
		Demand:       p.Demand.Float64(),
		Forecast:     p.Forecast.Float64(),
		LoadPct:      p.LoadPct.InexactFloat64(),
		Status:       string(p.Status),
		ByActivity:   toActivityDTOs(p.ByActivity),
	}
}

func toUnitRowDTO(u capacity.UnitAggregate) UnitRowDTO {
	b := u.DataQualityBreakdown
	return UnitRowDTO{
		UnitID:        string(u.UnitID),
		UnitName:      u.UnitName,
		ActiveMembers: u.ActiveMembers,
		Capacity:      u.Capacity.Float64(),
		Demand:        u.Demand.Float64(),
		Forecast:      u.Forecast.Float64(),
		LoadPct:       u.LoadPct.InexactFloat64(),
		Status:        string(u.Status),
		DataQuality:   u.DataQuality.InexactFloat64(),
		DataQualityBreakdown: QualityDTO{
			NormCoverage:     b.NormCoverage.InexactFloat64(),
			FactCoverage:     b.FactCoverage.InexactFloat64(),
			PlanCoverage:     b.PlanCoverage.InexactFloat64(),
			ItemCompleteness: b.ItemCompleteness.InexactFloat64(),
			Freshness:        b.Freshness.InexactFloat64(),
		},
		ByActivity: toActivityDTOs(u.ByActivity),
		Members:    lo.Map(u.Members, func(p capacity.PersonAggregate, _ int) PersonRowDTO { return ToPersonRowDTO(p) }),
	}
}

func toKPIsDTO(k capacity.CompanyKPIs) KPIsDTO {
	return KPIsDTO{
		AvgLoad:             k.AvgLoad.InexactFloat64(),
		ActiveMemberCount:   k.ActiveMemberCount,
		ActiveWorkItemCount: k.ActiveWorkItemCount,
		AvgDataQuality:      k.AvgDataQuality.InexactFloat64(),
	}
}

func ToAggregateResponse(id string, r capacity.Result) AggregateResponse {
	return AggregateResponse{
		ResultID: id,
		Period:   ToPeriodDTO(r.Period),
		AsOf:     r.AsOf.String(),
		Units:    lo.Map(r.Units, func(u capacity.UnitAggregate, _ int) UnitRowDTO { return toUnitRowDTO(u) }),
		KPIs:     toKPIsDTO(r.KPIs),
		Warnings: nonNil(r.Warnings),
	}
}

func ToWeekLoadDTO(w capacity.WeekLoad) WeekLoadDTO {
	return WeekLoadDTO{
		Start:    w.Week.Start.String(),
		End:      w.Week.End.String(),
		Capacity: w.Capacity.Float64(),
		Demand:   w.Demand.Float64(),
		LoadPct:  w.LoadPct.InexactFloat64(),
		Status:   string(w.Status),
	}
}

func ToAlertDTO(a alerts.Alert) AlertDTO {
	dto := AlertDTO{
		ID:         a.ID,
		Rule:       a.Rule,
		Severity:   string(a.Severity),
		Category:   string(a.Category),
		EntityType: string(a.EntityType),
		EntityID:   a.EntityID,
		EntityName: a.EntityName,
		Message:    a.Message,
		Period:     ToPeriodDTO(a.Period),
		Value:      a.Value.InexactFloat64(),
		Resolved:   a.Resolved,
	}
	if a.Threshold != nil {
		dto.Threshold = lo.ToPtr(a.Threshold.InexactFloat64())
	}
	return dto
}

func toAlertStatsDTO(list []alerts.Alert) AlertStatsDTO {
	stats := AlertStatsDTO{
		Total:      len(list),
		BySeverity: make(map[string]int, len(alerts.Severities)),
		ByCategory: make(map[string]int, len(alerts.Categories)),
	}
	for _, sev := range alerts.Severities {
		stats.BySeverity[string(sev)] = 0
	}
	for _, cat := range alerts.Categories {
		stats.ByCategory[string(cat)] = 0
	}
	for _, a := range list {
		if a.Resolved {
			continue
		}
		stats.Unresolved++
		stats.BySeverity[string(a.Severity)]++
		stats.ByCategory[string(a.Category)]++
	}
	return stats
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
