package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/generic"
	"github.com/warp/capacity-engine/whatif"
)

// =============================================================================
// WHAT-IF HANDLER
// =============================================================================

// WhatIf compares the stored baseline with a scenario of hypothetical
// people and work items. Nothing is persisted.
func (h *Handler) WhatIf(w http.ResponseWriter, r *http.Request) {
	var req WhatIfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, asOf, excl, err := h.resolveRequest(req.AggregateRequest)
	if err != nil {
		writeDomainError(w, "Invalid what-if request", err)
		return
	}
	sc, err := buildScenario(req)
	if err != nil {
		writeDomainError(w, "Invalid scenario", err)
		return
	}

	snap, err := h.Store.Snapshot(r.Context(), period)
	if err != nil {
		writeDomainError(w, "Failed to load snapshot", err)
		return
	}
	snap = applyExclusions(snap, excl)

	cmp, err := whatif.Compare(h.Engine(), snap, sc, period, asOf, excl.Options())
	if err != nil {
		writeDomainError(w, "Failed to apply scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, toWhatIfResponse(sc, period, asOf, cmp))
}

// buildScenario resolves person refs to minted hypothetical IDs so plans in
// the same request can target the new people.
func buildScenario(req WhatIfRequest) (whatif.Scenario, error) {
	sc := whatif.NewScenario(req.Name)
	sc.Description = req.Description

	refs := make(map[string]capacity.PersonID, len(req.Persons))
	for _, pr := range req.Persons {
		var norm *capacity.Norm
		if pr.Norm != nil {
			n, err := factory.ToNorm(*pr.Norm)
			if err != nil {
				return whatif.Scenario{}, err
			}
			norm = &n
		}
		person := whatif.NewHypotheticalPerson(pr.Name, norm)
		if pr.Ref != "" {
			if _, dup := refs[pr.Ref]; dup {
				return whatif.Scenario{}, &generic.ValidationError{Kind: "scenario", ID: pr.Ref, Message: "duplicate person ref", Err: generic.ErrMissingID}
			}
			refs[pr.Ref] = person.ID
		}
		sc.Persons = append(sc.Persons, whatif.Placement{UnitID: capacity.UnitID(pr.UnitID), Person: person})
	}

	for _, wr := range req.WorkItems {
		item := whatif.HypotheticalWorkItem{
			ID:   capacity.WorkItemID(whatif.NewID()),
			Name: wr.Name,
			Type: capacity.ActivityType(wr.Type),
		}
		if item.Type == "" {
			item.Type = capacity.ActivityCommercial
		}
		var err error
		if item.Start, err = parseOptional(wr.Start); err != nil {
			return whatif.Scenario{}, err
		}
		if item.End, err = parseOptional(wr.End); err != nil {
			return whatif.Scenario{}, err
		}
		if wr.Probability != nil {
			p := decimal.NewFromFloat(*wr.Probability)
			item.Probability = &p
		}
		for _, mp := range wr.Plans {
			pid := capacity.PersonID(mp.PersonID)
			if mp.PersonRef != "" {
				id, ok := refs[mp.PersonRef]
				if !ok {
					return whatif.Scenario{}, fmt.Errorf("work item %q: %w: ref %s", wr.Name, generic.ErrPersonNotFound, mp.PersonRef)
				}
				pid = id
			}
			if mp.Hours < 0 {
				return whatif.Scenario{}, &generic.ValidationError{Kind: "scenario", ID: wr.Name, Message: "negative planned hours", Err: generic.ErrInvalidHours}
			}
			item.Plans = append(item.Plans, whatif.MemberPlan{PersonID: pid, Hours: generic.NewHours(mp.Hours)})
		}
		sc.WorkItems = append(sc.WorkItems, item)
	}
	return sc, nil
}

func parseOptional(s string) (*generic.TimePoint, error) {
	if s == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toWhatIfResponse(sc whatif.Scenario, period generic.Period, asOf generic.TimePoint, cmp whatif.Comparison) WhatIfResponse {
	return WhatIfResponse{
		ScenarioID: sc.ID,
		Name:       sc.Name,
		Period:     ToPeriodDTO(period),
		AsOf:       asOf.String(),
		Units: lo.Map(cmp.Units, func(d whatif.UnitDelta, _ int) UnitDeltaDTO {
			return UnitDeltaDTO{
				UnitID:   string(d.UnitID),
				Baseline: toUnitRowDTO(d.Baseline),
				Scenario: toUnitRowDTO(d.Scenario),
				Capacity: d.Capacity.Float64(),
				Demand:   d.Demand.Float64(),
				Forecast: d.Forecast.Float64(),
				LoadPct:  d.LoadPct.InexactFloat64(),
			}
		}),
		BaselineKPIs: toKPIsDTO(cmp.Baseline.KPIs),
		ScenarioKPIs: toKPIsDTO(cmp.Scenario.KPIs),
		Warnings:     nonNil(cmp.Scenario.Warnings),
	}
}
