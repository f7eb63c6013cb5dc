package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/factory"
)

// =============================================================================
// INGESTION HANDLERS - Record writes
// =============================================================================

// Every successful write invalidates the result cache.

// CreatePerson upserts a person with norms and vacations.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req factory.PersonJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := factory.ToPerson(req)
	if err != nil {
		writeDomainError(w, "Invalid person", err)
		return
	}
	if err := h.Store.SavePerson(r.Context(), p); err != nil {
		writeDomainError(w, "Failed to save person", err)
		return
	}
	h.invalidate("person", 1)
	writeJSON(w, http.StatusCreated, CreatedResponse{Kind: "person", ID: string(p.ID)})
}

// CreateUnit upserts a unit and its ordered member list.
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req factory.UnitJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	members := make([]capacity.PersonID, 0, len(req.Members))
	for _, id := range req.Members {
		members = append(members, capacity.PersonID(id))
	}
	if err := h.Store.SaveUnit(r.Context(), capacity.UnitID(req.ID), req.Name, members); err != nil {
		writeDomainError(w, "Failed to save unit", err)
		return
	}
	h.invalidate("unit", 1)
	writeJSON(w, http.StatusCreated, CreatedResponse{Kind: "unit", ID: req.ID})
}

func (h *Handler) CreateWorkItem(w http.ResponseWriter, r *http.Request) {
	var req factory.WorkItemJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	item, err := factory.ToWorkItem(req)
	if err != nil {
		writeDomainError(w, "Invalid work item", err)
		return
	}
	if err := h.Store.SaveWorkItem(r.Context(), item); err != nil {
		writeDomainError(w, "Failed to save work item", err)
		return
	}
	h.invalidate("work_item", 1)
	writeJSON(w, http.StatusCreated, CreatedResponse{Kind: "work_item", ID: string(item.ID)})
}

// AppendTimeLog adds a batch of entries. The batch is rejected as a whole
// when any entry is invalid.
func (h *Handler) AppendTimeLog(w http.ResponseWriter, r *http.Request) {
	var req TimeLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	entries := make([]capacity.TimeLogEntry, 0, len(req.Entries))
	for _, tj := range req.Entries {
		e, err := factory.ToTimeLogEntry(tj)
		if err != nil {
			writeDomainError(w, "Invalid time-log entry", err)
			return
		}
		entries = append(entries, e)
	}
	if err := h.Store.AppendTimeLog(r.Context(), entries); err != nil {
		writeDomainError(w, "Failed to append time log", err)
		return
	}
	h.invalidate("time_log", len(entries))
	writeJSON(w, http.StatusCreated, CreatedResponse{Kind: "time_log", Count: len(entries)})
}

// CreatePlan stores a plan; the response carries the assigned ID.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req factory.PlanJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	plan, err := factory.ToPlanEntry(req)
	if err != nil {
		writeDomainError(w, "Invalid plan", err)
		return
	}
	id, err := h.Store.SavePlan(r.Context(), plan)
	if err != nil {
		writeDomainError(w, "Failed to save plan", err)
		return
	}
	h.invalidate("plan", 1)
	writeJSON(w, http.StatusCreated, CreatedResponse{Kind: "plan", ID: string(id)})
}

// ImportSnapshot writes a whole snapshot document.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	var req factory.SnapshotJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	snap, err := factory.ToSnapshot(req)
	if err != nil {
		writeDomainError(w, "Invalid snapshot", err)
		return
	}
	if err := capacity.Import(r.Context(), h.Store, snap); err != nil {
		writeDomainError(w, "Failed to import snapshot", err)
		return
	}

	n := len(req.Persons) + len(req.Units) + len(req.WorkItems) + len(req.TimeLog) + len(req.Plans) + len(req.Calendar)
	h.invalidate("snapshot", n)
	h.Log.Info().
		Int("persons", len(req.Persons)).
		Int("units", len(req.Units)).
		Int("work_items", len(req.WorkItems)).
		Int("time_log", len(req.TimeLog)).
		Msg("snapshot imported")
	writeJSON(w, http.StatusCreated, CreatedResponse{Kind: "snapshot", Count: n})
}
