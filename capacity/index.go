package capacity

import (
	"sort"

	"github.com/samber/lo"
)

// index groups a sanitized snapshot for per-person lookups. Built once per
// call and discarded with it.
type index struct {
	logByPerson   map[PersonID][]TimeLogEntry
	plansByPerson map[PersonID][]PlanEntry
	// itemPlans holds plans targeting a work item with no person.
	itemPlans     map[WorkItemID][]PlanEntry
	plannedItems  map[WorkItemID]bool
	items         map[WorkItemID]WorkItem
	activeItems   []WorkItem
	activePersons map[PersonID]bool
	// itemMembers lists, per active work item, its distinct active members.
	itemMembers map[WorkItemID][]PersonID
	// memberItems is the inverse of itemMembers.
	memberItems map[PersonID][]WorkItemID
}

func newIndex(s Snapshot) *index {
	idx := &index{
		logByPerson:   lo.GroupBy(s.TimeLog, func(e TimeLogEntry) PersonID { return e.PersonID }),
		plansByPerson: make(map[PersonID][]PlanEntry),
		itemPlans:     make(map[WorkItemID][]PlanEntry),
		plannedItems:  make(map[WorkItemID]bool),
		items:         lo.KeyBy(s.WorkItems, func(w WorkItem) WorkItemID { return w.ID }),
		activePersons: make(map[PersonID]bool),
		itemMembers:   make(map[WorkItemID][]PersonID),
		memberItems:   make(map[PersonID][]WorkItemID),
	}

	for _, c := range s.Contributors() {
		if c.IsActive() {
			idx.activePersons[c.ContributorID()] = true
		}
	}

	for _, p := range s.Plans {
		if p.PersonID != "" {
			idx.plansByPerson[p.PersonID] = append(idx.plansByPerson[p.PersonID], p)
		} else {
			idx.itemPlans[p.WorkItemID] = append(idx.itemPlans[p.WorkItemID], p)
		}
		if p.WorkItemID != "" {
			idx.plannedItems[p.WorkItemID] = true
		}
	}

	idx.activeItems = lo.Filter(s.WorkItems, func(w WorkItem, _ int) bool { return w.Active })
	sort.SliceStable(idx.activeItems, func(i, j int) bool { return idx.activeItems[i].ID < idx.activeItems[j].ID })

	for _, w := range idx.activeItems {
		members := lo.Uniq(lo.Filter(w.Members, func(id PersonID, _ int) bool { return idx.activePersons[id] }))
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		idx.itemMembers[w.ID] = members
		for _, m := range members {
			idx.memberItems[m] = append(idx.memberItems[m], w.ID)
		}
	}
	return idx
}

// activeItem returns the work item if it exists and is active.
func (idx *index) activeItem(id WorkItemID) (WorkItem, bool) {
	w, ok := idx.items[id]
	if !ok || !w.Active {
		return WorkItem{}, false
	}
	return w, true
}
