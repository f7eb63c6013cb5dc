package capacity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// sanitize drops malformed records from a snapshot and describes each drop.
// The returned snapshot shares no slices with the input.
//
// Dropped: members with no ID, duplicate members within a unit, work items
// with no ID or a duplicate ID, time-log entries with no person, no date or
// negative hours, plans with no target, negative hours or a probability
// outside [0,1]. A contributor whose current norm has negative allotments
// is kept without a norm.
func sanitize(s Snapshot) (Snapshot, []string) {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	out := Snapshot{Calendar: s.Calendar}

	for ui, u := range s.Units {
		unit := Unit{ID: u.ID, Name: u.Name}
		if u.ID == "" {
			warn("unit #%d (%q): missing id, kept for display", ui, u.Name)
		}
		seen := make(map[PersonID]bool, len(u.Members))
		for mi, m := range u.Members {
			if m == nil || m.ContributorID() == "" {
				warn("unit %s: skipped member #%d with missing id", u.ID, mi)
				continue
			}
			id := m.ContributorID()
			if seen[id] {
				warn("unit %s: skipped duplicate member %s", u.ID, id)
				continue
			}
			seen[id] = true
			if norm, ok := m.CurrentNorm(); ok {
				if err := norm.Validate(); err != nil {
					warn("person %s: ignored norm: %v", id, err)
					m = normless{m}
				}
			}
			unit.Members = append(unit.Members, m)
		}
		out.Units = append(out.Units, unit)
	}

	items := make(map[WorkItemID]bool, len(s.WorkItems))
	for i, w := range s.WorkItems {
		switch {
		case w.ID == "":
			warn("work item #%d (%q): skipped, missing id", i, w.Name)
		case items[w.ID]:
			warn("work item %s: skipped duplicate", w.ID)
		default:
			items[w.ID] = true
			out.WorkItems = append(out.WorkItems, w)
		}
	}

	for i, e := range s.TimeLog {
		switch {
		case e.PersonID == "":
			warn("time log #%d: skipped, missing person id", i)
		case e.Date.IsZero():
			warn("time log #%d (person %s): skipped, missing date", i, e.PersonID)
		case e.Hours.IsNegative():
			warn("time log #%d (person %s, %s): skipped, negative hours %s", i, e.PersonID, e.Date, e.Hours)
		default:
			out.TimeLog = append(out.TimeLog, e)
		}
	}

	one := decimal.NewFromInt(1)
	for i, p := range s.Plans {
		switch {
		case p.PersonID == "" && p.WorkItemID == "":
			warn("plan #%d (%s): skipped, no person or work item", i, p.ID)
		case p.Hours.IsNegative():
			warn("plan #%d (%s): skipped, negative hours %s", i, p.ID, p.Hours)
		case p.Probability != nil && (p.Probability.IsNegative() || p.Probability.GreaterThan(one)):
			warn("plan #%d (%s): skipped, probability %s outside [0,1]", i, p.ID, p.Probability)
		default:
			out.Plans = append(out.Plans, p)
		}
	}

	return out, warnings
}
