package capacity

import (
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// WORKING DAYS - Which dates a contributor is expected to work
// =============================================================================

// A date is a working day for a contributor when all hold:
//   - the norm's weekday set contains the ISO weekday (no norm: never)
//   - the calendar does not mark it non-working, or it is a holiday and the
//     norm works on holidays
//   - no vacation range covers it
//
// A date missing from the calendar is treated as an ordinary working day.

// IsWorkingDay classifies a single date.
func IsWorkingDay(c Contributor, day generic.TimePoint, cal generic.Calendar) bool {
	norm, ok := c.CurrentNorm()
	if !ok {
		return false
	}
	return isWorkingDay(c, norm, day, cal)
}

func isWorkingDay(c Contributor, norm Norm, day generic.TimePoint, cal generic.Calendar) bool {
	if !norm.Weekdays.Contains(day.ISOWeekday()) {
		return false
	}
	if cd, ok := cal.Lookup(day); ok && cd.NonWorking() {
		if !(cd.Holiday && norm.WorksOnHolidays) {
			return false
		}
	}
	return !c.OnVacation(day)
}

// WorkingDays counts the contributor's working days in the inclusive period.
// An empty period (start after end) yields 0.
func WorkingDays(c Contributor, period generic.Period, cal generic.Calendar) int {
	return len(WorkingDates(c, period, cal))
}

// WorkingDates lists the contributor's working days in ascending order.
func WorkingDates(c Contributor, period generic.Period, cal generic.Calendar) []generic.TimePoint {
	if period.IsEmpty() {
		return nil
	}
	norm, ok := c.CurrentNorm()
	if !ok {
		return nil
	}

	var dates []generic.TimePoint
	for day := period.Start; day.BeforeOrEqual(period.End); day = day.AddDays(1) {
		if isWorkingDay(c, norm, day, cal) {
			dates = append(dates, day)
		}
	}
	return dates
}
