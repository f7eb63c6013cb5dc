package generic

import "context"

// =============================================================================
// PRODUCTION CALENDAR - Authoritative workday/holiday classification per date
// =============================================================================

// CalendarDay classifies one date.
type CalendarDay struct {
	Date     TimePoint
	Workday  bool // working day by default (false for weekends, bridge days)
	Holiday  bool // public holiday
	ShortDay bool // pre-holiday day with reduced hours
}

// NonWorking reports whether the day is off for someone who does not work
// on holidays.
func (d CalendarDay) NonWorking() bool {
	return !d.Workday || d.Holiday
}

// Calendar maps dates to their classification. A date without an entry is
// unknown, and callers treat it as an ordinary working day.
type Calendar map[TimePoint]CalendarDay

// NewCalendar builds a Calendar from a list of days. Later entries for the
// same date replace earlier ones.
func NewCalendar(days ...CalendarDay) Calendar {
	cal := make(Calendar, len(days))
	for _, d := range days {
		cal[d.Date] = d
	}
	return cal
}

// Lookup returns the classification of a date, if the calendar has one.
func (c Calendar) Lookup(date TimePoint) (CalendarDay, bool) {
	if c == nil {
		return CalendarDay{}, false
	}
	d, ok := c[date]
	return d, ok
}

// Covers reports whether every day of the period has an entry.
func (c Calendar) Covers(p Period) bool {
	for _, day := range p.Days() {
		if _, ok := c[day]; !ok {
			return false
		}
	}
	return true
}

// WeekendCalendar marks Saturdays and Sundays of the period as non-workdays
// and every other day as a workday. Useful as a base before overlaying
// public holidays.
func WeekendCalendar(p Period) Calendar {
	cal := make(Calendar, p.NumDays())
	for _, day := range p.Days() {
		wd := day.ISOWeekday()
		cal[day] = CalendarDay{Date: day, Workday: wd < 6}
	}
	return cal
}

// CalendarSource loads calendar days from storage.
type CalendarSource interface {
	// CalendarRange returns the classified days in [from, to].
	CalendarRange(ctx context.Context, from, to TimePoint) (Calendar, error)
}
