package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The analysis window every aggregate is computed for
// =============================================================================

// Period is an inclusive date range [Start, End]. A period whose Start is
// after its End is empty: it contains no days and every sum over it is zero.
//
// Examples:
//   - January 2024: 2024-01-01 .. 2024-01-31
//   - Q2 2024:      2024-04-01 .. 2024-06-30
//   - One day:      2024-01-03 .. 2024-01-03
type Period struct {
	Start TimePoint
	End   TimePoint
}

func NewPeriod(start, end TimePoint) Period {
	return Period{Start: start, End: end}
}

// IsEmpty reports whether the period contains no days.
func (p Period) IsEmpty() bool {
	return p.Start.After(p.End)
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// NumDays is len(p.Days()) without allocating.
func (p Period) NumDays() int {
	if p.IsEmpty() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Intersect returns the overlap of two periods. The result is empty when
// they do not overlap.
func (p Period) Intersect(other Period) Period {
	return Period{Start: MaxTime(p.Start, other.Start), End: MinTime(p.End, other.End)}
}

// Weeks splits the period into Monday-anchored weeks clipped to the period.
func (p Period) Weeks() []Period {
	if p.IsEmpty() {
		return nil
	}
	var weeks []Period
	for start := p.Start; start.BeforeOrEqual(p.End); {
		end := MinTime(StartOfWeek(start).AddDays(6), p.End)
		weeks = append(weeks, Period{Start: start, End: end})
		start = end.AddDays(1)
	}
	return weeks
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// NAMED PERIODS - Dashboard presets relative to an as-of date
// =============================================================================

// PeriodKind names a period preset.
type PeriodKind string

const (
	PeriodWeek        PeriodKind = "week"          // Monday..Sunday containing as-of
	PeriodMonth       PeriodKind = "month"         // calendar month
	PeriodQuarter     PeriodKind = "quarter"       // calendar quarter
	PeriodHalfYear    PeriodKind = "half_year"     // Jan-Jun or Jul-Dec
	PeriodYear        PeriodKind = "year"          // calendar year
	PeriodMonthToDate PeriodKind = "month_to_date" // 1st of month..as-of
	PeriodLast30Days  PeriodKind = "last_30_days"  // as-of minus 29 days..as-of
)

// NamedPeriod returns the period of the given kind that contains asOf.
func NamedPeriod(kind PeriodKind, asOf TimePoint) (Period, error) {
	year, month := asOf.Year(), asOf.Month()

	switch kind {
	case PeriodWeek:
		start := StartOfWeek(asOf)
		return Period{Start: start, End: start.AddDays(6)}, nil

	case PeriodMonth:
		return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}, nil

	case PeriodQuarter:
		first := time.Month((int(month)-1)/3*3 + 1)
		return Period{Start: StartOfMonth(year, first), End: EndOfMonth(year, first+2)}, nil

	case PeriodHalfYear:
		if month <= time.June {
			return Period{Start: StartOfYear(year), End: EndOfMonth(year, time.June)}, nil
		}
		return Period{Start: StartOfMonth(year, time.July), End: EndOfYear(year)}, nil

	case PeriodYear:
		return Period{Start: StartOfYear(year), End: EndOfYear(year)}, nil

	case PeriodMonthToDate:
		return Period{Start: StartOfMonth(year, month), End: asOf}, nil

	case PeriodLast30Days:
		return Period{Start: asOf.AddDays(-29), End: asOf}, nil

	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriodKind, kind)
	}
}
