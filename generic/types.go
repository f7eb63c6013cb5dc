/*
Package generic provides the date, period, and quantity primitives shared by
the capacity engine and its collaborators.

PURPOSE:
  Capacity planning is calendar arithmetic over hours. This package owns the
  pieces that carry no planning semantics of their own: date-only time points,
  inclusive periods, the production calendar, exact hour quantities, and the
  error vocabulary used across packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: An exact, decimal quantity of hours
  - Ratio helpers: Safe division and clamping for load and quality figures

DESIGN PRINCIPLES:
  1. Date-only: No time-of-day, no timezone conversion
  2. Precision: Uses decimal.Decimal so sums do not depend on float rounding
  3. Type Safety: Hours are not interchangeable with plain numbers

USAGE:
  daily := generic.NewHours(7.5)
  total := daily.Mul(decimal.NewFromInt(20)) // 150h

SEE ALSO:
  - time.go: TimePoint
  - period.go: Period and named presets
  - calendar.go: Production calendar
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Exact quantity of working time
// =============================================================================

type Hours struct {
	Value decimal.Decimal
}

func NewHours(value float64) Hours {
	return Hours{Value: decimal.NewFromFloat(value)}
}

func NewHoursFromInt(value int) Hours {
	return Hours{Value: decimal.NewFromInt(int64(value))}
}

// ParseHours parses a decimal string such as "7.5".
func ParseHours(s string) (Hours, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Hours{}, ErrInvalidHours
	}
	return Hours{Value: d}, nil
}

func ZeroHours() Hours { return Hours{Value: decimal.Zero} }

// MustParseDecimal is decimal.RequireFromString for literals in tests and
// config defaults. It panics on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (h Hours) Add(o Hours) Hours              { return Hours{Value: h.Value.Add(o.Value)} }
func (h Hours) Sub(o Hours) Hours              { return Hours{Value: h.Value.Sub(o.Value)} }
func (h Hours) Mul(s decimal.Decimal) Hours    { return Hours{Value: h.Value.Mul(s)} }
func (h Hours) MulInt(n int) Hours             { return Hours{Value: h.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (h Hours) Div(s decimal.Decimal) Hours    { return Hours{Value: h.Value.Div(s)} }
func (h Hours) IsNegative() bool               { return h.Value.IsNegative() }
func (h Hours) IsZero() bool                   { return h.Value.IsZero() }
func (h Hours) IsPositive() bool               { return h.Value.IsPositive() }
func (h Hours) Equal(o Hours) bool             { return h.Value.Equal(o.Value) }
func (h Hours) GreaterThan(o Hours) bool       { return h.Value.GreaterThan(o.Value) }
func (h Hours) LessThan(o Hours) bool          { return h.Value.LessThan(o.Value) }
func (h Hours) Float64() float64               { return h.Value.InexactFloat64() }
func (h Hours) String() string                 { return h.Value.String() }
func (h Hours) Round(places int32) Hours       { return Hours{Value: h.Value.Round(places)} }

func (h Hours) Min(o Hours) Hours {
	if h.LessThan(o) {
		return h
	}
	return o
}

// SumHours adds hours in slice order.
func SumHours(hs ...Hours) Hours {
	total := ZeroHours()
	for _, h := range hs {
		total = total.Add(h)
	}
	return total
}

// =============================================================================
// RATIOS
// =============================================================================

var one = decimal.NewFromInt(1)

// Ratio returns num/den, or `whenZero` if den is not positive.
func Ratio(num, den decimal.Decimal, whenZero decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return whenZero
	}
	return num.Div(den)
}

// Clamp01 limits v to [0, 1].
func Clamp01(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(one) {
		return one
	}
	return v
}
