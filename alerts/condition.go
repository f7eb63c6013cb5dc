package alerts

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// Thresholds are ratios (1.0 = fully loaded, quality in [0,1]).
type Thresholds struct {
	// Overload raises a warning above it and a forecast alert when the
	// forecast exceeds capacity by this ratio.
	Overload decimal.Decimal
	// CriticalOverload raises a critical alert above it.
	CriticalOverload decimal.Decimal
	// Underload raises a warning below it for people with logged hours.
	Underload decimal.Decimal
	// LowQuality raises a warning for units scoring below it.
	LowQuality decimal.Decimal
}

// DefaultThresholds ties the load bands to the engine's status thresholds
// so an "over" unit is always a critical alert.
func DefaultThresholds(cfg capacity.Config) Thresholds {
	return Thresholds{
		Overload:         decimal.NewFromInt(1),
		CriticalOverload: cfg.HighThreshold,
		Underload:        cfg.LowThreshold,
		LowQuality:       decimal.RequireFromString("0.6"),
	}
}

func (t Thresholds) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"overload", t.Overload},
		{"critical_overload", t.CriticalOverload},
		{"underload", t.Underload},
		{"low_quality", t.LowQuality},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return &generic.ConfigError{Field: "alerts." + f.name, Reason: "must not be negative"}
		}
	}
	if t.LowQuality.GreaterThan(decimal.NewFromInt(1)) {
		return &generic.ConfigError{Field: "alerts.low_quality", Reason: fmt.Sprintf("%s exceeds 1", t.LowQuality)}
	}
	return nil
}

// rule is one threshold condition: value op threshold.
type rule struct {
	Name      string
	Severity  Severity
	Op        string
	Threshold decimal.Decimal
}

// rules are checked in order; the first match wins.
type rules []rule

// loadRules are the overload bands for an entity kind ("unit", "person").
func (t Thresholds) loadRules(kind string) rules {
	return rules{
		{Name: kind + "_critical_overload", Severity: SeverityCritical, Op: ">", Threshold: t.CriticalOverload},
		{Name: kind + "_overload", Severity: SeverityWarning, Op: ">", Threshold: t.Overload},
	}
}

func (rs rules) first(v decimal.Decimal) (rule, bool) {
	for _, r := range rs {
		if compare(v, r.Op, r.Threshold) {
			return r, true
		}
	}
	return rule{}, false
}

// compare applies a comparison operator. Unknown operators never fire.
func compare(v decimal.Decimal, op string, threshold decimal.Decimal) bool {
	switch op {
	case ">":
		return v.GreaterThan(threshold)
	case ">=":
		return v.GreaterThanOrEqual(threshold)
	case "<":
		return v.LessThan(threshold)
	case "<=":
		return v.LessThanOrEqual(threshold)
	case "==":
		return v.Equal(threshold)
	default:
		return false
	}
}

func above(v, threshold decimal.Decimal) bool { return compare(v, ">", threshold) }
func below(v, threshold decimal.Decimal) bool { return compare(v, "<", threshold) }
