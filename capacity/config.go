package capacity

import (
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// CONFIG - Thresholds and weights, validated once at construction
// =============================================================================

// QualityWeights weights the five data-quality sub-scores. They must be
// non-negative and sum to exactly 1.
type QualityWeights struct {
	NormCoverage     decimal.Decimal
	FactCoverage     decimal.Decimal
	PlanCoverage     decimal.Decimal
	ItemCompleteness decimal.Decimal
	Freshness        decimal.Decimal
}

// Sum adds the five weights.
func (w QualityWeights) Sum() decimal.Decimal {
	return decimal.Sum(w.NormCoverage, w.FactCoverage, w.PlanCoverage, w.ItemCompleteness, w.Freshness)
}

// DefaultQualityWeights: 0.30 / 0.25 / 0.20 / 0.15 / 0.10.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		NormCoverage:     decimal.RequireFromString("0.30"),
		FactCoverage:     decimal.RequireFromString("0.25"),
		PlanCoverage:     decimal.RequireFromString("0.20"),
		ItemCompleteness: decimal.RequireFromString("0.15"),
		Freshness:        decimal.RequireFromString("0.10"),
	}
}

// Config holds everything the engine treats as policy rather than algorithm.
type Config struct {
	// LowThreshold: load below it is "under".
	LowThreshold decimal.Decimal
	// HighThreshold: load above it is "over".
	HighThreshold decimal.Decimal

	Weights QualityWeights

	// QualityPrecision is the number of decimal places quality scores are
	// rounded to for display.
	QualityPrecision int32

	// ShortDayReduction is subtracted from the daily capacity on pre-holiday
	// short days.
	ShortDayReduction generic.Hours

	// Workers > 1 aggregates units concurrently.
	Workers int
}

const (
	DefaultQualityPrecision = 4
	maxQualityPrecision     = 16
)

func DefaultConfig() Config {
	return Config{
		LowThreshold:      decimal.RequireFromString("0.7"),
		HighThreshold:     decimal.RequireFromString("1.1"),
		Weights:           DefaultQualityWeights(),
		QualityPrecision:  DefaultQualityPrecision,
		ShortDayReduction: generic.NewHoursFromInt(1),
		Workers:           1,
	}
}

// Validate returns a *generic.ConfigError for the first invalid field.
func (c Config) Validate() error {
	if c.LowThreshold.IsNegative() {
		return &generic.ConfigError{Field: "low_threshold", Reason: "must not be negative"}
	}
	if c.HighThreshold.IsNegative() {
		return &generic.ConfigError{Field: "high_threshold", Reason: "must not be negative"}
	}
	if c.LowThreshold.GreaterThan(c.HighThreshold) {
		return &generic.ConfigError{Field: "low_threshold", Reason: "must not exceed high_threshold"}
	}

	weights := []struct {
		field string
		value decimal.Decimal
	}{
		{"weights.norm_coverage", c.Weights.NormCoverage},
		{"weights.fact_coverage", c.Weights.FactCoverage},
		{"weights.plan_coverage", c.Weights.PlanCoverage},
		{"weights.item_completeness", c.Weights.ItemCompleteness},
		{"weights.freshness", c.Weights.Freshness},
	}
	for _, w := range weights {
		if w.value.IsNegative() {
			return &generic.ConfigError{Field: w.field, Reason: "must not be negative"}
		}
	}
	if sum := c.Weights.Sum(); !sum.Equal(decimal.NewFromInt(1)) {
		return &generic.ConfigError{Field: "weights", Reason: "must sum to 1, got " + sum.String()}
	}

	if c.QualityPrecision < 0 || c.QualityPrecision > maxQualityPrecision {
		return &generic.ConfigError{Field: "quality_precision", Reason: "must be between 0 and 16"}
	}
	if c.ShortDayReduction.IsNegative() {
		return &generic.ConfigError{Field: "short_day_reduction", Reason: "must not be negative"}
	}
	if c.Workers < 0 {
		return &generic.ConfigError{Field: "workers", Reason: "must not be negative"}
	}
	return nil
}
