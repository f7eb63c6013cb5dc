/*
Package factory converts JSON and YAML documents into engine types.

PURPOSE:
  Thresholds, quality weights, and whole snapshots arrive as documents:
  config files, HTTP bodies, CLI input. The factory turns them into
  capacity.Config and capacity.Snapshot values and rejects anything the
  engine cannot interpret (unparseable dates, unknown presets).

CONFIG SCHEMA (YAML shown, JSON uses the same keys):
  low_threshold: 0.7
  high_threshold: 1.1
  quality_precision: 4
  short_day_reduction: 1
  workers: 4
  weights:
    norm_coverage: 0.30
    fact_coverage: 0.25
    plan_coverage: 0.20
    item_completeness: 0.15
    freshness: 0.10

  Omitted keys keep their defaults. An omitted weights block keeps all
  default weights; a present one must list all five.

USAGE:
  f := factory.NewConfigFactory()
  cfg, err := f.ParseYAML(data)
  engine, err := capacity.New(cfg)

SEE ALSO:
  - capacity/config.go: Config and validation
  - snapshot.go: Snapshot documents
  - presets.go: Norm presets
*/
package factory

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// ConfigJSON is the document form of capacity.Config.
type ConfigJSON struct {
	LowThreshold      *float64     `json:"low_threshold,omitempty" yaml:"low_threshold,omitempty"`
	HighThreshold     *float64     `json:"high_threshold,omitempty" yaml:"high_threshold,omitempty"`
	QualityPrecision  *int32       `json:"quality_precision,omitempty" yaml:"quality_precision,omitempty"`
	ShortDayReduction *float64     `json:"short_day_reduction,omitempty" yaml:"short_day_reduction,omitempty"`
	Workers           *int         `json:"workers,omitempty" yaml:"workers,omitempty"`
	Weights           *WeightsJSON `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// WeightsJSON lists the five quality weights.
type WeightsJSON struct {
	NormCoverage     float64 `json:"norm_coverage" yaml:"norm_coverage"`
	FactCoverage     float64 `json:"fact_coverage" yaml:"fact_coverage"`
	PlanCoverage     float64 `json:"plan_coverage" yaml:"plan_coverage"`
	ItemCompleteness float64 `json:"item_completeness" yaml:"item_completeness"`
	Freshness        float64 `json:"freshness" yaml:"freshness"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts config documents to capacity.Config.
type ConfigFactory struct{}

func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// ParseJSON parses and validates a JSON config document.
func (f *ConfigFactory) ParseJSON(data []byte) (capacity.Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return capacity.Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// ParseYAML parses and validates a YAML config document.
func (f *ConfigFactory) ParseYAML(data []byte) (capacity.Config, error) {
	var cj ConfigJSON
	if err := yaml.Unmarshal(data, &cj); err != nil {
		return capacity.Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON overlays the document on DefaultConfig and validates the result.
func (f *ConfigFactory) FromJSON(cj ConfigJSON) (capacity.Config, error) {
	cfg := capacity.DefaultConfig()

	if cj.LowThreshold != nil {
		cfg.LowThreshold = decimal.NewFromFloat(*cj.LowThreshold)
	}
	if cj.HighThreshold != nil {
		cfg.HighThreshold = decimal.NewFromFloat(*cj.HighThreshold)
	}
	if cj.QualityPrecision != nil {
		cfg.QualityPrecision = *cj.QualityPrecision
	}
	if cj.ShortDayReduction != nil {
		cfg.ShortDayReduction = generic.NewHours(*cj.ShortDayReduction)
	}
	if cj.Workers != nil {
		cfg.Workers = *cj.Workers
	}
	if w := cj.Weights; w != nil {
		cfg.Weights = capacity.QualityWeights{
			NormCoverage:     decimal.NewFromFloat(w.NormCoverage),
			FactCoverage:     decimal.NewFromFloat(w.FactCoverage),
			PlanCoverage:     decimal.NewFromFloat(w.PlanCoverage),
			ItemCompleteness: decimal.NewFromFloat(w.ItemCompleteness),
			Freshness:        decimal.NewFromFloat(w.Freshness),
		}
	}

	if err := cfg.Validate(); err != nil {
		return capacity.Config{}, err
	}
	return cfg, nil
}

// ToJSON renders a config back to its document form.
func ToJSON(cfg capacity.Config) ConfigJSON {
	low := cfg.LowThreshold.InexactFloat64()
	high := cfg.HighThreshold.InexactFloat64()
	precision := cfg.QualityPrecision
	reduction := cfg.ShortDayReduction.Float64()
	workers := cfg.Workers

	return ConfigJSON{
		LowThreshold:      &low,
		HighThreshold:     &high,
		QualityPrecision:  &precision,
		ShortDayReduction: &reduction,
		Workers:           &workers,
		Weights: &WeightsJSON{
			NormCoverage:     cfg.Weights.NormCoverage.InexactFloat64(),
			FactCoverage:     cfg.Weights.FactCoverage.InexactFloat64(),
			PlanCoverage:     cfg.Weights.PlanCoverage.InexactFloat64(),
			ItemCompleteness: cfg.Weights.ItemCompleteness.InexactFloat64(),
			Freshness:        cfg.Weights.Freshness.InexactFloat64(),
		},
	}
}
