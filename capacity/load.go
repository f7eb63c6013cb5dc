package capacity

import (
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/generic"
)

// LoadStatus classifies a load ratio.
type LoadStatus string

const (
	StatusUnder LoadStatus = "under"
	StatusOK    LoadStatus = "ok"
	StatusOver  LoadStatus = "over"
)

// Classifier derives load ratios and statuses from configured thresholds.
type Classifier struct {
	Low  decimal.Decimal
	High decimal.Decimal
}

func NewClassifier(cfg Config) Classifier {
	return Classifier{Low: cfg.LowThreshold, High: cfg.HighThreshold}
}

// LoadPct is demand/capacity as a ratio (1.0 = fully loaded). Zero or
// negative capacity yields 0.
func (Classifier) LoadPct(demand, capacity generic.Hours) decimal.Decimal {
	return generic.Ratio(demand.Value, capacity.Value, decimal.Zero)
}

func (cl Classifier) Status(load decimal.Decimal) LoadStatus {
	switch {
	case load.LessThan(cl.Low):
		return StatusUnder
	case load.GreaterThan(cl.High):
		return StatusOver
	default:
		return StatusOK
	}
}

// Classify is LoadPct followed by Status.
func (cl Classifier) Classify(demand, capacity generic.Hours) (decimal.Decimal, LoadStatus) {
	load := cl.LoadPct(demand, capacity)
	return load, cl.Status(load)
}
