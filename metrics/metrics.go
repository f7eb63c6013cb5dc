// Package metrics provides Prometheus metrics for the capacity engine and
// its HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// ENGINE METRICS - What the last aggregation saw
// =============================================================================

// AggregationDurationSeconds tracks time spent in Engine.Aggregate.
var AggregationDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "capacity",
	Name:      "aggregation_duration_seconds",
	Help:      "Time taken to aggregate one snapshot",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// AggregationsTotal counts aggregation calls by endpoint.
var AggregationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "capacity",
	Name:      "aggregations_total",
	Help:      "Aggregations computed, by endpoint",
}, []string{"endpoint"})

// WarningsTotal counts malformed records skipped during aggregation.
// A growing value means upstream data needs cleaning.
var WarningsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "capacity",
	Name:      "warnings_total",
	Help:      "Malformed records skipped during aggregation",
})

// UnitsAggregated is the number of unit rows in the last result.
var UnitsAggregated = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "capacity",
	Name:      "units_aggregated",
	Help:      "Number of unit rows in the last aggregation result",
})

// UnitsByStatus is the number of unit rows per load status in the last result.
var UnitsByStatus = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "capacity",
	Name:      "units_by_status",
	Help:      "Unit rows per load status in the last aggregation result",
}, []string{"status"})

// AvgLoad is the company-wide average load of the last result.
var AvgLoad = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "capacity",
	Name:      "avg_load",
	Help:      "Average unit load in the last aggregation result",
})

// AvgDataQuality is the company-wide average data quality of the last result.
var AvgDataQuality = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "capacity",
	Name:      "avg_data_quality",
	Help:      "Average unit data-quality score in the last aggregation result",
})

// =============================================================================
// API METRICS - Operational health
// =============================================================================

// CacheHitsTotal counts aggregation requests served from the result cache.
var CacheHitsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "api",
	Name:      "cache_hits_total",
	Help:      "Aggregation requests served from cache",
})

// CacheMissesTotal counts aggregation requests that had to be computed.
var CacheMissesTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "api",
	Name:      "cache_misses_total",
	Help:      "Aggregation requests computed because the cache had no entry",
})

// RecordsIngestedTotal counts records written through the API, by kind.
var RecordsIngestedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "api",
	Name:      "records_ingested_total",
	Help:      "Records written through the API, by kind",
}, []string{"kind"})

// ConfigReloadsTotal counts engine config hot reloads.
var ConfigReloadsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "api",
	Name:      "config_reloads_total",
	Help:      "Engine configuration reloads applied",
})

// =============================================================================
// ALERT METRICS
// =============================================================================

// AlertsFiring is the number of unresolved alerts per severity in the last
// alert evaluation.
var AlertsFiring = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "capacity",
	Name:      "alerts_firing",
	Help:      "Unresolved alerts per severity in the last evaluation",
}, []string{"severity"})
