package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// shade-adjustment pipeline.
type Metrics struct {
	SamplesConsumed prometheus.Counter
	RecordsAdjusted prometheus.Counter
	TransformErrors prometheus.Counter
	ShadeMisses     prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// OpenET client metrics.
	OpenETRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	OpenETCache       *prometheus.CounterVec // labels: result={hit,miss}
	OpenETAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SamplesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "et_shade",
			Name:      "samples_consumed_total",
			Help:      "Total daily ET samples read from the source topic.",
		}),
		RecordsAdjusted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "et_shade",
			Name:      "records_adjusted_total",
			Help:      "Total adjusted ET records written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "et_shade",
			Name:      "transform_errors_total",
			Help:      "Total samples rejected as invalid during adjustment.",
		}),
		ShadeMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "et_shade",
			Name:      "shade_misses_total",
			Help:      "Total ET samples with no matching shade record.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "et_shade",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "et_shade",
			Name:      "batch_size",
			Help:      "Number of samples per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "et_shade",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		OpenETRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "et_shade",
			Name:      "openet_requests_total",
			Help:      "OpenET API requests by outcome.",
		}, []string{"outcome"}),
		OpenETCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "et_shade",
			Name:      "openet_cache_total",
			Help:      "OpenET timeseries cache lookups by result.",
		}, []string{"result"}),
		OpenETAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "et_shade",
			Name:      "openet_api_duration_seconds",
			Help:      "OpenET API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.SamplesConsumed,
		m.RecordsAdjusted,
		m.TransformErrors,
		m.ShadeMisses,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.OpenETRequests,
		m.OpenETCache,
		m.OpenETAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SamplesConsumed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "et_shade", Name: "samples_consumed_total"}),
		RecordsAdjusted:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "et_shade", Name: "records_adjusted_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "et_shade", Name: "transform_errors_total"}),
		ShadeMisses:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "et_shade", Name: "shade_misses_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "et_shade", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "et_shade", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "et_shade", Name: "batch_processing_duration_seconds"}),
		OpenETRequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "et_shade", Name: "openet_requests_total"}, []string{"outcome"}),
		OpenETCache:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "et_shade", Name: "openet_cache_total"}, []string{"result"}),
		OpenETAPIDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "et_shade", Name: "openet_api_duration_seconds"}),
	}
}
