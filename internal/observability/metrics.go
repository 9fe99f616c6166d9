package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fire-detection pipeline.
type Metrics struct {
	ScenesProcessed prometheus.Counter
	ScenesInvalid   prometheus.Counter
	ScenesFailed    prometheus.Counter
	SceneRetries    prometheus.Counter

	RecordsExtracted prometheus.Counter
	RecordsInserted  prometheus.Counter
	RecordsDuplicate prometheus.Counter

	SceneDuration prometheus.Histogram
	RunDuration   prometheus.Histogram
	BatchSize     prometheus.Histogram

	PipelineRunning prometheus.Gauge
	LastRunTime     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScenesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goes_fire_etl",
			Name:      "scenes_processed_total",
			Help:      "Total scenes that completed processing, including empty results.",
		}),
		ScenesInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goes_fire_etl",
			Name:      "scenes_invalid_total",
			Help:      "Total scenes discarded as structurally unreadable.",
		}),
		ScenesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goes_fire_etl",
			Name:      "scenes_failed_total",
			Help:      "Total scenes abandoned after exhausting extraction retries.",
		}),
		SceneRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goes_fire_etl",
			Name:      "scene_retries_total",
			Help:      "Total extraction attempts that failed and were retried.",
		}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goes_fire_etl",
			Name:      "records_extracted_total",
			Help:      "Total fire-detection records produced by extraction.",
		}),
		RecordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goes_fire_etl",
			Name:      "records_inserted_total",
			Help:      "Total records newly inserted into the store.",
		}),
		RecordsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goes_fire_etl",
			Name:      "records_duplicate_total",
			Help:      "Total records skipped because the store already had them.",
		}),
		SceneDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "goes_fire_etl",
			Name:      "scene_duration_seconds",
			Help:      "Duration of validate-reproject-filter for one scene.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "goes_fire_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete window-acquire-process-ingest pass.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "goes_fire_etl",
			Name:      "batch_size",
			Help:      "Number of records in the merged batch handed to ingestion.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "goes_fire_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "goes_fire_etl",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed pipeline pass.",
		}),
	}

	prometheus.MustRegister(
		m.ScenesProcessed,
		m.ScenesInvalid,
		m.ScenesFailed,
		m.SceneRetries,
		m.RecordsExtracted,
		m.RecordsInserted,
		m.RecordsDuplicate,
		m.SceneDuration,
		m.RunDuration,
		m.BatchSize,
		m.PipelineRunning,
		m.LastRunTime,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ScenesProcessed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "goes_fire_etl", Name: "scenes_processed_total"}),
		ScenesInvalid:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "goes_fire_etl", Name: "scenes_invalid_total"}),
		ScenesFailed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "goes_fire_etl", Name: "scenes_failed_total"}),
		SceneRetries:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "goes_fire_etl", Name: "scene_retries_total"}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "goes_fire_etl", Name: "records_extracted_total"}),
		RecordsInserted:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "goes_fire_etl", Name: "records_inserted_total"}),
		RecordsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "goes_fire_etl", Name: "records_duplicate_total"}),
		SceneDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "goes_fire_etl", Name: "scene_duration_seconds"}),
		RunDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "goes_fire_etl", Name: "run_duration_seconds"}),
		BatchSize:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "goes_fire_etl", Name: "batch_size"}),
		PipelineRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "goes_fire_etl", Name: "pipeline_running"}),
		LastRunTime:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "goes_fire_etl", Name: "last_run_timestamp_seconds"}),
	}
}
