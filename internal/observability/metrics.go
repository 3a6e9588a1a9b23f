// Package observability holds the Prometheus collectors shared by the
// importer, the sample fetch join and the plan endpoints.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchDegradedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lanecoach",
		Subsystem: "source",
		Name:      "fetch_degraded_total",
		Help:      "Number of stroke or heart rate fetches that failed or timed out and were replaced by an empty stream.",
	}, []string{"stream"})

	importCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lanecoach",
		Subsystem: "importer",
		Name:      "workouts_total",
		Help:      "Number of workout imports grouped by outcome.",
	}, []string{"outcome"})

	lapsBuiltCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lanecoach",
		Subsystem: "importer",
		Name:      "laps_built_total",
		Help:      "Number of laps built, split by whether distance samples were present.",
	}, []string{"path"})

	lastImportGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lanecoach",
		Subsystem: "importer",
		Name:      "last_import_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful workout import.",
	})

	planMismatchCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lanecoach",
		Subsystem: "plan",
		Name:      "distance_mismatches_total",
		Help:      "Number of proposed workouts whose declared total differs from the sum of their sets.",
	})
)

func init() {
	prometheus.MustRegister(fetchDegradedCounter, importCounter, lapsBuiltCounter, lastImportGauge, planMismatchCounter)
}

// RecordFetchDegraded counts a stream that fell back to no samples.
func RecordFetchDegraded(stream string) {
	fetchDegradedCounter.WithLabelValues(stream).Inc()
}

// RecordImport counts an import attempt. Outcome is one of "imported",
// "duplicate" or "failed".
func RecordImport(outcome string, ts time.Time) {
	importCounter.WithLabelValues(outcome).Inc()
	if outcome == "imported" && !ts.IsZero() {
		lastImportGauge.Set(float64(ts.Unix()))
	}
}

// RecordLaps counts built laps. Fallback marks the synthetic single-lap path.
func RecordLaps(n int, fallback bool) {
	path := "samples"
	if fallback {
		path = "fallback"
	}
	lapsBuiltCounter.WithLabelValues(path).Add(float64(n))
}

// RecordPlanMismatches counts flagged workouts of a proposal.
func RecordPlanMismatches(n int) {
	if n > 0 {
		planMismatchCounter.Add(float64(n))
	}
}
