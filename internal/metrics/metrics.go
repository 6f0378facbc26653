package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_engine_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roster_engine_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	ObservationsHarvested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_engine_observations_harvested_total",
			Help: "Raw observations harvested per source",
		},
		[]string{"source_id"},
	)

	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_engine_source_failures_total",
			Help: "Harvest failures per source",
		},
		[]string{"source_id"},
	)

	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_engine_records_dropped_total",
			Help: "Observations dropped before identity resolution",
		},
		[]string{"reason"},
	)

	IdentitiesResolved = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roster_engine_identities_resolved",
			Help: "Player identities resolved by the latest run",
		},
	)

	RosterEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roster_engine_roster_entries",
			Help: "Roster entries kept after capping in the latest run",
		},
	)

	InjuriesMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_engine_injuries_matched_total",
			Help: "Injury records matched per tier",
		},
		[]string{"tier"},
	)

	MismatchesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_engine_mismatches_emitted_total",
			Help: "Mismatch diagnostic records emitted",
		},
	)

	InjuriesDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_engine_injuries_deactivated_total",
			Help: "Injury records deactivated by pruning",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roster_engine_last_successful_run_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)
)

func RecordHarvest(bySource map[string]int, failed []string) {
	for sourceID, count := range bySource {
		ObservationsHarvested.WithLabelValues(sourceID).Add(float64(count))
	}
	for _, sourceID := range failed {
		SourceFailures.WithLabelValues(sourceID).Inc()
	}
}

func RecordDrops(malformed, nonPlayer int) {
	if malformed > 0 {
		RecordsDropped.WithLabelValues("malformed").Add(float64(malformed))
	}
	if nonPlayer > 0 {
		RecordsDropped.WithLabelValues("non_player").Add(float64(nonPlayer))
	}
}

func RecordMatches(exact, variant, fuzzy, unresolved int) {
	InjuriesMatched.WithLabelValues("exact").Add(float64(exact))
	InjuriesMatched.WithLabelValues("variant").Add(float64(variant))
	InjuriesMatched.WithLabelValues("fuzzy").Add(float64(fuzzy))
	InjuriesMatched.WithLabelValues("unresolved").Add(float64(unresolved))
}

func RecordRun(status string, durationSeconds float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(durationSeconds)
	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}
