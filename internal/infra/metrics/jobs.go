package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		jobsCreatedTotal,
		jobsProcessedTotal,
		jobsRecoveredTotal,
		schedulerSkipsTotal,
		pipelineDurationSeconds,
		reflectionsSavedTotal,
		quietSuppressedTotal,
	)
}

var jobsCreatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "reflection_jobs_created_total",
		Help: "Jobs enqueued by the scheduler.",
	},
)

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reflection_jobs_processed_total",
		Help: "Job outcomes per worker pass, labeled by result.",
	},
	[]string{"result"}, // 'completed', 'requeued', 'failed'
)

var jobsRecoveredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "reflection_jobs_recovered_total",
		Help: "Stale processing jobs swept back to pending.",
	},
)

var schedulerSkipsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scheduler_skips_total",
		Help: "Repos skipped during eligibility passes, labeled by rule.",
	},
	[]string{"reason"},
)

var pipelineDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pipeline_duration_seconds",
		Help:    "Wall-clock duration of one pipeline execution.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
	},
	[]string{"success"},
)

var reflectionsSavedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reflections_saved_total",
		Help: "Reflections persisted, labeled by kind.",
	},
	[]string{"kind"}, // 'normal', 'quiet'
)

var quietSuppressedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "quiet_days_suppressed_total",
		Help: "Quiet evaluations suppressed by the escalation ceiling.",
	},
)

func AddJobsCreated(n int) {
	if n > 0 {
		jobsCreatedTotal.Add(float64(n))
	}
}

func IncJobProcessed(result string) {
	jobsProcessedTotal.WithLabelValues(norm(result)).Inc()
}

func AddJobsRecovered(n int) {
	if n > 0 {
		jobsRecoveredTotal.Add(float64(n))
	}
}

func IncSchedulerSkip(reason string) {
	if reason == "" {
		return
	}
	schedulerSkipsTotal.WithLabelValues(norm(reason)).Inc()
}

func ObservePipelineDuration(seconds float64, success bool) {
	pipelineDurationSeconds.WithLabelValues(strconv.FormatBool(success)).Observe(seconds)
}

func IncReflectionSaved(quiet bool) {
	kind := "normal"
	if quiet {
		kind = "quiet"
	}
	reflectionsSavedTotal.WithLabelValues(kind).Inc()
}

func IncQuietSuppressed() {
	quietSuppressedTotal.Inc()
}
