// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	ApplicantsRanked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_applicants_ranked_total",
			Help: "Applicants ranked by classification, per age cohort",
		},
		[]string{"age"},
	)

	AllocationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_allocation_outcomes_total",
			Help: "Compatibilization outcomes per applicant",
		},
		[]string{"outcome"},
	)

	MappingRowsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admission_mapping_rows",
			Help: "Mapping rows of the latest run, per status",
		},
		[]string{"status"},
	)

	PendingReservations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admission_pending_reservations",
			Help: "Pending reservations of the latest aggregation, per origin",
		},
		[]string{"origin"},
	)

	RegistryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_registry_requests_total",
			Help: "Student registry requests, per endpoint and result",
		},
		[]string{"endpoint", "result"},
	)
)
