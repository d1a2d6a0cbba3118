package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики выполнения. Регистрируются в DefaultRegisterer при импорте
// пакета; агент отдаёт их через promhttp на /metrics.
var (
	// RunsStarted — количество начатых запусков.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_runs_started_total",
		Help: "Total pipeline runs started",
	})

	// RunsFinished — завершённые запуски по статусу (SUCCEEDED/FAILED).
	RunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_runs_finished_total",
		Help: "Total pipeline runs finished, by final status",
	}, []string{"status"})

	// RunsInFlight — запуски, выполняемые прямо сейчас.
	RunsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conveyor_runs_in_flight",
		Help: "Pipeline runs currently executing",
	})

	// JobsFinished — завершённые jobs по статусу (PASSED/FAILED/SKIPPED).
	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_jobs_finished_total",
		Help: "Total matrix jobs finished, by final status",
	}, []string{"status"})

	// JobDuration — длительность выполнения job в секундах.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conveyor_job_duration_seconds",
		Help:    "Matrix job execution duration",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// RunRequestsConsumed — запросы на запуск, принятые из очереди.
	RunRequestsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_run_requests_consumed_total",
		Help: "Run requests consumed from the message queue",
	})
)
