package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Scheduler ───────────────────────────────────────────────────────────────

	SchedulerAssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "scheduler",
		Name:      "assignments_total",
		Help:      "Total tasks bound to a unit, labelled by task type.",
	}, []string{"task_type"})

	SchedulerAssignmentMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "scheduler",
		Name:      "assignment_misses_total",
		Help:      "Assignment attempts that found no available unit.",
	}, []string{"task_type"})

	SchedulerAssignmentFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "scheduler",
		Name:      "assignment_failures_total",
		Help:      "Assignments rolled back because a transition was rejected.",
	})

	SchedulerTasksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "scheduler",
		Name:      "tasks_finished_total",
		Help:      "Tasks that reached a terminal status, labelled by status.",
	}, []string{"status"})

	SchedulerAssignmentDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fleet",
		Subsystem: "scheduler",
		Name:      "assignment_distance",
		Help:      "Straight-line distance between the chosen unit and the task target.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000},
	})

	// ─── Fleet (published by the runner) ─────────────────────────────────────────

	FleetUnits = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fleet",
		Subsystem: "units",
		Name:      "count",
		Help:      "Registered units by status.",
	}, []string{"status"})

	FleetTasks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fleet",
		Subsystem: "tasks",
		Name:      "count",
		Help:      "Known tasks by status.",
	}, []string{"status"})

	FleetHealthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleet",
		Subsystem: "monitor",
		Name:      "health_score",
		Help:      "Derived fleet health score (0-100).",
	})

	FleetAverageBattery = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleet",
		Subsystem: "monitor",
		Name:      "average_battery",
		Help:      "Average energy level across registered units.",
	})

	FleetAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleet",
		Subsystem: "monitor",
		Name:      "alerts",
		Help:      "Number of alert conditions raised by the last health check.",
	})

	RunnerTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "runner",
		Name:      "ticks_total",
		Help:      "Dispatch passes executed by the runner.",
	})
)
