// Package monitor derives read-only fleet statistics, a health score and
// alert conditions from unit and task snapshots.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
)

// Battery thresholds, in percent.
const (
	LowBattery      = 20.0
	CriticalBattery = 10.0
)

// Alert thresholds, in percent of the relevant population.
const (
	lowBatteryAlertRate  = 50.0
	maintenanceAlertRate = 30.0
	failureAlertRate     = 20.0
	pendingAlertRate     = 50.0
	healthAlertScore     = 60.0
)

// Alert codes.
const (
	AlertCriticalBattery = "critical_battery"
	AlertLowBattery      = "low_battery"
	AlertMaintenance     = "maintenance"
	AlertTaskFailures    = "task_failures"
	AlertPendingBacklog  = "pending_backlog"
	AlertLowHealth       = "low_health"
)

// Utilization holds unit status rates in percent.
type Utilization struct {
	TotalUnits       int     `json:"total_units" yaml:"total_units"`
	IdleRate         float64 `json:"idle_rate" yaml:"idle_rate"`
	BusyRate         float64 `json:"busy_rate" yaml:"busy_rate"`
	ChargingRate     float64 `json:"charging_rate" yaml:"charging_rate"`
	MaintenanceRate  float64 `json:"maintenance_rate" yaml:"maintenance_rate"`
	AvailabilityRate float64 `json:"availability_rate" yaml:"availability_rate"`
}

// Completion holds task status rates in percent.
type Completion struct {
	TotalTasks     int     `json:"total_tasks" yaml:"total_tasks"`
	PendingRate    float64 `json:"pending_rate" yaml:"pending_rate"`
	AssignedRate   float64 `json:"assigned_rate" yaml:"assigned_rate"`
	InProgressRate float64 `json:"in_progress_rate" yaml:"in_progress_rate"`
	CompletionRate float64 `json:"completion_rate" yaml:"completion_rate"`
	FailureRate    float64 `json:"failure_rate" yaml:"failure_rate"`
}

// Battery summarises unit energy levels.
type Battery struct {
	Average       float64 `json:"average_battery" yaml:"average_battery"`
	Min           float64 `json:"min_battery" yaml:"min_battery"`
	Max           float64 `json:"max_battery" yaml:"max_battery"`
	LowCount      int     `json:"low_battery_count" yaml:"low_battery_count"`
	CriticalCount int     `json:"critical_battery_count" yaml:"critical_battery_count"`
	LowRate       float64 `json:"low_battery_rate" yaml:"low_battery_rate"`
}

// Alert is a threshold crossing found by Alerts.
type Alert struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Monitor computes statistics over snapshots. It keeps no fleet state, only
// the time it was created for uptime reporting.
type Monitor struct {
	startedAt time.Time
	now       func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }

// New returns a Monitor whose uptime starts now.
func New(opts ...Option) *Monitor {
	m := &Monitor{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.now()
	return m
}

// Uptime returns the time elapsed since New.
func (m *Monitor) Uptime() time.Duration {
	return m.now().Sub(m.startedAt)
}

// Utilization returns a zero value for an empty slice.
func (m *Monitor) Utilization(units []domain.Unit) Utilization {
	if len(units) == 0 {
		return Utilization{}
	}
	counts := make(map[domain.UnitStatus]int, len(domain.UnitStatuses))
	for _, u := range units {
		counts[u.Status()]++
	}
	total := len(units)
	return Utilization{
		TotalUnits:       total,
		IdleRate:         percent(counts[domain.UnitIdle], total),
		BusyRate:         percent(counts[domain.UnitBusy], total),
		ChargingRate:     percent(counts[domain.UnitCharging], total),
		MaintenanceRate:  percent(counts[domain.UnitMaintenance], total),
		AvailabilityRate: percent(counts[domain.UnitIdle]+counts[domain.UnitBusy], total),
	}
}

// Completion returns a zero value for an empty slice.
func (m *Monitor) Completion(tasks []domain.Task) Completion {
	if len(tasks) == 0 {
		return Completion{}
	}
	counts := make(map[domain.TaskStatus]int, len(domain.TaskStatuses))
	for _, t := range tasks {
		counts[t.Status()]++
	}
	total := len(tasks)
	return Completion{
		TotalTasks:     total,
		PendingRate:    percent(counts[domain.TaskPending], total),
		AssignedRate:   percent(counts[domain.TaskAssigned], total),
		InProgressRate: percent(counts[domain.TaskInProgress], total),
		CompletionRate: percent(counts[domain.TaskCompleted], total),
		FailureRate:    percent(counts[domain.TaskFailed], total),
	}
}

// Battery returns a zero value for an empty slice.
func (m *Monitor) Battery(units []domain.Unit) Battery {
	if len(units) == 0 {
		return Battery{}
	}
	b := Battery{Min: units[0].EnergyLevel(), Max: units[0].EnergyLevel()}
	var sum float64
	for _, u := range units {
		e := u.EnergyLevel()
		sum += e
		b.Min = min(b.Min, e)
		b.Max = max(b.Max, e)
		if e < LowBattery {
			b.LowCount++
		}
		if e < CriticalBattery {
			b.CriticalCount++
		}
	}
	b.Average = sum / float64(len(units))
	b.LowRate = percent(b.LowCount, len(units))
	return b
}

// HealthScore weighs availability (30%), average battery (30%) and, when
// there are tasks, completion minus half the failure rate (40%). The result
// is clamped to [0, 100]; a fleet with no units scores 0.
func (m *Monitor) HealthScore(units []domain.Unit, tasks []domain.Task) float64 {
	if len(units) == 0 {
		return 0
	}
	score := m.Utilization(units).AvailabilityRate*0.3 +
		min(m.Battery(units).Average, 100)*0.3
	if len(tasks) > 0 {
		c := m.Completion(tasks)
		score += (c.CompletionRate - c.FailureRate/2) * 0.4
	}
	return max(0, min(100, score))
}

// Alerts lists every threshold the snapshot crosses. The low health alert
// fires for an empty fleet too, since its score is 0.
func (m *Monitor) Alerts(units []domain.Unit, tasks []domain.Task) []Alert {
	var alerts []Alert

	if len(units) > 0 {
		b := m.Battery(units)
		if b.CriticalCount > 0 {
			alerts = append(alerts, Alert{AlertCriticalBattery,
				fmt.Sprintf("%d unit(s) at critical battery", b.CriticalCount)})
		}
		if b.LowRate > lowBatteryAlertRate {
			alerts = append(alerts, Alert{AlertLowBattery,
				fmt.Sprintf("more than %.0f%% of units are low on battery", lowBatteryAlertRate)})
		}
		if m.Utilization(units).MaintenanceRate > maintenanceAlertRate {
			alerts = append(alerts, Alert{AlertMaintenance,
				fmt.Sprintf("more than %.0f%% of units are in maintenance", maintenanceAlertRate)})
		}
	}

	if len(tasks) > 0 {
		c := m.Completion(tasks)
		if c.FailureRate > failureAlertRate {
			alerts = append(alerts, Alert{AlertTaskFailures,
				fmt.Sprintf("task failure rate above %.0f%%", failureAlertRate)})
		}
		if c.PendingRate > pendingAlertRate {
			alerts = append(alerts, Alert{AlertPendingBacklog,
				fmt.Sprintf("more than %.0f%% of tasks are pending", pendingAlertRate)})
		}
	}

	if score := m.HealthScore(units, tasks); score < healthAlertScore {
		alerts = append(alerts, Alert{AlertLowHealth,
			fmt.Sprintf("fleet health is low: %.1f", score)})
	}
	return alerts
}

// Report renders a plain-text status report.
func (m *Monitor) Report(units []domain.Unit, tasks []domain.Task) string {
	now := m.now()
	var sb strings.Builder

	fmt.Fprintln(&sb, "Fleet status report")
	fmt.Fprintln(&sb, strings.Repeat("=", 50))
	fmt.Fprintf(&sb, "Generated: %s\n", now.Format(time.DateTime))
	fmt.Fprintf(&sb, "Uptime:    %s\n\n", now.Sub(m.startedAt).Round(time.Second))

	fmt.Fprintln(&sb, "Units:")
	if len(units) > 0 {
		u := m.Utilization(units)
		fmt.Fprintf(&sb, "  total:        %d\n", u.TotalUnits)
		fmt.Fprintf(&sb, "  idle:         %.1f%%\n", u.IdleRate)
		fmt.Fprintf(&sb, "  busy:         %.1f%%\n", u.BusyRate)
		fmt.Fprintf(&sb, "  charging:     %.1f%%\n", u.ChargingRate)
		fmt.Fprintf(&sb, "  maintenance:  %.1f%%\n", u.MaintenanceRate)
		fmt.Fprintf(&sb, "  availability: %.1f%%\n", u.AvailabilityRate)
	} else {
		fmt.Fprintln(&sb, "  no unit data")
	}
	fmt.Fprintln(&sb)

	fmt.Fprintln(&sb, "Tasks:")
	if len(tasks) > 0 {
		c := m.Completion(tasks)
		fmt.Fprintf(&sb, "  total:        %d\n", c.TotalTasks)
		fmt.Fprintf(&sb, "  pending:      %.1f%%\n", c.PendingRate)
		fmt.Fprintf(&sb, "  assigned:     %.1f%%\n", c.AssignedRate)
		fmt.Fprintf(&sb, "  in progress:  %.1f%%\n", c.InProgressRate)
		fmt.Fprintf(&sb, "  completed:    %.1f%%\n", c.CompletionRate)
		fmt.Fprintf(&sb, "  failed:       %.1f%%\n", c.FailureRate)
	} else {
		fmt.Fprintln(&sb, "  no task data")
	}
	fmt.Fprintln(&sb)

	fmt.Fprintln(&sb, "Battery:")
	if len(units) > 0 {
		b := m.Battery(units)
		fmt.Fprintf(&sb, "  average:      %.1f%%\n", b.Average)
		fmt.Fprintf(&sb, "  min:          %.1f%%\n", b.Min)
		fmt.Fprintf(&sb, "  max:          %.1f%%\n", b.Max)
		fmt.Fprintf(&sb, "  low:          %d\n", b.LowCount)
		fmt.Fprintf(&sb, "  critical:     %d\n", b.CriticalCount)
	} else {
		fmt.Fprintln(&sb, "  no battery data")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func percent(n, total int) float64 {
	return float64(n) / float64(total) * 100
}
