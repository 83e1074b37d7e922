package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/monitor"
)

func unit(t *testing.T, id string, status domain.UnitStatus, energy float64) domain.Unit {
	t.Helper()
	u, err := domain.NewUnit(id, id, domain.MustPosition(0, 0),
		domain.WithStatus(status), domain.WithEnergyLevel(energy))
	require.NoError(t, err)
	return *u
}

func tasksWith(t *testing.T, statuses ...domain.TaskStatus) []domain.Task {
	t.Helper()
	out := make([]domain.Task, 0, len(statuses))
	for i, s := range statuses {
		task, err := domain.NewTask("T"+string(rune('A'+i)), domain.TaskDelivery, domain.MustPosition(0, 0))
		require.NoError(t, err)
		task.SetStatus(s)
		out = append(out, *task)
	}
	return out
}

func codes(alerts []monitor.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Code)
	}
	return out
}

func TestUtilization(t *testing.T) {
	m := monitor.New()
	assert.Equal(t, monitor.Utilization{}, m.Utilization(nil))

	got := m.Utilization([]domain.Unit{
		unit(t, "R1", domain.UnitIdle, 100),
		unit(t, "R2", domain.UnitBusy, 100),
		unit(t, "R3", domain.UnitCharging, 100),
		unit(t, "R4", domain.UnitMaintenance, 100),
	})
	assert.Equal(t, monitor.Utilization{
		TotalUnits:       4,
		IdleRate:         25,
		BusyRate:         25,
		ChargingRate:     25,
		MaintenanceRate:  25,
		AvailabilityRate: 50,
	}, got)
}

func TestCompletion(t *testing.T) {
	m := monitor.New()
	assert.Equal(t, monitor.Completion{}, m.Completion(nil))

	got := m.Completion(tasksWith(t,
		domain.TaskPending, domain.TaskAssigned, domain.TaskInProgress,
		domain.TaskCompleted, domain.TaskCompleted))
	assert.Equal(t, 5, got.TotalTasks)
	assert.InDelta(t, 20.0, got.PendingRate, 1e-9)
	assert.InDelta(t, 20.0, got.AssignedRate, 1e-9)
	assert.InDelta(t, 20.0, got.InProgressRate, 1e-9)
	assert.InDelta(t, 40.0, got.CompletionRate, 1e-9)
	assert.Zero(t, got.FailureRate)
}

func TestBattery(t *testing.T) {
	m := monitor.New()
	assert.Equal(t, monitor.Battery{}, m.Battery(nil))

	got := m.Battery([]domain.Unit{
		unit(t, "R1", domain.UnitIdle, 5),
		unit(t, "R2", domain.UnitIdle, 15),
		unit(t, "R3", domain.UnitIdle, 20),
		unit(t, "R4", domain.UnitIdle, 80),
	})
	assert.InDelta(t, 30.0, got.Average, 1e-9)
	assert.Equal(t, 5.0, got.Min)
	assert.Equal(t, 80.0, got.Max)
	assert.Equal(t, 2, got.LowCount, "20 is not low")
	assert.Equal(t, 1, got.CriticalCount)
	assert.InDelta(t, 50.0, got.LowRate, 1e-9)
}

func TestHealthScore(t *testing.T) {
	m := monitor.New()

	t.Run("no units", func(t *testing.T) {
		assert.Zero(t, m.HealthScore(nil, tasksWith(t, domain.TaskCompleted)))
	})

	t.Run("units without tasks", func(t *testing.T) {
		units := []domain.Unit{unit(t, "R1", domain.UnitIdle, 100), unit(t, "R2", domain.UnitCharging, 50)}
		// 50% available, 75 average battery.
		assert.InDelta(t, 15+22.5, m.HealthScore(units, nil), 1e-9)
	})

	t.Run("weighted sum", func(t *testing.T) {
		units := []domain.Unit{unit(t, "R1", domain.UnitIdle, 100), unit(t, "R2", domain.UnitBusy, 50)}
		tasks := tasksWith(t, domain.TaskCompleted, domain.TaskFailed)
		assert.InDelta(t, 30+22.5+10, m.HealthScore(units, tasks), 1e-9)
	})

	t.Run("clamped at zero", func(t *testing.T) {
		units := []domain.Unit{unit(t, "R1", domain.UnitMaintenance, 0)}
		tasks := tasksWith(t, domain.TaskFailed, domain.TaskFailed)
		assert.Zero(t, m.HealthScore(units, tasks))
	})

	t.Run("perfect fleet", func(t *testing.T) {
		units := []domain.Unit{unit(t, "R1", domain.UnitIdle, 100)}
		assert.InDelta(t, 100.0, m.HealthScore(units, tasksWith(t, domain.TaskCompleted)), 1e-9)
	})
}

func TestAlerts(t *testing.T) {
	m := monitor.New()

	t.Run("healthy fleet has none", func(t *testing.T) {
		units := []domain.Unit{unit(t, "R1", domain.UnitIdle, 100), unit(t, "R2", domain.UnitIdle, 100)}
		assert.Empty(t, m.Alerts(units, tasksWith(t, domain.TaskCompleted)))
	})

	t.Run("empty fleet reports low health", func(t *testing.T) {
		alerts := m.Alerts(nil, nil)
		require.Len(t, alerts, 1)
		assert.Equal(t, monitor.AlertLowHealth, alerts[0].Code)
		assert.Contains(t, alerts[0].Message, "0.0")
	})

	t.Run("every threshold crossed", func(t *testing.T) {
		units := []domain.Unit{
			unit(t, "R1", domain.UnitMaintenance, 5),
			unit(t, "R2", domain.UnitIdle, 15),
			unit(t, "R3", domain.UnitIdle, 100),
		}
		tasks := tasksWith(t, domain.TaskPending, domain.TaskPending, domain.TaskFailed)
		assert.Equal(t, []string{
			monitor.AlertCriticalBattery,
			monitor.AlertLowBattery,
			monitor.AlertMaintenance,
			monitor.AlertTaskFailures,
			monitor.AlertPendingBacklog,
			monitor.AlertLowHealth,
		}, codes(m.Alerts(units, tasks)))
	})

	t.Run("rates at the threshold do not alert", func(t *testing.T) {
		units := []domain.Unit{unit(t, "R1", domain.UnitIdle, 100), unit(t, "R2", domain.UnitIdle, 100)}
		tasks := tasksWith(t,
			domain.TaskPending, domain.TaskCompleted, domain.TaskCompleted, domain.TaskCompleted, domain.TaskFailed)
		// 20% failed, 20% pending: neither is strictly above its threshold.
		assert.NotContains(t, codes(m.Alerts(units, tasks)), monitor.AlertTaskFailures)
	})
}

func TestReport(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start
	m := monitor.New(monitor.WithClock(func() time.Time { return now }))
	now = start.Add(90 * time.Second)

	assert.Equal(t, 90*time.Second, m.Uptime())

	report := m.Report([]domain.Unit{unit(t, "R1", domain.UnitIdle, 80)}, nil)
	assert.Contains(t, report, "Generated: 2024-05-01 12:01:30")
	assert.Contains(t, report, "Uptime:    1m30s")
	assert.Contains(t, report, "availability: 100.0%")
	assert.Contains(t, report, "no task data")
	assert.Contains(t, report, "average:      80.0%")

	empty := m.Report(nil, nil)
	assert.Contains(t, empty, "no unit data")
	assert.Contains(t, empty, "no battery data")
}
