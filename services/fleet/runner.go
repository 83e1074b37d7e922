// Package fleet drives a Scheduler on a cron schedule: each tick assigns
// pending tasks, starts assigned ones and publishes fleet health.
package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/location"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/monitor"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/scheduler"
	"github.com/ramiqadoumi/go-fleet-dispatch/pkg/telemetry"
	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet/config"
)

// TickResult summarises one dispatch pass.
type TickResult struct {
	Assigned  map[string]string // task ID -> unit ID
	Started   []string
	Completed []string
	Status    scheduler.Status
	Health    float64
	Alerts    []monitor.Alert
}

// Runner is not safe for concurrent Tick calls; Run serialises them.
type Runner struct {
	sched      *scheduler.Scheduler
	mon        *monitor.Monitor
	schedule   cron.Schedule
	unitSpeed  float64
	readiness  *telemetry.Readiness
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
	instanceID string

	simulate          bool
	energyPerDistance float64
	chargePerTick     float64
	due               map[string]time.Time
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(l *slog.Logger) Option             { return func(r *Runner) { r.logger = l } }
func WithMonitor(m *monitor.Monitor) Option        { return func(r *Runner) { r.mon = m } }
func WithUnitSpeed(speed float64) Option           { return func(r *Runner) { r.unitSpeed = speed } }
func WithReadiness(rd *telemetry.Readiness) Option { return func(r *Runner) { r.readiness = rd } }
func WithClock(now func() time.Time) Option        { return func(r *Runner) { r.now = now } }
func WithTracer(t trace.Tracer) Option             { return func(r *Runner) { r.tracer = t } }

// WithSimulation makes the runner play the units' part: in-progress tasks
// complete once travel time plus their estimated duration has passed, the
// unit moves to the target and loses energyPerDistance per unit travelled,
// and idle or charging units regain chargePerTick every tick.
func WithSimulation(energyPerDistance, chargePerTick float64) Option {
	return func(r *Runner) {
		r.simulate = true
		r.energyPerDistance = energyPerDistance
		r.chargePerTick = chargePerTick
	}
}

// NewRunner parses expr as a standard five-field cron expression.
func NewRunner(sched *scheduler.Scheduler, expr string, opts ...Option) (*Runner, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}

	r := &Runner{
		sched:      sched,
		schedule:   schedule,
		unitSpeed:  config.DefaultUnitSpeed,
		logger:     slog.Default(),
		tracer:     telemetry.Tracer(),
		now:        time.Now,
		instanceID: "fleetd-" + uuid.New().String()[:8],
		due:        make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := location.TravelTime(0, r.unitSpeed); err != nil {
		return nil, fmt.Errorf("unit speed %v: %w", r.unitSpeed, err)
	}
	if r.mon == nil {
		r.mon = monitor.New(monitor.WithClock(r.now))
	}
	return r, nil
}

// Run ticks once immediately and then at every scheduled time until ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context) {
	if r.readiness != nil {
		r.readiness.SetReady(true)
		defer r.readiness.SetReady(false)
	}
	r.logger.Info("runner starting", slog.String("instance_id", r.instanceID))

	r.Tick(ctx)
	for {
		next := r.schedule.Next(r.now())
		timer := time.NewTimer(next.Sub(r.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("runner stopped", slog.String("instance_id", r.instanceID))
			return
		case <-timer.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one dispatch pass.
func (r *Runner) Tick(ctx context.Context) TickResult {
	_, span := r.tracer.Start(ctx, "fleet.tick",
		trace.WithAttributes(attribute.String("fleet.runner_id", r.instanceID)))
	defer span.End()

	now := r.now()
	var res TickResult

	if r.simulate {
		res.Completed = r.completeDue(now)
		r.recharge()
	}

	res.Assigned = r.sched.AutoAssignPendingTasks()
	for _, t := range r.sched.Tasks() {
		if t.Status() != domain.TaskAssigned {
			continue
		}
		if err := r.sched.StartTask(t.ID()); err != nil {
			r.logger.Warn("start task",
				slog.String("task_id", t.ID()),
				slog.String("error", err.Error()),
			)
			span.RecordError(err)
			continue
		}
		res.Started = append(res.Started, t.ID())
		r.trackETA(now, t)
	}

	units, tasks := r.sched.Units(), r.sched.Tasks()
	res.Status = r.sched.SystemStatus()
	res.Health = r.mon.HealthScore(units, tasks)
	res.Alerts = r.mon.Alerts(units, tasks)
	publish(res, r.mon.Battery(units))

	for _, a := range res.Alerts {
		r.logger.Warn("fleet alert", slog.String("alert", a.Code), slog.String("message", a.Message))
	}
	if len(res.Alerts) > 0 {
		span.SetStatus(codes.Error, "fleet alerts raised")
	}
	span.SetAttributes(
		attribute.Int("fleet.assigned", len(res.Assigned)),
		attribute.Int("fleet.started", len(res.Started)),
		attribute.Int("fleet.completed", len(res.Completed)),
		attribute.Float64("fleet.health_score", res.Health),
	)
	telemetry.RunnerTicksTotal.Inc()

	r.logger.Debug("tick done",
		slog.Int("assigned", len(res.Assigned)),
		slog.Int("started", len(res.Started)),
		slog.Int("completed", len(res.Completed)),
		slog.Float64("health_score", res.Health),
	)
	return res
}

// trackETA logs the unit's travel estimate and, when simulating, schedules
// the task's completion.
func (r *Runner) trackETA(now time.Time, t domain.Task) {
	unitID, _ := t.AssignedUnit()
	u, err := r.sched.Unit(unitID)
	if err != nil {
		return
	}
	distance := location.Distance(u.Position(), t.Target())
	secs, _ := location.TravelTime(distance, r.unitSpeed)
	eta := time.Duration(secs * float64(time.Second)).Round(time.Second)

	r.logger.Info("task started",
		slog.String("task_id", t.ID()),
		slog.String("unit_id", unitID),
		slog.Float64("distance", distance),
		slog.Duration("eta", eta),
	)
	if r.simulate {
		r.due[t.ID()] = now.Add(eta + t.EstimatedTime())
	}
}

func (r *Runner) completeDue(now time.Time) []string {
	var done []string
	dueIDs := make([]string, 0, len(r.due))
	for taskID := range r.due {
		dueIDs = append(dueIDs, taskID)
	}
	slices.Sort(dueIDs)
	for _, taskID := range dueIDs {
		if r.due[taskID].After(now) {
			continue
		}
		delete(r.due, taskID)

		// Tasks failed or reset by someone else in the meantime are dropped.
		t, err := r.sched.Task(taskID)
		if err != nil || t.Status() != domain.TaskInProgress {
			continue
		}
		unitID, _ := t.AssignedUnit()
		u, unitErr := r.sched.Unit(unitID)

		if err := r.sched.CompleteTask(taskID); err != nil {
			r.logger.Warn("complete task",
				slog.String("task_id", taskID),
				slog.String("error", err.Error()),
			)
			continue
		}
		done = append(done, taskID)
		if unitErr == nil {
			r.arrive(u, t.Target())
		}
	}
	return done
}

// arrive moves u to target and drains the energy spent on the way.
func (r *Runner) arrive(u domain.Unit, target domain.Position) {
	distance := location.Distance(u.Position(), target)
	level := max(0, u.EnergyLevel()-distance*r.energyPerDistance)
	if err := r.sched.MoveUnit(u.ID(), target); err != nil {
		return
	}
	if err := r.sched.SetUnitEnergy(u.ID(), level); err != nil {
		r.logger.Warn("set energy", slog.String("unit_id", u.ID()), slog.String("error", err.Error()))
	}
}

func (r *Runner) recharge() {
	for _, u := range r.sched.Units() {
		if u.Status() != domain.UnitIdle && u.Status() != domain.UnitCharging {
			continue
		}
		if u.EnergyLevel() >= domain.DefaultEnergyLevel || r.chargePerTick <= 0 {
			continue
		}
		level := min(domain.DefaultEnergyLevel, u.EnergyLevel()+r.chargePerTick)
		if err := r.sched.SetUnitEnergy(u.ID(), level); err != nil {
			r.logger.Warn("recharge", slog.String("unit_id", u.ID()), slog.String("error", err.Error()))
		}
	}
}

func publish(res TickResult, battery monitor.Battery) {
	st := res.Status
	telemetry.FleetUnits.WithLabelValues(string(domain.UnitIdle)).Set(float64(st.IdleUnits))
	telemetry.FleetUnits.WithLabelValues(string(domain.UnitBusy)).Set(float64(st.BusyUnits))
	telemetry.FleetUnits.WithLabelValues(string(domain.UnitCharging)).Set(float64(st.ChargingUnits))
	telemetry.FleetUnits.WithLabelValues(string(domain.UnitMaintenance)).Set(float64(st.MaintenanceUnits))

	telemetry.FleetTasks.WithLabelValues(string(domain.TaskPending)).Set(float64(st.PendingTasks))
	telemetry.FleetTasks.WithLabelValues(string(domain.TaskAssigned)).Set(float64(st.AssignedTasks))
	telemetry.FleetTasks.WithLabelValues(string(domain.TaskInProgress)).Set(float64(st.InProgressTasks))
	telemetry.FleetTasks.WithLabelValues(string(domain.TaskCompleted)).Set(float64(st.CompletedTasks))
	telemetry.FleetTasks.WithLabelValues(string(domain.TaskFailed)).Set(float64(st.FailedTasks))

	telemetry.FleetHealthScore.Set(res.Health)
	telemetry.FleetAverageBattery.Set(battery.Average)
	telemetry.FleetAlerts.Set(float64(len(res.Alerts)))
}
