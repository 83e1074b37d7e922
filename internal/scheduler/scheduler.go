package scheduler

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/pkg/telemetry"
)

// Status is a point-in-time count of units and tasks by status.
type Status struct {
	TotalUnits       int `json:"total_units" yaml:"total_units"`
	IdleUnits        int `json:"idle_units" yaml:"idle_units"`
	BusyUnits        int `json:"busy_units" yaml:"busy_units"`
	ChargingUnits    int `json:"charging_units" yaml:"charging_units"`
	MaintenanceUnits int `json:"maintenance_units" yaml:"maintenance_units"`
	TotalTasks       int `json:"total_tasks" yaml:"total_tasks"`
	PendingTasks     int `json:"pending_tasks" yaml:"pending_tasks"`
	AssignedTasks    int `json:"assigned_tasks" yaml:"assigned_tasks"`
	InProgressTasks  int `json:"in_progress_tasks" yaml:"in_progress_tasks"`
	CompletedTasks   int `json:"completed_tasks" yaml:"completed_tasks"`
	FailedTasks      int `json:"failed_tasks" yaml:"failed_tasks"`
}

// Scheduler owns the fleet's units and tasks and keeps both sides of every
// assignment in sync. Units and tasks refer to each other by ID only; the
// scheduler is the one place those IDs are resolved.
//
// Every exported method holds mu for its whole duration, so an assignment's
// read of unit availability and its writes to unit and task are one critical
// section.
type Scheduler struct {
	mu        sync.Mutex
	units     map[string]*domain.Unit
	unitOrder []string
	tasks     map[string]*domain.Task
	taskOrder []string
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithLogger(l *slog.Logger) Option { return func(s *Scheduler) { s.logger = l } }

// New returns an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		units:  make(map[string]*domain.Unit),
		tasks:  make(map[string]*domain.Task),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUnit admits a unit to the fleet.
// Returns DuplicateUnitError if the ID is already registered.
func (s *Scheduler) RegisterUnit(u *domain.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.units[u.ID()]; ok {
		return &domain.DuplicateUnitError{UnitID: u.ID()}
	}
	s.units[u.ID()] = u
	s.unitOrder = append(s.unitOrder, u.ID())
	s.logger.Debug("unit registered", slog.String("unit_id", u.ID()))
	return nil
}

// DeregisterUnit removes a unit. A task held by the unit goes back to
// pending with no unit, whatever status it had reached.
// Returns UnitNotFoundError if the ID is unknown.
func (s *Scheduler) DeregisterUnit(unitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units[unitID]
	if !ok {
		return &domain.UnitNotFoundError{UnitID: unitID}
	}
	if taskID, has := u.CurrentTask(); has {
		if t, ok := s.tasks[taskID]; ok {
			t.Reset()
			s.logger.Info("task returned to pending",
				slog.String("task_id", taskID),
				slog.String("unit_id", unitID),
			)
		}
	}
	delete(s.units, unitID)
	s.unitOrder = slices.DeleteFunc(s.unitOrder, func(id string) bool { return id == unitID })
	s.logger.Debug("unit deregistered", slog.String("unit_id", unitID))
	return nil
}

// MoveUnit records a new position reported by the unit.
// Returns UnitNotFoundError if the ID is unknown.
func (s *Scheduler) MoveUnit(unitID string, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units[unitID]
	if !ok {
		return &domain.UnitNotFoundError{UnitID: unitID}
	}
	u.MoveTo(p)
	return nil
}

// SetUnitEnergy records a battery reading. Out-of-range readings are
// rejected with a ValidationError and leave the unit unchanged.
func (s *Scheduler) SetUnitEnergy(unitID string, level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units[unitID]
	if !ok {
		return &domain.UnitNotFoundError{UnitID: unitID}
	}
	return u.SetEnergyLevel(level)
}

// AddTask inserts a task, replacing any task with the same ID.
func (s *Scheduler) AddTask(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addTask(t)
}

func (s *Scheduler) addTask(t *domain.Task) {
	if _, ok := s.tasks[t.ID()]; !ok {
		s.taskOrder = append(s.taskOrder, t.ID())
	}
	s.tasks[t.ID()] = t
}

// AssignTask adds t and binds it to the nearest available unit.
//
// It returns the chosen unit's ID, or "" with a nil error when no unit is
// available; the task then stays pending. If either side rejects the binding
// the task is reset to pending, the unit is released, and an
// AssignmentFailedError wrapping the rejection is returned.
func (s *Scheduler) AssignTask(t *domain.Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addTask(t)
	return s.assignTask(t)
}

func (s *Scheduler) assignTask(t *domain.Task) (string, error) {
	u, distance := s.nearestAvailable(t.Target())
	if u == nil {
		telemetry.SchedulerAssignmentMissesTotal.WithLabelValues(string(t.Type())).Inc()
		s.logger.Debug("no available unit", slog.String("task_id", t.ID()))
		return "", nil
	}

	if err := u.Assign(t.ID()); err != nil {
		t.Reset()
		telemetry.SchedulerAssignmentFailuresTotal.Inc()
		return "", &domain.AssignmentFailedError{TaskID: t.ID(), UnitID: u.ID(), Err: err}
	}
	if err := t.AssignTo(u.ID()); err != nil {
		u.Release()
		t.Reset()
		telemetry.SchedulerAssignmentFailuresTotal.Inc()
		return "", &domain.AssignmentFailedError{TaskID: t.ID(), UnitID: u.ID(), Err: err}
	}

	telemetry.SchedulerAssignmentsTotal.WithLabelValues(string(t.Type())).Inc()
	telemetry.SchedulerAssignmentDistance.Observe(distance)
	s.logger.Info("task assigned",
		slog.String("task_id", t.ID()),
		slog.String("task_type", string(t.Type())),
		slog.String("unit_id", u.ID()),
		slog.Float64("distance", distance),
	)
	return u.ID(), nil
}

// nearestAvailable scans available units in registration order. The strict
// comparison keeps the first unit found at the minimum distance.
func (s *Scheduler) nearestAvailable(target domain.Position) (*domain.Unit, float64) {
	var best *domain.Unit
	bestDistance := math.Inf(1)
	for _, id := range s.unitOrder {
		u := s.units[id]
		if !u.IsAvailable() {
			continue
		}
		if d := u.Position().DistanceTo(target); d < bestDistance {
			best, bestDistance = u, d
		}
	}
	return best, bestDistance
}

// StartTask moves an assigned task to in progress.
func (s *Scheduler) StartTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return &domain.TaskNotFoundError{TaskID: taskID}
	}
	return t.Start()
}

// CompleteTask releases the task's unit and marks the task completed.
//
// The unit is released before the transition is attempted, so it is idle
// again even when the task was not in progress and InvalidTransitionError is
// returned. Returns TaskNotFoundError if the ID is unknown.
func (s *Scheduler) CompleteTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return &domain.TaskNotFoundError{TaskID: taskID}
	}
	s.releaseUnit(t)
	if err := t.Complete(); err != nil {
		s.logger.Warn("task not completed",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		return err
	}
	telemetry.SchedulerTasksFinished.WithLabelValues(string(domain.TaskCompleted)).Inc()
	s.logger.Info("task completed", slog.String("task_id", taskID))
	return nil
}

// FailTask releases the task's unit and marks the task failed with reason.
// Returns TaskNotFoundError if the ID is unknown.
func (s *Scheduler) FailTask(taskID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return &domain.TaskNotFoundError{TaskID: taskID}
	}
	s.releaseUnit(t)
	t.Fail(reason)
	telemetry.SchedulerTasksFinished.WithLabelValues(string(domain.TaskFailed)).Inc()
	s.logger.Info("task failed",
		slog.String("task_id", taskID),
		slog.String("reason", reason),
	)
	return nil
}

func (s *Scheduler) releaseUnit(t *domain.Task) {
	unitID, has := t.AssignedUnit()
	if !has {
		return
	}
	if u, ok := s.units[unitID]; ok {
		u.Release()
	}
}

// AutoAssignPendingTasks tries to assign every pending task, highest
// priority first. Tasks that cannot be placed are skipped. The result maps
// task ID to unit ID for the tasks that were assigned.
func (s *Scheduler) AutoAssignPendingTasks() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignments := make(map[string]string)
	for _, t := range s.pendingTasks() {
		unitID, err := s.assignTask(t)
		if err != nil {
			s.logger.Warn("assignment skipped",
				slog.String("task_id", t.ID()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if unitID != "" {
			assignments[t.ID()] = unitID
		}
	}
	return assignments
}

func (s *Scheduler) pendingTasks() []*domain.Task {
	var pending []*domain.Task
	for _, id := range s.taskOrder {
		if t := s.tasks[id]; t.IsPending() {
			pending = append(pending, t)
		}
	}
	slices.SortStableFunc(pending, func(a, b *domain.Task) int {
		return cmp.Compare(b.Priority(), a.Priority())
	})
	return pending
}

// AvailableUnits returns copies of the units that can take a task now.
func (s *Scheduler) AvailableUnits() []domain.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Unit
	for _, id := range s.unitOrder {
		if u := s.units[id]; u.IsAvailable() {
			out = append(out, *u)
		}
	}
	return out
}

// PendingTasks returns copies of the pending tasks, highest priority first.
// Tasks of equal priority keep the order they were added in.
func (s *Scheduler) PendingTasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingTasks()
	out := make([]domain.Task, 0, len(pending))
	for _, t := range pending {
		out = append(out, *t)
	}
	return out
}

// Units returns copies of all registered units in registration order.
func (s *Scheduler) Units() []domain.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Unit, 0, len(s.unitOrder))
	for _, id := range s.unitOrder {
		out = append(out, *s.units[id])
	}
	return out
}

// Tasks returns copies of all tasks in the order they were added.
func (s *Scheduler) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Task, 0, len(s.taskOrder))
	for _, id := range s.taskOrder {
		out = append(out, *s.tasks[id])
	}
	return out
}

// Unit returns a copy of the unit with the given ID.
func (s *Scheduler) Unit(unitID string) (domain.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units[unitID]
	if !ok {
		return domain.Unit{}, &domain.UnitNotFoundError{UnitID: unitID}
	}
	return *u, nil
}

// Task returns a copy of the task with the given ID.
func (s *Scheduler) Task(taskID string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return domain.Task{}, &domain.TaskNotFoundError{TaskID: taskID}
	}
	return *t, nil
}

// SystemStatus counts units and tasks by status.
func (s *Scheduler) SystemStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{TotalUnits: len(s.units), TotalTasks: len(s.tasks)}
	for _, u := range s.units {
		switch u.Status() {
		case domain.UnitIdle:
			st.IdleUnits++
		case domain.UnitBusy:
			st.BusyUnits++
		case domain.UnitCharging:
			st.ChargingUnits++
		case domain.UnitMaintenance:
			st.MaintenanceUnits++
		}
	}
	for _, t := range s.tasks {
		switch t.Status() {
		case domain.TaskPending:
			st.PendingTasks++
		case domain.TaskAssigned:
			st.AssignedTasks++
		case domain.TaskInProgress:
			st.InProgressTasks++
		case domain.TaskCompleted:
			st.CompletedTasks++
		case domain.TaskFailed:
			st.FailedTasks++
		}
	}
	return st
}
