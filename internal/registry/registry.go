// Package registry is a standalone task catalogue. It shares the domain types
// with the scheduler but keeps its own collection and never touches units.
package registry

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
)

// Defaults used by the per-type convenience constructors.
const (
	deliveryPriority = 2
	deliveryDuration = 45
	patrolPriority   = 1
	patrolDuration   = 60
	cleaningPriority = 3
	cleaningDuration = 90
)

// Stats aggregates counts over the registry's tasks.
type Stats struct {
	Total        int                       `json:"total_tasks" yaml:"total_tasks"`
	HighPriority int                       `json:"high_priority_tasks" yaml:"high_priority_tasks"`
	ByStatus     map[domain.TaskStatus]int `json:"by_status" yaml:"by_status"`
	ByType       map[domain.TaskType]int   `json:"by_type" yaml:"by_type"`
}

// Registry stores tasks by ID. Safe for concurrent use. Every read returns
// copies.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
	newID func() string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		tasks: make(map[string]*domain.Task),
		newID: NewTaskID,
	}
}

// NewTaskID returns the task prefix followed by eight upper-case hex digits.
func NewTaskID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return domain.TaskIDPrefix + strings.ToUpper(hex[:8])
}

// Create builds a task with a fresh ID and stores it.
func (r *Registry) Create(taskType domain.TaskType, target domain.Position, opts ...domain.TaskOption) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for r.tasks[id] != nil {
		id = r.newID()
	}
	t, err := domain.NewTask(id, taskType, target, opts...)
	if err != nil {
		return domain.Task{}, err
	}
	r.tasks[id] = t
	r.order = append(r.order, id)
	return *t, nil
}

// CreateDelivery creates a delivery task with delivery defaults.
// An empty description becomes "delivery task".
func (r *Registry) CreateDelivery(target domain.Position, priority int, description string) (domain.Task, error) {
	return r.createTyped(domain.TaskDelivery, target, priority, description)
}

// CreatePatrol creates a patrol task with patrol defaults.
func (r *Registry) CreatePatrol(target domain.Position, priority int, description string) (domain.Task, error) {
	return r.createTyped(domain.TaskPatrol, target, priority, description)
}

// CreateCleaning creates a cleaning task with cleaning defaults.
func (r *Registry) CreateCleaning(target domain.Position, priority int, description string) (domain.Task, error) {
	return r.createTyped(domain.TaskCleaning, target, priority, description)
}

// DefaultPriority returns the priority the convenience constructors use for
// taskType when the caller passes 0.
func DefaultPriority(taskType domain.TaskType) int {
	switch taskType {
	case domain.TaskDelivery:
		return deliveryPriority
	case domain.TaskCleaning:
		return cleaningPriority
	default:
		return patrolPriority
	}
}

// DefaultEstimatedDuration returns the duration in minutes the convenience
// constructors use for taskType.
func DefaultEstimatedDuration(taskType domain.TaskType) int {
	switch taskType {
	case domain.TaskDelivery:
		return deliveryDuration
	case domain.TaskCleaning:
		return cleaningDuration
	default:
		return patrolDuration
	}
}

func (r *Registry) createTyped(taskType domain.TaskType, target domain.Position, priority int, description string) (domain.Task, error) {
	if priority == 0 {
		priority = DefaultPriority(taskType)
	}
	if strings.TrimSpace(description) == "" {
		description = string(taskType) + " task"
	}
	return r.Create(taskType, target,
		domain.WithPriority(priority),
		domain.WithEstimatedDuration(DefaultEstimatedDuration(taskType)),
		domain.WithDescription(description),
	)
}

// Get returns the task with the given ID.
// Returns TaskNotFoundError if it does not exist.
func (r *Registry) Get(id string) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, &domain.TaskNotFoundError{TaskID: id}
	}
	return *t, nil
}

// All returns every task in creation order.
func (r *Registry) All() []domain.Task {
	return r.filter(func(*domain.Task) bool { return true })
}

func (r *Registry) ByStatus(status domain.TaskStatus) []domain.Task {
	return r.filter(func(t *domain.Task) bool { return t.Status() == status })
}

func (r *Registry) ByType(taskType domain.TaskType) []domain.Task {
	return r.filter(func(t *domain.Task) bool { return t.Type() == taskType })
}

// HighPriority returns high-priority tasks, highest priority first.
func (r *Registry) HighPriority() []domain.Task {
	return byPriority(r.filter(func(t *domain.Task) bool { return t.IsHighPriority() }))
}

// Pending returns pending tasks, highest priority first.
func (r *Registry) Pending() []domain.Task {
	return byPriority(r.filter(func(t *domain.Task) bool { return t.IsPending() }))
}

func (r *Registry) filter(keep func(*domain.Task) bool) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0, len(r.order))
	for _, id := range r.order {
		if t := r.tasks[id]; keep(t) {
			out = append(out, *t)
		}
	}
	return out
}

func byPriority(tasks []domain.Task) []domain.Task {
	slices.SortStableFunc(tasks, func(a, b domain.Task) int {
		return cmp.Compare(b.Priority(), a.Priority())
	})
	return tasks
}

// UpdateStatus overwrites a task's status without lifecycle checks.
// Returns TaskNotFoundError if the task does not exist.
func (r *Registry) UpdateStatus(id string, status domain.TaskStatus) error {
	status, err := domain.ParseTaskStatus(string(status))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return &domain.TaskNotFoundError{TaskID: id}
	}
	t.SetStatus(status)
	return nil
}

// Delete removes a task. Returns TaskNotFoundError if it does not exist.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return &domain.TaskNotFoundError{TaskID: id}
	}
	delete(r.tasks, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

// Stats counts tasks by status and type. Every known status and type is
// present in the maps, zero or not.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{
		Total:    len(r.tasks),
		ByStatus: make(map[domain.TaskStatus]int, len(domain.TaskStatuses)),
		ByType:   make(map[domain.TaskType]int, len(domain.TaskTypes)),
	}
	for _, s := range domain.TaskStatuses {
		st.ByStatus[s] = 0
	}
	for _, tt := range domain.TaskTypes {
		st.ByType[tt] = 0
	}
	for _, t := range r.tasks {
		st.ByStatus[t.Status()]++
		st.ByType[t.Type()]++
		if t.IsHighPriority() {
			st.HighPriority++
		}
	}
	return st
}
