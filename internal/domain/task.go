package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskType is the kind of work a task represents.
type TaskType string

const (
	TaskDelivery TaskType = "delivery"
	TaskPatrol   TaskType = "patrol"
	TaskCleaning TaskType = "cleaning"
)

// TaskTypes lists every task type in reporting order.
var TaskTypes = []TaskType{TaskDelivery, TaskPatrol, TaskCleaning}

// ParseTaskType converts a string into a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TaskTypes {
		if t == known {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown task type %q", s)}
}

// TaskStatus represents the states a task can be in.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// TaskStatuses lists every task status in lifecycle order.
var TaskStatuses = []TaskStatus{TaskPending, TaskAssigned, TaskInProgress, TaskCompleted, TaskFailed}

// IsTerminal returns true if no further lifecycle transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// ParseTaskStatus converts a string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TaskStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown task status %q", s)}
}

const (
	TaskIDPrefix = "T"

	MinPriority          = 1
	MaxPriority          = 5
	HighPriorityMin      = 4
	MinEstimatedDuration = 1
	MaxEstimatedDuration = 24 * 60
	MaxDescriptionLen    = 500

	DefaultPriority          = 1
	DefaultEstimatedDuration = 30
)

// Task is a unit of work at a target position. Its unit reference is an ID only.
type Task struct {
	id                string
	taskType          TaskType
	target            Position
	priority          int
	status            TaskStatus
	assignedUnit      string
	createdAt         time.Time
	estimatedDuration int
	description       string
}

// TaskOption configures a Task at construction.
type TaskOption func(*Task)

func WithPriority(p int) TaskOption             { return func(t *Task) { t.priority = p } }
func WithEstimatedDuration(m int) TaskOption    { return func(t *Task) { t.estimatedDuration = m } }
func WithDescription(d string) TaskOption       { return func(t *Task) { t.description = d } }
func WithTaskCreatedAt(ts time.Time) TaskOption { return func(t *Task) { t.createdAt = ts.UTC() } }

// NewTask validates its arguments and returns a pending task.
func NewTask(id string, taskType TaskType, target Position, opts ...TaskOption) (*Task, error) {
	t := &Task{
		id:                id,
		taskType:          taskType,
		target:            target,
		priority:          DefaultPriority,
		status:            TaskPending,
		createdAt:         time.Now().UTC(),
		estimatedDuration: DefaultEstimatedDuration,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.description = strings.TrimSpace(t.description)
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate normalizes the type and status to their canonical spelling.
func (t *Task) validate() error {
	if err := checkID("task id", t.id, TaskIDPrefix); err != nil {
		return err
	}
	taskType, err := ParseTaskType(string(t.taskType))
	if err != nil {
		return err
	}
	status, err := ParseTaskStatus(string(t.status))
	if err != nil {
		return err
	}
	t.taskType, t.status = taskType, status
	if t.status == TaskPending && t.assignedUnit != "" {
		return &ValidationError{Field: "assigned_unit", Reason: "a pending task has no unit"}
	}
	if t.priority < MinPriority || t.priority > MaxPriority {
		return &ValidationError{
			Field:  "priority",
			Reason: fmt.Sprintf("must be within [%d, %d], got %d", MinPriority, MaxPriority, t.priority),
		}
	}
	if t.estimatedDuration < MinEstimatedDuration || t.estimatedDuration > MaxEstimatedDuration {
		return &ValidationError{
			Field: "estimated_duration",
			Reason: fmt.Sprintf("must be within [%d, %d] minutes, got %d",
				MinEstimatedDuration, MaxEstimatedDuration, t.estimatedDuration),
		}
	}
	if len([]rune(t.description)) > MaxDescriptionLen {
		return &ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("longer than %d characters", MaxDescriptionLen),
		}
	}
	return nil
}

func (t *Task) ID() string             { return t.id }
func (t *Task) Type() TaskType         { return t.taskType }
func (t *Task) Target() Position       { return t.target }
func (t *Task) Priority() int          { return t.priority }
func (t *Task) Status() TaskStatus     { return t.status }
func (t *Task) CreatedAt() time.Time   { return t.createdAt }
func (t *Task) EstimatedDuration() int { return t.estimatedDuration }
func (t *Task) Description() string    { return t.description }
func (t *Task) IsPending() bool        { return t.status == TaskPending }
func (t *Task) IsCompleted() bool      { return t.status == TaskCompleted }
func (t *Task) IsHighPriority() bool   { return t.priority >= HighPriorityMin }

// EstimatedTime returns the estimated duration as a time.Duration.
func (t *Task) EstimatedTime() time.Duration {
	return time.Duration(t.estimatedDuration) * time.Minute
}

// AssignedUnit returns the ID of the unit bound to the task, if any.
func (t *Task) AssignedUnit() (string, bool) {
	return t.assignedUnit, t.assignedUnit != ""
}

// AssignTo binds the task to unitID. Only pending tasks can be assigned.
func (t *Task) AssignTo(unitID string) error {
	if t.status != TaskPending {
		return &InvalidTransitionError{TaskID: t.id, Op: "assign", From: t.status}
	}
	t.assignedUnit = unitID
	t.status = TaskAssigned
	return nil
}

// Start moves an assigned task to in progress.
func (t *Task) Start() error {
	if t.status != TaskAssigned {
		return &InvalidTransitionError{TaskID: t.id, Op: "start", From: t.status}
	}
	t.status = TaskInProgress
	return nil
}

// Complete moves an in-progress task to completed.
func (t *Task) Complete() error {
	if t.status != TaskInProgress {
		return &InvalidTransitionError{TaskID: t.id, Op: "complete", From: t.status}
	}
	t.status = TaskCompleted
	return nil
}

// Fail marks the task failed from any state and clears its unit binding.
// A non-empty reason is appended to the description.
func (t *Task) Fail(reason string) {
	t.status = TaskFailed
	t.assignedUnit = ""
	if reason = strings.TrimSpace(reason); reason != "" {
		t.description = truncate(strings.TrimSpace(t.description+"\nfailure reason: "+reason), MaxDescriptionLen)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Reset returns the task to pending with no unit, whatever its current state.
func (t *Task) Reset() {
	t.status = TaskPending
	t.assignedUnit = ""
}

// SetStatus overrides the status without running transition checks.
func (t *Task) SetStatus(s TaskStatus) { t.status = s }

type taskJSON struct {
	ID                string     `json:"id"`
	Type              TaskType   `json:"type"`
	Target            Position   `json:"target"`
	Priority          int        `json:"priority"`
	Status            TaskStatus `json:"status"`
	AssignedUnit      string     `json:"assigned_unit,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	EstimatedDuration int        `json:"estimated_duration"`
	Description       string     `json:"description"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:                t.id,
		Type:              t.taskType,
		Target:            t.target,
		Priority:          t.priority,
		Status:            t.status,
		AssignedUnit:      t.assignedUnit,
		CreatedAt:         t.createdAt,
		EstimatedDuration: t.estimatedDuration,
		Description:       t.description,
	})
}

// UnmarshalJSON rebuilds a task and applies the same checks as NewTask.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := Task{
		id:                raw.ID,
		taskType:          raw.Type,
		target:            raw.Target,
		priority:          raw.Priority,
		status:            raw.Status,
		assignedUnit:      raw.AssignedUnit,
		createdAt:         raw.CreatedAt.UTC(),
		estimatedDuration: raw.EstimatedDuration,
		description:       strings.TrimSpace(raw.Description),
	}
	if err := decoded.validate(); err != nil {
		return err
	}
	*t = decoded
	return nil
}
