package domain

import "fmt"

// ValidationError is returned when an entity is constructed with an invalid field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError is returned when a task lifecycle method is called
// from a state that does not allow it.
type InvalidTransitionError struct {
	TaskID string
	Op     string
	From   TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s: cannot %s from status %s", e.TaskID, e.Op, e.From)
}

// UnitUnavailableError is returned when a unit that is busy, charging, in
// maintenance or low on energy is asked to take a task.
type UnitUnavailableError struct {
	UnitID      string
	Status      UnitStatus
	EnergyLevel float64
}

func (e *UnitUnavailableError) Error() string {
	return fmt.Sprintf("unit %s unavailable: status %s, energy %.1f", e.UnitID, e.Status, e.EnergyLevel)
}

// DuplicateUnitError is returned when registering a unit whose ID is already present.
type DuplicateUnitError struct {
	UnitID string
}

func (e *DuplicateUnitError) Error() string {
	return fmt.Sprintf("unit already registered: %s", e.UnitID)
}

// UnitNotFoundError is returned when a unit ID does not exist.
type UnitNotFoundError struct {
	UnitID string
}

func (e *UnitNotFoundError) Error() string {
	return fmt.Sprintf("unit not found: %s", e.UnitID)
}

// TaskNotFoundError is returned when a task ID does not exist.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// AssignmentFailedError wraps a transition rejected while binding a task to
// the unit the scheduler selected for it.
type AssignmentFailedError struct {
	TaskID string
	UnitID string
	Err    error
}

func (e *AssignmentFailedError) Error() string {
	return fmt.Sprintf("assign task %s to unit %s: %v", e.TaskID, e.UnitID, e.Err)
}

func (e *AssignmentFailedError) Unwrap() error { return e.Err }
