package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
)

func TestTaskNotFoundError(t *testing.T) {
	err := &domain.TaskNotFoundError{TaskID: "T123"}
	if !strings.Contains(err.Error(), "T123") {
		t.Errorf("error message should contain task ID, got: %q", err.Error())
	}
}

func TestUnitNotFoundError(t *testing.T) {
	err := &domain.UnitNotFoundError{UnitID: "R042"}
	if !strings.Contains(err.Error(), "R042") {
		t.Errorf("error message should contain unit ID, got: %q", err.Error())
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &domain.InvalidTransitionError{TaskID: "T9", Op: "complete", From: domain.TaskPending}
	msg := err.Error()
	for _, want := range []string{"T9", "complete", "pending"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message should contain %q, got: %q", want, msg)
		}
	}
}

func TestUnitUnavailableError(t *testing.T) {
	err := &domain.UnitUnavailableError{UnitID: "R1", Status: domain.UnitCharging, EnergyLevel: 12.5}
	msg := err.Error()
	if !strings.Contains(msg, "R1") || !strings.Contains(msg, "charging") {
		t.Errorf("error message should contain unit ID and status, got: %q", msg)
	}
	if !strings.Contains(msg, "12.5") {
		t.Errorf("error message should contain energy level, got: %q", msg)
	}
}

func TestAssignmentFailedError_Unwrap(t *testing.T) {
	inner := &domain.UnitUnavailableError{UnitID: "R1", Status: domain.UnitBusy}
	err := &domain.AssignmentFailedError{TaskID: "T1", UnitID: "R1", Err: inner}

	var unavailable *domain.UnitUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("errors.As should find the wrapped UnitUnavailableError")
	}
	if unavailable.UnitID != "R1" {
		t.Errorf("unwrapped UnitID = %q, want R1", unavailable.UnitID)
	}
}

func TestValidationError(t *testing.T) {
	err := &domain.ValidationError{Field: "priority", Reason: "out of range"}
	if !strings.Contains(err.Error(), "priority") {
		t.Errorf("error message should contain field, got: %q", err.Error())
	}
}

func TestAllErrorTypesImplementError(t *testing.T) {
	var _ error = &domain.ValidationError{}
	var _ error = &domain.InvalidTransitionError{}
	var _ error = &domain.UnitUnavailableError{}
	var _ error = &domain.DuplicateUnitError{}
	var _ error = &domain.UnitNotFoundError{}
	var _ error = &domain.TaskNotFoundError{}
	var _ error = &domain.AssignmentFailedError{}
}
