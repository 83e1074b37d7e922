package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UnitStatus represents the operational states a unit can be in.
type UnitStatus string

const (
	UnitIdle        UnitStatus = "idle"
	UnitBusy        UnitStatus = "busy"
	UnitCharging    UnitStatus = "charging"
	UnitMaintenance UnitStatus = "maintenance"
)

// UnitStatuses lists every unit status in reporting order.
var UnitStatuses = []UnitStatus{UnitIdle, UnitBusy, UnitCharging, UnitMaintenance}

// ParseUnitStatus converts a string into a UnitStatus.
func ParseUnitStatus(s string) (UnitStatus, error) {
	st := UnitStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range UnitStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown unit status %q", s)}
}

const (
	UnitIDPrefix = "R"
	maxIDLen     = 50
	maxNameLen   = 100

	// AvailabilityThreshold is the energy level a unit must exceed to take work.
	AvailabilityThreshold = 20.0
	DefaultEnergyLevel    = 100.0
)

// Unit is a schedulable mobile robot. Its task reference is an ID only; the
// scheduler resolves it.
type Unit struct {
	id          string
	name        string
	position    Position
	status      UnitStatus
	currentTask string
	energyLevel float64
	createdAt   time.Time
}

// UnitOption configures a Unit at construction.
type UnitOption func(*Unit)

func WithStatus(s UnitStatus) UnitOption       { return func(u *Unit) { u.status = s } }
func WithEnergyLevel(e float64) UnitOption     { return func(u *Unit) { u.energyLevel = e } }
func WithUnitCreatedAt(t time.Time) UnitOption { return func(u *Unit) { u.createdAt = t.UTC() } }

// NewUnit validates its arguments and returns an idle, fully charged unit
// unless options say otherwise.
func NewUnit(id, name string, pos Position, opts ...UnitOption) (*Unit, error) {
	u := &Unit{
		id:          id,
		name:        strings.TrimSpace(name),
		position:    pos,
		status:      UnitIdle,
		energyLevel: DefaultEnergyLevel,
		createdAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := u.validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// validate normalizes the status to its canonical spelling.
func (u *Unit) validate() error {
	if err := checkID("unit id", u.id, UnitIDPrefix); err != nil {
		return err
	}
	if u.name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len([]rune(u.name)) > maxNameLen {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("longer than %d characters", maxNameLen)}
	}
	status, err := ParseUnitStatus(string(u.status))
	if err != nil {
		return err
	}
	u.status = status
	if err := checkEnergy(u.energyLevel); err != nil {
		return err
	}
	return nil
}

func checkID(field, id, prefix string) error {
	if !strings.HasPrefix(id, prefix) || len(id) < len(prefix)+1 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must start with %q, got %q", prefix, id)}
	}
	if len(id) > maxIDLen {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("longer than %d characters", maxIDLen)}
	}
	return nil
}

func checkEnergy(e float64) error {
	if !(e >= 0 && e <= 100) {
		return &ValidationError{Field: "energy_level", Reason: fmt.Sprintf("must be within [0, 100], got %g", e)}
	}
	return nil
}

func (u *Unit) ID() string           { return u.id }
func (u *Unit) Name() string         { return u.name }
func (u *Unit) Position() Position   { return u.position }
func (u *Unit) Status() UnitStatus   { return u.status }
func (u *Unit) EnergyLevel() float64 { return u.energyLevel }
func (u *Unit) CreatedAt() time.Time { return u.createdAt }

// CurrentTask returns the ID of the task the unit is working on, if any.
func (u *Unit) CurrentTask() (string, bool) {
	return u.currentTask, u.currentTask != ""
}

// IsAvailable reports whether the unit is idle with more than
// AvailabilityThreshold energy.
func (u *Unit) IsAvailable() bool {
	return u.status == UnitIdle && u.energyLevel > AvailabilityThreshold
}

// Assign binds the unit to taskID. State is unchanged on error.
func (u *Unit) Assign(taskID string) error {
	if !u.IsAvailable() {
		return &UnitUnavailableError{UnitID: u.id, Status: u.status, EnergyLevel: u.energyLevel}
	}
	u.currentTask = taskID
	u.status = UnitBusy
	return nil
}

// Release clears the current task and returns the unit to idle. Safe to call
// on a unit that holds no task.
func (u *Unit) Release() {
	u.currentTask = ""
	u.status = UnitIdle
}

func (u *Unit) MoveTo(p Position) { u.position = p }

// SetStatus overrides the status directly, e.g. to send a unit to charging or
// to reset a stuck unit. It does not touch the current task.
func (u *Unit) SetStatus(s UnitStatus) { u.status = s }

// SetEnergyLevel records a new battery reading.
func (u *Unit) SetEnergyLevel(e float64) error {
	if err := checkEnergy(e); err != nil {
		return err
	}
	u.energyLevel = e
	return nil
}

type unitJSON struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Position    Position   `json:"position"`
	Status      UnitStatus `json:"status"`
	CurrentTask string     `json:"current_task,omitempty"`
	EnergyLevel float64    `json:"energy_level"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(unitJSON{
		ID:          u.id,
		Name:        u.name,
		Position:    u.position,
		Status:      u.status,
		CurrentTask: u.currentTask,
		EnergyLevel: u.energyLevel,
		CreatedAt:   u.createdAt,
	})
}

// UnmarshalJSON rebuilds a unit and applies the same checks as NewUnit.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var raw unitJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := Unit{
		id:          raw.ID,
		name:        strings.TrimSpace(raw.Name),
		position:    raw.Position,
		status:      raw.Status,
		currentTask: raw.CurrentTask,
		energyLevel: raw.EnergyLevel,
		createdAt:   raw.CreatedAt.UTC(),
	}
	if err := decoded.validate(); err != nil {
		return err
	}
	*u = decoded
	return nil
}
