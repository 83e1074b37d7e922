package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Coordinate bounds applied to both axes.
const (
	MinCoordinate = -1000.0
	MaxCoordinate = 1000.0
)

// Position is an immutable point on the fleet's 2D floor plan.
type Position struct {
	x float64
	y float64
}

// NewPosition returns a Position or a *ValidationError if either coordinate
// lies outside [MinCoordinate, MaxCoordinate].
func NewPosition(x, y float64) (Position, error) {
	if err := checkCoordinate("x", x); err != nil {
		return Position{}, err
	}
	if err := checkCoordinate("y", y); err != nil {
		return Position{}, err
	}
	return Position{x: x, y: y}, nil
}

// MustPosition is like NewPosition but panics on invalid coordinates.
func MustPosition(x, y float64) Position {
	p, err := NewPosition(x, y)
	if err != nil {
		panic(err)
	}
	return p
}

func checkCoordinate(field string, v float64) error {
	if math.IsNaN(v) || v < MinCoordinate || v > MaxCoordinate {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("must be within [%g, %g], got %g", MinCoordinate, MaxCoordinate, v),
		}
	}
	return nil
}

func (p Position) X() float64 { return p.x }
func (p Position) Y() float64 { return p.y }

// DistanceTo returns the straight-line distance between p and other.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.x-other.x, p.y-other.y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.x, p.y)
}

type positionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionJSON{X: p.x, Y: p.y})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var raw positionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pos, err := NewPosition(raw.X, raw.Y)
	if err != nil {
		return err
	}
	*p = pos
	return nil
}
