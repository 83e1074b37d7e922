// Package location holds geometry helpers over domain positions and units.
package location

import (
	"errors"
	"math"
	"slices"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
)

// ErrNonPositiveSpeed is returned by TravelTime for a speed <= 0.
var ErrNonPositiveSpeed = errors.New("speed must be greater than zero")

// Distance returns the straight-line distance between a and b.
func Distance(a, b domain.Position) float64 {
	return a.DistanceTo(b)
}

// ManhattanDistance returns |dx| + |dy|.
func ManhattanDistance(a, b domain.Position) float64 {
	return math.Abs(b.X()-a.X()) + math.Abs(b.Y()-a.Y())
}

// Nearest returns the unit closest to target. With availableOnly set, units
// that cannot take a task are ignored. The first unit at the minimum distance
// wins. ok is false when no unit qualifies.
func Nearest(target domain.Position, units []domain.Unit, availableOnly bool) (nearest domain.Unit, ok bool) {
	best := math.Inf(1)
	for _, u := range units {
		if availableOnly && !u.IsAvailable() {
			continue
		}
		if d := Distance(u.Position(), target); d < best {
			best, nearest, ok = d, u, true
		}
	}
	return nearest, ok
}

// WithinRadius returns the units no further than radius from center, nearest
// first.
func WithinRadius(center domain.Position, units []domain.Unit, radius float64) []domain.Unit {
	type ranked struct {
		unit     domain.Unit
		distance float64
	}
	var hits []ranked
	for _, u := range units {
		if d := Distance(center, u.Position()); d <= radius {
			hits = append(hits, ranked{unit: u, distance: d})
		}
	}
	slices.SortStableFunc(hits, func(a, b ranked) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		}
		return 0
	})

	out := make([]domain.Unit, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.unit)
	}
	return out
}

// Center returns the centroid of positions. ok is false for an empty slice.
func Center(positions []domain.Position) (center domain.Position, ok bool) {
	if len(positions) == 0 {
		return domain.Position{}, false
	}
	var sx, sy float64
	for _, p := range positions {
		sx += p.X()
		sy += p.Y()
	}
	n := float64(len(positions))
	// The mean of in-range coordinates is itself in range.
	return domain.MustPosition(sx/n, sy/n), true
}

// InBounds reports whether p lies inside the closed rectangle.
func InBounds(p domain.Position, minX, maxX, minY, maxY float64) bool {
	return minX <= p.X() && p.X() <= maxX && minY <= p.Y() && p.Y() <= maxY
}

// TravelTime returns distance / speed in seconds for a speed in units per second.
func TravelTime(distance, speed float64) (float64, error) {
	if speed <= 0 {
		return 0, ErrNonPositiveSpeed
	}
	return distance / speed, nil
}
