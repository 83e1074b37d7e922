package fleet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/scheduler"
	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet/config"
)

func ptr[T any](v T) *T { return &v }

func sampleConfig() config.Config {
	return config.Config{
		Units: []config.Unit{
			{ID: "R001", Name: " Atlas ", X: 0, Y: 0},
			{ID: "R002", Name: "Hermes", X: 50, Y: 50, EnergyLevel: ptr(12.5), Status: "Charging"},
		},
		Tasks: []config.Task{
			{ID: "T001", Type: "delivery", X: 10, Y: 5, Description: "parcel to dock 3"},
			{Type: "cleaning", X: -20, Y: 0, Priority: 5, EstimatedDuration: 15},
		},
	}
}

func TestSeed(t *testing.T) {
	s := scheduler.New(scheduler.WithLogger(discard))
	require.NoError(t, Seed(s, sampleConfig()))

	units := s.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "Atlas", units[0].Name())
	assert.Equal(t, domain.UnitCharging, units[1].Status())
	assert.Equal(t, 12.5, units[1].EnergyLevel())

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "T001", tasks[0].ID())
	assert.Equal(t, 2, tasks[0].Priority(), "delivery default")
	assert.Equal(t, 45, tasks[0].EstimatedDuration(), "delivery default")
	assert.Regexp(t, `^T[0-9A-F]{8}$`, tasks[1].ID())
	assert.Equal(t, 5, tasks[1].Priority())
	assert.Equal(t, 15, tasks[1].EstimatedDuration())
}

func TestSeed_InvalidEntries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"bad unit id", func(c *config.Config) { c.Units[0].ID = "X1" }, "unit id"},
		{"bad unit status", func(c *config.Config) { c.Units[1].Status = "sleeping" }, "status"},
		{"unit out of bounds", func(c *config.Config) { c.Units[0].X = 5000 }, "x"},
		{"bad task type", func(c *config.Config) { c.Tasks[0].Type = "mining" }, "type"},
		{"bad task priority", func(c *config.Config) { c.Tasks[1].Priority = 9 }, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sampleConfig()
			tt.mutate(&cfg)

			err := Seed(scheduler.New(scheduler.WithLogger(discard)), cfg)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSeed_DuplicateUnit(t *testing.T) {
	cfg := sampleConfig()
	cfg.Units[1].ID = cfg.Units[0].ID

	err := Seed(scheduler.New(scheduler.WithLogger(discard)), cfg)
	var dup *domain.DuplicateUnitError
	require.True(t, errors.As(err, &dup), "expected DuplicateUnitError, got %v", err)
	assert.Contains(t, err.Error(), "units[1]")
}

func TestCatalogue(t *testing.T) {
	reg, err := Catalogue(sampleConfig())
	require.NoError(t, err)

	st := reg.Stats()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.HighPriority)
	assert.Equal(t, 1, st.ByType[domain.TaskDelivery])
	assert.Equal(t, 1, st.ByType[domain.TaskCleaning])
	assert.Equal(t, 2, st.ByStatus[domain.TaskPending])
}
