package config_test

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet/config"
)

const sample = `
log_level: debug
metrics_addr: ":9100"
schedule: "*/5 * * * *"
unit_speed: 2.5
simulate: true
units:
  - id: R001
    name: Atlas
    x: 1
    y: 2
  - id: R002
    name: Hermes
    x: -3
    y: 4
    energy_level: 0
    status: charging
tasks:
  - type: delivery
    x: 10
    y: 5
    priority: 4
  - id: T100
    type: cleaning
    x: 0
    y: 0
    estimated_duration: 120
    description: lobby
`

func load(t *testing.T, yaml string) config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := load(t, sample)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "*/5 * * * *", cfg.Schedule)
	assert.Equal(t, 2.5, cfg.UnitSpeed)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, config.DefaultChargePerTick, cfg.ChargePerTick)

	require.Len(t, cfg.Units, 2)
	assert.Equal(t, "Atlas", cfg.Units[0].Name)
	assert.Nil(t, cfg.Units[0].EnergyLevel, "missing energy_level stays unset")
	require.NotNil(t, cfg.Units[1].EnergyLevel)
	assert.Zero(t, *cfg.Units[1].EnergyLevel)
	assert.Equal(t, "charging", cfg.Units[1].Status)

	require.Len(t, cfg.Tasks, 2)
	assert.Empty(t, cfg.Tasks[0].ID)
	assert.Equal(t, 4, cfg.Tasks[0].Priority)
	assert.Equal(t, 120, cfg.Tasks[1].EstimatedDuration)
	assert.Equal(t, "lobby", cfg.Tasks[1].Description)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t, "")

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, config.DefaultSchedule, cfg.Schedule)
	assert.Equal(t, config.DefaultUnitSpeed, cfg.UnitSpeed)
	assert.Equal(t, 1.0, cfg.OTelSampleRatio)
	assert.False(t, cfg.Simulate)
	assert.Empty(t, cfg.Units)
	assert.Empty(t, cfg.Tasks)
}
