package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Defaults applied by SetDefaults.
const (
	DefaultSchedule          = "* * * * *"
	DefaultUnitSpeed         = 1.5
	DefaultEnergyPerDistance = 0.05
	DefaultChargePerTick     = 5.0
)

// Unit describes a unit to register at start-up. A nil EnergyLevel means a
// full battery.
type Unit struct {
	ID          string   `mapstructure:"id"`
	Name        string   `mapstructure:"name"`
	X           float64  `mapstructure:"x"`
	Y           float64  `mapstructure:"y"`
	EnergyLevel *float64 `mapstructure:"energy_level"`
	Status      string   `mapstructure:"status"`
}

// Task describes a task to submit at start-up. Zero Priority and
// EstimatedDuration fall back to per-type defaults; an empty ID is generated.
type Task struct {
	ID                string  `mapstructure:"id"`
	Type              string  `mapstructure:"type"`
	X                 float64 `mapstructure:"x"`
	Y                 float64 `mapstructure:"y"`
	Priority          int     `mapstructure:"priority"`
	EstimatedDuration int     `mapstructure:"estimated_duration"`
	Description       string  `mapstructure:"description"`
}

// Config holds typed configuration for fleetd.
type Config struct {
	LogLevel          string
	MetricsAddr       string
	OTelEndpoint      string
	OTelSampleRatio   float64
	Schedule          string
	UnitSpeed         float64
	Simulate          bool
	EnergyPerDistance float64
	ChargePerTick     float64
	Units             []Unit
	Tasks             []Task
}

// SetDefaults registers fallback values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("otel_sample_ratio", 1.0)
	v.SetDefault("schedule", DefaultSchedule)
	v.SetDefault("unit_speed", DefaultUnitSpeed)
	v.SetDefault("energy_per_distance", DefaultEnergyPerDistance)
	v.SetDefault("charge_per_tick", DefaultChargePerTick)
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		LogLevel:          v.GetString("log_level"),
		MetricsAddr:       v.GetString("metrics_addr"),
		OTelEndpoint:      v.GetString("otel_endpoint"),
		OTelSampleRatio:   v.GetFloat64("otel_sample_ratio"),
		Schedule:          v.GetString("schedule"),
		UnitSpeed:         v.GetFloat64("unit_speed"),
		Simulate:          v.GetBool("simulate"),
		EnergyPerDistance: v.GetFloat64("energy_per_distance"),
		ChargePerTick:     v.GetFloat64("charge_per_tick"),
	}
	if err := v.UnmarshalKey("units", &cfg.Units); err != nil {
		return Config{}, fmt.Errorf("units: %w", err)
	}
	if err := v.UnmarshalKey("tasks", &cfg.Tasks); err != nil {
		return Config{}, fmt.Errorf("tasks: %w", err)
	}
	return cfg, nil
}
