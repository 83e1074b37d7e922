package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultFleetYAML = `# Fleet dispatch config
# Priority: CLI flag > this file > FLEETD_* env > default.

log_level:    "info"
metrics_addr: ":9090"
schedule:     "* * * * *"   # standard 5-field cron; one dispatch pass per minute
unit_speed:   1.5           # coordinate units per second, used for ETAs

# Play the units' part: finish tasks after travel + estimated duration,
# drain energy on the way and recharge idle units.
simulate:            false
energy_per_distance: 0.05
charge_per_tick:     5

# otel_endpoint: "localhost:4318"  # uncomment to enable OpenTelemetry tracing
# otel_sample_ratio: 0.1           # fraction of dispatch ticks traced

# Coordinates are within [-1000, 1000]. energy_level defaults to 100,
# status to idle.
units:
  - id: R001
    name: Atlas
    x: 0
    y: 0
  - id: R002
    name: Hermes
    x: 120
    y: -40
    energy_level: 64
  - id: R003
    name: Dusty
    x: -250
    y: 310
    energy_level: 18
    status: charging

# type: delivery | patrol | cleaning. priority 1-5 and estimated_duration
# (minutes) default per type; an empty id is generated.
tasks:
  - id: T001
    type: delivery
    x: 10
    y: 5
    priority: 4
    description: "parcel to dock 3"
  - type: patrol
    x: 200
    y: 200
  - type: cleaning
    x: -100
    y: 80
    estimated_duration: 45
    description: "lobby floor"
`

// defaultConfigPath is the per-user location searched by initConfig.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".go-fleet-dispatch", "fleetd.yaml"), nil
}

func newInitCmd() *cobra.Command {
	var (
		force     bool
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample fleet config",
		Long: `Write a sample fleetd config with three units and three tasks.

The file goes to --config when given, else ~/.go-fleet-dispatch/fleetd.yaml.
An existing file is kept unless --force is passed. --print writes the
sample to stdout instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if printOnly {
				_, err := io.WriteString(out, defaultFleetYAML)
				return err
			}

			dest := cfgFile
			if dest == "" {
				p, err := defaultConfigPath()
				if err != nil {
					return err
				}
				dest = p
			}
			if err := writeConfig(dest, force); err != nil {
				return err
			}
			fmt.Fprintf(out, "config written to %s\n", dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the sample config instead of writing it")
	return cmd
}

func writeConfig(dest string, force bool) error {
	_, err := os.Stat(dest)
	switch {
	case err == nil && !force:
		return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat %s: %w", dest, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(dest, []byte(defaultFleetYAML), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
