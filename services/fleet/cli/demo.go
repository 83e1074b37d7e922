package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/location"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/scheduler"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Register one unit, submit one delivery and print the fleet status",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	logger := buildLogger(os.Stderr, viper.GetString("log_level"), "fleetd-demo")
	sched := scheduler.New(scheduler.WithLogger(logger))

	fmt.Fprintln(out, "Fleet dispatch demo")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	unit, err := domain.NewUnit("R001", "Demo unit", domain.MustPosition(0, 0))
	if err != nil {
		return err
	}
	if err := sched.RegisterUnit(unit); err != nil {
		return err
	}
	fmt.Fprintf(out, "registered unit %s (%s) at %s\n", unit.Name(), unit.ID(), unit.Position())

	task, err := domain.NewTask("T001", domain.TaskDelivery, domain.MustPosition(10, 5),
		domain.WithDescription("demo delivery"))
	if err != nil {
		return err
	}
	unitID, err := sched.AssignTask(task)
	switch {
	case err != nil:
		return fmt.Errorf("assign %s: %w", task.ID(), err)
	case unitID == "":
		fmt.Fprintf(out, "task %s not assigned: no unit available\n", task.ID())
	default:
		fmt.Fprintf(out, "assigned %q -> %s (distance %.2f)\n",
			task.Description(), unitID, location.Distance(unit.Position(), task.Target()))
	}

	status, err := json.MarshalIndent(sched.SystemStatus(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "status: %s\n", status)
	fmt.Fprintln(out, "demo complete")
	return nil
}
