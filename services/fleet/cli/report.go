package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/monitor"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/registry"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/scheduler"
	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet"
	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet/config"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Seed the configured fleet and print a status report",
	Long: `Seed the units and tasks from the config file and print the fleet
status report, alerts and the task catalogue counts.

With --assign one dispatch pass runs before the report.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Bool("assign", false, "run one assignment pass before reporting")
	reportCmd.Flags().StringP("output", "o", "text", "output format: text | json | yaml")
}

type reportDoc struct {
	Status      scheduler.Status    `json:"status" yaml:"status"`
	Utilization monitor.Utilization `json:"utilization" yaml:"utilization"`
	Completion  monitor.Completion  `json:"completion" yaml:"completion"`
	Battery     monitor.Battery     `json:"battery" yaml:"battery"`
	HealthScore float64             `json:"health_score" yaml:"health_score"`
	Alerts      []monitor.Alert     `json:"alerts" yaml:"alerts"`
	Assigned    map[string]string   `json:"assigned,omitempty" yaml:"assigned,omitempty"`
	Catalogue   registry.Stats      `json:"catalogue" yaml:"catalogue"`
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := buildLogger(os.Stderr, cfg.LogLevel, "fleetd-report")

	sched := scheduler.New(scheduler.WithLogger(logger))
	if err := fleet.Seed(sched, cfg); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	catalogue, err := fleet.Catalogue(cfg)
	if err != nil {
		return fmt.Errorf("catalogue: %w", err)
	}

	var assigned map[string]string
	if ok, _ := cmd.Flags().GetBool("assign"); ok {
		assigned = sched.AutoAssignPendingTasks()
	}

	mon := monitor.New()
	units, tasks := sched.Units(), sched.Tasks()
	out := cmd.OutOrStdout()

	doc := reportDoc{
		Status:      sched.SystemStatus(),
		Utilization: mon.Utilization(units),
		Completion:  mon.Completion(tasks),
		Battery:     mon.Battery(units),
		HealthScore: mon.HealthScore(units, tasks),
		Alerts:      mon.Alerts(units, tasks),
		Assigned:    assigned,
		Catalogue:   catalogue.Stats(),
	}

	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "text":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}

	fmt.Fprintln(out, mon.Report(units, tasks))
	fmt.Fprintf(out, "\nHealth score: %.1f\n", doc.HealthScore)
	if len(assigned) > 0 {
		fmt.Fprintf(out, "Assigned this pass: %d\n", len(assigned))
	}
	printAlerts(out, doc.Alerts)
	printCatalogue(out, doc.Catalogue)
	return nil
}

func printAlerts(w io.Writer, alerts []monitor.Alert) {
	fmt.Fprintln(w, "\nAlerts:")
	if len(alerts) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, a := range alerts {
		fmt.Fprintf(w, "  [%s] %s\n", a.Code, a.Message)
	}
}

func printCatalogue(w io.Writer, st registry.Stats) {
	fmt.Fprintln(w, "\nTask catalogue:")
	fmt.Fprintf(w, "  total:         %d\n", st.Total)
	fmt.Fprintf(w, "  high priority: %d\n", st.HighPriority)
	for _, tt := range domain.TaskTypes {
		fmt.Fprintf(w, "  %-14s %d\n", string(tt)+":", st.ByType[tt])
	}
}
