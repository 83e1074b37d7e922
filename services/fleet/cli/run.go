package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/scheduler"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/version"
	"github.com/ramiqadoumi/go-fleet-dispatch/pkg/telemetry"
	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet"
	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Seed the fleet from config and dispatch on a schedule",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("schedule", config.DefaultSchedule, "cron expression for dispatch passes")
	runCmd.Flags().Float64("unit-speed", config.DefaultUnitSpeed, "unit speed in coordinate units per second, used for ETAs")
	runCmd.Flags().Bool("simulate", false, "complete tasks and drain/recharge batteries without real units")
	runCmd.Flags().String("metrics-addr", ":9090", "Prometheus metrics server address; empty disables it")
	runCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("schedule", runCmd.Flags(), "schedule")
	bindFlag("unit_speed", runCmd.Flags(), "unit-speed")
	bindFlag("simulate", runCmd.Flags(), "simulate")
	bindFlag("metrics_addr", runCmd.Flags(), "metrics-addr")
	bindFlag("otel_endpoint", runCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runRun(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := buildLogger(os.Stdout, cfg.LogLevel, "fleetd")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "fleetd",
		ServiceVersion: version.Version,
		Endpoint:       cfg.OTelEndpoint,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	sched := scheduler.New(scheduler.WithLogger(logger))
	if err := fleet.Seed(sched, cfg); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	st := sched.SystemStatus()
	logger.Info("fleet seeded",
		slog.Int("units", st.TotalUnits),
		slog.Int("tasks", st.TotalTasks),
	)

	opts := []fleet.Option{
		fleet.WithLogger(logger),
		fleet.WithUnitSpeed(cfg.UnitSpeed),
	}
	if cfg.Simulate {
		opts = append(opts, fleet.WithSimulation(cfg.EnergyPerDistance, cfg.ChargePerTick))
	}
	var readiness telemetry.Readiness
	opts = append(opts, fleet.WithReadiness(&readiness))

	runner, err := fleet.NewRunner(sched, cfg.Schedule, opts...)
	if err != nil {
		return err
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, &readiness, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down...")
		runCancel()
	}()

	logger.Info("fleetd starting",
		slog.String("schedule", cfg.Schedule),
		slog.Bool("simulate", cfg.Simulate),
	)
	runner.Run(runCtx)
	logger.Info("stopped")
	return nil
}
