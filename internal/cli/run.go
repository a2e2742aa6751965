package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/collswitch/internal/logger"
	"github.com/haskel/collswitch/internal/workload"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [pattern...]",
	Short: "Run synthetic workloads and report the chosen implementations",
	Long: `Run synthetic usage patterns through allocation contexts and report which
implementation every context settled on.

Patterns:
  list_read_heavy  list_queue  list_membership
  set_membership   set_ordered
  map_lookup       map_iteration

Without arguments every pattern runs once.`,
	Example: `  collswitch run
  collswitch run list_read_heavy --instances 30 --window-size 10
  collswitch run --decision-log - --json
  collswitch run --serve --port 9090`,
	RunE: runRun,
}

var (
	runInstances int
	runElements  int
	runRate      float64
	runServe     bool
	runNoProbe   bool
)

func init() {
	runCmd.Flags().IntVar(&runInstances, "instances", 0, "instances allocated per pattern (default from config)")
	runCmd.Flags().IntVar(&runElements, "elements", 0, "elements per instance (default from config)")
	runCmd.Flags().Float64Var(&runRate, "rate", -1, "allocations per second, 0 for unlimited (default from config)")
	runCmd.Flags().BoolVar(&runServe, "serve", false, "serve the status API while the workload runs")
	runCmd.Flags().BoolVar(&runNoProbe, "no-probe", false, "skip process resource sampling")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	patterns := make([]workload.Pattern, 0, len(args))
	for _, arg := range args {
		p, err := workload.ParsePattern(arg)
		if err != nil {
			return err
		}
		patterns = append(patterns, p)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runInstances > 0 {
		cfg.Workload.Instances = runInstances
	}
	if runElements > 0 {
		cfg.Workload.Elements = runElements
	}
	if runRate >= 0 {
		cfg.Workload.RatePerSec = runRate
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}

	// Logs go to stderr so the report and a "-" decision log own stdout.
	log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runServe {
		srv := eng.server()
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				log.Error("server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var probe *workload.Probe
	if !runNoProbe {
		probe, err = workload.NewProbe()
		if err != nil {
			log.Warn("process probe unavailable", "error", err)
		}
	}

	runner, err := workload.NewRunner(eng.factory, workload.Config{
		Instances:     cfg.Workload.Instances,
		Elements:      cfg.Workload.Elements,
		RatePerSec:    cfg.Workload.RatePerSec,
		Burst:         cfg.Workload.Burst,
		SettleTimeout: cfg.Workload.SettleTimeout(),
	}, probe, log)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, patterns...)
	if err != nil {
		return err
	}

	if jsonOut {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	renderReport(cmd.OutOrStdout(), report)
	return nil
}
