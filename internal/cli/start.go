package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/collswitch/internal/logger"
	"github.com/haskel/collswitch/internal/workload"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the collswitch server",
	Long: `Start the collswitch server in foreground mode.

The server exposes the contexts, the scheduler and Prometheus metrics. Unless
--workload=false is given, synthetic patterns run round-robin in the
background so there is always something to adapt.`,
	RunE: runStart,
}

var startWorkload bool

func init() {
	startCmd.Flags().BoolVar(&startWorkload, "workload", true, "drive synthetic workloads in the background")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if specified via flag
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("collswitch starting",
		"version", Version,
		"config", cfgFile,
		"window_size", cfg.Adaptation.WindowSize,
		"major", cfg.Adaptation.MajorDimension,
		"minor", cfg.Adaptation.MinorDimension,
	)

	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if startWorkload {
		probe, err := workload.NewProbe()
		if err != nil {
			log.Warn("process probe unavailable", "error", err)
		}
		runner, err := workload.NewRunner(eng.factory, workload.Config{
			Instances:     cfg.Workload.Instances,
			Elements:      cfg.Workload.Elements,
			RatePerSec:    cfg.Workload.RatePerSec,
			Burst:         cfg.Workload.Burst,
			SettleTimeout: cfg.Workload.SettleTimeout(),
		}, probe, log)
		if err != nil {
			_ = eng.Close()
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runner.Loop(ctx); err != nil {
				log.Error("workload stopped", "error", err)
			}
		}()
	}

	// Write PID file if configured
	if cfg.Server.PIDFile != "" {
		if err := writePIDFile(cfg.Server.PIDFile); err != nil {
			log.Warn("failed to write PID file", "error", err)
		} else {
			defer os.Remove(cfg.Server.PIDFile)
		}
	}

	srv := eng.server()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Handle shutdown signals
	go func() {
		<-sigCh

		log.Info("shutdown signal received")
		signal.Stop(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	log.Info("collswitch ready", "addr", srv.Addr())

	serveErr := srv.Start()

	cancel()
	wg.Wait()

	// Stop the optimizer and save final state
	if err := eng.Close(); err != nil {
		log.Error("engine shutdown error", "error", err)
	}

	if serveErr != nil && serveErr != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", serveErr)
	}

	log.Info("collswitch stopped")
	return nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", pid)), 0644)
}
