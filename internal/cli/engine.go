package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/haskel/collswitch/internal/allocation"
	"github.com/haskel/collswitch/internal/config"
	"github.com/haskel/collswitch/internal/decision/scheduler"
	"github.com/haskel/collswitch/internal/metrics"
	"github.com/haskel/collswitch/internal/server"
	"github.com/haskel/collswitch/internal/storage"
)

// engine wires the allocation factory with metrics and state persistence.
type engine struct {
	cfg      *config.Config
	log      *slog.Logger
	factory  *allocation.Factory
	recorder *metrics.Recorder
	state    *storage.Storage
	cancel   context.CancelFunc
}

func newEngine(cfg *config.Config, log *slog.Logger) (*engine, error) {
	ac, err := cfg.Allocation()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &engine{
		cfg:      cfg,
		log:      log,
		recorder: metrics.NewRecorder(nil),
		cancel:   cancel,
	}

	opts := []allocation.Option{
		allocation.WithLogger(log),
		allocation.WithObserver(e.recorder),
	}

	if cfg.Persistence.DataDir != "" {
		e.state = storage.New(cfg.Persistence.DataDir, cfg.FlushInterval(), log)
		if err := e.state.Load(); err != nil {
			log.Warn("failed to load persisted state", "error", err)
		} else if n := e.state.ContextCount(); n > 0 {
			log.Info("loaded persisted state", "contexts", n)
		}
		e.state.Start(ctx)
		opts = append(opts, allocation.WithState(e.state))
	}

	e.factory = allocation.NewFactory(ac, opts...)
	e.recorder.RegisterContexts(e.factory.OptimizerStats)
	e.recorder.RegisterScheduler(e.schedulerStats)

	return e, nil
}

func (e *engine) schedulerStats() scheduler.Stats {
	if s := e.factory.Scheduler(); s != nil {
		return s.Stats()
	}
	return scheduler.Stats{}
}

func (e *engine) server() *server.Server {
	return server.New(e.cfg, e.factory, e.recorder.Registry(), e.log, Version)
}

// Close stops the factory, then saves the final state.
func (e *engine) Close() error {
	var errs []error
	if err := e.factory.Close(); err != nil {
		errs = append(errs, err)
	}
	if e.state != nil {
		if err := e.state.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	e.cancel()
	return errors.Join(errs...)
}
