package config

import (
	"errors"
	"fmt"

	"github.com/haskel/collswitch/internal/decision"
)

func (c *Config) Validate() error {
	var errs []error

	if err := c.Adaptation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("adaptation: %w", err))
	}

	if err := c.Workload.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("workload: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Persistence.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("persistence: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	return errors.Join(errs...)
}

func (a *AdaptationConfig) Validate() error {
	var errs []error

	if a.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("window_size must be at least 1, got %d", a.WindowSize))
	}
	if a.Samples < 1 {
		errs = append(errs, fmt.Errorf("samples must be at least 1, got %d", a.Samples))
	}
	if a.InitialDelayMS < 0 {
		errs = append(errs, fmt.Errorf("initial_delay_ms must be non-negative"))
	}
	if a.PeriodMS < 1 {
		errs = append(errs, fmt.Errorf("period_ms must be at least 1, got %d", a.PeriodMS))
	}
	if a.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", a.Workers))
	}
	if a.FinishedRatio <= 0 || a.FinishedRatio > 1 {
		errs = append(errs, fmt.Errorf("finished_ratio must be in (0, 1], got %v", a.FinishedRatio))
	}
	if _, err := a.Goal(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		if errors.Is(err, decision.ErrConfiguration) {
			return err
		}
		return fmt.Errorf("%w: %w", decision.ErrConfiguration, err)
	}
	return nil
}

func (w *WorkloadConfig) Validate() error {
	var errs []error

	if w.Instances < 1 {
		errs = append(errs, fmt.Errorf("instances must be at least 1, got %d", w.Instances))
	}
	if w.Elements < 1 {
		errs = append(errs, fmt.Errorf("elements must be at least 1, got %d", w.Elements))
	}
	if w.RatePerSec < 0 {
		errs = append(errs, fmt.Errorf("rate_per_sec must be non-negative"))
	}
	if w.RatePerSec > 0 && w.Burst < 1 {
		errs = append(errs, fmt.Errorf("burst must be at least 1 when rate_per_sec is set"))
	}
	if w.SettleTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("settle_timeout_ms must be non-negative"))
	}

	return errors.Join(errs...)
}

func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limit.requests_per_second must be positive")
		}
		if s.RateLimit.Burst < 1 {
			return fmt.Errorf("rate_limit.burst must be at least 1")
		}
	}
	return nil
}

func (p *PersistenceConfig) Validate() error {
	if p.FlushIntervalMS < 10 {
		return fmt.Errorf("flush_interval_ms must be at least 10")
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", l.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", l.Format)
	}

	return nil
}
