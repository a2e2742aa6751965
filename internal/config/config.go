package config

import (
	"time"

	"github.com/haskel/collswitch/internal/allocation"
	"github.com/haskel/collswitch/internal/decision"
)

type Config struct {
	Adaptation  AdaptationConfig  `yaml:"adaptation" json:"adaptation"`
	Workload    WorkloadConfig    `yaml:"workload" json:"workload"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Persistence PersistenceConfig `yaml:"persistence" json:"persistence"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// AdaptationConfig holds the options of the selection engine, shared by
// every allocation context.
type AdaptationConfig struct {
	// WindowSize is the number of usage records per analysis window.
	WindowSize int `yaml:"window_size" json:"window_size"`
	// Samples is the number of benchmark samples behind the cost models.
	Samples        int `yaml:"samples" json:"samples"`
	InitialDelayMS int `yaml:"initial_delay_ms" json:"initial_delay_ms"`
	PeriodMS       int `yaml:"period_ms" json:"period_ms"`
	Workers        int `yaml:"workers" json:"workers"`
	// FinishedRatio is the share of the window that must be finished
	// before it is analyzed.
	FinishedRatio  float64 `yaml:"finished_ratio" json:"finished_ratio"`
	MajorDimension string  `yaml:"major_dimension" json:"major_dimension"`
	MinorDimension string  `yaml:"minor_dimension" json:"minor_dimension"`
	MinImprovement float64 `yaml:"min_improvement" json:"min_improvement"`
	MaxPenalty     float64 `yaml:"max_penalty" json:"max_penalty"`
	// DecisionLog is a file path, "-" for stdout, or empty to disable.
	DecisionLog string `yaml:"decision_log" json:"decision_log"`
	// ModelsFile replaces the built-in cost models.
	ModelsFile string `yaml:"models_file" json:"models_file"`
}

// WorkloadConfig drives the synthetic workloads of the run command.
type WorkloadConfig struct {
	Instances       int     `yaml:"instances" json:"instances"`
	Elements        int     `yaml:"elements" json:"elements"`
	RatePerSec      float64 `yaml:"rate_per_sec" json:"rate_per_sec"`
	Burst           int     `yaml:"burst" json:"burst"`
	SettleTimeoutMS int     `yaml:"settle_timeout_ms" json:"settle_timeout_ms"`
}

type ServerConfig struct {
	Host      string          `yaml:"host" json:"host"`
	Port      int             `yaml:"port" json:"port"`
	PIDFile   string          `yaml:"pid_file" json:"pid_file"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

type PersistenceConfig struct {
	// DataDir keeps the current type of every context across restarts.
	// Empty disables state persistence.
	DataDir         string `yaml:"data_dir" json:"data_dir"`
	FlushIntervalMS int    `yaml:"flush_interval_ms" json:"flush_interval_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

func (a *AdaptationConfig) InitialDelay() time.Duration {
	return time.Duration(a.InitialDelayMS) * time.Millisecond
}

func (a *AdaptationConfig) Period() time.Duration {
	return time.Duration(a.PeriodMS) * time.Millisecond
}

// Goal parses the performance goal.
func (a *AdaptationConfig) Goal() (decision.Goal, error) {
	major, err := decision.ParseDimension(a.MajorDimension)
	if err != nil {
		return decision.Goal{}, err
	}
	minor, err := decision.ParseDimension(a.MinorDimension)
	if err != nil {
		return decision.Goal{}, err
	}
	g := decision.Goal{
		Major:          major,
		Minor:          minor,
		MinImprovement: a.MinImprovement,
		MaxPenalty:     a.MaxPenalty,
	}
	return g, g.Validate()
}

func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Persistence.FlushIntervalMS) * time.Millisecond
}

func (w *WorkloadConfig) SettleTimeout() time.Duration {
	return time.Duration(w.SettleTimeoutMS) * time.Millisecond
}

// Allocation converts the adaptation section into a factory configuration.
func (c *Config) Allocation() (allocation.Config, error) {
	goal, err := c.Adaptation.Goal()
	if err != nil {
		return allocation.Config{}, err
	}
	return allocation.Config{
		WindowSize:    c.Adaptation.WindowSize,
		Samples:       c.Adaptation.Samples,
		InitialDelay:  c.Adaptation.InitialDelay(),
		Period:        c.Adaptation.Period(),
		Workers:       c.Adaptation.Workers,
		FinishedRatio: c.Adaptation.FinishedRatio,
		Goal:          goal,
		ModelsFile:    c.Adaptation.ModelsFile,
		DecisionLog:   c.Adaptation.DecisionLog,
		FlushInterval: c.FlushInterval(),
	}, nil
}
