package config

import (
	"github.com/spf13/pflag"
)

// Flags holds command line overrides for the adaptation options. Only flags
// set explicitly on the command line are applied.
type Flags struct {
	fs *pflag.FlagSet

	windowSize     int
	samples        int
	initialDelayMS int
	periodMS       int
	workers        int
	finishedRatio  float64
	major          string
	minor          string
	minImprovement float64
	maxPenalty     float64
	decisionLog    string
	modelsFile     string
	dataDir        string
	logLevel       string
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}

	fs.IntVar(&f.windowSize, "window-size", d.Adaptation.WindowSize, "usage records per analysis window")
	fs.IntVar(&f.samples, "samples", d.Adaptation.Samples, "benchmark samples behind the cost models")
	fs.IntVar(&f.initialDelayMS, "initial-delay-ms", d.Adaptation.InitialDelayMS, "delay before the first analysis")
	fs.IntVar(&f.periodMS, "period-ms", d.Adaptation.PeriodMS, "analysis period")
	fs.IntVar(&f.workers, "workers", d.Adaptation.Workers, "analysis worker goroutines")
	fs.Float64Var(&f.finishedRatio, "finished-ratio", d.Adaptation.FinishedRatio, "finished share of the window that triggers analysis")
	fs.StringVar(&f.major, "major", d.Adaptation.MajorDimension, "major performance dimension (time, allocation)")
	fs.StringVar(&f.minor, "minor", d.Adaptation.MinorDimension, "minor performance dimension (time, allocation)")
	fs.Float64Var(&f.minImprovement, "min-improvement", d.Adaptation.MinImprovement, "major cost factor a candidate must beat")
	fs.Float64Var(&f.maxPenalty, "max-penalty", d.Adaptation.MaxPenalty, "minor cost factor a candidate must stay under")
	fs.StringVar(&f.decisionLog, "decision-log", d.Adaptation.DecisionLog, "decision log file, - for stdout")
	fs.StringVar(&f.modelsFile, "models", d.Adaptation.ModelsFile, "cost models file")
	fs.StringVar(&f.dataDir, "data-dir", d.Persistence.DataDir, "state directory, empty disables persistence")
	fs.StringVar(&f.logLevel, "log-level", d.Logging.Level, "log level (debug, info, warn, error)")

	return f
}

// Apply copies every explicitly set flag into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f == nil || f.fs == nil {
		return
	}

	set := func(name string, apply func()) {
		if fl := f.fs.Lookup(name); fl != nil && fl.Changed {
			apply()
		}
	}

	set("window-size", func() { cfg.Adaptation.WindowSize = f.windowSize })
	set("samples", func() { cfg.Adaptation.Samples = f.samples })
	set("initial-delay-ms", func() { cfg.Adaptation.InitialDelayMS = f.initialDelayMS })
	set("period-ms", func() { cfg.Adaptation.PeriodMS = f.periodMS })
	set("workers", func() { cfg.Adaptation.Workers = f.workers })
	set("finished-ratio", func() { cfg.Adaptation.FinishedRatio = f.finishedRatio })
	set("major", func() { cfg.Adaptation.MajorDimension = f.major })
	set("minor", func() { cfg.Adaptation.MinorDimension = f.minor })
	set("min-improvement", func() { cfg.Adaptation.MinImprovement = f.minImprovement })
	set("max-penalty", func() { cfg.Adaptation.MaxPenalty = f.maxPenalty })
	set("decision-log", func() { cfg.Adaptation.DecisionLog = f.decisionLog })
	set("models", func() { cfg.Adaptation.ModelsFile = f.modelsFile })
	set("data-dir", func() { cfg.Persistence.DataDir = f.dataDir })
	set("log-level", func() { cfg.Logging.Level = f.logLevel })
}
