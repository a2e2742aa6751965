package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/haskel/collswitch/internal/allocation"
	"github.com/haskel/collswitch/internal/collection"
	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/logger"
)

// Config controls a workload run.
type Config struct {
	// Instances is the number of instances allocated per pattern.
	Instances int
	// Elements is the number of elements each instance holds.
	Elements int
	// RatePerSec paces allocations across all patterns; zero is unlimited.
	RatePerSec float64
	Burst      int
	// SettleTimeout bounds the wait for the optimizer after the last
	// allocation of a pattern.
	SettleTimeout time.Duration
}

// Result describes how one pattern's context adapted.
type Result struct {
	Pattern   Pattern       `json:"pattern"`
	Context   string        `json:"context"`
	Domain    string        `json:"domain"`
	Initial   string        `json:"initial"`
	Final     string        `json:"final"`
	Instances int           `json:"instances"`
	Analyses  int64         `json:"analyses"`
	Switches  int64         `json:"switches"`
	Duration  time.Duration `json:"duration"`
	Settled   bool          `json:"settled"`
}

// Report is the outcome of a run.
type Report struct {
	Results []Result        `json:"results"`
	Before  *ResourceSample `json:"before,omitempty"`
	After   *ResourceSample `json:"after,omitempty"`
	Elapsed time.Duration   `json:"elapsed"`
}

// Switched returns the number of patterns whose context changed type.
func (r *Report) Switched() int {
	n := 0
	for _, res := range r.Results {
		if res.Initial != res.Final {
			n++
		}
	}
	return n
}

// Runner allocates instances through a factory and drives them with
// synthetic patterns.
type Runner struct {
	factory *allocation.Factory
	cfg     Config
	limiter *rate.Limiter
	probe   *Probe
	logger  *slog.Logger
}

// NewRunner creates a runner. A nil probe skips resource sampling.
func NewRunner(f *allocation.Factory, cfg Config, probe *Probe, log *slog.Logger) (*Runner, error) {
	if f == nil {
		return nil, errors.New("workload: nil factory")
	}
	if cfg.Instances < 1 {
		return nil, fmt.Errorf("workload: instances must be at least 1, got %d", cfg.Instances)
	}
	if cfg.Elements < 1 {
		return nil, fmt.Errorf("workload: elements must be at least 1, got %d", cfg.Elements)
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
	}

	return &Runner{
		factory: f,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		probe:   probe,
		logger:  logger.Component(log, "workload"),
	}, nil
}

// Run drives every pattern in order and reports the result. Context
// identifiers are "workload/<pattern>", so a factory runs each pattern once.
func (r *Runner) Run(ctx context.Context, patterns ...Pattern) (*Report, error) {
	if len(patterns) == 0 {
		patterns = Patterns()
	}

	start := time.Now()
	report := &Report{}
	report.Before = r.sample(ctx)

	for _, p := range patterns {
		res, err := r.runPattern(ctx, p)
		if err != nil {
			return report, fmt.Errorf("pattern %s: %w", p, err)
		}
		report.Results = append(report.Results, res)
		r.logger.Info("pattern finished",
			"pattern", p,
			"initial", res.Initial,
			"final", res.Final,
			"analyses", res.Analyses,
			"duration", res.Duration,
		)
	}

	report.After = r.sample(ctx)
	report.Elapsed = time.Since(start)
	return report, nil
}

func (r *Runner) sample(ctx context.Context) *ResourceSample {
	if r.probe == nil {
		return nil
	}
	s, err := r.probe.Sample(ctx)
	if err != nil {
		r.logger.Warn("failed to sample process", "error", err)
		return nil
	}
	return &s
}

// driver allocates and exercises instances of one pattern's context.
type driver struct {
	pattern  Pattern
	id       string
	domain   string
	current  func() string
	allocate func() error
}

func (r *Runner) newDriver(p Pattern) (*driver, error) {
	id := "workload/" + string(p)
	n := r.cfg.Elements

	switch p.Domain() {
	case "list":
		actx, err := allocation.NewListContext[int](r.factory, p.ListDefault(), id)
		if err != nil {
			return nil, err
		}
		return bindDriver(p, actx, func(l collection.List[int]) error {
			return driveList(p, l, n)
		}), nil
	case "set":
		actx, err := allocation.NewSetContext[int](r.factory, p.SetDefault(), id)
		if err != nil {
			return nil, err
		}
		return bindDriver(p, actx, func(s collection.Set[int]) error {
			driveSet(p, s, n)
			return nil
		}), nil
	default:
		actx, err := allocation.NewMapContext[int, int](r.factory, p.MapDefault(), id)
		if err != nil {
			return nil, err
		}
		return bindDriver(p, actx, func(m collection.Map[int, int]) error {
			driveMap(p, m, n)
			return nil
		}), nil
	}
}

func bindDriver[T decision.Candidate, C any](p Pattern, actx allocation.AllocationContext[T, C], work func(C) error) *driver {
	return &driver{
		pattern: p,
		id:      actx.ID(),
		domain:  actx.Domain(),
		current: func() string { return actx.CurrentType().String() },
		allocate: func() error {
			inst := actx.CreateInstance()
			if err := work(inst); err != nil {
				return err
			}
			allocation.Finish(inst)
			return nil
		},
	}
}

func (r *Runner) runPattern(ctx context.Context, p Pattern) (Result, error) {
	start := time.Now()

	d, err := r.newDriver(p)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Pattern: p,
		Context: d.id,
		Domain:  d.domain,
		Initial: d.current(),
	}

	for range r.cfg.Instances {
		if err := r.limiter.Wait(ctx); err != nil {
			return res, err
		}
		if err := d.allocate(); err != nil {
			return res, err
		}
		res.Instances++
	}

	res.Settled = r.settle(ctx, d.id)
	res.Final = d.current()
	if st, ok := r.stats(d.id); ok {
		res.Analyses = st.Optimizer.Analyses
		res.Switches = st.Optimizer.Switches
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Loop allocates instances of every pattern round-robin until ctx is done.
// It returns nil when ctx is canceled.
func (r *Runner) Loop(ctx context.Context, patterns ...Pattern) error {
	if len(patterns) == 0 {
		patterns = Patterns()
	}

	drivers := make([]*driver, 0, len(patterns))
	for _, p := range patterns {
		d, err := r.newDriver(p)
		if err != nil {
			return fmt.Errorf("pattern %s: %w", p, err)
		}
		drivers = append(drivers, d)
	}

	r.logger.Info("workload loop started", "patterns", len(drivers))
	var allocated int64
	for {
		for _, d := range drivers {
			if err := r.limiter.Wait(ctx); err != nil {
				r.logger.Info("workload loop stopped", "allocated", allocated)
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if err := d.allocate(); err != nil {
				return fmt.Errorf("pattern %s: %w", d.pattern, err)
			}
			allocated++
		}
	}
}

// settle waits until the context's window holds fewer finished records than
// its analysis threshold and one more optimizer tick has started. Ticks of a
// context never overlap, so the tick that drained the window has then
// written its decision.
func (r *Runner) settle(ctx context.Context, id string) bool {
	if r.cfg.SettleTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(r.cfg.SettleTimeout)
	defer timer.Stop()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	drained := false
	var ticks int64
	for {
		if st, ok := r.stats(id); ok {
			switch {
			case !drained && st.Optimizer.Window.Finished < st.Optimizer.Threshold:
				drained = true
				// Read again so the draining tick is already counted.
				if st, ok = r.stats(id); ok {
					ticks = st.Optimizer.Ticks
				}
			case drained && st.Optimizer.Ticks > ticks:
				return true
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			r.logger.Warn("context did not settle", "context", id, "timeout", r.cfg.SettleTimeout)
			return false
		case <-ticker.C:
		}
	}
}

func (r *Runner) stats(id string) (allocation.ContextStats, bool) {
	for _, c := range r.factory.Contexts() {
		if c.ID == id {
			return c, true
		}
	}
	return allocation.ContextStats{}, false
}
