package allocation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haskel/collswitch/internal/collection"
	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/decision/model"
	"github.com/haskel/collswitch/internal/decision/optimizer"
	"github.com/haskel/collswitch/internal/decision/scheduler"
	"github.com/haskel/collswitch/internal/logger"
	"github.com/haskel/collswitch/internal/monitor"
	"github.com/haskel/collswitch/internal/storage"
)

var (
	// ErrClosed is returned when building a context on a closed factory.
	ErrClosed = errors.New("allocation factory closed")
	// ErrDuplicateContext is returned when a context ID is already in use.
	ErrDuplicateContext = errors.New("context already exists")
)

// Config holds the options shared by every context of a factory.
type Config struct {
	WindowSize int
	// Samples is the number of benchmark samples behind the cost models.
	// It is validated but does not affect decisions.
	Samples       int
	InitialDelay  time.Duration
	Period        time.Duration
	Workers       int
	FinishedRatio float64
	Goal          decision.Goal
	// ModelsFile replaces the built-in cost models when set.
	ModelsFile string
	// DecisionLog is a file path or storage.StdoutDestination; empty
	// disables decision logging.
	DecisionLog   string
	FlushInterval time.Duration
}

// DefaultConfig returns the default factory configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:    10,
		Samples:       50,
		InitialDelay:  time.Second,
		Period:        time.Second,
		Workers:       1,
		FinishedRatio: 0.8,
		Goal:          decision.DefaultGoal(),
		FlushInterval: time.Second,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	if c.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %d", c.WindowSize))
	}
	if c.Samples <= 0 {
		errs = append(errs, fmt.Errorf("samples must be positive, got %d", c.Samples))
	}
	if c.InitialDelay < 0 {
		errs = append(errs, fmt.Errorf("initial delay must not be negative, got %v", c.InitialDelay))
	}
	if c.Period <= 0 {
		errs = append(errs, fmt.Errorf("period must be positive, got %v", c.Period))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.FinishedRatio <= 0 || c.FinishedRatio > 1 {
		errs = append(errs, fmt.Errorf("finished ratio must be in (0, 1], got %v", c.FinishedRatio))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", decision.ErrConfiguration, err)
	}
	return c.Goal.Validate()
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.base = l }
}

// WithObserver sets the observer every optimizer reports to.
func WithObserver(o optimizer.Observer) Option {
	return func(f *Factory) { f.observer = o }
}

// WithSink adds a decision sink.
func WithSink(s DecisionSink) Option {
	return func(f *Factory) { f.sinks = append(f.sinks, s) }
}

// WithState resumes contexts from, and records decisions into, s.
func WithState(s *storage.Storage) Option {
	return func(f *Factory) { f.state = s }
}

type registered struct {
	current   func() string
	optimizer func() optimizer.Stats
}

// Factory builds allocation contexts. The first build bootstraps the shared
// machinery once: cost models, scheduler and decision log. Configuration
// errors found then are returned by every build.
type Factory struct {
	cfg      Config
	base     *slog.Logger
	logger   *slog.Logger
	observer optimizer.Observer
	state    *storage.Storage
	sinks    Sinks

	mu          sync.Mutex
	initialized bool
	initErr     error
	closed      bool
	cancel      context.CancelFunc
	listEval    *model.Evaluator[collection.ListType]
	setEval     *model.Evaluator[collection.SetType]
	mapEval     *model.Evaluator[collection.MapType]
	scheduler   *scheduler.Manager
	decisionLog *storage.DecisionLog
	contexts    map[string]registered
}

// NewFactory creates a factory. Nothing is started until the first context
// is built.
func NewFactory(cfg Config, opts ...Option) *Factory {
	f := &Factory{
		cfg:      cfg,
		contexts: make(map[string]registered),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.base == nil {
		f.base = logger.Discard()
	}
	f.logger = logger.Component(f.base, "allocation")
	return f
}

// Config returns the factory configuration.
func (f *Factory) Config() Config {
	return f.cfg
}

func (f *Factory) bootstrapLocked() error {
	if f.closed {
		return ErrClosed
	}
	if f.initialized {
		return f.initErr
	}
	f.initialized = true
	f.initErr = f.initLocked()
	if f.initErr != nil {
		f.logger.Error("bootstrap failed", "error", f.initErr)
	}
	return f.initErr
}

func (f *Factory) initLocked() error {
	if err := f.cfg.Validate(); err != nil {
		return err
	}

	models, err := model.NewFactory(model.Config{File: f.cfg.ModelsFile})
	if err != nil {
		return err
	}
	if f.listEval, err = models.ListEvaluator(); err != nil {
		return err
	}
	if f.setEval, err = models.SetEvaluator(); err != nil {
		return err
	}
	if f.mapEval, err = models.MapEvaluator(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	if f.cfg.DecisionLog != "" {
		f.decisionLog, err = storage.OpenDecisionLog(f.cfg.DecisionLog, f.cfg.FlushInterval, logger.Component(f.base, "decision_log"))
		if err != nil {
			cancel()
			return fmt.Errorf("%w: %w", decision.ErrConfiguration, err)
		}
		f.decisionLog.Start(ctx)
		f.sinks = append(f.sinks, f.decisionLog)
	}
	if f.state != nil {
		f.sinks = append(f.sinks, f.state)
	}

	f.scheduler = scheduler.NewManager(scheduler.Config{
		Workers:      f.cfg.Workers,
		InitialDelay: f.cfg.InitialDelay,
		Period:       f.cfg.Period,
		Logger:       f.base,
	})
	if err := f.scheduler.Start(ctx); err != nil {
		cancel()
		return err
	}
	f.cancel = cancel

	f.logger.Info("bootstrapped",
		"window_size", f.cfg.WindowSize,
		"finished_ratio", f.cfg.FinishedRatio,
		"major", f.cfg.Goal.Major,
		"minor", f.cfg.Goal.Minor,
		"decision_log", f.cfg.DecisionLog,
	)
	return nil
}

// Close stops the scheduler and flushes the decision log. Contexts keep
// serving instances of their last type.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	if f.scheduler != nil {
		f.scheduler.Stop()
	}
	if f.cancel != nil {
		f.cancel()
	}
	if f.decisionLog != nil {
		return f.decisionLog.Stop()
	}
	return nil
}

// Scheduler returns the scheduler, nil before the first build.
func (f *Factory) Scheduler() *scheduler.Manager {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scheduler
}

// ContextStats describes one context.
type ContextStats struct {
	ID        string          `json:"id"`
	Domain    string          `json:"domain"`
	Current   string          `json:"current"`
	Optimizer optimizer.Stats `json:"optimizer"`
}

// Contexts returns the state of every context, sorted by ID.
func (f *Factory) Contexts() []ContextStats {
	f.mu.Lock()
	entries := make([]registered, 0, len(f.contexts))
	for _, r := range f.contexts {
		entries = append(entries, r)
	}
	f.mu.Unlock()

	out := make([]ContextStats, 0, len(entries))
	for _, r := range entries {
		st := r.optimizer()
		out = append(out, ContextStats{
			ID:        st.ID,
			Domain:    st.Domain,
			Current:   r.current(),
			Optimizer: st,
		})
	}
	slices.SortFunc(out, func(a, b ContextStats) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// OptimizerStats returns the optimizer statistics of every context.
func (f *Factory) OptimizerStats() []optimizer.Stats {
	contexts := f.Contexts()
	out := make([]optimizer.Stats, len(contexts))
	for i, c := range contexts {
		out[i] = c.Optimizer
	}
	return out
}

func build[T decision.Candidate, C any](
	f *Factory,
	eval func(*Factory) *model.Evaluator[T],
	def T,
	id string,
	newInstance InstanceFunc[T, C],
) (AllocationContext[T, C], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.bootstrapLocked(); err != nil {
		return nil, err
	}

	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := f.contexts[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateContext, id)
	}

	evaluator := eval(f)
	domain := evaluator.Domain()
	log := f.logger.With("context", id, "domain", domain.Name)

	opt, err := optimizer.New(optimizer.Config[T]{
		ID:            id,
		Evaluator:     evaluator,
		Goal:          f.cfg.Goal,
		Default:       def,
		WindowSize:    f.cfg.WindowSize,
		FinishedRatio: f.cfg.FinishedRatio,
		Logger:        logger.Component(f.base, "optimizer"),
		Observer:      f.observer,
	})
	if err != nil {
		return nil, err
	}

	initial := def
	if f.state != nil {
		if t, ok := resumeType(f.state, domain, id); ok {
			initial = t
			log.Info("resumed persisted type", "type", t)
		}
	}

	c := NewContext(id, domain, def, initial, opt.Window(), newInstance, log)

	var out AllocationContext[T, C] = c
	if len(f.sinks) > 0 {
		out = NewLoggedContext[T, C](c, f.sinks)
	}
	opt.SetTarget(out)

	if err := f.scheduler.Register(opt); err != nil {
		return nil, err
	}
	f.contexts[id] = registered{
		current:   func() string { return c.CurrentType().String() },
		optimizer: opt.Stats,
	}

	log.Debug("context built", "default", def, "initial", initial)
	return out, nil
}

func resumeType[T decision.Candidate](s *storage.Storage, domain decision.Domain[T], id string) (T, bool) {
	var zero T
	cd := s.GetContext(id)
	if cd == nil || cd.Domain != domain.Name {
		return zero, false
	}
	for _, t := range domain.Candidates {
		if t.String() == cd.Type {
			return t, true
		}
	}
	return zero, false
}

// NewListContext builds a list context with the given default type. An
// empty id gets a generated one.
func NewListContext[E comparable](f *Factory, def collection.ListType, id string) (AllocationContext[collection.ListType, collection.List[E]], error) {
	return build(f,
		func(f *Factory) *model.Evaluator[collection.ListType] { return f.listEval },
		def, id,
		func(t collection.ListType, w *monitor.Window) (collection.List[E], error) {
			l, err := collection.NewList[E](t)
			if err != nil {
				return nil, err
			}
			return monitor.MonitorList(w, l), nil
		},
	)
}

// NewSetContext builds a set context with the given default type.
func NewSetContext[E cmp.Ordered](f *Factory, def collection.SetType, id string) (AllocationContext[collection.SetType, collection.Set[E]], error) {
	return build(f,
		func(f *Factory) *model.Evaluator[collection.SetType] { return f.setEval },
		def, id,
		func(t collection.SetType, w *monitor.Window) (collection.Set[E], error) {
			s, err := collection.NewSet[E](t)
			if err != nil {
				return nil, err
			}
			return monitor.MonitorSet(w, s), nil
		},
	)
}

// NewMapContext builds a map context with the given default type.
func NewMapContext[K cmp.Ordered, V any](f *Factory, def collection.MapType, id string) (AllocationContext[collection.MapType, collection.Map[K, V]], error) {
	return build(f,
		func(f *Factory) *model.Evaluator[collection.MapType] { return f.mapEval },
		def, id,
		func(t collection.MapType, w *monitor.Window) (collection.Map[K, V], error) {
			m, err := collection.NewMap[K, V](t)
			if err != nil {
				return nil, err
			}
			return monitor.MonitorMap(w, m), nil
		},
	)
}
