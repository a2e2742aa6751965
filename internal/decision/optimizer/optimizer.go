// Package optimizer implements the periodic decision step: it drains the
// usage window of a context, predicts the cost of every candidate along the
// major and minor dimension, and writes the champion into the context.
package optimizer

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/decision/model"
	"github.com/haskel/collswitch/internal/logger"
	"github.com/haskel/collswitch/internal/monitor"
)

// State of the optimizer state machine.
type State int32

const (
	StateAccumulating State = iota
	StateAnalyzing
)

// String returns string representation.
func (s State) String() string {
	switch s {
	case StateAccumulating:
		return "accumulating"
	case StateAnalyzing:
		return "analyzing"
	}
	return "unknown"
}

// Observer receives optimizer events. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveTick(domain, id string, analyzed bool)
	ObserveDecision(domain, id, champion string, switched bool)
	ObserveFailure(domain, id string)
}

type noopObserver struct{}

func (noopObserver) ObserveTick(string, string, bool)             {}
func (noopObserver) ObserveDecision(string, string, string, bool) {}
func (noopObserver) ObserveFailure(string, string)                {}

// Config holds optimizer configuration.
type Config[T decision.Candidate] struct {
	// ID identifies the optimized context.
	ID string
	// Evaluator must cover every candidate in both goal dimensions.
	Evaluator *model.Evaluator[T]
	Goal      decision.Goal
	// Default is the fallback type, also the baseline costs are compared to.
	Default T
	// WindowSize is the capacity of the usage window.
	WindowSize int
	// FinishedRatio is the share of the window that must be finished
	// before a tick analyzes it.
	FinishedRatio float64
	Logger        *slog.Logger
	Observer      Observer
}

// Optimizer decides the implementation type of one context.
type Optimizer[T decision.Candidate] struct {
	id        string
	evaluator *model.Evaluator[T]
	goal      decision.Goal
	def       T
	window    *monitor.Window
	threshold int
	logger    *slog.Logger
	observer  Observer

	state atomic.Int32

	mu           sync.RWMutex
	target       decision.TypeHolder[T]
	ticks        int64
	analyses     int64
	switches     int64
	failures     int64
	lastChampion *T
	lastDecision time.Time
}

// New creates an optimizer. Configuration errors, including a cost model
// missing for any candidate, wrap decision.ErrConfiguration.
func New[T decision.Candidate](cfg Config[T]) (*Optimizer[T], error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("%w: optimizer %q: evaluator is required", decision.ErrConfiguration, cfg.ID)
	}
	if err := cfg.Goal.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer %q: %w", cfg.ID, err)
	}
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("%w: optimizer %q: window size must be positive, got %d", decision.ErrConfiguration, cfg.ID, cfg.WindowSize)
	}
	if cfg.FinishedRatio <= 0 || cfg.FinishedRatio > 1 {
		return nil, fmt.Errorf("%w: optimizer %q: finished ratio must be in (0, 1], got %v", decision.ErrConfiguration, cfg.ID, cfg.FinishedRatio)
	}

	domain := cfg.Evaluator.Domain()
	if !domain.Contains(cfg.Default) {
		return nil, fmt.Errorf("%w: optimizer %q: default %q is not a %s candidate", decision.ErrConfiguration, cfg.ID, cfg.Default, domain.Name)
	}
	if err := cfg.Evaluator.Validate(cfg.Goal.Dimensions()...); err != nil {
		return nil, fmt.Errorf("optimizer %q: %w", cfg.ID, err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = noopObserver{}
	}

	return &Optimizer[T]{
		id:        cfg.ID,
		evaluator: cfg.Evaluator,
		goal:      cfg.Goal,
		def:       cfg.Default,
		window:    monitor.NewWindow(cfg.WindowSize),
		threshold: Threshold(cfg.WindowSize, cfg.FinishedRatio),
		logger:    log.With("optimizer", cfg.ID, "domain", domain.Name),
		observer:  obs,
	}, nil
}

// Threshold returns the number of finished records that triggers an analysis:
// floor(windowSize * finishedRatio), never less than one.
func Threshold(windowSize int, finishedRatio float64) int {
	n := int(math.Floor(float64(windowSize) * finishedRatio))
	return max(n, 1)
}

// ID returns the identifier of the optimized context.
func (o *Optimizer[T]) ID() string {
	return o.id
}

// Domain returns the name of the candidate domain.
func (o *Optimizer[T]) Domain() string {
	return o.evaluator.Domain().Name
}

// Default returns the fallback type.
func (o *Optimizer[T]) Default() T {
	return o.def
}

// Window returns the usage window instances are monitored into.
func (o *Optimizer[T]) Window() *monitor.Window {
	return o.window
}

// Threshold returns the finished-record count that triggers an analysis.
func (o *Optimizer[T]) Threshold() int {
	return o.threshold
}

// State returns the current state.
func (o *Optimizer[T]) State() State {
	return State(o.state.Load())
}

// SetTarget binds the holder the champion is written into.
func (o *Optimizer[T]) SetTarget(target decision.TypeHolder[T]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = target
}

func (o *Optimizer[T]) getTarget() decision.TypeHolder[T] {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.target
}

// AnalyzeAndOptimize runs one tick. When enough records are finished it
// drains the window, decides the champion and writes it into the target.
// Otherwise the tick is a no-op.
func (o *Optimizer[T]) AnalyzeAndOptimize() {
	o.mu.Lock()
	o.ticks++
	o.mu.Unlock()

	records, ok := o.window.Drain(o.threshold)
	if !ok {
		o.observer.ObserveTick(o.Domain(), o.id, false)
		return
	}

	o.state.Store(int32(StateAnalyzing))
	defer o.state.Store(int32(StateAccumulating))
	o.observer.ObserveTick(o.Domain(), o.id, true)

	champion, err := o.Decide(records)
	if err != nil {
		o.mu.Lock()
		o.failures++
		o.mu.Unlock()
		o.observer.ObserveFailure(o.Domain(), o.id)
		o.logger.Error("decision failed", "records", len(records), "error", err)
		return
	}

	target := o.getTarget()
	if target == nil {
		o.logger.Warn("no target bound, decision dropped", "champion", champion)
		return
	}

	previous := target.CurrentType()
	target.UpdateCollectionType(champion)
	switched := previous != champion

	o.mu.Lock()
	o.analyses++
	if switched {
		o.switches++
	}
	o.lastChampion = &champion
	o.lastDecision = time.Now()
	o.mu.Unlock()

	o.observer.ObserveDecision(o.Domain(), o.id, champion.String(), switched)
	if switched {
		o.logger.Info("implementation switched", "from", previous, "to", champion, "records", len(records))
	} else {
		o.logger.Debug("implementation kept", "type", champion, "records", len(records))
	}
}

// Decide picks the champion for the given records without touching the
// window or the target.
//
// A candidate is eligible when its summed major cost is below
// MinImprovement times the default's and its summed minor cost is below
// MaxPenalty times the default's. The eligible candidate with the lowest
// major cost wins, earlier candidates winning ties. With no eligible
// candidate the default is returned.
func (o *Optimizer[T]) Decide(records []monitor.Snapshot) (T, error) {
	major, err := o.evaluator.PredictWindow(o.goal.Major, records)
	if err != nil {
		return o.def, err
	}
	minor, err := o.evaluator.PredictWindow(o.goal.Minor, records)
	if err != nil {
		return o.def, err
	}

	majorSet := o.filter(major, o.goal.MinImprovement)
	minorSet := o.filter(minor, o.goal.MaxPenalty)

	champion := o.def
	found := false
	best := math.Inf(1)
	for _, t := range o.evaluator.Domain().Candidates {
		if !majorSet[t] || !minorSet[t] {
			continue
		}
		if c := major[t]; !found || c < best {
			champion, best, found = t, c, true
		}
	}

	if !found {
		o.logger.Debug("no candidate cleared both thresholds, using default", "default", o.def)
	}
	return champion, nil
}

func (o *Optimizer[T]) filter(costs map[T]float64, factor float64) map[T]bool {
	limit := factor * costs[o.def]
	set := make(map[T]bool, len(costs))
	for t, c := range costs {
		if c < limit {
			set[t] = true
		}
	}
	return set
}

// Stats holds optimizer statistics.
type Stats struct {
	ID           string              `json:"id"`
	Domain       string              `json:"domain"`
	State        string              `json:"state"`
	Default      string              `json:"default"`
	Threshold    int                 `json:"threshold"`
	Window       monitor.WindowStats `json:"window"`
	Ticks        int64               `json:"ticks"`
	Analyses     int64               `json:"analyses"`
	Switches     int64               `json:"switches"`
	Failures     int64               `json:"failures"`
	LastChampion string              `json:"last_champion,omitempty"`
	LastDecision time.Time           `json:"last_decision,omitempty"`
}

// Stats returns current optimizer statistics.
func (o *Optimizer[T]) Stats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := Stats{
		ID:           o.id,
		Domain:       o.Domain(),
		State:        o.State().String(),
		Default:      o.def.String(),
		Threshold:    o.threshold,
		Window:       o.window.Stats(),
		Ticks:        o.ticks,
		Analyses:     o.analyses,
		Switches:     o.switches,
		Failures:     o.failures,
		LastDecision: o.lastDecision,
	}
	if o.lastChampion != nil {
		stats.LastChampion = (*o.lastChampion).String()
	}
	return stats
}
