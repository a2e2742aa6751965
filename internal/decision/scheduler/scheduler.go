package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/haskel/collswitch/internal/logger"
)

// ErrDuplicateTask is returned when a task with the same ID is registered twice.
var ErrDuplicateTask = errors.New("task already registered")

const queueSize = 256

// Task is a periodically analyzed unit, typically one optimizer.
type Task interface {
	ID() string
	AnalyzeAndOptimize()
}

type entry struct {
	task     Task
	worker   int
	inflight atomic.Bool
}

// Manager ticks every registered task on a fixed worker pool. A task is
// always dispatched to the same worker, so it never runs concurrently with
// itself; a tick that finds the task still pending is skipped.
type Manager struct {
	workers      int
	initialDelay time.Duration
	period       time.Duration
	logger       *slog.Logger

	mu      sync.RWMutex
	entries []*entry
	ids     map[string]struct{}
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	queues  []chan *entry

	// Stats
	ticks      atomic.Int64
	dispatched atomic.Int64
	skipped    atomic.Int64
	completed  atomic.Int64
	panics     atomic.Int64
	lastTick   atomic.Int64
}

// Config holds scheduler configuration.
type Config struct {
	Workers      int
	InitialDelay time.Duration
	Period       time.Duration
	Logger       *slog.Logger
}

// NewManager creates a new scheduler.
func NewManager(cfg Config) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	period := cfg.Period
	if period <= 0 {
		period = time.Second
	}
	initialDelay := cfg.InitialDelay
	if initialDelay < 0 {
		initialDelay = 0
	}

	return &Manager{
		workers:      workers,
		initialDelay: initialDelay,
		period:       period,
		logger:       logger.Component(cfg.Logger, "scheduler"),
		ids:          make(map[string]struct{}),
	}
}

// Register adds a task. Tasks may be registered before or after Start.
func (m *Manager) Register(t Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := t.ID()
	if _, ok := m.ids[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, id)
	}
	m.ids[id] = struct{}{}
	m.entries = append(m.entries, &entry{
		task:   t,
		worker: m.workerFor(id),
	})
	m.logger.Debug("task registered", "task", id, "tasks", len(m.entries))
	return nil
}

func (m *Manager) workerFor(id string) int {
	return int(xxhash.Sum64String(id) % uint64(m.workers))
}

// Start begins the scheduler loop and the worker pool.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil // Already running
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.queues = make([]chan *entry, m.workers)
	for i := range m.queues {
		m.queues[i] = make(chan *entry, queueSize)
	}
	stopCh, doneCh, queues := m.stopCh, m.doneCh, m.queues
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for i := range queues {
		g.Go(func() error {
			m.work(gctx, stopCh, queues[i])
			return nil
		})
	}
	g.Go(func() error {
		m.run(gctx, stopCh)
		return nil
	})

	go func() {
		_ = g.Wait()
		m.release(queues)
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		close(doneCh)
	}()

	m.logger.Info("scheduler started",
		"workers", m.workers,
		"initial_delay", m.initialDelay,
		"period", m.period,
	)
	return nil
}

// Stop stops the scheduler and waits for in-flight tasks to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopCh == nil {
		m.mu.Unlock()
		return
	}
	stopCh, doneCh := m.stopCh, m.doneCh
	m.stopCh = nil
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
	m.logger.Info("scheduler stopped")
}

// run is the main scheduler loop.
func (m *Manager) run(ctx context.Context, stopCh <-chan struct{}) {
	if m.initialDelay > 0 {
		timer := time.NewTimer(m.initialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	m.tick()

	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick dispatches every registered task to its worker.
func (m *Manager) tick() {
	m.ticks.Add(1)
	m.lastTick.Store(time.Now().UnixNano())

	m.mu.RLock()
	entries := m.entries
	queues := m.queues
	m.mu.RUnlock()

	for _, e := range entries {
		if !e.inflight.CompareAndSwap(false, true) {
			m.skipped.Add(1)
			m.logger.Debug("task still pending, tick skipped", "task", e.task.ID())
			continue
		}

		select {
		case queues[e.worker] <- e:
			m.dispatched.Add(1)
		default:
			e.inflight.Store(false)
			m.skipped.Add(1)
			m.logger.Warn("worker queue full, tick skipped", "task", e.task.ID(), "worker", e.worker)
		}
	}
}

// release clears the pending flag of entries left queued when the workers
// exited, so the next Start dispatches them again.
func (m *Manager) release(queues []chan *entry) {
	for _, q := range queues {
		for {
			select {
			case e := <-q:
				e.inflight.Store(false)
				m.logger.Debug("queued task dropped on stop", "task", e.task.ID())
				continue
			default:
			}
			break
		}
	}
}

// work runs tasks from one worker queue until stopped.
func (m *Manager) work(ctx context.Context, stopCh <-chan struct{}, queue <-chan *entry) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case e := <-queue:
			m.execute(e)
		}
	}
}

func (m *Manager) execute(e *entry) {
	defer e.inflight.Store(false)
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			m.logger.Error("task panicked", "task", e.task.ID(), "panic", r)
		}
	}()

	e.task.AnalyzeAndOptimize()
	m.completed.Add(1)
}

// Stats holds scheduler statistics.
type Stats struct {
	Running      bool      `json:"running"`
	Workers      int       `json:"workers"`
	InitialDelay string    `json:"initial_delay"`
	Period       string    `json:"period"`
	Tasks        int       `json:"tasks"`
	Ticks        int64     `json:"ticks"`
	Dispatched   int64     `json:"dispatched"`
	Skipped      int64     `json:"skipped"`
	Completed    int64     `json:"completed"`
	Panics       int64     `json:"panics"`
	LastTick     time.Time `json:"last_tick,omitempty"`
}

// Stats returns current scheduler statistics.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Running:      m.running,
		Workers:      m.workers,
		InitialDelay: m.initialDelay.String(),
		Period:       m.period.String(),
		Tasks:        len(m.entries),
		Ticks:        m.ticks.Load(),
		Dispatched:   m.dispatched.Load(),
		Skipped:      m.skipped.Load(),
		Completed:    m.completed.Load(),
		Panics:       m.panics.Load(),
	}
	if ns := m.lastTick.Load(); ns != 0 {
		stats.LastTick = time.Unix(0, ns)
	}
	return stats
}

// IsRunning returns whether the scheduler is running.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
