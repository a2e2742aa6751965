package optimizer

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskel/collswitch/internal/collection"
	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/decision/model"
	"github.com/haskel/collswitch/internal/monitor"
)

type holder struct {
	mu      sync.Mutex
	current collection.ListType
	updates int
}

func (h *holder) CurrentType() collection.ListType {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *holder) UpdateCollectionType(t collection.ListType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = t
	h.updates++
}

type recordingObserver struct {
	mu        sync.Mutex
	ticks     int
	analyzed  int
	decisions []string
	failures  int
}

func (r *recordingObserver) ObserveTick(_, _ string, analyzed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	if analyzed {
		r.analyzed++
	}
}

func (r *recordingObserver) ObserveDecision(_, _, champion string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, champion)
}

func (r *recordingObserver) ObserveFailure(_, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

// perRead returns a cost proportional to the number of indexed reads.
func perRead(c float64) model.CostFunc {
	return func(s monitor.Snapshot) float64 { return c * float64(s.IndexedReads) }
}

// perRecord returns a fixed cost per record.
func perRecord(c float64) model.CostFunc {
	return func(monitor.Snapshot) float64 { return c }
}

func newEvaluator(timeCosts, allocCosts map[collection.ListType]model.CostFunc) *model.Evaluator[collection.ListType] {
	e := model.NewEvaluator(model.ListDomain())
	e.AddModel(model.NewModel(decision.DimensionTime, timeCosts))
	e.AddModel(model.NewModel(decision.DimensionAllocation, allocCosts))
	return e
}

// randomAccessEvaluator makes the array list clearly cheaper in time, and
// allocArray sets its per-record allocation cost against a default of 10.
func randomAccessEvaluator(allocArray float64) *model.Evaluator[collection.ListType] {
	return newEvaluator(
		map[collection.ListType]model.CostFunc{
			collection.ListArray:     perRead(1),
			collection.ListLinked:    perRead(10),
			collection.ListHashArray: perRead(5),
		},
		map[collection.ListType]model.CostFunc{
			collection.ListArray:     perRecord(allocArray),
			collection.ListLinked:    perRecord(10),
			collection.ListHashArray: perRecord(20),
		},
	)
}

func newOptimizer(t *testing.T, e *model.Evaluator[collection.ListType], windowSize int, ratio float64) (*Optimizer[collection.ListType], *holder) {
	t.Helper()
	o, err := New(Config[collection.ListType]{
		ID:            "test",
		Evaluator:     e,
		Goal:          decision.DefaultGoal(),
		Default:       collection.ListLinked,
		WindowSize:    windowSize,
		FinishedRatio: ratio,
	})
	require.NoError(t, err)

	h := &holder{current: collection.ListLinked}
	o.SetTarget(h)
	return o, h
}

// addReadHeavy adds a finished record with many indexed reads and no
// inserts or removes.
func addReadHeavy(t *testing.T, w *monitor.Window) {
	t.Helper()
	m := monitor.NewMetrics(func() bool { return true })
	for range 50 {
		m.Record(monitor.OpIndexedRead, 100)
	}
	m.Finish(100)
	require.True(t, w.Add(m))
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		size  int
		ratio float64
		want  int
	}{
		{4, 0.8, 3},
		{10, 0.8, 8},
		{10, 1, 10},
		{1, 0.5, 1},
		{3, 0.1, 1},
	}

	for _, tt := range tests {
		if got := Threshold(tt.size, tt.ratio); got != tt.want {
			t.Errorf("Threshold(%d, %v) = %d, want %d", tt.size, tt.ratio, got, tt.want)
		}
	}
}

func TestOptimizer_SwitchesToRandomAccessType(t *testing.T) {
	o, h := newOptimizer(t, randomAccessEvaluator(1), 4, 0.8)
	require.Equal(t, 3, o.Threshold())

	addReadHeavy(t, o.Window())
	addReadHeavy(t, o.Window())

	// below threshold: no transition
	o.AnalyzeAndOptimize()
	assert.Equal(t, collection.ListLinked, h.CurrentType())
	assert.Equal(t, 0, h.updates)
	assert.Equal(t, 2, o.Window().Len())

	addReadHeavy(t, o.Window())
	o.AnalyzeAndOptimize()

	assert.Equal(t, collection.ListArray, h.CurrentType())
	assert.Equal(t, 0, o.Window().Len())
	assert.Equal(t, StateAccumulating, o.State())

	stats := o.Stats()
	assert.Equal(t, int64(2), stats.Ticks)
	assert.Equal(t, int64(1), stats.Analyses)
	assert.Equal(t, int64(1), stats.Switches)
	assert.Equal(t, "array", stats.LastChampion)
	assert.False(t, stats.LastDecision.IsZero())
}

func TestOptimizer_MinorPenaltyKeepsDefault(t *testing.T) {
	// 8 is cheaper than the default's 10 but not below 0.7 * 10.
	o, h := newOptimizer(t, randomAccessEvaluator(8), 4, 0.8)

	for range 3 {
		addReadHeavy(t, o.Window())
	}
	o.AnalyzeAndOptimize()

	assert.Equal(t, collection.ListLinked, h.CurrentType())
	assert.Equal(t, 1, h.updates, "champion is written even when unchanged")
	assert.Equal(t, 0, o.Window().Len())
	assert.Equal(t, int64(0), o.Stats().Switches)
}

func TestOptimizer_EmptyWindowsAreIdempotent(t *testing.T) {
	o, h := newOptimizer(t, randomAccessEvaluator(1), 4, 0.8)
	for range 3 {
		addReadHeavy(t, o.Window())
	}
	o.AnalyzeAndOptimize()
	require.Equal(t, collection.ListArray, h.CurrentType())
	updates := h.updates

	o.AnalyzeAndOptimize()
	o.AnalyzeAndOptimize()

	assert.Equal(t, collection.ListArray, h.CurrentType())
	assert.Equal(t, updates, h.updates)
	assert.Equal(t, int64(1), o.Stats().Analyses)
}

func TestOptimizer_UnfinishedRecordsDoNotTrigger(t *testing.T) {
	o, h := newOptimizer(t, randomAccessEvaluator(1), 4, 0.8)

	for range 4 {
		m := monitor.NewMetrics(func() bool { return true })
		m.Record(monitor.OpIndexedRead, 10)
		require.True(t, o.Window().Add(m))
	}
	o.AnalyzeAndOptimize()

	assert.Equal(t, collection.ListLinked, h.CurrentType())
	assert.Equal(t, 4, o.Window().Len())
}

func TestOptimizer_UnfinishedRecordsAreAggregated(t *testing.T) {
	o, h := newOptimizer(t, randomAccessEvaluator(1), 4, 0.5)

	addReadHeavy(t, o.Window())
	addReadHeavy(t, o.Window())
	active := monitor.NewMetrics(func() bool { return true })
	active.Record(monitor.OpInsert, 1)
	require.True(t, o.Window().Add(active))

	o.AnalyzeAndOptimize()
	assert.Equal(t, collection.ListArray, h.CurrentType())
	assert.Equal(t, 0, o.Window().Len())

	// the drained record keeps counting without reaching the window
	active.Record(monitor.OpInsert, 2)
	assert.Equal(t, uint64(2), active.Snapshot().Inserts)
}

func TestOptimizer_Decide(t *testing.T) {
	equal := map[collection.ListType]model.CostFunc{
		collection.ListArray:     perRecord(5),
		collection.ListLinked:    perRecord(5),
		collection.ListHashArray: perRecord(5),
	}
	records := []monitor.Snapshot{{Finished: true}}

	tests := []struct {
		name string
		goal decision.Goal
		want collection.ListType
	}{
		{
			// equal minor costs fail the 0.7 cap
			name: "equal costs with default goal",
			goal: decision.DefaultGoal(),
			want: collection.ListLinked,
		},
		{
			// everyone eligible, first candidate wins the tie
			name: "equal costs with loose factors",
			goal: decision.Goal{Major: decision.DimensionTime, Minor: decision.DimensionAllocation, MinImprovement: 1.2, MaxPenalty: 1.5},
			want: collection.ListArray,
		},
		{
			// strict comparison excludes equal cost at factor 1
			name: "equal costs with factor one",
			goal: decision.Goal{Major: decision.DimensionTime, Minor: decision.DimensionAllocation, MinImprovement: 1, MaxPenalty: 1.5},
			want: collection.ListLinked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(Config[collection.ListType]{
				ID:            "decide",
				Evaluator:     newEvaluator(equal, equal),
				Goal:          tt.goal,
				Default:       collection.ListLinked,
				WindowSize:    4,
				FinishedRatio: 0.8,
			})
			require.NoError(t, err)

			got, err := o.Decide(records)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptimizer_MinorDimensionIsUsed(t *testing.T) {
	// Major prefers hash_array, but only array clears the minor cap.
	e := newEvaluator(
		map[collection.ListType]model.CostFunc{
			collection.ListArray:     perRecord(8),
			collection.ListLinked:    perRecord(10),
			collection.ListHashArray: perRecord(2),
		},
		map[collection.ListType]model.CostFunc{
			collection.ListArray:     perRecord(1),
			collection.ListLinked:    perRecord(10),
			collection.ListHashArray: perRecord(9),
		},
	)
	o, _ := newOptimizer(t, e, 4, 0.8)

	got, err := o.Decide([]monitor.Snapshot{{}})
	require.NoError(t, err)
	assert.Equal(t, collection.ListArray, got)
}

func TestOptimizer_SwappedGoalDimensions(t *testing.T) {
	e := newEvaluator(
		map[collection.ListType]model.CostFunc{
			collection.ListArray:     perRecord(1),
			collection.ListLinked:    perRecord(10),
			collection.ListHashArray: perRecord(1),
		},
		map[collection.ListType]model.CostFunc{
			collection.ListArray:     perRecord(6),
			collection.ListLinked:    perRecord(10),
			collection.ListHashArray: perRecord(3),
		},
	)
	o, err := New(Config[collection.ListType]{
		ID:            "swapped",
		Evaluator:     e,
		Goal:          decision.Goal{Major: decision.DimensionAllocation, Minor: decision.DimensionTime, MinImprovement: 1.2, MaxPenalty: 0.7},
		Default:       collection.ListLinked,
		WindowSize:    4,
		FinishedRatio: 0.8,
	})
	require.NoError(t, err)

	got, err := o.Decide([]monitor.Snapshot{{}})
	require.NoError(t, err)
	assert.Equal(t, collection.ListHashArray, got)
}

func TestOptimizer_PredictionFailureLeavesTargetUntouched(t *testing.T) {
	e := randomAccessEvaluator(1)
	obs := &recordingObserver{}
	o, err := New(Config[collection.ListType]{
		ID:            "broken",
		Evaluator:     e,
		Goal:          decision.DefaultGoal(),
		Default:       collection.ListLinked,
		WindowSize:    2,
		FinishedRatio: 0.5,
		Observer:      obs,
	})
	require.NoError(t, err)
	h := &holder{current: collection.ListLinked}
	o.SetTarget(h)

	// replace a validated model with an incomplete one
	e.AddModel(model.NewModel(decision.DimensionAllocation, map[collection.ListType]model.CostFunc{
		collection.ListArray: perRecord(1),
	}))

	addReadHeavy(t, o.Window())
	o.AnalyzeAndOptimize()

	assert.Equal(t, 0, h.updates)
	assert.Equal(t, int64(1), o.Stats().Failures)
	assert.Equal(t, 1, obs.failures)
	assert.Equal(t, 0, o.Window().Len())
}

func TestOptimizer_Observer(t *testing.T) {
	obs := &recordingObserver{}
	o, err := New(Config[collection.ListType]{
		ID:            "observed",
		Evaluator:     randomAccessEvaluator(1),
		Goal:          decision.DefaultGoal(),
		Default:       collection.ListLinked,
		WindowSize:    1,
		FinishedRatio: 1,
		Observer:      obs,
	})
	require.NoError(t, err)
	o.SetTarget(&holder{current: collection.ListLinked})

	o.AnalyzeAndOptimize()
	addReadHeavy(t, o.Window())
	o.AnalyzeAndOptimize()

	assert.Equal(t, 2, obs.ticks)
	assert.Equal(t, 1, obs.analyzed)
	assert.Equal(t, []string{"array"}, obs.decisions)
}

func TestNew_ConfigurationErrors(t *testing.T) {
	incomplete := model.NewEvaluator(model.ListDomain())
	incomplete.AddModel(model.NewModel(decision.DimensionTime, map[collection.ListType]model.CostFunc{
		collection.ListArray:     perRecord(1),
		collection.ListLinked:    perRecord(1),
		collection.ListHashArray: perRecord(1),
	}))

	valid := Config[collection.ListType]{
		ID:            "cfg",
		Evaluator:     randomAccessEvaluator(1),
		Goal:          decision.DefaultGoal(),
		Default:       collection.ListLinked,
		WindowSize:    10,
		FinishedRatio: 0.8,
	}

	tests := []struct {
		name   string
		modify func(*Config[collection.ListType])
	}{
		{"nil evaluator", func(c *Config[collection.ListType]) { c.Evaluator = nil }},
		{"missing minor model", func(c *Config[collection.ListType]) { c.Evaluator = incomplete }},
		{"unknown default", func(c *Config[collection.ListType]) { c.Default = collection.ListType("ring") }},
		{"zero window", func(c *Config[collection.ListType]) { c.WindowSize = 0 }},
		{"zero ratio", func(c *Config[collection.ListType]) { c.FinishedRatio = 0 }},
		{"ratio above one", func(c *Config[collection.ListType]) { c.FinishedRatio = 1.5 }},
		{"same dimensions", func(c *Config[collection.ListType]) { c.Goal.Minor = c.Goal.Major }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, decision.ErrConfiguration), "got %v", err)
		})
	}

	_, err := New(valid)
	assert.NoError(t, err)
}

func TestOptimizer_NoTargetDropsDecision(t *testing.T) {
	o, err := New(Config[collection.ListType]{
		ID:            "unbound",
		Evaluator:     randomAccessEvaluator(1),
		Goal:          decision.DefaultGoal(),
		Default:       collection.ListLinked,
		WindowSize:    1,
		FinishedRatio: 1,
	})
	require.NoError(t, err)

	addReadHeavy(t, o.Window())
	o.AnalyzeAndOptimize()
	assert.Equal(t, 0, o.Window().Len())
	assert.Equal(t, int64(0), o.Stats().Switches)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "accumulating", StateAccumulating.String())
	assert.Equal(t, "analyzing", StateAnalyzing.String())
	assert.Equal(t, "unknown", State(7).String())
}
