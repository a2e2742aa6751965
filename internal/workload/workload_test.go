package workload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskel/collswitch/internal/allocation"
	"github.com/haskel/collswitch/internal/collection"
	"github.com/haskel/collswitch/internal/logger"
)

func newFactory(t *testing.T) *allocation.Factory {
	t.Helper()
	cfg := allocation.DefaultConfig()
	cfg.WindowSize = 4
	cfg.InitialDelay = 0
	cfg.Period = 10 * time.Millisecond
	f := allocation.NewFactory(cfg, allocation.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestParsePattern(t *testing.T) {
	for _, p := range Patterns() {
		got, err := ParsePattern(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePattern("list_random")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list_read_heavy")
}

func TestPatternDomain(t *testing.T) {
	tests := []struct {
		pattern Pattern
		domain  string
	}{
		{ListReadHeavy, "list"},
		{ListQueue, "list"},
		{ListMembership, "list"},
		{SetMembership, "set"},
		{SetOrdered, "set"},
		{MapLookup, "map"},
		{MapIteration, "map"},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			assert.Equal(t, tt.domain, tt.pattern.Domain())
		})
	}
}

func TestPatternDefaultsAreValid(t *testing.T) {
	for _, p := range Patterns() {
		assert.True(t, p.ListDefault().IsValid())
		assert.True(t, p.SetDefault().IsValid())
		assert.True(t, p.MapDefault().IsValid())
	}
}

func TestDriveList(t *testing.T) {
	l, err := collection.NewList[int](collection.ListArray)
	require.NoError(t, err)
	require.NoError(t, driveList(ListReadHeavy, l, 10))
	assert.Equal(t, 10, l.Len())

	q, err := collection.NewList[int](collection.ListLinked)
	require.NoError(t, err)
	require.NoError(t, driveList(ListQueue, q, 10))
	assert.Equal(t, 0, q.Len())
}

func TestDriveSetAndMap(t *testing.T) {
	s, err := collection.NewSet[int](collection.SetHash)
	require.NoError(t, err)
	driveSet(SetMembership, s, 10)
	assert.Equal(t, 10, s.Len())

	m, err := collection.NewMap[int, int](collection.MapTree)
	require.NoError(t, err)
	driveMap(MapLookup, m, 10)
	assert.Equal(t, 10, m.Len())
	v, ok := m.Get(3)
	assert.True(t, ok)
	assert.Equal(t, 9, v)
}

func TestRunner_ReadHeavyListSwitchesToArray(t *testing.T) {
	f := newFactory(t)
	r, err := NewRunner(f, Config{
		Instances:     3,
		Elements:      100,
		SettleTimeout: 2 * time.Second,
	}, nil, logger.Discard())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), ListReadHeavy)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, "workload/list_read_heavy", res.Context)
	assert.Equal(t, "list", res.Domain)
	assert.Equal(t, "linked", res.Initial)
	assert.Equal(t, "array", res.Final)
	assert.Equal(t, 3, res.Instances)
	assert.True(t, res.Settled)
	assert.Equal(t, int64(1), res.Switches)
	assert.Equal(t, 1, report.Switched())
	assert.Nil(t, report.Before)
}

func TestRunner_AllPatterns(t *testing.T) {
	f := newFactory(t)
	r, err := NewRunner(f, Config{
		Instances:     4,
		Elements:      20,
		RatePerSec:    10000,
		Burst:         10,
		SettleTimeout: 2 * time.Second,
	}, nil, logger.Discard())
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, len(Patterns()))

	for _, res := range report.Results {
		assert.Equal(t, 4, res.Instances, res.Pattern)
		assert.NotEmpty(t, res.Final, res.Pattern)
	}
	assert.Len(t, f.Contexts(), len(Patterns()))
}

func TestRunner_Canceled(t *testing.T) {
	f := newFactory(t)
	r, err := NewRunner(f, Config{
		Instances:  100,
		Elements:   10,
		RatePerSec: 1,
		Burst:      1,
	}, nil, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx, SetOrdered)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_DuplicatePattern(t *testing.T) {
	f := newFactory(t)
	r, err := NewRunner(f, Config{Instances: 1, Elements: 1}, nil, logger.Discard())
	require.NoError(t, err)

	_, err = r.Run(context.Background(), MapLookup, MapLookup)
	require.Error(t, err)
	assert.ErrorIs(t, err, allocation.ErrDuplicateContext)
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	f := newFactory(t)

	_, err := NewRunner(nil, Config{Instances: 1, Elements: 1}, nil, nil)
	assert.Error(t, err)

	_, err = NewRunner(f, Config{Instances: 0, Elements: 1}, nil, nil)
	assert.Error(t, err)

	_, err = NewRunner(f, Config{Instances: 1, Elements: 0}, nil, nil)
	assert.Error(t, err)
}

func TestProbe_Sample(t *testing.T) {
	probe, err := NewProbe()
	require.NoError(t, err)

	s, err := probe.Sample(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, s.RSSBytes)
	assert.False(t, s.Time.IsZero())
}

func TestRunner_WithProbe(t *testing.T) {
	probe, err := NewProbe()
	require.NoError(t, err)

	f := newFactory(t)
	r, err := NewRunner(f, Config{Instances: 2, Elements: 10}, probe, logger.Discard())
	require.NoError(t, err)

	report, err := r.Run(context.Background(), SetMembership)
	require.NoError(t, err)
	require.NotNil(t, report.Before)
	require.NotNil(t, report.After)
	assert.NotZero(t, report.After.RSSBytes)
}

func TestRunner_LoopUntilCanceled(t *testing.T) {
	f := newFactory(t)
	r, err := NewRunner(f, Config{Instances: 1, Elements: 100}, nil, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Loop(ctx, ListReadHeavy, MapLookup)
	}()

	require.Eventually(t, func() bool {
		for _, c := range f.Contexts() {
			if c.ID == "workload/list_read_heavy" && c.Current == "array" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Len(t, f.Contexts(), 2)
}
