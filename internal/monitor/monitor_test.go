package monitor

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskel/collswitch/internal/collection"
)

func newList(t *testing.T, lt collection.ListType) collection.List[int] {
	t.Helper()
	l, err := collection.NewList[int](lt)
	require.NoError(t, err)
	return l
}

func TestListMonitor_CountsEveryOperation(t *testing.T) {
	w := NewWindow(4)
	l := MonitorList(w, newList(t, collection.ListArray))
	mon, ok := l.(*ListMonitor[int])
	require.True(t, ok, "expected a monitor while the window has room")

	for i := 0; i < 5; i++ {
		l.Add(i)
	}
	require.NoError(t, l.Insert(0, 42))
	for i := 0; i < 7; i++ {
		_, _ = l.Get(i % l.Len())
	}
	_, _ = l.Set(0, 1)
	_ = l.Contains(3)
	_ = l.IndexOf(4)
	_, _ = l.RemoveAt(0)
	_ = l.Remove(4)
	for range l.All() {
	}
	_ = l.Len()

	snap := mon.Metrics().Snapshot()
	assert.Equal(t, uint64(6), snap.Inserts)
	assert.Equal(t, uint64(8), snap.IndexedReads)
	assert.Equal(t, uint64(2), snap.Contains)
	assert.Equal(t, uint64(2), snap.Removes)
	assert.Equal(t, uint64(1), snap.Iterations)
	assert.Equal(t, 4, snap.Size)
	assert.False(t, snap.Finished)
}

func TestListMonitor_PassesErrorsThrough(t *testing.T) {
	w := NewWindow(1)
	l := MonitorList(w, newList(t, collection.ListLinked))

	_, err := l.Get(3)
	assert.True(t, errors.Is(err, collection.ErrIndexOutOfRange))
	_, err = l.RemoveAt(0)
	assert.True(t, errors.Is(err, collection.ErrIndexOutOfRange))

	snap := l.(*ListMonitor[int]).Metrics().Snapshot()
	assert.Equal(t, uint64(1), snap.IndexedReads)
	assert.Equal(t, uint64(1), snap.Removes)
}

func TestListMonitor_FinishFreezesCounters(t *testing.T) {
	w := NewWindow(1)
	l := MonitorList(w, newList(t, collection.ListArray))
	mon := l.(*ListMonitor[int])

	l.Add(1)
	l.Add(2)
	mon.Finish()
	l.Add(3)
	_, _ = l.Get(0)

	snap := mon.Metrics().Snapshot()
	assert.True(t, snap.Finished)
	assert.Equal(t, uint64(2), snap.Inserts)
	assert.Equal(t, uint64(0), snap.IndexedReads)
	assert.Equal(t, 2, snap.Size)
	assert.Equal(t, 3, l.Len(), "finishing must not affect the list itself")
}

func TestMonitorList_WindowFullReturnsPlainList(t *testing.T) {
	w := NewWindow(1)
	first := MonitorList(w, newList(t, collection.ListArray))
	second := MonitorList(w, newList(t, collection.ListArray))

	_, ok := first.(*ListMonitor[int])
	assert.True(t, ok)
	_, ok = second.(*ListMonitor[int])
	assert.False(t, ok)
	assert.Equal(t, 1, w.Len())
}

func TestMonitor_UnreachableInstanceIsFinished(t *testing.T) {
	w := NewWindow(2)

	func() {
		l := MonitorList(w, newList(t, collection.ListArray))
		l.Add(1)
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return w.FinishedCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	snaps, ok := w.Drain(1)
	require.True(t, ok)
	require.Len(t, snaps, 1)
	assert.Equal(t, uint64(1), snaps[0].Inserts)
	assert.Equal(t, 1, snaps[0].Size)
}

func TestSetMonitor_Counts(t *testing.T) {
	w := NewWindow(1)
	inner, err := collection.NewSet[string](collection.SetTree)
	require.NoError(t, err)
	s := MonitorSet(w, inner)
	mon := s.(*SetMonitor[string])

	s.Add("a")
	s.Add("b")
	s.Add("a")
	s.Contains("a")
	s.Remove("b")
	for range s.All() {
	}
	s.Clear()
	mon.Finish()

	snap := mon.Metrics().Snapshot()
	assert.Equal(t, uint64(3), snap.Inserts)
	assert.Equal(t, uint64(1), snap.Contains)
	assert.Equal(t, uint64(2), snap.Removes)
	assert.Equal(t, uint64(1), snap.Iterations)
	assert.Equal(t, 0, snap.Size)
	assert.True(t, snap.Finished)
}

func TestMapMonitor_Counts(t *testing.T) {
	w := NewWindow(1)
	inner, err := collection.NewMap[int, string](collection.MapHash)
	require.NoError(t, err)
	m := MonitorMap(w, inner)
	mon := m.(*MapMonitor[int, string])

	m.Put(1, "one")
	m.Put(2, "two")
	v, ok := m.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "one", v)
	m.ContainsKey(3)
	m.Remove(2)
	for range m.All() {
	}

	snap := mon.Metrics().Snapshot()
	assert.Equal(t, uint64(2), snap.Inserts)
	assert.Equal(t, uint64(2), snap.Contains)
	assert.Equal(t, uint64(1), snap.Removes)
	assert.Equal(t, uint64(1), snap.Iterations)
	assert.Equal(t, 1, snap.Size)
}

func TestWindow_DrainRespectsThreshold(t *testing.T) {
	w := NewWindow(4)
	records := make([]*Metrics, 4)
	for i := range records {
		records[i] = NewMetrics(nil)
		require.True(t, w.Add(records[i]))
	}
	assert.False(t, w.Add(NewMetrics(nil)), "window must stay bounded")

	records[0].Finish(0)
	records[1].Finish(0)

	_, ok := w.Drain(3)
	assert.False(t, ok)
	assert.Equal(t, 4, w.Len())

	records[2].Finish(0)
	snaps, ok := w.Drain(3)
	require.True(t, ok)
	assert.Len(t, snaps, 4)
	assert.Equal(t, 0, w.Len())

	stats := w.Stats()
	assert.Equal(t, WindowStats{Capacity: 4}, stats)
}

func TestWindow_ConcurrentRecordingAndDraining(t *testing.T) {
	const (
		writers = 8
		opsEach = 500
	)

	w := NewWindow(writers)
	var wg sync.WaitGroup
	monitors := make([]*ListMonitor[int], writers)

	for i := 0; i < writers; i++ {
		l := MonitorList(w, newList(t, collection.ListArray))
		monitors[i] = l.(*ListMonitor[int])
	}

	stop := make(chan struct{})
	drained := make(chan []Snapshot, 1)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				if snaps, ok := w.Drain(writers); ok {
					drained <- snaps
					return
				}
			}
		}
	}()

	for _, mon := range monitors {
		wg.Add(1)
		go func(m *ListMonitor[int]) {
			defer wg.Done()
			for j := 0; j < opsEach; j++ {
				m.Add(j)
			}
			m.Finish()
		}(mon)
	}
	wg.Wait()

	select {
	case snaps := <-drained:
		require.Len(t, snaps, writers)
		for _, s := range snaps {
			assert.Equal(t, uint64(opsEach), s.Inserts)
			assert.True(t, s.Finished)
		}
	case <-time.After(2 * time.Second):
		close(stop)
		t.Fatal("window was never drained")
	}
}

func TestMetrics_NoOpCountedAfterFinish(t *testing.T) {
	for range 50 {
		m := NewMetrics(nil)

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 200 {
					m.Record(OpIndexedRead, j)
				}
			}()
		}

		m.Finish(7)
		frozen := m.Snapshot()
		wg.Wait()

		assert.Equal(t, frozen, m.Snapshot())
		assert.Equal(t, 7, frozen.Size)
		assert.True(t, frozen.Finished)
	}
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "insert", OpInsert.String())
	assert.Equal(t, "contains", OpContains.String())
	assert.Equal(t, "unknown", Op(99).String())
	assert.Len(t, Ops(), 5)
}
