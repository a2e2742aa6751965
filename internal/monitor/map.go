package monitor

import (
	"cmp"
	"iter"
	"weak"

	"github.com/haskel/collswitch/internal/collection"
)

// MapMonitor wraps a map and counts every operation on it.
type MapMonitor[K cmp.Ordered, V any] struct {
	inner   collection.Map[K, V]
	metrics *Metrics
}

var _ collection.Map[string, int] = (*MapMonitor[string, int])(nil)

// MonitorMap wraps mp and registers its metrics record in w. When w is full
// mp is returned unwrapped.
func MonitorMap[K cmp.Ordered, V any](w *Window, mp collection.Map[K, V]) collection.Map[K, V] {
	m := &MapMonitor[K, V]{inner: mp}
	ref := weak.Make(m)
	m.metrics = NewMetrics(func() bool { return ref.Value() != nil })

	if !w.Add(m.metrics) {
		return mp
	}
	return m
}

// Metrics returns the record bound to this monitor.
func (m *MapMonitor[K, V]) Metrics() *Metrics {
	return m.metrics
}

// Unwrap returns the monitored map.
func (m *MapMonitor[K, V]) Unwrap() collection.Map[K, V] {
	return m.inner
}

// Finish marks the map as done; later operations are not counted.
func (m *MapMonitor[K, V]) Finish() {
	m.metrics.Finish(m.inner.Len())
}

func (m *MapMonitor[K, V]) Put(k K, v V) {
	m.inner.Put(k, v)
	m.metrics.Record(OpInsert, m.inner.Len())
}

func (m *MapMonitor[K, V]) Get(k K) (V, bool) {
	v, ok := m.inner.Get(k)
	m.metrics.Record(OpContains, m.inner.Len())
	return v, ok
}

func (m *MapMonitor[K, V]) Remove(k K) bool {
	ok := m.inner.Remove(k)
	m.metrics.Record(OpRemove, m.inner.Len())
	return ok
}

func (m *MapMonitor[K, V]) ContainsKey(k K) bool {
	ok := m.inner.ContainsKey(k)
	m.metrics.Record(OpContains, m.inner.Len())
	return ok
}

func (m *MapMonitor[K, V]) Len() int {
	return m.inner.Len()
}

func (m *MapMonitor[K, V]) Clear() {
	m.inner.Clear()
	m.metrics.Record(OpRemove, 0)
}

func (m *MapMonitor[K, V]) All() iter.Seq2[K, V] {
	m.metrics.Record(OpIteration, m.inner.Len())
	return m.inner.All()
}
