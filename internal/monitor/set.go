package monitor

import (
	"cmp"
	"iter"
	"weak"

	"github.com/haskel/collswitch/internal/collection"
)

// SetMonitor wraps a set and counts every operation on it.
type SetMonitor[E cmp.Ordered] struct {
	inner   collection.Set[E]
	metrics *Metrics
}

var _ collection.Set[int] = (*SetMonitor[int])(nil)

// MonitorSet wraps s and registers its metrics record in w. When w is full
// s is returned unwrapped.
func MonitorSet[E cmp.Ordered](w *Window, s collection.Set[E]) collection.Set[E] {
	m := &SetMonitor[E]{inner: s}
	ref := weak.Make(m)
	m.metrics = NewMetrics(func() bool { return ref.Value() != nil })

	if !w.Add(m.metrics) {
		return s
	}
	return m
}

// Metrics returns the record bound to this monitor.
func (m *SetMonitor[E]) Metrics() *Metrics {
	return m.metrics
}

// Unwrap returns the monitored set.
func (m *SetMonitor[E]) Unwrap() collection.Set[E] {
	return m.inner
}

// Finish marks the set as done; later operations are not counted.
func (m *SetMonitor[E]) Finish() {
	m.metrics.Finish(m.inner.Len())
}

func (m *SetMonitor[E]) Add(v E) bool {
	ok := m.inner.Add(v)
	m.metrics.Record(OpInsert, m.inner.Len())
	return ok
}

func (m *SetMonitor[E]) Remove(v E) bool {
	ok := m.inner.Remove(v)
	m.metrics.Record(OpRemove, m.inner.Len())
	return ok
}

func (m *SetMonitor[E]) Contains(v E) bool {
	ok := m.inner.Contains(v)
	m.metrics.Record(OpContains, m.inner.Len())
	return ok
}

func (m *SetMonitor[E]) Len() int {
	return m.inner.Len()
}

func (m *SetMonitor[E]) Clear() {
	m.inner.Clear()
	m.metrics.Record(OpRemove, 0)
}

func (m *SetMonitor[E]) All() iter.Seq[E] {
	m.metrics.Record(OpIteration, m.inner.Len())
	return m.inner.All()
}
