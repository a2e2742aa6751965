package monitor

import (
	"iter"
	"weak"

	"github.com/haskel/collswitch/internal/collection"
)

// ListMonitor wraps a list and counts every operation on it.
type ListMonitor[E comparable] struct {
	inner   collection.List[E]
	metrics *Metrics
}

var _ collection.List[int] = (*ListMonitor[int])(nil)

// MonitorList wraps l and registers its metrics record in w. When w is full
// l is returned unwrapped.
func MonitorList[E comparable](w *Window, l collection.List[E]) collection.List[E] {
	m := &ListMonitor[E]{inner: l}
	ref := weak.Make(m)
	m.metrics = NewMetrics(func() bool { return ref.Value() != nil })

	if !w.Add(m.metrics) {
		return l
	}
	return m
}

// Metrics returns the record bound to this monitor.
func (m *ListMonitor[E]) Metrics() *Metrics {
	return m.metrics
}

// Unwrap returns the monitored list.
func (m *ListMonitor[E]) Unwrap() collection.List[E] {
	return m.inner
}

// Finish marks the list as done; later operations are not counted.
func (m *ListMonitor[E]) Finish() {
	m.metrics.Finish(m.inner.Len())
}

func (m *ListMonitor[E]) Add(v E) {
	m.inner.Add(v)
	m.metrics.Record(OpInsert, m.inner.Len())
}

func (m *ListMonitor[E]) Insert(index int, v E) error {
	err := m.inner.Insert(index, v)
	m.metrics.Record(OpInsert, m.inner.Len())
	return err
}

func (m *ListMonitor[E]) Get(index int) (E, error) {
	v, err := m.inner.Get(index)
	m.metrics.Record(OpIndexedRead, m.inner.Len())
	return v, err
}

func (m *ListMonitor[E]) Set(index int, v E) (E, error) {
	prev, err := m.inner.Set(index, v)
	m.metrics.Record(OpIndexedRead, m.inner.Len())
	return prev, err
}

func (m *ListMonitor[E]) RemoveAt(index int) (E, error) {
	v, err := m.inner.RemoveAt(index)
	m.metrics.Record(OpRemove, m.inner.Len())
	return v, err
}

func (m *ListMonitor[E]) Remove(v E) bool {
	ok := m.inner.Remove(v)
	m.metrics.Record(OpRemove, m.inner.Len())
	return ok
}

func (m *ListMonitor[E]) Contains(v E) bool {
	ok := m.inner.Contains(v)
	m.metrics.Record(OpContains, m.inner.Len())
	return ok
}

func (m *ListMonitor[E]) IndexOf(v E) int {
	i := m.inner.IndexOf(v)
	m.metrics.Record(OpContains, m.inner.Len())
	return i
}

func (m *ListMonitor[E]) Len() int {
	return m.inner.Len()
}

func (m *ListMonitor[E]) Clear() {
	m.inner.Clear()
	m.metrics.Record(OpRemove, 0)
}

func (m *ListMonitor[E]) All() iter.Seq[E] {
	m.metrics.Record(OpIteration, m.inner.Len())
	return m.inner.All()
}
