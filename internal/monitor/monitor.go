// Package monitor records per-instance usage of monitored containers and
// batches the records into a bounded window for the optimizer.
package monitor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Op is a category of container operation.
type Op int

const (
	OpInsert Op = iota
	OpRemove
	OpIndexedRead
	OpIteration
	OpContains

	numOps
)

var opNames = [numOps]string{"insert", "remove", "indexed_read", "iteration", "contains"}

// String returns string representation.
func (o Op) String() string {
	if o < 0 || o >= numOps {
		return "unknown"
	}
	return opNames[o]
}

// Ops returns every operation category.
func Ops() []Op {
	return []Op{OpInsert, OpRemove, OpIndexedRead, OpIteration, OpContains}
}

// Snapshot is a read-only copy of a metrics record.
type Snapshot struct {
	Inserts      uint64 `json:"inserts" yaml:"inserts"`
	Removes      uint64 `json:"removes" yaml:"removes"`
	IndexedReads uint64 `json:"indexed_reads" yaml:"indexed_reads"`
	Iterations   uint64 `json:"iterations" yaml:"iterations"`
	Contains     uint64 `json:"contains" yaml:"contains"`
	Size         int    `json:"size" yaml:"size"`
	Finished     bool   `json:"finished" yaml:"finished"`
}

// Count returns the counter for op.
func (s Snapshot) Count(op Op) uint64 {
	switch op {
	case OpInsert:
		return s.Inserts
	case OpRemove:
		return s.Removes
	case OpIndexedRead:
		return s.IndexedReads
	case OpIteration:
		return s.Iterations
	case OpContains:
		return s.Contains
	default:
		return 0
	}
}

// Total returns the sum of all counters.
func (s Snapshot) Total() uint64 {
	return s.Inserts + s.Removes + s.IndexedReads + s.Iterations + s.Contains
}

// Metrics is the usage record of one monitored instance.
//
// Counters only grow while the instance is active and are frozen once it
// finishes. The record never references the instance itself; alive is a
// probe built on a weak pointer so the record cannot extend its lifetime.
type Metrics struct {
	// mu orders Record against Finish so no op lands after the freeze.
	mu        sync.Mutex
	counters  [numOps]atomic.Uint64
	size      atomic.Int64
	finished  atomic.Bool
	alive     func() bool
	createdAt time.Time
}

// NewMetrics creates a record. alive may be nil, in which case only an
// explicit Finish ends the record.
func NewMetrics(alive func() bool) *Metrics {
	return &Metrics{
		alive:     alive,
		createdAt: time.Now(),
	}
}

// Record counts one op and stores the instance size after it.
func (m *Metrics) Record(op Op, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished.Load() {
		return
	}
	m.counters[op].Add(1)
	m.size.Store(int64(size))
}

// Finish marks the instance as no longer active.
func (m *Metrics) Finish(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished.Load() {
		return
	}
	m.size.Store(int64(size))
	m.finished.Store(true)
}

// Finished reports whether the instance was finished explicitly or is no
// longer reachable.
func (m *Metrics) Finished() bool {
	if m.finished.Load() {
		return true
	}
	if m.alive != nil && !m.alive() {
		m.finished.Store(true)
		return true
	}
	return false
}

// Age returns the time since the record was created.
func (m *Metrics) Age() time.Duration {
	return time.Since(m.createdAt)
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Inserts:      m.counters[OpInsert].Load(),
		Removes:      m.counters[OpRemove].Load(),
		IndexedReads: m.counters[OpIndexedRead].Load(),
		Iterations:   m.counters[OpIteration].Load(),
		Contains:     m.counters[OpContains].Load(),
		Size:         int(m.size.Load()),
		Finished:     m.Finished(),
	}
}
