// Package model holds the empirical performance models used to predict the
// cost of running an observed workload on each candidate implementation.
// Models are precomputed and read-only; nothing here learns at run time.
package model

import (
	"cmp"
	"maps"
	"slices"

	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/monitor"
)

// CostFunc predicts the cost of the workload recorded in a snapshot.
// Implementations must be pure and deterministic.
type CostFunc func(monitor.Snapshot) float64

// Model maps every candidate of a domain to its cost function along one
// performance dimension.
type Model[T decision.Candidate] struct {
	dimension decision.Dimension
	costs     map[T]CostFunc
}

// NewModel creates a model. The costs map is copied.
func NewModel[T decision.Candidate](dim decision.Dimension, costs map[T]CostFunc) *Model[T] {
	return &Model[T]{
		dimension: dim,
		costs:     maps.Clone(costs),
	}
}

// Dimension returns the dimension the model predicts along.
func (m *Model[T]) Dimension() decision.Dimension {
	return m.dimension
}

// Cost returns the cost function registered for t.
func (m *Model[T]) Cost(t T) (CostFunc, bool) {
	f, ok := m.costs[t]
	return f, ok
}

// Candidates returns the candidates the model covers, sorted by name.
func (m *Model[T]) Candidates() []T {
	keys := slices.Collect(maps.Keys(m.costs))
	slices.SortFunc(keys, func(a, b T) int {
		return cmp.Compare(a.String(), b.String())
	})
	return keys
}
