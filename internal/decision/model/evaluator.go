package model

import (
	"fmt"
	"sync"

	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/monitor"
)

// Evaluator predicts per-candidate costs for one domain, holding one model
// per performance dimension.
type Evaluator[T decision.Candidate] struct {
	domain decision.Domain[T]

	mu     sync.RWMutex
	models map[decision.Dimension]*Model[T]
}

// NewEvaluator creates an evaluator with no models.
func NewEvaluator[T decision.Candidate](domain decision.Domain[T]) *Evaluator[T] {
	return &Evaluator[T]{
		domain: domain,
		models: make(map[decision.Dimension]*Model[T]),
	}
}

// Domain returns the evaluated domain.
func (e *Evaluator[T]) Domain() decision.Domain[T] {
	return e.domain
}

// AddModel registers m for its dimension, replacing any previous model.
func (e *Evaluator[T]) AddModel(m *Model[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.models[m.Dimension()] = m
}

// Validate checks that every candidate of the domain has a cost function
// in each of the given dimensions.
func (e *Evaluator[T]) Validate(dims ...decision.Dimension) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, dim := range dims {
		m, ok := e.models[dim]
		if !ok {
			return fmt.Errorf("%w: %s: no model for dimension %q", decision.ErrConfiguration, e.domain.Name, dim)
		}
		for _, t := range e.domain.Candidates {
			if _, ok := m.Cost(t); !ok {
				return fmt.Errorf("%w: %s: no %s cost function for %q", decision.ErrConfiguration, e.domain.Name, dim, t)
			}
		}
	}
	return nil
}

// Predict returns the predicted cost of snap for every candidate.
// A missing (dimension, candidate) pair is a configuration error.
func (e *Evaluator[T]) Predict(dim decision.Dimension, snap monitor.Snapshot) (map[T]float64, error) {
	return e.PredictWindow(dim, []monitor.Snapshot{snap})
}

// PredictWindow returns, per candidate, the summed predicted cost of every
// snapshot.
func (e *Evaluator[T]) PredictWindow(dim decision.Dimension, snaps []monitor.Snapshot) (map[T]float64, error) {
	e.mu.RLock()
	m, ok := e.models[dim]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s: no model for dimension %q", decision.ErrConfiguration, e.domain.Name, dim)
	}

	costs := make(map[T]float64, len(e.domain.Candidates))
	for _, t := range e.domain.Candidates {
		f, ok := m.Cost(t)
		if !ok {
			return nil, fmt.Errorf("%w: %s: no %s cost function for %q", decision.ErrConfiguration, e.domain.Name, dim, t)
		}
		var total float64
		for _, s := range snaps {
			total += f(s)
		}
		costs[t] = total
	}
	return costs, nil
}
