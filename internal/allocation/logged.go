package allocation

import (
	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/storage"
)

// DecisionSink receives every accepted decision.
type DecisionSink interface {
	Record(rec storage.DecisionRecord)
}

// Sinks fans a decision out to several sinks.
type Sinks []DecisionSink

// Record forwards rec to every sink.
func (s Sinks) Record(rec storage.DecisionRecord) {
	for _, sink := range s {
		sink.Record(rec)
	}
}

// LoggedContext decorates a context so every type update is recorded.
// Reads and instance creation are forwarded unchanged.
type LoggedContext[T decision.Candidate, C any] struct {
	AllocationContext[T, C]
	sink DecisionSink
}

// NewLoggedContext wraps inner.
func NewLoggedContext[T decision.Candidate, C any](inner AllocationContext[T, C], sink DecisionSink) *LoggedContext[T, C] {
	return &LoggedContext[T, C]{
		AllocationContext: inner,
		sink:              sink,
	}
}

// UpdateCollectionType updates the wrapped context and records the
// transition, including updates that keep the type.
func (l *LoggedContext[T, C]) UpdateCollectionType(t T) {
	old := l.AllocationContext.CurrentType()
	l.AllocationContext.UpdateCollectionType(t)
	l.sink.Record(storage.NewDecisionRecord(
		l.AllocationContext.ID(),
		l.AllocationContext.Domain(),
		old.String(),
		l.AllocationContext.CurrentType().String(),
	))
}
