// Package allocation hands out monitored collections whose implementation
// type follows the decisions of a background optimizer.
package allocation

import (
	"log/slog"
	"sync/atomic"

	"github.com/haskel/collswitch/internal/decision"
	"github.com/haskel/collswitch/internal/monitor"
)

// AllocationContext creates instances of its current recommended type.
type AllocationContext[T decision.Candidate, C any] interface {
	decision.TypeHolder[T]
	// ID identifies the context, e.g. the call site it serves.
	ID() string
	// Domain names the candidate family, e.g. "list".
	Domain() string
	// CreateInstance returns a new, monitored instance of CurrentType.
	CreateInstance() C
}

// InstanceFunc creates an instance of type t monitored into w.
type InstanceFunc[T decision.Candidate, C any] func(t T, w *monitor.Window) (C, error)

// Context is the shared mutable holder of one call site's current type.
type Context[T decision.Candidate, C any] struct {
	id          string
	domain      decision.Domain[T]
	def         T
	current     atomic.Pointer[T]
	window      *monitor.Window
	newInstance InstanceFunc[T, C]
	logger      *slog.Logger
}

// NewContext creates a context starting at initial. Instances are monitored
// into window.
func NewContext[T decision.Candidate, C any](
	id string,
	domain decision.Domain[T],
	def, initial T,
	window *monitor.Window,
	newInstance InstanceFunc[T, C],
	logger *slog.Logger,
) *Context[T, C] {
	c := &Context[T, C]{
		id:          id,
		domain:      domain,
		def:         def,
		window:      window,
		newInstance: newInstance,
		logger:      logger,
	}
	if !domain.Contains(initial) {
		initial = def
	}
	c.current.Store(&initial)
	return c
}

// ID returns the context identifier.
func (c *Context[T, C]) ID() string {
	return c.id
}

// Domain returns the candidate family name.
func (c *Context[T, C]) Domain() string {
	return c.domain.Name
}

// CurrentType returns the type new instances are created with.
func (c *Context[T, C]) CurrentType() T {
	return *c.current.Load()
}

// UpdateCollectionType replaces the current type. Types outside the domain
// are ignored.
func (c *Context[T, C]) UpdateCollectionType(t T) {
	if !c.domain.Contains(t) {
		c.logger.Warn("ignoring unknown type", "context", c.id, "type", t)
		return
	}
	c.current.Store(&t)
}

// CreateInstance returns a new monitored instance of the current type.
func (c *Context[T, C]) CreateInstance() C {
	t := c.CurrentType()
	inst, err := c.newInstance(t, c.window)
	if err == nil {
		return inst
	}

	// The current type is always a domain member, so only a broken
	// collection factory gets here.
	c.logger.Error("failed to create instance, using default", "context", c.id, "type", t, "error", err)
	inst, err = c.newInstance(c.def, c.window)
	if err != nil {
		panic("allocation: cannot create default instance: " + err.Error())
	}
	return inst
}

// Finish marks a monitored instance as finished so its usage counts toward
// the next decision. It reports false for instances that are not monitored.
func Finish(instance any) bool {
	f, ok := instance.(interface{ Finish() })
	if !ok {
		return false
	}
	f.Finish()
	return true
}
