package collection

import (
	"cmp"
	"fmt"
	"iter"

	"github.com/emirpasic/gods/sets"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/emirpasic/gods/sets/treeset"
)

// Set is a collection of unique elements.
type Set[E cmp.Ordered] interface {
	// Add inserts v and reports whether it was absent.
	Add(v E) bool
	// Remove deletes v and reports whether it was present.
	Remove(v E) bool
	Contains(v E) bool
	Len() int
	Clear()
	// All iterates the elements; order depends on the implementation.
	All() iter.Seq[E]
}

// NewSet creates an empty set of the given type.
func NewSet[E cmp.Ordered](t SetType) (Set[E], error) {
	switch t {
	case SetHash:
		return &godsBackedSet[E]{s: hashset.New()}, nil
	case SetTree:
		return &godsBackedSet[E]{s: treeset.NewWith(comparator[E])}, nil
	case SetLinkedHash:
		return &godsBackedSet[E]{s: linkedhashset.New()}, nil
	default:
		return nil, fmt.Errorf("unknown set type: %q", t)
	}
}

type godsBackedSet[E cmp.Ordered] struct {
	s sets.Set
}

func (g *godsBackedSet[E]) Add(v E) bool {
	if g.s.Contains(v) {
		return false
	}
	g.s.Add(v)
	return true
}

func (g *godsBackedSet[E]) Remove(v E) bool {
	if !g.s.Contains(v) {
		return false
	}
	g.s.Remove(v)
	return true
}

func (g *godsBackedSet[E]) Contains(v E) bool {
	return g.s.Contains(v)
}

func (g *godsBackedSet[E]) Len() int {
	return g.s.Size()
}

func (g *godsBackedSet[E]) Clear() {
	g.s.Clear()
}

func (g *godsBackedSet[E]) All() iter.Seq[E] {
	values := g.s.Values()
	return func(yield func(E) bool) {
		for _, v := range values {
			if !yield(v.(E)) {
				return
			}
		}
	}
}
