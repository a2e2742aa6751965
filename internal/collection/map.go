package collection

import (
	"cmp"
	"fmt"
	"iter"

	"github.com/emirpasic/gods/maps"
	"github.com/emirpasic/gods/maps/hashmap"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/maps/treemap"
)

// Map is an associative container.
type Map[K cmp.Ordered, V any] interface {
	Put(k K, v V)
	Get(k K) (V, bool)
	// Remove deletes k and reports whether it was present.
	Remove(k K) bool
	ContainsKey(k K) bool
	Len() int
	Clear()
	// All iterates the entries; order depends on the implementation.
	All() iter.Seq2[K, V]
}

// NewMap creates an empty map of the given type.
func NewMap[K cmp.Ordered, V any](t MapType) (Map[K, V], error) {
	switch t {
	case MapHash:
		return &godsBackedMap[K, V]{m: hashmap.New()}, nil
	case MapTree:
		return &godsBackedMap[K, V]{m: treemap.NewWith(comparator[K])}, nil
	case MapLinkedHash:
		return &godsBackedMap[K, V]{m: linkedhashmap.New()}, nil
	default:
		return nil, fmt.Errorf("unknown map type: %q", t)
	}
}

type godsBackedMap[K cmp.Ordered, V any] struct {
	m maps.Map
}

func (g *godsBackedMap[K, V]) Put(k K, v V) {
	g.m.Put(k, v)
}

func (g *godsBackedMap[K, V]) Get(k K) (V, bool) {
	v, ok := g.m.Get(k)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (g *godsBackedMap[K, V]) Remove(k K) bool {
	if _, ok := g.m.Get(k); !ok {
		return false
	}
	g.m.Remove(k)
	return true
}

func (g *godsBackedMap[K, V]) ContainsKey(k K) bool {
	_, ok := g.m.Get(k)
	return ok
}

func (g *godsBackedMap[K, V]) Len() int {
	return g.m.Size()
}

func (g *godsBackedMap[K, V]) Clear() {
	g.m.Clear()
}

func (g *godsBackedMap[K, V]) All() iter.Seq2[K, V] {
	keys := g.m.Keys()
	return func(yield func(K, V) bool) {
		for _, k := range keys {
			v, ok := g.m.Get(k)
			if !ok {
				continue
			}
			if !yield(k.(K), v.(V)) {
				return
			}
		}
	}
}
