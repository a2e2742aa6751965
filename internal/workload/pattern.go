// Package workload drives allocation contexts with synthetic usage patterns
// and reports how the contexts adapted.
package workload

import (
	"fmt"
	"strings"

	"github.com/haskel/collswitch/internal/collection"
)

// Pattern names a synthetic usage pattern.
type Pattern string

const (
	// ListReadHeavy appends elements then reads them by index ten times over.
	ListReadHeavy Pattern = "list_read_heavy"
	// ListQueue appends elements then drains them from the front.
	ListQueue Pattern = "list_queue"
	// ListMembership appends elements then checks membership of each.
	ListMembership Pattern = "list_membership"
	// SetMembership inserts elements then probes them, half of them absent.
	SetMembership Pattern = "set_membership"
	// SetOrdered inserts elements and walks the set repeatedly.
	SetOrdered Pattern = "set_ordered"
	// MapLookup puts entries then reads every key several times.
	MapLookup Pattern = "map_lookup"
	// MapIteration puts entries then walks the map repeatedly.
	MapIteration Pattern = "map_iteration"
)

// Patterns returns every pattern.
func Patterns() []Pattern {
	return []Pattern{
		ListReadHeavy, ListQueue, ListMembership,
		SetMembership, SetOrdered,
		MapLookup, MapIteration,
	}
}

// ParsePattern parses a pattern name.
func ParsePattern(s string) (Pattern, error) {
	for _, p := range Patterns() {
		if string(p) == s {
			return p, nil
		}
	}
	names := make([]string, 0, len(Patterns()))
	for _, p := range Patterns() {
		names = append(names, string(p))
	}
	return "", fmt.Errorf("unknown workload pattern %q (valid: %s)", s, strings.Join(names, ", "))
}

// Domain returns the candidate family the pattern exercises.
func (p Pattern) Domain() string {
	switch {
	case strings.HasPrefix(string(p), "list_"):
		return "list"
	case strings.HasPrefix(string(p), "set_"):
		return "set"
	default:
		return "map"
	}
}

// ListDefault is the type list contexts start from.
func (p Pattern) ListDefault() collection.ListType {
	if p == ListMembership {
		return collection.ListArray
	}
	return collection.ListLinked
}

// SetDefault is the type set contexts start from.
func (p Pattern) SetDefault() collection.SetType {
	if p == SetOrdered {
		return collection.SetHash
	}
	return collection.SetTree
}

// MapDefault is the type map contexts start from.
func (p Pattern) MapDefault() collection.MapType {
	if p == MapIteration {
		return collection.MapHash
	}
	return collection.MapTree
}

func driveList(p Pattern, l collection.List[int], n int) error {
	for i := range n {
		l.Add(i)
	}

	switch p {
	case ListReadHeavy:
		for i := range 10 * n {
			if _, err := l.Get(i % n); err != nil {
				return err
			}
		}
	case ListQueue:
		for l.Len() > 0 {
			if _, err := l.RemoveAt(0); err != nil {
				return err
			}
		}
	case ListMembership:
		for i := range n {
			l.Contains(i * 2)
		}
	}
	return nil
}

func driveSet(p Pattern, s collection.Set[int], n int) {
	for i := range n {
		s.Add(i)
	}

	switch p {
	case SetMembership:
		for i := range 2 * n {
			s.Contains(i)
		}
	case SetOrdered:
		for range 5 {
			for range s.All() {
			}
		}
	}
}

func driveMap(p Pattern, m collection.Map[int, int], n int) {
	for i := range n {
		m.Put(i, i*i)
	}

	switch p {
	case MapLookup:
		for range 5 {
			for i := range n {
				m.Get(i)
			}
		}
	case MapIteration:
		for range 5 {
			for range m.All() {
			}
		}
	}
}
