package collection

import (
	"errors"
	"fmt"
	"iter"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// ErrIndexOutOfRange is returned by positional list operations.
var ErrIndexOutOfRange = errors.New("index out of range")

// List is an ordered sequence of elements.
type List[E comparable] interface {
	// Add appends v.
	Add(v E)
	// Insert places v at index, shifting later elements. index may equal Len.
	Insert(index int, v E) error
	// Get returns the element at index.
	Get(index int) (E, error)
	// Set replaces the element at index and returns the previous one.
	Set(index int, v E) (E, error)
	// RemoveAt removes and returns the element at index.
	RemoveAt(index int) (E, error)
	// Remove removes the first occurrence of v.
	Remove(v E) bool
	Contains(v E) bool
	// IndexOf returns the index of the first occurrence of v or -1.
	IndexOf(v E) int
	Len() int
	Clear()
	// All iterates the elements in order.
	All() iter.Seq[E]
}

// godsList is the subset of the gods list API shared by arraylist and
// doublylinkedlist.
type godsList interface {
	Get(index int) (interface{}, bool)
	Remove(index int)
	Add(values ...interface{})
	Contains(values ...interface{}) bool
	Insert(index int, values ...interface{})
	Set(index int, value interface{})
	IndexOf(value interface{}) int
	Size() int
	Clear()
	Values() []interface{}
}

// NewList creates an empty list of the given type.
func NewList[E comparable](t ListType) (List[E], error) {
	switch t {
	case ListArray:
		return &godsBackedList[E]{l: arraylist.New()}, nil
	case ListLinked:
		return &godsBackedList[E]{l: doublylinkedlist.New()}, nil
	case ListHashArray:
		return NewHashArrayList[E](), nil
	default:
		return nil, fmt.Errorf("unknown list type: %q", t)
	}
}

func indexError(index, size int) error {
	return fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, index, size)
}

type godsBackedList[E comparable] struct {
	l godsList
}

func (g *godsBackedList[E]) Add(v E) {
	g.l.Add(v)
}

func (g *godsBackedList[E]) Insert(index int, v E) error {
	if index < 0 || index > g.l.Size() {
		return indexError(index, g.l.Size())
	}
	g.l.Insert(index, v)
	return nil
}

func (g *godsBackedList[E]) Get(index int) (E, error) {
	v, ok := g.l.Get(index)
	if !ok {
		var zero E
		return zero, indexError(index, g.l.Size())
	}
	return v.(E), nil
}

func (g *godsBackedList[E]) Set(index int, v E) (E, error) {
	prev, err := g.Get(index)
	if err != nil {
		return prev, err
	}
	g.l.Set(index, v)
	return prev, nil
}

func (g *godsBackedList[E]) RemoveAt(index int) (E, error) {
	prev, err := g.Get(index)
	if err != nil {
		return prev, err
	}
	g.l.Remove(index)
	return prev, nil
}

func (g *godsBackedList[E]) Remove(v E) bool {
	i := g.l.IndexOf(v)
	if i < 0 {
		return false
	}
	g.l.Remove(i)
	return true
}

func (g *godsBackedList[E]) Contains(v E) bool {
	return g.l.Contains(v)
}

func (g *godsBackedList[E]) IndexOf(v E) int {
	return g.l.IndexOf(v)
}

func (g *godsBackedList[E]) Len() int {
	return g.l.Size()
}

func (g *godsBackedList[E]) Clear() {
	g.l.Clear()
}

func (g *godsBackedList[E]) All() iter.Seq[E] {
	values := g.l.Values()
	return func(yield func(E) bool) {
		for _, v := range values {
			if !yield(v.(E)) {
				return
			}
		}
	}
}
