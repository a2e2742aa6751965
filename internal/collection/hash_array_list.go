package collection

import (
	"iter"

	"github.com/emirpasic/gods/lists/arraylist"
)

// HashArrayList is an array-backed list with a hash bag of its elements, so
// membership tests and IndexOf misses cost a map lookup instead of a scan.
type HashArrayList[E comparable] struct {
	list *godsBackedList[E]
	bag  map[E]int
}

// NewHashArrayList creates an empty HashArrayList.
func NewHashArrayList[E comparable]() *HashArrayList[E] {
	return &HashArrayList[E]{
		list: &godsBackedList[E]{l: arraylist.New()},
		bag:  make(map[E]int),
	}
}

func (h *HashArrayList[E]) bagAdd(v E) {
	h.bag[v]++
}

func (h *HashArrayList[E]) bagRemove(v E) {
	if n := h.bag[v]; n > 1 {
		h.bag[v] = n - 1
	} else {
		delete(h.bag, v)
	}
}

func (h *HashArrayList[E]) Add(v E) {
	h.bagAdd(v)
	h.list.Add(v)
}

func (h *HashArrayList[E]) Insert(index int, v E) error {
	if err := h.list.Insert(index, v); err != nil {
		return err
	}
	h.bagAdd(v)
	return nil
}

func (h *HashArrayList[E]) Get(index int) (E, error) {
	return h.list.Get(index)
}

func (h *HashArrayList[E]) Set(index int, v E) (E, error) {
	prev, err := h.list.Set(index, v)
	if err != nil {
		return prev, err
	}
	h.bagRemove(prev)
	h.bagAdd(v)
	return prev, nil
}

func (h *HashArrayList[E]) RemoveAt(index int) (E, error) {
	prev, err := h.list.RemoveAt(index)
	if err != nil {
		return prev, err
	}
	h.bagRemove(prev)
	return prev, nil
}

func (h *HashArrayList[E]) Remove(v E) bool {
	if _, ok := h.bag[v]; !ok {
		return false
	}
	h.bagRemove(v)
	return h.list.Remove(v)
}

func (h *HashArrayList[E]) Contains(v E) bool {
	_, ok := h.bag[v]
	return ok
}

func (h *HashArrayList[E]) IndexOf(v E) int {
	if _, ok := h.bag[v]; !ok {
		return -1
	}
	return h.list.IndexOf(v)
}

func (h *HashArrayList[E]) Len() int {
	return h.list.Len()
}

func (h *HashArrayList[E]) Clear() {
	clear(h.bag)
	h.list.Clear()
}

func (h *HashArrayList[E]) All() iter.Seq[E] {
	return h.list.All()
}
