// Package collection holds the concrete container implementations that an
// allocation context chooses among, and the candidate enumerations naming them.
package collection

import (
	"cmp"
	"fmt"
)

// ListType represents a concrete list implementation.
type ListType string

const (
	ListArray     ListType = "array"
	ListLinked    ListType = "linked"
	ListHashArray ListType = "hash_array"
)

// ListTypes returns every list candidate in evaluation order.
func ListTypes() []ListType {
	return []ListType{ListArray, ListLinked, ListHashArray}
}

// IsValid checks if the list type is known.
func (t ListType) IsValid() bool {
	switch t {
	case ListArray, ListLinked, ListHashArray:
		return true
	}
	return false
}

// String returns string representation.
func (t ListType) String() string {
	return string(t)
}

// ParseListType parses a list type name.
func ParseListType(s string) (ListType, error) {
	t := ListType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown list type: %q", s)
	}
	return t, nil
}

// SetType represents a concrete set implementation.
type SetType string

const (
	SetHash       SetType = "hash"
	SetTree       SetType = "tree"
	SetLinkedHash SetType = "linked_hash"
)

// SetTypes returns every set candidate in evaluation order.
func SetTypes() []SetType {
	return []SetType{SetHash, SetTree, SetLinkedHash}
}

// IsValid checks if the set type is known.
func (t SetType) IsValid() bool {
	switch t {
	case SetHash, SetTree, SetLinkedHash:
		return true
	}
	return false
}

// String returns string representation.
func (t SetType) String() string {
	return string(t)
}

// ParseSetType parses a set type name.
func ParseSetType(s string) (SetType, error) {
	t := SetType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown set type: %q", s)
	}
	return t, nil
}

// MapType represents a concrete map implementation.
type MapType string

const (
	MapHash       MapType = "hash"
	MapTree       MapType = "tree"
	MapLinkedHash MapType = "linked_hash"
)

// MapTypes returns every map candidate in evaluation order.
func MapTypes() []MapType {
	return []MapType{MapHash, MapTree, MapLinkedHash}
}

// IsValid checks if the map type is known.
func (t MapType) IsValid() bool {
	switch t {
	case MapHash, MapTree, MapLinkedHash:
		return true
	}
	return false
}

// String returns string representation.
func (t MapType) String() string {
	return string(t)
}

// ParseMapType parses a map type name.
func ParseMapType(s string) (MapType, error) {
	t := MapType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown map type: %q", s)
	}
	return t, nil
}

// comparator adapts cmp.Compare to the untyped comparator the tree
// containers expect.
func comparator[E cmp.Ordered](a, b interface{}) int {
	return cmp.Compare(a.(E), b.(E))
}
