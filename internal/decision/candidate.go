// Package decision holds the vocabulary shared by the adaptive selection
// engine: candidate types, performance dimensions, the performance goal and
// the holder of a context's current type.
package decision

import "errors"

// ErrConfiguration marks every failure caused by inconsistent bootstrap
// configuration or a missing cost model. It is never recovered silently.
var ErrConfiguration = errors.New("configuration error")

// Candidate is a concrete implementation variant within one domain.
type Candidate interface {
	comparable
	String() string
}

// TypeHolder is the mutable "current recommended implementation" cell an
// optimizer writes its champion into.
type TypeHolder[T Candidate] interface {
	CurrentType() T
	UpdateCollectionType(t T)
}

// Domain describes one family of candidates.
type Domain[T Candidate] struct {
	// Name identifies the domain, e.g. "list".
	Name string
	// Candidates in evaluation order. Ties during champion selection go to
	// the earlier entry.
	Candidates []T
}

// Contains reports whether t belongs to the domain.
func (d Domain[T]) Contains(t T) bool {
	for _, c := range d.Candidates {
		if c == t {
			return true
		}
	}
	return false
}
