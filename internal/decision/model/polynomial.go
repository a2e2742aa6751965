package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/haskel/collswitch/internal/monitor"
)

// Term is a polynomial over the instance size:
// coefs[0] + coefs[1]*x + coefs[2]*x² + ...
// where x is the size, or log2(size+1) when Log is set.
type Term struct {
	Coefs []float64 `json:"coefs" yaml:"coefs,flow"`
	Log   bool      `json:"log,omitempty" yaml:"log,omitempty"`
}

// Poly is shorthand for a term over the plain size.
func Poly(coefs ...float64) Term {
	return Term{Coefs: coefs}
}

// LogPoly is shorthand for a term over log2(size+1).
func LogPoly(coefs ...float64) Term {
	return Term{Coefs: coefs, Log: true}
}

// Eval evaluates the term at the given size.
func (t Term) Eval(size int) float64 {
	x := float64(size)
	if t.Log {
		x = math.Log2(x + 1)
	}
	return evaluatePolynomial(t.Coefs, x)
}

// evaluatePolynomial evaluates polynomial at point x.
// coefs[0] + coefs[1]*x + coefs[2]*x² + ...
func evaluatePolynomial(coefs []float64, x float64) float64 {
	if len(coefs) == 0 {
		return 0
	}

	result := 0.0
	xPow := 1.0
	for _, c := range coefs {
		result += c * xPow
		xPow *= x
	}
	return result
}

// CostSpec describes an empirical cost function fitted offline: a fixed part
// that depends on the final instance size, plus a per-operation cost for each
// operation category, itself a function of size.
//
//	cost = Base(size) + Σ count(op) * PerOp[op](size)
type CostSpec struct {
	Base  Term            `json:"base" yaml:"base"`
	PerOp map[string]Term `json:"per_op" yaml:"per_op"`
}

// Validate checks that every per-op key names a known operation.
func (s CostSpec) Validate() error {
	var errs []error
	for name := range s.PerOp {
		if _, ok := opByName[name]; !ok {
			errs = append(errs, fmt.Errorf("unknown operation %q", name))
		}
	}
	return errors.Join(errs...)
}

var opByName = func() map[string]monitor.Op {
	m := make(map[string]monitor.Op)
	for _, op := range monitor.Ops() {
		m[op.String()] = op
	}
	return m
}()

// Func compiles the spec into a cost function.
func (s CostSpec) Func() (CostFunc, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	type opTerm struct {
		op   monitor.Op
		term Term
	}
	terms := make([]opTerm, 0, len(s.PerOp))
	for _, op := range monitor.Ops() {
		if t, ok := s.PerOp[op.String()]; ok {
			terms = append(terms, opTerm{op: op, term: t})
		}
	}
	base := s.Base

	return func(snap monitor.Snapshot) float64 {
		cost := base.Eval(snap.Size)
		for _, t := range terms {
			if n := snap.Count(t.op); n > 0 {
				cost += float64(n) * t.term.Eval(snap.Size)
			}
		}
		return cost
	}, nil
}
