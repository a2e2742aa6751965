package model

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haskel/collswitch/internal/collection"
	"github.com/haskel/collswitch/internal/decision"
)

// DomainSpecs holds the cost specs of one domain, per dimension and candidate.
type DomainSpecs[T comparable] map[decision.Dimension]map[T]CostSpec

// Specs is the full set of precomputed cost models.
type Specs struct {
	List DomainSpecs[collection.ListType] `json:"list" yaml:"list"`
	Set  DomainSpecs[collection.SetType]  `json:"set" yaml:"set"`
	Map  DomainSpecs[collection.MapType]  `json:"map" yaml:"map"`
}

// DefaultSpecs returns the built-in empirical models. Time is in
// nanoseconds, allocation in bytes.
func DefaultSpecs() *Specs {
	return &Specs{
		List: DomainSpecs[collection.ListType]{
			decision.DimensionTime: {
				collection.ListArray: {
					Base: Poly(50),
					PerOp: map[string]Term{
						"insert":       Poly(10, 0.02),
						"remove":       Poly(10, 0.25),
						"indexed_read": Poly(2),
						"iteration":    Poly(5, 1),
						"contains":     Poly(2, 0.5),
					},
				},
				collection.ListLinked: {
					Base: Poly(60),
					PerOp: map[string]Term{
						"insert":       Poly(12),
						"remove":       Poly(15, 0.25),
						"indexed_read": Poly(5, 0.5),
						"iteration":    Poly(5, 1.5),
						"contains":     Poly(2, 0.6),
					},
				},
				collection.ListHashArray: {
					Base: Poly(120),
					PerOp: map[string]Term{
						"insert":       Poly(30, 0.02),
						"remove":       Poly(35, 0.25),
						"indexed_read": Poly(2),
						"iteration":    Poly(5, 1),
						"contains":     Poly(25),
					},
				},
			},
			decision.DimensionAllocation: {
				collection.ListArray: {
					Base:  Poly(40, 12),
					PerOp: map[string]Term{"insert": Poly(0.5)},
				},
				collection.ListLinked: {
					Base:  Poly(48),
					PerOp: map[string]Term{"insert": Poly(40)},
				},
				collection.ListHashArray: {
					Base:  Poly(120, 60),
					PerOp: map[string]Term{"insert": Poly(2)},
				},
			},
		},
		Set: DomainSpecs[collection.SetType]{
			decision.DimensionTime: {
				collection.SetHash: {
					Base: Poly(60),
					PerOp: map[string]Term{
						"insert":    Poly(25),
						"remove":    Poly(25),
						"contains":  Poly(20),
						"iteration": Poly(10, 2),
					},
				},
				collection.SetTree: {
					Base: Poly(50),
					PerOp: map[string]Term{
						"insert":    LogPoly(10, 8),
						"remove":    LogPoly(10, 8),
						"contains":  LogPoly(8, 6),
						"iteration": Poly(5, 1.2),
					},
				},
				collection.SetLinkedHash: {
					Base: Poly(70),
					PerOp: map[string]Term{
						"insert":    Poly(32),
						"remove":    Poly(30),
						"contains":  Poly(20),
						"iteration": Poly(5, 1),
					},
				},
			},
			decision.DimensionAllocation: {
				collection.SetHash: {
					Base:  Poly(64, 40),
					PerOp: map[string]Term{"insert": Poly(1)},
				},
				collection.SetTree: {
					Base:  Poly(48, 48),
					PerOp: map[string]Term{"insert": Poly(1)},
				},
				collection.SetLinkedHash: {
					Base:  Poly(80, 64),
					PerOp: map[string]Term{"insert": Poly(1)},
				},
			},
		},
		Map: DomainSpecs[collection.MapType]{
			decision.DimensionTime: {
				collection.MapHash: {
					Base: Poly(60),
					PerOp: map[string]Term{
						"insert":    Poly(30),
						"remove":    Poly(28),
						"contains":  Poly(22),
						"iteration": Poly(10, 2.5),
					},
				},
				collection.MapTree: {
					Base: Poly(50),
					PerOp: map[string]Term{
						"insert":    LogPoly(12, 9),
						"remove":    LogPoly(12, 9),
						"contains":  LogPoly(8, 7),
						"iteration": Poly(5, 1.5),
					},
				},
				collection.MapLinkedHash: {
					Base: Poly(70),
					PerOp: map[string]Term{
						"insert":    Poly(38),
						"remove":    Poly(34),
						"contains":  Poly(22),
						"iteration": Poly(5, 1.2),
					},
				},
			},
			decision.DimensionAllocation: {
				collection.MapHash: {
					Base:  Poly(64, 56),
					PerOp: map[string]Term{"insert": Poly(1)},
				},
				collection.MapTree: {
					Base:  Poly(48, 64),
					PerOp: map[string]Term{"insert": Poly(1)},
				},
				collection.MapLinkedHash: {
					Base:  Poly(80, 80),
					PerOp: map[string]Term{"insert": Poly(1)},
				},
			},
		},
	}
}

// LoadSpecs reads cost models from a YAML file. Sections present in the file
// replace the built-in ones per domain and dimension; a replaced dimension
// must list every candidate again or evaluator validation fails.
func LoadSpecs(path string) (*Specs, error) {
	specs := DefaultSpecs()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}

	if err := yaml.Unmarshal(data, specs); err != nil {
		return nil, fmt.Errorf("%w: failed to parse models file: %w", decision.ErrConfiguration, err)
	}

	return specs, nil
}

// Write encodes the specs as YAML.
func (s *Specs) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// BuildEvaluator compiles specs into an evaluator for domain and checks that
// every candidate is covered in each dimension of specs.
func BuildEvaluator[T decision.Candidate](domain decision.Domain[T], specs DomainSpecs[T]) (*Evaluator[T], error) {
	e := NewEvaluator(domain)

	dims := make([]decision.Dimension, 0, len(specs))
	for dim, byType := range specs {
		if !dim.IsValid() {
			return nil, fmt.Errorf("%w: %s: unknown dimension %q", decision.ErrConfiguration, domain.Name, dim)
		}

		costs := make(map[T]CostFunc, len(byType))
		for t, spec := range byType {
			if !domain.Contains(t) {
				return nil, fmt.Errorf("%w: %s: unknown candidate %q", decision.ErrConfiguration, domain.Name, t)
			}
			f, err := spec.Func()
			if err != nil {
				return nil, fmt.Errorf("%w: %s/%s/%s: %w", decision.ErrConfiguration, domain.Name, dim, t, err)
			}
			costs[t] = f
		}

		e.AddModel(NewModel(dim, costs))
		dims = append(dims, dim)
	}

	if err := e.Validate(dims...); err != nil {
		return nil, err
	}
	return e, nil
}
