package model

import (
	"github.com/haskel/collswitch/internal/collection"
	"github.com/haskel/collswitch/internal/decision"
)

// ListDomain returns the list candidates.
func ListDomain() decision.Domain[collection.ListType] {
	return decision.Domain[collection.ListType]{Name: "list", Candidates: collection.ListTypes()}
}

// SetDomain returns the set candidates.
func SetDomain() decision.Domain[collection.SetType] {
	return decision.Domain[collection.SetType]{Name: "set", Candidates: collection.SetTypes()}
}

// MapDomain returns the map candidates.
func MapDomain() decision.Domain[collection.MapType] {
	return decision.Domain[collection.MapType]{Name: "map", Candidates: collection.MapTypes()}
}

// Config holds model configuration.
type Config struct {
	// File with cost models; empty means built-in defaults.
	File string
}

// Factory creates the evaluators of all three domains from one set of specs.
type Factory struct {
	specs *Specs
}

// NewFactory creates a factory, loading specs from cfg.File when set.
func NewFactory(cfg Config) (*Factory, error) {
	if cfg.File == "" {
		return &Factory{specs: DefaultSpecs()}, nil
	}

	specs, err := LoadSpecs(cfg.File)
	if err != nil {
		return nil, err
	}
	return &Factory{specs: specs}, nil
}

// NewFactoryFromSpecs creates a factory from already loaded specs.
func NewFactoryFromSpecs(specs *Specs) *Factory {
	return &Factory{specs: specs}
}

// Specs returns the specs the factory builds from.
func (f *Factory) Specs() *Specs {
	return f.specs
}

// ListEvaluator builds the list evaluator.
func (f *Factory) ListEvaluator() (*Evaluator[collection.ListType], error) {
	return BuildEvaluator(ListDomain(), f.specs.List)
}

// SetEvaluator builds the set evaluator.
func (f *Factory) SetEvaluator() (*Evaluator[collection.SetType], error) {
	return BuildEvaluator(SetDomain(), f.specs.Set)
}

// MapEvaluator builds the map evaluator.
func (f *Factory) MapEvaluator() (*Evaluator[collection.MapType], error) {
	return BuildEvaluator(MapDomain(), f.specs.Map)
}

// ValidateAll builds every evaluator once and checks each covers dims.
func (f *Factory) ValidateAll(dims ...decision.Dimension) error {
	le, err := f.ListEvaluator()
	if err != nil {
		return err
	}
	if err := le.Validate(dims...); err != nil {
		return err
	}

	se, err := f.SetEvaluator()
	if err != nil {
		return err
	}
	if err := se.Validate(dims...); err != nil {
		return err
	}

	me, err := f.MapEvaluator()
	if err != nil {
		return err
	}
	if err := me.Validate(dims...); err != nil {
		return err
	}
	return nil
}
