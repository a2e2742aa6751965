package decision

import (
	"errors"
	"fmt"
)

// Dimension is a performance axis a cost model predicts along.
type Dimension string

const (
	DimensionTime       Dimension = "time"
	DimensionAllocation Dimension = "allocation"
)

// IsValid checks if the dimension is known.
func (d Dimension) IsValid() bool {
	switch d {
	case DimensionTime, DimensionAllocation:
		return true
	}
	return false
}

// String returns string representation.
func (d Dimension) String() string {
	return string(d)
}

// ParseDimension parses a dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	if !d.IsValid() {
		return "", fmt.Errorf("%w: unknown performance dimension %q (valid: time, allocation)", ErrConfiguration, s)
	}
	return d, nil
}

// Goal is the policy driving candidate filtering.
//
// A candidate passes the major filter when its predicted major cost is below
// MinImprovement times the default's, and the minor filter when its predicted
// minor cost is below MaxPenalty times the default's.
type Goal struct {
	Major          Dimension `json:"major" yaml:"major"`
	Minor          Dimension `json:"minor" yaml:"minor"`
	MinImprovement float64   `json:"min_improvement" yaml:"min_improvement"`
	MaxPenalty     float64   `json:"max_penalty" yaml:"max_penalty"`
}

// DefaultGoal returns the goal used when nothing is configured.
func DefaultGoal() Goal {
	return Goal{
		Major:          DimensionTime,
		Minor:          DimensionAllocation,
		MinImprovement: 1.2,
		MaxPenalty:     0.7,
	}
}

// Validate checks the goal for internal consistency.
func (g Goal) Validate() error {
	var errs []error

	if !g.Major.IsValid() {
		errs = append(errs, fmt.Errorf("invalid major dimension: %q", g.Major))
	}
	if !g.Minor.IsValid() {
		errs = append(errs, fmt.Errorf("invalid minor dimension: %q", g.Minor))
	}
	if g.Major == g.Minor {
		errs = append(errs, fmt.Errorf("major and minor dimension must differ, both are %q", g.Major))
	}
	if g.MinImprovement <= 0 {
		errs = append(errs, fmt.Errorf("min_improvement must be positive, got %v", g.MinImprovement))
	}
	if g.MaxPenalty <= 0 {
		errs = append(errs, fmt.Errorf("max_penalty must be positive, got %v", g.MaxPenalty))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// Dimensions returns the major and minor dimension.
func (g Goal) Dimensions() []Dimension {
	return []Dimension{g.Major, g.Minor}
}
