package scale

import (
	xplot "github.com/goliatone/go-xplot"
)

// Linear is a scale mapping its domain linearly onto the range.
type Linear struct {
	base
}

// NewLinear builds a linear scale with declared defaults.
func NewLinear(opts ...xplot.Option) (*Linear, error) {
	m, err := xplot.NewModel(xplot.ModelSpec{
		ModelName: LinearModelName,
		ViewName:  LinearViewName,
		Schema:    linearSchema,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Linear{base{m}}, nil
}

// Stabilized reports whether the frontend damps domain changes.
func (s *Linear) Stabilized() bool { return s.BoolValue(PropStabilized) }

// MidRange returns the stabilization mid range ratio.
func (s *Linear) MidRange() float64 {
	v, _ := s.NumberValue(PropMidRange)
	return v
}

// MinRange returns the stabilization minimum range ratio.
func (s *Linear) MinRange() float64 {
	v, _ := s.NumberValue(PropMinRange)
	return v
}

// SetStabilized patches stabilized.
func (s *Linear) SetStabilized(v bool) error { return s.Set(PropStabilized, v) }

// SetMidRange patches mid_range.
func (s *Linear) SetMidRange(v float64) error { return s.Set(PropMidRange, v) }

// SetMinRange patches min_range.
func (s *Linear) SetMinRange(v float64) error { return s.Set(PropMinRange, v) }
