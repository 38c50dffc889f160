// Package scale declares the scale widget models: the abstract base shared by
// every scale plus the linear and logarithmic concrete models.
package scale

import (
	xplot "github.com/goliatone/go-xplot"
)

// Frontend model and view names.
const (
	ModelName       = "ScaleModel"
	ViewName        = "Scale"
	LinearModelName = "LinearScaleModel"
	LinearViewName  = "LinearScale"
	LogModelName    = "LogScaleModel"
	LogViewName     = "LogScale"
)

// Property names.
const (
	PropReverse      = "reverse"
	PropAllowPadding = "allow_padding"
	PropMin          = "min"
	PropMax          = "max"
	PropStabilized   = "stabilized"
	PropMidRange     = "mid_range"
	PropMinRange     = "min_range"
)

// Scale is the polymorphic handle held by axes. Concrete scales are *Linear and
// *Log.
type Scale interface {
	xplot.Widget
	Reverse() bool
	AllowPadding() bool
}

var (
	baseSchema = xplot.MustSchema(
		xplot.Bool(PropReverse, false),
		xplot.Bool(PropAllowPadding, false),
	)
	linearSchema = baseSchema.MustExtend(
		xplot.OptionalNumber(PropMin),
		xplot.OptionalNumber(PropMax),
		xplot.Bool(PropStabilized, false),
		xplot.Number(PropMidRange, 0.8),
		xplot.Number(PropMinRange, 0.6),
	)
	logSchema = baseSchema.MustExtend(
		xplot.OptionalNumber(PropMin),
		xplot.OptionalNumber(PropMax),
	)
)

// BaseSchema returns the properties every scale shares.
func BaseSchema() *xplot.Schema { return baseSchema }

// LinearSchema returns the linear scale schema.
func LinearSchema() *xplot.Schema { return linearSchema }

// LogSchema returns the log scale schema.
func LogSchema() *xplot.Schema { return logSchema }

// Accepts reports whether w can be held where a Scale is expected.
func Accepts(w xplot.Widget) bool {
	_, ok := w.(Scale)
	return ok
}

// DomainConstraint rejects patches leaving min greater than max.
func DomainConstraint() xplot.Option {
	return xplot.WithConstraint("domain",
		"state.min == nil || state.max == nil || state.min <= state.max")
}

// PositiveConstraint rejects non-positive bounds. Log scales cannot map them.
func PositiveConstraint() xplot.Option {
	return xplot.WithConstraint("positive",
		"(state.min == nil || state.min > 0) && (state.max == nil || state.max > 0)")
}

// Register installs the linear and log factories.
func Register(registry *xplot.Registry) error {
	if err := registry.Register(LinearModelName, func(opts ...xplot.Option) (xplot.Widget, error) {
		s, err := NewLinear(opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}); err != nil {
		return err
	}
	return registry.Register(LogModelName, func(opts ...xplot.Option) (xplot.Widget, error) {
		s, err := NewLog(opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// base carries the accessors shared by every scale.
type base struct {
	*xplot.Model
}

// Reverse reports whether the scale range is inverted.
func (b base) Reverse() bool { return b.BoolValue(PropReverse) }

// AllowPadding reports whether marks may pad the domain.
func (b base) AllowPadding() bool { return b.BoolValue(PropAllowPadding) }

// SetReverse patches reverse.
func (b base) SetReverse(v bool) error { return b.Set(PropReverse, v) }

// SetAllowPadding patches allow_padding.
func (b base) SetAllowPadding(v bool) error { return b.Set(PropAllowPadding, v) }

// Min returns the lower bound and whether it is set.
func (b base) Min() (float64, bool) { return b.NumberValue(PropMin) }

// Max returns the upper bound and whether it is set.
func (b base) Max() (float64, bool) { return b.NumberValue(PropMax) }

// SetMin patches min.
func (b base) SetMin(v float64) error { return b.Set(PropMin, v) }

// SetMax patches max.
func (b base) SetMax(v float64) error { return b.Set(PropMax, v) }

// ClearMin unsets min.
func (b base) ClearMin() error { return b.Set(PropMin, nil) }

// ClearMax unsets max.
func (b base) ClearMax() error { return b.Set(PropMax, nil) }

// SetDomain patches both bounds in one patch.
func (b base) SetDomain(lo, hi float64) error {
	return b.ApplyPatch(map[string]any{PropMin: lo, PropMax: hi})
}
