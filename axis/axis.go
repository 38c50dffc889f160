// Package axis declares the axis widget model. An axis holds a polymorphic
// scale handle and the presentation attributes the frontend renders.
package axis

import (
	xplot "github.com/goliatone/go-xplot"
	"github.com/goliatone/go-xplot/scale"
)

// Frontend model and view names.
const (
	ModelName = "AxisModel"
	ViewName  = "Axis"
)

// Property names.
const (
	PropOrientation   = "orientation"
	PropSide          = "side"
	PropLabel         = "label"
	PropTickFormat    = "tick_format"
	PropScale         = "scale"
	PropNumTicks      = "num_ticks"
	PropTickValues    = "tick_values"
	PropOffset        = "offset"
	PropLabelLocation = "label_location"
	PropLabelColor    = "label_color"
	PropGridColor     = "grid_color"
	PropColor         = "color"
	PropGridLines     = "grid_lines"
	PropLabelOffset   = "label_offset"
	PropVisible       = "visible"
)

// Enumerated values.
const (
	Horizontal = "horizontal"
	Vertical   = "vertical"

	SideBottom = "bottom"
	SideTop    = "top"
	SideLeft   = "left"
	SideRight  = "right"

	LabelMiddle = "middle"
	LabelStart  = "start"
	LabelEnd    = "end"

	GridNone   = "none"
	GridSolid  = "solid"
	GridDashed = "dashed"
)

var emptyFormat = ""

var schema = xplot.MustSchema(
	xplot.Enum(PropOrientation, Horizontal, Horizontal, Vertical),
	xplot.OptionalEnum(PropSide, SideBottom, SideTop, SideLeft, SideRight),
	xplot.String(PropLabel, ""),
	xplot.OptionalString(PropTickFormat, &emptyFormat),
	xplot.Reference(PropScale, scale.Accepts),
	xplot.JSON(PropNumTicks, nil),
	xplot.JSON(PropTickValues, nil),
	xplot.Object(PropOffset, nil),
	xplot.Enum(PropLabelLocation, LabelMiddle, LabelMiddle, LabelStart, LabelEnd),
	xplot.OptionalString(PropLabelColor, nil),
	xplot.OptionalString(PropGridColor, nil),
	xplot.OptionalString(PropColor, nil),
	xplot.Enum(PropGridLines, GridSolid, GridNone, GridSolid, GridDashed),
	xplot.OptionalString(PropLabelOffset, nil),
	xplot.Bool(PropVisible, true),
)

// Schema returns the axis schema.
func Schema() *xplot.Schema { return schema }

// Axis is the axis widget.
type Axis struct {
	*xplot.Model
}

// New builds an axis holding a fresh linear scale over [0, 1] without padding.
// The default scale is built with default options; options apply to the axis
// only.
func New(opts ...xplot.Option) (*Axis, error) {
	m, err := xplot.NewModel(xplot.ModelSpec{
		ModelName: ModelName,
		ViewName:  ViewName,
		Schema:    schema,
	}, opts...)
	if err != nil {
		return nil, err
	}
	s, err := DefaultScale()
	if err != nil {
		return nil, err
	}
	if err := m.Bootstrap(PropScale, s); err != nil {
		return nil, err
	}
	return &Axis{Model: m}, nil
}

// DefaultScale builds the scale an axis holds when none is provided.
func DefaultScale() (*scale.Linear, error) {
	s, err := scale.NewLinear()
	if err != nil {
		return nil, err
	}
	if err := s.ApplyPatch(map[string]any{
		scale.PropMin:          0.0,
		scale.PropMax:          1.0,
		scale.PropAllowPadding: false,
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Register installs the axis factory.
func Register(registry *xplot.Registry) error {
	return registry.Register(ModelName, func(opts ...xplot.Option) (xplot.Widget, error) {
		a, err := New(opts...)
		if err != nil {
			return nil, err
		}
		return a, nil
	})
}

// Scale returns the held scale.
func (a *Axis) Scale() scale.Scale {
	s, _ := a.Reference(PropScale).(scale.Scale)
	return s
}

// SetScale replaces the held scale. The previous scale is dropped.
func (a *Axis) SetScale(s scale.Scale) error {
	if s == nil {
		return a.Set(PropScale, nil)
	}
	return a.Set(PropScale, s)
}

// Orientation returns horizontal or vertical.
func (a *Axis) Orientation() string { return a.stringOf(PropOrientation) }

// SetOrientation patches orientation.
func (a *Axis) SetOrientation(v string) error { return a.Set(PropOrientation, v) }

// Side returns the side the axis is drawn on, if set.
func (a *Axis) Side() (string, bool) { return a.StringValue(PropSide) }

// SetSide patches side.
func (a *Axis) SetSide(v string) error { return a.Set(PropSide, v) }

// ClearSide unsets side.
func (a *Axis) ClearSide() error { return a.Set(PropSide, nil) }

// Label returns the axis label.
func (a *Axis) Label() string { return a.stringOf(PropLabel) }

// SetLabel patches label.
func (a *Axis) SetLabel(v string) error { return a.Set(PropLabel, v) }

// TickFormat returns the tick format, if set.
func (a *Axis) TickFormat() (string, bool) { return a.StringValue(PropTickFormat) }

// SetTickFormat patches tick_format.
func (a *Axis) SetTickFormat(v string) error { return a.Set(PropTickFormat, v) }

// NumTicks returns the raw num_ticks value.
func (a *Axis) NumTicks() any { return a.valueOf(PropNumTicks) }

// SetNumTicks patches num_ticks with any JSON value.
func (a *Axis) SetNumTicks(v any) error { return a.Set(PropNumTicks, v) }

// TickValues returns the raw tick_values value.
func (a *Axis) TickValues() any { return a.valueOf(PropTickValues) }

// SetTickValues patches tick_values with any JSON value.
func (a *Axis) SetTickValues(v any) error { return a.Set(PropTickValues, v) }

// Offset returns a copy of the offset object.
func (a *Axis) Offset() map[string]any {
	state := a.State()
	offset, _ := state[PropOffset].(map[string]any)
	return offset
}

// SetOffset patches offset.
func (a *Axis) SetOffset(v map[string]any) error { return a.Set(PropOffset, v) }

// LabelLocation returns middle, start or end.
func (a *Axis) LabelLocation() string { return a.stringOf(PropLabelLocation) }

// SetLabelLocation patches label_location.
func (a *Axis) SetLabelLocation(v string) error { return a.Set(PropLabelLocation, v) }

// LabelColor returns the label color, if set.
func (a *Axis) LabelColor() (string, bool) { return a.StringValue(PropLabelColor) }

// SetLabelColor patches label_color.
func (a *Axis) SetLabelColor(v string) error { return a.Set(PropLabelColor, v) }

// GridColor returns the grid color, if set.
func (a *Axis) GridColor() (string, bool) { return a.StringValue(PropGridColor) }

// SetGridColor patches grid_color.
func (a *Axis) SetGridColor(v string) error { return a.Set(PropGridColor, v) }

// Color returns the axis color, if set.
func (a *Axis) Color() (string, bool) { return a.StringValue(PropColor) }

// SetColor patches color.
func (a *Axis) SetColor(v string) error { return a.Set(PropColor, v) }

// GridLines returns none, solid or dashed.
func (a *Axis) GridLines() string { return a.stringOf(PropGridLines) }

// SetGridLines patches grid_lines.
func (a *Axis) SetGridLines(v string) error { return a.Set(PropGridLines, v) }

// LabelOffset returns the label offset, if set.
func (a *Axis) LabelOffset() (string, bool) { return a.StringValue(PropLabelOffset) }

// SetLabelOffset patches label_offset.
func (a *Axis) SetLabelOffset(v string) error { return a.Set(PropLabelOffset, v) }

// Visible reports whether the axis is drawn.
func (a *Axis) Visible() bool { return a.BoolValue(PropVisible) }

// SetVisible patches visible.
func (a *Axis) SetVisible(v bool) error { return a.Set(PropVisible, v) }

func (a *Axis) stringOf(name string) string {
	v, _ := a.StringValue(name)
	return v
}

func (a *Axis) valueOf(name string) any {
	v, _ := a.Get(name)
	return v
}
