package scale

import (
	xplot "github.com/goliatone/go-xplot"
)

// Log is a scale mapping its domain logarithmically onto the range.
type Log struct {
	base
}

// NewLog builds a log scale with declared defaults. Pair it with
// PositiveConstraint to reject bounds a logarithm cannot take.
func NewLog(opts ...xplot.Option) (*Log, error) {
	m, err := xplot.NewModel(xplot.ModelSpec{
		ModelName: LogModelName,
		ViewName:  LogViewName,
		Schema:    logSchema,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Log{base{m}}, nil
}
