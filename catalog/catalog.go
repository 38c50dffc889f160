// Package catalog assembles the registry of every model this module ships.
package catalog

import (
	xplot "github.com/goliatone/go-xplot"
	"github.com/goliatone/go-xplot/axis"
	"github.com/goliatone/go-xplot/scale"
)

// Registry returns a registry with the scale and axis factories installed.
func Registry() (*xplot.Registry, error) {
	registry := xplot.NewRegistry()
	for _, register := range []func(*xplot.Registry) error{
		scale.Register,
		axis.Register,
	} {
		if err := register(registry); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// MustRegistry is Registry that panics on error.
func MustRegistry() *xplot.Registry {
	registry, err := Registry()
	if err != nil {
		panic(err)
	}
	return registry
}

// Schemas returns the schema of every concrete model keyed by model name.
func Schemas() map[string]*xplot.Schema {
	return map[string]*xplot.Schema{
		scale.LinearModelName: scale.LinearSchema(),
		scale.LogModelName:    scale.LogSchema(),
		axis.ModelName:        axis.Schema(),
	}
}
