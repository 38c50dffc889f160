// Package openapi renders widget schemas as OpenAPI 3 documents: one
// component per model and a patch operation addressing a widget by id.
package openapi

import (
	"fmt"
	"regexp"
	"sort"

	xplot "github.com/goliatone/go-xplot"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI schema generator.
func NewGenerator(opts ...GeneratorOption) xplot.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option returns an xplot.Option that wires the OpenAPI generator into a model.
func Option(opts ...GeneratorOption) xplot.Option {
	return xplot.WithSchemaGenerator(NewGenerator(opts...))
}

// modelSchema is one component to publish. ModelName and ViewName are empty
// for a bare schema.
type modelSchema struct {
	Component string
	ModelName string
	ViewName  string
	Schema    *xplot.Schema
}

type modelNamer interface {
	ModelName() string
}

type viewNamer interface {
	ViewName() string
}

// Generate accepts nil, a *xplot.Schema, a schema owner such as a model, or a
// map of model name to schema.
func (g generator) Generate(value any) (xplot.SchemaDocument, error) {
	models, err := g.collect(value)
	if err != nil {
		return xplot.SchemaDocument{}, err
	}
	document, err := newDocumentBuilder(g.config, models).build()
	if err != nil {
		return xplot.SchemaDocument{}, err
	}
	return xplot.SchemaDocument{
		Format:   xplot.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}

func (g generator) collect(value any) ([]modelSchema, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case map[string]*xplot.Schema:
		names := make([]string, 0, len(typed))
		for name := range typed {
			names = append(names, name)
		}
		sort.Strings(names)
		models := make([]modelSchema, 0, len(names))
		for _, name := range names {
			if typed[name] == nil {
				return nil, fmt.Errorf("openapi: schema for %q is nil", name)
			}
			models = append(models, modelSchema{Component: name, ModelName: name, Schema: typed[name]})
		}
		return models, nil
	case *xplot.Schema:
		if typed == nil {
			return nil, nil
		}
		return []modelSchema{{Component: g.config.rootComponent, Schema: typed}}, nil
	case xplot.SchemaOwner:
		model := modelSchema{Component: g.config.rootComponent, Schema: typed.PropertySchema()}
		if named, ok := value.(modelNamer); ok && named.ModelName() != "" {
			model.Component = named.ModelName()
			model.ModelName = named.ModelName()
		}
		if named, ok := value.(viewNamer); ok {
			model.ViewName = named.ViewName()
		}
		if model.Schema == nil {
			return nil, nil
		}
		return []modelSchema{model}, nil
	default:
		return nil, fmt.Errorf("openapi: unsupported schema source %T", value)
	}
}

var referencePattern = "^" + regexp.QuoteMeta(xplot.ReferencePrefix) + ".+$"

// propertySchema maps one declaration and its wire default onto JSON Schema.
func propertySchema(p xplot.Property, def any) map[string]any {
	var out map[string]any
	switch p.Kind {
	case xplot.KindBool:
		out = map[string]any{"type": "boolean"}
	case xplot.KindNumber:
		out = map[string]any{"type": "number"}
	case xplot.KindString:
		out = map[string]any{"type": "string"}
	case xplot.KindEnum:
		values := make([]any, 0, len(p.Enum)+1)
		for _, v := range p.Enum {
			values = append(values, v)
		}
		if p.Optional {
			values = append(values, nil)
		}
		out = map[string]any{"type": "string", "enum": values}
	case xplot.KindJSON:
		out = map[string]any{"description": "Any JSON value."}
	case xplot.KindObject:
		out = map[string]any{"type": "object", "additionalProperties": true}
	case xplot.KindReference:
		return map[string]any{
			"type":              "string",
			"pattern":           referencePattern,
			"description":       "Reference to another widget.",
			"x-xplot-reference": true,
		}
	default:
		out = map[string]any{}
	}
	if p.Optional {
		out["nullable"] = true
	}
	if def != nil {
		out["default"] = def
	}
	return out
}

func protocolSchema(model modelSchema) map[string]any {
	readOnly := func(values ...string) map[string]any {
		out := map[string]any{"type": "string", "readOnly": true}
		var enum []any
		for _, v := range values {
			if v != "" {
				enum = append(enum, v)
			}
		}
		if len(enum) > 0 {
			out["enum"] = enum
		}
		return out
	}
	withDefault := func(schema map[string]any, def string) map[string]any {
		schema["default"] = def
		return schema
	}
	return map[string]any{
		xplot.KeyModelName:          readOnly(model.ModelName),
		xplot.KeyViewName:           readOnly(model.ViewName),
		xplot.KeyModelModule:        withDefault(readOnly(), xplot.DefaultModule),
		xplot.KeyModelModuleVersion: withDefault(readOnly(), xplot.DefaultModuleVersion),
		xplot.KeyViewModule:         withDefault(readOnly(), xplot.DefaultModule),
		xplot.KeyViewModuleVersion:  withDefault(readOnly(), xplot.DefaultModuleVersion),
	}
}
