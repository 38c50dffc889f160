package xplot

import (
	"reflect"
	"strings"
	"testing"
)

func TestSchemaExtendKeepsBaseFirst(t *testing.T) {
	base := MustSchema(Bool("reverse", false), Bool("allow_padding", false))
	derived, err := base.Extend(OptionalNumber("min"), Number("mid_range", 0.8))
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	want := []string{"reverse", "allow_padding", "min", "mid_range"}
	if got := derived.Names(); !reflect.DeepEqual(want, got) {
		t.Fatalf("unexpected order: %v", got)
	}
	if base.Len() != 2 {
		t.Fatalf("extend must not mutate the base, len=%d", base.Len())
	}
	if _, err := base.Extend(Bool("reverse", true)); err == nil {
		t.Fatalf("expected redeclaration error")
	}
}

func TestSchemaValidation(t *testing.T) {
	cases := []struct {
		name     string
		props    []Property
		contains string
	}{
		{"empty name", []Property{Bool("", false)}, "name must not be empty"},
		{"protocol key", []Property{String(KeyModelName, "")}, "shadows a protocol key"},
		{"duplicate", []Property{Bool("a", false), Bool("a", true)}, "declared twice"},
		{"enum without values", []Property{Enum("e", "x")}, "declares no values"},
		{"enum bad default", []Property{Enum("e", "x", "a", "b")}, "is not declared"},
		{"unknown kind", []Property{{Name: "k", Kind: Kind(99)}}, "unknown kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSchema(tc.props...)
			if err == nil || !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("expected error containing %q, got %v", tc.contains, err)
			}
		})
	}
}

func TestMustSchemaPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustSchema(Bool("", false))
}

func TestSchemaDefaultsAndLookup(t *testing.T) {
	schema := sampleSchema()
	defaults := schema.Defaults()
	if defaults["ratio"] != 0.8 || defaults["visible"] != true || defaults["child"] != nil {
		t.Fatalf("unexpected defaults: %v", defaults)
	}
	p, ok := schema.Lookup("orientation")
	if !ok || p.Kind != KindEnum {
		t.Fatalf("unexpected lookup: %+v", p)
	}
	if _, ok := schema.Lookup("nope"); ok {
		t.Fatalf("unexpected lookup hit")
	}
	var nilSchema *Schema
	if nilSchema.Len() != 0 || nilSchema.Names() != nil {
		t.Fatalf("nil schema must be empty")
	}
}

func TestDescriptorGenerator(t *testing.T) {
	m := newSample(t)
	doc, err := m.Describe()
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if doc.Format != SchemaFormatDescriptors {
		t.Fatalf("unexpected format %s", doc.Format)
	}
	fields := doc.Document.([]FieldDescriptor)
	byPath := map[string]string{}
	for _, f := range fields {
		byPath[f.Path] = f.Type
	}
	if byPath["min"] != "?number" || byPath["orientation"] != "enum(horizontal|vertical)" || byPath["child"] != "reference" {
		t.Fatalf("unexpected descriptors: %v", byPath)
	}

	empty, err := DefaultSchemaGenerator().Generate(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := empty.Document.([]FieldDescriptor); len(got) != 0 {
		t.Fatalf("expected empty descriptors, got %v", got)
	}
}

type stubGenerator struct{}

func (stubGenerator) Generate(any) (SchemaDocument, error) {
	return SchemaDocument{Format: SchemaFormatOpenAPI, Document: "stub"}, nil
}

func TestWithSchemaGenerator(t *testing.T) {
	m := newSample(t, WithSchemaGenerator(stubGenerator{}))
	doc, err := m.Describe()
	if err != nil || doc.Document != "stub" {
		t.Fatalf("expected custom generator, got %+v %v", doc, err)
	}
}

func TestReferenceWireForm(t *testing.T) {
	child := newChild(t, WithID("abc"))
	if got := EncodeReference(child); got != "IPY_MODEL_abc" {
		t.Fatalf("unexpected encoding %q", got)
	}
	if EncodeReference(nil) != "" {
		t.Fatalf("nil widget encodes empty")
	}
	for input, want := range map[string]string{"IPY_MODEL_abc": "abc", "IPY_MODEL_": "", "abc": ""} {
		got, ok := ParseReference(input)
		if got != want || ok != (want != "") {
			t.Fatalf("ParseReference(%q) = %q, %v", input, got, ok)
		}
	}
	var nilFunc ResolverFunc
	if _, ok := nilFunc.Lookup("x"); ok {
		t.Fatalf("nil resolver func must not resolve")
	}
}
