package openapi

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	xplot "github.com/goliatone/go-xplot"
	"github.com/goliatone/go-xplot/axis"
	"github.com/goliatone/go-xplot/catalog"
	"github.com/goliatone/go-xplot/scale"
)

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Plot Service", "2.0.0", WithInfoDescription("plot widgets")),
		WithOperation("/plots/{id}", "PUT", "replacePlot", WithOperationSummary("Replace plot")),
		WithContentType("application/merge-patch+json"),
		WithResponse("200", "Patched"),
		WithRootComponent("Plot"),
		WithoutProtocolKeys(),
	)

	internal, ok := custom.(generator)
	if !ok {
		t.Fatalf("expected generator implementation, got %T", custom)
	}
	cfg := internal.config
	if cfg.openAPIVersion != "3.1.0" {
		t.Fatalf("expected openapi version 3.1.0, got %q", cfg.openAPIVersion)
	}
	if cfg.info.Title != "Plot Service" || cfg.info.Version != "2.0.0" || cfg.info.Description != "plot widgets" {
		t.Fatalf("unexpected info: %+v", cfg.info)
	}
	if cfg.path != "/plots/{id}" || cfg.patch.Method != "put" || cfg.patch.OperationID != "replacePlot" {
		t.Fatalf("unexpected operation %s: %+v", cfg.path, cfg.patch)
	}
	if cfg.patch.Summary != "Replace plot" {
		t.Fatalf("expected summary Replace plot, got %q", cfg.patch.Summary)
	}
	if !cfg.stateEnabled || cfg.state.OperationID != "getWidgetState" {
		t.Fatalf("expected default state operation, got %+v", cfg.state)
	}
	if cfg.contentType != "application/merge-patch+json" {
		t.Fatalf("unexpected content type %q", cfg.contentType)
	}
	if cfg.responses["200"].Description != "Patched" {
		t.Fatalf("expected 200 response, got %+v", cfg.responses)
	}
	if _, exists := cfg.responses["204"]; !exists {
		t.Fatalf("expected default 204 response to remain configured")
	}
	if cfg.rootComponent != "Plot" || cfg.protocolKeys {
		t.Fatalf("unexpected root component %q protocol keys %t", cfg.rootComponent, cfg.protocolKeys)
	}
}

func TestGeneratorCatalog(t *testing.T) {
	doc, err := NewGenerator().Generate(catalog.Schemas())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Format != xplot.SchemaFormatOpenAPI {
		t.Fatalf("expected format %q, got %q", xplot.SchemaFormatOpenAPI, doc.Format)
	}
	document := doc.Document.(map[string]any)
	if err := validateDocument(document); err != nil {
		t.Fatalf("invalid document: %v", err)
	}

	schemas := document["components"].(map[string]any)["schemas"].(map[string]any)
	for _, name := range []string{
		"Axis", "AxisPatch",
		"LinearScale", "LinearScalePatch",
		"LogScale", "LogScalePatch",
	} {
		if _, ok := schemas[name]; !ok {
			t.Fatalf("missing component %s in %v", name, keys(schemas))
		}
	}

	operation := document["paths"].(map[string]any)["/widgets/{id}"].(map[string]any)["patch"].(map[string]any)
	if operation["operationId"] != "patchWidget" {
		t.Fatalf("unexpected operation id %v", operation["operationId"])
	}
	body := operation["requestBody"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	oneOf, ok := body["oneOf"].([]any)
	if !ok || len(oneOf) != 3 {
		t.Fatalf("expected oneOf over 3 patch bodies, got %v", body)
	}

	read := document["paths"].(map[string]any)["/widgets/{id}"].(map[string]any)["get"].(map[string]any)
	if read["operationId"] != "getWidgetState" {
		t.Fatalf("unexpected state operation id %v", read["operationId"])
	}
	snapshot := read["responses"].(map[string]any)["200"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	if refs, ok := snapshot["oneOf"].([]any); !ok || len(refs) != 3 {
		t.Fatalf("expected oneOf over 3 snapshots, got %v", snapshot)
	}
}

func TestGeneratorWithoutStateOperation(t *testing.T) {
	doc, err := NewGenerator(WithoutStateOperation()).Generate(scale.LinearSchema())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	item := doc.Document.(map[string]any)["paths"].(map[string]any)["/widgets/{id}"].(map[string]any)
	if _, ok := item["get"]; ok {
		t.Fatalf("expected no get operation, got %v", keys(item))
	}

	doc, err = NewGenerator(WithStateOperation("readPlot", WithOperationSummary("Read plot"))).Generate(scale.LinearSchema())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	read := doc.Document.(map[string]any)["paths"].(map[string]any)["/widgets/{id}"].(map[string]any)["get"].(map[string]any)
	if read["operationId"] != "readPlot" || read["summary"] != "Read plot" {
		t.Fatalf("unexpected state operation %v", read)
	}
}

func TestGeneratorPropertyMapping(t *testing.T) {
	doc, err := NewGenerator().Generate(catalog.Schemas())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	schemas := doc.Document.(map[string]any)["components"].(map[string]any)["schemas"].(map[string]any)
	axisSchema := schemas["Axis"].(map[string]any)
	props := axisSchema["properties"].(map[string]any)

	cases := map[string]map[string]any{
		axis.PropVisible: {"type": "boolean", "default": true},
		axis.PropLabel:   {"type": "string", "default": ""},
		axis.PropSide: {
			"type":     "string",
			"enum":     []any{"bottom", "top", "left", "right", nil},
			"nullable": true,
		},
		axis.PropGridLines: {
			"type":    "string",
			"enum":    []any{"none", "solid", "dashed"},
			"default": "solid",
		},
		axis.PropScale: {
			"type":              "string",
			"pattern":           "^IPY_MODEL_.+$",
			"description":       "Reference to another widget.",
			"x-xplot-reference": true,
		},
		xplot.KeyModelName: {
			"type":     "string",
			"readOnly": true,
			"enum":     []any{axis.ModelName},
		},
	}
	for name, want := range cases {
		got, ok := props[name].(map[string]any)
		if !ok {
			t.Fatalf("missing property %s", name)
		}
		if !jsonEqual(t, want, got) {
			t.Fatalf("property %s mismatch\nwant: %v\n got: %v", name, want, got)
		}
	}
	if axisSchema["x-xplot-model"] != axis.ModelName {
		t.Fatalf("expected model extension, got %v", axisSchema["x-xplot-model"])
	}

	linear := schemas["LinearScale"].(map[string]any)["properties"].(map[string]any)
	if !jsonEqual(t, map[string]any{"type": "number", "nullable": true}, linear[scale.PropMin]) {
		t.Fatalf("unexpected min schema %v", linear[scale.PropMin])
	}

	patch := schemas["AxisPatch"].(map[string]any)
	if _, ok := patch["required"]; ok {
		t.Fatalf("patch bodies must not require properties")
	}
	if _, ok := patch["properties"].(map[string]any)[xplot.KeyModelName]; ok {
		t.Fatalf("patch bodies must not list protocol keys")
	}
}

func TestGeneratorModelOwner(t *testing.T) {
	a, err := axis.New(Option(WithoutProtocolKeys()))
	if err != nil {
		t.Fatalf("new axis: %v", err)
	}
	doc, err := a.Describe()
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	schemas := doc.Document.(map[string]any)["components"].(map[string]any)["schemas"].(map[string]any)
	component, ok := schemas["Axis"].(map[string]any)
	if !ok {
		t.Fatalf("expected component named after the model, got %v", keys(schemas))
	}
	if _, ok := component["properties"].(map[string]any)[xplot.KeyViewName]; ok {
		t.Fatalf("expected protocol keys to be omitted")
	}
}

func TestGeneratorBareSchema(t *testing.T) {
	doc, err := NewGenerator(WithRootComponent("Range")).Generate(scale.BaseSchema())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	document := doc.Document.(map[string]any)
	schemas := document["components"].(map[string]any)["schemas"].(map[string]any)
	if _, ok := schemas["Range"]; !ok {
		t.Fatalf("expected Range component, got %v", keys(schemas))
	}
	body := document["paths"].(map[string]any)["/widgets/{id}"].(map[string]any)["patch"].(map[string]any)["requestBody"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	if body["$ref"] != "#/components/schemas/RangePatch" {
		t.Fatalf("expected single patch ref, got %v", body)
	}
}

func TestGeneratorNil(t *testing.T) {
	doc, err := NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("Generate(nil) returned error: %v", err)
	}
	document, ok := doc.Document.(map[string]any)
	if !ok {
		t.Fatalf("expected map document, got %T", doc.Document)
	}
	if _, ok := document["components"]; ok {
		t.Fatalf("expected no components for nil input")
	}
	if err := validateDocument(document); err != nil {
		t.Fatalf("nil input produced invalid document: %v", err)
	}

	if _, err := NewGenerator().Generate(42); err == nil {
		t.Fatalf("expected error for unsupported input")
	}
}

func TestGeneratorRejectsPathWithoutID(t *testing.T) {
	_, err := NewGenerator(WithOperation("/widgets", "", "")).Generate(scale.LinearSchema())
	if err == nil {
		t.Fatalf("expected error for path without id parameter")
	}
}

func TestComponentNames(t *testing.T) {
	cases := map[string]string{
		"LinearScaleModel": "LinearScale",
		"Linear Scale":     "Linear_Scale",
		"Model":            "Model",
		"3dModel":          "_3d",
		"":                 "Widget",
	}
	for input, want := range cases {
		if got := componentBase(input); got != want {
			t.Fatalf("componentBase(%q) = %q, want %q", input, got, want)
		}
	}

	set := newComponentSet()
	first, firstPatch := set.publish("AxisModel", map[string]any{}, map[string]any{})
	second, secondPatch := set.publish("Axis", map[string]any{}, map[string]any{})
	if first != componentPrefix+"Axis" || firstPatch != componentPrefix+"AxisPatch" {
		t.Fatalf("unexpected first refs %s %s", first, firstPatch)
	}
	if second != componentPrefix+"Axis2" || secondPatch != componentPrefix+"Axis2Patch" {
		t.Fatalf("expected suffixed refs, got %s %s", second, secondPatch)
	}
}

func TestGeneratorConcurrentAccess(t *testing.T) {
	generator := NewGenerator()
	schemas := catalog.Schemas()

	const goroutines = 16
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			doc, err := generator.Generate(schemas)
			if err != nil {
				t.Errorf("Generate returned error: %v", err)
				return
			}
			if doc.Document == nil {
				t.Errorf("expected document payload")
			}
		}()
	}
	wg.Wait()
}

func jsonEqual(t *testing.T, want, got any) bool {
	t.Helper()
	wantBytes, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	gotBytes, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var a, b any
	_ = json.Unmarshal(wantBytes, &a)
	_ = json.Unmarshal(gotBytes, &b)
	return reflect.DeepEqual(a, b)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
