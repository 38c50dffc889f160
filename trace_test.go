package xplot

import (
	"errors"
	"testing"
)

func TestTraceReportsProvenance(t *testing.T) {
	stack, err := LibraryThemeNotebookUser(
		map[string]any{"label": "library"},
		map[string]any{"label": "theme"},
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	m := newSample(t, WithPreset(stack))

	trace, err := m.Trace("label")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Value != "theme" {
		t.Fatalf("expected effective value theme, got %v", trace.Value)
	}
	names := make([]string, len(trace.Layers))
	for i, layer := range trace.Layers {
		names[i] = layer.Scope.Name
	}
	want := []string{TraceScopePatch, "theme", "library", TraceScopeDefault}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected layer order %v", names)
		}
	}
	source, ok := trace.Source()
	if !ok || source.Scope.Name != "theme" {
		t.Fatalf("expected theme as source, got %+v", source)
	}

	if err := m.Set("label", "mine"); err != nil {
		t.Fatalf("set: %v", err)
	}
	trace, _ = m.Trace("label")
	source, _ = trace.Source()
	if source.Scope.Name != TraceScopePatch || source.Value != "mine" {
		t.Fatalf("expected patch as source, got %+v", source)
	}
}

func TestTraceDefaultOnly(t *testing.T) {
	m := newSample(t)
	trace, err := m.Trace("ratio")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	source, ok := trace.Source()
	if !ok || source.Scope.Name != TraceScopeDefault || source.Value != 0.8 {
		t.Fatalf("expected declared default, got %+v", source)
	}
	if _, err := m.Trace("nope"); !errors.Is(err, ErrUnknownProperty) {
		t.Fatalf("expected unknown property, got %v", err)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	m := newSample(t)
	trace, err := m.Trace("visible")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Property != "visible" || len(decoded.Layers) != len(trace.Layers) || decoded.Value != true {
		t.Fatalf("unexpected decoded trace: %+v", decoded)
	}
	if _, err := TraceFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
