package xplot

import (
	"testing"
)

const sampleModelName = "SampleModel"

func sampleSchema() *Schema {
	return MustSchema(
		Bool("visible", true),
		OptionalNumber("min"),
		OptionalNumber("max"),
		Number("ratio", 0.8),
		Enum("orientation", "horizontal", "horizontal", "vertical"),
		OptionalEnum("side", "bottom", "top"),
		String("label", ""),
		JSON("ticks", nil),
		Object("offset", nil),
		Reference("child", func(w Widget) bool { return w.ModelName() == childModelName }),
	)
}

const childModelName = "ChildModel"

func childSchema() *Schema {
	return MustSchema(
		Bool("reverse", false),
		OptionalNumber("min"),
		OptionalNumber("max"),
		Reference("peer", nil),
	)
}

func newSample(t *testing.T, opts ...Option) *Model {
	t.Helper()
	m, err := NewModel(ModelSpec{ModelName: sampleModelName, ViewName: "Sample", Schema: sampleSchema()}, opts...)
	if err != nil {
		t.Fatalf("new sample: %v", err)
	}
	return m
}

func newChild(t *testing.T, opts ...Option) *Model {
	t.Helper()
	m, err := NewModel(ModelSpec{ModelName: childModelName, ViewName: "Child", Schema: childSchema()}, opts...)
	if err != nil {
		t.Fatalf("new child: %v", err)
	}
	return m
}

type widgetTable map[string]Widget

func (w widgetTable) Lookup(id string) (Widget, bool) {
	found, ok := w[id]
	return found, ok
}

type mapCache struct {
	entries map[string]any
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]any{}}
}

func (c *mapCache) Get(key string) (any, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(key string, value any) {
	c.sets++
	c.entries[key] = value
}
