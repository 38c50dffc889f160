package xplot

import (
	"encoding/json"
	"fmt"
)

// Trace captures where the effective value of a property comes from.
type Trace struct {
	Property string       `json:"property"`
	Value    any          `json:"value"`
	Layers   []Provenance `json:"layers"`
}

// Provenance details how one layer contributed to a traced property. Layers
// are ordered strongest first: the explicit patch layer, each preset scope and
// finally the declared default.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// Scope names used by Trace for the layers that are not presets.
const (
	TraceScopePatch   = "patch"
	TraceScopeDefault = "default"
)

// Trace reports the provenance of name across the patch layer, the preset
// scopes applied at construction and the declared default.
func (m *Model) Trace(name string) (Trace, error) {
	p, ok := m.spec.Schema.Lookup(name)
	if !ok {
		return Trace{}, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	trace := Trace{
		Property: name,
		Value:    p.encode(m.values[name]),
	}

	patchLayer := Provenance{Scope: Scope{Name: TraceScopePatch, Label: "Patch"}}
	if m.explicit[name] {
		patchLayer.Found = true
		patchLayer.Value = p.encode(m.values[name])
	}
	trace.Layers = append(trace.Layers, patchLayer)

	for i := len(m.presets) - 1; i >= 0; i-- {
		for _, layer := range m.presets[i].layers {
			entry := Provenance{Scope: layer.Scope.clone(), SnapshotID: layer.SnapshotID}
			if value, ok := layer.Patch[name]; ok {
				entry.Found = true
				entry.Value = value
			}
			trace.Layers = append(trace.Layers, entry)
		}
	}

	trace.Layers = append(trace.Layers, Provenance{
		Scope: Scope{Name: TraceScopeDefault, Label: "Declared default"},
		Value: p.encode(m.defaults[name]),
		Found: true,
	})
	return trace, nil
}

// Source returns the strongest layer that supplied a value.
func (t Trace) Source() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
