package xplot

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-xplot/layering"
)

// Scope models a named precedence bucket (library, theme, notebook, user).
// Higher priority values represent stronger layers.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches arbitrary metadata to the scope. The map is copied
// so the resulting Scope remains immutable even if the caller mutates their
// reference.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope with the supplied configuration. Validation is
// deferred to Stack construction.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

// Layer pairs a scope with the partial patch it contributes.
type Layer struct {
	Scope      Scope
	Patch      map[string]any
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID sets the snapshot identifier used for auditing.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer with detached copies of the scope metadata and
// the patch.
func NewLayer(scope Scope, patch map[string]any, opts ...LayerOption) Layer {
	layer := Layer{
		Scope: scope.clone(),
		Patch: layering.Clone(patch),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("scope: name must be provided")
	// ErrDuplicateScopeName indicates Stack construction received multiple
	// layers with the same scope name.
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	// ErrPriorityOrder indicates Stack construction detected duplicate
	// priorities.
	ErrPriorityOrder = errors.New("scope: priorities must be strictly ordered")
)

// Stack is an immutable preset ordered from strongest to weakest layer.
type Stack struct {
	layers []Layer
}

// NewStack validates and sorts the supplied layers so that the strongest scope
// (highest priority) is first.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer := cloneLayer(layer)
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns a copy of the layers, strongest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge resolves the stack into a single patch; stronger layers win and nested
// objects merge key by key.
func (s *Stack) Merge() (map[string]any, error) {
	if s == nil || len(s.layers) == 0 {
		return nil, fmt.Errorf("scope: stack must include at least one layer")
	}
	patches := make([]map[string]any, len(s.layers))
	for i := range s.layers {
		patches[i] = s.layers[i].Patch
	}
	merged := layering.MergePatches(patches...)
	if merged == nil {
		merged = map[string]any{}
	}
	return merged, nil
}

// lookup returns the strongest layer that sets name.
func (s *Stack) lookup(name string) (Layer, any, bool) {
	if s == nil {
		return Layer{}, nil, false
	}
	for _, layer := range s.layers {
		if value, ok := layer.Patch[name]; ok {
			return layer, value, true
		}
	}
	return Layer{}, nil, false
}

// WithPreset applies the merged stack on top of declared defaults when the
// model is built. Several presets apply in order.
func WithPreset(stack *Stack) Option {
	return func(cfg *modelConfig) {
		if stack == nil || stack.Len() == 0 {
			return
		}
		cfg.presets = append(cfg.presets, stack)
	}
}

func (m *Model) applyPreset(stack *Stack) error {
	patch, err := stack.Merge()
	if err != nil {
		return err
	}
	decoded, _, _, err := m.decodePatch(patch)
	if err == nil {
		err = m.checkConstraints(decoded)
	}
	if err != nil {
		return fmt.Errorf("xplot: preset: %w", err)
	}
	for name, value := range decoded {
		m.values[name] = value
		m.preset[name] = true
	}
	m.presets = append(m.presets, stack)
	for _, layer := range stack.layers {
		for key := range layer.Patch {
			if _, ok := m.spec.Schema.Lookup(key); ok {
				m.presetLayers = append(m.presetLayers, cloneLayer(layer))
				break
			}
		}
	}
	return nil
}

func sortedKeys(patch map[string]any) []string {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Scope:      layer.Scope.clone(),
		Patch:      layering.Clone(layer.Patch),
		SnapshotID: layer.SnapshotID,
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
