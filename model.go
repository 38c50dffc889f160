package xplot

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/goliatone/go-xplot/layering"
	"github.com/goliatone/go-xplot/pkg/activity"
	"github.com/google/uuid"
)

// ModelSpec names a model family and its property schema.
type ModelSpec struct {
	ModelName string
	ViewName  string
	Schema    *Schema
}

// Model is the synchronized object every widget embeds. It holds one value per
// declared property, applies patches through a single generic routine and
// produces snapshots on demand.
//
// A Model is not safe for concurrent mutation; callers serialise patches.
type Model struct {
	spec         ModelSpec
	id           string
	cfg          modelConfig
	values       map[string]any
	defaults     map[string]any
	explicit     map[string]bool
	preset       map[string]bool
	presets      []*Stack
	presetLayers []Layer
	constraints  []compiledConstraint
	emitter      *activity.Emitter
}

// NewModel builds a model with every property set to its declared default,
// then applies configured presets.
func NewModel(spec ModelSpec, opts ...Option) (*Model, error) {
	if spec.ModelName == "" {
		return nil, fmt.Errorf("xplot: model name is required")
	}
	if spec.Schema == nil {
		return nil, fmt.Errorf("xplot: schema is required for %s", spec.ModelName)
	}
	cfg := applyOptions(opts)
	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}

	m := &Model{
		spec:     spec,
		id:       id,
		cfg:      cfg,
		values:   make(map[string]any, spec.Schema.Len()),
		defaults: make(map[string]any, spec.Schema.Len()),
		explicit: map[string]bool{},
		preset:   map[string]bool{},
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled:  len(cfg.activityHooks) > 0,
			Channel:  cfg.activityChannel,
			Notebook: cfg.activityNotebook,
		}),
	}
	for _, p := range spec.Schema.Properties() {
		m.defaults[p.Name] = p.defaultValue()
		m.values[p.Name] = p.defaultValue()
	}

	constraints, err := m.compileConstraints(cfg.constraints)
	if err != nil {
		return nil, err
	}
	m.constraints = constraints

	for _, stack := range cfg.presets {
		if err := m.applyPreset(stack); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ID returns the model identifier used in references.
func (m *Model) ID() string { return m.id }

// ModelName returns the frontend model class name.
func (m *Model) ModelName() string { return m.spec.ModelName }

// ViewName returns the frontend view class name.
func (m *Model) ViewName() string { return m.spec.ViewName }

// Module returns the frontend module metadata.
func (m *Model) Module() ModuleInfo { return m.cfg.module }

// PropertySchema returns the declarative schema.
func (m *Model) PropertySchema() *Schema { return m.spec.Schema }

// Describe renders the schema with the configured generator.
func (m *Model) Describe() (SchemaDocument, error) {
	generator := m.cfg.schemaGenerator
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	return generator.Generate(m)
}

// Bootstrap installs value as the default of name. It is meant for defaults
// that must be built per instance, such as a fresh child widget. Values already
// set by a preset or a patch are kept.
func (m *Model) Bootstrap(name string, value any) error {
	p, ok := m.spec.Schema.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	decoded, err := p.decode(value, m.cfg.resolver)
	if err != nil {
		return m.patchError(name, value, err)
	}
	m.defaults[name] = decoded
	if !m.explicit[name] && !m.preset[name] {
		m.values[name] = decoded
	}
	return nil
}

// ApplyPatch merges patch into the model. See ApplyPatchContext.
func (m *Model) ApplyPatch(patch map[string]any) error {
	return m.ApplyPatchContext(context.Background(), patch)
}

// ApplyPatchContext decodes every recognised key of patch and commits them
// together. Unknown and protocol keys are ignored. On error nothing is written.
// The patch stays committed when an activity hook fails; the hook error is
// returned.
func (m *Model) ApplyPatchContext(ctx context.Context, patch map[string]any) error {
	start := time.Now()
	decoded, applied, ignored, err := m.decodePatch(patch)
	if err == nil {
		err = m.checkConstraints(decoded)
	}
	if err != nil {
		m.patchLogger().LogPatch(PatchLogEvent{
			Model:    m.spec.ModelName,
			ID:       m.id,
			Ignored:  ignored,
			Duration: time.Since(start),
			Err:      err,
		})
		return err
	}

	changes := m.commit(decoded)
	m.patchLogger().LogPatch(PatchLogEvent{
		Model:    m.spec.ModelName,
		ID:       m.id,
		Applied:  applied,
		Ignored:  ignored,
		Duration: time.Since(start),
	})
	return m.emitChanges(ctx, changes)
}

func (m *Model) decodePatch(patch map[string]any) (map[string]any, []string, []string, error) {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	decoded := make(map[string]any, len(keys))
	var applied, ignored []string
	for _, key := range keys {
		p, ok := m.spec.Schema.Lookup(key)
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		value, err := p.decode(patch[key], m.cfg.resolver)
		if err != nil {
			if m.cfg.enumMode == EnumIgnore && errors.Is(err, ErrInvalidEnum) {
				ignored = append(ignored, key)
				continue
			}
			return nil, nil, ignored, m.patchError(key, patch[key], err)
		}
		decoded[key] = value
		applied = append(applied, key)
	}
	return decoded, applied, ignored, nil
}

type propertyChange struct {
	name     string
	oldValue any
	newValue any
}

func (m *Model) commit(decoded map[string]any) []propertyChange {
	var changes []propertyChange
	for _, name := range m.spec.Schema.Names() {
		value, ok := decoded[name]
		if !ok {
			continue
		}
		old := m.values[name]
		m.values[name] = value
		m.explicit[name] = true
		if !sameValue(old, value) {
			changes = append(changes, propertyChange{name: name, oldValue: old, newValue: value})
		}
	}
	return changes
}

// State returns the full snapshot: protocol keys plus every declared property.
// Unset optionals are null and references use their wire form.
func (m *Model) State() map[string]any {
	state := m.protocolState()
	for _, p := range m.spec.Schema.Properties() {
		state[p.Name] = p.encode(m.values[p.Name])
	}
	return state
}

// StateTree is State with references replaced by the referenced widget's
// snapshot, recursively.
func (m *Model) StateTree() map[string]any {
	return m.stateTree(map[string]bool{})
}

type stateTreeWidget interface {
	stateTree(visited map[string]bool) map[string]any
}

func (m *Model) stateTree(visited map[string]bool) map[string]any {
	visited[m.id] = true
	state := m.protocolState()
	for _, p := range m.spec.Schema.Properties() {
		value := m.values[p.Name]
		if p.Kind != KindReference || value == nil {
			state[p.Name] = p.encode(value)
			continue
		}
		w := value.(Widget)
		switch {
		case visited[w.ID()]:
			state[p.Name] = EncodeReference(w)
		case asTree(w) != nil:
			state[p.Name] = asTree(w).stateTree(visited)
		default:
			state[p.Name] = w.State()
		}
	}
	return state
}

func asTree(w Widget) stateTreeWidget {
	t, _ := w.(stateTreeWidget)
	return t
}

// SyncModel returns the receiver. Widgets that embed *Model expose it through
// promotion so helpers can reach the shared machinery.
func (m *Model) SyncModel() *Model { return m }

func (m *Model) protocolState() map[string]any {
	state := make(map[string]any, m.spec.Schema.Len()+len(protocolKeys))
	state[KeyModelName] = m.spec.ModelName
	state[KeyViewName] = m.spec.ViewName
	state[KeyModelModule] = m.cfg.module.Module
	state[KeyModelModuleVersion] = m.cfg.module.Version
	state[KeyViewModule] = m.cfg.module.Module
	state[KeyViewModuleVersion] = m.cfg.module.Version
	return state
}

// Get returns the stored value of name: bool, float64, string, a copy of a
// JSON tree, a Widget or nil for an unset optional.
func (m *Model) Get(name string) (any, error) {
	p, ok := m.spec.Schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	value := m.values[name]
	if p.Kind == KindJSON || p.Kind == KindObject {
		return layering.Clone(value), nil
	}
	return value, nil
}

// Set applies a single-key patch. Unlike ApplyPatch it rejects undeclared names.
func (m *Model) Set(name string, value any) error {
	if _, ok := m.spec.Schema.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	return m.ApplyPatch(map[string]any{name: value})
}

// Explicit reports whether name was written by a patch.
func (m *Model) Explicit(name string) bool {
	return m.explicit[name]
}

// Reference returns the widget held by a reference property.
func (m *Model) Reference(name string) Widget {
	w, _ := m.values[name].(Widget)
	return w
}

// References returns every widget held by the model in declaration order.
func (m *Model) References() []Widget {
	var out []Widget
	for _, p := range m.spec.Schema.Properties() {
		if p.Kind != KindReference {
			continue
		}
		if w, ok := m.values[p.Name].(Widget); ok {
			out = append(out, w)
		}
	}
	return out
}

// BoolValue returns a boolean property, false when unset.
func (m *Model) BoolValue(name string) bool {
	v, _ := m.values[name].(bool)
	return v
}

// NumberValue returns a numeric property and whether it is set.
func (m *Model) NumberValue(name string) (float64, bool) {
	v, ok := m.values[name].(float64)
	return v, ok
}

// StringValue returns a string or enum property and whether it is set.
func (m *Model) StringValue(name string) (string, bool) {
	v, ok := m.values[name].(string)
	return v, ok
}

func (m *Model) patchError(name string, value any, err error) error {
	return &PatchError{
		Model:    m.spec.ModelName,
		ID:       m.id,
		Property: name,
		Value:    value,
		Err:      err,
	}
}

func (m *Model) patchLogger() PatchLogger {
	if m.cfg.patchLogger != nil {
		return m.cfg.patchLogger
	}
	return noopPatchLogger{}
}

func sameValue(a, b any) bool {
	wa, okA := a.(Widget)
	wb, okB := b.(Widget)
	if okA || okB {
		return okA && okB && wa.ID() == wb.ID()
	}
	return reflect.DeepEqual(a, b)
}
