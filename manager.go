package xplot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-xplot/pkg/activity"
)

var (
	// ErrWidgetNotFound reports an id the manager does not track.
	ErrWidgetNotFound = errors.New("xplot: widget not found")
	// ErrDuplicateWidget reports two distinct widgets sharing one id.
	ErrDuplicateWidget = errors.New("xplot: duplicate widget id")
)

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	hooks        activity.Hooks
	channel      string
	modelOptions []Option
	programs     ProgramCache
	notebook     string
}

// WithManagerActivityHooks reports opened and closed widgets to hooks. Widgets
// opened through the manager also report property changes to them.
func WithManagerActivityHooks(hooks activity.Hooks) ManagerOption {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *managerConfig) {
		cfg.hooks = normalized
	}
}

// WithManagerChannel sets the activity channel for manager events.
func WithManagerChannel(channel string) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.channel = strings.TrimSpace(channel)
	}
}

// WithManagerNotebook names the notebook the session belongs to. Activity
// events from the manager and its widgets carry it.
func WithManagerNotebook(notebook string) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.notebook = strings.TrimSpace(notebook)
	}
}

// WithManagerProgramCache replaces the program cache shared by widgets the
// manager opens.
func WithManagerProgramCache(cache ProgramCache) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.programs = cache
	}
}

// WithModelOptions appends options passed to every factory call.
func WithModelOptions(opts ...Option) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.modelOptions = append(cfg.modelOptions, opts...)
	}
}

// Manager owns the live widget table of one session and resolves wire
// references against it. Patches are serialised across the whole table and
// snapshot reads wait for them. Activity hooks run while a patch holds the
// table and must not call back into the manager.
type Manager struct {
	registry *Registry
	cfg      managerConfig
	emitter  *activity.Emitter

	patchMu sync.Mutex
	mu      sync.RWMutex
	widgets map[string]Widget
	order   []string
}

// NewManager builds a manager creating widgets through registry.
func NewManager(registry *Registry, opts ...ManagerOption) *Manager {
	cfg := managerConfig{programs: NewMemoryProgramCache()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry: registry,
		cfg:      cfg,
		emitter: activity.NewEmitter(cfg.hooks, activity.Config{
			Enabled:  len(cfg.hooks) > 0,
			Channel:  cfg.channel,
			Notebook: cfg.notebook,
		}),
		widgets: map[string]Widget{},
	}
}

// Registry returns the factory registry.
func (m *Manager) Registry() *Registry { return m.registry }

// Lookup implements Resolver.
func (m *Manager) Lookup(id string) (Widget, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.widgets[id]
	return w, ok
}

// IDs returns tracked ids in the order they were tracked.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Len returns the number of tracked widgets.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.widgets)
}

// Open builds a modelName widget resolving references through the manager,
// applies state as its first patch and tracks it.
func (m *Manager) Open(ctx context.Context, modelName string, state map[string]any, opts ...Option) (Widget, error) {
	m.patchMu.Lock()
	defer m.patchMu.Unlock()
	return m.open(ctx, modelName, state, opts...)
}

func (m *Manager) open(ctx context.Context, modelName string, state map[string]any, opts ...Option) (Widget, error) {
	all := make([]Option, 0, len(m.cfg.modelOptions)+len(opts)+5)
	if m.cfg.programs != nil {
		all = append(all, WithProgramCache(m.cfg.programs))
	}
	all = append(all, m.cfg.modelOptions...)
	if m.emitter.Enabled() {
		all = append(all,
			WithActivityHooks(m.cfg.hooks),
			WithActivityChannel(m.emitter.Channel()),
			WithActivityNotebook(m.emitter.Notebook()),
		)
	}
	all = append(all, WithResolver(m))
	all = append(all, opts...)

	w, err := m.registry.New(modelName, all...)
	if err != nil {
		return nil, err
	}
	if _, exists := m.Lookup(w.ID()); exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateWidget, w.ID())
	}
	if len(state) > 0 {
		if err := applyPatch(ctx, w, state); err != nil {
			return nil, err
		}
	}
	if err := m.track(ctx, w); err != nil {
		return nil, err
	}
	if model := syncModelOf(w); model != nil {
		if err := model.emitPresets(ctx); err != nil {
			return w, err
		}
	}
	return w, nil
}

// Track adds w and every widget it references to the table. Tracking the same
// widget twice is a no-op.
func (m *Manager) Track(ctx context.Context, w Widget) error {
	if w == nil {
		return fmt.Errorf("xplot: cannot track nil widget")
	}
	return m.track(ctx, w)
}

func (m *Manager) track(ctx context.Context, w Widget) error {
	var added []Widget
	err := m.collect(w, &added)
	if err != nil {
		return err
	}
	m.mu.Lock()
	for _, widget := range added {
		m.widgets[widget.ID()] = widget
		m.order = append(m.order, widget.ID())
	}
	m.mu.Unlock()

	var errs []error
	for _, widget := range added {
		event := activity.BuildWidgetOpenedEvent(activity.WidgetEventInput{
			WidgetID:  widget.ID(),
			ModelName: widget.ModelName(),
		})
		if err := m.emitter.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// collect walks references depth first so children are tracked before their
// owners.
func (m *Manager) collect(w Widget, added *[]Widget) error {
	if existing, ok := m.Lookup(w.ID()); ok {
		if existing != w {
			return fmt.Errorf("%w: %s", ErrDuplicateWidget, w.ID())
		}
		return nil
	}
	for _, pending := range *added {
		if pending.ID() == w.ID() {
			return nil
		}
	}
	if model := syncModelOf(w); model != nil {
		for _, child := range model.References() {
			if err := m.collect(child, added); err != nil {
				return err
			}
		}
	}
	*added = append(*added, w)
	return nil
}

// Patch applies patch to the widget id and tracks any widget it now refers
// to.
func (m *Manager) Patch(ctx context.Context, id string, patch map[string]any) error {
	m.patchMu.Lock()
	defer m.patchMu.Unlock()
	w, ok := m.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	if err := applyPatch(ctx, w, patch); err != nil {
		return err
	}
	if model := syncModelOf(w); model != nil {
		for _, child := range model.References() {
			if err := m.track(ctx, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// State returns the snapshot of widget id. It waits for a patch in flight.
func (m *Manager) State(id string) (map[string]any, error) {
	m.patchMu.Lock()
	defer m.patchMu.Unlock()
	w, ok := m.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	return w.State(), nil
}

// Close drops the manager's handle on widget id. Widgets that still hold it
// keep it alive.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	w, ok := m.widgets[id]
	if ok {
		delete(m.widgets, id)
		for i, candidate := range m.order {
			if candidate == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	return m.emitter.Emit(ctx, activity.BuildWidgetClosedEvent(activity.WidgetEventInput{
		WidgetID:  id,
		ModelName: w.ModelName(),
	}))
}

// Export snapshots every tracked widget into a widget-state document. Closed
// widgets still referenced by a tracked one are exported too, so the document
// always imports.
func (m *Manager) Export() WidgetStateDocument {
	m.patchMu.Lock()
	defer m.patchMu.Unlock()
	doc := NewWidgetStateDocument()
	for _, w := range m.reachable() {
		doc.State[w.ID()] = EntryFor(w)
	}
	return doc
}

// reachable returns tracked widgets in table order followed by the untracked
// widgets they reference, depth first.
func (m *Manager) reachable() []Widget {
	m.mu.RLock()
	tracked := make([]Widget, 0, len(m.order))
	for _, id := range m.order {
		tracked = append(tracked, m.widgets[id])
	}
	m.mu.RUnlock()

	seen := make(map[string]bool, len(tracked))
	for _, w := range tracked {
		seen[w.ID()] = true
	}
	out := append([]Widget(nil), tracked...)
	var walk func(w Widget)
	walk = func(w Widget) {
		model := syncModelOf(w)
		if model == nil {
			return
		}
		for _, child := range model.References() {
			if seen[child.ID()] {
				continue
			}
			seen[child.ID()] = true
			out = append(out, child)
			walk(child)
		}
	}
	for _, w := range tracked {
		walk(w)
	}
	return out
}

// Import opens every widget of doc keeping its id. Widgets already tracked are
// patched instead. Entries whose references are not resolvable yet are
// retried until a full pass makes no progress.
func (m *Manager) Import(ctx context.Context, doc WidgetStateDocument) ([]string, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	m.patchMu.Lock()
	defer m.patchMu.Unlock()

	pending := make([]string, 0, len(doc.State))
	for id := range doc.State {
		pending = append(pending, id)
	}
	sort.Strings(pending)

	var imported []string
	for len(pending) > 0 {
		var deferred []string
		var lastErr error
		for _, id := range pending {
			entry := doc.State[id]
			err := m.importEntry(ctx, id, entry)
			if errors.Is(err, ErrUnresolvedReference) {
				deferred = append(deferred, id)
				lastErr = err
				continue
			}
			if err != nil {
				return imported, err
			}
			imported = append(imported, id)
		}
		if len(deferred) == len(pending) {
			return imported, fmt.Errorf("xplot: import stalled on %v: %w", deferred, lastErr)
		}
		pending = deferred
	}
	return imported, nil
}

func (m *Manager) importEntry(ctx context.Context, id string, entry WidgetStateEntry) error {
	if w, ok := m.Lookup(id); ok {
		if w.ModelName() != entry.ModelName {
			return fmt.Errorf("%w: %s is %s, not %s", ErrDuplicateWidget, id, w.ModelName(), entry.ModelName)
		}
		return applyPatch(ctx, w, entry.State)
	}
	opts := []Option{WithID(id)}
	if entry.ModelModule != "" || entry.ModelModuleVersion != "" {
		opts = append(opts, WithModule(ModuleInfo{Module: entry.ModelModule, Version: entry.ModelModuleVersion}))
	}
	_, err := m.open(ctx, entry.ModelName, entry.State, opts...)
	return err
}

type contextPatcher interface {
	ApplyPatchContext(ctx context.Context, patch map[string]any) error
}

func applyPatch(ctx context.Context, w Widget, patch map[string]any) error {
	if p, ok := w.(contextPatcher); ok {
		return p.ApplyPatchContext(ctx, patch)
	}
	return w.ApplyPatch(patch)
}
