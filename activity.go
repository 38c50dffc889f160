package xplot

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-xplot/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified once per changed property.
// Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *modelConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *modelConfig) {
		cfg.activityChannel = strings.TrimSpace(channel)
	}
}

// WithActivityNotebook stamps notebook on emitted events.
func WithActivityNotebook(notebook string) Option {
	return func(cfg *modelConfig) {
		cfg.activityNotebook = strings.TrimSpace(notebook)
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (m *Model) ActivityHooks() activity.Hooks {
	if m == nil {
		return nil
	}
	return activity.CloneHooks(m.cfg.activityHooks)
}

// Emitter exposes the model's activity emitter so owners such as Manager can
// report lifecycle events on the same hooks.
func (m *Model) Emitter() *activity.Emitter {
	if m == nil {
		return nil
	}
	return m.emitter
}

func (m *Model) emitChanges(ctx context.Context, changes []propertyChange) error {
	if !m.emitter.Enabled() || len(changes) == 0 {
		return nil
	}
	var errs []error
	for _, change := range changes {
		p, _ := m.spec.Schema.Lookup(change.name)
		event := activity.BuildWidgetUpdatedEvent(activity.WidgetEventInput{
			WidgetID:  m.id,
			ModelName: m.spec.ModelName,
			Property:  change.name,
			OldValue:  p.encode(change.oldValue),
			NewValue:  p.encode(change.newValue),
		})
		if err := m.emitter.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// emitPresets reports every preset layer that contributed to the model.
func (m *Model) emitPresets(ctx context.Context) error {
	if !m.emitter.Enabled() {
		return nil
	}
	var errs []error
	for _, layer := range m.presetLayers {
		event := activity.BuildWidgetPresetAppliedEvent(activity.WidgetEventInput{
			WidgetID:  m.id,
			ModelName: m.spec.ModelName,
			Metadata:  map[string]any{"keys": sortedKeys(layer.Patch)},
			Preset: activity.PresetContext{
				Name:       layer.Scope.Name,
				Label:      layer.Scope.Label,
				Priority:   layer.Scope.Priority,
				Metadata:   layer.Scope.Metadata,
				SnapshotID: layer.SnapshotID,
			},
		})
		if err := m.emitter.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
