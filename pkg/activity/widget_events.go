package activity

import (
	"strings"
	"time"
)

// Verbs emitted for widget lifecycle and state changes.
const (
	VerbWidgetOpened        = "widget.opened"
	VerbWidgetUpdated       = "widget.updated"
	VerbWidgetClosed        = "widget.closed"
	VerbWidgetPresetApplied = "widget.preset.applied"
)

// Object types attached to widget events.
const (
	ObjectTypeWidget       = "widget"
	ObjectTypeWidgetPreset = "widget.preset"
)

// PresetContext captures the preset scope that produced a value.
type PresetContext struct {
	Name       string
	Label      string
	Priority   int
	Metadata   map[string]any
	SnapshotID string
}

// WidgetEventInput describes the common fields for widget events.
type WidgetEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Notebook   string
	WidgetID   string
	ModelName  string
	Channel    string
	Metadata   map[string]any
	Property   string
	OldValue   any
	NewValue   any
	Preset     PresetContext
	OccurredAt time.Time
}

// BuildWidgetOpenedEvent constructs the event sent when a widget is tracked.
func BuildWidgetOpenedEvent(input WidgetEventInput) Event {
	return buildWidgetEvent(VerbWidgetOpened, ObjectTypeWidget, input)
}

// BuildWidgetUpdatedEvent constructs the event sent for one changed property.
func BuildWidgetUpdatedEvent(input WidgetEventInput) Event {
	return buildWidgetEvent(VerbWidgetUpdated, ObjectTypeWidget, input)
}

// BuildWidgetClosedEvent constructs the event sent when a widget is released.
func BuildWidgetClosedEvent(input WidgetEventInput) Event {
	return buildWidgetEvent(VerbWidgetClosed, ObjectTypeWidget, input)
}

// BuildWidgetPresetAppliedEvent constructs the event sent when a preset layer
// contributes values at construction.
func BuildWidgetPresetAppliedEvent(input WidgetEventInput) Event {
	return buildWidgetEvent(VerbWidgetPresetApplied, ObjectTypeWidgetPreset, input)
}

func buildWidgetEvent(verb, objectType string, input WidgetEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.ModelName != "" {
		set("model_name", input.ModelName)
	}
	if input.Property != "" {
		set("property", input.Property)
	}
	if input.Preset.Name != "" {
		set("preset_name", input.Preset.Name)
		set("preset_priority", input.Preset.Priority)
		if input.Preset.Label != "" {
			set("preset_label", input.Preset.Label)
		}
		if len(input.Preset.Metadata) > 0 {
			set("preset_metadata", cloneMap(input.Preset.Metadata))
		}
	}
	if input.Preset.SnapshotID != "" {
		set("snapshot_id", input.Preset.SnapshotID)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID := strings.TrimSpace(input.WidgetID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Preset.SnapshotID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Notebook:   strings.TrimSpace(input.Notebook),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
