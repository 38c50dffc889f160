package xplot

import (
	"encoding/json"
	"fmt"
)

// Version of the widget-state document written by Export.
const (
	WidgetStateVersionMajor = 2
	WidgetStateVersionMinor = 0
)

// WidgetStateDocument is the table notebooks persist to restore widgets.
type WidgetStateDocument struct {
	VersionMajor int                         `json:"version_major"`
	VersionMinor int                         `json:"version_minor"`
	State        map[string]WidgetStateEntry `json:"state"`
}

// WidgetStateEntry is one widget of a WidgetStateDocument.
type WidgetStateEntry struct {
	ModelName          string         `json:"model_name"`
	ModelModule        string         `json:"model_module"`
	ModelModuleVersion string         `json:"model_module_version"`
	State              map[string]any `json:"state"`
}

// NewWidgetStateDocument returns an empty document at the current version.
func NewWidgetStateDocument() WidgetStateDocument {
	return WidgetStateDocument{
		VersionMajor: WidgetStateVersionMajor,
		VersionMinor: WidgetStateVersionMinor,
		State:        map[string]WidgetStateEntry{},
	}
}

// ParseWidgetStateDocument decodes and validates payload.
func ParseWidgetStateDocument(payload []byte) (WidgetStateDocument, error) {
	var doc WidgetStateDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return WidgetStateDocument{}, fmt.Errorf("xplot: widget state: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return WidgetStateDocument{}, err
	}
	return doc, nil
}

// Validate checks the document version and entries.
func (d WidgetStateDocument) Validate() error {
	if d.VersionMajor != WidgetStateVersionMajor {
		return fmt.Errorf("xplot: widget state: unsupported version %d.%d", d.VersionMajor, d.VersionMinor)
	}
	for id, entry := range d.State {
		if id == "" {
			return fmt.Errorf("xplot: widget state: empty widget id")
		}
		if entry.ModelName == "" {
			return fmt.Errorf("xplot: widget state: %s has no model_name", id)
		}
	}
	return nil
}

// EntryFor builds the document entry of w.
func EntryFor(w Widget) WidgetStateEntry {
	state := w.State()
	module, _ := state[KeyModelModule].(string)
	version, _ := state[KeyModelModuleVersion].(string)
	return WidgetStateEntry{
		ModelName:          w.ModelName(),
		ModelModule:        module,
		ModelModuleVersion: version,
		State:              state,
	}
}
