package state

import (
	"context"
	"fmt"
	"sort"

	"github.com/goliatone/go-xplot"
)

// RecordFromEntry converts one widget-state document entry.
func RecordFromEntry(entry xplot.WidgetStateEntry) Record {
	return Record{
		ModelName:          entry.ModelName,
		ModelModule:        entry.ModelModule,
		ModelModuleVersion: entry.ModelModuleVersion,
		State:              entry.State,
	}
}

// ToEntry converts r back into a widget-state document entry.
func (r Record) ToEntry() xplot.WidgetStateEntry {
	return xplot.WidgetStateEntry{
		ModelName:          r.ModelName,
		ModelModule:        r.ModelModule,
		ModelModuleVersion: r.ModelModuleVersion,
		State:              r.State,
	}
}

// Save writes every widget the manager exports under notebook and deletes
// stored widgets it no longer exports. It returns the saved refs in manager
// order, followed by closed widgets that tracked ones still reference.
func Save(ctx context.Context, store Store[Record], notebook string, manager *xplot.Manager) ([]Ref, error) {
	if store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if manager == nil {
		return nil, fmt.Errorf("state: manager is required")
	}
	existing, err := store.List(ctx, notebook)
	if err != nil {
		return nil, fmt.Errorf("state: list %s: %w", notebook, err)
	}

	doc := manager.Export()
	saved := make([]Ref, 0, len(doc.State))
	for _, id := range exportOrder(manager.IDs(), doc) {
		entry := doc.State[id]
		ref := Ref{Notebook: notebook, WidgetID: id}
		if _, err := store.Save(ctx, ref, RecordFromEntry(entry), Meta{}); err != nil {
			return saved, fmt.Errorf("state: save %s/%s: %w", notebook, id, err)
		}
		saved = append(saved, ref)
	}

	for _, ref := range existing {
		if _, ok := doc.State[ref.WidgetID]; ok {
			continue
		}
		if err := store.Delete(ctx, ref); err != nil {
			return saved, fmt.Errorf("state: delete %s/%s: %w", ref.Notebook, ref.WidgetID, err)
		}
	}
	return saved, nil
}

// Load assembles the widget-state document stored under notebook.
func Load(ctx context.Context, store Store[Record], notebook string) (xplot.WidgetStateDocument, error) {
	doc := xplot.NewWidgetStateDocument()
	if store == nil {
		return doc, fmt.Errorf("state: store is required")
	}
	refs, err := store.List(ctx, notebook)
	if err != nil {
		return doc, fmt.Errorf("state: list %s: %w", notebook, err)
	}
	for _, ref := range refs {
		record, _, ok, err := store.Load(ctx, ref)
		if err != nil {
			return doc, fmt.Errorf("state: load %s/%s: %w", ref.Notebook, ref.WidgetID, err)
		}
		if !ok {
			continue
		}
		doc.State[ref.WidgetID] = record.ToEntry()
	}
	return doc, nil
}

// Restore reopens the widgets stored under notebook in manager and returns
// the imported ids.
func Restore(ctx context.Context, store Store[Record], notebook string, manager *xplot.Manager) ([]string, error) {
	if manager == nil {
		return nil, fmt.Errorf("state: manager is required")
	}
	doc, err := Load(ctx, store, notebook)
	if err != nil {
		return nil, err
	}
	return manager.Import(ctx, doc)
}

func exportOrder(tracked []string, doc xplot.WidgetStateDocument) []string {
	ids := make([]string, 0, len(doc.State))
	seen := make(map[string]bool, len(doc.State))
	for _, id := range tracked {
		if _, ok := doc.State[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	rest := make([]string, 0, len(doc.State)-len(ids))
	for id := range doc.State {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}
