package state_test

import (
	"context"
	"reflect"
	"testing"

	xplot "github.com/goliatone/go-xplot"
	"github.com/goliatone/go-xplot/axis"
	"github.com/goliatone/go-xplot/catalog"
	"github.com/goliatone/go-xplot/pkg/state"
	"github.com/goliatone/go-xplot/scale"
)

func openNotebook(t *testing.T) *xplot.Manager {
	t.Helper()
	ctx := context.Background()
	manager := xplot.NewManager(catalog.MustRegistry())
	s, err := manager.Open(ctx, scale.LinearModelName, map[string]any{
		scale.PropMin: 2.0,
		scale.PropMax: 8.0,
	}, xplot.WithID("x-scale"))
	if err != nil {
		t.Fatalf("open scale: %v", err)
	}
	if _, err := manager.Open(ctx, axis.ModelName, map[string]any{
		axis.PropScale: xplot.EncodeReference(s),
		axis.PropLabel: "price",
	}, xplot.WithID("ax")); err != nil {
		t.Fatalf("open axis: %v", err)
	}
	return manager
}

func TestSaveAndRestoreNotebook(t *testing.T) {
	ctx := context.Background()
	source := openNotebook(t)
	store := state.NewMemoryStore[state.Record]()

	saved, err := state.Save(ctx, store, "analysis", source)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved) != source.Len() {
		t.Fatalf("expected %d saved refs, got %d", source.Len(), len(saved))
	}

	target := xplot.NewManager(catalog.MustRegistry())
	imported, err := state.Restore(ctx, store, "analysis", target)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("expected 2 imported widgets, got %v", imported)
	}
	for _, id := range []string{"x-scale", "ax"} {
		want, _ := source.State(id)
		got, err := target.State(id)
		if err != nil {
			t.Fatalf("state %s: %v", id, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("state mismatch for %s:\nwant: %#v\n got: %#v", id, want, got)
		}
	}

	w, _ := target.Lookup("ax")
	restored, ok := w.(*axis.Axis)
	if !ok {
		t.Fatalf("expected *axis.Axis, got %T", w)
	}
	if restored.Scale().ID() != "x-scale" {
		t.Fatalf("expected restored axis to share x-scale, got %s", restored.Scale().ID())
	}
}

func TestSaveDropsClosedWidgets(t *testing.T) {
	ctx := context.Background()
	manager := openNotebook(t)
	store := state.NewMemoryStore[state.Record]()
	if _, err := state.Save(ctx, store, "analysis", manager); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := manager.Close(ctx, "ax"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := state.Save(ctx, store, "analysis", manager); err != nil {
		t.Fatalf("second save: %v", err)
	}

	refs, err := store.List(ctx, "analysis")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 1 || refs[0].WidgetID != "x-scale" {
		t.Fatalf("expected only x-scale to remain, got %+v", refs)
	}
}

func TestSaveKeepsClosedScaleHeldByAxis(t *testing.T) {
	ctx := context.Background()
	source := openNotebook(t)
	if err := source.Close(ctx, "x-scale"); err != nil {
		t.Fatalf("close scale: %v", err)
	}
	store := state.NewMemoryStore[state.Record]()
	saved, err := state.Save(ctx, store, "analysis", source)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want := []state.Ref{
		{Notebook: "analysis", WidgetID: "ax"},
		{Notebook: "analysis", WidgetID: "x-scale"},
	}
	if !reflect.DeepEqual(saved, want) {
		t.Fatalf("unexpected saved refs: %+v", saved)
	}

	target := xplot.NewManager(catalog.MustRegistry())
	if _, err := state.Restore(ctx, store, "analysis", target); err != nil {
		t.Fatalf("restore: %v", err)
	}
	w, _ := target.Lookup("ax")
	restored, ok := w.(*axis.Axis)
	if !ok {
		t.Fatalf("expected *axis.Axis, got %T", w)
	}
	if restored.Scale().ID() != "x-scale" {
		t.Fatalf("expected restored axis on x-scale, got %s", restored.Scale().ID())
	}
}

func TestLoadBuildsWidgetStateDocument(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[state.Record]()
	if _, err := state.Save(ctx, store, "analysis", openNotebook(t)); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, err := state.Load(ctx, store, "analysis")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	entry := doc.State["ax"]
	if entry.ModelName != axis.ModelName || entry.ModelModule != xplot.DefaultModule {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.State[axis.PropScale] != "IPY_MODEL_x-scale" {
		t.Fatalf("expected scale reference, got %v", entry.State[axis.PropScale])
	}
}
