package state_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-xplot/pkg/state"
)

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		ref     state.Ref
		want    string
		wantErr bool
	}{
		{name: "complete", ref: state.Ref{Notebook: "analysis", WidgetID: "ax"}, want: "notebook/analysis/widget/ax"},
		{name: "nested notebook", ref: state.Ref{Notebook: "team/q3", WidgetID: "ax"}, want: "notebook/team/q3/widget/ax"},
		{name: "missing notebook", ref: state.Ref{WidgetID: "ax"}, wantErr: true},
		{name: "missing widget", ref: state.Ref{Notebook: "analysis"}, wantErr: true},
		{name: "ambiguous notebook", ref: state.Ref{Notebook: "a/widget/b", WidgetID: "ax"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ref.Identifier()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("identifier: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
			parsed, err := state.ParseIdentifier(got)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if parsed != tc.ref {
				t.Fatalf("expected %+v, got %+v", tc.ref, parsed)
			}
		})
	}
}

func TestParseIdentifierRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "analysis/widget/ax", "notebook/analysis", "notebook//widget/ax", "notebook/analysis/widget/"} {
		if _, err := state.ParseIdentifier(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestMemoryStoreSaveStampsMeta(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[state.Record]()
	record := state.Record{ModelName: "AxisModel", State: map[string]any{"label": "price"}}

	meta, err := store.Save(ctx, axisRef, record, state.Meta{Extra: map[string]string{"origin": "test"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID == "" || meta.ETag == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected stamped meta, got %+v", meta)
	}

	loaded, loadedMeta, ok, err := store.Load(ctx, axisRef)
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if !reflect.DeepEqual(record, loaded) {
		t.Fatalf("expected %#v, got %#v", record, loaded)
	}
	if !reflect.DeepEqual(meta, loadedMeta) {
		t.Fatalf("expected meta %+v, got %+v", meta, loadedMeta)
	}

	loadedMeta.Extra["origin"] = "mutated"
	_, again, _, _ := store.Load(ctx, axisRef)
	if again.Extra["origin"] != "test" {
		t.Fatalf("expected stored meta to be isolated, got %q", again.Extra["origin"])
	}
}

func TestMemoryStoreETag(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[state.Record]()
	first, err := store.Save(ctx, axisRef, state.Record{ModelName: "AxisModel"}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := store.Save(ctx, axisRef, state.Record{ModelName: "AxisModel"}, state.Meta{SnapshotID: first.SnapshotID, ETag: first.ETag})
	if err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("expected a fresh etag")
	}
	if second.SnapshotID != first.SnapshotID {
		t.Fatalf("expected snapshot id to carry over")
	}

	_, err = store.Save(ctx, axisRef, state.Record{ModelName: "AxisModel"}, state.Meta{ETag: first.ETag})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[state.Record]()
	for _, ref := range []state.Ref{
		{Notebook: "analysis", WidgetID: "scale"},
		{Notebook: "analysis", WidgetID: "ax"},
		{Notebook: "other", WidgetID: "ax"},
	} {
		if _, err := store.Save(ctx, ref, state.Record{ModelName: "AxisModel"}, state.Meta{}); err != nil {
			t.Fatalf("save %+v: %v", ref, err)
		}
	}

	refs, err := store.List(ctx, "analysis")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []state.Ref{{Notebook: "analysis", WidgetID: "ax"}, {Notebook: "analysis", WidgetID: "scale"}}
	if !reflect.DeepEqual(want, refs) {
		t.Fatalf("expected %+v, got %+v", want, refs)
	}

	if err := store.Delete(ctx, axisRef); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, _ := store.Load(ctx, axisRef); ok {
		t.Fatalf("expected deleted record to be gone")
	}
	if err := store.Delete(ctx, axisRef); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, ok, _ := store.Load(ctx, state.Ref{Notebook: "other", WidgetID: "ax"}); !ok {
		t.Fatalf("expected other notebook untouched")
	}
}
