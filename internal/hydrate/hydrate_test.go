package hydrate

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type axisView struct {
	Orientation string         `json:"orientation"`
	Label       string         `json:"label"`
	Visible     bool           `json:"visible"`
	NumTicks    *float64       `json:"num_ticks"`
	Offset      map[string]any `json:"offset"`
	Scale       string         `json:"scale"`
}

func axisSnapshot() map[string]any {
	return map[string]any{
		"_model_name":  "AxisModel",
		"_view_module": "bqplot",
		"orientation":  "vertical",
		"label":        "price",
		"visible":      true,
		"num_ticks":    nil,
		"offset":       map[string]any{"value": 0.5},
		"scale":        "IPY_MODEL_scale-1",
	}
}

func TestDecoderDecodesSnapshot(t *testing.T) {
	ctx := Context{WidgetID: "axis-1", ModelName: "AxisModel"}
	got, err := NewDecoder[axisView]().Decode(ctx, axisSnapshot())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := axisView{
		Orientation: "vertical",
		Label:       "price",
		Visible:     true,
		Offset:      map[string]any{"value": 0.5},
		Scale:       "IPY_MODEL_scale-1",
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestDecoderStripsProtocolKeysUnlessKept(t *testing.T) {
	ctx := Context{WidgetID: "axis-1"}
	strict := NewDecoder[axisView](WithDisallowUnknownFields[axisView]())
	if _, err := strict.Decode(ctx, axisSnapshot()); err != nil {
		t.Fatalf("expected protocol keys stripped, got %v", err)
	}

	keep := NewDecoder[axisView](WithDisallowUnknownFields[axisView](), WithProtocolKeys[axisView]())
	_, err := keep.Decode(ctx, axisSnapshot())
	if err == nil || !strings.Contains(err.Error(), "_model_name") && !strings.Contains(err.Error(), "_view_module") {
		t.Fatalf("expected unknown protocol field error, got %v", err)
	}
}

func TestDecoderUseNumber(t *testing.T) {
	type numeric struct {
		Min any `json:"min"`
	}
	got, err := NewDecoder[numeric](WithUseNumber[numeric]()).Decode(Context{}, map[string]any{"min": 2.5})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.Min.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", got.Min)
	}
}

func TestDecoderHooks(t *testing.T) {
	pre := func(_ Context, payload map[string]any) (map[string]any, error) {
		payload["label"] = strings.ToUpper(payload["label"].(string))
		return payload, nil
	}
	post := func(ctx Context, v *axisView) error {
		v.Scale = strings.TrimPrefix(v.Scale, "IPY_MODEL_")
		return nil
	}
	snapshot := axisSnapshot()
	got, err := NewDecoder[axisView](
		WithPreHook[axisView](pre),
		WithPostHook[axisView](post),
	).Decode(Context{WidgetID: "axis-1"}, snapshot)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Label != "PRICE" || got.Scale != "scale-1" {
		t.Fatalf("hooks not applied: %#v", got)
	}
	if snapshot["label"] != "price" {
		t.Fatalf("expected snapshot untouched, got %v", snapshot["label"])
	}
}

func TestDecoderReferenceIDs(t *testing.T) {
	type figureView struct {
		Axes  []string `json:"axes"`
		Scale string   `json:"scale"`
		Label string   `json:"label"`
	}
	snapshot := map[string]any{
		"axes":  []any{"IPY_MODEL_ax-x", "IPY_MODEL_ax-y"},
		"scale": "IPY_MODEL_scale-1",
		"label": "IPY_MODEL_",
	}
	got, err := NewDecoder[figureView](WithReferenceIDs[figureView]("IPY_MODEL_")).Decode(Context{WidgetID: "fig"}, snapshot)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := figureView{Axes: []string{"ax-x", "ax-y"}, Scale: "scale-1", Label: "IPY_MODEL_"}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("want %#v, got %#v", want, got)
	}
	if snapshot["axes"].([]any)[0] != "IPY_MODEL_ax-x" {
		t.Fatalf("expected caller snapshot untouched")
	}
}

func TestDecoderErrors(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name     string
		decoder  *Decoder[axisView]
		snapshot map[string]any
		contains string
	}{
		{
			name:     "nil snapshot",
			decoder:  NewDecoder[axisView](),
			contains: "snapshot is nil",
		},
		{
			name: "pre hook",
			decoder: NewDecoder[axisView](WithPreHook[axisView](func(Context, map[string]any) (map[string]any, error) {
				return nil, boom
			})),
			snapshot: axisSnapshot(),
			contains: "pre-hook",
		},
		{
			name: "post hook",
			decoder: NewDecoder[axisView](WithPostHook[axisView](func(Context, *axisView) error {
				return boom
			})),
			snapshot: axisSnapshot(),
			contains: "post-hook",
		},
		{
			name:     "type mismatch",
			decoder:  NewDecoder[axisView](),
			snapshot: map[string]any{"visible": "yes"},
			contains: "hydrate: decode",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.decoder.Decode(Context{WidgetID: "axis-1", ModelName: "AxisModel"}, tc.snapshot)
			if err == nil || !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("expected error containing %q, got %v", tc.contains, err)
			}
		})
	}
}
