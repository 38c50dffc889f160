// Package hydrate turns widget snapshots into typed Go structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Context identifies the widget a snapshot was taken from.
type Context struct {
	WidgetID  string
	ModelName string
}

func (c Context) String() string {
	if c.ModelName == "" {
		return c.WidgetID
	}
	return fmt.Sprintf("%s(%s)", c.ModelName, c.WidgetID)
}

// PreHook rewrites the snapshot before it is decoded.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts snapshots into values of T through their JSON encoding.
// Protocol keys (leading underscore) are dropped unless kept explicitly.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	useNumber    bool
	strict       bool
	keepProtocol bool
}

// WithPreHook runs hook on the snapshot copy before decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

// WithPostHook runs hook on the decoded value.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithUseNumber decodes numbers into json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.useNumber = true
	}
}

// WithDisallowUnknownFields rejects snapshot keys T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// WithProtocolKeys keeps the underscore-prefixed protocol keys.
func WithProtocolKeys[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.keepProtocol = true
	}
}

// WithReferenceIDs replaces top-level reference strings carrying prefix with
// the bare widget id, so a field typed string receives "x-scale" rather than
// the wire form.
func WithReferenceIDs[T any](prefix string) DecoderOption[T] {
	return WithPreHook[T](StripReferences(prefix))
}

// StripReferences returns a PreHook that removes prefix from top-level string
// values and from strings held in top-level arrays.
func StripReferences(prefix string) PreHook {
	strip := func(value any) any {
		if s, ok := value.(string); ok && len(s) > len(prefix) && strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
		return value
	}
	return func(_ Context, snapshot map[string]any) (map[string]any, error) {
		if prefix == "" {
			return snapshot, nil
		}
		for key, value := range snapshot {
			if items, ok := value.([]any); ok {
				for i := range items {
					items[i] = strip(items[i])
				}
				continue
			}
			snapshot[key] = strip(value)
		}
		return snapshot, nil
	}
}

// NewDecoder builds a decoder for T.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts snapshot into T. The snapshot is copied first; hooks never
// see the caller's map.
func (d *Decoder[T]) Decode(ctx Context, snapshot map[string]any) (T, error) {
	var zero T
	if snapshot == nil {
		return zero, fmt.Errorf("hydrate: snapshot is nil for %s", ctx)
	}
	payload, err := d.prepare(ctx, snapshot)
	if err != nil {
		return zero, err
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	if d.useNumber {
		decoder.UseNumber()
	}
	if d.strict {
		decoder.DisallowUnknownFields()
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
	}
	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx, err)
		}
	}
	return result, nil
}

// prepare copies the snapshot, drops protocol keys, runs the pre-hooks and
// returns the JSON payload to decode.
func (d *Decoder[T]) prepare(ctx Context, snapshot map[string]any) ([]byte, error) {
	buffer, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("hydrate: encode snapshot for %s: %w", ctx, err)
	}
	if d.keepProtocol && len(d.preHooks) == 0 {
		return buffer, nil
	}
	var current map[string]any
	if err := json.Unmarshal(buffer, &current); err != nil {
		return nil, fmt.Errorf("hydrate: copy snapshot for %s: %w", ctx, err)
	}
	if !d.keepProtocol {
		for key := range current {
			if strings.HasPrefix(key, "_") {
				delete(current, key)
			}
		}
	}
	for _, hook := range d.preHooks {
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}
	buffer, err = json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("hydrate: encode snapshot for %s: %w", ctx, err)
	}
	return buffer, nil
}
