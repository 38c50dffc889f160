package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// ErrNotFound reports a ref with no stored snapshot.
var ErrNotFound = errors.New("state: snapshot not found")

// Ref identifies one persisted widget snapshot inside one notebook.
type Ref struct {
	Notebook string
	WidgetID string
}

// Record is the persisted form of one widget, mirroring one entry of the
// widget-state document.
type Record struct {
	ModelName          string         `json:"model_name"`
	ModelModule        string         `json:"model_module,omitempty"`
	ModelModuleVersion string         `json:"model_module_version,omitempty"`
	State              map[string]any `json:"state"`
}

// Validate rejects records that cannot be reopened.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ModelName) == "" {
		return fmt.Errorf("state: record has no model name")
	}
	return nil
}

// Meta is storage-owned metadata used for trace/audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one snapshot per Ref. A non-empty Meta.ETag passed to
// Save must match the stored one or Save fails with ErrETagMismatch.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
	List(ctx context.Context, notebook string) ([]Ref, error)
	Delete(ctx context.Context, ref Ref) error
}

// Resolver runs read-modify-write cycles against a Store.
type Resolver[T any] struct {
	Store Store[T]
	// Validate runs after the mutator and before saving. Snapshots implementing
	// Validate() error are checked as well.
	Validate func(T) error
}

type Mutator[T any] func(*T) error

type validator interface {
	Validate() error
}

const identifierPrefix = "notebook/"

// Identifier returns the canonical storage key of r.
func (r Ref) Identifier() (string, error) {
	notebook := strings.TrimSpace(r.Notebook)
	if notebook == "" {
		return "", fmt.Errorf("state: notebook is required")
	}
	widgetID := strings.TrimSpace(r.WidgetID)
	if widgetID == "" {
		return "", fmt.Errorf("state: widget id is required")
	}
	if strings.Contains(notebook, "/widget/") {
		return "", fmt.Errorf("state: notebook %q must not contain %q", notebook, "/widget/")
	}
	return fmt.Sprintf("%s%s/widget/%s", identifierPrefix, notebook, widgetID), nil
}

// ParseIdentifier reverses Ref.Identifier.
func ParseIdentifier(identifier string) (Ref, error) {
	rest, ok := strings.CutPrefix(identifier, identifierPrefix)
	if !ok {
		return Ref{}, fmt.Errorf("state: identifier %q has no %q prefix", identifier, identifierPrefix)
	}
	notebook, widgetID, ok := strings.Cut(rest, "/widget/")
	if !ok || notebook == "" || widgetID == "" {
		return Ref{}, fmt.Errorf("state: malformed identifier %q", identifier)
	}
	return Ref{Notebook: notebook, WidgetID: widgetID}, nil
}

// Mutate loads one snapshot, applies fn, validates the result, then saves it.
// A missing snapshot starts from the zero value.
func (r Resolver[T]) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if r.Store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return zero, Meta{}, err
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %s/%s: %w", ref.Notebook, ref.WidgetID, err)
	}
	if !ok {
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loadedMeta, err
	}
	if err := r.validate(snapshot); err != nil {
		return zero, loadedMeta, err
	}

	savedMeta, err := r.Store.Save(ctx, ref, snapshot, mergeMeta(loadedMeta, meta))
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("state: save %s/%s: %w", ref.Notebook, ref.WidgetID, err)
	}
	return snapshot, savedMeta, nil
}

func (r Resolver[T]) validate(snapshot T) error {
	if v, ok := any(snapshot).(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if r.Validate != nil {
		return r.Validate(snapshot)
	}
	return nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
