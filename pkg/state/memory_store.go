package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store intended for tests, examples and the CLI.
// It uses Ref.Identifier() as its key.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
	now     func() time.Time
}

type memoryRecord[T any] struct {
	ref      Ref
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		records: map[string]memoryRecord[T]{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return record.snapshot, cloneMeta(record.meta), true, nil
}

// Save stores snapshot under ref. The returned meta carries a fresh ETag and
// UpdatedAt; SnapshotID is generated when meta leaves it empty.
func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if meta.ETag != "" {
		if existing, ok := s.records[key]; ok && existing.meta.ETag != meta.ETag {
			return Meta{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, existing.meta.ETag)
		}
	}

	saved := cloneMeta(meta)
	if saved.SnapshotID == "" {
		saved.SnapshotID = uuid.NewString()
	}
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = s.now()
	s.records[key] = memoryRecord[T]{ref: ref, snapshot: snapshot, meta: saved}
	return cloneMeta(saved), nil
}

// List returns the refs stored for notebook ordered by widget id.
func (s *MemoryStore[T]) List(_ context.Context, notebook string) ([]Ref, error) {
	if notebook == "" {
		return nil, fmt.Errorf("state: notebook is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var refs []Ref
	for _, record := range s.records {
		if record.ref.Notebook == notebook {
			refs = append(refs, record.ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].WidgetID < refs[j].WidgetID })
	return refs, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, ref Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.records, key)
	return nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
