package xplot

import "github.com/goliatone/go-xplot/internal/hydrate"

// DecodeOptions tunes DecodeState.
type DecodeOptions struct {
	// Strict rejects snapshot properties the target type does not declare.
	Strict bool
	// Tree decodes StateTree instead of State so references arrive as nested
	// objects rather than IPY_MODEL_ strings.
	Tree bool
	// ReferenceIDs hands references to T as bare widget ids. It has no effect
	// with Tree.
	ReferenceIDs bool
}

// DecodeState reads the snapshot of w into T through its JSON encoding.
// Protocol keys are not exposed to T.
func DecodeState[T any](w Widget, opts ...DecodeOptions) (T, error) {
	var cfg DecodeOptions
	if len(opts) > 0 {
		cfg = opts[0]
	}
	var decoderOpts []hydrate.DecoderOption[T]
	if cfg.Strict {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
	if cfg.ReferenceIDs && !cfg.Tree {
		decoderOpts = append(decoderOpts, hydrate.WithReferenceIDs[T](ReferencePrefix))
	}
	snapshot := w.State()
	if cfg.Tree {
		if m := syncModelOf(w); m != nil {
			snapshot = m.StateTree()
		}
	}
	ctx := hydrate.Context{WidgetID: w.ID(), ModelName: w.ModelName()}
	return hydrate.NewDecoder[T](decoderOpts...).Decode(ctx, snapshot)
}

type syncModelOwner interface {
	SyncModel() *Model
}

func syncModelOf(w Widget) *Model {
	if owner, ok := w.(syncModelOwner); ok {
		return owner.SyncModel()
	}
	return nil
}
