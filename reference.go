package xplot

import "strings"

// ReferencePrefix marks a widget handle on the wire.
const ReferencePrefix = "IPY_MODEL_"

// Resolver finds live widgets by id when a patch carries a reference.
type Resolver interface {
	Lookup(id string) (Widget, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id string) (Widget, bool)

// Lookup implements Resolver.
func (f ResolverFunc) Lookup(id string) (Widget, bool) {
	if f == nil {
		return nil, false
	}
	return f(id)
}

// EncodeReference returns the wire form of a widget handle.
func EncodeReference(w Widget) string {
	if w == nil {
		return ""
	}
	return ReferencePrefix + w.ID()
}

// ParseReference extracts the widget id from a wire reference.
func ParseReference(value string) (string, bool) {
	if !strings.HasPrefix(value, ReferencePrefix) {
		return "", false
	}
	id := strings.TrimPrefix(value, ReferencePrefix)
	if id == "" {
		return "", false
	}
	return id, true
}
