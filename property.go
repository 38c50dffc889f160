package xplot

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/goliatone/go-xplot/layering"
)

// Kind identifies how a property value is decoded from a patch and encoded
// into a snapshot.
type Kind int

const (
	KindBool Kind = iota + 1
	KindNumber
	KindString
	KindEnum
	KindJSON
	KindObject
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindJSON:
		return "json"
	case KindObject:
		return "object"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Property declares one synchronized field: its wire name, kind and default.
//
// Optional properties accept null and report it as unset. Enum lists the
// accepted spellings for KindEnum. Accepts restricts the widgets a
// KindReference property may hold.
type Property struct {
	Name     string
	Kind     Kind
	Optional bool
	Enum     []string
	Default  any
	Accepts  func(Widget) bool
}

// Bool declares a boolean property.
func Bool(name string, def bool) Property {
	return Property{Name: name, Kind: KindBool, Default: def}
}

// Number declares a numeric property stored as float64.
func Number(name string, def float64) Property {
	return Property{Name: name, Kind: KindNumber, Default: def}
}

// OptionalNumber declares a nullable numeric property with no default.
func OptionalNumber(name string) Property {
	return Property{Name: name, Kind: KindNumber, Optional: true}
}

// String declares a string property.
func String(name, def string) Property {
	return Property{Name: name, Kind: KindString, Default: def}
}

// OptionalString declares a nullable string property. A nil def leaves it unset.
func OptionalString(name string, def *string) Property {
	p := Property{Name: name, Kind: KindString, Optional: true}
	if def != nil {
		p.Default = *def
	}
	return p
}

// Enum declares a case-insensitive string enumeration.
func Enum(name, def string, values ...string) Property {
	return Property{Name: name, Kind: KindEnum, Default: def, Enum: values}
}

// OptionalEnum declares a nullable enumeration with no default.
func OptionalEnum(name string, values ...string) Property {
	return Property{Name: name, Kind: KindEnum, Optional: true, Enum: values}
}

// JSON declares an opaque JSON property.
func JSON(name string, def any) Property {
	return Property{Name: name, Kind: KindJSON, Optional: true, Default: def}
}

// Object declares a JSON object property.
func Object(name string, def map[string]any) Property {
	if def == nil {
		def = map[string]any{}
	}
	return Property{Name: name, Kind: KindObject, Default: def}
}

// Reference declares a widget handle. The default is supplied by the owning
// model at construction.
func Reference(name string, accepts func(Widget) bool) Property {
	return Property{Name: name, Kind: KindReference, Accepts: accepts}
}

func (p Property) validate() error {
	if p.Name == "" {
		return fmt.Errorf("xplot: property name must not be empty")
	}
	if IsProtocolKey(p.Name) {
		return fmt.Errorf("xplot: property %q shadows a protocol key", p.Name)
	}
	if p.Kind < KindBool || p.Kind > KindReference {
		return fmt.Errorf("xplot: property %q has unknown kind %d", p.Name, p.Kind)
	}
	if p.Kind == KindEnum {
		if len(p.Enum) == 0 {
			return fmt.Errorf("xplot: enum property %q declares no values", p.Name)
		}
		if def, ok := p.Default.(string); ok {
			if _, ok := p.canonicalEnum(def); !ok {
				return fmt.Errorf("xplot: enum property %q default %q is not declared", p.Name, def)
			}
		} else if !p.Optional {
			return fmt.Errorf("xplot: enum property %q requires a default", p.Name)
		}
	}
	return nil
}

// defaultValue returns a fresh copy of the declared default.
func (p Property) defaultValue() any {
	if p.Default == nil {
		return nil
	}
	return layering.Clone(p.Default)
}

func (p Property) canonicalEnum(value string) (string, bool) {
	for _, allowed := range p.Enum {
		if strings.EqualFold(allowed, value) {
			return allowed, true
		}
	}
	return "", false
}

// decode converts a raw patch value into the stored representation.
func (p Property) decode(raw any, resolver Resolver) (any, error) {
	if raw == nil {
		if p.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s must not be null", ErrTypeMismatch, p.Kind)
	}

	switch p.Kind {
	case KindBool:
		value, ok := raw.(bool)
		if !ok {
			return nil, mismatch(p.Kind, raw)
		}
		return value, nil
	case KindNumber:
		value, ok := toFloat(raw)
		if !ok {
			return nil, mismatch(p.Kind, raw)
		}
		return value, nil
	case KindString:
		value, ok := raw.(string)
		if !ok {
			return nil, mismatch(p.Kind, raw)
		}
		return value, nil
	case KindEnum:
		value, ok := raw.(string)
		if !ok {
			return nil, mismatch(p.Kind, raw)
		}
		canonical, ok := p.canonicalEnum(value)
		if !ok {
			return nil, fmt.Errorf("%w: %q not in %v", ErrInvalidEnum, value, p.Enum)
		}
		return canonical, nil
	case KindObject:
		value, ok := raw.(map[string]any)
		if !ok {
			return nil, mismatch(p.Kind, raw)
		}
		if !finiteTree(value) {
			return nil, fmt.Errorf("%w: non-finite number in object", ErrTypeMismatch)
		}
		return layering.Clone(value), nil
	case KindJSON:
		return normalizeJSON(raw)
	case KindReference:
		return p.decodeReference(raw, resolver)
	default:
		return nil, fmt.Errorf("xplot: unknown kind %d", p.Kind)
	}
}

func (p Property) decodeReference(raw any, resolver Resolver) (any, error) {
	var target Widget
	switch typed := raw.(type) {
	case Widget:
		target = typed
	case string:
		id, ok := ParseReference(typed)
		if !ok {
			return nil, mismatch(p.Kind, raw)
		}
		if resolver == nil {
			return nil, fmt.Errorf("%w: %s (no resolver configured)", ErrUnresolvedReference, typed)
		}
		found, ok := resolver.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedReference, typed)
		}
		target = found
	default:
		return nil, mismatch(p.Kind, raw)
	}
	if p.Accepts != nil && !p.Accepts(target) {
		return nil, fmt.Errorf("%w: %s %s", ErrReferenceRejected, target.ModelName(), target.ID())
	}
	return target, nil
}

// encode converts a stored value into its wire representation.
func (p Property) encode(value any) any {
	if value == nil {
		return nil
	}
	switch p.Kind {
	case KindReference:
		if w, ok := value.(Widget); ok {
			return EncodeReference(w)
		}
		return nil
	case KindJSON, KindObject:
		return layering.Clone(value)
	default:
		return value
	}
}

func mismatch(kind Kind, raw any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, kind, raw)
}

// toFloat accepts every Go numeric type and json.Number. NaN and infinities
// have no JSON form and are rejected.
func toFloat(raw any) (float64, bool) {
	f, ok := numeric(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numeric(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// normalizeJSON round-trips values that are not already plain JSON trees so the
// stored copy never aliases caller memory.
func normalizeJSON(raw any) (any, error) {
	switch raw.(type) {
	case bool, string:
		return raw, nil
	case map[string]any, []any:
		if !finiteTree(raw) {
			return nil, fmt.Errorf("%w: non-finite number in %T", ErrTypeMismatch, raw)
		}
		return layering.Clone(raw), nil
	}
	if f, ok := toFloat(raw); ok {
		return f, nil
	}
	buffer, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	var out any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return out, nil
}

// finiteTree reports whether every number in a JSON tree is finite.
func finiteTree(value any) bool {
	switch v := value.(type) {
	case map[string]any:
		for _, item := range v {
			if !finiteTree(item) {
				return false
			}
		}
	case []any:
		for _, item := range v {
			if !finiteTree(item) {
				return false
			}
		}
	case float64, float32, json.Number:
		_, ok := toFloat(v)
		return ok
	}
	return true
}
