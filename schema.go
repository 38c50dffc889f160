package xplot

import (
	"fmt"
	"strings"
)

// Schema is an ordered set of property declarations. A derived model extends
// its base schema; base properties come first in declaration order.
type Schema struct {
	props []Property
	index map[string]int
}

// NewSchema validates props and builds a schema.
func NewSchema(props ...Property) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(props))}
	if err := s.add(props); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations.
func MustSchema(props ...Property) *Schema {
	s, err := NewSchema(props...)
	if err != nil {
		panic(err)
	}
	return s
}

// Extend returns a new schema holding the receiver's properties followed by
// props. Redeclaring a property is an error.
func (s *Schema) Extend(props ...Property) (*Schema, error) {
	out := &Schema{index: make(map[string]int, s.Len()+len(props))}
	if s != nil {
		if err := out.add(s.props); err != nil {
			return nil, err
		}
	}
	if err := out.add(props); err != nil {
		return nil, err
	}
	return out, nil
}

// MustExtend is Extend for package-level declarations.
func (s *Schema) MustExtend(props ...Property) *Schema {
	out, err := s.Extend(props...)
	if err != nil {
		panic(err)
	}
	return out
}

func (s *Schema) add(props []Property) error {
	for _, p := range props {
		if err := p.validate(); err != nil {
			return err
		}
		if _, exists := s.index[p.Name]; exists {
			return fmt.Errorf("xplot: property %q declared twice", p.Name)
		}
		s.index[p.Name] = len(s.props)
		s.props = append(s.props, p)
	}
	return nil
}

// Lookup returns the declaration for name.
func (s *Schema) Lookup(name string) (Property, bool) {
	if s == nil {
		return Property{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Property{}, false
	}
	return s.props[i], true
}

// Properties returns the declarations in order.
func (s *Schema) Properties() []Property {
	if s == nil {
		return nil
	}
	out := make([]Property, len(s.props))
	copy(out, s.props)
	return out
}

// Names returns the property names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.props))
	for i, p := range s.props {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of declared properties.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.props)
}

// Defaults returns the wire form of every declared default. Reference
// properties are null because their defaults are built by the owning model.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any, s.Len())
	for _, p := range s.Properties() {
		if p.Kind == KindReference {
			out[p.Name] = nil
			continue
		}
		out[p.Name] = p.encode(p.defaultValue())
	}
	return out
}

// FieldDescriptor describes a path and the inferred type.
type FieldDescriptor struct {
	Path string
	Type string
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(value any) (SchemaDocument, error) {
	descriptors := deriveFieldDescriptors(SchemaOf(value))
	if descriptors == nil {
		descriptors = []FieldDescriptor{}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: descriptors,
	}, nil
}

// SchemaOf extracts a schema from a *Schema or a SchemaOwner. Other values
// yield nil.
func SchemaOf(value any) *Schema {
	switch typed := value.(type) {
	case *Schema:
		return typed
	case SchemaOwner:
		return typed.PropertySchema()
	default:
		return nil
	}
}

func deriveFieldDescriptors(schema *Schema) []FieldDescriptor {
	if schema == nil {
		return nil
	}
	fields := make([]FieldDescriptor, 0, schema.Len())
	for _, p := range schema.Properties() {
		fields = append(fields, FieldDescriptor{Path: p.Name, Type: typeName(p)})
	}
	return fields
}

func typeName(p Property) string {
	name := p.Kind.String()
	if p.Kind == KindEnum {
		name = "enum(" + strings.Join(p.Enum, "|") + ")"
	}
	if p.Optional {
		return "?" + name
	}
	return name
}
