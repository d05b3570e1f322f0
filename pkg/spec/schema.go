package spec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/specmock/pkg/ordered"
)

// ErrUnresolvedRef is returned when a $ref does not point at a known component.
var ErrUnresolvedRef = errors.New("unresolved reference")

// ErrRefCycle is returned, together with ErrUnresolvedRef, when a chain of
// references only leads back to itself.
var ErrRefCycle = errors.New("reference cycle")

const schemaRefPrefix = "#/components/schemas/"

// Schema is a JSON-Schema-like node of the document.
//
// The typed fields serve the generator. Raw holds the node decoded into plain
// JSON values (string-keyed maps, slices, scalars) and serves the validator.
type Schema struct {
	Ref string

	// Types holds `type`; OpenAPI 3.1 documents may declare several.
	Types    []string
	Format   string
	Nullable bool

	Enum     []any
	HasConst bool
	Const    any

	HasDefault bool
	Default    any

	// HasExample distinguishes `example: null` from an absent keyword.
	HasExample bool
	Example    any

	// HasExamples is set when the node carries `examples`. ExamplesMap is the
	// decoded mapping when the value is an object; otherwise it is nil and
	// ExamplesRaw holds whatever was declared.
	HasExamples bool
	ExamplesMap *ordered.Map[any]
	ExamplesRaw any

	// Faker names a locale-aware fake value (`faker` or `x-faker` keyword),
	// e.g. "name.firstName".
	Faker string

	Properties           *ordered.Map[*Schema]
	Required             []string
	AdditionalProperties *Schema
	MinProperties        *int
	MaxProperties        *int

	Items       *Schema
	MinItems    *int
	MaxItems    *int
	UniqueItems bool

	MinLength *int
	MaxLength *int
	Pattern   string

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	AllOf []*Schema
	OneOf []*Schema
	AnyOf []*Schema
	Not   *Schema

	ReadOnly  bool
	WriteOnly bool

	// Pointer is the JSON pointer of this node within the document.
	Pointer string

	// Raw is the node as plain JSON values.
	Raw any
}

// Type returns the first declared non-null type, or "" when untyped.
func (s *Schema) Type() string {
	for _, t := range s.Types {
		if t != "null" {
			return t
		}
	}
	if len(s.Types) > 0 {
		return s.Types[0]
	}
	return ""
}

// IsRequired reports whether name is listed in `required`.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// RefName returns the component name of a local schema reference.
func RefName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, schemaRefPrefix) {
		return "", false
	}
	return unescapePointer(strings.TrimPrefix(ref, schemaRefPrefix)), true
}

// ResolveSchema follows $ref chains until it reaches a concrete schema.
// A chain that loops back on itself without reaching a concrete node is
// reported as an error rather than followed forever.
func (d *Document) ResolveSchema(s *Schema) (*Schema, error) {
	seen := make(map[string]bool)
	for s != nil && s.Ref != "" {
		if seen[s.Ref] {
			return nil, fmt.Errorf("%w: %w: %s refers to itself", ErrUnresolvedRef, ErrRefCycle, s.Ref)
		}
		seen[s.Ref] = true
		name, ok := RefName(s.Ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s (only local component schemas are supported)", ErrUnresolvedRef, s.Ref)
		}
		target, ok := d.Components.Schemas.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedRef, s.Ref)
		}
		s = target
	}
	return s, nil
}

func unescapePointer(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
