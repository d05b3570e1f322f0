package spec

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/getmockd/specmock/pkg/ordered"
	"gopkg.in/yaml.v3"
)

// schema decodes a schema node. Boolean schemas (3.1) are accepted: true is
// the empty schema, false a schema that admits nothing.
func (d *decoder) schema(n *yaml.Node, ptr string) (*Schema, error) {
	n = deref(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!bool" {
		b, _ := strconv.ParseBool(n.Value)
		s := &Schema{Pointer: ptr, Raw: b}
		if !b {
			s.Not = &Schema{Pointer: ptr + "/not", Raw: map[string]any{}}
		}
		return s, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.fail(ptr, n, errors.New("schema must be a mapping"))
	}

	raw, err := value(n, false)
	if err != nil {
		return nil, d.fail(ptr, n, err)
	}
	s := &Schema{Pointer: ptr, Raw: raw}

	err = each(n, func(key string, v *yaml.Node) error {
		kptr := ptr + "/" + escapePointer(key)
		if err := d.schemaKeyword(s, key, v, kptr); err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				return err
			}
			return d.fail(kptr, v, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *decoder) schemaKeyword(s *Schema, key string, v *yaml.Node, ptr string) error {
	var err error
	switch key {
	case "$ref":
		s.Ref = str(v)
	case "type":
		s.Types = stringList(v)
	case "format":
		s.Format = str(v)
	case "nullable":
		s.Nullable, err = boolean(v)
	case "enum":
		if v.Kind != yaml.SequenceNode {
			return errors.New("enum must be a list")
		}
		var list any
		if list, err = value(v, true); err == nil {
			s.Enum = list.([]any)
		}
	case "const":
		s.HasConst = true
		s.Const, err = value(v, true)
	case "default":
		s.HasDefault = true
		s.Default, err = value(v, true)
	case "example":
		s.HasExample = true
		s.Example, err = value(v, true)
	case "examples":
		s.HasExamples = true
		var ex any
		if ex, err = value(v, true); err == nil {
			if m, ok := ex.(*ordered.Map[any]); ok {
				s.ExamplesMap = m
			} else {
				s.ExamplesRaw = ex
			}
		}
	case "faker", "x-faker":
		s.Faker = fakerName(v)
	case "properties":
		s.Properties = ordered.New[*Schema](len(v.Content) / 2)
		err = each(v, func(name string, pn *yaml.Node) error {
			ps, err := d.schema(pn, ptr+"/"+escapePointer(name))
			if err != nil {
				return err
			}
			s.Properties.Set(name, ps)
			return nil
		})
	case "required":
		// `required: true` on a property is a common authoring slip; only lists count.
		if v.Kind == yaml.SequenceNode {
			s.Required = stringList(v)
		}
	case "additionalProperties":
		if v.Kind == yaml.MappingNode {
			s.AdditionalProperties, err = d.schema(v, ptr)
		}
	case "minProperties":
		s.MinProperties, err = integer(v)
	case "maxProperties":
		s.MaxProperties, err = integer(v)
	case "items":
		switch v.Kind {
		case yaml.SequenceNode:
			if len(v.Content) > 0 {
				s.Items, err = d.schema(v.Content[0], ptr+"/0")
			}
		default:
			s.Items, err = d.schema(v, ptr)
		}
	case "minItems":
		s.MinItems, err = integer(v)
	case "maxItems":
		s.MaxItems, err = integer(v)
	case "uniqueItems":
		s.UniqueItems, err = boolean(v)
	case "minLength":
		s.MinLength, err = integer(v)
	case "maxLength":
		s.MaxLength, err = integer(v)
	case "pattern":
		s.Pattern = str(v)
	case "minimum":
		s.Minimum, err = number(v)
	case "maximum":
		s.Maximum, err = number(v)
	case "exclusiveMinimum":
		s.ExclusiveMinimum, s.Minimum, err = exclusiveBound(v, s.Minimum, true)
	case "exclusiveMaximum":
		s.ExclusiveMaximum, s.Maximum, err = exclusiveBound(v, s.Maximum, false)
	case "multipleOf":
		s.MultipleOf, err = number(v)
	case "allOf":
		s.AllOf, err = d.schemaList(v, ptr)
	case "oneOf":
		s.OneOf, err = d.schemaList(v, ptr)
	case "anyOf":
		s.AnyOf, err = d.schemaList(v, ptr)
	case "not":
		s.Not, err = d.schema(v, ptr)
	case "readOnly":
		s.ReadOnly, err = boolean(v)
	case "writeOnly":
		s.WriteOnly, err = boolean(v)
	}
	return err
}

func (d *decoder) schemaList(n *yaml.Node, ptr string) ([]*Schema, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errors.New("expected a list of schemas")
	}
	out := make([]*Schema, 0, len(n.Content))
	for i, c := range n.Content {
		s, err := d.schema(c, fmt.Sprintf("%s/%d", ptr, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// exclusiveBound handles both spellings: the 3.0 boolean modifier and the
// 3.1 numeric bound. A numeric bound replaces the inclusive one when it is
// tighter.
func exclusiveBound(n *yaml.Node, current *float64, lower bool) (bool, *float64, error) {
	if n.Tag == "!!bool" {
		b, err := boolean(n)
		return b, current, err
	}
	v, err := number(n)
	if err != nil {
		return false, current, err
	}
	if current == nil || (lower && *v >= *current) || (!lower && *v <= *current) {
		return true, v, nil
	}
	return false, current, nil
}

// fakerName accepts `faker: name.firstName` and the json-schema-faker object
// form `faker: {name.firstName: []}`.
func fakerName(n *yaml.Node) string {
	if n.Kind == yaml.MappingNode && len(n.Content) >= 2 {
		return n.Content[0].Value
	}
	return str(n)
}
