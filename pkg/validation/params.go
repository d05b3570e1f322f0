package validation

import (
	"encoding/json"
	"strings"

	"github.com/getmockd/specmock/pkg/spec"
)

// Parameter styles.
const (
	StyleSimple         = "simple"
	StyleLabel          = "label"
	StyleMatrix         = "matrix"
	StyleForm           = "form"
	StyleSpaceDelimited = "spaceDelimited"
	StylePipeDelimited  = "pipeDelimited"
	StyleDeepObject     = "deepObject"
)

// coercer turns raw parameter strings into JSON values shaped by the
// parameter's schema, so they can be checked by the compiled schema.
// Values that do not parse are left as strings and fail the type check.
type coercer struct {
	doc *spec.Document
}

// shape resolves references and looks through allOf for the keywords that
// drive coercion.
func (c coercer) shape(s *spec.Schema) *spec.Schema {
	if s == nil {
		return nil
	}
	if s.Ref != "" && c.doc != nil {
		if target, err := c.doc.ResolveSchema(s); err == nil {
			s = target
		}
	}
	if len(s.Types) > 0 || len(s.AllOf) == 0 {
		return s
	}
	for _, member := range s.AllOf {
		if m := c.shape(member); m != nil && len(m.Types) > 0 {
			return m
		}
	}
	return s
}

// kind returns the container type of s: "array", "object" or "" for scalars.
func (c coercer) kind(s *spec.Schema) string {
	s = c.shape(s)
	if s == nil {
		return ""
	}
	for _, t := range s.Types {
		if t == "array" || t == "object" {
			return t
		}
	}
	if len(s.Types) == 0 {
		switch {
		case s.Items != nil:
			return "array"
		case s.Properties.Len() > 0:
			return "object"
		}
	}
	return ""
}

// scalar coerces one raw value. Candidate types are tried in the order
// integer, number, boolean; a string type accepts anything.
func (c coercer) scalar(s *spec.Schema, raw string) any {
	s = c.shape(s)
	if s == nil {
		return raw
	}
	types := s.Types
	if len(types) == 0 {
		switch {
		case s.Minimum != nil, s.Maximum != nil, s.MultipleOf != nil:
			types = []string{"number"}
		default:
			return raw
		}
	}
	has := func(t string) bool {
		for _, x := range types {
			if x == t {
				return true
			}
		}
		return false
	}
	if (has("integer") || has("number")) && isJSONNumber(raw) {
		return json.Number(raw)
	}
	if has("boolean") && (raw == "true" || raw == "false") {
		return raw == "true"
	}
	if has("null") && (raw == "" || raw == "null") && !has("string") {
		return nil
	}
	return raw
}

// array coerces a list of raw items.
func (c coercer) array(s *spec.Schema, raws []string) []any {
	var items *spec.Schema
	if sh := c.shape(s); sh != nil {
		items = sh.Items
	}
	out := make([]any, len(raws))
	for i, raw := range raws {
		out[i] = c.scalar(items, raw)
	}
	return out
}

// object coerces name/value pairs using the property schemas.
func (c coercer) object(s *spec.Schema, pairs [][2]string) map[string]any {
	sh := c.shape(s)
	out := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		out[kv[0]] = c.scalar(c.property(sh, kv[0]), kv[1])
	}
	return out
}

func (c coercer) property(s *spec.Schema, name string) *spec.Schema {
	if s == nil {
		return nil
	}
	if ps, ok := s.Properties.Get(name); ok {
		return ps
	}
	return s.AdditionalProperties
}

// value coerces a parameter whose serialized form is a single string, as
// used by path, header and cookie parameters and by non-exploded query
// parameters. sep separates array items and object members.
func (c coercer) value(p *spec.Parameter, raw, sep string) any {
	switch c.kind(p.Schema) {
	case "array":
		if raw == "" {
			return []any{}
		}
		return c.array(p.Schema, strings.Split(raw, sep))
	case "object":
		return c.object(p.Schema, pairs(raw, sep, p.Explode))
	}
	return c.scalar(p.Schema, raw)
}

// pairs splits an object serialization. Exploded objects use "k=v" members,
// others alternate keys and values.
func pairs(raw, sep string, explode bool) [][2]string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	var out [][2]string
	if explode {
		for _, part := range parts {
			k, v, _ := strings.Cut(part, "=")
			out = append(out, [2]string{k, v})
		}
		return out
	}
	for i := 0; i < len(parts); i += 2 {
		kv := [2]string{parts[i], ""}
		if i+1 < len(parts) {
			kv[1] = parts[i+1]
		}
		out = append(out, kv)
	}
	return out
}

// pathValue strips the label or matrix prefix from a path segment value and
// returns the remainder with the item separator of its style.
func pathValue(p *spec.Parameter, raw string) (string, string) {
	switch p.Style {
	case StyleLabel:
		raw = strings.TrimPrefix(raw, ".")
		if p.Explode {
			return raw, "."
		}
		return raw, ","
	case StyleMatrix:
		raw = strings.TrimPrefix(raw, ";")
		if p.Explode {
			// ;id=1;id=2 for arrays, ;a=1;b=2 for objects
			prefix := p.Name + "="
			parts := strings.Split(raw, ";")
			for i, part := range parts {
				parts[i] = strings.TrimPrefix(part, prefix)
			}
			return strings.Join(parts, ";"), ";"
		}
		return strings.TrimPrefix(raw, p.Name+"="), ","
	}
	return raw, ","
}

// isJSONNumber reports whether raw is a JSON number literal.
func isJSONNumber(raw string) bool {
	if raw == "" || !(raw[0] == '-' || isDigit(raw[0])) || !isDigit(raw[len(raw)-1]) {
		return false
	}
	return json.Valid([]byte(raw))
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
