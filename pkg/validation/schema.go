package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/specmock/pkg/spec"
)

// ErrInvalidSchema is returned by New when a schema does not compile.
var ErrInvalidSchema = errors.New("invalid schema")

const (
	resourceBase   = "mem://specmock/"
	componentsURL  = resourceBase + "components.json"
	componentsRefs = "#/components/schemas/"
)

// annotationKeywords carry no assertion and are dropped before compiling.
// OpenAPI's `examples` is a map while JSON Schema's is an array.
var annotationKeywords = map[string]bool{
	"example":       true,
	"examples":      true,
	"faker":         true,
	"xml":           true,
	"discriminator": true,
	"externalDocs":  true,
}

// schemaMapKeywords hold a mapping of name to subschema.
var schemaMapKeywords = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"definitions":       true,
	"$defs":             true,
	"dependentSchemas":  true,
}

// schemaListKeywords hold a list of subschemas.
var schemaListKeywords = map[string]bool{
	"allOf":       true,
	"anyOf":       true,
	"oneOf":       true,
	"prefixItems": true,
}

// schemaKeywords hold a single subschema (or, for items, possibly a list).
var schemaKeywords = map[string]bool{
	"items":                 true,
	"additionalItems":       true,
	"additionalProperties":  true,
	"not":                   true,
	"if":                    true,
	"then":                  true,
	"else":                  true,
	"contains":              true,
	"propertyNames":         true,
	"unevaluatedItems":      true,
	"unevaluatedProperties": true,
}

// schemaSet holds the compiled form of every parameter and body schema of a
// document. It is built once and only read afterwards.
type schemaSet struct {
	doc      *spec.Document
	compiled map[*spec.Schema]*jsonschema.Schema
}

// compileSchemas compiles the parameter and request body schemas of every
// operation. OpenAPI 3.0 schemas are checked as draft 4 with `nullable`
// folded into the type; 3.1 schemas as draft 2020-12.
func compileSchemas(doc *spec.Document) (*schemaSet, error) {
	compiler := jsonschema.NewCompiler()
	defsKey := "definitions"
	compiler.Draft = jsonschema.Draft4
	if doc.IsVersion31() {
		compiler.Draft = jsonschema.Draft2020
		defsKey = "$defs"
	}
	compiler.AssertFormat = true
	compiler.Formats = openAPIFormats

	sz := &sanitizer{defsKey: defsKey}
	defs := make(map[string]any)
	doc.Components.Schemas.Range(func(name string, s *spec.Schema) bool {
		defs[name] = sz.schema(s.Raw)
		return true
	})
	if err := addResource(compiler, componentsURL, map[string]any{defsKey: defs}); err != nil {
		return nil, err
	}

	set := &schemaSet{doc: doc, compiled: make(map[*spec.Schema]*jsonschema.Schema)}
	urls := make(map[*spec.Schema]string)
	add := func(s *spec.Schema) error {
		if s == nil {
			return nil
		}
		if _, ok := urls[s]; ok {
			return nil
		}
		url := fmt.Sprintf("%sschema-%d.json", resourceBase, len(urls))
		urls[s] = url
		if err := addResource(compiler, url, sz.schema(s.Raw)); err != nil {
			return fmt.Errorf("%w at %s: %w", ErrInvalidSchema, s.Pointer, err)
		}
		return nil
	}
	for _, op := range doc.Operations {
		for _, p := range op.Parameters {
			if err := add(p.Schema); err != nil {
				return nil, err
			}
		}
		if op.RequestBody == nil {
			continue
		}
		var err error
		op.RequestBody.Content.Range(func(_ string, mt *spec.MediaType) bool {
			err = add(mt.Schema)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
	}

	for s, url := range urls {
		compiled, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %w", ErrInvalidSchema, s.Pointer, err)
		}
		set.compiled[s] = compiled
	}
	return set, nil
}

func addResource(c *jsonschema.Compiler, url string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to add schema resource: %w", err)
	}
	return nil
}

// validate checks v against the compiled form of s, appending field errors
// to result. Schemas that were never compiled (nil, or not part of the
// document) accept everything.
func (ss *schemaSet) validate(s *spec.Schema, v any, field, location string, result *Result) {
	compiled := ss.compiled[s]
	if compiled == nil {
		return
	}
	err := compiled.Validate(v)
	if err == nil {
		return
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		parseSchemaErrors(ve, field, location, result)
		return
	}
	result.AddError(NewSchemaError(field, location, "", err.Error(), nil))
}

// parseSchemaErrors flattens a validation error tree into field errors, one
// per leaf cause.
func parseSchemaErrors(err *jsonschema.ValidationError, field, location string, result *Result) {
	if len(err.Causes) == 0 {
		result.AddError(NewSchemaError(
			joinField(field, extractFieldFromPath(err.InstanceLocation)),
			location,
			codeForKeyword(err.KeywordLocation),
			err.Message,
			nil,
		))
		return
	}
	for _, cause := range err.Causes {
		parseSchemaErrors(cause, field, location, result)
	}
}

// extractFieldFromPath converts a JSON Pointer to dot notation.
func extractFieldFromPath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}

func joinField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	}
	return prefix + "." + field
}

// sanitizer rewrites an OpenAPI schema object into plain JSON Schema.
type sanitizer struct {
	defsKey string
}

func (sz *sanitizer) schema(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		// Boolean schemas and anything malformed pass through; the
		// compiler reports the latter.
		return v
	}

	out := make(map[string]any, len(m))
	for k, val := range m {
		switch {
		case annotationKeywords[k], strings.HasPrefix(k, "x-"), k == "nullable":
		case k == "$ref":
			out[k] = sz.ref(val)
		case schemaMapKeywords[k]:
			out[k] = sz.schemaMap(val)
		case schemaListKeywords[k]:
			out[k] = sz.schemaList(val)
		case schemaKeywords[k]:
			if list, ok := val.([]any); ok {
				out[k] = sz.schemaList(list)
			} else {
				out[k] = sz.schema(val)
			}
		default:
			out[k] = val
		}
	}

	if nullable, _ := m["nullable"].(bool); nullable {
		allowNull(out)
	}
	dropReadOnlyRequired(out)
	return out
}

func (sz *sanitizer) ref(v any) any {
	ref, ok := v.(string)
	if !ok || !strings.HasPrefix(ref, componentsRefs) {
		return v
	}
	return componentsURL + "#/" + sz.defsKey + "/" + strings.TrimPrefix(ref, componentsRefs)
}

func (sz *sanitizer) schemaMap(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, s := range m {
		out[k] = sz.schema(s)
	}
	return out
}

func (sz *sanitizer) schemaList(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = sz.schema(s)
	}
	return out
}

// allowNull widens a schema for OpenAPI 3.0 `nullable: true`.
func allowNull(s map[string]any) {
	switch t := s["type"].(type) {
	case string:
		if t != "null" {
			s["type"] = []any{t, "null"}
		}
	case []any:
		for _, x := range t {
			if x == "null" {
				return
			}
		}
		s["type"] = append(append([]any{}, t...), "null")
	}
	if enum, ok := s["enum"].([]any); ok {
		for _, x := range enum {
			if x == nil {
				return
			}
		}
		s["enum"] = append(append([]any{}, enum...), nil)
	}
}

// dropReadOnlyRequired removes read-only properties from `required`: they
// are never sent by clients.
func dropReadOnlyRequired(s map[string]any) {
	required, ok := s["required"].([]any)
	if !ok {
		return
	}
	props, _ := s["properties"].(map[string]any)
	kept := make([]any, 0, len(required))
	for _, name := range required {
		key, _ := name.(string)
		if p, ok := props[key].(map[string]any); ok {
			if ro, _ := p["readOnly"].(bool); ro {
				continue
			}
		}
		kept = append(kept, name)
	}
	if len(kept) == 0 {
		delete(s, "required")
		return
	}
	s["required"] = kept
}
