package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/specmock/pkg/generator"
	"github.com/getmockd/specmock/pkg/ordered"
	"github.com/getmockd/specmock/pkg/spec"
	"github.com/getmockd/specmock/pkg/validation"
)

// Synthesized is a fully rendered mock response.
type Synthesized struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

// Synthesizer renders the success response of an operation.
type Synthesizer struct {
	gen *generator.Generator
}

// NewSynthesizer returns a Synthesizer generating values with gen.
func NewSynthesizer(gen *generator.Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize builds the response for op. accept is the request's Accept
// header. Errors are generation failures or ctx.Err().
func (s *Synthesizer) Synthesize(ctx context.Context, op *spec.Operation, accept string) (*Synthesized, error) {
	status, resp := op.SuccessResponse()
	out := &Synthesized{Status: status, Header: make(http.Header)}
	if resp == nil {
		return out, nil
	}

	if err := s.headers(ctx, resp, out.Header); err != nil {
		return nil, err
	}

	if status == http.StatusNoContent || status == http.StatusNotModified || resp.Content.Len() == 0 {
		return out, nil
	}

	contentType := Negotiate(accept, resp.Content.Keys())
	mt, _ := resp.Content.Get(contentType)

	value, ok, err := s.value(ctx, mt)
	if err != nil {
		return nil, err
	}
	out.ContentType = concreteType(contentType)
	if !ok {
		return out, nil
	}

	body, err := Serialize(out.ContentType, value)
	if err != nil {
		return nil, fmt.Errorf("serialize %s body: %w", out.ContentType, err)
	}
	out.Body = body
	return out, nil
}

// headers generates every declared header with a schema. Content-Type is
// owned by negotiation.
func (s *Synthesizer) headers(ctx context.Context, resp *spec.Response, h http.Header) error {
	var err error
	resp.Headers.Range(func(name string, hd *spec.Header) bool {
		if hd == nil || hd.Schema == nil || strings.EqualFold(name, "Content-Type") {
			return true
		}
		var v any
		v, err = s.gen.GenerateNamed(ctx, hd.Schema, name)
		if err != nil {
			err = fmt.Errorf("header %s: %w", name, err)
			return false
		}
		h.Set(name, headerValue(v))
		return true
	})
	return err
}

// value picks the body value: the media type example, then the first named
// example, then a generated one. ok is false when there is nothing to send.
func (s *Synthesizer) value(ctx context.Context, mt *spec.MediaType) (any, bool, error) {
	if mt == nil {
		return nil, false, nil
	}
	if mt.HasExample {
		return mt.Example, true, nil
	}
	if _, v, ok := mt.Examples.First(); ok {
		return v, true, nil
	}
	if mt.Schema == nil {
		return nil, false, nil
	}
	v, err := s.gen.Generate(ctx, mt.Schema)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// concreteType replaces wildcard content keys with a type a client can use.
func concreteType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	switch {
	case mt == "*/*", mt == "application/*":
		return "application/json"
	case mt == "text/*":
		return "text/plain"
	case strings.HasSuffix(mt, "/*"):
		return "application/octet-stream"
	}
	return contentType
}

// IsYAML reports whether mediaType is a YAML type.
func IsYAML(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return strings.HasSuffix(mt, "+yaml")
}

// Serialize encodes v for contentType: JSON for JSON types, YAML for YAML
// types, strings as-is and other values as JSON.
func Serialize(contentType string, v any) ([]byte, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(contentType)
	}
	switch {
	case validation.IsJSON(mt):
		return encodeJSON(v)
	case IsYAML(contentType):
		return yaml.Marshal(v)
	}
	switch val := v.(type) {
	case string:
		return []byte(val), nil
	case []byte:
		return val, nil
	case nil:
		return nil, nil
	case bool, int, int64, uint64, float64, json.Number:
		return []byte(fmt.Sprint(val)), nil
	}
	return encodeJSON(v)
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// headerValue renders a generated header value.
func headerValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = headerValue(item)
		}
		return strings.Join(parts, ",")
	case *ordered.Map[any]:
		var parts []string
		val.Range(func(k string, item any) bool {
			parts = append(parts, k, headerValue(item))
			return true
		})
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}
