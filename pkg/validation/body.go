package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/specmock/pkg/ordered"
	"github.com/getmockd/specmock/pkg/spec"
)

// bodyStep validates the request body against the schema declared for the
// request's content type.
type bodyStep struct {
	schemas  *schemaSet
	coerce   coercer
	maxBytes int64
}

func (s *bodyStep) Name() string { return "body" }

func (s *bodyStep) Validate(_ context.Context, op *spec.Operation, req *Request) *Error {
	rb := op.RequestBody
	if rb == nil {
		return nil
	}

	data, err := s.read(req)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return s.fail(NewTooLargeError(s.maxBytes))
		}
		return s.fail(&FieldError{Location: LocationBody, Code: ErrCodeSchema, Message: "unreadable: " + err.Error()})
	}

	if len(data) == 0 {
		if rb.Required {
			return s.fail(&FieldError{Location: LocationBody, Code: ErrCodeRequired, Message: "body is required", Expected: "a request body"})
		}
		return nil
	}

	contentType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		contentType = "application/octet-stream"
	}
	mt := MatchMediaType(rb.Content, contentType)
	if mt == nil || mt.Schema == nil {
		return nil
	}

	var v any
	switch {
	case IsJSON(contentType):
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return s.fail(NewInvalidJSONError(err.Error()))
		}
		if dec.More() {
			return s.fail(NewInvalidJSONError("unexpected data after top-level value"))
		}
	case contentType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(data))
		if err != nil {
			return s.fail(&FieldError{Location: LocationBody, Code: ErrCodeSchema, Message: "malformed form body: " + err.Error()})
		}
		v = s.form(mt.Schema, form)
	case strings.HasPrefix(contentType, "text/"):
		v = string(data)
	default:
		return nil
	}

	result := &Result{}
	s.schemas.validate(mt.Schema, v, "", LocationBody, result)
	if result.HasErrors() {
		return newStepError(InvalidBody, s.Name(), "request body", result)
	}
	return nil
}

// read consumes the body up to the size limit and puts the bytes back so
// later handlers can read it again.
func (s *bodyStep) read(req *Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(nil, req.Body, s.maxBytes))
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

// form coerces urlencoded fields per property schema. Array properties take
// every value of a repeated field.
func (s *bodyStep) form(schema *spec.Schema, form url.Values) map[string]any {
	sh := s.coerce.shape(schema)
	out := make(map[string]any, len(form))
	for name, values := range form {
		ps := s.coerce.property(sh, name)
		if s.coerce.kind(ps) == "array" {
			out[name] = s.coerce.array(ps, values)
			continue
		}
		out[name] = s.coerce.scalar(ps, values[0])
	}
	return out
}

func (s *bodyStep) fail(fe *FieldError) *Error {
	result := &Result{}
	result.AddError(fe)
	return newStepError(InvalidBody, s.Name(), "request body", result)
}

// MatchMediaType picks the media type declared for contentType: an exact
// match, then a "type/*" range, then "*/*". Parameters of declared keys are
// ignored. Returns nil when nothing matches.
func MatchMediaType(content *ordered.Map[*spec.MediaType], contentType string) *spec.MediaType {
	contentType = strings.ToLower(contentType)
	major, _, _ := strings.Cut(contentType, "/")

	var exact, wildcard, all *spec.MediaType
	content.Range(func(key string, mt *spec.MediaType) bool {
		declared := strings.ToLower(key)
		if parsed, _, err := mime.ParseMediaType(key); err == nil {
			declared = parsed
		}
		switch declared {
		case contentType:
			exact = mt
			return false
		case major + "/*":
			if wildcard == nil {
				wildcard = mt
			}
		case "*/*":
			if all == nil {
				all = mt
			}
		}
		return true
	})
	switch {
	case exact != nil:
		return exact
	case wildcard != nil:
		return wildcard
	}
	return all
}

// IsJSON reports whether a media type carries JSON.
func IsJSON(mediaType string) bool {
	mediaType = strings.ToLower(mediaType)
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
