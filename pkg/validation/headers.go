package validation

import (
	"context"
	"net/http"
	"strings"

	"github.com/getmockd/specmock/pkg/spec"
)

// ignoredHeaders are described by other parts of an OpenAPI document and
// are skipped when declared as header parameters.
var ignoredHeaders = map[string]bool{
	"Accept":        true,
	"Content-Type":  true,
	"Authorization": true,
}

// headerStep validates header and cookie parameters.
type headerStep struct {
	schemas *schemaSet
	coerce  coercer
}

func (h *headerStep) Name() string { return "header" }

func (h *headerStep) Validate(_ context.Context, op *spec.Operation, req *Request) *Error {
	result := &Result{}
	for _, p := range op.Parameters {
		switch p.In {
		case spec.InHeader:
			if ignoredHeaders[http.CanonicalHeaderKey(p.Name)] {
				continue
			}
			values := req.Header.Values(p.Name)
			if len(values) == 0 {
				if p.Required {
					result.AddError(NewRequiredError(p.Name, LocationHeader))
				}
				continue
			}
			// Repeated header lines are one comma-separated list.
			raw := strings.Join(values, ",")
			h.schemas.validate(p.Schema, h.coerce.value(p, raw, ","), p.Name, LocationHeader, result)
		case spec.InCookie:
			c, err := req.Cookie(p.Name)
			if err != nil {
				if p.Required {
					result.AddError(NewRequiredError(p.Name, LocationCookie))
				}
				continue
			}
			h.schemas.validate(p.Schema, h.coerce.value(p, c.Value, ","), p.Name, LocationCookie, result)
		}
	}
	if result.HasErrors() {
		return newStepError(InvalidHeader, h.Name(), "header", result)
	}
	return nil
}

// pathStep validates path parameters from the raw values extracted by the
// resolver.
type pathStep struct {
	schemas *schemaSet
	coerce  coercer
}

func (s *pathStep) Name() string { return "path" }

func (s *pathStep) Validate(_ context.Context, op *spec.Operation, req *Request) *Error {
	result := &Result{}
	for _, p := range op.ParametersIn(spec.InPath) {
		raw, ok := req.PathParams[p.Name]
		if !ok {
			result.AddError(NewRequiredError(p.Name, LocationPath))
			continue
		}
		raw, sep := pathValue(p, raw)
		s.schemas.validate(p.Schema, s.coerce.value(p, raw, sep), p.Name, LocationPath, result)
	}
	if result.HasErrors() {
		return newStepError(InvalidPathParameter, s.Name(), "path parameter", result)
	}
	return nil
}
