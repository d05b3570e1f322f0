package validation

import (
	"context"
	"net/url"
	"strings"

	"github.com/getmockd/specmock/pkg/spec"
)

// queryStep validates query parameters. Parameters the operation does not
// declare are ignored.
type queryStep struct {
	schemas *schemaSet
	coerce  coercer
}

func (s *queryStep) Name() string { return "query" }

func (s *queryStep) Validate(_ context.Context, op *spec.Operation, req *Request) *Error {
	params := op.ParametersIn(spec.InQuery)
	if len(params) == 0 {
		return nil
	}
	query := req.URL.Query()
	result := &Result{}
	for _, p := range params {
		v, present := s.decode(p, query)
		if !present {
			if p.Required {
				result.AddError(NewRequiredError(p.Name, LocationQuery))
			}
			continue
		}
		if raw, ok := v.(string); ok && raw == "" && s.coerce.kind(p.Schema) == "" {
			if p.AllowEmptyValue {
				continue
			}
			if p.Required {
				result.AddError(NewEmptyValueError(p.Name, LocationQuery))
				continue
			}
		}
		s.schemas.validate(p.Schema, v, p.Name, LocationQuery, result)
	}
	if result.HasErrors() {
		return newStepError(InvalidQuery, s.Name(), "query parameter", result)
	}
	return nil
}

// decode extracts and coerces p from the query according to its style.
// The boolean is false when the parameter is absent.
func (s *queryStep) decode(p *spec.Parameter, query url.Values) (any, bool) {
	kind := s.coerce.kind(p.Schema)

	if p.Style == StyleDeepObject {
		pairs := deepObjectPairs(p.Name, query)
		if len(pairs) == 0 {
			return nil, false
		}
		return s.coerce.object(p.Schema, pairs), true
	}

	if kind == "object" && p.Style == StyleForm && p.Explode {
		// Exploded form objects spread their members over the query.
		sh := s.coerce.shape(p.Schema)
		var pairs [][2]string
		if sh != nil {
			sh.Properties.Range(func(name string, _ *spec.Schema) bool {
				if query.Has(name) {
					pairs = append(pairs, [2]string{name, query.Get(name)})
				}
				return true
			})
		}
		if len(pairs) == 0 {
			return nil, false
		}
		return s.coerce.object(p.Schema, pairs), true
	}

	values, ok := query[p.Name]
	if !ok {
		return nil, false
	}

	switch kind {
	case "array":
		if p.Style == StyleForm && p.Explode {
			return s.coerce.array(p.Schema, values), true
		}
		return s.coerce.value(p, values[0], separator(p.Style)), true
	case "object":
		return s.coerce.value(p, values[0], separator(p.Style)), true
	}
	return s.coerce.scalar(p.Schema, values[0]), true
}

func separator(style string) string {
	switch style {
	case StyleSpaceDelimited:
		return " "
	case StylePipeDelimited:
		return "|"
	}
	return ","
}

// deepObjectPairs collects name[key]=value members.
func deepObjectPairs(name string, query url.Values) [][2]string {
	prefix := name + "["
	var out [][2]string
	for k, values := range query {
		if !strings.HasPrefix(k, prefix) || !strings.HasSuffix(k, "]") || len(values) == 0 {
			continue
		}
		out = append(out, [2]string{k[len(prefix) : len(k)-1], values[0]})
	}
	return out
}
