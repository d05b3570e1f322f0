package spec

import (
	"sort"
	"strconv"
	"strings"

	"github.com/getmockd/specmock/pkg/ordered"
)

// Parameter locations.
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
)

// Document is a parsed OpenAPI document. It is never mutated after loading.
type Document struct {
	// OpenAPI is the value of the `openapi` field, e.g. "3.0.3".
	OpenAPI string
	Title   string
	Version string
	Servers []Server

	// Operations in declaration order.
	Operations []*Operation

	// Security is the document-level default security. Nil means none declared.
	Security []SecurityRequirement

	Components Components
}

// Server is an entry of the `servers` list.
type Server struct {
	URL         string
	Description string
}

// Components holds the reusable objects the pipeline needs at request time.
type Components struct {
	Schemas         *ordered.Map[*Schema]
	SecuritySchemes map[string]*SecurityScheme
}

// Operation is one (method, path template) entry of the document.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Tags        []string
	Deprecated  bool
	Parameters  []*Parameter
	RequestBody *RequestBody

	// Responses keyed by status code ("200", "2XX", "default") in declaration order.
	Responses *ordered.Map[*Response]

	// Security is the effective requirement list: the operation's own when
	// declared, otherwise the document default. Empty means no auth.
	Security []SecurityRequirement

	// Pointer is the JSON pointer of the operation object.
	Pointer string
}

// Key returns "METHOD /path", the identifier used in logs and CLI output.
func (o *Operation) Key() string {
	return o.Method + " " + o.Path
}

// ParametersIn returns the operation's parameters declared in the given location.
func (o *Operation) ParametersIn(in string) []*Parameter {
	var out []*Parameter
	for _, p := range o.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

// SuccessResponse selects the response used for mocking: the lowest declared
// numeric 2xx code, then a "2XX" range entry, then "default". The returned
// status is 200 for range and default entries. When nothing qualifies it
// returns (200, nil).
func (o *Operation) SuccessResponse() (int, *Response) {
	if o.Responses.Len() == 0 {
		return 200, nil
	}

	var codes []int
	o.Responses.Range(func(key string, _ *Response) bool {
		if code, err := strconv.Atoi(key); err == nil && code >= 200 && code < 300 {
			codes = append(codes, code)
		}
		return true
	})
	if len(codes) > 0 {
		sort.Ints(codes)
		resp, _ := o.Responses.Get(strconv.Itoa(codes[0]))
		return codes[0], resp
	}

	for _, key := range []string{"2XX", "2xx"} {
		if resp, ok := o.Responses.Get(key); ok {
			return 200, resp
		}
	}
	if resp, ok := o.Responses.Get("default"); ok {
		return 200, resp
	}
	return 200, nil
}

// Parameter describes a path, query, header or cookie parameter.
type Parameter struct {
	Name            string
	In              string
	Required        bool
	AllowEmptyValue bool
	Style           string
	Explode         bool
	Schema          *Schema
}

// RequestBody is an operation's request body definition.
type RequestBody struct {
	Required bool
	Content  *ordered.Map[*MediaType]
}

// Response is one entry of an operation's responses.
type Response struct {
	Description string
	Headers     *ordered.Map[*Header]
	Content     *ordered.Map[*MediaType]
}

// Header is a response header definition.
type Header struct {
	Required bool
	Schema   *Schema
}

// MediaType is a content-type scoped schema with optional examples.
type MediaType struct {
	Schema *Schema

	HasExample bool
	Example    any

	// Examples maps example name to the Example Object value (`value` field).
	Examples *ordered.Map[any]
}

// SecurityRequirement maps scheme names to required scopes. All schemes in a
// requirement must be satisfied.
type SecurityRequirement map[string][]string

// SecurityScheme is a `components.securitySchemes` entry.
type SecurityScheme struct {
	Type         string // apiKey, http, oauth2, openIdConnect, mutualTLS
	Name         string // apiKey parameter name
	In           string // apiKey location: header, query, cookie
	Scheme       string // http auth scheme, lower-cased
	BearerFormat string
}

// IsVersion31 reports whether the document declares OpenAPI 3.1.
func (d *Document) IsVersion31() bool {
	return strings.HasPrefix(d.OpenAPI, "3.1")
}

// FindOperation finds an operation by operationId or by "METHOD /path".
func (d *Document) FindOperation(ref string) *Operation {
	for _, op := range d.Operations {
		if op.ID != "" && op.ID == ref {
			return op
		}
	}
	method, path, ok := strings.Cut(strings.TrimSpace(ref), " ")
	if !ok {
		return nil
	}
	method = strings.ToUpper(method)
	path = strings.TrimSpace(path)
	for _, op := range d.Operations {
		if op.Method == method && op.Path == path {
			return op
		}
	}
	return nil
}
