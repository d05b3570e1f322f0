package spec

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/getmockd/specmock/pkg/ordered"
	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by the loader.
var (
	ErrFileNotFound   = errors.New("spec file does not exist")
	ErrNotOpenAPI3    = errors.New("document is not an OpenAPI 3 document")
	ErrEmptyDocument  = errors.New("document is empty")
	ErrInvalidPattern = errors.New("invalid path glob")
)

// methods are the path-item keys that declare operations.
var methods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// LoadError reports a problem at a specific place in the document.
type LoadError struct {
	Pointer string
	Line    int
	Err     error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("spec: %s (line %d): %v", e.Pointer, e.Line, e.Err)
	}
	return fmt.Sprintf("spec: %s: %v", e.Pointer, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadOption configures Load and LoadFile.
type LoadOption func(*loadOptions)

type loadOptions struct {
	include []string
	exclude []string
}

// WithInclude keeps only operations whose path template matches one of the
// doublestar globs, e.g. "/users/**".
func WithInclude(patterns ...string) LoadOption {
	return func(o *loadOptions) { o.include = append(o.include, patterns...) }
}

// WithExclude drops operations whose path template matches one of the globs.
func WithExclude(patterns ...string) LoadOption {
	return func(o *loadOptions) { o.exclude = append(o.exclude, patterns...) }
}

// LoadFile reads and parses the document at path.
func LoadFile(path string, opts ...LoadOption) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read spec: %w", err)
	}
	return Load(data, opts...)
}

// Load parses a YAML or JSON OpenAPI 3.x document.
func Load(data []byte, opts ...LoadOption) (*Document, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	for _, p := range append(append([]string{}, o.include...), o.exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	top := deref(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, &LoadError{Pointer: "#", Line: top.Line, Err: errors.New("document must be a mapping")}
	}

	d := &decoder{root: top}
	doc, err := d.document()
	if err != nil {
		return nil, err
	}
	doc.Operations = filterOperations(doc.Operations, o)
	return doc, nil
}

func filterOperations(ops []*Operation, o loadOptions) []*Operation {
	if len(o.include) == 0 && len(o.exclude) == 0 {
		return ops
	}
	out := ops[:0:0]
	for _, op := range ops {
		if len(o.include) > 0 && !matchAny(o.include, op.Path) {
			continue
		}
		if matchAny(o.exclude, op.Path) {
			continue
		}
		out = append(out, op)
	}
	return out
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		// Patterns were validated up front.
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// decoder turns the yaml.v3 node tree into the model.
type decoder struct {
	root *yaml.Node
	doc  *Document
}

func (d *decoder) fail(ptr string, n *yaml.Node, err error) error {
	line := 0
	if n != nil {
		line = n.Line
	}
	return &LoadError{Pointer: ptr, Line: line, Err: err}
}

func (d *decoder) document() (*Document, error) {
	if get(d.root, "swagger") != nil {
		return nil, d.fail("#/swagger", get(d.root, "swagger"), fmt.Errorf("%w: Swagger 2.0 must be converted first", ErrNotOpenAPI3))
	}
	version := str(get(d.root, "openapi"))
	if !strings.HasPrefix(version, "3.") {
		return nil, d.fail("#/openapi", get(d.root, "openapi"), fmt.Errorf("%w: openapi %q", ErrNotOpenAPI3, version))
	}

	doc := &Document{
		OpenAPI: version,
		Components: Components{
			Schemas:         ordered.New[*Schema](0),
			SecuritySchemes: make(map[string]*SecurityScheme),
		},
	}
	d.doc = doc

	info := get(d.root, "info")
	doc.Title = str(get(info, "title"))
	doc.Version = str(get(info, "version"))

	if servers := get(d.root, "servers"); servers != nil && servers.Kind == yaml.SequenceNode {
		for _, s := range servers.Content {
			doc.Servers = append(doc.Servers, Server{
				URL:         str(get(s, "url")),
				Description: str(get(s, "description")),
			})
		}
	}

	components := get(d.root, "components")
	err := each(get(components, "schemas"), func(name string, n *yaml.Node) error {
		s, err := d.schema(n, schemaRefPrefix+escapePointer(name))
		if err != nil {
			return err
		}
		doc.Components.Schemas.Set(name, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = each(get(components, "securitySchemes"), func(name string, n *yaml.Node) error {
		ptr := "#/components/securitySchemes/" + escapePointer(name)
		n, ptr, err := d.follow(n, ptr, "#/components/securitySchemes/")
		if err != nil {
			return err
		}
		doc.Components.SecuritySchemes[name] = &SecurityScheme{
			Type:         str(get(n, "type")),
			Name:         str(get(n, "name")),
			In:           str(get(n, "in")),
			Scheme:       strings.ToLower(str(get(n, "scheme"))),
			BearerFormat: str(get(n, "bearerFormat")),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if n := get(d.root, "security"); n != nil {
		doc.Security, err = d.security(n, "#/security")
		if err != nil {
			return nil, err
		}
	}

	err = each(get(d.root, "paths"), func(path string, item *yaml.Node) error {
		if !strings.HasPrefix(path, "/") {
			return d.fail("#/paths/"+escapePointer(path), item, errors.New("path must start with /"))
		}
		return d.pathItem(path, item)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *decoder) pathItem(path string, item *yaml.Node) error {
	ptr := "#/paths/" + escapePointer(path)
	if ref := get(item, "$ref"); ref != nil {
		return d.fail(ptr, ref, errors.New("path item references are not supported"))
	}

	shared, err := d.parameters(get(item, "parameters"), ptr+"/parameters")
	if err != nil {
		return err
	}

	return each(item, func(key string, n *yaml.Node) error {
		if !methods[key] {
			return nil
		}
		op, err := d.operation(path, key, n, ptr+"/"+key, shared)
		if err != nil {
			return err
		}
		d.doc.Operations = append(d.doc.Operations, op)
		return nil
	})
}

func (d *decoder) operation(path, method string, n *yaml.Node, ptr string, shared []*Parameter) (*Operation, error) {
	op := &Operation{
		ID:      str(get(n, "operationId")),
		Method:  strings.ToUpper(method),
		Path:    path,
		Summary: str(get(n, "summary")),
		Tags:    stringList(get(n, "tags")),
		Pointer: ptr,
	}
	var err error
	if op.Deprecated, err = boolean(get(n, "deprecated")); err != nil {
		return nil, d.fail(ptr+"/deprecated", n, err)
	}

	own, err := d.parameters(get(n, "parameters"), ptr+"/parameters")
	if err != nil {
		return nil, err
	}
	op.Parameters = mergeParameters(shared, own)

	if body := get(n, "requestBody"); body != nil {
		op.RequestBody, err = d.requestBody(body, ptr+"/requestBody")
		if err != nil {
			return nil, err
		}
	}

	op.Responses = ordered.New[*Response](0)
	err = each(get(n, "responses"), func(status string, rn *yaml.Node) error {
		resp, err := d.response(rn, ptr+"/responses/"+escapePointer(status))
		if err != nil {
			return err
		}
		op.Responses.Set(status, resp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if sec := get(n, "security"); sec != nil {
		op.Security, err = d.security(sec, ptr+"/security")
		if err != nil {
			return nil, err
		}
	} else {
		op.Security = d.doc.Security
	}
	return op, nil
}

// mergeParameters overlays operation parameters on path-item parameters,
// keyed by (name, in). Path-item order comes first.
func mergeParameters(shared, own []*Parameter) []*Parameter {
	if len(shared) == 0 {
		return own
	}
	out := make([]*Parameter, 0, len(shared)+len(own))
	for _, s := range shared {
		overridden := false
		for _, o := range own {
			if o.Name == s.Name && o.In == s.In {
				overridden = true
				break
			}
		}
		if !overridden {
			out = append(out, s)
		}
	}
	return append(out, own...)
}

func (d *decoder) parameters(n *yaml.Node, ptr string) ([]*Parameter, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.fail(ptr, n, errors.New("parameters must be a list"))
	}
	out := make([]*Parameter, 0, len(n.Content))
	for i, pn := range n.Content {
		p, err := d.parameter(pn, fmt.Sprintf("%s/%d", ptr, i))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) parameter(n *yaml.Node, ptr string) (*Parameter, error) {
	n, ptr, err := d.follow(n, ptr, "#/components/parameters/")
	if err != nil {
		return nil, err
	}
	p := &Parameter{
		Name:  str(get(n, "name")),
		In:    str(get(n, "in")),
		Style: str(get(n, "style")),
	}
	if p.Name == "" {
		return nil, d.fail(ptr, n, errors.New("parameter has no name"))
	}
	switch p.In {
	case InPath, InQuery, InHeader, InCookie:
	default:
		return nil, d.fail(ptr+"/in", n, fmt.Errorf("unknown parameter location %q", p.In))
	}

	if p.Required, err = boolean(get(n, "required")); err != nil {
		return nil, d.fail(ptr+"/required", n, err)
	}
	if p.In == InPath {
		p.Required = true
	}
	if p.AllowEmptyValue, err = boolean(get(n, "allowEmptyValue")); err != nil {
		return nil, d.fail(ptr+"/allowEmptyValue", n, err)
	}

	if p.Style == "" {
		switch p.In {
		case InQuery, InCookie:
			p.Style = "form"
		default:
			p.Style = "simple"
		}
	}
	if e := get(n, "explode"); e != nil {
		if p.Explode, err = boolean(e); err != nil {
			return nil, d.fail(ptr+"/explode", e, err)
		}
	} else {
		p.Explode = p.Style == "form"
	}

	if sn := get(n, "schema"); sn != nil {
		if p.Schema, err = d.schema(sn, ptr+"/schema"); err != nil {
			return nil, err
		}
	} else if content := get(n, "content"); content != nil {
		// A parameter described by content has exactly one media type.
		err := each(content, func(mt string, mn *yaml.Node) error {
			if p.Schema != nil {
				return nil
			}
			var err error
			if sn := get(mn, "schema"); sn != nil {
				p.Schema, err = d.schema(sn, ptr+"/content/"+escapePointer(mt)+"/schema")
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (d *decoder) requestBody(n *yaml.Node, ptr string) (*RequestBody, error) {
	n, ptr, err := d.follow(n, ptr, "#/components/requestBodies/")
	if err != nil {
		return nil, err
	}
	rb := &RequestBody{}
	if rb.Required, err = boolean(get(n, "required")); err != nil {
		return nil, d.fail(ptr+"/required", n, err)
	}
	rb.Content, err = d.content(get(n, "content"), ptr+"/content")
	return rb, err
}

func (d *decoder) response(n *yaml.Node, ptr string) (*Response, error) {
	n, ptr, err := d.follow(n, ptr, "#/components/responses/")
	if err != nil {
		return nil, err
	}
	resp := &Response{
		Description: str(get(n, "description")),
		Headers:     ordered.New[*Header](0),
	}
	err = each(get(n, "headers"), func(name string, hn *yaml.Node) error {
		hptr := ptr + "/headers/" + escapePointer(name)
		hn, hptr, err := d.follow(hn, hptr, "#/components/headers/")
		if err != nil {
			return err
		}
		h := &Header{}
		if h.Required, err = boolean(get(hn, "required")); err != nil {
			return d.fail(hptr+"/required", hn, err)
		}
		if sn := get(hn, "schema"); sn != nil {
			if h.Schema, err = d.schema(sn, hptr+"/schema"); err != nil {
				return err
			}
		}
		resp.Headers.Set(name, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp.Content, err = d.content(get(n, "content"), ptr+"/content")
	return resp, err
}

func (d *decoder) content(n *yaml.Node, ptr string) (*ordered.Map[*MediaType], error) {
	out := ordered.New[*MediaType](0)
	err := each(n, func(ct string, mn *yaml.Node) error {
		mptr := ptr + "/" + escapePointer(ct)
		mt := &MediaType{}
		if sn := get(mn, "schema"); sn != nil {
			var err error
			if mt.Schema, err = d.schema(sn, mptr+"/schema"); err != nil {
				return err
			}
		}
		if ex := get(mn, "example"); ex != nil {
			v, err := value(ex, true)
			if err != nil {
				return d.fail(mptr+"/example", ex, err)
			}
			mt.HasExample, mt.Example = true, v
		}
		if exs := get(mn, "examples"); exs != nil {
			mt.Examples = ordered.New[any](0)
			err := each(exs, func(name string, en *yaml.Node) error {
				eptr := mptr + "/examples/" + escapePointer(name)
				en, eptr, err := d.follow(en, eptr, "#/components/examples/")
				if err != nil {
					return err
				}
				v, err := value(get(en, "value"), true)
				if err != nil {
					return d.fail(eptr+"/value", en, err)
				}
				mt.Examples.Set(name, v)
				return nil
			})
			if err != nil {
				return err
			}
		}
		out.Set(ct, mt)
		return nil
	})
	return out, err
}

func (d *decoder) security(n *yaml.Node, ptr string) ([]SecurityRequirement, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.fail(ptr, n, errors.New("security must be a list"))
	}
	out := make([]SecurityRequirement, 0, len(n.Content))
	for i, rn := range n.Content {
		req := SecurityRequirement{}
		err := each(rn, func(name string, scopes *yaml.Node) error {
			if _, ok := d.doc.Components.SecuritySchemes[name]; !ok {
				return d.fail(fmt.Sprintf("%s/%d/%s", ptr, i, escapePointer(name)), scopes,
					fmt.Errorf("%w: security scheme %q", ErrUnresolvedRef, name))
			}
			req[name] = stringList(scopes)
			return nil
		})
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// follow resolves a local $ref under the given components prefix. Chains are
// followed; a chain that revisits a reference is an error.
func (d *decoder) follow(n *yaml.Node, ptr, prefix string) (*yaml.Node, string, error) {
	seen := make(map[string]bool)
	for {
		refNode := get(n, "$ref")
		if refNode == nil {
			return n, ptr, nil
		}
		ref := str(refNode)
		if seen[ref] {
			return nil, ptr, d.fail(ptr, refNode, fmt.Errorf("%w: reference cycle through %s", ErrUnresolvedRef, ref))
		}
		seen[ref] = true
		if !strings.HasPrefix(ref, prefix) {
			return nil, ptr, d.fail(ptr, refNode, fmt.Errorf("%w: %s (expected %s...)", ErrUnresolvedRef, ref, prefix))
		}
		section := strings.TrimSuffix(strings.TrimPrefix(prefix, "#/components/"), "/")
		name := unescapePointer(strings.TrimPrefix(ref, prefix))
		target := get(get(get(d.root, "components"), section), name)
		if target == nil {
			return nil, ptr, d.fail(ptr, refNode, fmt.Errorf("%w: %s", ErrUnresolvedRef, ref))
		}
		n, ptr = target, ref
	}
}
