package matching

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/specmock/pkg/spec"
)

// Match is a resolved operation with its raw path parameter values.
type Match struct {
	Operation  *spec.Operation
	PathParams map[string]string
}

type route struct {
	op       *spec.Operation
	template *Template
}

// Resolver maps requests to operations. It is immutable once built and safe
// for concurrent use.
type Resolver struct {
	routes []route
}

// NewResolver compiles the path templates of ops. Declaration order is kept
// and decides between templates that overlap.
func NewResolver(ops []*spec.Operation) (*Resolver, error) {
	r := &Resolver{routes: make([]route, 0, len(ops))}
	for _, op := range ops {
		t, err := CompileTemplate(op.Path)
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", op.Key(), err)
		}
		r.routes = append(r.routes, route{op: op, template: t})
	}
	return r, nil
}

// Resolve returns the first declared operation whose method and template
// match, or nil. path is the escaped request path. Header and query are not
// used for selection; they are accepted so that callers hand over the
// complete request shape.
func (r *Resolver) Resolve(method, path string, _ http.Header, _ url.Values) *Match {
	for _, rt := range r.routes {
		if !MatchMethod(rt.op.Method, method) {
			continue
		}
		if params, ok := rt.template.Match(path); ok {
			return &Match{Operation: rt.op, PathParams: params}
		}
	}
	return nil
}

// AllowedMethods lists the methods declared for templates matching path, in
// declaration order. It explains a miss caused by the method alone.
func (r *Resolver) AllowedMethods(path string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, rt := range r.routes {
		if seen[rt.op.Method] {
			continue
		}
		if _, ok := rt.template.Match(path); ok {
			seen[rt.op.Method] = true
			out = append(out, rt.op.Method)
		}
	}
	return out
}

// Operations returns the operations in resolution order.
func (r *Resolver) Operations() []*spec.Operation {
	out := make([]*spec.Operation, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.op
	}
	return out
}

// MatchMethod compares HTTP methods case-insensitively.
func MatchMethod(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}

// Ambiguity is a pair of operations with the same method whose templates can
// match the same concrete path. First wins at request time.
type Ambiguity struct {
	First  *spec.Operation
	Second *spec.Operation
}

func (a Ambiguity) String() string {
	return fmt.Sprintf("%s shadows %s for some paths", a.First.Key(), a.Second.Key())
}

// Ambiguities reports overlapping templates of the resolver. Overlaps where
// the earlier template is strictly more literal than the later one (e.g.
// "/users/me" before "/users/{id}") are the intended use of declaration
// order and are not reported.
func (r *Resolver) Ambiguities() []Ambiguity {
	var out []Ambiguity
	for i, a := range r.routes {
		for _, b := range r.routes[i+1:] {
			if !MatchMethod(a.op.Method, b.op.Method) || !a.template.overlaps(b.template) {
				continue
			}
			if a.template.refines(b.template) {
				continue
			}
			out = append(out, Ambiguity{First: a.op, Second: b.op})
		}
	}
	return out
}

// refines reports whether every segment of t is at least as specific as the
// matching segment of o and at least one is strictly more specific.
func (t *Template) refines(o *Template) bool {
	stricter := false
	for i, a := range t.segments {
		b := o.segments[i]
		switch {
		case !a.isParam() && b.isParam():
			stricter = true
		case a.isParam() && !b.isParam():
			return false
		}
	}
	return stricter
}
