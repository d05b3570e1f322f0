package matching

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidTemplate is returned for malformed path templates.
var ErrInvalidTemplate = errors.New("invalid path template")

// segment is one "/"-separated part of a template. A parameter segment may
// carry a literal prefix and suffix, as in "{name}.json".
type segment struct {
	literal string
	param   string
	prefix  string
	suffix  string
}

func (s segment) isParam() bool { return s.param != "" }

// Template is a compiled OpenAPI path template such as "/users/{id}".
type Template struct {
	raw      string
	segments []segment
}

// CompileTemplate parses an OpenAPI path template. Each segment holds at most
// one parameter.
func CompileTemplate(path string) (*Template, error) {
	parts := splitPath(path)
	t := &Template{raw: path, segments: make([]segment, len(parts))}
	for i, part := range parts {
		open := strings.IndexByte(part, '{')
		if open < 0 {
			if strings.IndexByte(part, '}') >= 0 {
				return nil, fmt.Errorf("%w: %q: unbalanced '}'", ErrInvalidTemplate, path)
			}
			t.segments[i] = segment{literal: part}
			continue
		}
		closing := strings.IndexByte(part[open:], '}')
		if closing < 0 {
			return nil, fmt.Errorf("%w: %q: unbalanced '{'", ErrInvalidTemplate, path)
		}
		closing += open
		name := part[open+1 : closing]
		rest := part[closing+1:]
		if name == "" {
			return nil, fmt.Errorf("%w: %q: empty parameter name", ErrInvalidTemplate, path)
		}
		if strings.ContainsAny(rest, "{}") {
			return nil, fmt.Errorf("%w: %q: more than one parameter in a segment", ErrInvalidTemplate, path)
		}
		t.segments[i] = segment{param: name, prefix: part[:open], suffix: rest}
	}
	return t, nil
}

// String returns the template as written.
func (t *Template) String() string { return t.raw }

// Params returns the parameter names in template order.
func (t *Template) Params() []string {
	var out []string
	for _, s := range t.segments {
		if s.isParam() {
			out = append(out, s.param)
		}
	}
	return out
}

// Match compares an escaped request path against the template. Literal
// segments must be equal (after unescaping); a parameter matches any single
// non-empty segment. Parameter values are unescaped one segment at a time,
// so "%2F" stays inside its segment.
func (t *Template) Match(escapedPath string) (map[string]string, bool) {
	parts := splitPath(escapedPath)
	if len(parts) != len(t.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range t.segments {
		part := unescape(parts[i])
		if !seg.isParam() {
			if part != seg.literal {
				return nil, false
			}
			continue
		}
		if len(part) <= len(seg.prefix)+len(seg.suffix) ||
			!strings.HasPrefix(part, seg.prefix) || !strings.HasSuffix(part, seg.suffix) {
			return nil, false
		}
		if params == nil {
			params = make(map[string]string, len(t.segments))
		}
		params[seg.param] = part[len(seg.prefix) : len(part)-len(seg.suffix)]
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}

// overlaps reports whether some concrete path matches both templates.
func (t *Template) overlaps(o *Template) bool {
	if len(t.segments) != len(o.segments) {
		return false
	}
	for i, a := range t.segments {
		b := o.segments[i]
		switch {
		case !a.isParam() && !b.isParam():
			if a.literal != b.literal {
				return false
			}
		case a.isParam() && b.isParam():
			if !affixesCompatible(a, b) {
				return false
			}
		case a.isParam():
			if !segmentAccepts(a, b.literal) {
				return false
			}
		default:
			if !segmentAccepts(b, a.literal) {
				return false
			}
		}
	}
	return true
}

func segmentAccepts(param segment, literal string) bool {
	return len(literal) > len(param.prefix)+len(param.suffix) &&
		strings.HasPrefix(literal, param.prefix) && strings.HasSuffix(literal, param.suffix)
}

func affixesCompatible(a, b segment) bool {
	return (strings.HasPrefix(a.prefix, b.prefix) || strings.HasPrefix(b.prefix, a.prefix)) &&
		(strings.HasSuffix(a.suffix, b.suffix) || strings.HasSuffix(b.suffix, a.suffix))
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
