package generator

import (
	"github.com/getmockd/specmock/pkg/ordered"
	"github.com/getmockd/specmock/pkg/spec"
)

// literal applies the author-supplied data keywords. When the node carries
// `example` or `examples` it returns the literal and true; the node's other
// keywords and its subschemas are not consulted.
//
//   - example: returned verbatim, including null.
//   - examples: the `value` of the first entry in declaration order. An empty
//     or non-object `examples` yields "". A first entry without `value`
//     yields nil.
func literal(s *spec.Schema) (any, bool) {
	if s.HasExample {
		return s.Example, true
	}
	if !s.HasExamples {
		return nil, false
	}
	_, first, ok := s.ExamplesMap.First()
	if !ok {
		return "", true
	}
	entry, ok := first.(*ordered.Map[any])
	if !ok {
		return nil, true
	}
	v, _ := entry.Get("value")
	return v, true
}
