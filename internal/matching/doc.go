// Package matching resolves HTTP requests to OpenAPI operations.
//
// Path templates such as "/users/{id}" or "/files/{name}.json" are compiled
// into segment lists and matched against the escaped request path, so an
// encoded "/" inside a parameter value never splits a segment. Captured
// values are percent-decoded.
//
// Operations are tried in declaration order and the first template that
// matches wins. Overlapping templates are reported by Resolver.Ambiguities
// so callers can warn about shadowed operations.
//
// Key types:
//
//   - Template: a compiled path template
//   - Resolver: resolves a method and path to a Match
//   - Match: the resolved operation with its decoded path parameters
package matching
