// Package generator synthesizes fake values from OpenAPI schema nodes.
//
// A Generator is built once from an immutable Options value and a parsed
// document, then used concurrently:
//
//	gen, err := generator.New(doc, generator.DefaultOptions())
//	v, err := gen.Generate(ctx, schema)
//
// Precedence on every node, first match wins:
//
//  1. `example`: the literal, verbatim (null included).
//  2. `examples`: the `value` of the first entry of the mapping; "" when the
//     mapping is empty or not an object.
//  3. `$ref`, resolved within the document.
//  4. `faker` / `x-faker`: a locale-aware fake value such as
//     "name.firstName" or "address.city".
//  5. `const`, then `enum`, then `default` (with Options.UseDefaultValue).
//  6. `allOf` (merged), `oneOf` / `anyOf` (one branch at random).
//  7. Synthesis from `type`, `format`, `pattern` and bounds.
//
// Literal keywords do not recurse: subschemas of a node carrying an example
// are never visited.
//
// Optional object properties and optional array items are included with
// probability Options.OptionalsProbability. Recursive references are
// followed Options.MaxRefDepth times; past that, optional positions are
// dropped and a required position fails with ErrCyclicRef.
package generator
