// Package spec holds the immutable, parsed form of an OpenAPI document as the
// mock pipeline consumes it.
//
// The model is deliberately narrower than a full OpenAPI object graph. It keeps
// what request resolution, validation and response generation need, and it
// keeps it in document order:
//
//   - Operations are listed in declaration order (paths in document order,
//     methods in path-item order), which is the tie-break for ambiguous
//     path templates.
//   - Schema properties, response content types and `examples` mappings are
//     ordered.Map values.
//
// # Loading
//
//	doc, err := spec.LoadFile("openapi.yaml")
//	if err != nil {
//	    return err
//	}
//	for _, op := range doc.Operations {
//	    fmt.Println(op.Method, op.Path)
//	}
//
// Documents are parsed from yaml.v3 nodes (JSON is valid YAML), so both
// formats are accepted. Non-schema references (parameters, request bodies,
// responses, headers) are resolved while loading; schema references stay
// lazy and are resolved by Document.ResolveSchema so that recursive schemas
// can be represented.
//
// Lint runs kin-openapi's structural validation over OpenAPI 3.0 documents.
package spec
