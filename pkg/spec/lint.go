package spec

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// LintError wraps the structural problems reported by Lint.
type LintError struct {
	Err error
}

func (e *LintError) Error() string { return "spec lint: " + e.Err.Error() }

func (e *LintError) Unwrap() error { return e.Err }

// Lint runs kin-openapi's structural validation over an OpenAPI 3.0 document.
// Examples are not validated against their schemas (literal examples are
// returned verbatim by the generator), and the schema-level `examples` and
// `faker` keywords are allowed. Documents of other versions are accepted
// without checks.
func Lint(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return &LintError{Err: fmt.Errorf("load: %w", err)}
	}
	if len(doc.OpenAPI) < 3 || doc.OpenAPI[:3] != "3.0" {
		return nil
	}
	err = doc.Validate(ctx,
		openapi3.DisableExamplesValidation(),
		openapi3.AllowExtraSiblingFields("examples", "faker"),
	)
	if err != nil {
		return &LintError{Err: err}
	}
	return nil
}
