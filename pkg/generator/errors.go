package generator

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by GenerationError.
var (
	ErrCyclicRef      = errors.New("cyclic schema reference")
	ErrInvalidType    = errors.New("invalid schema type")
	ErrContradiction  = errors.New("contradictory schema constraints")
	ErrInvalidPattern = errors.New("invalid pattern")
)

// GenerationError reports a schema the generator could not produce a value
// for. It points at a defect in the document, not at the request.
type GenerationError struct {
	// Pointer is the JSON pointer of the failing schema node.
	Pointer string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Pointer == "" {
		return "generate: " + e.Err.Error()
	}
	return fmt.Sprintf("generate %s: %v", e.Pointer, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
