package validation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getmockd/specmock/pkg/spec"
)

// DefaultMaxBodyBytes caps request bodies read by the body step.
const DefaultMaxBodyBytes int64 = 10 << 20

// Request is the input of a validation step.
type Request struct {
	*http.Request

	// PathParams holds the raw path values extracted by the resolver.
	PathParams map[string]string
}

// Step is one stage of the pipeline. Validate returns nil when the request
// passes.
type Step interface {
	Name() string
	Validate(ctx context.Context, op *spec.Operation, req *Request) *Error
}

// Options configures a Pipeline.
type Options struct {
	// RejectedCredentialStatus is returned when credentials are presented
	// but rejected: 401 or 403.
	RejectedCredentialStatus int

	// MaxBodyBytes limits the request body; larger bodies fail the body step.
	MaxBodyBytes int64
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() Options {
	return Options{
		RejectedCredentialStatus: http.StatusForbidden,
		MaxBodyBytes:             DefaultMaxBodyBytes,
	}
}

// Pipeline runs the validation steps for a matched operation in a fixed order:
// auth, header, path, query, body. It is immutable once built and safe for
// concurrent use.
type Pipeline struct {
	steps []Step
}

// New builds the pipeline for doc, compiling every parameter and request
// body schema. A schema that does not compile fails construction.
func New(doc *spec.Document, opts Options) (*Pipeline, error) {
	switch opts.RejectedCredentialStatus {
	case 0:
		opts.RejectedCredentialStatus = http.StatusForbidden
	case http.StatusUnauthorized, http.StatusForbidden:
	default:
		return nil, fmt.Errorf("rejected credential status must be 401 or 403, got %d", opts.RejectedCredentialStatus)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	schemas, err := compileSchemas(doc)
	if err != nil {
		return nil, err
	}
	c := coercer{doc: doc}
	return &Pipeline{
		steps: []Step{
			&authStep{schemes: doc.Components.SecuritySchemes, rejectedStatus: opts.RejectedCredentialStatus},
			&headerStep{schemas: schemas, coerce: c},
			&pathStep{schemas: schemas, coerce: c},
			&queryStep{schemas: schemas, coerce: c},
			&bodyStep{schemas: schemas, coerce: c, maxBytes: opts.MaxBodyBytes},
		},
	}, nil
}

// Steps returns the steps in execution order.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Run validates req against op. The first failing step wins; later steps do
// not run.
func (p *Pipeline) Run(ctx context.Context, op *spec.Operation, req *Request) *Error {
	for _, step := range p.steps {
		if err := step.Validate(ctx, op, req); err != nil {
			return err
		}
	}
	return nil
}
