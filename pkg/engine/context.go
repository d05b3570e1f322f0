package engine

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/getmockd/specmock/pkg/spec"
	"github.com/getmockd/specmock/pkg/validation"
)

// RequestIDHeader carries the request ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestContext is the per-request record shared by the middleware and the
// handler.
type RequestContext struct {
	ID         string
	Operation  *spec.Operation
	PathParams map[string]string
	// Rejection is the failed validation step, nil when the request passed
	// or was never validated.
	Rejection *validation.Error
}

type requestContextKey struct{}

func withRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the record attached by the server middleware,
// or nil.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}

// requestID reuses a client supplied ID or generates one.
func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" && len(id) <= 128 {
		return id
	}
	return uuid.NewString()
}

func recordMatch(r *http.Request, op *spec.Operation, params map[string]string) {
	if rc := RequestContextFrom(r.Context()); rc != nil {
		rc.Operation = op
		rc.PathParams = params
	}
}

func recordRejection(r *http.Request, verr *validation.Error) {
	if rc := RequestContextFrom(r.Context()); rc != nil {
		rc.Rejection = verr
	}
}
