package engine

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getmockd/specmock/pkg/httputil"
	"github.com/getmockd/specmock/pkg/logging"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter.
func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write writes data to the underlying ResponseWriter.
func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware so that the first one listed runs outermost.
func Chain(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// RequestScope attaches a RequestContext and a logger carrying the request
// ID, method and path to every request, and echoes the ID in the response.
func RequestScope(log *slog.Logger) Middleware {
	if log == nil {
		log = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := &RequestContext{ID: requestID(r)}
			reqLog := log.With("requestId", rc.ID, "method", r.Method, "path", r.URL.Path)

			ctx := withRequestContext(r.Context(), rc)
			ctx = logging.WithContext(ctx, reqLog)

			w.Header().Set(RequestIDHeader, rc.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog logs every completed request at info.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		attrs := []any{
			"status", rec.statusCode,
			"duration", time.Since(start),
		}
		if rc := RequestContextFrom(r.Context()); rc != nil && rc.Operation != nil {
			attrs = append(attrs, "operationId", rc.Operation.ID)
			if rc.Rejection != nil {
				attrs = append(attrs, "rejectedBy", rc.Rejection.Step)
			}
		}
		logging.FromContext(r.Context()).Info("request completed", attrs...)
	})
}

// Recover turns a panic into a 500 response. http.ErrAbortHandler is
// re-raised so the server can abort the connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logging.FromContext(r.Context()).Error("panic while serving request",
				"panic", v,
				"stack", string(debug.Stack()),
			)
			if !rec.written {
				httputil.WriteInternalError(rec)
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
