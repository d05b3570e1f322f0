package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/getmockd/specmock/internal/matching"
	"github.com/getmockd/specmock/pkg/generator"
	"github.com/getmockd/specmock/pkg/httputil"
	"github.com/getmockd/specmock/pkg/logging"
	"github.com/getmockd/specmock/pkg/spec"
	"github.com/getmockd/specmock/pkg/validation"
)

// ValidationStepHeader names the pipeline step that rejected a request.
const ValidationStepHeader = "X-Specmock-Validation-Step"

// state is everything derived from one document. It is replaced as a whole
// on reload.
type state struct {
	doc      *spec.Document
	resolver *matching.Resolver
	pipeline *validation.Pipeline // nil when validation is disabled
	synth    *Synthesizer
}

// Handler serves mock responses for the operations of an OpenAPI document.
// It is safe for concurrent use; Reload swaps the document atomically.
type Handler struct {
	log      *slog.Logger
	fallback http.Handler
	genOpts  generator.Options
	valOpts  validation.Options
	validate bool
	current  atomic.Pointer[state]
	matched  atomic.Uint64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithFallback delegates unmatched requests to next instead of answering 404.
func WithFallback(next http.Handler) HandlerOption {
	return func(h *Handler) {
		h.fallback = next
	}
}

// WithGeneratorOptions sets the response generator configuration.
func WithGeneratorOptions(opts generator.Options) HandlerOption {
	return func(h *Handler) {
		h.genOpts = opts
	}
}

// WithValidationOptions sets the request validation configuration.
func WithValidationOptions(opts validation.Options) HandlerOption {
	return func(h *Handler) {
		h.valOpts = opts
	}
}

// WithoutValidation skips the validation pipeline.
func WithoutValidation() HandlerOption {
	return func(h *Handler) {
		h.validate = false
	}
}

// NewHandler builds a Handler for doc.
func NewHandler(doc *spec.Document, opts ...HandlerOption) (*Handler, error) {
	h := &Handler{
		log:      logging.Nop(),
		genOpts:  generator.DefaultOptions(),
		valOpts:  validation.DefaultOptions(),
		validate: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.Reload(doc); err != nil {
		return nil, err
	}
	return h, nil
}

// Reload rebuilds the resolver, the compiled schemas and the generator for
// doc and swaps them in. On error the current document stays active.
func (h *Handler) Reload(doc *spec.Document) error {
	st, err := h.build(doc)
	if err != nil {
		return err
	}
	h.current.Store(st)
	return nil
}

func (h *Handler) build(doc *spec.Document) (*state, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	resolver, err := matching.NewResolver(doc.Operations)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}
	for _, a := range resolver.Ambiguities() {
		h.log.Warn("ambiguous path templates, first declared wins", "templates", a.String())
	}

	var pipeline *validation.Pipeline
	if h.validate {
		pipeline, err = validation.New(doc, h.valOpts)
		if err != nil {
			return nil, fmt.Errorf("build validation pipeline: %w", err)
		}
	}

	gen, err := generator.New(doc, h.genOpts)
	if err != nil {
		return nil, err
	}

	return &state{
		doc:      doc,
		resolver: resolver,
		pipeline: pipeline,
		synth:    NewSynthesizer(gen),
	}, nil
}

// Document returns the active document.
func (h *Handler) Document() *spec.Document {
	return h.current.Load().doc
}

// Requests returns the number of requests that matched an operation.
func (h *Handler) Requests() uint64 {
	return h.matched.Load()
}

// ServeHTTP resolves, validates and answers one request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := h.current.Load()
	ctx := r.Context()
	log := logging.FromContext(ctx)

	match := st.resolver.Resolve(r.Method, r.URL.EscapedPath(), r.Header, r.URL.Query())
	if match == nil {
		if h.fallback != nil {
			h.fallback.ServeHTTP(w, r)
			return
		}
		log.Debug("no operation matches", "allowed", st.resolver.AllowedMethods(r.URL.EscapedPath()))
		httputil.WriteNotFound(w)
		return
	}
	h.matched.Add(1)

	op := match.Operation
	log = log.With("operationId", op.ID, "operation", op.Key())
	recordMatch(r, op, match.PathParams)

	if st.pipeline != nil {
		req := &validation.Request{Request: r, PathParams: match.PathParams}
		if verr := st.pipeline.Run(ctx, op, req); verr != nil {
			log.Info("request rejected", "step", verr.Step, "status", verr.Status, "reason", verr.Message)
			recordRejection(r, verr)
			w.Header().Set(ValidationStepHeader, verr.Step)
			if verr.Challenge != "" {
				w.Header().Set("WWW-Authenticate", verr.Challenge)
			}
			httputil.WriteJSON(w, verr.Status, validation.NewErrorResponse(verr))
			return
		}
	}

	resp, err := st.synth.Synthesize(ctx, op, r.Header.Get("Accept"))
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("request cancelled during generation", "error", ctx.Err())
			return
		}
		log.Error("failed to generate response", "error", err)
		httputil.WriteInternalError(w)
		return
	}

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	httputil.WriteBody(w, resp.Status, resp.ContentType, resp.Body)
}
