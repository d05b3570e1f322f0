package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/getmockd/specmock/pkg/httputil"
	"github.com/getmockd/specmock/pkg/logging"
)

// Server is the HTTP front of a Handler: control routes, the base path
// mount and the request middleware.
type Server struct {
	handler      *Handler
	log          *slog.Logger
	addr         string
	basePath     string
	readTimeout  time.Duration
	writeTimeout time.Duration

	httpHandler http.Handler
	httpServer  *http.Server
	listener    net.Listener
	mu          sync.Mutex
	running     bool
	startTime   time.Time
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the listen address, e.g. "localhost:4010". Port 0 picks a
// free port.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithBasePath mounts the mock under prefix, e.g. "/v1".
func WithBasePath(prefix string) ServerOption {
	return func(s *Server) {
		s.basePath = strings.TrimRight(prefix, "/")
	}
}

// WithTimeouts sets the HTTP server read and write timeouts.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// WithServerLogger sets the operational logger for the server.
func WithServerLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates a Server for handler.
func NewServer(handler *Handler, opts ...ServerOption) *Server {
	s := &Server{
		handler:   handler,
		log:       logging.Nop(),
		addr:      "localhost:4010",
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpHandler = Chain(s.router(), RequestScope(s.log), AccessLog, Recover)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter().SkipClean(true).UseEncodedPath()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteNotFound(w)
	})

	control := r.PathPrefix(ControlPrefix).Subrouter()
	control.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	control.HandleFunc("/operations", s.handleOperations).Methods(http.MethodGet)

	if s.basePath == "" {
		r.PathPrefix("/").Handler(s.handler)
		return r
	}
	mounted := http.StripPrefix(s.basePath, rootPath(s.handler))
	r.Path(s.basePath).Handler(mounted)
	r.PathPrefix(s.basePath + "/").Handler(mounted)
	return r
}

// rootPath maps the empty path left by StripPrefix to "/".
func rootPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" {
			r.URL.Path = "/"
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the complete HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpHandler
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.httpHandler,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	s.log.Info("starting HTTP server", "addr", ln.Addr().String(), "basePath", s.basePath)
	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.listener = nil
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Run starts the server and blocks until ctx is done, then shuts down with
// a grace period.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.Stop(shutdownCtx)
}
