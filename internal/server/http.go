package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tweetbridge/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is mounted.
const MCPEndpointPath = "/mcp"

const (
	// DefaultHTTPReadHeaderTimeout bounds how long a client may take to send headers.
	DefaultHTTPReadHeaderTimeout = 10 * time.Second

	// DefaultHTTPIdleTimeout closes idle keep-alive connections.
	DefaultHTTPIdleTimeout = 120 * time.Second
)

// pathOther is the metrics label for requests outside the known routes.
const pathOther = "other"

// HTTPServerConfig holds configuration for the MCP HTTP server.
type HTTPServerConfig struct {
	// Addr is the listen address (e.g., ":8080").
	Addr string

	// DisableStreaming answers every request with a single JSON response
	// instead of an event stream.
	DisableStreaming bool

	// Health serves the probe endpoints. Optional.
	Health *HealthChecker

	// Metrics records http_requests_total. Optional.
	Metrics *instrumentation.Metrics

	Logger *slog.Logger
}

// HTTPServer serves the MCP streamable HTTP transport plus health probes.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	config    HTTPServerConfig

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	closed     bool
}

// NewHTTPServer creates an HTTP server for mcpSrv.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpSrv == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	if config.Addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &HTTPServer{
		mcpServer: mcpSrv,
		config:    config,
	}, nil
}

// Handler builds the request router.
func (s *HTTPServer) Handler() http.Handler {
	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpointPath),
	}
	if s.config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer, opts...)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, streamable)
	if s.config.Health != nil {
		s.config.Health.RegisterHealthEndpoints(mux)
	}

	return metricsMiddleware(s.config.Metrics, mux)
}

// Start serves until Shutdown. It blocks.
func (s *HTTPServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal closes ready (if non-nil) once the listener is bound.
// It returns http.ErrServerClosed without serving if Shutdown came first.
func (s *HTTPServer) StartWithReadySignal(ready chan<- struct{}) error {
	if s.isClosed() {
		return http.ErrServerClosed
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	// No WriteTimeout: responses on /mcp may stream.
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultHTTPReadHeaderTimeout,
		IdleTimeout:       DefaultHTTPIdleTimeout,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return http.ErrServerClosed
	}
	s.listener = ln
	s.httpServer = srv
	s.mu.Unlock()

	s.config.Logger.Info("starting MCP HTTP server",
		"addr", ln.Addr().String(),
		"endpoint", MCPEndpointPath,
		"streaming", !s.config.DisableStreaming,
	)
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}

// Shutdown gracefully shuts down the server. A server that has not started
// yet will refuse to start.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		s.config.Logger.Info("shutting down MCP HTTP server")
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *HTTPServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// knownPaths bounds the path label of http_requests_total.
var knownPaths = map[string]bool{
	MCPEndpointPath:     true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

func metricsMiddleware(m *instrumentation.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if !knownPaths[path] {
			path = pathOther
		}
		m.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status while passing flushes through
// so event streams keep working.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
