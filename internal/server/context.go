package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/tweetbridge/internal/config"
	"github.com/teemow/tweetbridge/internal/instrumentation"
	"github.com/teemow/tweetbridge/internal/twitter"
)

// CredentialSource returns the Twitter credentials to use for one post.
// It is called on every invocation so configuration changes apply without
// a restart.
type CredentialSource func() twitter.Credentials

// ServerContext holds the dependencies shared by the MCP tool handlers.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	client      *twitter.Client
	credentials CredentialSource
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	readOnly    bool
	mu          sync.RWMutex
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithTwitterClient sets the client used to submit posts.
func WithTwitterClient(c *twitter.Client) Option {
	return func(sc *ServerContext) {
		sc.client = c
	}
}

// WithCredentialSource overrides where credentials are read from.
func WithCredentialSource(src CredentialSource) Option {
	return func(sc *ServerContext) {
		sc.credentials = src
	}
}

// WithMetrics sets the metrics recorder used by tool handlers.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithAuditLogger sets the audit logger used by tool handlers.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) {
		sc.auditLogger = al
	}
}

// WithLogger sets the logger for server diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) {
		sc.logger = l
	}
}

// WithReadOnly disables posting.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) {
		sc.readOnly = readOnly
	}
}

// NewServerContext creates a new server context. Without options it posts
// through a default twitter.Client using credentials from the environment.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		credentials: config.CredentialsFromEnv,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	if sc.client == nil {
		sc.client = twitter.NewClient(twitter.WithMetrics(sc.metrics))
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// TwitterClient returns the client used to submit posts.
func (sc *ServerContext) TwitterClient() *twitter.Client {
	return sc.client
}

// Credentials reads the current Twitter credentials.
func (sc *ServerContext) Credentials() twitter.Credentials {
	return sc.credentials()
}

// Metrics returns the metrics recorder. May be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger. May be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsReadOnly reports whether posting is disabled.
func (sc *ServerContext) IsReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
