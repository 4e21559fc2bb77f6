package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tweetbridge/internal/config"
	"github.com/teemow/tweetbridge/internal/instrumentation"
	"github.com/teemow/tweetbridge/internal/logging"
	"github.com/teemow/tweetbridge/internal/resources"
	"github.com/teemow/tweetbridge/internal/server"
	"github.com/teemow/tweetbridge/internal/tools/twitter_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	commonOptions

	transport        string
	httpAddr         string
	watchEnv         bool
	readOnly         bool
	disableStreaming bool
	metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing the
create-post-on-twitter tool and the greeting://{name} resource.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Credentials:
  CONSUMER_KEY, CONSUMER_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_SECRET
  are read from the environment on every post. They may be placed in a .env
  file (see --env-file); with --watch-env the file is re-applied when it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http. Can also use MCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use MCP_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&opts.watchEnv, "watch-env", false, "Re-apply environment files when they change")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Keep the tool registered but refuse to post")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (HTTP transport only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// serveOverrides copies explicitly set serve flags into settings.
func serveOverrides(opts *serveOptions) flagOverrides {
	return func(cmd *cobra.Command, s *config.Settings) {
		if cmd.Flags().Changed("transport") {
			s.Server.Transport = opts.transport
		}
		if cmd.Flags().Changed("http-addr") {
			s.Server.HTTPAddr = opts.httpAddr
		}
	}
}

// resolveMetricsConfig applies METRICS_ENABLED and METRICS_ADDR when the
// corresponding flag was not set.
func resolveMetricsConfig(cmd *cobra.Command, mc MetricsConfig) MetricsConfig {
	if !cmd.Flags().Changed("metrics-enabled") {
		switch os.Getenv("METRICS_ENABLED") {
		case "true":
			mc.Enabled = true
		case "false":
			mc.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			mc.Addr = addr
		}
	}
	return mc
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := loadRuntime(cmd, &opts.commonOptions, serveOverrides(opts))
	if err != nil {
		return err
	}
	logger := rt.logger
	transport := rt.settings.Server.Transport
	metricsConfig := resolveMetricsConfig(cmd, opts.metrics)

	if opts.watchEnv {
		if err := startEnvWatcher(shutdownCtx, rt); err != nil {
			return err
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	if transport != config.TransportStdio && metricsConfig.Enabled && provider.PrometheusHandler() != nil {
		metricsServer, err := startMetricsServer(metricsConfig, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithTwitterClient(rt.newTwitterClient(provider.Metrics())),
		server.WithMetrics(provider.Metrics()),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
		server.WithLogger(logger),
		server.WithReadOnly(opts.readOnly),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	logger.Info("starting tweetbridge",
		append([]any{
			"version", version,
			"transport", transport,
			"read_only", opts.readOnly,
		}, rt.describe()...)...,
	)

	// Start the appropriate server based on transport type
	switch transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, rt.settings.Server.HTTPAddr, opts.disableStreaming, provider.Metrics(), logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

// newMCPServer creates the MCP server with every tool and resource registered.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("tweetbridge", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	registrations := []struct {
		name     string
		register func() error
	}{
		{
			name:     "Twitter tools",
			register: func() error { return twitter_tools.RegisterTwitterTools(mcpSrv, sc) },
		},
		{
			name:     "resources",
			register: func() error { return resources.RegisterResources(mcpSrv) },
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return mcpSrv, nil
}

func startEnvWatcher(ctx context.Context, rt *runtimeEnv) error {
	adapter := logging.NewSlogAdapter(logging.WithOperation(rt.logger, "env_reload"))
	watcher, err := config.NewEnvWatcher(rt.envFiles.Paths(), func() {
		if err := rt.envFiles.Reload(); err != nil {
			adapter.Warn("failed to reload environment files", logging.Err(err))
		}
	}, config.WithWatcherLogger(adapter))
	if err != nil {
		return err
	}

	go func() {
		if err := watcher.Run(ctx); err != nil {
			adapter.Warn("environment file watcher stopped", logging.Err(err))
		}
	}()
	return nil
}

func startMetricsServer(mc MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    mc.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, disableStreaming bool, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	health := server.NewHealthChecker(sc)

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             addr,
		DisableStreaming: disableStreaming,
		Health:           health,
		Metrics:          metrics,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		health.SetReady(false)
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during HTTP server shutdown: %w", err)
		}
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}
