// Package instrumentation provides OpenTelemetry instrumentation for the
// tweetbridge MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Twitter API Metrics:
//   - twitter_api_requests_total: Counter of outbound requests by operation, status and status class
//   - twitter_api_request_duration_seconds: Histogram of outbound request durations
//   - twitter_posts_rejected_total: Counter of posts refused locally, by reason
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for Twitter
// API calls (twitter.<operation>).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: tweetbridge)
//   - AUDIT_LOGGING_ENABLED / AUDIT_LOGGING_INCLUDE_CONTENT: audit log switches
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordTwitterRequest(ctx, instrumentation.OperationCreateTweet, "success", 201, time.Since(start))
//	recorder.RecordToolInvocation(ctx, "create-post-on-twitter", "success", time.Since(start))
package instrumentation
