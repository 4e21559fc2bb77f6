// Package server provides the MCP server context, health checks, the metrics
// server and the streamable HTTP transport for tweetbridge.
//
// # Key Components
//
// ServerContext carries what the tool handlers need: the Twitter client, a
// credential source read on every call, the metrics recorder, the audit
// logger and the read-only switch.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed. Missing
// Twitter credentials are reported but do not make the server unready, since
// credentials are read at call time and may arrive through a reloaded .env.
//
// MetricsServer exposes Prometheus metrics on a dedicated port so operational
// data stays off the MCP listener.
//
// HTTPServer serves the MCP streamable HTTP transport on /mcp next to the
// health endpoints, recording http_requests_total for every request.
package server
