package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/teemow/tweetbridge/internal/instrumentation"
	"github.com/teemow/tweetbridge/internal/logging"
	"github.com/teemow/tweetbridge/internal/server"
)

// ToolHandler is the signature mcp-go expects for tool handlers.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

// InvocationFromContext returns the audit record of the running tool call so
// the handler can attach what it posted. Nil outside an instrumented handler.
func InvocationFromContext(ctx context.Context) *instrumentation.ToolInvocation {
	inv, _ := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation)
	return inv
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			attribute.Bool(instrumentation.SpanAttrReadOnly, sc.IsReadOnly()),
		)
		defer span.End()

		// Get metrics and audit logger (may be nil if not configured)
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()
		logger := logging.WithTool(sc.Logger(), toolName)

		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)
		ctx = context.WithValue(ctx, invocationKey{}, invocation)

		result, err := handler(ctx, request)
		duration := time.Since(invocation.StartTime)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			if invocation.Error == "" {
				invocation.Error = resultText(result)
			}
			span.SetStatus(codes.Error, invocation.Error)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(invocation)
		logger.Debug("tool invocation finished",
			logging.Status(status),
			slog.Duration(logging.KeyDuration, duration),
			slog.String("trace_id", invocation.TraceID),
		)

		return result, err
	}
}

// resultText returns the first text block of a tool result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			return tc.Text
		}
	}
	return ""
}
