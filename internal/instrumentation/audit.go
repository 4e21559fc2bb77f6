package instrumentation

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf16"
)

// ToolInvocation captures everything the audit log records about one MCP tool call.
//
// The posted text is held in Content but only written out when the audit
// logger is configured with IncludeContent. The character count is always logged.
type ToolInvocation struct {
	Tool string

	// Outcome of the remote operation
	Operation     string
	TweetID       string
	ContentLength int
	Content       string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// WithContent records the text the tool was asked to post.
func (ti *ToolInvocation) WithContent(content string) *ToolInvocation {
	ti.Content = content
	ti.ContentLength = len(utf16.Encode([]rune(content)))
	return ti
}

// WithOperation records the remote operation the tool performed.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithTweetID records the identifier of the created tweet.
func (ti *ToolInvocation) WithTweetID(id string) *ToolInvocation {
	ti.TweetID = id
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// LogAttrs returns slog attributes for structured logging. Optional fields are
// only present when set; the content only when includeContent is true.
func (ti *ToolInvocation) LogAttrs(includeContent bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
		slog.Int("content_length", ti.ContentLength),
	}

	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if ti.TweetID != "" {
		attrs = append(attrs, slog.String("tweet_id", ti.TweetID))
	}
	if includeContent && ti.Content != "" {
		attrs = append(attrs, slog.String("content", ti.Content))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger         *slog.Logger
	includeContent bool
	enabled        bool
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:         logger.With(slog.String("component", "audit")),
		includeContent: config.IncludeContent,
		enabled:        config.Enabled,
	}
}

// Enabled reports whether audit lines are written.
func (al *AuditLogger) Enabled() bool {
	return al != nil && al.enabled
}

// LogToolInvocation writes one "tool_executed" (info) or "tool_failed" (warn) line.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.Enabled() || ti == nil {
		return
	}

	attrs := ti.LogAttrs(al.includeContent)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
