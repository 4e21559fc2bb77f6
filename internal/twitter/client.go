package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/tweetbridge/internal/instrumentation"
	"github.com/teemow/tweetbridge/internal/logging"
)

const (
	// DefaultBaseURL is the Twitter API host.
	DefaultBaseURL = "https://api.twitter.com"

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "mcp-bot"

	// DefaultTimeout bounds one request/response exchange.
	DefaultTimeout = 30 * time.Second

	// MaxTweetLength is the character limit of a standard tweet, counted in
	// UTF-16 code units (see TextLength).
	MaxTweetLength = 280

	tweetsPath = "/2/tweets"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Validation and configuration messages returned in PostError.Message.
const (
	MsgEmptyContent       = "Tweet content cannot be empty"
	MsgMissingConsumer    = "Missing Twitter consumer credentials in environment variables"
	MsgMissingAccess      = "Missing Twitter access credentials in environment variables"
	msgTooLongFormat      = "Tweet exceeds maximum length (%d/%d characters)"
	msgUnexpectedResponse = "unexpected response from Twitter API"
)

// Client submits tweets. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	signer     *Signer
	logger     logging.Logger
	metrics    *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at another API host (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSigner replaces the request signer.
func WithSigner(s *Signer) Option {
	return func(c *Client) {
		if s != nil {
			c.signer = s
		}
	}
}

// WithLogger sets the logger that receives request and failure diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records request and rejection metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient returns a Client with the given options applied over the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		signer:     NewSigner(),
		logger:     logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint is the URL tweets are posted to.
func (c *Client) Endpoint() string {
	return c.baseURL + tweetsPath
}

// TextLength counts text in UTF-16 code units, so characters outside the
// Basic Multilingual Plane (most emoji) count as two.
func TextLength(text string) int {
	return len(utf16.Encode([]rune(text)))
}

// isTrimmable matches the characters JavaScript's String.prototype.trim
// removes: Unicode White_Space except U+0085, plus the byte order mark.
func isTrimmable(r rune) bool {
	return r == '\uFEFF' || (unicode.IsSpace(r) && r != '\u0085')
}

// ValidateText checks a tweet locally. Returns nil when the text may be sent.
func ValidateText(text string) *PostError {
	if strings.TrimFunc(text, isTrimmable) == "" {
		return &PostError{Kind: KindValidation, Message: MsgEmptyContent}
	}
	if n := TextLength(text); n > MaxTweetLength {
		return &PostError{Kind: KindValidation, Message: fmt.Sprintf(msgTooLongFormat, n, MaxTweetLength)}
	}
	return nil
}

// ValidateCredentials checks that all four secrets are present, consumer
// values first.
func ValidateCredentials(creds Credentials) *PostError {
	if !creds.HasConsumer() {
		return &PostError{Kind: KindConfiguration, Message: MsgMissingConsumer}
	}
	if !creds.HasAccess() {
		return &PostError{Kind: KindConfiguration, Message: MsgMissingAccess}
	}
	return nil
}

// Submit validates, signs and sends one tweet. Every outcome, including
// cancellation of ctx, is reported through the returned result.
func (c *Client) Submit(ctx context.Context, req PostRequest, creds Credentials) *PostResult {
	length := TextLength(req.Text)
	ctx, span := instrumentation.StartTwitterAPISpan(ctx, instrumentation.OperationCreateTweet,
		attribute.Int(instrumentation.SpanAttrContentLength, length),
	)
	defer span.End()

	if perr := ValidateText(req.Text); perr != nil {
		reason := instrumentation.RejectReasonTooLong
		if perr.Message == MsgEmptyContent {
			reason = instrumentation.RejectReasonEmpty
		}
		return c.reject(ctx, span, perr, reason)
	}
	if perr := ValidateCredentials(creds); perr != nil {
		return c.reject(ctx, span, perr, instrumentation.RejectReasonCredentials)
	}

	start := time.Now()
	result, statusCode := c.send(ctx, req.Text, creds)
	duration := time.Since(start)

	if statusCode > 0 {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatus, statusCode))
	}

	if result.Success {
		c.metrics.RecordTwitterRequest(ctx, instrumentation.OperationCreateTweet, instrumentation.StatusSuccess, statusCode, duration)
		span.SetAttributes(attribute.String(instrumentation.SpanAttrTweetID, result.TweetID))
		instrumentation.SetSpanSuccess(span)
		c.logger.Info("tweet posted",
			logging.Operation(instrumentation.OperationCreateTweet),
			logging.TweetID(result.TweetID),
			logging.StatusCode(statusCode),
			logging.ContentLength(length),
		)
		return result
	}

	perr := result.Err
	if perr.Stage != StageNotSent {
		c.metrics.RecordTwitterRequest(ctx, instrumentation.OperationCreateTweet, instrumentation.StatusError, statusCode, duration)
	}
	span.SetAttributes(attribute.String(instrumentation.SpanAttrErrorKind, string(perr.Kind)))
	instrumentation.SetSpanError(span, perr)
	c.logger.Warn("tweet submission failed",
		logging.Operation(instrumentation.OperationCreateTweet),
		"kind", string(perr.Kind),
		logging.Stage(string(perr.Stage)),
		logging.StatusCode(perr.StatusCode),
		logging.Err(perr),
	)
	if len(perr.Body) > 0 {
		c.logger.Debug("twitter error response", "body", string(perr.Body))
	}
	return result
}

func (c *Client) reject(ctx context.Context, span trace.Span, perr *PostError, reason string) *PostResult {
	c.metrics.RecordPostRejected(ctx, reason)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrErrorKind, string(perr.Kind)))
	instrumentation.SetSpanError(span, perr)
	c.logger.Info("tweet rejected before sending", "kind", string(perr.Kind), "reason", reason)
	return failed(perr)
}

// send performs the HTTP exchange and returns the classified result together
// with the HTTP status code (0 when no response was received).
func (c *Client) send(ctx context.Context, text string, creds Credentials) (*PostResult, int) {
	endpoint := c.Endpoint()

	body, err := json.Marshal(createTweetRequest{Text: text})
	if err != nil {
		return failed(notSent("failed to encode request body", err)), 0
	}

	auth, err := c.signer.Sign(http.MethodPost, endpoint, creds)
	if err != nil {
		return failed(notSent("failed to sign request", err)), 0
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failed(notSent("failed to create request", err)), 0
	}
	httpReq.Header.Set("Authorization", auth)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("sending tweet",
		"url", endpoint,
		"authorization", logging.SanitizeToken(auth),
		logging.ContentLength(TextLength(text)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return failed(&PostError{
			Kind:    KindTransport,
			Stage:   StageNoResponse,
			Message: err.Error(),
			Err:     err,
		}), 0
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failed(&PostError{
			Kind:       KindTransport,
			Stage:      StageResponse,
			Message:    "failed to read response body",
			StatusCode: resp.StatusCode,
			Err:        err,
		}), resp.StatusCode
	}

	c.logger.Debug("twitter response", logging.StatusCode(resp.StatusCode), "bytes", len(raw))

	return classifyResponse(resp.StatusCode, raw), resp.StatusCode
}

func notSent(message string, err error) *PostError {
	return &PostError{
		Kind:    KindTransport,
		Stage:   StageNotSent,
		Message: message,
		Err:     err,
	}
}

// classifyResponse maps a received response onto a PostResult.
func classifyResponse(statusCode int, raw []byte) *PostResult {
	if statusCode >= 200 && statusCode < 300 {
		var tr TweetResponse
		if err := json.Unmarshal(raw, &tr); err != nil {
			return failed(&PostError{
				Kind:       KindTransport,
				Stage:      StageResponse,
				Message:    fmt.Sprintf("%s: %v", msgUnexpectedResponse, err),
				StatusCode: statusCode,
				Err:        err,
			})
		}
		if tr.Data == nil || tr.Data.ID == "" {
			return failed(&PostError{
				Kind:       KindTransport,
				Stage:      StageResponse,
				Message:    msgUnexpectedResponse + ": missing data.id",
				StatusCode: statusCode,
			})
		}
		return succeeded(&tr, raw)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return failed(&PostError{
			Kind:       KindTransport,
			Stage:      StageResponse,
			Message:    fmt.Sprintf("request failed with status code %d", statusCode),
			StatusCode: statusCode,
		})
	}

	perr := &PostError{
		Kind:       KindRemoteAPI,
		Stage:      StageResponse,
		StatusCode: statusCode,
		Body:       raw,
	}
	var er ErrorResponse
	if err := json.Unmarshal(trimmed, &er); err == nil {
		perr.Response = &er
	}
	if summary := perr.Response.Summary(); summary != "" {
		perr.Message = fmt.Sprintf("Twitter API returned status %d: %s", statusCode, summary)
	} else {
		perr.Message = fmt.Sprintf("Twitter API returned status %d", statusCode)
	}
	return failed(perr)
}
