package twitter

import (
	"fmt"
	"strings"
)

// Credentials are the four OAuth 1.0a secrets of a Twitter app acting on
// behalf of one user.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// HasConsumer reports whether both consumer (app) values are set.
func (c Credentials) HasConsumer() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// HasAccess reports whether both access (user) values are set.
func (c Credentials) HasAccess() bool {
	return c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Complete reports whether all four values are set.
func (c Credentials) Complete() bool {
	return c.HasConsumer() && c.HasAccess()
}

// PostRequest is the text to publish.
type PostRequest struct {
	Text string
}

// createTweetRequest is the JSON body of POST /2/tweets.
type createTweetRequest struct {
	Text string `json:"text"`
}

// TweetResponse is the success body of POST /2/tweets.
type TweetResponse struct {
	Data *TweetData `json:"data"`
}

// TweetData describes the created tweet.
type TweetData struct {
	ID                  string   `json:"id"`
	Text                string   `json:"text"`
	EditHistoryTweetIDs []string `json:"edit_history_tweet_ids,omitempty"`
}

// ErrorResponse is a Twitter API error body. v1.1 style errors carry
// code/message pairs; v2 problem documents carry title/detail/type/status.
type ErrorResponse struct {
	Errors []APIError `json:"errors,omitempty"`
	Title  string     `json:"title,omitempty"`
	Detail string     `json:"detail,omitempty"`
	Type   string     `json:"type,omitempty"`
	Status int        `json:"status,omitempty"`
}

// APIError is a single entry of ErrorResponse.Errors.
type APIError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Title   string `json:"title,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Summary returns the most specific human readable message in the body.
func (r *ErrorResponse) Summary() string {
	if r == nil {
		return ""
	}
	var parts []string
	for _, e := range r.Errors {
		switch {
		case e.Message != "":
			parts = append(parts, e.Message)
		case e.Detail != "":
			parts = append(parts, e.Detail)
		case e.Title != "":
			parts = append(parts, e.Title)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	if r.Detail != "" {
		return r.Detail
	}
	return r.Title
}

// ErrorKind classifies a failed post.
type ErrorKind string

const (
	// KindValidation means the text was rejected locally.
	KindValidation ErrorKind = "validation"
	// KindConfiguration means credentials were missing.
	KindConfiguration ErrorKind = "configuration"
	// KindRemoteAPI means Twitter answered with a structured error body.
	KindRemoteAPI ErrorKind = "remote_api"
	// KindTransport covers every other failure of the HTTP exchange.
	KindTransport ErrorKind = "transport"
)

// TransportStage records how far the HTTP exchange got before failing.
type TransportStage string

const (
	// StageResponse means a response was received with an error status or an unusable body.
	StageResponse TransportStage = "response"
	// StageNoResponse means the request was issued but no response arrived.
	StageNoResponse TransportStage = "no_response"
	// StageNotSent means the request could not be built or signed.
	StageNotSent TransportStage = "not_sent"
)

// PostError describes why a post failed.
type PostError struct {
	Kind  ErrorKind
	Stage TransportStage // empty for validation and configuration failures

	// Message is the local diagnostic.
	Message string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	// Response is the decoded remote error body, when it could be decoded.
	Response *ErrorResponse

	// Body is the raw remote error body, set only for KindRemoteAPI.
	Body []byte

	Err error
}

// Error implements the error interface
func (e *PostError) Error() string {
	if e.Err != nil && e.Message != e.Err.Error() {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the errors.Unwrap interface
func (e *PostError) Unwrap() error {
	return e.Err
}

// Detail is the error text shown to callers: the remote body verbatim when
// Twitter sent one, otherwise the local diagnostic.
func (e *PostError) Detail() string {
	if len(e.Body) > 0 {
		return string(e.Body)
	}
	return e.Error()
}

// PostResult is the outcome of Submit. Exactly one of the success fields
// (TweetID, Data, RawResponse) or Err is populated.
type PostResult struct {
	Success     bool
	TweetID     string
	Data        *TweetResponse
	RawResponse []byte
	Err         *PostError
}

func succeeded(resp *TweetResponse, raw []byte) *PostResult {
	return &PostResult{
		Success:     true,
		TweetID:     resp.Data.ID,
		Data:        resp,
		RawResponse: raw,
	}
}

func failed(err *PostError) *PostResult {
	return &PostResult{Err: err}
}

// SigningError is returned by Signer when the target URL cannot be normalized.
type SigningError struct {
	URL string
	Err error
}

// Error implements the error interface
func (e *SigningError) Error() string {
	return fmt.Sprintf("oauth1 signing %q: %v", e.URL, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SigningError) Unwrap() error {
	return e.Err
}
