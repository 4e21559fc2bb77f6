package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tweetbridge/internal/logging"
)

// fakeAPI is a stand-in for the Twitter API that counts requests.
type fakeAPI struct {
	server *httptest.Server
	calls  atomic.Int32
	last   atomic.Pointer[http.Request]
	body   atomic.Value
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()

	f := &fakeAPI{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		reqBody, _ := io.ReadAll(r.Body)
		f.body.Store(reqBody)
		f.last.Store(r.Clone(context.Background()))

		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client(opts ...Option) *Client {
	return NewClient(append([]Option{WithBaseURL(f.server.URL), WithLogger(logging.Discard())}, opts...)...)
}

const successBody = `{"data":{"id":"123","text":"hi"}}`

func TestSubmit_EmptyContent(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)
	client := api.client()

	for _, text := range []string{"", " ", "   \t\n", "  ", "\ufeff", " \ufeff\u2028"} {
		result := client.Submit(context.Background(), PostRequest{Text: text}, testCreds)

		require.False(t, result.Success, "%q", text)
		require.NotNil(t, result.Err)
		assert.Equal(t, KindValidation, result.Err.Kind)
		assert.Equal(t, "Tweet content cannot be empty", result.Err.Detail())
	}
	assert.Zero(t, api.calls.Load(), "no request may be sent for empty content")
}

func TestSubmit_TooLong(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)
	client := api.client()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"281 ascii", strings.Repeat("a", 281), "Tweet exceeds maximum length (281/280 characters)"},
		{"500 ascii", strings.Repeat("b", 500), "Tweet exceeds maximum length (500/280 characters)"},
		{"281 two-byte characters", strings.Repeat("é", 281), "Tweet exceeds maximum length (281/280 characters)"},
		{"150 emoji", strings.Repeat("😀", 150), "Tweet exceeds maximum length (300/280 characters)"},
		{"141 emoji", strings.Repeat("👋", 141), "Tweet exceeds maximum length (282/280 characters)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.Submit(context.Background(), PostRequest{Text: tt.text}, testCreds)

			require.False(t, result.Success)
			assert.Equal(t, KindValidation, result.Err.Kind)
			assert.Equal(t, tt.want, result.Err.Detail())
		})
	}
	assert.Zero(t, api.calls.Load())
}

func TestSubmit_LengthCountsCharactersNotBytes(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)

	// 280 two-byte characters is 560 bytes but still a valid tweet.
	result := api.client().Submit(context.Background(), PostRequest{Text: strings.Repeat("é", 280)}, testCreds)

	require.True(t, result.Success, "unexpected failure: %+v", result.Err)
	assert.EqualValues(t, 1, api.calls.Load())
}

func TestSubmit_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Credentials)
		want   string
	}{
		{"consumer key", func(c *Credentials) { c.ConsumerKey = "" }, MsgMissingConsumer},
		{"consumer secret", func(c *Credentials) { c.ConsumerSecret = "" }, MsgMissingConsumer},
		{"access token", func(c *Credentials) { c.AccessToken = "" }, MsgMissingAccess},
		{"access token secret", func(c *Credentials) { c.AccessTokenSecret = "" }, MsgMissingAccess},
		{"everything", func(c *Credentials) { *c = Credentials{} }, MsgMissingConsumer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, http.StatusCreated, successBody)
			creds := testCreds
			tt.mutate(&creds)

			result := api.client().Submit(context.Background(), PostRequest{Text: "hi"}, creds)

			require.False(t, result.Success)
			assert.Equal(t, KindConfiguration, result.Err.Kind)
			assert.Equal(t, tt.want, result.Err.Detail())
			assert.Zero(t, api.calls.Load())
		})
	}
}

func TestSubmit_ValidationPrecedesCredentials(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)

	result := api.client().Submit(context.Background(), PostRequest{Text: ""}, Credentials{})

	assert.Equal(t, MsgEmptyContent, result.Err.Detail())
}

func TestSubmit_Success(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, successBody)

	result := api.client().Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	require.True(t, result.Success, "unexpected failure: %+v", result.Err)
	assert.Nil(t, result.Err)
	assert.Equal(t, "123", result.TweetID)
	assert.Equal(t, successBody, string(result.RawResponse))
	require.NotNil(t, result.Data)
	assert.Equal(t, "hi", result.Data.Data.Text)
	assert.EqualValues(t, 1, api.calls.Load())
}

func TestSubmit_RequestShape(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)

	result := api.client().Submit(context.Background(), PostRequest{Text: "hello \"world\" & friends"}, testCreds)
	require.True(t, result.Success)

	req := api.last.Load()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/2/tweets", req.URL.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "mcp-bot", req.Header.Get("User-Agent"))

	auth := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "OAuth "), auth)
	assert.Contains(t, auth, `oauth_consumer_key="consumer-key"`)
	assert.Contains(t, auth, `oauth_token="access-token"`)
	assert.Contains(t, auth, `oauth_signature_method="HMAC-SHA1"`)
	assert.Contains(t, auth, `oauth_version="1.0"`)

	var sent map[string]string
	require.NoError(t, json.Unmarshal(api.body.Load().([]byte), &sent))
	assert.Equal(t, map[string]string{"text": "hello \"world\" & friends"}, sent)
}

func TestSubmit_SignsTheActualEndpoint(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)
	signer := NewSigner(
		WithNonceSource(func() string { return "n0nce" }),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)

	client := api.client(WithSigner(signer))
	require.True(t, client.Submit(context.Background(), PostRequest{Text: "hi"}, testCreds).Success)

	want, err := SignWith("POST", api.server.URL+"/2/tweets", testCreds, "n0nce", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, want, api.last.Load().Header.Get("Authorization"))
}

func TestSubmit_CustomUserAgent(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)

	api.client(WithUserAgent("tweetbridge/1.0")).Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	assert.Equal(t, "tweetbridge/1.0", api.last.Load().Header.Get("User-Agent"))
}

func TestSubmit_RemoteAPIError(t *testing.T) {
	body := `{"errors":[{"code":187,"message":"Duplicate"}]}`
	api := newFakeAPI(t, http.StatusForbidden, body)

	result := api.client().Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	require.False(t, result.Success)
	perr := result.Err
	assert.Equal(t, KindRemoteAPI, perr.Kind)
	assert.Equal(t, StageResponse, perr.Stage)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.Equal(t, body, perr.Detail())
	require.NotNil(t, perr.Response)
	require.Len(t, perr.Response.Errors, 1)
	assert.Equal(t, 187, perr.Response.Errors[0].Code)
	assert.Equal(t, "Twitter API returned status 403: Duplicate", perr.Error())
	assert.Empty(t, result.TweetID)
}

func TestSubmit_ProblemDocument(t *testing.T) {
	body := `{"title":"Unauthorized","type":"about:blank","status":401,"detail":"Unauthorized"}`
	api := newFakeAPI(t, http.StatusUnauthorized, body)

	result := api.client().Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	require.False(t, result.Success)
	assert.Equal(t, KindRemoteAPI, result.Err.Kind)
	assert.Equal(t, body, result.Err.Detail())
	assert.Equal(t, 401, result.Err.Response.Status)
	assert.Equal(t, "Unauthorized", result.Err.Response.Summary())
}

func TestSubmit_ErrorStatusWithoutJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty body", http.StatusInternalServerError, ""},
		{"html body", http.StatusServiceUnavailable, "<html>over capacity</html>"},
		{"whitespace body", http.StatusBadGateway, "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, tt.status, tt.body)

			result := api.client().Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

			require.False(t, result.Success)
			assert.Equal(t, KindTransport, result.Err.Kind)
			assert.Equal(t, StageResponse, result.Err.Stage)
			assert.Equal(t, tt.status, result.Err.StatusCode)
			assert.Contains(t, result.Err.Detail(), "request failed with status code")
			assert.Empty(t, result.Err.Body)
		})
	}
}

func TestSubmit_SuccessStatusWithoutID(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty id", `{"data":{"id":"","text":"hi"}}`},
		{"no data", `{}`},
		{"not json", `ok`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, http.StatusCreated, tt.body)

			result := api.client().Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

			require.False(t, result.Success, "a success result must carry a tweet id")
			assert.Equal(t, KindTransport, result.Err.Kind)
			assert.Contains(t, result.Err.Detail(), "unexpected response from Twitter API")
		})
	}
}

func TestSubmit_NoResponse(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)
	client := api.client()
	api.server.Close()

	result := client.Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	require.False(t, result.Success)
	assert.Equal(t, KindTransport, result.Err.Kind)
	assert.Equal(t, StageNoResponse, result.Err.Stage)
	assert.Zero(t, result.Err.StatusCode)
	assert.NotEmpty(t, result.Err.Detail())
	assert.Error(t, result.Err.Unwrap())
}

func TestSubmit_ContextCancelled(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := api.client().Submit(ctx, PostRequest{Text: "hi"}, testCreds)

	require.False(t, result.Success)
	assert.Equal(t, KindTransport, result.Err.Kind)
	assert.Equal(t, StageNoResponse, result.Err.Stage)
	assert.True(t, errors.Is(result.Err, context.Canceled))
}

func TestSubmit_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	client := NewClient(
		WithBaseURL(slow.URL),
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
		WithLogger(logging.Discard()),
	)

	result := client.Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	require.False(t, result.Success)
	assert.Equal(t, KindTransport, result.Err.Kind)
	assert.Equal(t, StageNoResponse, result.Err.Stage)
}

func TestSubmit_NotSent(t *testing.T) {
	client := NewClient(WithBaseURL("://not-a-url"), WithLogger(logging.Discard()))

	result := client.Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	require.False(t, result.Success)
	assert.Equal(t, KindTransport, result.Err.Kind)
	assert.Equal(t, StageNotSent, result.Err.Stage)

	var signErr *SigningError
	assert.True(t, errors.As(result.Err, &signErr))
}

func TestSubmit_NotIdempotent(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)
	client := api.client()

	first := client.Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)
	firstAuth := api.last.Load().Header.Get("Authorization")
	second := client.Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)
	secondAuth := api.last.Load().Header.Get("Authorization")

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.EqualValues(t, 2, api.calls.Load(), "every submit must reach the API")
	assert.NotEqual(t, firstAuth, secondAuth, "every request needs a fresh nonce")
}

func TestSubmit_LogsWithoutSecrets(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, successBody)

	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	NewClient(WithBaseURL(api.server.URL), WithLogger(logger)).
		Submit(context.Background(), PostRequest{Text: "hi"}, testCreds)

	out := buf.String()
	assert.Contains(t, out, "tweet posted")
	assert.Contains(t, out, "tweet_id=123")
	assert.Contains(t, out, "[token:")
	for _, secret := range []string{testCreds.ConsumerSecret, testCreds.AccessTokenSecret, "oauth_signature"} {
		assert.NotContains(t, out, secret)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient()

	assert.Equal(t, "https://api.twitter.com/2/tweets", client.Endpoint())
	assert.Equal(t, DefaultUserAgent, client.userAgent)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)

	trimmed := NewClient(WithBaseURL("http://localhost:8080/"))
	assert.Equal(t, "http://localhost:8080/2/tweets", trimmed.Endpoint())
}

func TestValidateText(t *testing.T) {
	assert.Nil(t, ValidateText("hello"))
	assert.Nil(t, ValidateText(strings.Repeat("x", 280)))
	assert.NotNil(t, ValidateText(strings.Repeat("x", 281)))
	assert.NotNil(t, ValidateText("\n"))
	assert.NotNil(t, ValidateText("\ufeff"))
	assert.NotNil(t, ValidateText(strings.Repeat("😀", 150)))
	assert.Nil(t, ValidateText(strings.Repeat("😀", 140)))
	assert.Nil(t, ValidateText("\u0085"), "NEL is not trimmed")
}

func TestTextLength(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"héllo", 5},
		{"😀", 2},
		{"a😀b", 4},
		{"\ufeff", 1},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, TextLength(tt.text))
		})
	}
}
