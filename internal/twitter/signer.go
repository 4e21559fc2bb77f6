package twitter

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // OAuth 1.0a mandates HMAC-SHA1
	"encoding/base64"
	"errors"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	oauthVersion         = "1.0"
	oauthSignatureMethod = "HMAC-SHA1"
)

// Signer produces OAuth 1.0a HMAC-SHA1 authorization headers. The zero value
// is not usable; build one with NewSigner.
type Signer struct {
	nonce func() string
	now   func() time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithNonceSource replaces the random nonce generator.
func WithNonceSource(fn func() string) SignerOption {
	return func(s *Signer) {
		s.nonce = fn
	}
}

// WithClock replaces the clock used for oauth_timestamp.
func WithClock(fn func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = fn
	}
}

// NewSigner returns a Signer using a random nonce and the wall clock.
func NewSigner(opts ...SignerOption) *Signer {
	s := &Signer{
		nonce: newNonce,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newNonce returns 32 random hex characters.
func newNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sign returns the Authorization header value for one request. Every call
// uses a fresh nonce and the current time.
func (s *Signer) Sign(method, rawURL string, creds Credentials) (string, error) {
	return SignWith(method, rawURL, creds, s.nonce(), s.now().Unix())
}

// SignWith is the deterministic core of Sign: identical inputs always
// produce a byte-identical header.
func SignWith(method, rawURL string, creds Credentials, nonce string, timestamp int64) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &SigningError{URL: rawURL, Err: err}
	}
	baseURL, err := normalizeURL(u)
	if err != nil {
		return "", &SigningError{URL: rawURL, Err: err}
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     creds.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": oauthSignatureMethod,
		"oauth_timestamp":        strconv.FormatInt(timestamp, 10),
		"oauth_token":            creds.AccessToken,
		"oauth_version":          oauthVersion,
	}

	params := make([]param, 0, len(oauthParams))
	for k, v := range oauthParams {
		params = append(params, param{key: k, value: v})
	}
	for k, values := range u.Query() {
		for _, v := range values {
			params = append(params, param{key: k, value: v})
		}
	}

	base := signatureBase(method, baseURL, params)
	oauthParams["oauth_signature"] = signature(base, creds.ConsumerSecret, creds.AccessTokenSecret)

	return authorizationHeader(oauthParams), nil
}

type param struct {
	key, value string
}

// signatureBase builds METHOD&enc(url)&enc(k1=v1&k2=v2...) with parameters
// encoded first and then sorted by key and value.
func signatureBase(method, baseURL string, params []param) string {
	encoded := make([]param, len(params))
	for i, p := range params {
		encoded[i] = param{key: PercentEncode(p.key), value: PercentEncode(p.value)}
	}
	sort.Slice(encoded, func(i, j int) bool {
		if encoded[i].key != encoded[j].key {
			return encoded[i].key < encoded[j].key
		}
		return encoded[i].value < encoded[j].value
	})

	pairs := make([]string, len(encoded))
	for i, p := range encoded {
		pairs[i] = p.key + "=" + p.value
	}

	return strings.ToUpper(method) + "&" + PercentEncode(baseURL) + "&" + PercentEncode(strings.Join(pairs, "&"))
}

func signature(base, consumerSecret, tokenSecret string) string {
	key := PercentEncode(consumerSecret) + "&" + PercentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func authorizationHeader(oauthParams map[string]string) string {
	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = PercentEncode(k) + `="` + PercentEncode(oauthParams[k]) + `"`
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// normalizeURL lower-cases scheme and host, drops default ports and strips
// query and fragment.
func normalizeURL(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" || u.Host == "" {
		return "", errors.New("URL must be absolute")
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host = net.JoinHostPort(host, port)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path, nil
}

// PercentEncode escapes s per RFC 3986: every byte outside A-Z a-z 0-9 - . _ ~
// becomes %XX with upper-case hex.
func PercentEncode(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
