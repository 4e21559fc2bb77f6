package twitter

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{
	ConsumerKey:       "consumer-key",
	ConsumerSecret:    "consumer secret",
	AccessToken:       "access-token",
	AccessTokenSecret: "access/secret",
}

const tweetsURL = "https://api.twitter.com/2/tweets"

func TestSignWith_GoldenHeader(t *testing.T) {
	header, err := SignWith("POST", tweetsURL, testCreds, "fixednonce123", 1700000000)
	require.NoError(t, err)

	want := `OAuth oauth_consumer_key="consumer-key", oauth_nonce="fixednonce123", ` +
		`oauth_signature="6sE9Ikq1nbUsXHBCh2GQqbhiudM%3D", oauth_signature_method="HMAC-SHA1", ` +
		`oauth_timestamp="1700000000", oauth_token="access-token", oauth_version="1.0"`
	assert.Equal(t, want, header)
}

func TestSignWith_Deterministic(t *testing.T) {
	first, err := SignWith("POST", tweetsURL, testCreds, "nonce", 1700000000)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := SignWith("POST", tweetsURL, testCreds, "nonce", 1700000000)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	otherNonce, err := SignWith("POST", tweetsURL, testCreds, "nonce2", 1700000000)
	require.NoError(t, err)
	assert.NotEqual(t, first, otherNonce, "changing only the nonce must change the header")

	otherTime, err := SignWith("POST", tweetsURL, testCreds, "nonce", 1700000001)
	require.NoError(t, err)
	assert.NotEqual(t, first, otherTime, "changing only the timestamp must change the header")
}

func TestSignWith_EquivalentURLsSignAlike(t *testing.T) {
	canonical, err := SignWith("POST", tweetsURL, testCreds, "n", 1)
	require.NoError(t, err)

	for _, u := range []string{
		"HTTPS://API.Twitter.com/2/tweets",
		"https://api.twitter.com:443/2/tweets",
		"https://api.twitter.com/2/tweets#fragment",
	} {
		got, err := SignWith("post", u, testCreds, "n", 1)
		require.NoError(t, err)
		assert.Equal(t, canonical, got, u)
	}

	nonDefaultPort, err := SignWith("POST", "https://api.twitter.com:8443/2/tweets", testCreds, "n", 1)
	require.NoError(t, err)
	assert.NotEqual(t, canonical, nonDefaultPort)
}

func TestSignWith_InvalidURL(t *testing.T) {
	for _, u := range []string{"/2/tweets", "://bad", ""} {
		_, err := SignWith("POST", u, testCreds, "n", 1)
		require.Error(t, err, u)

		var signErr *SigningError
		assert.True(t, errors.As(err, &signErr), "expected SigningError for %q", u)
	}
}

// Reference vector from Twitter's "Creating a signature" documentation.
func TestSignatureBase_ReferenceVector(t *testing.T) {
	params := []param{
		{"status", "Hello Ladies + Gentlemen, a signed OAuth request!"},
		{"include_entities", "true"},
		{"oauth_consumer_key", "xvz1evFS4wEEPTGEFPHBog"},
		{"oauth_nonce", "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"},
		{"oauth_signature_method", "HMAC-SHA1"},
		{"oauth_timestamp", "1318622958"},
		{"oauth_token", "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb"},
		{"oauth_version", "1.0"},
	}

	base := signatureBase("post", "https://api.twitter.com/1.1/statuses/update.json", params)
	assert.Equal(t,
		"POST&https%3A%2F%2Fapi.twitter.com%2F1.1%2Fstatuses%2Fupdate.json&include_entities%3Dtrue"+
			"%26oauth_consumer_key%3Dxvz1evFS4wEEPTGEFPHBog%26oauth_nonce%3DkYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"+
			"%26oauth_signature_method%3DHMAC-SHA1%26oauth_timestamp%3D1318622958"+
			"%26oauth_token%3D370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb%26oauth_version%3D1.0"+
			"%26status%3DHello%2520Ladies%2520%252B%2520Gentlemen%252C%2520a%2520signed%2520OAuth%2520request%2521",
		base)

	sig := signature(base, "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw", "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE")
	assert.Equal(t, "hCtSmYh+iHYCEqBWrE7C7hYmtUk=", sig)
}

func TestSignWith_QueryParametersAreSigned(t *testing.T) {
	plain, err := SignWith("POST", tweetsURL, testCreds, "n", 1)
	require.NoError(t, err)
	withQuery, err := SignWith("POST", tweetsURL+"?dry_run=true", testCreds, "n", 1)
	require.NoError(t, err)

	assert.NotEqual(t, plain, withQuery)
	assert.NotContains(t, withQuery, "dry_run", "query parameters belong in the signature, not the header")
}

func TestSigner_FreshNoncePerCall(t *testing.T) {
	signer := NewSigner(WithClock(func() time.Time { return time.Unix(1700000000, 0) }))

	first, err := signer.Sign("POST", tweetsURL, testCreds)
	require.NoError(t, err)
	second, err := signer.Sign("POST", tweetsURL, testCreds)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, `oauth_timestamp="1700000000"`)
}

func TestSigner_InjectedSources(t *testing.T) {
	signer := NewSigner(
		WithNonceSource(func() string { return "fixednonce123" }),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
	)

	header, err := signer.Sign("POST", tweetsURL, testCreds)
	require.NoError(t, err)

	want, err := SignWith("POST", tweetsURL, testCreds, "fixednonce123", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, want, header)
}

func TestNewNonce(t *testing.T) {
	nonce := newNonce()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), nonce)
	assert.NotEqual(t, nonce, newNonce())
}

func TestSigner_HeaderShape(t *testing.T) {
	header, err := NewSigner().Sign("POST", tweetsURL, testCreds)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(header, "OAuth "))
	for _, key := range []string{
		"oauth_consumer_key", "oauth_nonce", "oauth_signature", "oauth_signature_method",
		"oauth_timestamp", "oauth_token", "oauth_version",
	} {
		assert.Contains(t, header, key+`="`)
	}
	assert.NotContains(t, header, "consumer secret")
	assert.NotContains(t, header, "access/secret")
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abcXYZ019-._~", "abcXYZ019-._~"},
		{"Ladies + Gentlemen", "Ladies%20%2B%20Gentlemen"},
		{"a/b?c=d&e", "a%2Fb%3Fc%3Dd%26e"},
		{"!*'()", "%21%2A%27%28%29"},
		{"é", "%C3%A9"},
		{"☃", "%E2%98%83"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentEncode(tt.in))
		})
	}
}
