// Package twitter posts tweets through the Twitter API v2 using OAuth 1.0a
// user-context signing.
//
// The package has two parts. Signer computes the one-time
// "Authorization: OAuth ..." header (HMAC-SHA1) for a request. Client
// validates the text, signs and sends POST /2/tweets and folds every possible
// outcome into a *PostResult; Submit never returns a Go error.
//
// Credentials are passed explicitly on every call and never cached.
//
//	client := twitter.NewClient(twitter.WithLogger(logger))
//	result := client.Submit(ctx, twitter.PostRequest{Text: "hello"}, creds)
//	if !result.Success {
//		fmt.Println(result.Err.Detail())
//	}
package twitter
