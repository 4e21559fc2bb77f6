package config

import (
	"os"

	"github.com/teemow/tweetbridge/internal/twitter"
)

// Environment variables holding the Twitter credentials.
const (
	EnvConsumerKey    = "CONSUMER_KEY"
	EnvConsumerSecret = "CONSUMER_SECRET"
	EnvAccessToken    = "TWITTER_ACCESS_TOKEN"
	EnvAccessSecret   = "TWITTER_ACCESS_SECRET"
)

// CredentialsFromEnv reads the four Twitter secrets from the process environment.
func CredentialsFromEnv() twitter.Credentials {
	return CredentialsFromLookup(os.Getenv)
}

// CredentialsFromLookup reads the four Twitter secrets through getenv.
func CredentialsFromLookup(getenv func(string) string) twitter.Credentials {
	return twitter.Credentials{
		ConsumerKey:       getenv(EnvConsumerKey),
		ConsumerSecret:    getenv(EnvConsumerSecret),
		AccessToken:       getenv(EnvAccessToken),
		AccessTokenSecret: getenv(EnvAccessSecret),
	}
}

// MissingCredentials lists the names of unset credential variables.
func MissingCredentials(creds twitter.Credentials) []string {
	var missing []string
	for _, v := range []struct {
		name, value string
	}{
		{EnvConsumerKey, creds.ConsumerKey},
		{EnvConsumerSecret, creds.ConsumerSecret},
		{EnvAccessToken, creds.AccessToken},
		{EnvAccessSecret, creds.AccessTokenSecret},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	return missing
}
