// Package config gathers tweetbridge's runtime configuration.
//
// Secrets come from the process environment, optionally seeded from .env
// files (godotenv) that can be watched and re-applied on change (fsnotify).
// Non-secret settings come from an optional YAML file (yaml.v3) and may be
// overridden by environment variables.
//
// Credentials are never cached: CredentialsFromEnv reads the environment on
// every call so a reloaded .env takes effect on the next post.
package config
