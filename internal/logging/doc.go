// Package logging provides structured logging utilities for tweetbridge.
//
// Everything is built on the standard library's slog package. Logs always go
// to stderr because stdout carries the MCP stdio transport.
//
// # Usage Patterns
//
// Build the process logger once at startup:
//
//	logger := logging.New(os.Stderr, "info", "text")
//	slog.SetDefault(logger)
//
// Annotate log lines with consistent attribute names:
//
//	logger.Info("tweet posted",
//	    logging.Operation("tweets.create"),
//	    logging.TweetID(id))
//
// Never log credentials directly, mask them first:
//
//	logger.Debug("signed request", "authorization", logging.SanitizeToken(header))
package logging
