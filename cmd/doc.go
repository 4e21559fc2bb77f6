// Package cmd implements the command-line interface for tweetbridge.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing create-post-on-twitter
//   - post: Post once from the command line
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
