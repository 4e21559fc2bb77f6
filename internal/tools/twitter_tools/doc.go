// Package twitter_tools provides the MCP tool that posts to Twitter/X.
//
// # Available Tools
//
//   - create-post-on-twitter: post the text in the required 'content' argument
//
// The tool answers with a single text block: "Success <tweet id>" on success,
// or "Error: <detail> error" flagged as a tool error. Credentials are read
// from the environment on every call.
//
// In read-only mode the tool stays registered but refuses to post.
package twitter_tools
