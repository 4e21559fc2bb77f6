// Package resources provides MCP resources. Resources are read-only data
// sources that MCP clients can fetch by URI.
//
// Templates:
//   - greeting://{name}: a plain-text greeting for name
package resources
