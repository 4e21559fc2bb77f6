package resources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// GreetingScheme prefixes greeting resource URIs.
	GreetingScheme = "greeting://"

	// GreetingTemplate is the URI template clients expand.
	GreetingTemplate = GreetingScheme + "{name}"
)

// RegisterResources registers all resource templates with the MCP server.
func RegisterResources(s *mcpserver.MCPServer) error {
	if s == nil {
		return fmt.Errorf("MCP server is required")
	}

	greeting := mcp.NewResourceTemplate(
		GreetingTemplate,
		"greeting",
		mcp.WithTemplateDescription("A greeting for the given name"),
		mcp.WithTemplateMIMEType("text/plain"),
	)
	s.AddResourceTemplate(greeting, handleGreeting)

	return nil
}

// Greeting returns the greeting text for name.
func Greeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

func handleGreeting(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name, err := greetingName(request)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     Greeting(name),
		},
	}, nil
}

// greetingName prefers the variable matched by the template and falls back to
// the URI itself.
func greetingName(request mcp.ReadResourceRequest) (string, error) {
	switch v := request.Params.Arguments["name"].(type) {
	case string:
		return v, nil
	case []string:
		if len(v) > 0 {
			return strings.Join(v, ","), nil
		}
	}

	uri := request.Params.URI
	if !strings.HasPrefix(uri, GreetingScheme) {
		return "", fmt.Errorf("not a greeting URI: %s", uri)
	}
	name, err := url.PathUnescape(strings.TrimPrefix(uri, GreetingScheme))
	if err != nil {
		return "", fmt.Errorf("invalid greeting URI %s: %w", uri, err)
	}
	return name, nil
}
