package twitter_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/tweetbridge/internal/instrumentation"
	"github.com/teemow/tweetbridge/internal/server"
	"github.com/teemow/tweetbridge/internal/tools/common"
	"github.com/teemow/tweetbridge/internal/twitter"
)

const (
	// ToolCreatePost is the name clients invoke.
	ToolCreatePost = "create-post-on-twitter"

	// ArgContent is the text to post.
	ArgContent = "content"

	// ReadOnlyMessage is returned instead of posting in read-only mode.
	ReadOnlyMessage = "Cannot post in read-only mode. Restart without --read-only to enable posting."
)

// RegisterTwitterTools registers all Twitter-related tools with the MCP server
func RegisterTwitterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil {
		return fmt.Errorf("MCP server is required")
	}
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	s.AddTool(CreatePostTool(), common.InstrumentedToolHandler(ToolCreatePost, sc, handleCreatePost(sc)))
	return nil
}

// CreatePostTool describes create-post-on-twitter.
func CreatePostTool() mcp.Tool {
	return mcp.NewTool(ToolCreatePost,
		mcp.WithDescription(fmt.Sprintf(
			"Post a message to Twitter/X. The text must be non-empty and at most %d characters "+
				"(emoji and other astral characters count as two). Replies \"Success <tweet id>\" "+
				"on success. A failed post replies \"Error: <detail> error\" and is flagged as a tool error.",
			twitter.MaxTweetLength)),
		mcp.WithString(ArgContent,
			mcp.Required(),
			mcp.Description("The text of the post"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func handleCreatePost(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, ok := common.GetStringArg(request.GetArguments(), ArgContent)
		if !ok {
			return mcp.NewToolResultError(common.InvalidParamMessage(ArgContent)), nil
		}

		invocation := common.InvocationFromContext(ctx)
		if invocation != nil {
			invocation.WithContent(content).WithOperation(instrumentation.OperationCreateTweet)
		}

		if sc.IsReadOnly() {
			return mcp.NewToolResultError(ReadOnlyMessage), nil
		}

		result := sc.TwitterClient().Submit(ctx, twitter.PostRequest{Text: content}, sc.Credentials())
		if invocation != nil && result.Success {
			invocation.WithTweetID(result.TweetID)
		}

		text, isError := FormatPostResult(result)
		if isError {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// FormatPostResult renders a submission outcome as the tool's reply text.
// An empty tweet id on success renders as the literal "success".
func FormatPostResult(result *twitter.PostResult) (text string, isError bool) {
	if result == nil {
		return "Error: no result error", true
	}
	if !result.Success {
		detail := "unknown"
		if result.Err != nil {
			detail = result.Err.Detail()
		}
		return fmt.Sprintf("Error: %s error", detail), true
	}
	if result.TweetID == "" {
		return "success", false
	}
	return "Success " + result.TweetID, false
}
