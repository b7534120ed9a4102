// Package servers contains small MCP tool providers used for local runs and
// tests. Each constructor returns an mcp-go server that can be served over
// stdio or connected in-process.
package servers

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	TextServerName = "SimpleMCPServer"
	DataServerName = "DataMCPServer"
	Version        = "0.1.0"

	missingTextMessage = "Error: Missing text parameter"
)

// NewTextServer returns a provider with the reverse-text and uppercase tools.
func NewTextServer() *server.MCPServer {
	s := server.NewMCPServer(TextServerName, Version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("reverse-text",
		mcp.WithDescription("Reverse the input text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to reverse")),
	), textHandler(reverse))

	s.AddTool(mcp.NewTool("uppercase",
		mcp.WithDescription("Modify input text to upper case."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to convert to uppercase")),
	), textHandler(strings.ToUpper))

	return s
}

// textHandler adapts a string transform to a tool handler. A call without
// arguments is a tool error; a missing or empty text argument is answered
// with a plain error message so the model can recover.
func textHandler(transform func(string) string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if len(args) == 0 {
			return mcp.NewToolResultError("Missing arguments"), nil
		}

		text, _ := args["text"].(string)
		if text == "" {
			return mcp.NewToolResultText(missingTextMessage), nil
		}

		return mcp.NewToolResultText(transform(text)), nil
	}
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
