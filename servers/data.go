package servers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed data/profile.md
var defaultProfile string

var profileSchema = json.RawMessage(`{
	"type": "object",
	"properties": {},
	"required": [],
	"additionalProperties": false
}`)

// NewDataServer returns a provider with a single profile-data tool that
// serves the file at path. An empty path serves the built-in sample profile.
// The file is read on every call so edits show up without a restart.
func NewDataServer(path string) *server.MCPServer {
	s := server.NewMCPServer(DataServerName, Version, server.WithToolCapabilities(false))

	s.AddTool(
		mcp.NewToolWithRawSchema("profile-data", "Provide the user profile.", profileSchema),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if path == "" {
				return mcp.NewToolResultText(defaultProfile), nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to read profile: %v", err)), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		},
	)

	return s
}
