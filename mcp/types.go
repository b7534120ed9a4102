package mcp

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Transport kinds accepted in LaunchSpec.Transport.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// LaunchSpec describes how to reach one tool provider: a local command
// spoken to over stdio, or a remote URL.
type LaunchSpec struct {
	Command   string
	Args      []string
	Env       map[string]string
	URL       string
	Transport string
	Headers   map[string]string
}

// IsRemote reports whether the spec targets a URL rather than a subprocess.
func (s LaunchSpec) IsRemote() bool {
	return s.URL != ""
}

// ResultMode selects how much of a multi-part tool result is kept.
type ResultMode int

const (
	// ResultFirstText keeps only the first text content part.
	ResultFirstText ResultMode = iota
	// ResultAllText joins every text content part with newlines.
	ResultAllText
)

// ParseResultMode maps the config value ("first" or "all") to a ResultMode.
func ParseResultMode(s string) ResultMode {
	if s == "all" {
		return ResultAllText
	}
	return ResultFirstText
}

// ToolResult is the text a provider returned for one invocation.
type ToolResult struct {
	Text  string
	Parts []string // every text part, in order
}

func newToolResult(content []mcptypes.Content, mode ResultMode) *ToolResult {
	parts := textParts(content)
	res := &ToolResult{Parts: parts}
	switch {
	case len(parts) == 0:
	case mode == ResultAllText:
		res.Text = strings.Join(parts, "\n")
	default:
		res.Text = parts[0]
	}
	return res
}

func textParts(content []mcptypes.Content) []string {
	var parts []string
	for _, c := range content {
		switch tc := c.(type) {
		case mcptypes.TextContent:
			parts = append(parts, tc.Text)
		case *mcptypes.TextContent:
			if tc != nil {
				parts = append(parts, tc.Text)
			}
		}
	}
	return parts
}
