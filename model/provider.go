package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// LLM abstracts the conversation service (Anthropic, OpenAI, Ollama) using
// provider-agnostic types from the model layer.
//
// This interface lives in the model package (not provider package) so the
// orchestrator can depend on it without importing any SDK.
type LLM interface {
	// Complete sends the request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name identifies the backend ("anthropic", "openai", "ollama").
	Name() string
}

// Request is one round-trip to the conversation service.
type Request struct {
	Model     string
	MaxTokens int64
	Messages  []Message
	Tools     []mcptypes.Tool
}

// StopReason reports why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopOther     StopReason = "other"
)

// Response is the ordered content the model produced for one request.
type Response struct {
	Blocks     []ContentBlock
	StopReason StopReason
}

// HasToolUse reports whether any block requests a tool invocation.
func (r *Response) HasToolUse() bool {
	for _, b := range r.Blocks {
		if b.Type == BlockToolUse {
			return true
		}
	}
	return false
}

// AssistantMessage converts the response into the assistant message that
// must precede any tool results in the history.
func (r *Response) AssistantMessage() Message {
	blocks := make([]ContentBlock, len(r.Blocks))
	copy(blocks, r.Blocks)
	return Message{Role: RoleAssistant, Blocks: blocks}
}
