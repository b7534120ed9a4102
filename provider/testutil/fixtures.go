package testutil

import (
	"mcporch/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// TextResponse returns a final answer made of the given text blocks.
func TextResponse(texts ...string) *model.Response {
	resp := &model.Response{StopReason: model.StopEndTurn}
	for _, t := range texts {
		resp.Blocks = append(resp.Blocks, model.TextBlock(t))
	}
	return resp
}

// ToolUseResponse returns a response requesting the given tool calls,
// optionally preceded by text.
func ToolUseResponse(text string, calls ...model.ToolCall) *model.Response {
	resp := &model.Response{StopReason: model.StopToolUse}
	if text != "" {
		resp.Blocks = append(resp.Blocks, model.TextBlock(text))
	}
	for _, c := range calls {
		resp.Blocks = append(resp.Blocks, model.ToolUseBlock(c))
	}
	return resp
}

// Call builds a tool call with the given id, composite name and arguments.
func Call(id, name string, args map[string]any) model.ToolCall {
	return model.ToolCall{ID: id, Name: name, Arguments: args}
}

// TestMessages returns a sample tool-use exchange.
func TestMessages() []model.Message {
	return []model.Message{
		model.NewUserText("Reverse the word hello"),
		{
			Role: model.RoleAssistant,
			Blocks: []model.ContentBlock{
				model.TextBlock("Let me reverse that."),
				model.ToolUseBlock(Call("toolu_1", "text-reverse-text", map[string]any{"text": "hello"})),
			},
		},
		{
			Role: model.RoleUser,
			Blocks: []model.ContentBlock{
				model.ToolResultBlock("toolu_1", "olleh", false),
			},
		},
	}
}

// TestMCPTools returns catalog tools as the aggregator would expose them.
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "text-reverse-text",
			Description: "Reverse the input text.",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "Text to reverse",
					},
				},
				Required: []string{"text"},
			},
		},
		{
			Name:        "data-profile-data",
			Description: "Provide the user profile.",
			InputSchema: mcptypes.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
	}
}
