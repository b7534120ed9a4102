package provider

import (
	"encoding/json"
	"strings"

	"mcporch/config"
	"mcporch/model"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
)

// ConvertToOllamaMessages converts history to Ollama api.Message values.
//
// Structured messages are flattened the way Ollama expects them: an
// assistant message keeps its text as Content and its tool_use blocks as
// ToolCalls, and every tool_result block becomes a separate "tool" message.
//
// Example:
//
//	msgs := []model.Message{model.NewUserText("Reverse hello")}
//	ollamaMessages := ConvertToOllamaMessages(msgs)
//	// ollamaMessages[0].Role == "user"
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, 0, len(messages))

	for _, msg := range messages {
		if !msg.IsStructured() {
			result = append(result, api.Message{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
			continue
		}

		if msg.Role == model.RoleAssistant {
			result = append(result, api.Message{
				Role:      string(model.RoleAssistant),
				Content:   joinText(msg.Blocks),
				ToolCalls: ConvertFromProviderToolCalls(msg.ToolCalls()),
			})
			continue
		}

		for _, b := range msg.Blocks {
			if b.Type == model.BlockToolResult {
				result = append(result, api.Message{Role: "tool", Content: b.Text})
			}
		}
		if text := joinText(msg.Blocks); text != "" {
			result = append(result, api.Message{Role: string(msg.Role), Content: text})
		}
	}

	return result
}

// ConvertToProviderToolCalls converts Ollama tool calls to model.ToolCall,
// assigning each a fresh id.
//
// Returns nil if the input is nil or empty.
func ConvertToProviderToolCalls(ollamaCalls []api.ToolCall) []model.ToolCall {
	if len(ollamaCalls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, len(ollamaCalls))
	for i, call := range ollamaCalls {
		args := map[string]any(call.Function.Arguments)
		if args == nil {
			args = map[string]any{}
		}
		result[i] = model.ToolCall{
			ID:        "call_" + uuid.NewString(),
			Name:      call.Function.Name,
			Arguments: args,
		}
	}
	return result
}

// ConvertFromProviderToolCalls converts model.ToolCall to Ollama api.ToolCall.
//
// Returns nil if the input is nil or empty.
func ConvertFromProviderToolCalls(providerCalls []model.ToolCall) []api.ToolCall {
	if len(providerCalls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(providerCalls))
	for i, call := range providerCalls {
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		}
	}
	return result
}

// parseToolInput decodes a JSON object of tool arguments. Empty input and
// JSON null decode to an empty map.
func parseToolInput(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func joinText(blocks []model.ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == model.BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func maxTokensOrDefault(n int64) int64 {
	if n <= 0 {
		return config.DefaultMaxTokens
	}
	return n
}
