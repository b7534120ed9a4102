package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"mcporch/config"
	"mcporch/mcp"
	"mcporch/model"
)

// AnthropicLLM implements model.LLM using Anthropic's official Go SDK.
type AnthropicLLM struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicLLM creates a new Anthropic backend.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: default model for requests that do not name one
//
// Returns an error if the API key is missing.
func NewAnthropicLLM(baseURL, apiKey, model string, opts ...option.RequestOption) (*AnthropicLLM, error) {
	if baseURL == "" {
		baseURL = config.ProviderDefaultBaseURL("anthropic")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if model == "" {
		model = config.DefaultAnthropicModel
	}

	clientOpts := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	}, opts...)
	client := anthropic.NewClient(clientOpts...)

	return &AnthropicLLM{
		client:  &client,
		model:   anthropic.Model(model),
		baseURL: baseURL,
	}, nil
}

func (p *AnthropicLLM) Name() string {
	return string(ProviderTypeAnthropic)
}

// Complete streams one message and returns the accumulated content blocks.
func (p *AnthropicLLM) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  ConvertToAnthropicMessages(req.Messages),
		MaxTokens: maxTokensOrDefault(req.MaxTokens),
	}
	if req.Model != "" {
		params.Model = anthropic.Model(req.Model)
	}
	if len(req.Tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToAnthropicFormat(req.Tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("error accumulating message: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("Anthropic streaming error: %w", err)
	}

	blocks, err := convertFromAnthropicContent(msg.Content)
	if err != nil {
		return nil, err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] anthropic: %d blocks, stop_reason=%s", len(blocks), msg.StopReason)
	}

	return &model.Response{
		Blocks:     blocks,
		StopReason: anthropicStopReason(msg.StopReason),
	}, nil
}

// ConvertToAnthropicMessages converts history to Anthropic message params.
// Tool results are sent as tool_result blocks inside user messages, tool
// requests as tool_use blocks inside assistant messages.
func ConvertToAnthropicMessages(messages []model.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		if !msg.IsStructured() {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}

		for _, b := range msg.Blocks {
			switch b.Type {
			case model.BlockText:
				// the API rejects empty text blocks
				if b.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				}
			case model.BlockToolUse:
				if b.ToolCall == nil {
					continue
				}
				args := b.ToolCall.Arguments
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolCall.ID, args, b.ToolCall.Name))
			case model.BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Text, b.IsError))
			}
		}

		switch msg.Role {
		case model.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		default:
			result = append(result, anthropic.NewUserMessage(blocks...))
		}
	}

	return result
}

// convertFromAnthropicContent keeps text and tool_use blocks in arrival order.
func convertFromAnthropicContent(content []anthropic.ContentBlockUnion) ([]model.ContentBlock, error) {
	blocks := make([]model.ContentBlock, 0, len(content))

	for _, block := range content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, model.TextBlock(variant.Text))
		case anthropic.ToolUseBlock:
			args, err := parseToolInput(variant.Input)
			if err != nil {
				return nil, fmt.Errorf("malformed arguments for tool %s: %w", variant.Name, err)
			}
			blocks = append(blocks, model.ToolUseBlock(model.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: args,
			}))
		}
	}

	return blocks, nil
}

func anthropicStopReason(r anthropic.StopReason) model.StopReason {
	switch r {
	case anthropic.StopReasonEndTurn:
		return model.StopEndTurn
	case anthropic.StopReasonToolUse:
		return model.StopToolUse
	case anthropic.StopReasonMaxTokens:
		return model.StopMaxTokens
	default:
		return model.StopOther
	}
}
