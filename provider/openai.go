package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"mcporch/config"
	"mcporch/mcp"
	"mcporch/model"
)

// OpenAILLM implements model.LLM using OpenAI's official Go SDK. It also
// serves OpenRouter, whose API is OpenAI-compatible.
type OpenAILLM struct {
	client  openai.Client
	name    ProviderType
	model   string
	baseURL string
}

// NewOpenAILLM creates a new OpenAI backend.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: default model for requests that do not name one
func NewOpenAILLM(baseURL, apiKey, model string, opts ...option.RequestOption) (*OpenAILLM, error) {
	return newOpenAICompatible(ProviderTypeOpenAI, baseURL, apiKey, model, opts)
}

// NewOpenRouterLLM creates an OpenAI-compatible backend pointed at OpenRouter.
func NewOpenRouterLLM(baseURL, apiKey, model string, opts ...option.RequestOption) (*OpenAILLM, error) {
	return newOpenAICompatible(ProviderTypeOpenRouter, baseURL, apiKey, model, opts)
}

func newOpenAICompatible(kind ProviderType, baseURL, apiKey, model string, opts []option.RequestOption) (*OpenAILLM, error) {
	if baseURL == "" {
		baseURL = config.ProviderDefaultBaseURL(string(kind))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", config.ProviderDisplayName(string(kind)))
	}
	if model == "" {
		model = config.DefaultModelFor(string(kind))
	}

	clientOpts := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	}, opts...)

	return &OpenAILLM{
		client:  openai.NewClient(clientOpts...),
		name:    kind,
		model:   model,
		baseURL: baseURL,
	}, nil
}

func (p *OpenAILLM) Name() string {
	return string(p.name)
}

// Complete streams one chat completion and returns the accumulated choice.
func (p *OpenAILLM) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	modelName := p.model
	if req.Model != "" {
		modelName = req.Model
	}

	messages, err := ConvertToOpenAIMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               openai.ChatModel(modelName),
		MaxCompletionTokens: openai.Int(maxTokensOrDefault(req.MaxTokens)),
	}
	if len(req.Tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToOpenAIFormat(req.Tools)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		acc.AddChunk(stream.Current())
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%s streaming error: %w", config.ProviderDisplayName(string(p.name)), err)
	}

	if len(acc.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", config.ProviderDisplayName(string(p.name)))
	}
	choice := acc.Choices[0]

	blocks, err := convertFromOpenAIMessage(choice.Message)
	if err != nil {
		return nil, err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] %s: %d blocks, finish_reason=%s", p.name, len(blocks), choice.FinishReason)
	}

	return &model.Response{
		Blocks:     blocks,
		StopReason: openAIStopReason(choice.FinishReason),
	}, nil
}

// ConvertToOpenAIMessages converts history to OpenAI chat messages. An
// assistant message carrying tool_use blocks becomes one assistant message
// with tool_calls; each tool_result block becomes a tool message.
func ConvertToOpenAIMessages(messages []model.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		if !msg.IsStructured() {
			if msg.Role == model.RoleAssistant {
				result = append(result, openai.AssistantMessage(msg.Content))
			} else {
				result = append(result, openai.UserMessage(msg.Content))
			}
			continue
		}

		if msg.Role == model.RoleAssistant {
			assistant, err := openAIAssistantMessage(msg)
			if err != nil {
				return nil, err
			}
			result = append(result, assistant)
			continue
		}

		var text []string
		for _, b := range msg.Blocks {
			switch b.Type {
			case model.BlockToolResult:
				result = append(result, openai.ToolMessage(b.Text, b.ToolUseID))
			case model.BlockText:
				if b.Text != "" {
					text = append(text, b.Text)
				}
			}
		}
		if len(text) > 0 {
			result = append(result, openai.UserMessage(strings.Join(text, "\n")))
		}
	}

	return result, nil
}

func openAIAssistantMessage(msg model.Message) (openai.ChatCompletionMessageParamUnion, error) {
	var text []string
	var toolCalls []openai.ChatCompletionMessageToolCallUnionParam

	for _, b := range msg.Blocks {
		switch b.Type {
		case model.BlockText:
			if b.Text != "" {
				text = append(text, b.Text)
			}
		case model.BlockToolUse:
			if b.ToolCall == nil {
				continue
			}
			args, err := json.Marshal(b.ToolCall.Arguments)
			if err != nil {
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("encode arguments for %s: %w", b.ToolCall.Name, err)
			}
			if b.ToolCall.Arguments == nil {
				args = []byte("{}")
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: b.ToolCall.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      b.ToolCall.Name,
						Arguments: string(args),
					},
				},
			})
		}
	}

	assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
	if len(text) > 0 {
		assistant.Content.OfString = openai.String(strings.Join(text, "\n"))
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}, nil
}

// convertFromOpenAIMessage puts the text first, then the tool calls in order.
func convertFromOpenAIMessage(msg openai.ChatCompletionMessage) ([]model.ContentBlock, error) {
	var blocks []model.ContentBlock
	if msg.Content != "" {
		blocks = append(blocks, model.TextBlock(msg.Content))
	}

	for _, tc := range msg.ToolCalls {
		args, err := parseToolInput(json.RawMessage(tc.Function.Arguments))
		if err != nil {
			return nil, fmt.Errorf("malformed arguments for tool %s: %w", tc.Function.Name, err)
		}
		blocks = append(blocks, model.ToolUseBlock(model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		}))
	}

	return blocks, nil
}

func openAIStopReason(r string) model.StopReason {
	switch r {
	case "stop":
		return model.StopEndTurn
	case "tool_calls", "function_call":
		return model.StopToolUse
	case "length":
		return model.StopMaxTokens
	default:
		return model.StopOther
	}
}
