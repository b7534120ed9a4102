package provider

import (
	"context"
	"fmt"
	"net/http"

	"mcporch/config"
	"mcporch/mcp"
	"mcporch/model"
	"mcporch/ollama"

	"github.com/ollama/ollama/api"
)

// OllamaLLM wraps ollama.Client to implement model.LLM.
//
// Ollama does not assign ids to tool calls, so synthetic ids are generated
// for each call and matched back to tool results by position in the
// conversation history.
type OllamaLLM struct {
	client *ollama.Client
}

// NewOllamaLLM creates a new Ollama backend.
//
// Parameters:
//   - baseURL: the Ollama server URL, default "http://localhost:11434"
//   - model: default model, "llama3.1:latest" when empty
//
// Returns an error if the baseURL is invalid.
func NewOllamaLLM(baseURL, model string, httpClient *http.Client) (*OllamaLLM, error) {
	client, err := ollama.NewClient(baseURL, model, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	if config.DebugLog != nil && !ollama.ModelSupportsToolCalling(client.GetModel()) {
		config.DebugLog.Printf("[Provider] Warning: model %s is not known to support tool calling", client.GetModel())
	}

	return &OllamaLLM{client: client}, nil
}

func (p *OllamaLLM) Name() string {
	return string(ProviderTypeOllama)
}

// Complete converts the request, runs one chat exchange and converts the
// result back. Text comes first, then tool calls in the order Ollama sent them.
func (p *OllamaLLM) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	var tools []api.Tool
	if len(req.Tools) > 0 {
		tools = mcp.ConvertMCPToolsToOllama(req.Tools)
	}

	options := map[string]any{"num_predict": maxTokensOrDefault(req.MaxTokens)}

	result, err := p.client.ChatWithTools(ctx, req.Model, ConvertToOllamaMessages(req.Messages), tools, options)
	if err != nil {
		return nil, fmt.Errorf("Ollama chat error: %w", err)
	}

	var blocks []model.ContentBlock
	if result.Content != "" {
		blocks = append(blocks, model.TextBlock(result.Content))
	}
	for _, call := range ConvertToProviderToolCalls(result.ToolCalls) {
		blocks = append(blocks, model.ToolUseBlock(call))
	}

	stop := model.StopEndTurn
	switch {
	case len(result.ToolCalls) > 0:
		stop = model.StopToolUse
	case result.DoneReason == "length":
		stop = model.StopMaxTokens
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] ollama: %d blocks, done_reason=%s", len(blocks), result.DoneReason)
	}

	return &model.Response{Blocks: blocks, StopReason: stop}, nil
}
