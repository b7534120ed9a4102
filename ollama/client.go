package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

// ChatResult is a streamed chat response folded into one message.
type ChatResult struct {
	Content    string
	ToolCalls  []api.ToolCall
	DoneReason string
}

func NewClient(baseURL, model string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:latest"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(parsedURL, httpClient),
		model:   model,
		baseURL: baseURL,
	}, nil
}

// ChatWithTools sends a chat request with optional tool definitions and
// accumulates the streamed chunks. model overrides the client default when set.
func (c *Client) ChatWithTools(ctx context.Context, model string, messages []api.Message, tools []api.Tool, options map[string]any) (*ChatResult, error) {
	if model == "" {
		model = c.model
	}

	req := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
		Options:  options,
		Stream:   func(b bool) *bool { return &b }(true),
	}

	var content strings.Builder
	result := &ChatResult{}

	respFunc := func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		result.ToolCalls = append(result.ToolCalls, resp.Message.ToolCalls...)
		if resp.Done {
			result.DoneReason = resp.DoneReason
		}
		return nil
	}

	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return nil, err
	}

	result.Content = content.String()
	return result, nil
}

func (c *Client) GetModel() string {
	return c.model
}

// toolCallingModels tracks which model families support tool calling.
// Curated from Ollama documentation and community testing.
var toolCallingModels = map[string]bool{
	"qwen":      true,
	"llama3.1":  true,
	"llama3.2":  true,
	"mistral":   true,
	"command-r": true,
	"nemotron":  true,
	"granite3":  true,
	"llama3.3":  true,

	"llama3-gradient": false,
	"llama3":          false, // original llama3, not 3.1+
	"phi":             false,
	"gemma":           false,
	"codellama":       false,
	"deepseek":        false,
}

// orderedPrefixes lists the most specific prefixes first so "llama3.2" is
// not matched as generic "llama3".
var orderedPrefixes = []string{
	"llama3.3", "llama3.2", "llama3.1",
	"llama3-gradient",
	"command-r", "qwen", "mistral", "nemotron", "granite3",
	"codellama",
	"llama3",
	"deepseek", "phi", "gemma",
}

// ModelSupportsToolCalling reports whether the model family is known to
// support Ollama's tool calling API. Unknown models report false.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)

	for _, prefix := range orderedPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			if supported, exists := toolCallingModels[prefix]; exists {
				return supported
			}
		}
	}

	return false
}
