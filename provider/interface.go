// Package provider implements the conversation service backends.
//
// mcporch talks to several LLM services (Anthropic, OpenAI, OpenRouter,
// Ollama) through the model.LLM interface. Each backend converts the
// provider-agnostic model.Request into its SDK's request type and the SDK
// response back into ordered model.ContentBlock values, so the orchestrator
// never imports an SDK.
//
// # Type Conversions
//
// Conversions live next to each backend and in conversions.go:
//   - ConvertToAnthropicMessages / convertFromAnthropicContent
//   - ConvertToOpenAIMessages / convertFromOpenAIMessage
//   - ConvertToOllamaMessages / ConvertToProviderToolCalls
//
// # Usage
//
//	llm, err := provider.NewLLM(provider.Config{
//	    Type:   provider.ProviderTypeAnthropic,
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    // handle error
//	}
//	resp, err := llm.Complete(ctx, model.Request{...})
package provider

// Note: The LLM interface is defined in the model package (model/provider.go)
// to avoid import cycles. This package implements model.LLM.

// ProviderType identifies the backend implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds backend-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama
}
