package config

const (
	DefaultLLMProvider     = "anthropic"
	DefaultAnthropicModel  = "claude-3-5-sonnet-20241022"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
	DefaultOllamaModel     = "llama3.1:latest"
	DefaultMaxTokens       = 1000
)

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  DefaultLLMProvider,
			MaxTokens: DefaultMaxTokens,
		},
		Conversation: ConversationConfig{
			ResultText: "first",
		},
	}
}

// DefaultModelFor returns the model used when none is configured.
func DefaultModelFor(provider string) string {
	switch provider {
	case "openai":
		return DefaultOpenAIModel
	case "openrouter":
		return DefaultOpenRouterModel
	case "ollama":
		return DefaultOllamaModel
	default:
		return DefaultAnthropicModel
	}
}

func GenerateConfigTemplate() string {
	return `# mcporch configuration
# Location: ~/.config/mcporch/config.toml
# This file uses TOML format: https://toml.io

[llm]
# Conversation service: "anthropic", "openai", "openrouter" or "ollama"
provider = "anthropic"

# Model id; empty selects the backend default
model = ""

# Maximum output tokens per model call
max_tokens = 1000

# Override the API endpoint (optional)
# base_url = ""

# Environment variable holding the API key
# (defaults: ANTHROPIC_API_KEY, OPENAI_API_KEY, OPENROUTER_API_KEY)
# api_key_env = ""

[conversation]
# Stop after this many tool-use rounds (0 = until the model stops asking)
max_rounds = 0

# Invoke the tool calls of one model response concurrently
parallel_tools = false

# Tool result text: "first" content part only, or "all" parts joined
result_text = "first"

# Tool providers connected at startup, in addition to CLI arguments.
#
# [[providers]]
# name = "text"
# path = "./textserver"
#
# [[providers]]
# name = "remote"
# url = "http://localhost:8080/mcp"
# transport = "streamable-http"
`
}
