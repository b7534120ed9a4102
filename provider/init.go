package provider

import (
	"fmt"

	"mcporch/config"
	"mcporch/model"
)

// InitializeLLM creates the conversation backend selected by cfg.
//
// The API key is read from the environment variable named by the config
// (ANTHROPIC_API_KEY, OPENAI_API_KEY or OPENROUTER_API_KEY by default).
// The returned model name is the one requests should carry; an empty
// configured model resolves to the backend default.
func InitializeLLM(cfg *config.Config) (model.LLM, string, error) {
	providerType := MapProviderIDToType(cfg.LLM.Provider)

	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = config.DefaultModelFor(cfg.LLM.Provider)
	}

	llm, err := NewLLM(Config{
		Type:    providerType,
		BaseURL: cfg.LLM.BaseURL,
		Model:   modelName,
		APIKey:  cfg.APIKey(),
	})
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Provider] Failed to initialize %s: %v", providerType, err)
		}
		return nil, "", fmt.Errorf("initialize %s: %w", config.ProviderDisplayName(cfg.LLM.Provider), err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Initialized provider: %s (model: %s)", providerType, modelName)
	}

	return llm, modelName, nil
}
