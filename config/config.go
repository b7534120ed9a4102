package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// LLMConfig selects and tunes the conversation service backend.
type LLMConfig struct {
	Provider  string `toml:"provider" yaml:"provider"`
	Model     string `toml:"model" yaml:"model"`
	MaxTokens int64  `toml:"max_tokens" yaml:"max_tokens"`
	BaseURL   string `toml:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKeyEnv string `toml:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
}

// ConversationConfig tunes the tool-use loop.
type ConversationConfig struct {
	MaxRounds     int    `toml:"max_rounds" yaml:"max_rounds"`
	ParallelTools bool   `toml:"parallel_tools" yaml:"parallel_tools"`
	ResultText    string `toml:"result_text" yaml:"result_text"`
}

// ProviderEntry describes one tool provider to connect at startup.
type ProviderEntry struct {
	Name      string            `toml:"name" yaml:"name" validate:"required,excludes=-"`
	Path      string            `toml:"path,omitempty" yaml:"path,omitempty"`
	Command   string            `toml:"command,omitempty" yaml:"command,omitempty"`
	Args      []string          `toml:"args,omitempty" yaml:"args,omitempty"`
	Env       map[string]string `toml:"env,omitempty" yaml:"env,omitempty"`
	URL       string            `toml:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Transport string            `toml:"transport,omitempty" yaml:"transport,omitempty" validate:"omitempty,oneof=stdio sse streamable-http"`
	Headers   map[string]string `toml:"headers,omitempty" yaml:"headers,omitempty"`
}

// Config is the full orchestrator configuration.
type Config struct {
	LLM          LLMConfig          `toml:"llm" yaml:"llm"`
	Conversation ConversationConfig `toml:"conversation" yaml:"conversation"`
	Providers    []ProviderEntry    `toml:"providers" yaml:"providers" validate:"dive"`

	// Path is the file the config was read from; empty when defaults were used.
	Path string `toml:"-" yaml:"-"`
}

var validate = validator.New()

var Debug = false
var DebugLog *log.Logger

// APIKey returns the credential for the configured LLM backend from the
// environment. Ollama needs none.
func (c *Config) APIKey() string {
	env := c.LLM.APIKeyEnv
	if env == "" {
		switch c.LLM.Provider {
		case "anthropic":
			env = "ANTHROPIC_API_KEY"
		case "openai":
			env = "OPENAI_API_KEY"
		case "openrouter":
			env = "OPENROUTER_API_KEY"
		default:
			return ""
		}
	}
	return os.Getenv(env)
}

func (c *Config) applyEnvOverrides() error {
	if p := os.Getenv("MCPORCH_LLM"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("MCPORCH_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if u := os.Getenv("MCPORCH_BASE_URL"); u != "" {
		c.LLM.BaseURL = u
	}
	if mt := os.Getenv("MCPORCH_MAX_TOKENS"); mt != "" {
		n, err := strconv.ParseInt(mt, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MCPORCH_MAX_TOKENS %q: %w", mt, err)
		}
		c.LLM.MaxTokens = n
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "anthropic", "openai", "openrouter", "ollama":
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.Conversation.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must not be negative, got %d", c.Conversation.MaxRounds)
	}
	switch c.Conversation.ResultText {
	case "first", "all":
	default:
		return fmt.Errorf("result_text must be \"first\" or \"all\", got %q", c.Conversation.ResultText)
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.Path == "" && p.Command == "" && p.URL == "" {
			return fmt.Errorf("provider %s: one of path, command or url is required", p.Name)
		}
	}

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s: failed %q check (value %q)", fe.Namespace(), fe.ActualTag(), fmt.Sprint(fe.Value()))
		}
		return err
	}
	return nil
}

func CheckDebug() bool {
	debug := os.Getenv("MCPORCH_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens <dir>/debug.log when debugging is requested by the
// force flag or MCPORCH_DEBUG.
func InitDebugLog(dir string, force bool) {
	if !force && !CheckDebug() {
		return
	}

	Debug = true
	if err := EnsureDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create log directory %s: %v\n", dir, err)
		return
	}
	logPath := filepath.Join(dir, "debug.log")

	// 0600: tool arguments and results may be sensitive
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (MCPORCH_DEBUG=%s) ===", os.Getenv("MCPORCH_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Load reads the config file at path (the default location when empty),
// falls back to defaults when the file does not exist, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = GetConfigFilePath()
	}

	var cfg *Config
	switch {
	case FileExists(path):
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case explicit:
		return nil, fmt.Errorf("config file not found: %s", path)
	default:
		cfg = DefaultConfig()
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
