package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mcporch/config"
	"mcporch/model"
	"mcporch/provider/testutil"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUsageWithoutProviders(t *testing.T) {
	path := writeTestConfig(t, "[llm]\nprovider = \"ollama\"\n")

	tests := []struct {
		name string
		args []string
	}{
		{name: "no pairs", args: []string{"--config", path}},
		{name: "odd pair", args: []string{"--config", path, "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if !errors.Is(err, errUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if !strings.Contains(out, "Usage:") {
				t.Errorf("usage not printed:\n%s", out)
			}
		})
	}
}

func TestInvalidFlag(t *testing.T) {
	path := writeTestConfig(t, "[llm]\nprovider = \"ollama\"\n")

	_, err := execute(t, "--config", path, "--result-text", "some", "text", "builtin:text")
	if err == nil || !strings.Contains(err.Error(), "--result-text") {
		t.Fatalf("expected --result-text error, got %v", err)
	}
}

func useMockLLM(t *testing.T, llm model.LLM) {
	t.Helper()
	orig := initializeLLM
	initializeLLM = func(*config.Config) (model.LLM, string, error) {
		return llm, "mock-model", nil
	}
	t.Cleanup(func() { initializeLLM = orig })
}

func TestRunQueryWithBuiltinPair(t *testing.T) {
	path := writeTestConfig(t, "[llm]\nprovider = \"ollama\"\n")
	llm := testutil.NewMockLLM(
		testutil.ToolUseResponse("", testutil.Call("t1", "text-reverse-text", map[string]any{"text": "abc"})),
		testutil.TextResponse("Done."),
	)
	useMockLLM(t, llm)

	out, err := execute(t, "--config", path, "-q", "reverse abc", "text", "builtin:text")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}

	want := "[text] Calling tool reverse-text with args {\"text\":\"abc\"}\ncba\nDone.\n"
	if out != want {
		t.Errorf("unexpected output:\n got %q\nwant %q", out, want)
	}

	reqs := llm.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(reqs))
	}
	if reqs[0].Model != "mock-model" || len(reqs[0].Tools) != 2 {
		t.Errorf("unexpected first request: model=%q tools=%d", reqs[0].Model, len(reqs[0].Tools))
	}
}

func TestRunAcceptsSeveralPairs(t *testing.T) {
	path := writeTestConfig(t, "[llm]\nprovider = \"ollama\"\n")
	llm := testutil.NewMockLLM(testutil.TextResponse("Nothing to do."))
	useMockLLM(t, llm)

	out, err := execute(t, "--config", path, "-q", "hi", "text", "builtin:text", "data", "builtin:data")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	if out != "Nothing to do.\n" {
		t.Errorf("unexpected output %q", out)
	}
	if tools := llm.Requests()[0].Tools; len(tools) != 3 {
		t.Errorf("expected 3 catalog tools from two providers, got %d", len(tools))
	}
}

func TestProviderEntries(t *testing.T) {
	cfg := config.DefaultConfig()

	if _, err := providerEntries(cfg, nil); err == nil {
		t.Error("expected error without providers")
	}

	cfg.Providers = []config.ProviderEntry{{Name: "fs", Command: "npx"}}
	entries, err := providerEntries(cfg, nil)
	if err != nil || len(entries) != 1 {
		t.Fatalf("configured providers only: %v, %v", entries, err)
	}

	entries, err = providerEntries(cfg, []string{"text", "builtin:text"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "fs" || entries[1].Name != "text" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--llm", "ollama", "--max-rounds", "4", "--parallel-tools"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.LLM.Model = "claude-something"
	flags := &rootFlags{llm: "ollama", maxRounds: "4", parallel: true}

	if err := applyFlags(cmd, flags, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "" {
		t.Errorf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Conversation.MaxRounds != 4 || !cfg.Conversation.ParallelTools {
		t.Errorf("unexpected conversation config %+v", cfg.Conversation)
	}
	if cfg.LLM.MaxTokens != config.DefaultMaxTokens {
		t.Errorf("unset flag changed max tokens to %d", cfg.LLM.MaxTokens)
	}
}

func TestBuiltinServer(t *testing.T) {
	for _, name := range []string{"text", "data", "TEXT"} {
		if _, err := builtinServer(name, config.ProviderEntry{Name: "x"}); err != nil {
			t.Errorf("builtinServer(%q): %v", name, err)
		}
	}
	if _, err := builtinServer("weather", config.ProviderEntry{Name: "x"}); err == nil {
		t.Error("expected error for unknown builtin")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcporch.yaml")

	if _, err := execute(t, "--config", path, "config", "set", "llm.provider", "openai"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", path, "config", "set", "conversation.max_rounds", "3"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", path, "config", "set", "llm.provider", "nope"); err == nil {
		t.Error("expected error for unknown provider")
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "openai" || cfg.Conversation.MaxRounds != 3 {
		t.Errorf("unexpected saved config %+v", cfg)
	}

	out, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "provider: openai") {
		t.Errorf("show output missing provider:\n%s", out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if !config.FileExists(path) {
		t.Fatal("template not written")
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("expected error when config exists")
	}
}
