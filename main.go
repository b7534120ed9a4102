package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"mcporch/config"
	"mcporch/mcp"
	"mcporch/orchestrator"
	"mcporch/provider"
	"mcporch/servers"
	"mcporch/ui"
)

const (
	Version = "v0.1.0"

	shutdownTimeout = 10 * time.Second
)

// initializeLLM is replaced in tests to avoid calling a real backend.
var initializeLLM = provider.InitializeLLM

// errUsage makes main print the usage text and exit non-zero.
var errUsage = errors.New("usage")

type rootFlags struct {
	configPath string
	llm        string
	model      string
	maxTokens  string
	maxRounds  string
	resultText string
	parallel   bool
	queries    []string
	plain      bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "mcporch [flags] <name> <path> [<name> <path> ...]",
		Short: "Answer questions with an LLM and tools from several MCP servers",
		Long: `mcporch connects to one or more MCP servers, exposes their tools to an LLM
under "<name>-<tool>" names and answers queries in an interactive loop.

A path may be a .py or .js script, an executable, or builtin:text /
builtin:data for the bundled sample servers. Servers listed under
[[providers]] in the config file are connected as well.`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/mcporch/config.toml)")

	f := cmd.Flags()
	f.StringVar(&flags.llm, "llm", "", "LLM backend: anthropic, openai, openrouter or ollama")
	f.StringVar(&flags.model, "model", "", "model name (default depends on the backend)")
	f.StringVar(&flags.maxTokens, "max-tokens", "", "maximum output tokens per model call")
	f.StringVar(&flags.maxRounds, "max-rounds", "", "maximum tool-use rounds per query, 0 for unlimited")
	f.StringVar(&flags.resultText, "result-text", "", `keep the "first" or "all" text parts of a tool result`)
	f.BoolVar(&flags.parallel, "parallel-tools", false, "run the tool calls of one response concurrently")
	f.StringArrayVarP(&flags.queries, "query", "q", nil, "answer this query and exit (repeatable)")
	f.BoolVar(&flags.plain, "plain", false, "disable colors and markdown rendering")
	f.BoolVar(&flags.debug, "debug", false, "write a debug log to the config directory")

	cmd.AddCommand(newConfigCmd(&flags.configPath))
	return cmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, flags *rootFlags, args []string) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	config.InitDebugLog(config.GetConfigDir(), flags.debug)

	if err := applyFlags(cmd, flags, cfg); err != nil {
		return err
	}

	entries, err := providerEntries(cfg, args)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%v\n\n", err)
		cmd.SetOut(cmd.ErrOrStderr())
		_ = cmd.Usage()
		return errUsage
	}

	llm, modelName, err := initializeLLM(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(llm, orchestrator.OptionsFromConfig(cfg, modelName))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := orch.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}()

	rc := mcp.NewRuntimeChecker()
	for _, entry := range entries {
		if err := addProvider(ctx, orch, rc, entry); err != nil {
			return fmt.Errorf("add provider %s: %w", entry.Name, err)
		}
	}

	if len(flags.queries) > 0 {
		for _, q := range flags.queries {
			answer, err := orch.Ask(ctx, q)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
		}
		return nil
	}

	var opts []ui.ShellOption
	opts = append(opts, ui.WithBanner(
		fmt.Sprintf("mcporch %s · %s (%s)", Version, config.ProviderDisplayName(cfg.LLM.Provider), modelName),
		orch.ProviderLabels(), len(orch.Catalog())))
	if width, ok := terminalWidth(flags.plain); ok {
		opts = append(opts, ui.WithStyle(width))
	}

	err = ui.NewShell(orch, cmd.InOrStdin(), cmd.OutOrStdout(), opts...).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) error {
	overrides := []struct {
		flag, key, value string
	}{
		{"llm", "llm.provider", flags.llm},
		{"model", "llm.model", flags.model},
		{"max-tokens", "llm.max_tokens", flags.maxTokens},
		{"max-rounds", "conversation.max_rounds", flags.maxRounds},
		{"result-text", "conversation.result_text", flags.resultText},
		{"parallel-tools", "conversation.parallel_tools", fmt.Sprint(flags.parallel)},
	}

	for _, o := range overrides {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		if err := config.UpdateField(cfg, o.key, o.value); err != nil {
			return fmt.Errorf("--%s: %w", o.flag, err)
		}
	}

	// A backend switched on the command line starts from its own default model.
	if cmd.Flags().Changed("llm") && !cmd.Flags().Changed("model") {
		cfg.LLM.Model = ""
	}
	return nil
}

// providerEntries merges configured providers with the command-line pairs.
func providerEntries(cfg *config.Config, args []string) ([]config.ProviderEntry, error) {
	entries := append([]config.ProviderEntry(nil), cfg.Providers...)
	if len(args) == 0 && len(entries) > 0 {
		return entries, nil
	}

	pairs, err := mcp.ParseProviderPairs(args)
	if err != nil {
		return nil, err
	}
	return append(entries, pairs...), nil
}

func addProvider(ctx context.Context, orch *orchestrator.Orchestrator, rc *mcp.RuntimeChecker, entry config.ProviderEntry) error {
	if name, ok := mcp.IsBuiltin(entry); ok {
		srv, err := builtinServer(name, entry)
		if err != nil {
			return err
		}
		return orch.AddServer(ctx, entry.Name, srv)
	}

	spec, err := mcp.BuildLaunchSpec(rc, entry)
	if err != nil {
		return err
	}
	return orch.AddProvider(ctx, entry.Name, spec)
}

func builtinServer(name string, entry config.ProviderEntry) (*server.MCPServer, error) {
	switch strings.ToLower(name) {
	case "text":
		return servers.NewTextServer(), nil
	case "data":
		profile := entry.Env["MCPORCH_PROFILE"]
		if profile == "" {
			profile = os.Getenv("MCPORCH_PROFILE")
		}
		return servers.NewDataServer(config.ExpandPath(profile)), nil
	default:
		return nil, fmt.Errorf("unknown builtin server %q (want text or data)", name)
	}
}

func terminalWidth(plain bool) (int, bool) {
	if plain || !term.IsTerminal(os.Stdout.Fd()) {
		return 0, false
	}
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 {
		width = 80
	}
	return width - 4, true
}
