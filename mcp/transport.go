package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/server"
	"mcporch/config"
)

// newClient builds and starts the transport described by spec. The returned
// command is the spawned subprocess for stdio providers, nil otherwise.
func newClient(ctx context.Context, name string, spec LaunchSpec) (*client.Client, *exec.Cmd, error) {
	kind := spec.Transport
	switch {
	case kind == "" && spec.IsRemote():
		kind = TransportSSE
	case kind == "":
		kind = TransportStdio
	}

	switch kind {
	case TransportStdio:
		if spec.Command == "" {
			return nil, nil, fmt.Errorf("no command given for stdio provider")
		}
		return createLocalClient(name, spec)
	case TransportSSE:
		c, err := createSSEClient(ctx, name, spec)
		return c, nil, err
	case TransportStreamableHTTP:
		c, err := createStreamableHTTPClient(ctx, name, spec)
		return c, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown transport type: %s", kind)
	}
}

// createLocalClient spawns the provider process and speaks MCP over its
// standard streams.
func createLocalClient(name string, spec LaunchSpec) (*client.Client, *exec.Cmd, error) {
	env := specToEnv(spec.Env)
	var capturedCmd *exec.Cmd

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Provider '%s' - Command='%s', Args=%v", name, spec.Command, spec.Args)
	}

	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		spec.Command,
		env,
		spec.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, nil, err
	}

	if capturedCmd != nil && capturedCmd.Process != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Started provider '%s' with PID %d", name, capturedCmd.Process.Pid)
	}

	return mcpClient, capturedCmd, nil
}

func createSSEClient(ctx context.Context, name string, spec LaunchSpec) (*client.Client, error) {
	var opts []transport.ClientOption
	if len(spec.Headers) > 0 {
		opts = append(opts, transport.WithHeaders(spec.Headers))
	}

	mcpClient, err := client.NewSSEMCPClient(spec.URL, opts...)
	if err != nil {
		return nil, err
	}

	// SSE transport must be started before Initialize
	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start SSE transport: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Started SSE transport for '%s' at %s", name, spec.URL)
	}

	return mcpClient, nil
}

func createStreamableHTTPClient(ctx context.Context, name string, spec LaunchSpec) (*client.Client, error) {
	var opts []transport.StreamableHTTPCOption
	if len(spec.Headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(spec.Headers))
	}

	mcpClient, err := client.NewStreamableHttpClient(spec.URL, opts...)
	if err != nil {
		return nil, err
	}

	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start HTTP transport: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Started streamable HTTP transport for '%s' at %s", name, spec.URL)
	}

	return mcpClient, nil
}

// newInProcessClient wires a client directly to srv without any transport.
func newInProcessClient(ctx context.Context, srv *server.MCPServer) (*client.Client, error) {
	mcpClient, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, err
	}
	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start in-process transport: %w", err)
	}
	return mcpClient, nil
}

func specToEnv(envMap map[string]string) []string {
	// Keep PATH and the rest of the parent environment
	env := os.Environ()
	for k, v := range envMap {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
