package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"mcporch/config"
)

const (
	clientName    = "mcporch"
	clientVersion = "0.1.0"

	defaultCloseTimeout = time.Second
	maxToolPages        = 100
)

// Session owns the connection to a single tool provider. Its tool list is
// discovered once at connect time and never changes afterwards.
type Session struct {
	name   string
	client *client.Client
	cmd    *exec.Cmd // nil for remote and in-process providers
	tools  []mcptypes.Tool
	info   mcptypes.Implementation

	mode         ResultMode
	closeTimeout time.Duration

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

type SessionOption func(*Session)

// WithResultMode selects how multi-part tool results are flattened.
func WithResultMode(mode ResultMode) SessionOption {
	return func(s *Session) { s.mode = mode }
}

// WithCloseTimeout bounds how long Close waits for the client before
// killing the subprocess.
func WithCloseTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.closeTimeout = d }
}

func newSession(name string, c *client.Client, cmd *exec.Cmd, opts []SessionOption) *Session {
	s := &Session{
		name:         name,
		client:       c,
		cmd:          cmd,
		closeTimeout: defaultCloseTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect establishes the transport described by spec, performs the MCP
// handshake and discovers the provider's tools.
func Connect(ctx context.Context, name string, spec LaunchSpec, opts ...SessionOption) (*Session, error) {
	c, cmd, err := newClient(ctx, name, spec)
	if err != nil {
		return nil, &ConnectionError{Provider: name, Err: err}
	}
	return start(ctx, newSession(name, c, cmd, opts))
}

// ConnectClient runs the handshake and discovery over an already started client.
func ConnectClient(ctx context.Context, name string, c *client.Client, opts ...SessionOption) (*Session, error) {
	if c == nil {
		return nil, &ConnectionError{Provider: name, Err: errors.New("nil client")}
	}
	return start(ctx, newSession(name, c, nil, opts))
}

// ConnectInProcess serves srv inside this process.
func ConnectInProcess(ctx context.Context, name string, srv *server.MCPServer, opts ...SessionOption) (*Session, error) {
	c, err := newInProcessClient(ctx, srv)
	if err != nil {
		return nil, &ConnectionError{Provider: name, Err: err}
	}
	return start(ctx, newSession(name, c, nil, opts))
}

func start(ctx context.Context, s *Session) (*Session, error) {
	if err := s.connect(ctx); err != nil {
		if closeErr := s.Close(); closeErr != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Cleanup after failed connect of '%s': %v", s.name, closeErr)
		}
		return nil, err
	}
	return s, nil
}

func (s *Session) connect(ctx context.Context) error {
	initReq := mcptypes.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcptypes.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcptypes.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}

	initResult, err := s.client.Initialize(ctx, initReq)
	if err != nil {
		return &ProtocolError{Provider: s.name, Stage: "initialize", Err: err}
	}
	if initResult != nil {
		s.info = initResult.ServerInfo
	}

	tools, err := s.discover(ctx)
	if err != nil {
		return &ProtocolError{Provider: s.name, Stage: "list tools", Err: err}
	}
	s.tools = tools

	if config.DebugLog != nil {
		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = t.Name
		}
		config.DebugLog.Printf("[MCP] Connected to provider '%s' (%s %s) with tools: %v",
			s.name, s.info.Name, s.info.Version, names)
	}

	return nil
}

func (s *Session) discover(ctx context.Context) ([]mcptypes.Tool, error) {
	var tools []mcptypes.Tool
	seen := make(map[string]bool)

	req := mcptypes.ListToolsRequest{}
	for page := 0; page < maxToolPages; page++ {
		result, err := s.client.ListTools(ctx, req)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, errors.New("empty tools/list response")
		}

		for _, tool := range result.Tools {
			switch {
			case tool.Name == "":
				return nil, errors.New("tool with empty name")
			case seen[tool.Name]:
				return nil, fmt.Errorf("duplicate tool name %q", tool.Name)
			}
			seen[tool.Name] = true
			tools = append(tools, tool)
		}

		if result.NextCursor == "" {
			return tools, nil
		}
		req.Params.Cursor = result.NextCursor
	}

	return nil, fmt.Errorf("tools/list did not finish after %d pages", maxToolPages)
}

// Name returns the provider name the session was registered under.
func (s *Session) Name() string {
	return s.name
}

// ServerInfo returns what the provider reported about itself during the handshake.
func (s *Session) ServerInfo() mcptypes.Implementation {
	return s.info
}

// Tools returns the operations discovered at connect time, in provider order.
func (s *Session) Tools() []mcptypes.Tool {
	out := make([]mcptypes.Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Invoke calls the provider's tool named localName. Close waits for
// in-flight invocations to return.
func (s *Session) Invoke(ctx context.Context, localName string, args map[string]any) (*ToolResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, &InvocationError{Provider: s.name, Tool: localName, Err: ErrSessionClosed}
	}

	req := mcptypes.CallToolRequest{}
	req.Params.Name = localName
	req.Params.Arguments = args

	result, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, &InvocationError{Provider: s.name, Tool: localName, Err: err}
	}
	if result == nil {
		return nil, &InvocationError{Provider: s.name, Tool: localName, Err: errors.New("empty tools/call response")}
	}

	if result.IsError {
		msg := strings.Join(textParts(result.Content), "\n")
		if msg == "" {
			msg = "provider reported an error without details"
		}
		return nil, &RemoteToolError{Provider: s.name, Tool: localName, Message: msg}
	}

	return newToolResult(result.Content, s.mode), nil
}

// Close releases the client and the spawned process. Only the first call
// does any work; later calls return the first call's result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.closeErr = s.release()
	})
	return s.closeErr
}

func (s *Session) release() error {
	clientClosed := false
	var closeErr error

	if s.client != nil {
		closeDone := make(chan error, 1)
		go func() {
			closeDone <- s.client.Close()
		}()

		select {
		case err := <-closeDone:
			if err != nil {
				closeErr = fmt.Errorf("close client for %s: %w", s.name, err)
			} else {
				clientClosed = true
			}
		case <-time.After(s.closeTimeout):
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Close timeout for '%s' - will forcefully kill process", s.name)
			}
			closeErr = fmt.Errorf("close client for %s: timed out after %s", s.name, s.closeTimeout)
		}
	}

	if !clientClosed && s.cmd != nil && s.cmd.Process != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Forcefully killing process for '%s' (PID: %d)", s.name, s.cmd.Process.Pid)
		}
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			closeErr = errors.Join(closeErr, fmt.Errorf("kill %s: %w", s.name, err))
		}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Provider '%s' closed (err=%v)", s.name, closeErr)
	}

	return closeErr
}
