package orchestrator

import (
	"context"
	"sync"

	"mcporch/mcp"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

type invocation struct {
	Tool string
	Args map[string]any
}

// fakeProvider answers every tool with "<provider>:<tool>" unless invokeFn
// says otherwise.
type fakeProvider struct {
	name     string
	tools    []mcptypes.Tool
	invokeFn func(ctx context.Context, tool string, args map[string]any) (*mcp.ToolResult, error)
	closeErr error

	mu     sync.Mutex
	calls  []invocation
	closes int
}

func newFakeProvider(name string, tools ...string) *fakeProvider {
	p := &fakeProvider{name: name}
	for _, tool := range tools {
		p.tools = append(p.tools, mcptypes.NewTool(tool, mcptypes.WithDescription("fake "+tool)))
	}
	return p
}

func (p *fakeProvider) Name() string           { return p.name }
func (p *fakeProvider) Tools() []mcptypes.Tool { return p.tools }

func (p *fakeProvider) Invoke(ctx context.Context, tool string, args map[string]any) (*mcp.ToolResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, invocation{Tool: tool, Args: args})
	p.mu.Unlock()

	if p.invokeFn != nil {
		return p.invokeFn(ctx, tool, args)
	}
	return &mcp.ToolResult{Text: p.name + ":" + tool}, nil
}

func (p *fakeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return p.closeErr
}

func (p *fakeProvider) Calls() []invocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]invocation(nil), p.calls...)
}

func (p *fakeProvider) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func newRouter(providers ...*fakeProvider) *mcp.Aggregator {
	agg := mcp.NewAggregator()
	for _, p := range providers {
		if err := agg.Register(p); err != nil {
			panic(err)
		}
	}
	return agg
}
