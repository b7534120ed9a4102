package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mcporch/config"
	"mcporch/mcp"
	"mcporch/model"
	"mcporch/provider/testutil"
	"mcporch/servers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnector hands out pre-built providers by name.
type fakeConnector struct {
	mu        sync.Mutex
	providers map[string]*fakeProvider
	err       error
	calls     int
}

func (c *fakeConnector) connect(ctx context.Context, name string, spec mcp.LaunchSpec) (mcp.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.providers[name]
	if !ok {
		p = newFakeProvider(name, "ping")
		if c.providers == nil {
			c.providers = map[string]*fakeProvider{}
		}
		c.providers[name] = p
	}
	return p, nil
}

func newTestOrchestrator(llm model.LLM, conn *fakeConnector) *Orchestrator {
	return New(llm, Options{Connector: conn.connect})
}

func TestAddProviderCatalog(t *testing.T) {
	conn := &fakeConnector{}
	o := newTestOrchestrator(testutil.NewMockLLM(), conn)
	ctx := context.Background()

	require.NoError(t, o.AddProvider(ctx, "A", mcp.LaunchSpec{Command: "a.py"}))
	require.NoError(t, o.AddProvider(ctx, "B", mcp.LaunchSpec{Command: "b.py"}))

	var names []string
	for _, tool := range o.Catalog() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"A-ping", "B-ping"}, names)
	assert.Equal(t, []string{"A", "B"}, o.Providers())
	assert.Equal(t, []string{"A", "B"}, o.ProviderLabels())
}

func TestAddProviderDuplicateName(t *testing.T) {
	conn := &fakeConnector{}
	o := newTestOrchestrator(testutil.NewMockLLM(), conn)
	ctx := context.Background()

	require.NoError(t, o.AddProvider(ctx, "A", mcp.LaunchSpec{Command: "a.py"}))
	err := o.AddProvider(ctx, "A", mcp.LaunchSpec{Command: "other.py"})

	var collision *mcp.NamespaceCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, 1, conn.calls, "duplicate name must not spawn a second session")
	assert.Len(t, o.Catalog(), 1)
}

func TestAddProviderClosesOnRegisterFailure(t *testing.T) {
	bad := newFakeProvider("my-server", "ping")
	conn := &fakeConnector{providers: map[string]*fakeProvider{"my-server": bad}}
	o := newTestOrchestrator(testutil.NewMockLLM(), conn)

	err := o.AddProvider(context.Background(), "my-server", mcp.LaunchSpec{Command: "s.py"})
	require.ErrorIs(t, err, mcp.ErrInvalidProviderName)
	assert.Equal(t, 1, bad.Closes())
	assert.Empty(t, o.Providers())
}

func TestAddProviderConnectFailure(t *testing.T) {
	connErr := &mcp.ConnectionError{Provider: "A", Err: errors.New("no such file")}
	conn := &fakeConnector{err: connErr}
	o := newTestOrchestrator(testutil.NewMockLLM(), conn)

	err := o.AddProvider(context.Background(), "A", mcp.LaunchSpec{Command: "missing.py"})
	assert.ErrorIs(t, err, connErr)
	assert.Empty(t, o.Providers())
}

func TestAskSurvivesFailedTurn(t *testing.T) {
	llm := testutil.NewMockLLM(nil, testutil.TextResponse("second try")).
		FailAt(0, errors.New("rate limited"))
	o := newTestOrchestrator(llm, &fakeConnector{})

	_, err := o.Ask(context.Background(), "first")
	var convErr *ConversationError
	require.ErrorAs(t, err, &convErr)
	assert.NotEmpty(t, convErr.TurnID)

	answer, err := o.Ask(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "second try", answer)
}

func TestAskInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	llm := &testutil.MockLLM{
		CompleteFunc: func(ctx context.Context, req model.Request) (*model.Response, error) {
			close(entered)
			<-release
			return testutil.TextResponse("done"), nil
		},
	}
	o := newTestOrchestrator(llm, &fakeConnector{})

	errc := make(chan error, 1)
	go func() {
		_, err := o.Ask(context.Background(), "slow")
		errc <- err
	}()

	<-entered
	_, err := o.Ask(context.Background(), "concurrent")
	assert.ErrorIs(t, err, ErrAskInFlight)

	close(release)
	require.NoError(t, <-errc)
}

func TestShutdownIdempotent(t *testing.T) {
	conn := &fakeConnector{}
	o := newTestOrchestrator(testutil.NewMockLLM(), conn)
	ctx := context.Background()

	require.NoError(t, o.AddProvider(ctx, "A", mcp.LaunchSpec{Command: "a.py"}))
	require.NoError(t, o.AddProvider(ctx, "B", mcp.LaunchSpec{Command: "b.py"}))

	require.NoError(t, o.Shutdown(ctx))
	require.NoError(t, o.Shutdown(ctx))

	assert.Equal(t, 1, conn.providers["A"].Closes())
	assert.Equal(t, 1, conn.providers["B"].Closes())

	assert.ErrorIs(t, o.AddProvider(ctx, "C", mcp.LaunchSpec{Command: "c.py"}), ErrShutdown)
	_, err := o.Ask(ctx, "hello?")
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestShutdownCollectsCloseFailures(t *testing.T) {
	a := newFakeProvider("A", "ping")
	a.closeErr = errors.New("broken pipe")
	b := newFakeProvider("B", "ping")
	b.closeErr = errors.New("already exited")
	c := newFakeProvider("C", "ping")
	conn := &fakeConnector{providers: map[string]*fakeProvider{"A": a, "B": b, "C": c}}
	o := newTestOrchestrator(testutil.NewMockLLM(), conn)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, o.AddProvider(ctx, name, mcp.LaunchSpec{Command: name}))
	}

	err := o.Shutdown(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Contains(t, err.Error(), "already exited")

	for _, p := range []*fakeProvider{a, b, c} {
		assert.Equal(t, 1, p.Closes(), "provider %s", p.Name())
	}
}

func TestShutdownDeadline(t *testing.T) {
	stuck := make(chan struct{})
	time.AfterFunc(200*time.Millisecond, func() { close(stuck) })

	o := newTestOrchestrator(testutil.NewMockLLM(), &fakeConnector{})
	slow := &blockingProvider{fakeProvider: newFakeProvider("A", "ping"), release: stuck}
	require.NoError(t, o.AddSession(slow))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, o.Shutdown(ctx), context.DeadlineExceeded)
	// the slow provider finished closing before Shutdown returned
	assert.Equal(t, 1, slow.Closes())
}

type blockingProvider struct {
	*fakeProvider
	release chan struct{}
}

func (p *blockingProvider) Close() error {
	<-p.release
	return p.fakeProvider.Close()
}

func TestAddServerEndToEnd(t *testing.T) {
	llm := testutil.NewMockLLM(
		testutil.ToolUseResponse("", testutil.Call("t1", "text-uppercase", map[string]any{"text": "hi"})),
		testutil.TextResponse("Done."),
	)
	o := New(llm, Options{})
	ctx := context.Background()

	require.NoError(t, o.AddServer(ctx, "text", servers.NewTextServer()))
	require.NoError(t, o.AddServer(ctx, "data", servers.NewDataServer("")))
	defer o.Shutdown(ctx)

	answer, err := o.Ask(ctx, "shout hi")
	require.NoError(t, err)
	assert.Equal(t, "[text] Calling tool uppercase with args {\"text\":\"hi\"}\nHI\nDone.", answer)

	assert.Equal(t, []string{
		"text (" + servers.TextServerName + " " + servers.Version + ")",
		"data (" + servers.DataServerName + " " + servers.Version + ")",
	}, o.ProviderLabels())

	names := map[string]bool{}
	for _, tool := range llm.Requests()[0].Tools {
		names[tool.Name] = true
	}
	assert.True(t, names["text-reverse-text"])
	assert.True(t, names["text-uppercase"])
	assert.True(t, names["data-profile-data"])
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Conversation.MaxRounds = 5
	cfg.Conversation.ParallelTools = true
	cfg.Conversation.ResultText = "all"

	opts := OptionsFromConfig(cfg, "claude-test")
	assert.Equal(t, "claude-test", opts.Model)
	assert.Equal(t, int64(config.DefaultMaxTokens), opts.MaxTokens)
	assert.Equal(t, 5, opts.MaxRounds)
	assert.True(t, opts.ParallelTools)
	assert.Equal(t, mcp.ResultAllText, opts.ResultMode)
}
