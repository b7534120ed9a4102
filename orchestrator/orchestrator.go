package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mcporch/config"
	"mcporch/mcp"
	"mcporch/model"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Connector establishes a provider session from a launch spec.
type Connector func(ctx context.Context, name string, spec mcp.LaunchSpec) (mcp.Provider, error)

// Options configures an Orchestrator.
type Options struct {
	DriverOptions
	ResultMode mcp.ResultMode
	// Connector defaults to mcp.Connect.
	Connector Connector
}

// OptionsFromConfig maps the conversation and LLM settings onto Options.
func OptionsFromConfig(cfg *config.Config, modelName string) Options {
	return Options{
		DriverOptions: DriverOptions{
			Model:         modelName,
			MaxTokens:     cfg.LLM.MaxTokens,
			MaxRounds:     cfg.Conversation.MaxRounds,
			ParallelTools: cfg.Conversation.ParallelTools,
		},
		ResultMode: mcp.ParseResultMode(cfg.Conversation.ResultText),
	}
}

// Orchestrator owns a set of provider sessions and answers questions with
// them. At most one Ask runs at a time.
type Orchestrator struct {
	llm      model.LLM
	agg      *mcp.Aggregator
	driver   *Driver
	connect  Connector
	sessOpts []mcp.SessionOption

	mu       sync.Mutex
	asking   bool
	shutdown bool

	shutdownOnce sync.Once
	shutdownErr  error
}

func New(llm model.LLM, opts Options) *Orchestrator {
	o := &Orchestrator{
		llm:      llm,
		agg:      mcp.NewAggregator(),
		driver:   NewDriver(llm, opts.DriverOptions),
		connect:  opts.Connector,
		sessOpts: []mcp.SessionOption{mcp.WithResultMode(opts.ResultMode)},
	}
	if o.connect == nil {
		o.connect = o.connectProcess
	}
	return o
}

func (o *Orchestrator) connectProcess(ctx context.Context, name string, spec mcp.LaunchSpec) (mcp.Provider, error) {
	s, err := mcp.Connect(ctx, name, spec, o.sessOpts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (o *Orchestrator) closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shutdown
}

// AddProvider connects to the provider described by spec and registers its
// tools under name. A session that connects but fails to register is closed
// before the error is returned.
func (o *Orchestrator) AddProvider(ctx context.Context, name string, spec mcp.LaunchSpec) error {
	if o.closed() {
		return ErrShutdown
	}
	if name == "" {
		return fmt.Errorf("%w: empty name", mcp.ErrInvalidProviderName)
	}
	if _, exists := o.agg.Provider(name); exists {
		return &mcp.NamespaceCollisionError{Name: name}
	}

	p, err := o.connect(ctx, name, spec)
	if err != nil {
		return err
	}
	return o.AddSession(p)
}

// AddServer registers an in-process MCP server under name.
func (o *Orchestrator) AddServer(ctx context.Context, name string, srv *server.MCPServer) error {
	if o.closed() {
		return ErrShutdown
	}

	s, err := mcp.ConnectInProcess(ctx, name, srv, o.sessOpts...)
	if err != nil {
		return err
	}
	return o.AddSession(s)
}

// AddSession registers an already connected provider. The orchestrator
// takes ownership: p is closed on failure or at Shutdown.
func (o *Orchestrator) AddSession(p mcp.Provider) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.shutdown {
		closeQuietly(p)
		return ErrShutdown
	}
	if err := o.agg.Register(p); err != nil {
		closeQuietly(p)
		return err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] registered provider %s with %d tools", p.Name(), len(p.Tools()))
	}
	return nil
}

func closeQuietly(p mcp.Provider) {
	if err := p.Close(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] close %s after failed add: %v", p.Name(), err)
	}
}

// Catalog returns the aggregate tool catalog under composite names.
func (o *Orchestrator) Catalog() []mcptypes.Tool {
	return o.agg.Catalog()
}

// Providers returns the names of the registered providers in registration order.
func (o *Orchestrator) Providers() []string {
	providers := o.agg.Providers()
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}

// ProviderLabels describes each registered provider for display, adding the
// server name and version reported during the handshake when known.
func (o *Orchestrator) ProviderLabels() []string {
	providers := o.agg.Providers()
	labels := make([]string, len(providers))
	for i, p := range providers {
		labels[i] = p.Name()
		d, ok := p.(describer)
		if !ok {
			continue
		}
		switch info := d.ServerInfo(); {
		case info.Name == "":
		case info.Version == "":
			labels[i] = fmt.Sprintf("%s (%s)", p.Name(), info.Name)
		default:
			labels[i] = fmt.Sprintf("%s (%s %s)", p.Name(), info.Name, info.Version)
		}
	}
	return labels
}

// describer is implemented by providers that report server metadata.
type describer interface {
	ServerInfo() mcptypes.Implementation
}

// Ask answers query using the registered providers. A second Ask while one
// is in flight fails with ErrAskInFlight.
func (o *Orchestrator) Ask(ctx context.Context, query string) (string, error) {
	o.mu.Lock()
	if o.shutdown {
		o.mu.Unlock()
		return "", ErrShutdown
	}
	if o.asking {
		o.mu.Unlock()
		return "", ErrAskInFlight
	}
	o.asking = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.asking = false
		o.mu.Unlock()
	}()

	turnID := uuid.NewString()
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] turn %s: %d tools from %d providers via %s", turnID, o.agg.Len(), len(o.agg.Providers()), o.llm.Name())
	}

	return o.driver.ask(ctx, turnID, query, o.agg)
}

// Shutdown closes every registered provider exactly once. Close failures
// are collected and logged; the returned error is informational. Calls
// after the first return the first call's result. Shutdown always waits for
// every Close to return; sessions bound their own close time. If ctx ends
// first, its error is included in the result.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.shutdownOnce.Do(func() {
		o.mu.Lock()
		o.shutdown = true
		o.mu.Unlock()

		o.shutdownErr = o.closeAll(ctx)
	})
	return o.shutdownErr
}

func (o *Orchestrator) closeAll(ctx context.Context) error {
	providers := o.agg.Providers()
	errs := make([]error, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Close(); err != nil {
				errs[i] = fmt.Errorf("close provider %s: %w", p.Name(), err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var ctxErr error
	select {
	case <-done:
	case <-ctx.Done():
		ctxErr = fmt.Errorf("shutdown: %w", ctx.Err())
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Orchestrator] %v, waiting for providers to finish closing", ctxErr)
		}
		<-done
	}

	err := errors.Join(append(errs, ctxErr)...)
	if err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] shutdown: %v", err)
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] shutdown complete, %d providers closed", len(providers))
	}
	return err
}
