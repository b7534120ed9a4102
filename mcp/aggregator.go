package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
)

// Separator joins provider and tool names into a composite identifier.
const Separator = "-"

// Provider is a connected tool provider. *Session is the production
// implementation.
type Provider interface {
	Name() string
	Tools() []mcptypes.Tool
	Invoke(ctx context.Context, tool string, args map[string]any) (*ToolResult, error)
	Close() error
}

// Route is where a composite identifier dispatches to.
type Route struct {
	Provider  Provider
	LocalName string
}

// CompositeName namespaces a provider's tool for the model.
func CompositeName(provider, tool string) string {
	return provider + Separator + tool
}

// SplitCompositeName reverses CompositeName by splitting on the first separator.
func SplitCompositeName(name string) (provider, tool string, ok bool) {
	return strings.Cut(name, Separator)
}

// RoutingTable maps composite identifiers to their owning provider.
type RoutingTable struct {
	routes map[string]Route
}

func newRoutingTable() *RoutingTable {
	return &RoutingTable{routes: make(map[string]Route)}
}

func (rt *RoutingTable) lookup(name string) (Route, bool) {
	r, ok := rt.routes[name]
	return r, ok
}

// Len returns the number of routable tools.
func (rt *RoutingTable) Len() int {
	return len(rt.routes)
}

// Aggregator merges the tool lists of every registered provider into one
// flat catalog and resolves composite identifiers back to their provider.
type Aggregator struct {
	mu        sync.RWMutex
	providers []Provider
	byName    map[string]Provider
	table     *RoutingTable
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byName: make(map[string]Provider),
		table:  newRoutingTable(),
	}
}

// Register adds every tool of p to the routing table. Registration is all
// or nothing: on error the table is unchanged.
func (a *Aggregator) Register(p Provider) error {
	name := p.Name()
	if name == "" || strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %q (must be non-empty and must not contain %q)", ErrInvalidProviderName, name, Separator)
	}

	tools := p.Tools()

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.byName[name]; exists {
		return &NamespaceCollisionError{Name: name}
	}

	staged := make(map[string]Route, len(tools))
	for _, tool := range tools {
		composite := CompositeName(name, tool.Name)
		if _, exists := a.table.routes[composite]; exists {
			return &NamespaceCollisionError{Name: composite}
		}
		if _, exists := staged[composite]; exists {
			return &NamespaceCollisionError{Name: composite}
		}
		staged[composite] = Route{Provider: p, LocalName: tool.Name}
	}

	for composite, route := range staged {
		a.table.routes[composite] = route
	}
	a.byName[name] = p
	a.providers = append(a.providers, p)

	return nil
}

// Catalog returns every tool under its composite name, in registration
// order and then in each provider's discovery order.
func (a *Aggregator) Catalog() []mcptypes.Tool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var allTools []mcptypes.Tool
	for _, p := range a.providers {
		for _, tool := range p.Tools() {
			namespacedTool := tool
			namespacedTool.Name = CompositeName(p.Name(), tool.Name)
			allTools = append(allTools, namespacedTool)
		}
	}

	return allTools
}

// Resolve finds the provider and local tool name behind a composite identifier.
func (a *Aggregator) Resolve(name string) (Route, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	route, ok := a.table.lookup(name)
	if !ok {
		return Route{}, &NotFoundError{Name: name}
	}
	return route, nil
}

// Suggest returns up to limit composite identifiers that fuzzy-match name,
// best match first. When the full name matches nothing, the part after the
// first separator is tried so a wrong provider prefix still finds the tool.
func (a *Aggregator) Suggest(name string, limit int) []string {
	a.mu.RLock()
	ids := make([]string, 0, len(a.table.routes))
	for id := range a.table.routes {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	if name == "" || len(ids) == 0 || limit <= 0 {
		return nil
	}
	sort.Strings(ids)

	matches := fuzzy.Find(name, ids)
	if len(matches) == 0 {
		if _, local, ok := SplitCompositeName(name); ok && local != "" {
			matches = fuzzy.Find(local, ids)
		}
	}

	var out []string
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// Providers returns the registered providers in registration order.
func (a *Aggregator) Providers() []Provider {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Provider, len(a.providers))
	copy(out, a.providers)
	return out
}

// Provider returns the registered provider with the given name.
func (a *Aggregator) Provider(name string) (Provider, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.byName[name]
	return p, ok
}

// Len returns the number of routable tools.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table.Len()
}
