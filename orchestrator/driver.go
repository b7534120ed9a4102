// Package orchestrator runs tool-calling conversations against a model.LLM,
// dispatching tool_use requests to MCP providers through a routing table.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"mcporch/config"
	"mcporch/mcp"
	"mcporch/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// State is the position of a Driver in its conversation state machine.
type State int

const (
	StateAwaitingModel State = iota
	StateDispatchingTools
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting model"
	case StateDispatchingTools:
		return "dispatching tools"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Router exposes the aggregate tool catalog and resolves composite names.
// *mcp.Aggregator implements it.
type Router interface {
	Catalog() []mcptypes.Tool
	Resolve(name string) (mcp.Route, error)
}

// Suggester is optionally implemented by a Router to offer close matches
// for a tool name the model got wrong.
type Suggester interface {
	Suggest(name string, limit int) []string
}

const maxSuggestions = 3

// DriverOptions configures a Driver.
type DriverOptions struct {
	Model     string
	MaxTokens int64
	// MaxRounds caps tool-use rounds per Ask. Zero means unbounded.
	MaxRounds int
	// ParallelTools dispatches the tool calls of one response concurrently.
	ParallelTools bool
}

// Driver runs one conversation at a time. It keeps no history between
// calls to Ask.
type Driver struct {
	llm  model.LLM
	opts DriverOptions

	mu    sync.Mutex
	state State
}

func NewDriver(llm model.LLM, opts DriverOptions) *Driver {
	return &Driver{llm: llm, opts: opts, state: StateAwaitingModel}
}

// State returns the state of the most recent conversation.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// turn is the mutable state of a single Ask.
type turn struct {
	id      string
	router  Router
	round   int
	history []model.Message
	answer  []string
}

// dispatch is the outcome of one tool_use block.
type dispatch struct {
	call   model.ToolCall
	route  mcp.Route
	result *mcp.ToolResult
	// lookupErr is set when the name did not resolve. It is reported
	// inline and does not fail the turn.
	lookupErr error
	err       error
}

// Ask answers query, looping through model calls and tool dispatch until
// the model responds without requesting a tool. The answer is every text
// block and tool trace of the conversation joined by newlines.
func (d *Driver) Ask(ctx context.Context, query string, router Router) (string, error) {
	return d.ask(ctx, "", query, router)
}

func (d *Driver) ask(ctx context.Context, turnID, query string, router Router) (string, error) {
	t := &turn{
		id:      turnID,
		router:  router,
		history: []model.Message{model.NewUserText(query)},
	}
	d.setState(StateAwaitingModel)

	for {
		t.round++
		if d.opts.MaxRounds > 0 && t.round > d.opts.MaxRounds+1 {
			return "", d.fail(t, StateAwaitingModel, ErrTooManyRounds)
		}

		if err := ctx.Err(); err != nil {
			return "", d.fail(t, StateAwaitingModel, err)
		}

		resp, err := d.llm.Complete(ctx, model.Request{
			Model:     d.opts.Model,
			MaxTokens: d.opts.MaxTokens,
			Messages:  t.history,
			Tools:     router.Catalog(),
		})
		if err != nil {
			return "", d.fail(t, StateAwaitingModel, err)
		}
		if resp == nil || !wellFormed(resp) {
			return "", d.fail(t, StateAwaitingModel, ErrMalformedResponse)
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("[Orchestrator] turn %s round %d: %d blocks, stop=%s", t.id, t.round, len(resp.Blocks), resp.StopReason)
		}

		if !resp.HasToolUse() {
			for _, b := range resp.Blocks {
				if b.Type == model.BlockText && b.Text != "" {
					t.answer = append(t.answer, b.Text)
				}
			}
			d.setState(StateDone)
			return strings.Join(t.answer, "\n"), nil
		}

		d.setState(StateDispatchingTools)
		outcomes, err := d.dispatchAll(ctx, t, resp.Blocks, router)
		if err != nil {
			return "", d.fail(t, StateDispatchingTools, err)
		}

		t.history = append(t.history, resp.AssistantMessage(), d.record(t, resp.Blocks, outcomes))
		d.setState(StateAwaitingModel)
	}
}

// wellFormed reports whether every tool_use block carries its call.
func wellFormed(resp *model.Response) bool {
	for _, b := range resp.Blocks {
		if b.Type == model.BlockToolUse && b.ToolCall == nil {
			return false
		}
	}
	return true
}

// dispatchAll resolves and invokes every tool_use block. Outcomes are
// indexed like blocks. The returned error is the first invocation failure
// in arrival order.
func (d *Driver) dispatchAll(ctx context.Context, t *turn, blocks []model.ContentBlock, router Router) ([]*dispatch, error) {
	outcomes := make([]*dispatch, len(blocks))
	for i, b := range blocks {
		if b.Type != model.BlockToolUse || b.ToolCall == nil {
			continue
		}
		o := &dispatch{call: *b.ToolCall}
		o.route, o.lookupErr = router.Resolve(b.ToolCall.Name)
		if o.lookupErr != nil {
			var notFound *mcp.NotFoundError
			if !errors.As(o.lookupErr, &notFound) {
				return nil, o.lookupErr
			}
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Orchestrator] turn %s: unresolved tool %q", t.id, b.ToolCall.Name)
			}
		}
		outcomes[i] = o
	}

	if d.opts.ParallelTools {
		g, gctx := errgroup.WithContext(ctx)
		for _, o := range outcomes {
			if o == nil || o.lookupErr != nil {
				continue
			}
			g.Go(func() error {
				o.result, o.err = invoke(gctx, o)
				return o.err
			})
		}
		_ = g.Wait()
	} else {
		for _, o := range outcomes {
			if o == nil || o.lookupErr != nil {
				continue
			}
			o.result, o.err = invoke(ctx, o)
			if o.err != nil {
				break
			}
		}
	}

	// A parallel failure cancels its siblings; report the cause, not the
	// cancellations it triggered.
	var first error
	for _, o := range outcomes {
		if o == nil || o.err == nil {
			continue
		}
		if first == nil {
			first = o.err
		}
		if ctx.Err() == nil && errors.Is(o.err, context.Canceled) {
			continue
		}
		return nil, o.err
	}
	if first != nil {
		return nil, first
	}
	return outcomes, nil
}

func invoke(ctx context.Context, o *dispatch) (*mcp.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] calling %s on %s", o.route.LocalName, o.route.Provider.Name())
	}
	return o.route.Provider.Invoke(ctx, o.route.LocalName, o.call.Arguments)
}

// record walks the response in arrival order, extending the answer buffer
// and building the user message of tool_result blocks for the next round.
func (d *Driver) record(t *turn, blocks []model.ContentBlock, outcomes []*dispatch) model.Message {
	results := model.Message{Role: model.RoleUser}

	for i, b := range blocks {
		switch b.Type {
		case model.BlockText:
			if b.Text != "" {
				t.answer = append(t.answer, b.Text)
			}
		case model.BlockToolUse:
			o := outcomes[i]
			if o == nil {
				continue
			}
			if o.lookupErr != nil {
				t.answer = append(t.answer, "Error: "+o.lookupErr.Error())
				results.Blocks = append(results.Blocks, model.ToolResultBlock(o.call.ID, unresolvedMessage(o, t.router), true))
				continue
			}
			t.answer = append(t.answer,
				fmt.Sprintf("[%s] Calling tool %s with args %s", o.route.Provider.Name(), o.route.LocalName, formatArgs(o.call.Arguments)),
				o.result.Text,
			)
			results.Blocks = append(results.Blocks, model.ToolResultBlock(o.call.ID, resultText(o.result), false))
		}
	}

	return results
}

// unresolvedMessage tells the model which tool name failed and, when the
// router can suggest, what it may have meant.
func unresolvedMessage(o *dispatch, router Router) string {
	msg := o.lookupErr.Error()
	if s, ok := router.(Suggester); ok {
		if matches := s.Suggest(o.call.Name, maxSuggestions); len(matches) > 0 {
			msg += "; did you mean " + strings.Join(matches, ", ") + "?"
		}
	}
	return msg
}

// resultText is the tool_result content sent back to the model. Some
// services reject empty tool results.
func resultText(r *mcp.ToolResult) string {
	if r.Text == "" {
		return "(no output)"
	}
	return r.Text
}

func formatArgs(args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}

func (d *Driver) fail(t *turn, stage State, err error) error {
	d.setState(StateFailed)
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] turn %s failed in round %d while %s: %v", t.id, t.round, stage, err)
	}
	return &ConversationError{TurnID: t.id, Round: t.round, Stage: stage, Err: err}
}
