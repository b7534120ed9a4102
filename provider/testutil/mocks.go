package testutil

import (
	"context"
	"errors"
	"sync"

	"mcporch/model"
)

// ErrScriptExhausted is returned when MockLLM is asked for more responses
// than were scripted.
var ErrScriptExhausted = errors.New("mock llm: no scripted response left")

// MockLLM implements model.LLM for testing. It answers with scripted
// responses in order and records every request it receives.
type MockLLM struct {
	// CompleteFunc, when set, replaces the scripted behaviour.
	CompleteFunc func(ctx context.Context, req model.Request) (*model.Response, error)

	mu        sync.Mutex
	responses []*model.Response
	errs      []error
	requests  []model.Request
}

// NewMockLLM creates a mock that returns responses in order.
func NewMockLLM(responses ...*model.Response) *MockLLM {
	return &MockLLM{responses: responses}
}

// FailAt makes the call with the given zero-based index return err.
func (m *MockLLM) FailAt(index int, err error) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.errs) <= index {
		m.errs = append(m.errs, nil)
	}
	m.errs[index] = err
	return m
}

func (m *MockLLM) Name() string {
	return "mock"
}

func (m *MockLLM) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	m.mu.Lock()
	call := len(m.requests)
	m.requests = append(m.requests, cloneRequest(req))
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if call < len(m.errs) && m.errs[call] != nil {
		return nil, m.errs[call]
	}
	if call >= len(m.responses) {
		return nil, ErrScriptExhausted
	}
	return m.responses[call], nil
}

// Requests returns a copy of every request received so far.
func (m *MockLLM) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of Complete calls.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// cloneRequest snapshots the history so later appends by the caller do not
// change what was recorded.
func cloneRequest(req model.Request) model.Request {
	msgs := make([]model.Message, len(req.Messages))
	for i, msg := range req.Messages {
		msgs[i] = msg
		if msg.Blocks != nil {
			msgs[i].Blocks = append([]model.ContentBlock(nil), msg.Blocks...)
		}
	}
	req.Messages = msgs
	return req
}
