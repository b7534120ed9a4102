package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrShutdown is returned by operations attempted after Shutdown.
	ErrShutdown = errors.New("orchestrator is shut down")

	// ErrAskInFlight rejects a second concurrent Ask on one orchestrator.
	ErrAskInFlight = errors.New("another question is already being processed")

	// ErrTooManyRounds is wrapped by ConversationError when the model keeps
	// requesting tools past the configured round limit.
	ErrTooManyRounds = errors.New("too many tool-use rounds")

	// ErrMalformedResponse is wrapped by ConversationError when the
	// conversation service returns nothing usable.
	ErrMalformedResponse = errors.New("malformed model response")
)

// ConversationError reports why a turn ended in the failed state. Err is the
// underlying cause, so errors.As still reaches mcp.InvocationError,
// mcp.RemoteToolError and friends.
type ConversationError struct {
	TurnID string
	Round  int
	Stage  State
	Err    error
}

func (e *ConversationError) Error() string {
	return fmt.Sprintf("conversation failed in round %d while %s: %v", e.Round, e.Stage, e.Err)
}

func (e *ConversationError) Unwrap() error { return e.Err }
