package mcp

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed is wrapped by InvocationError when a closed session is used.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidProviderName rejects names that are empty or contain the
	// namespace separator.
	ErrInvalidProviderName = errors.New("invalid provider name")
)

// ConnectionError reports that the provider transport could not be established.
type ConnectionError struct {
	Provider string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to provider %s: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a failed or malformed handshake or discovery exchange.
type ProtocolError struct {
	Provider string
	Stage    string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Stage, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// InvocationError reports a transport fault while calling a tool.
type InvocationError struct {
	Provider string
	Tool     string
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s on provider %s: %v", e.Tool, e.Provider, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// RemoteToolError reports an application-level failure signalled by the provider.
type RemoteToolError struct {
	Provider string
	Tool     string
	Message  string
}

func (e *RemoteToolError) Error() string {
	return fmt.Sprintf("tool %s on provider %s failed: %s", e.Tool, e.Provider, e.Message)
}

// NamespaceCollisionError rejects a registration that would shadow an
// existing provider or composite tool name.
type NamespaceCollisionError struct {
	Name string
}

func (e *NamespaceCollisionError) Error() string {
	return fmt.Sprintf("namespace collision: %q is already registered", e.Name)
}

// NotFoundError reports an unknown composite tool identifier.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}
