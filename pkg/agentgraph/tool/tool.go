// Package tool defines the tool contract consumed by the graph engine:
// declarations the model can be bound with, a callable interface for
// execution, and a registry for lookup by name.
package tool

import (
	"context"
	"errors"
)

// Sentinel errors for tool lookup and registration.
var (
	// ErrNotFound indicates no tool is registered under the requested name.
	ErrNotFound = errors.New("tool not found")

	// ErrDuplicate indicates a tool name is already registered.
	ErrDuplicate = errors.New("tool already registered")
)

// Tool describes a capability that can be offered to a model.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool is a Tool that can be executed.
type CallableTool interface {
	Tool

	// Call executes the tool with JSON-encoded arguments.
	// Returns the result value or an error if execution fails.
	Call(ctx context.Context, args []byte) (any, error)
}

// Declaration describes a tool's name, purpose, and expected arguments.
type Declaration struct {
	// Name is the unique identifier of the tool.
	Name string `json:"name"`

	// Description explains the tool's purpose to the model.
	Description string `json:"description"`

	// InputSchema defines the expected arguments in JSON Schema form.
	InputSchema *Schema `json:"inputSchema,omitempty"`
}

// Schema is a minimal JSON Schema representation for tool arguments.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}
