// Package capability exposes the helpdesk API to the execution agent as a
// registry of named, typed operations. Each provider contributes a small set
// of operations whose parameter schema is described with MCP tool
// definitions, so the agent can pick operations by name and description.
package capability

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

var (
	// ErrUnknownOperation is returned when invoking a name that is not registered.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrDuplicateOperation is returned when two providers register the same name.
	ErrDuplicateOperation = errors.New("duplicate operation")

	// ErrMissingParameter is returned when a required parameter is absent.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidParameter is returned when a parameter has the wrong type.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Handler executes one operation.
type Handler func(ctx context.Context, args Args) (interface{}, error)

// Operation pairs a tool definition with its handler.
type Operation struct {
	Tool    mcp.Tool
	Handler Handler
}

// Name returns the operation name used for agent tool selection.
func (o Operation) Name() string { return o.Tool.Name }

// Provider contributes operations to a Registry.
type Provider interface {
	Operations() []Operation
}

// Registry maps operation names to operations.
type Registry struct {
	ops    map[string]Operation
	logger logger.Logger
}

// NewRegistry builds a registry from providers.
func NewRegistry(log logger.Logger, providers ...Provider) (*Registry, error) {
	r := &Registry{
		ops:    make(map[string]Operation),
		logger: log.WithField("component", "capability"),
	}
	for _, p := range providers {
		for _, op := range p.Operations() {
			if err := r.Register(op); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Register adds a single operation.
func (r *Registry) Register(op Operation) error {
	if op.Tool.Name == "" || op.Handler == nil {
		return fmt.Errorf("capability: operation must have a name and handler")
	}
	if _, exists := r.ops[op.Tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOperation, op.Tool.Name)
	}
	r.ops[op.Tool.Name] = op
	return nil
}

// Lookup returns the operation with the given name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Operations returns all operations sorted by name.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool.Name < out[j].Tool.Name })
	return out
}

// Len returns the number of registered operations.
func (r *Registry) Len() int { return len(r.ops) }

// Invoke validates required parameters and runs the named operation.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) (interface{}, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	if args == nil {
		args = Args{}
	}
	for _, param := range op.Tool.InputSchema.Required {
		if v, present := args[param]; !present || v == nil {
			return nil, fmt.Errorf("%s: %w: %s", name, ErrMissingParameter, param)
		}
	}

	r.logger.Info(ctx, "invoking operation", map[string]interface{}{
		"operation": name,
	})
	return op.Handler(ctx, args)
}

// Schema renders the JSON schema of an operation's parameters.
func Schema(tool mcp.Tool) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
	if tool.InputSchema.Properties != nil {
		schema["properties"] = tool.InputSchema.Properties
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	return schema
}
