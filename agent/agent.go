// Package agent implements the execution agent: given a natural-language
// instruction and the capability registry, it drives a model through a
// tool-use loop and returns the model's final text report.
package agent

import (
	"context"
	"errors"

	"github.com/hairizuan-noorazman/helpdesk-pilot/capability"
	"github.com/hairizuan-noorazman/helpdesk-pilot/credential"
)

var (
	// ErrMaxIterations is returned when the model keeps requesting tools
	// beyond the configured iteration limit.
	ErrMaxIterations = errors.New("agent exceeded max iterations")

	// ErrInvalidCredential is returned when a pooled credential cannot be
	// turned into model credentials.
	ErrInvalidCredential = errors.New("invalid agent credential")
)

// Agent executes one instruction and returns its text report.
type Agent interface {
	Execute(ctx context.Context, instruction string) (string, error)
}

// UsageRecorder observes token usage of each model call.
type UsageRecorder interface {
	Record(input, output int64)
}

// Factory builds a fresh agent bound to one credential.
type Factory interface {
	New(ctx context.Context, cred credential.Credential, usage UsageRecorder) (Agent, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, cred credential.Credential, usage UsageRecorder) (Agent, error)

func (f FactoryFunc) New(ctx context.Context, cred credential.Credential, usage UsageRecorder) (Agent, error) {
	return f(ctx, cred, usage)
}

// Toolset is the view of the capability registry the agent needs.
type Toolset interface {
	Operations() []capability.Operation
	Invoke(ctx context.Context, name string, args capability.Args) (interface{}, error)
}

// ToolDefinitions renders the registry as model tool definitions.
func ToolDefinitions(tools Toolset) []ToolDefinition {
	ops := tools.Operations()
	defs := make([]ToolDefinition, 0, len(ops))
	for _, op := range ops {
		defs = append(defs, ToolDefinition{
			Name:        op.Name(),
			Description: op.Tool.Description,
			InputSchema: capability.Schema(op.Tool),
		})
	}
	return defs
}
