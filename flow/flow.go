// Package flow orchestrates the request -> model -> tool execution cycle for
// model-backed agents. A flow assembles the model request through pluggable
// processors, streams model output as events, executes requested tools and
// feeds their results back for follow-up turns.
package flow

import (
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/model"
	"github.com/agentweave/agentweave/tool"
)

// Flow runs an agent's execution pipeline and streams progress as events.
type Flow interface {
	// Execute runs the flow. The returned channel closes when a final
	// response was emitted or an unrecoverable error occurred.
	Execute(runCtx *core.RunContext) (<-chan core.Event, error)
}

// FlowAgent is the agent surface a flow needs, decoupled from the concrete
// agent implementation.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	// ResolveInstructions produces the raw (untemplated) system prompt.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the registered tools keyed by name.
	GetTools() map[string]tool.Tool

	// IsFunctionCallingEnabled reports whether tools are offered to the model.
	IsFunctionCallingEnabled() bool

	// IsStreamingEnabled reports whether partial chunks are requested.
	IsStreamingEnabled() bool

	// GetOutputKey returns the state key the final response is saved under,
	// or "" when the response is not persisted to state.
	GetOutputKey() string

	// MaxHistoryMessages bounds the conversation history sent to the model.
	MaxHistoryMessages() int

	// ExecuteTool runs a named tool with JSON-encoded arguments.
	ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (any, error)
}

// RequestProcessor mutates the model request before generation.
type RequestProcessor interface {
	Name() string
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor inspects or mutates each model response chunk before it
// becomes an event.
type ResponseProcessor interface {
	Name() string
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
