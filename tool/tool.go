// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities with schema-validated arguments and uniform
// error handling.
package tool

import (
	"fmt"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/internal/util"
)

// Tool extends an agent with a callable capability. Implementations receive
// a ToolContext giving access to session state and flow-control actions
// (escalation), plus arguments already parsed from the model's JSON.
//
// Implementations should use snake_case names, describe themselves in terms
// the model can act on, and be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier used in function declarations.
	Name() string

	// Description is surfaced to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON-Schema-like map describing accepted
	// arguments.
	Parameters() map[string]any

	// Call executes the tool. Errors should be (or wrap) *ToolError.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError reports a schema/argument mismatch.
type ValidationError = util.ValidationError

// Error codes attached to ToolError by the built-in tools.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeExecutionError  = "EXECUTION_ERROR"
)

// ToolError is the uniform failure type for tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}

	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given tool name, message and code.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
