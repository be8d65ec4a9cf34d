package tool

import (
	"github.com/agentweave/agentweave/core"
)

// ExitLoopTool signals the enclosing loop composer to stop iterating. An
// agent running inside a LoopAgent calls it when its completion condition is
// met; the escalation action rides the function response event up to the
// loop, which finishes the current iteration and then exits.
type ExitLoopTool struct{}

// NewExitLoopTool creates the loop termination tool.
func NewExitLoopTool() *ExitLoopTool { return &ExitLoopTool{} }

// Name implements Tool.
func (t *ExitLoopTool) Name() string { return "exit_loop" }

// Description implements Tool.
func (t *ExitLoopTool) Description() string {
	return "Exit the current refinement loop. Call this only when the task is complete and no further iterations are needed."
}

// Parameters implements Tool. The tool takes no arguments.
func (t *ExitLoopTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// Call marks the tool context for escalation and returns a structured
// acknowledgment for the model.
func (t *ExitLoopTool) Call(toolCtx *core.ToolContext, _ map[string]any) (any, error) {
	toolCtx.Escalate()

	return map[string]any{"status": "approved"}, nil
}
