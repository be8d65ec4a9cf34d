package tool

import (
	"fmt"

	"github.com/agentweave/agentweave/core"
)

// AgentTool exposes a whole agent as a callable tool, letting a coordinator
// agent delegate a sub-task to a specialist and receive its final answer as
// the tool result. The wrapped agent runs to completion inside the call; its
// state writes are forwarded so downstream agents can read them.
type AgentTool struct {
	agent core.Agent
}

// NewAgentTool wraps agent for use as a tool.
func NewAgentTool(agent core.Agent) *AgentTool {
	return &AgentTool{agent: agent}
}

// Name implements Tool. The wrapped agent's name is used verbatim so the
// coordinator's instructions can reference it.
func (t *AgentTool) Name() string { return t.agent.Name() }

// Description implements Tool.
func (t *AgentTool) Description() string { return t.agent.Description() }

// Parameters implements Tool.
func (t *AgentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"request": map[string]any{
				"type":        "string",
				"description": "The task or question to hand to the agent.",
			},
		},
		"required": []string{"request"},
	}
}

// Call runs the wrapped agent synchronously with the provided request as its
// user content and returns the agent's final response text.
func (t *AgentTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	request, _ := args["request"].(string)
	if request == "" {
		return nil, NewToolError(t.Name(), "request must be a non-empty string", CodeValidationError)
	}

	runCtx := toolCtx.InternalRunContext()

	childEmit := make(chan core.Event, 16)
	childResume := make(chan struct{}, 1)

	childCtx := runCtx.NewChildContext(childEmit, childResume, "")
	childCtx.UserContent = core.NewUserText(request)

	// Drain the child's events, forwarding state writes and capturing the
	// final response. Each event is acknowledged so the child never blocks.
	done := make(chan struct{})
	var finalText string

	go func() {
		defer close(done)

		for ev := range childEmit {
			for k, v := range ev.Actions.StateDelta {
				toolCtx.SetState(k, v)
			}

			if ev.IsFinalResponse() && ev.Content != nil {
				if text := ev.Content.Text(); text != "" {
					finalText = text
				}
			}

			// Only non-partial events expect an acknowledgment.
			if !ev.IsPartial() {
				select {
				case childResume <- struct{}{}:
				case <-runCtx.Done():
					return
				}
			}
		}
	}()

	err := t.agent.Run(childCtx)

	close(childEmit)
	<-done

	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("delegated agent failed: %v", err), CodeExecutionError)
	}

	return map[string]any{"response": finalText}, nil
}
