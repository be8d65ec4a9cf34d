package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolContext_SetStateDualWrite(t *testing.T) {
	runCtx, _ := newTestRunContext(t, make(chan Event, 1), nil)
	toolCtx := NewToolContext(runCtx, "call-1")

	toolCtx.SetState("result", "42")

	// Visible immediately through the run context.
	v, ok := runCtx.GetState("result")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	// And staged on the actions for the function response event.
	assert.Equal(t, "42", toolCtx.Actions().StateDelta["result"])
}

func TestToolContext_EscalateAppliesToEvent(t *testing.T) {
	runCtx, _ := newTestRunContext(t, make(chan Event, 1), nil)
	toolCtx := NewToolContext(runCtx, "call-1")

	toolCtx.SetState("status", "approved")
	toolCtx.Escalate()

	ev := NewFunctionResponseEvent("Writer", "call-1", "exit_loop", map[string]any{"status": "approved"}, nil)
	toolCtx.InternalApplyActions(&ev)

	assert.True(t, ev.IsEscalation())
	assert.Equal(t, "approved", ev.Actions.StateDelta["status"])
}

func TestToolContext_Identity(t *testing.T) {
	runCtx, _ := newTestRunContext(t, make(chan Event, 1), nil)
	toolCtx := NewToolContext(runCtx, "call-1")

	assert.Equal(t, "sess-1", toolCtx.SessionID())
	assert.Equal(t, "run-1", toolCtx.RunID())
	assert.Equal(t, "call-1", toolCtx.FunctionCallID())
	assert.Equal(t, "Writer", toolCtx.AgentName())
	require.NoError(t, toolCtx.Validate())

	invalid := NewToolContext(runCtx, "")
	assert.Error(t, invalid.Validate())
}
