package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StateDelta(t *testing.T) {
	sess := NewSession("sess-1")

	sess.SetState("a", 1)
	sess.ApplyStateDelta(map[string]any{"b": 2, "a": 3})

	v, ok := sess.GetState("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	snap := sess.StateSnapshot()
	assert.Equal(t, map[string]any{"a": 3, "b": 2}, snap)

	// The snapshot is a copy.
	snap["c"] = 4
	_, ok = sess.GetState("c")
	assert.False(t, ok)
}

func TestSession_ConversationHistoryFiltering(t *testing.T) {
	sess := NewSession("sess-1")

	sess.AddEvent(NewUserMessageEvent("run-1", "question"))

	partial := NewMessageEvent("Writer", "an")
	p := true
	partial.Partial = &p
	sess.AddEvent(partial)

	sess.AddEvent(NewMessageEvent("Writer", "answer"))
	sess.AddEvent(NewEvent("run-1", "Writer")) // no content

	history := sess.GetConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "question", history[0].Text())
	assert.Equal(t, "answer", history[1].Text())

	// The unfiltered history still has everything.
	assert.Len(t, sess.GetEvents(), 4)
}

func TestSession_CloneIsIndependent(t *testing.T) {
	sess := NewSession("sess-1")
	sess.SetState("key", "original")
	sess.AddEvent(NewUserMessageEvent("run-1", "hi"))

	clone := sess.Clone()
	clone.SetState("key", "changed")
	clone.AddEvent(NewMessageEvent("Writer", "reply"))

	v, _ := sess.GetState("key")
	assert.Equal(t, "original", v)
	assert.Len(t, sess.GetEvents(), 1)
	assert.Len(t, clone.GetEvents(), 2)
}
