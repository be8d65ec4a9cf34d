package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentweave/agentweave/logging"
)

// fakeStore is a single-session SessionStore for context tests.
type fakeStore struct {
	sess *Session
}

func (s *fakeStore) Create(id string) (*Session, error) { return s.sess, nil }

func (s *fakeStore) Get(id string) (*Session, error) {
	if s.sess == nil || s.sess.ID != id {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return s.sess.Clone(), nil
}

func (s *fakeStore) AppendEvent(sessionID string, event Event) error {
	s.sess.AddEvent(event)
	return nil
}

func (s *fakeStore) ApplyDelta(sessionID string, delta map[string]any) error {
	s.sess.ApplyStateDelta(delta)
	return nil
}

func newTestRunContext(t *testing.T, emit chan Event, resume chan struct{}) (*RunContext, *fakeStore) {
	t.Helper()

	sess := NewSession("sess-1")
	store := &fakeStore{sess: sess}

	runCtx := NewRunContext(
		context.Background(),
		"sess-1",
		"run-1",
		AgentInfo{Name: "Writer", Type: "model"},
		NewUserText("hi"),
		10,
		emit,
		resume,
		sess,
		store,
		logging.NoOpLogger{},
	)

	return runCtx, store
}

func TestRunContext_StateDeltaShadowsSession(t *testing.T) {
	runCtx, _ := newTestRunContext(t, make(chan Event, 1), nil)

	runCtx.Session.SetState("key", "persisted")

	v, ok := runCtx.GetState("key")
	require.True(t, ok)
	assert.Equal(t, "persisted", v)

	runCtx.SetState("key", "staged")

	v, _ = runCtx.GetState("key")
	assert.Equal(t, "staged", v)

	snap := runCtx.StateSnapshot()
	assert.Equal(t, "staged", snap["key"])
}

func TestRunContext_EmitEventMergesAndClearsDelta(t *testing.T) {
	emit := make(chan Event, 1)
	runCtx, _ := newTestRunContext(t, emit, nil)
	runCtx.Branch = "Parent.Child"

	runCtx.SetState("answer", "42")

	require.NoError(t, runCtx.EmitEvent(NewMessageEvent("Writer", "42")))

	ev := <-emit
	assert.Equal(t, "42", ev.Actions.StateDelta["answer"])
	require.NotNil(t, ev.Branch)
	assert.Equal(t, "Parent.Child", *ev.Branch)

	// The buffer was flushed into the event.
	assert.Empty(t, runCtx.StateDelta)
}

func TestRunContext_CommitAndRefresh(t *testing.T) {
	runCtx, store := newTestRunContext(t, make(chan Event, 1), nil)

	runCtx.SetState("outline", "1. Intro")
	require.NoError(t, runCtx.CommitStateDelta())

	v, ok := store.sess.GetState("outline")
	require.True(t, ok)
	assert.Equal(t, "1. Intro", v)
	assert.Empty(t, runCtx.StateDelta)

	// RefreshSession picks up writes made by other agents.
	store.sess.SetState("draft", "text")
	require.NoError(t, runCtx.RefreshSession())

	v, ok = runCtx.GetState("draft")
	require.True(t, ok)
	assert.Equal(t, "text", v)
}

func TestRunContext_ChildContextIsolation(t *testing.T) {
	runCtx, _ := newTestRunContext(t, make(chan Event, 1), nil)
	runCtx.SetState("parent_key", "v")

	childEmit := make(chan Event, 1)
	childResume := make(chan struct{}, 1)
	child := runCtx.NewChildContext(childEmit, childResume, "Parent.Child")

	// Fresh delta buffer, shared session, overridden branch.
	assert.Empty(t, child.StateDelta)
	assert.Equal(t, "Parent.Child", child.Branch)
	assert.Same(t, runCtx.Session, child.Session)

	child.SetState("child_key", "w")
	_, ok := runCtx.StateDelta["child_key"]
	assert.False(t, ok)
}

func TestRunContext_CloneCopiesDelta(t *testing.T) {
	runCtx, _ := newTestRunContext(t, make(chan Event, 1), nil)
	runCtx.SetState("key", "v")

	clone := runCtx.Clone()
	assert.Equal(t, "v", clone.StateDelta["key"])

	clone.SetState("key", "w")
	assert.Equal(t, "v", runCtx.StateDelta["key"])
}

func TestRunContext_WaitForResume(t *testing.T) {
	// A nil resume channel never blocks.
	runCtx, _ := newTestRunContext(t, make(chan Event, 1), nil)
	require.NoError(t, runCtx.WaitForResume())

	resume := make(chan struct{}, 1)
	runCtx, _ = newTestRunContext(t, make(chan Event, 1), resume)
	resume <- struct{}{}
	require.NoError(t, runCtx.WaitForResume())

	// Cancellation unblocks the wait.
	ctx, cancel := context.WithCancel(context.Background())
	runCtx.Context = ctx
	cancel()
	assert.Error(t, runCtx.WaitForResume())
}
