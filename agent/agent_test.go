package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAgent is a testify-backed core.Agent used across composer tests.
type MockAgent struct {
	mock.Mock
	BaseAgent
}

func NewMockAgent(name string) *MockAgent {
	return &MockAgent{BaseAgent: NewBaseAgent(name)}
}

func (m *MockAgent) Run(runCtx *core.RunContext) error {
	args := m.Called(runCtx)
	return args.Error(0)
}

// emittingAgent emits one assistant message per run, optionally staging a
// state delta, then performs the standard persistence handshake.
type emittingAgent struct {
	BaseAgent
	reply     string
	outputKey string

	mu       sync.Mutex
	runCount int
}

func newEmittingAgent(name, reply, outputKey string) *emittingAgent {
	return &emittingAgent{
		BaseAgent: NewBaseAgent(name),
		reply:     reply,
		outputKey: outputKey,
	}
}

func (a *emittingAgent) GetOutputKey() string { return a.outputKey }

func (a *emittingAgent) RunCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runCount
}

func (a *emittingAgent) Run(runCtx *core.RunContext) error {
	a.mu.Lock()
	a.runCount++
	a.mu.Unlock()

	ev := core.NewMessageEvent(a.Name(), a.reply)
	ev.RunID = runCtx.RunID

	if a.outputKey != "" {
		ev.Actions.StateDelta = map[string]any{a.outputKey: a.reply}
	}

	if err := runCtx.EmitEvent(ev); err != nil {
		return err
	}

	return runCtx.WaitForResume()
}

// eventRecorder plays the runner's role in composer tests: it collects
// emitted events, applies state deltas to the shared session and sends the
// resume signal for every non-partial event.
type eventRecorder struct {
	emit   chan core.Event
	resume chan struct{}
	sess   *core.Session

	mu     sync.Mutex
	events []core.Event
	wg     sync.WaitGroup
}

func newEventRecorder(sess *core.Session) *eventRecorder {
	r := &eventRecorder{
		emit:   make(chan core.Event, 100),
		resume: make(chan struct{}, 100),
		sess:   sess,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for ev := range r.emit {
			if r.sess != nil && len(ev.Actions.StateDelta) > 0 {
				r.sess.ApplyStateDelta(ev.Actions.StateDelta)
			}

			r.mu.Lock()
			r.events = append(r.events, ev)
			r.mu.Unlock()

			if !ev.IsPartial() {
				r.resume <- struct{}{}
			}
		}
	}()

	return r
}

func (r *eventRecorder) Stop() {
	close(r.emit)
	r.wg.Wait()
}

func (r *eventRecorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Event, len(r.events))
	copy(out, r.events)
	return out
}

func newTestRunContext(agentName, agentType string, rec *eventRecorder) *core.RunContext {
	return core.NewRunContext(
		context.Background(),
		"test-session", "test-run",
		core.AgentInfo{Name: agentName, Type: agentType},
		core.NewUserText("test input"),
		0,
		rec.emit, rec.resume,
		rec.sess, nil,
		logging.NoOpLogger{},
	)
}

func TestBaseAgent_Hierarchy(t *testing.T) {
	parent := NewMockAgent("Parent")
	child1 := NewMockAgent("Child1")
	child2 := NewMockAgent("Child2")

	err := parent.SetSubAgents(child1, child2)
	assert.NoError(t, err)

	subs := parent.SubAgents()
	assert.Len(t, subs, 2)
	assert.NotNil(t, child1.Parent())
	assert.Equal(t, "Parent", child1.Parent().Name())

	// Depth-first lookup finds nested agents.
	grandchild := NewMockAgent("Grandchild")
	assert.NoError(t, child2.SetSubAgents(grandchild))
	found := parent.FindAgent("Grandchild")
	assert.NotNil(t, found)
	assert.Equal(t, "Grandchild", found.Name())

	assert.Nil(t, parent.FindAgent("Nobody"))
}

func TestBaseAgent_SetSubAgentsDetachesPrevious(t *testing.T) {
	parent := NewMockAgent("Parent")
	old := NewMockAgent("Old")

	assert.NoError(t, parent.SetSubAgents(old))
	assert.NoError(t, parent.SetSubAgents(NewMockAgent("New")))

	assert.Nil(t, old.Parent())
}

func TestBaseAgent_Description(t *testing.T) {
	a := NewMockAgent("Writer")
	assert.Equal(t, "Agent Writer", a.Description())

	a.SetDescription("Writes blog posts.")
	assert.Equal(t, "Writes blog posts.", a.Description())
}

func TestInstruction_Resolve(t *testing.T) {
	static := NewInstructionFromText("You are a critic.")
	assert.True(t, static.IsStatic())

	text, err := static.Resolve(nil)
	assert.NoError(t, err)
	assert.Equal(t, "You are a critic.", text)

	dynamic := NewInstructionFromFunc(func(_ *core.RunContext) (string, error) {
		return "generated at " + time.Now().Format("2006"), nil
	})
	assert.False(t, dynamic.IsStatic())

	text, err = dynamic.Resolve(nil)
	assert.NoError(t, err)
	assert.Contains(t, text, "generated at")
}

func TestBuildBranchPath(t *testing.T) {
	assert.Equal(t, "child", buildBranchPath("", "child"))
	assert.Equal(t, "parent", buildBranchPath("parent", ""))
	assert.Equal(t, "parent.child", buildBranchPath("parent", "child"))
}
