package agent

import (
	"testing"

	"github.com/agentweave/agentweave/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParallelAgent(t *testing.T) {
	child1 := NewMockAgent("Child1")
	child2 := NewMockAgent("Child2")

	par := NewParallelAgent("Fanout", child1, child2)

	assert.Equal(t, "Fanout", par.Name())
	assert.Len(t, par.children, 2)
	assert.Equal(t, "Fanout", child1.Parent().Name())
}

func TestParallelAgent_AllChildrenRunToCompletion(t *testing.T) {
	tech := newEmittingAgent("TechAgent", "tech findings", "tech_summary")
	health := newEmittingAgent("HealthAgent", "health findings", "health_summary")
	finance := newEmittingAgent("FinanceAgent", "finance findings", "finance_summary")

	par := NewParallelAgent("ResearchFanout", tech, health, finance)

	sess := core.NewSession("test-session")
	rec := newEventRecorder(sess)
	runCtx := newTestRunContext("ResearchFanout", "parallel", rec)

	require.NoError(t, par.Run(runCtx))
	rec.Stop()

	// Barrier: by the time Run returns, every child has run and every
	// distinct output key is present.
	assert.Equal(t, 1, tech.RunCount())
	assert.Equal(t, 1, health.RunCount())
	assert.Equal(t, 1, finance.RunCount())

	for key, want := range map[string]string{
		"tech_summary":    "tech findings",
		"health_summary":  "health findings",
		"finance_summary": "finance findings",
	} {
		v, ok := sess.GetState(key)
		require.True(t, ok, "missing state key %s", key)
		assert.Equal(t, want, v)
	}

	assert.Len(t, rec.Events(), 3)
}

func TestParallelAgent_BranchIsolation(t *testing.T) {
	a := newEmittingAgent("A", "from a", "a_out")
	b := newEmittingAgent("B", "from b", "b_out")

	par := NewParallelAgent("Fanout", a, b)

	rec := newEventRecorder(core.NewSession("test-session"))
	runCtx := newTestRunContext("Fanout", "parallel", rec)

	require.NoError(t, par.Run(runCtx))
	rec.Stop()

	branches := map[string]bool{}
	for _, ev := range rec.Events() {
		require.NotNil(t, ev.Branch, "parallel events must carry a branch label")
		branches[*ev.Branch] = true
	}

	assert.True(t, branches["Fanout.A"])
	assert.True(t, branches["Fanout.B"])
}

func TestParallelAgent_FirstErrorReturnedAfterBarrier(t *testing.T) {
	ok1 := newEmittingAgent("Ok1", "fine", "")
	ok2 := newEmittingAgent("Ok2", "fine", "")

	failing := &failingAgent{BaseAgent: NewBaseAgent("Boom")}

	par := NewParallelAgent("Fanout", ok1, failing, ok2)

	rec := newEventRecorder(core.NewSession("test-session"))
	runCtx := newTestRunContext("Fanout", "parallel", rec)

	err := par.Run(runCtx)
	rec.Stop()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Boom")

	// Siblings still completed; a failing branch does not cancel them.
	assert.Equal(t, 1, ok1.RunCount())
	assert.Equal(t, 1, ok2.RunCount())
}

func TestParallelAgent_RejectsDuplicateOutputKeys(t *testing.T) {
	a := newEmittingAgent("TechAgent", "tech findings", "summary")
	b := newEmittingAgent("HealthAgent", "health findings", "summary")

	par := NewParallelAgent("Fanout", a, b)

	rec := newEventRecorder(core.NewSession("test-session"))
	defer rec.Stop()

	err := par.Run(newTestRunContext("Fanout", "parallel", rec))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `share output key "summary"`)

	// The composition is rejected before any child starts.
	assert.Equal(t, 0, a.RunCount())
	assert.Equal(t, 0, b.RunCount())
}

func TestParallelAgent_NoChildren(t *testing.T) {
	par := NewParallelAgent("Empty")

	rec := newEventRecorder(core.NewSession("test-session"))
	defer rec.Stop()

	assert.NoError(t, par.Run(newTestRunContext("Empty", "parallel", rec)))
}

type failingAgent struct {
	BaseAgent
}

func (a *failingAgent) Run(_ *core.RunContext) error {
	return assert.AnError
}
