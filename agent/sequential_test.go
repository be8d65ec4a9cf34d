package agent

import (
	"testing"

	"github.com/agentweave/agentweave/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewSequentialAgent(t *testing.T) {
	child1 := NewMockAgent("Child1")
	child2 := NewMockAgent("Child2")

	seq := NewSequentialAgent("Pipeline", child1, child2)

	assert.Equal(t, "Pipeline", seq.Name())
	assert.Len(t, seq.children, 2)
	assert.Equal(t, "Pipeline", child1.Parent().Name())
}

func TestSequentialAgent_Run_Success(t *testing.T) {
	child1 := NewMockAgent("Child1")
	child2 := NewMockAgent("Child2")
	child3 := NewMockAgent("Child3")

	seq := NewSequentialAgent("Pipeline", child1, child2, child3)

	rec := newEventRecorder(core.NewSession("test-session"))
	defer rec.Stop()
	runCtx := newTestRunContext("Pipeline", "sequential", rec)

	child1.On("Run", runCtx).Return(nil)
	child2.On("Run", runCtx).Return(nil)
	child3.On("Run", runCtx).Return(nil)

	err := seq.Run(runCtx)

	assert.NoError(t, err)
	child1.AssertExpectations(t)
	child2.AssertExpectations(t)
	child3.AssertExpectations(t)
}

func TestSequentialAgent_Run_FirstChildErrorStopsSequence(t *testing.T) {
	child1 := NewMockAgent("Child1")
	child2 := NewMockAgent("Child2")

	seq := NewSequentialAgent("Pipeline", child1, child2)

	rec := newEventRecorder(core.NewSession("test-session"))
	defer rec.Stop()
	runCtx := newTestRunContext("Pipeline", "sequential", rec)

	child1.On("Run", runCtx).Return(assert.AnError)

	err := seq.Run(runCtx)

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "Child1")
	child1.AssertExpectations(t)
	child2.AssertNotCalled(t, "Run", mock.Anything)
}

func TestSequentialAgent_Run_NoChildren(t *testing.T) {
	seq := NewSequentialAgent("Empty")

	rec := newEventRecorder(core.NewSession("test-session"))
	defer rec.Stop()

	assert.NoError(t, seq.Run(newTestRunContext("Empty", "sequential", rec)))
}

func TestSequentialAgent_SharedContextPropagation(t *testing.T) {
	child1 := NewMockAgent("Child1")
	child2 := NewMockAgent("Child2")

	seq := NewSequentialAgent("Pipeline", child1, child2)

	rec := newEventRecorder(core.NewSession("test-session"))
	defer rec.Stop()
	runCtx := newTestRunContext("Pipeline", "sequential", rec)

	sameCtx := mock.MatchedBy(func(ctx *core.RunContext) bool { return ctx == runCtx })
	child1.On("Run", sameCtx).Return(nil)
	child2.On("Run", sameCtx).Return(nil)

	assert.NoError(t, seq.Run(runCtx))
	child1.AssertExpectations(t)
	child2.AssertExpectations(t)
}

func TestSequentialAgent_StateFlowsToLaterChildren(t *testing.T) {
	writer := newEmittingAgent("Outliner", "1. Intro\n2. Body", "blog_outline")

	var seen any
	reader := &readerAgent{BaseAgent: NewBaseAgent("Drafter"), key: "blog_outline", got: &seen}

	seq := NewSequentialAgent("BlogPipeline", writer, reader)

	rec := newEventRecorder(core.NewSession("test-session"))
	defer rec.Stop()
	runCtx := newTestRunContext("BlogPipeline", "sequential", rec)

	require.NoError(t, seq.Run(runCtx))
	assert.Equal(t, "1. Intro\n2. Body", seen)
}

// readerAgent captures a session state value at run time.
type readerAgent struct {
	BaseAgent
	key string
	got *any
}

func (a *readerAgent) Run(runCtx *core.RunContext) error {
	if v, ok := runCtx.GetState(a.key); ok {
		*a.got = v
	}
	return nil
}
