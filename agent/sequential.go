package agent

import (
	"fmt"

	"github.com/agentweave/agentweave/core"
)

// SequentialAgent runs its children one after another in declaration order.
// All children share the same RunContext, so state written by an earlier
// agent (via its output key or tools) is visible to every later one. The
// first child error stops the sequence.
type SequentialAgent struct {
	BaseAgent
	children []core.Agent
}

// NewSequentialAgent creates a sequential composer over the given children.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	s := &SequentialAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
	}
	_ = s.SetSubAgents(children...)

	return s
}

// Run implements core.Agent.
func (s *SequentialAgent) Run(runCtx *core.RunContext) error {
	for _, child := range s.children {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		default:
		}

		runCtx.LogDebug("sequential.step", "composer", s.Name(), "agent", child.Name())

		if err := child.Run(runCtx); err != nil {
			return fmt.Errorf("sequential execution failed at agent %s: %w", child.Name(), err)
		}
	}

	return nil
}
