// Package agent provides the agent implementations: the model-backed
// UnitAgent plus the Sequential, Parallel and Loop composers that combine
// agents into pipelines, fan-outs and refinement loops.
package agent

import (
	"fmt"
	"sync"

	"github.com/agentweave/agentweave/core"
)

// BaseAgent bundles identity and hierarchy management shared by all agent
// implementations. Embed it and supply a Run method to satisfy core.Agent.
// Exported methods are goroutine-safe.
type BaseAgent struct {
	name        string
	description string
	mu          sync.Mutex
	parent      core.Agent
	subAgents   []core.Agent
}

// NewBaseAgent constructs a BaseAgent with a generated description,
// customizable via SetDescription.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// SetSubAgents atomically replaces the child agent set, detaching previous
// children and assigning this agent as parent of each new child. A child has
// at most one parent.
func (b *BaseAgent) SetSubAgents(children ...core.Agent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, child := range b.subAgents {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(nil)
		}
	}
	b.subAgents = nil

	for _, child := range children {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(&agentWrapper{b})
		}
		b.subAgents = append(b.subAgents, child)
	}

	return nil
}

func (b *BaseAgent) setParent(p core.Agent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = p
}

// Parent returns the parent agent, or nil for a root agent.
func (b *BaseAgent) Parent() core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// SubAgents returns a copy of the child agent list for safe iteration.
func (b *BaseAgent) SubAgents() []core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]core.Agent, len(b.subAgents))
	copy(result, b.subAgents)
	return result
}

// FindAgent performs a depth-first search over the subtree rooted at this
// agent (including itself), returning the first agent whose name matches or
// nil if none does.
func (b *BaseAgent) FindAgent(name string) core.Agent {
	if b.name == name {
		return &agentWrapper{b}
	}

	for _, child := range b.SubAgents() {
		if child.Name() == name {
			return child
		}
		if found := child.FindAgent(name); found != nil {
			return found
		}
	}

	return nil
}

// agentWrapper lets a bare BaseAgent satisfy core.Agent for hierarchy
// references.
type agentWrapper struct{ *BaseAgent }

func (w *agentWrapper) Run(_ *core.RunContext) error {
	return fmt.Errorf("cannot execute BaseAgent directly - embed it in a concrete agent with a Run implementation")
}
