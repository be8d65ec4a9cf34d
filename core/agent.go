package core

// Agent is the interface every execution unit implements, from single
// model-backed agents to the sequential/parallel/loop composers.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Handle the resume handshake after non-partial events
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
}

// AgentInfo carries identifying details about an agent used in contexts and
// events. Type categorizes the implementation (e.g. "model", "sequential").
type AgentInfo struct{ Name, Type string }
