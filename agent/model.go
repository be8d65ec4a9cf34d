package agent

import (
	"encoding/json"
	"fmt"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/flow"
	"github.com/agentweave/agentweave/model"
	"github.com/agentweave/agentweave/tool"
)

// ModelAgentOptions configures a ModelAgent. Use functional options with
// NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description           string
	Instruction           Instruction
	EnableStreaming       bool
	EnableFunctionCalling bool
	OutputKey             string
	MaxHistoryMessages    int
	Tools                 map[string]tool.Tool
}

// ModelAgent is the unit of work: a single model-backed agent defined by its
// instruction, model, tools and an optional output key under which its final
// response is saved to shared session state.
//
// Instructions may reference state written by earlier agents using {key}
// placeholders; substitution happens per model turn against the current
// session state.
//
// ModelAgent embeds BaseAgent for identity and hierarchy management and
// delegates each turn to a flow.BaseFlow.
type ModelAgent struct {
	BaseAgent
	llm                   model.Model
	instruction           Instruction
	tools                 map[string]tool.Tool
	enableFunctionCalling bool
	enableStreaming       bool
	outputKey             string
	maxHistoryMessages    int
}

// NewModelAgent creates a model-backed agent. Defaults: streaming and
// function calling enabled, 20-message history window, no output key.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:           NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		EnableStreaming:       true,
		EnableFunctionCalling: true,
		MaxHistoryMessages:    20,
		Tools:                 make(map[string]tool.Tool),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		BaseAgent:             NewBaseAgent(name),
		llm:                   llm,
		instruction:           opts.Instruction,
		enableStreaming:       opts.EnableStreaming,
		enableFunctionCalling: opts.EnableFunctionCalling,
		outputKey:             opts.OutputKey,
		maxHistoryMessages:    opts.MaxHistoryMessages,
		tools:                 opts.Tools,
	}

	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// RegisterTool adds a tool to the agent's capability set.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools at once.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// UnregisterTool removes a tool, reporting whether it was registered.
func (a *ModelAgent) UnregisterTool(name string) bool {
	if _, exists := a.tools[name]; exists {
		delete(a.tools, name)
		return true
	}
	return false
}

// HasTool reports whether a tool is registered.
func (a *ModelAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// GetName implements flow.FlowAgent.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM implements flow.FlowAgent.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools implements flow.FlowAgent, returning a copy of the registry.
func (a *ModelAgent) GetTools() map[string]tool.Tool {
	tools := make(map[string]tool.Tool, len(a.tools))
	for name, t := range a.tools {
		tools[name] = t
	}

	return tools
}

// IsFunctionCallingEnabled implements flow.FlowAgent.
func (a *ModelAgent) IsFunctionCallingEnabled() bool { return a.enableFunctionCalling }

// IsStreamingEnabled implements flow.FlowAgent.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// GetOutputKey implements flow.FlowAgent.
func (a *ModelAgent) GetOutputKey() string { return a.outputKey }

// MaxHistoryMessages implements flow.FlowAgent.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ResolveInstructions implements flow.FlowAgent.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// ExecuteTool implements flow.FlowAgent. It deserializes the JSON arguments
// and invokes the named tool.
func (a *ModelAgent) ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (any, error) {
	t, exists := a.tools[toolName]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", toolName)
	}

	argsMap := make(map[string]any)
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argsMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}

	return t.Call(toolCtx, argsMap)
}

// Run implements core.Agent. It executes one flow and streams its events to
// the parent context.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "run", runCtx.RunID)

	fl := flow.NewBaseFlow(a)

	eventChan, err := fl.Execute(runCtx)
	if err != nil {
		return fmt.Errorf("flow execution failed: %w", err)
	}

	var failure error

	for event := range eventChan {
		if event.ErrorMessage != nil && failure == nil {
			failure = fmt.Errorf("agent %s failed: %s", a.Name(), *event.ErrorMessage)
		}

		// EmitEvent stamps the branch label and merges any staged deltas.
		if err := runCtx.EmitEvent(event); err != nil {
			runCtx.LogWarn("agent.run.context_done", "agent", a.Name(), "error", err)
			return err
		}
	}

	runCtx.LogDebug("agent.run.complete", "agent", a.Name())

	return failure
}
