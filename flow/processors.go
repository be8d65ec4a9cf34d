package flow

import (
	"fmt"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/internal/util"
	"github.com/agentweave/agentweave/model"
)

// InstructionsProcessor resolves the agent's instruction and substitutes
// {key} placeholders from the combined session state and pending deltas.
// A placeholder without a matching state key fails the request; silent
// passthrough would hand the model a literal "{key}" and corrupt the run
// downstream.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates the instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name implements RequestProcessor.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest implements RequestProcessor.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	rendered, err := util.RenderTemplate(instructions, runCtx.StateSnapshot())
	if err != nil {
		return fmt.Errorf("agent %s: %w", agent.GetName(), err)
	}

	req.Instructions = rendered

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(rendered))

	return nil
}

// ContentsProcessor assembles the conversation sent to the model: the
// rendered instructions as a system turn followed by the most recent
// history, truncated to the agent's MaxHistoryMessages. The run's user
// content is appended as the closing user turn when it is not already part
// of the history; delegated agents receive their request on the run context
// rather than as a persisted session event.
type ContentsProcessor struct{}

// NewContentsProcessor creates the contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name implements RequestProcessor.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest implements RequestProcessor.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	contents := []core.Content{{
		Role:  "system",
		Parts: []core.Part{core.TextPart{Text: req.Instructions}},
	}}

	userText := runCtx.UserContent.Text()
	userInHistory := false

	if runCtx.Session != nil {
		events := runCtx.Session.GetConversationHistory()
		if limit := agent.MaxHistoryMessages(); limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}

		for _, ev := range events {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				if ev.Content.Role == "user" && ev.Content.Text() == userText {
					userInHistory = true
				}
				contents = append(contents, *ev.Content)
			}
		}
	}

	if !userInHistory && userText != "" {
		contents = append(contents, runCtx.UserContent)
	}

	req.Contents = contents

	return nil
}
