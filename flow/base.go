package flow

import (
	"fmt"
	"time"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/model"
)

// BaseFlow implements a single-agent request -> model -> tool cycle with
// pluggable request and response processors.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// NewBaseFlow creates a flow for the given agent with the standard
// instructions and contents processors preinstalled.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent: agent,
		requestProcessors: []RequestProcessor{
			NewInstructionsProcessor(),
			NewContentsProcessor(),
		},
	}
}

// AddRequestProcessor appends a request processor; registration order is
// execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor applied to every model
// chunk before it becomes an event.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// Execute implements Flow. Model turns repeat as long as the previous turn
// ended in tool responses, so the model can react to tool results. An
// escalating tool response ends the flow without another turn.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, error) {
	eventChan := make(chan core.Event, 100)

	go func() {
		defer close(eventChan)

		for {
			last := f.runOnce(runCtx, eventChan)
			if last == nil {
				return
			}

			if last.IsEscalation() {
				return
			}

			if len(last.GetFunctionResponses()) > 0 {
				continue
			}

			return
		}
	}()

	return eventChan, nil
}

// emitError surfaces an internal failure as a system error event.
func (f *BaseFlow) emitError(runCtx *core.RunContext, eventChan chan<- core.Event, err error) {
	runCtx.LogError("flow.error", "agent", f.agent.GetName(), "error", err.Error())

	ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
	msg := err.Error()
	ev.ErrorMessage = &msg

	if code, ok := model.StatusCode(err); ok {
		c := fmt.Sprintf("%d", code)
		ev.ErrorCode = &c
	}

	eventChan <- ev
}

// runOnce performs one model turn including tool executions and returns the
// last emitted event. A nil return signals termination.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) *core.Event {
	// Reload the session so processors see state and history committed by
	// earlier turns and sibling agents.
	if runCtx.SessionStore != nil {
		if err := runCtx.RefreshSession(); err != nil {
			f.emitError(runCtx, eventChan, fmt.Errorf("session refresh failed: %w", err))
			return nil
		}
	}

	req := &model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			f.emitError(runCtx, eventChan, fmt.Errorf("request processor %s failed: %w", processor.Name(), err))
			return nil
		}
	}

	if f.agent.IsFunctionCallingEnabled() {
		tools := f.agent.GetTools()
		if len(tools) > 0 {
			defs := make([]model.ToolDefinition, 0, len(tools))
			for _, t := range tools {
				defs = append(defs, model.ToolDefinition{
					Type: "function",
					Function: model.FunctionDefinition{
						Name:        t.Name(),
						Description: t.Description(),
						Parameters:  t.Parameters(),
					},
				})
			}

			req.Tools = defs
		}
	}

	if runCtx.Limiter != nil {
		if err := runCtx.Limiter.Increment(); err != nil {
			f.emitError(runCtx, eventChan, err)
			return nil
		}
	}

	respCh, errCh := f.agent.GetLLM().Generate(runCtx.Context, *req)

	var lastEvent *core.Event

	// Drain both channels fully; the error channel can close before the
	// final buffered response is consumed.
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}

			for _, processor := range f.responseProcessors {
				if err := processor.ProcessResponse(runCtx, &resp, f.agent); err != nil {
					f.emitError(runCtx, eventChan, fmt.Errorf("response processor %s failed: %w", processor.Name(), err))
					return nil
				}
			}

			ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
			ev.Content = &resp.Content
			ev.Partial = &resp.Partial

			if !resp.Partial && len(ev.GetFunctionCalls()) == 0 {
				complete := true
				ev.TurnComplete = &complete

				// Persist the final text under the agent's output key so
				// downstream agents can template it.
				if key := f.agent.GetOutputKey(); key != "" {
					if text := resp.Content.Text(); text != "" {
						if ev.Actions.StateDelta == nil {
							ev.Actions.StateDelta = map[string]any{}
						}
						ev.Actions.StateDelta[key] = text
					}
				}
			}

			lastEvent = &ev
			eventChan <- ev

			// Non-partial events are persisted by the runner; wait for the
			// resume signal before continuing.
			if !ev.IsPartial() && runCtx.Resume != nil {
				select {
				case <-runCtx.Context.Done():
					return lastEvent
				case <-runCtx.Resume:
				}
			}

			for _, fnCall := range ev.GetFunctionCalls() {
				toolCtx := core.NewToolContext(runCtx, fnCall.ID)

				start := time.Now()
				result, err := f.agent.ExecuteTool(toolCtx, fnCall.Name, fnCall.Arguments)

				runCtx.LogInfo("agent.tool.executed",
					"agent", f.agent.GetName(),
					"tool", fnCall.Name,
					"duration_ms", time.Since(start).Milliseconds(),
					"error", err != nil,
				)

				respEv := core.NewFunctionResponseEvent(f.agent.GetName(), fnCall.ID, fnCall.Name, result, err)
				respEv.RunID = runCtx.RunID

				// Carry tool state writes and escalation on the response
				// event so they reach the session and any enclosing loop.
				toolCtx.InternalApplyActions(&respEv)

				lastEvent = &respEv
				eventChan <- respEv

				if runCtx.Resume != nil {
					select {
					case <-runCtx.Context.Done():
						return lastEvent
					case <-runCtx.Resume:
					}
				}
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				f.emitError(runCtx, eventChan, fmt.Errorf("model generation failed: %w", err))
				return nil
			}
		}
	}

	return lastEvent
}
