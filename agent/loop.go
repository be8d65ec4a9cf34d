package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/agentweave/agentweave/core"
)

// ErrEscalated reports that a child agent signaled loop termination. It is
// consumed inside LoopAgent.Run and never escapes to callers.
var ErrEscalated = errors.New("child agent escalated")

// LoopAgent repeatedly runs its body agents in order until one of them
// escalates (typically via the exit_loop tool) or the iteration cap is
// reached. All iterations share the same RunContext, so refinement state
// accumulates across passes.
//
// Escalation ends the loop after the escalating agent finishes its current
// run; remaining body agents in that iteration are skipped. Reaching the
// iteration cap without escalation is not an error: the loop simply stops
// with whatever state the final iteration produced.
type LoopAgent struct {
	BaseAgent
	children      []core.Agent
	maxIterations int
	interval      time.Duration
}

// LoopOption customizes LoopAgent behavior.
type LoopOption func(*LoopAgent)

// WithMaxIterations caps the number of loop passes. The cap is the safety
// net against runaway refinement; keep it small for model-driven loops.
func WithMaxIterations(n int) LoopOption {
	return func(l *LoopAgent) { l.maxIterations = n }
}

// WithInterval inserts a delay between iterations, useful for polling
// scenarios.
func WithInterval(d time.Duration) LoopOption {
	return func(l *LoopAgent) { l.interval = d }
}

// NewLoopAgent creates a loop composer over the given body agents.
// Default: at most 10 iterations, no inter-iteration delay.
func NewLoopAgent(name string, children []core.Agent, opts ...LoopOption) *LoopAgent {
	l := &LoopAgent{
		BaseAgent:     NewBaseAgent(name),
		children:      children,
		maxIterations: 10,
	}

	for _, o := range opts {
		o(l)
	}

	_ = l.SetSubAgents(children...)

	return l
}

// MaxIterations returns the configured iteration cap.
func (l *LoopAgent) MaxIterations() int { return l.maxIterations }

// Run implements core.Agent.
func (l *LoopAgent) Run(runCtx *core.RunContext) error {
	for i := 0; i < l.maxIterations; i++ {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		default:
		}

		runCtx.LogDebug("loop.iteration.start", "composer", l.Name(), "iteration", i+1)

		for _, child := range l.children {
			err := l.runChildWithEscalationMonitoring(runCtx, child)

			if errors.Is(err, ErrEscalated) {
				runCtx.LogInfo("loop.escalated", "composer", l.Name(), "agent", child.Name(), "iteration", i+1)
				return nil
			}

			if err != nil {
				return fmt.Errorf("loop iteration %d failed for agent %s: %w", i+1, child.Name(), err)
			}
		}

		if l.interval > 0 && i < l.maxIterations-1 {
			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case <-time.After(l.interval):
			}
		}
	}

	runCtx.LogInfo("loop.exhausted", "composer", l.Name(), "iterations", l.maxIterations)

	return nil
}

// runChildWithEscalationMonitoring runs one body agent, routing its events
// through an intercept channel to detect escalation flags before forwarding
// to the parent context.
func (l *LoopAgent) runChildWithEscalationMonitoring(runCtx *core.RunContext, child core.Agent) error {
	interceptChan := make(chan core.Event, 16)
	resumeChan := make(chan struct{}, 1)
	childCtx := runCtx.NewChildContext(interceptChan, resumeChan, runCtx.Branch)

	done := make(chan error, 1)
	go func() {
		done <- child.Run(childCtx)
		close(interceptChan)
	}()

	escalated := false

	for ev := range interceptChan {
		if ev.IsEscalation() {
			escalated = true
		}

		select {
		case runCtx.Emit <- ev:
		case <-runCtx.Done():
			<-done
			return runCtx.Err()
		}

		if !ev.IsPartial() {
			// Complete the persistence handshake with the runner, then
			// release the child.
			if runCtx.Resume != nil {
				select {
				case <-runCtx.Resume:
				case <-runCtx.Done():
					<-done
					return runCtx.Err()
				}
			}

			select {
			case resumeChan <- struct{}{}:
			case <-runCtx.Done():
				<-done
				return runCtx.Err()
			}
		}
	}

	if err := <-done; err != nil {
		return err
	}

	if escalated {
		return ErrEscalated
	}

	return nil
}
