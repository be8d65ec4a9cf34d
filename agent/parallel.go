package agent

import (
	"fmt"
	"sync"

	"github.com/agentweave/agentweave/core"
)

// ParallelAgent runs its children concurrently, each in an isolated branch
// context so their staged state never interleaves mid-run. Children must
// write to distinct output keys; Run rejects the composition otherwise,
// since siblings merge into shared state by key and a shared key would
// race. Run acts as a barrier: it returns only after every child has
// finished, with the first error encountered (siblings are not cancelled
// when one fails).
type ParallelAgent struct {
	BaseAgent
	children []core.Agent
}

// NewParallelAgent creates a parallel composer over the given children.
func NewParallelAgent(name string, children ...core.Agent) *ParallelAgent {
	p := &ParallelAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
	}
	_ = p.SetSubAgents(children...)

	return p
}

// Run implements core.Agent.
func (p *ParallelAgent) Run(runCtx *core.RunContext) error {
	if err := p.validateOutputKeys(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(p.children))

	// Serializes the emit+resume handshake so each forwarded event is
	// persisted before the owning child continues.
	var emitMu sync.Mutex

	for _, child := range p.children {
		wg.Add(1)

		go func(c core.Agent) {
			defer wg.Done()

			branch := buildBranchPath(runCtx.Branch, fmt.Sprintf("%s.%s", p.Name(), c.Name()))

			childEmit := make(chan core.Event, 16)
			childResume := make(chan struct{}, 1)
			childCtx := runCtx.NewChildContext(childEmit, childResume, branch)

			done := make(chan error, 1)
			go func() {
				done <- c.Run(childCtx)
				close(childEmit)
			}()

			if err := p.forwardChildEvents(runCtx, childEmit, childResume, &emitMu); err != nil {
				errCh <- err
				<-done
				return
			}

			if err := <-done; err != nil {
				errCh <- fmt.Errorf("parallel execution failed for agent %s: %w", c.Name(), err)
			}
		}(child)
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return err
	}

	return nil
}

// validateOutputKeys rejects two children publishing the same non-empty
// output key before any child starts.
func (p *ParallelAgent) validateOutputKeys() error {
	seen := make(map[string]string, len(p.children))

	for _, child := range p.children {
		keyed, ok := child.(interface{ GetOutputKey() string })
		if !ok {
			continue
		}

		key := keyed.GetOutputKey()
		if key == "" {
			continue
		}

		if owner, dup := seen[key]; dup {
			return fmt.Errorf("parallel agent %s: children %s and %s share output key %q", p.Name(), owner, child.Name(), key)
		}
		seen[key] = child.Name()
	}

	return nil
}

// forwardChildEvents relays a child's events to the parent emit channel,
// completing the persistence handshake for each non-partial event before
// resuming the child.
func (p *ParallelAgent) forwardChildEvents(
	runCtx *core.RunContext,
	childEmit <-chan core.Event,
	childResume chan<- struct{},
	emitMu *sync.Mutex,
) error {
	for ev := range childEmit {
		emitMu.Lock()

		select {
		case runCtx.Emit <- ev:
		case <-runCtx.Done():
			emitMu.Unlock()
			return runCtx.Err()
		}

		if !ev.IsPartial() && runCtx.Resume != nil {
			select {
			case <-runCtx.Resume:
			case <-runCtx.Done():
				emitMu.Unlock()
				return runCtx.Err()
			}
		}

		emitMu.Unlock()

		// The child only waits for acknowledgment of non-partial events.
		if !ev.IsPartial() {
			select {
			case childResume <- struct{}{}:
			case <-runCtx.Done():
				return runCtx.Err()
			}
		}
	}

	return nil
}
