// Package runner coordinates agent execution: it creates run contexts,
// streams events to the caller, applies event side effects to the session
// store and persists history. Public methods are safe for concurrent use.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/internal/util"
	"github.com/agentweave/agentweave/logging"
	"github.com/agentweave/agentweave/session"
)

// RunRecorder receives run lifecycle observations. Implemented by the
// metrics package; a nil recorder disables recording.
type RunRecorder interface {
	RunStarted(agentName string)
	RunFinished(agentName string, duration time.Duration, err error)
}

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// EventBufferSize sets channel buffering for event delivery.
	EventBufferSize int
	// MaxModelCalls caps model calls per run as a runaway guard.
	MaxModelCalls int
	// SessionStore persists state and event history.
	SessionStore core.SessionStore
	// Logger receives structured run diagnostics.
	Logger logging.Logger
	// Recorder receives run lifecycle metrics.
	Recorder RunRecorder
}

// Runner executes a root agent against sessions.
type Runner struct {
	agent core.Agent

	eventBufferSize int
	maxModelCalls   int

	sessionStore core.SessionStore
	logger       logging.Logger
	recorder     RunRecorder

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner for the given root agent with optional overrides.
// Defaults: in-memory sessions, 100-event buffers, 100 model calls per run.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		MaxModelCalls:   100,
		SessionStore:    session.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		maxModelCalls:   opts.MaxModelCalls,
		sessionStore:    opts.SessionStore,
		logger:          opts.Logger,
		recorder:        opts.Recorder,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// SessionStore exposes the configured store, mainly for inspection in
// callers that need direct access to persisted state.
func (r *Runner) SessionStore() core.SessionStore { return r.sessionStore }

// Run starts an asynchronous run of the root agent. It returns the run ID,
// a channel streaming all events of the run and a channel carrying at most
// one terminal error. Both channels close when the run finishes.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	runID := util.NewID()

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)
	resumeCh := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	runCtx := core.NewRunContext(
		ctx,
		sessionID,
		runID,
		core.AgentInfo{Name: r.agent.Name(), Type: "root"},
		userContent,
		r.maxModelCalls,
		agentEmit,
		resumeCh,
		sess,
		r.sessionStore,
		r.logger,
	)

	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		cancel()
		r.removeRun(runID)
		return "", nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}

	go func() {
		defer func() {
			close(agentEmit)
			r.removeRun(runID)
		}()

		if err := r.runAgent(runCtx); err != nil {
			select {
			case <-runCtx.Done():
			case errorsCh <- fmt.Errorf("agent execution failed: %w", err):
			}
		}
	}()

	go func() {
		defer func() { close(eventsCh); close(errorsCh) }()

		r.processEvents(runCtx, sessionID, agentEmit, resumeCh, eventsCh, errorsCh)
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel aborts a running run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

func (r *Runner) removeRun(runID string) {
	r.mu.Lock()
	delete(r.activeRuns, runID)
	r.mu.Unlock()
}

func (r *Runner) runAgent(runCtx *core.RunContext) error {
	r.logger.Info("runner.run.start", "agent", r.agent.Name(), "run", runCtx.RunID, "session", runCtx.SessionID)

	if r.recorder != nil {
		r.recorder.RunStarted(r.agent.Name())
	}

	start := time.Now()
	err := r.agent.Run(runCtx)

	if r.recorder != nil {
		r.recorder.RunFinished(r.agent.Name(), time.Since(start), err)
	}

	r.logger.Info("runner.run.finished",
		"agent", r.agent.Name(),
		"run", runCtx.RunID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	return err
}

// processEvents applies each event's side effects, persists non-partial
// events, forwards them to the caller and completes the resume handshake.
func (r *Runner) processEvents(
	runCtx *core.RunContext,
	sessionID string,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
	errorsCh chan<- error,
) {
	for {
		select {
		case <-runCtx.Done():
			return
		case ev, ok := <-agentEmit:
			if !ok {
				return
			}

			if err := r.applyEventActions(sessionID, ev); err != nil {
				select {
				case <-runCtx.Done():
				case errorsCh <- fmt.Errorf("failed to process event actions: %w", err):
				}
				return
			}

			if !ev.IsPartial() {
				if err := r.sessionStore.AppendEvent(sessionID, ev); err != nil {
					select {
					case <-runCtx.Done():
					case errorsCh <- fmt.Errorf("failed to append event to session: %w", err):
					}
					return
				}
			}

			select {
			case <-runCtx.Done():
				return
			case eventsCh <- ev:
				r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "session", sessionID, "author", ev.Author)
			}

			// The emitter blocks until its non-partial event is persisted.
			if !ev.IsPartial() {
				select {
				case <-runCtx.Done():
					return
				case resumeCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (r *Runner) applyEventActions(sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.sessionStore.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	if ev.IsEscalation() {
		r.logger.Debug("runner.event.escalate", "session", sessionID, "author", ev.Author)
	}

	return nil
}
