// Package agentweave provides a high-level façade over the runner and
// service abstractions (sessions, logging, metrics), enabling rapid
// construction of multi-agent systems. Most applications interact with this
// package by:
//  1. Composing agents (model, sequential, parallel, loop) from the agent
//     package, or picking a preset from the pipeline package
//  2. Creating an AgentWeave via New() with the composition's root agent
//  3. Running it asynchronously (Run) or synchronously (RunAndWait)
//
// Defaults are safe for local development and testing; production
// deployments typically supply a durable session store, a structured logger
// and a metrics recorder.
package agentweave

import (
	"context"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/logging"
	"github.com/agentweave/agentweave/runner"
	"github.com/agentweave/agentweave/session"
)

// Options configures the AgentWeave instance.
type Options struct {
	// EventBufferSize sets the channel buffer size for event processing.
	EventBufferSize int

	// MaxModelCalls caps model calls per run as a runaway guard.
	MaxModelCalls int

	// SessionStore persists state and history (defaults to in-memory).
	SessionStore core.SessionStore

	// Logger receives structured diagnostics (defaults to NoOp).
	Logger logging.Logger

	// Recorder receives run lifecycle metrics (defaults to none).
	Recorder runner.RunRecorder
}

// AgentWeave is the high-level façade aggregating a root agent and its
// runner.
type AgentWeave struct {
	opts   Options
	runner *runner.Runner
}

// New creates an AgentWeave around the root agent with optional overrides.
func New(root core.Agent, optFns ...func(o *Options)) *AgentWeave {
	opts := Options{
		EventBufferSize: 100,
		MaxModelCalls:   100,
		SessionStore:    session.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(root, func(o *runner.Options) {
		o.EventBufferSize = opts.EventBufferSize
		o.MaxModelCalls = opts.MaxModelCalls
		o.SessionStore = opts.SessionStore
		o.Logger = opts.Logger
		o.Recorder = opts.Recorder
	})

	return &AgentWeave{opts: opts, runner: r}
}

// Run starts an asynchronous run returning the run ID plus event and error
// channels; both close when the run finishes.
func (w *AgentWeave) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	return w.runner.Run(ctx, sessionID, userContent)
}

// RunAndWait runs to completion and returns the final response text together
// with a snapshot of the shared session state.
func (w *AgentWeave) RunAndWait(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, map[string]any, error) {
	return w.runner.RunAndWait(ctx, sessionID, userContent)
}

// Cancel aborts a running run by ID.
func (w *AgentWeave) Cancel(runID string) error { return w.runner.Cancel(runID) }

// SessionStore exposes the configured session store.
func (w *AgentWeave) SessionStore() core.SessionStore { return w.opts.SessionStore }
