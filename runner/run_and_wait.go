package runner

import (
	"context"
	"fmt"

	"github.com/agentweave/agentweave/core"
)

// RunAndWait executes the root agent synchronously. It blocks until the run
// completes and returns the final response text together with a snapshot of
// the full session state, so callers can read every output key the pipeline
// produced, not just the last agent's answer.
func (r *Runner) RunAndWait(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, map[string]any, error) {
	_, eventsCh, errorsCh, err := r.Run(ctx, sessionID, userContent)
	if err != nil {
		return "", nil, err
	}

	var (
		finalText string
		runErr    error
	)

	for eventsCh != nil || errorsCh != nil {
		select {
		case ev, ok := <-eventsCh:
			if !ok {
				eventsCh = nil
				continue
			}
			if ev.IsFinalResponse() {
				if text := ev.Text(); text != "" {
					finalText = text
				}
			}
		case e, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			if e != nil && runErr == nil {
				runErr = e
			}
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}

	if runErr != nil {
		return "", nil, runErr
	}

	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load final session state: %w", err)
	}

	return finalText, sess.StateSnapshot(), nil
}
