package model

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/agentweave/agentweave/logging"
)

// RetryConfig defines the bounded exponential backoff policy applied to
// every outbound model call.
type RetryConfig struct {
	MaxAttempts          int           `json:"max_attempts"`  // total attempts including the first
	InitialDelay         time.Duration `json:"initial_delay"` // delay before the first retry
	MaxDelay             time.Duration `json:"max_delay"`     // cap on any single delay
	BackoffMultiplier    float64       `json:"backoff_multiplier"`
	RetryableStatusCodes []int         `json:"retryable_status_codes"`
}

// DefaultRetryConfig mirrors the transient-failure policy applied to hosted
// model endpoints: up to 5 attempts, delays growing sevenfold from 1s,
// retrying only on 429/500/503/504.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:          5,
		InitialDelay:         time.Second,
		MaxDelay:             10 * time.Minute,
		BackoffMultiplier:    7,
		RetryableStatusCodes: []int{429, 500, 503, 504},
	}
}

// DelayForAttempt returns the backoff delay applied after the given failed
// attempt (1-based): InitialDelay * BackoffMultiplier^(attempt-1), capped at
// MaxDelay.
func (c RetryConfig) DelayForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1)))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	return delay
}

// ShouldRetry classifies an error as transient. Only StatusErrors whose code
// is in RetryableStatusCodes qualify; context cancellation never retries.
func (c RetryConfig) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	code, ok := StatusCode(err)
	if !ok {
		return false
	}

	return slices.Contains(c.RetryableStatusCodes, code)
}

// CallRecorder receives model call and retry observations. Implemented by
// the metrics package; a nil recorder disables recording.
type CallRecorder interface {
	ModelCall(provider, name string, duration time.Duration, err error)
	Retry(provider string, statusCode int)
}

// RetryOptions configures the retry decorator.
type RetryOptions struct {
	Logger   logging.Logger
	Recorder CallRecorder
}

// retryModel decorates a Model with the RetryConfig policy. Retries happen
// only when a generation fails before any response chunk was forwarded;
// once output reaches the consumer the stream is committed.
type retryModel struct {
	inner    Model
	cfg      RetryConfig
	logger   logging.Logger
	recorder CallRecorder
}

// WithRetry wraps m so every Generate call honors cfg.
func WithRetry(m Model, cfg RetryConfig, optFns ...func(o *RetryOptions)) Model {
	opts := RetryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &retryModel{inner: m, cfg: cfg, logger: opts.Logger, recorder: opts.Recorder}
}

// Info implements Model.
func (r *retryModel) Info() Info { return r.inner.Info() }

// Generate implements Model with bounded retry around the inner model.
func (r *retryModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 32)
	errOut := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errOut)

		info := r.inner.Info()

		for attempt := 1; ; attempt++ {
			start := time.Now()
			forwarded, genErr := r.drainAttempt(ctx, req, out)

			if r.recorder != nil {
				r.recorder.ModelCall(info.Provider, info.Name, time.Since(start), genErr)
			}

			if genErr == nil {
				return
			}

			if forwarded || attempt >= r.cfg.MaxAttempts || !r.cfg.ShouldRetry(genErr) {
				errOut <- genErr
				return
			}

			delay := r.cfg.DelayForAttempt(attempt)
			code, _ := StatusCode(genErr)

			if r.recorder != nil {
				r.recorder.Retry(info.Provider, code)
			}

			r.logger.Warn("model.retry",
				"provider", info.Provider,
				"model", info.Name,
				"attempt", attempt,
				"status", code,
				"delay", delay,
			)

			select {
			case <-ctx.Done():
				errOut <- ctx.Err()
				return
			case <-time.After(delay):
			}
		}
	}()

	return out, errOut
}

// drainAttempt runs one inner generation, forwarding responses as they
// arrive. It reports whether any chunk was forwarded and the terminal error.
func (r *retryModel) drainAttempt(ctx context.Context, req Request, out chan<- Response) (bool, error) {
	respCh, errCh := r.inner.Generate(ctx, req)

	forwarded := false
	var genErr error

	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			select {
			case <-ctx.Done():
				return forwarded, ctx.Err()
			case out <- resp:
				forwarded = true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				genErr = err
			}
		}
	}

	return forwarded, genErr
}
