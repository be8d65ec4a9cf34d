package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentweave/agentweave/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryConfig_DelayForAttempt(t *testing.T) {
	cfg := DefaultRetryConfig()

	expected := []time.Duration{
		1 * time.Second,
		7 * time.Second,
		49 * time.Second,
		343 * time.Second,
	}

	var prev time.Duration
	for i, want := range expected {
		got := cfg.DelayForAttempt(i + 1)
		assert.Equal(t, want, got, "delay after attempt %d", i+1)
		assert.Greater(t, got, prev, "delays must be strictly increasing")
		prev = got
	}
}

func TestRetryConfig_DelayForAttempt_CappedAtMaxDelay(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.MaxDelay = 30 * time.Second

	assert.Equal(t, 30*time.Second, cfg.DelayForAttempt(3))
	assert.Equal(t, 30*time.Second, cfg.DelayForAttempt(4))
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"rate limited", NewStatusError(429, "rate limited"), true},
		{"internal error", NewStatusError(500, "internal"), true},
		{"unavailable", NewStatusError(503, "unavailable"), true},
		{"gateway timeout", NewStatusError(504, "gateway timeout"), true},
		{"bad request", NewStatusError(400, "bad request"), false},
		{"unauthorized", NewStatusError(401, "unauthorized"), false},
		{"not found", NewStatusError(404, "missing"), false},
		{"plain error", errors.New("boom"), false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ShouldRetry(tt.err))
		})
	}
}

func TestRetryConfig_ShouldRetry_WrappedStatusError(t *testing.T) {
	cfg := DefaultRetryConfig()

	wrapped := errors.Join(errors.New("generate failed"), NewStatusError(503, "overloaded"))
	assert.True(t, cfg.ShouldRetry(wrapped))
}

func fastRetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 50 * time.Millisecond
	return cfg
}

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()

	var responses []Response
	var genErr error
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			responses = append(responses, r)
		case e, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if e != nil {
				genErr = e
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out draining model channels")
		}
	}
	return responses, genErr
}

func TestWithRetry_RetriesTransientFailures(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	mock.QueueError(NewStatusError(503, "overloaded"))
	mock.QueueError(NewStatusError(429, "rate limited"))
	mock.QueueText("recovered")

	m := WithRetry(mock, fastRetryConfig())

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("hello")},
	})

	responses, err := drain(t, respCh, errCh)

	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "recovered", responses[0].Content.Text())
	assert.Equal(t, 3, mock.Calls())
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	for i := 0; i < 6; i++ {
		mock.QueueError(NewStatusError(500, "still broken"))
	}

	m := WithRetry(mock, fastRetryConfig())

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("hello")},
	})

	responses, err := drain(t, respCh, errCh)

	assert.Empty(t, responses)
	require.Error(t, err)

	code, ok := StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, 500, code)
	assert.Equal(t, 5, mock.Calls(), "5 attempts then give up")
}

func TestWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	mock.QueueError(NewStatusError(400, "bad request"))
	mock.QueueText("never reached")

	m := WithRetry(mock, fastRetryConfig())

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("hello")},
	})

	responses, err := drain(t, respCh, errCh)

	assert.Empty(t, responses)
	require.Error(t, err)
	assert.Equal(t, 1, mock.Calls(), "400 must not be retried")
}

func TestWithRetry_SuccessPassesThrough(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	mock.AddResponse("ping", "pong")

	m := WithRetry(mock, fastRetryConfig())

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("ping")},
	})

	responses, err := drain(t, respCh, errCh)

	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "pong", responses[0].Content.Text())
	assert.Equal(t, 1, mock.Calls())
}

func TestWithRetry_InfoDelegates(t *testing.T) {
	mock := NewMockModel("test-model", "mock")
	m := WithRetry(mock, DefaultRetryConfig())

	assert.Equal(t, mock.Info(), m.Info())
}
