package model

import (
	"context"
	"testing"

	"github.com/agentweave/agentweave/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_KeyedResponse(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("What is Go?", "A programming language.")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("What is Go?")},
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "A programming language.", responses[0].Content.Text())
	assert.False(t, responses[0].Partial)
}

func TestMockModel_QueuedResponsesConsumeInOrder(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.QueueText("first")
	m.QueueText("second")

	for _, want := range []string{"first", "second"} {
		respCh, errCh := m.Generate(context.Background(), Request{
			Contents: []core.Content{core.NewUserText("anything")},
		})
		responses, err := drain(t, respCh, errCh)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, want, responses[0].Content.Text())
	}

	assert.Equal(t, 2, m.Calls())
}

func TestMockModel_QueuedFunctionCall(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.QueueFunctionCall("exit_loop", "{}")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("check")},
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)

	var calls []core.FunctionCall
	for _, p := range responses[0].Content.Parts {
		if fc, ok := p.(core.FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	require.Len(t, calls, 1)
	assert.Equal(t, "exit_loop", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)
}

func TestMockModel_Streaming(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hi", "ok")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("hi")},
		Stream:   true,
	})

	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 3) // two char chunks plus final

	assert.True(t, responses[0].Partial)
	assert.True(t, responses[1].Partial)
	assert.False(t, responses[2].Partial)
	assert.Equal(t, "ok", responses[2].Content.Text())
}

func TestMockModel_RecordsRequests(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.QueueText("done")

	req := Request{
		Instructions: "You are a test agent.",
		Contents:     []core.Content{core.NewUserText("go")},
	}
	respCh, errCh := m.Generate(context.Background(), req)
	_, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "You are a test agent.", reqs[0].Instructions)
}

func TestStatusCode(t *testing.T) {
	code, ok := StatusCode(NewStatusError(429, "slow down"))
	assert.True(t, ok)
	assert.Equal(t, 429, code)

	_, ok = StatusCode(assert.AnError)
	assert.False(t, ok)
}
