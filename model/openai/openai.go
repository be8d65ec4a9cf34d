// Package openai adapts the OpenAI Chat Completions API (streaming and
// function calling included) to the generic model.Model interface.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/model"
)

// toolCallState accumulates streamed tool call fragments (id, name and
// argument deltas arrive in separate chunks) until the finish reason lands.
type toolCallState struct{ id, name, args string }

// Options configures the OpenAI adapter. The API key is passed explicitly;
// the adapter never reads the environment itself.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
}

// Model wraps an OpenAI client behind model.Model.
type Model struct {
	client *openai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// NewModel creates an adapter with a fresh client. Set Options.APIKey to
// authenticate; without it the SDK falls back to its own resolution.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates an adapter around an existing client, e.g. one
// pointed at a compatible proxy.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Generate implements model.Model for both streaming and non-streaming
// requests.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		toolResponses, order := indexToolResponses(req.Contents)
		params := m.buildParams(req, buildMessages(req.Contents, toolResponses, order))

		if req.Stream {
			m.generateStreaming(ctx, params, out, errCh)
			return
		}

		m.generateOnce(ctx, params, out, errCh)
	}()

	return out, errCh
}

// indexToolResponses maps function response IDs to their rendered result
// text, preserving first-seen order so orphaned responses still get sent.
func indexToolResponses(contents []core.Content) (map[string]string, []string) {
	responses := map[string]string{}
	var order []string

	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if _, exists := responses[fr.FunctionResponse.ID]; exists {
				continue
			}

			text, ok := fr.FunctionResponse.Response.(string)
			if !ok {
				text = fmt.Sprintf("%v", fr.FunctionResponse.Response)
			}

			responses[fr.FunctionResponse.ID] = text
			order = append(order, fr.FunctionResponse.ID)
		}
	}

	return responses, order
}

// buildMessages converts normalized contents into chat messages, pairing
// each tool response with the assistant turn that requested it.
func buildMessages(
	contents []core.Content,
	toolResponses map[string]string,
	order []string,
) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, c := range contents {
		if c.Role == "tool" {
			continue
		}

		var sb strings.Builder
		for _, p := range c.Parts {
			if tp, ok := p.(core.TextPart); ok {
				sb.WriteString(tp.Text)
			}
		}
		text := sb.String()

		switch c.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		case "assistant":
			toolCalls, callIDs := assistantToolCalls(c)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}

			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})

			for _, id := range callIDs {
				if resp, ok := toolResponses[id]; ok {
					messages = append(messages, openai.ToolMessage(resp, id))
					delete(toolResponses, id)
				}
			}
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	// Responses whose originating call never made it into history.
	for _, id := range order {
		if resp, ok := toolResponses[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}

	return messages
}

func assistantToolCalls(c core.Content) ([]openai.ChatCompletionMessageToolCallParam, []string) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	var callIDs []string

	for _, p := range c.Parts {
		fc, ok := p.(core.FunctionCallPart)
		if !ok {
			continue
		}

		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   fc.FunctionCall.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.FunctionCall.Name,
				Arguments: fc.FunctionCall.Arguments,
			},
		})
		callIDs = append(callIDs, fc.FunctionCall.ID)
	}

	return toolCalls, callIDs
}

func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

func (m *Model) generateStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	var textBuilder strings.Builder
	pendingCalls := map[int64]*toolCallState{}

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				textBuilder.WriteString(choice.Delta.Content)
				out <- model.Response{
					ID:      chunk.ID,
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: choice.Delta.Content}},
					},
				}
			}

			for _, tc := range choice.Delta.ToolCalls {
				state, ok := pendingCalls[tc.Index]
				if !ok {
					state = &toolCallState{}
					pendingCalls[tc.Index] = state
				}
				if tc.ID != "" {
					state.id = tc.ID
				}
				if tc.Function.Name != "" {
					state.name = tc.Function.Name
				}
				state.args += tc.Function.Arguments
			}

			if choice.FinishReason != "" {
				parts := make([]core.Part, 0, len(pendingCalls)+1)
				if textBuilder.Len() > 0 {
					parts = append(parts, core.TextPart{Text: textBuilder.String()})
				}
				for _, state := range pendingCalls {
					parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
						ID:        state.id,
						Name:      state.name,
						Arguments: state.args,
					}})
				}

				out <- model.Response{
					ID:           chunk.ID,
					Partial:      false,
					Content:      core.Content{Role: "assistant", Parts: parts},
					FinishReason: choice.FinishReason,
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- wrapError(err)
	}
}

func (m *Model) generateOnce(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- wrapError(err)
		return
	}

	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("openai: response contained no choices")
		return
	}

	choice := resp.Choices[0]

	parts := make([]core.Part, 0, len(choice.Message.ToolCalls)+1)
	if choice.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	out <- model.Response{
		ID:           resp.ID,
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: choice.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// wrapError converts SDK failures into StatusError so the retry layer can
// classify them by HTTP status code.
func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai api error: %w", model.NewStatusError(apiErr.StatusCode, apiErr.Message))
	}
	return fmt.Errorf("openai api error: %w", err)
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
