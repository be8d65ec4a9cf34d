// Package gemini adapts the Google Gemini API (via google.golang.org/genai)
// to the generic model.Model interface.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/model"
)

// Options configures the Gemini adapter. The API key is passed explicitly;
// the adapter never reads the environment itself.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	APIKey          string
}

// Model wraps a Gemini client behind model.Model. The genai client needs a
// context to construct, so it is created lazily on the first Generate call.
type Model struct {
	mu     sync.Mutex
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini adapter.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:           "gemini-2.0-flash",
		Temperature:     0.7,
		MaxOutputTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{opts: opts}
}

// NewModelFromClient creates a Gemini adapter around an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	m := NewModel(optFns...)
	m.client = client
	return m
}

func (m *Model) ensureClient(ctx context.Context) (*genai.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  m.opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	m.client = client

	return client, nil
}

// Generate implements model.Model for both streaming and non-streaming
// requests.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		client, err := m.ensureClient(ctx)
		if err != nil {
			errCh <- err
			return
		}

		contents, system := buildContents(req.Contents)

		config := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(m.opts.Temperature),
			MaxOutputTokens: m.opts.MaxOutputTokens,
		}
		if system != "" {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: system}},
			}
		}
		if len(req.Tools) > 0 {
			config.Tools = []*genai.Tool{
				{FunctionDeclarations: buildDeclarations(req.Tools)},
			}
		}

		if req.Stream {
			m.generateStreaming(ctx, client, contents, config, out, errCh)
			return
		}

		result, err := client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
		if err != nil {
			errCh <- wrapError(err)
			return
		}

		resp, err := convertResponse(result)
		if err != nil {
			errCh <- err
			return
		}

		out <- resp
	}()

	return out, errCh
}

func (m *Model) generateStreaming(
	ctx context.Context,
	client *genai.Client,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	out chan<- model.Response,
	errCh chan<- error,
) {
	var textBuilder strings.Builder
	var calls []core.FunctionCall
	finish := "stop"
	var usage *model.TokenUsage

	for result, err := range client.Models.GenerateContentStream(ctx, m.opts.Model, contents, config) {
		if err != nil {
			errCh <- wrapError(err)
			return
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			continue
		}

		candidate := result.Candidates[0]
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				textBuilder.WriteString(part.Text)
				out <- model.Response{
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: part.Text}},
					},
				}
			}
			if part.FunctionCall != nil {
				calls = append(calls, convertCall(part.FunctionCall))
			}
		}

		if candidate.FinishReason != "" {
			finish = finishReason(candidate.FinishReason)
		}
		if result.UsageMetadata != nil {
			usage = convertUsage(result.UsageMetadata)
		}
	}

	parts := make([]core.Part, 0, len(calls)+1)
	if textBuilder.Len() > 0 {
		parts = append(parts, core.TextPart{Text: textBuilder.String()})
	}
	for _, call := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: call})
	}

	out <- model.Response{
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finish,
		Usage:        usage,
	}
}

func convertResponse(result *genai.GenerateContentResponse) (model.Response, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return model.Response{}, fmt.Errorf("gemini: response contained no candidates")
	}

	candidate := result.Candidates[0]

	var parts []core.Part
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			parts = append(parts, core.TextPart{Text: part.Text})
		}
		if part.FunctionCall != nil {
			parts = append(parts, core.FunctionCallPart{FunctionCall: convertCall(part.FunctionCall)})
		}
	}

	var usage *model.TokenUsage
	if result.UsageMetadata != nil {
		usage = convertUsage(result.UsageMetadata)
	}

	return model.Response{
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finishReason(candidate.FinishReason),
		Usage:        usage,
	}, nil
}

// convertCall normalizes a Gemini function call. Gemini often omits call
// IDs, so the function name doubles as the ID for response matching.
func convertCall(call *genai.FunctionCall) core.FunctionCall {
	args := ""
	if call.Args != nil {
		if raw, err := json.Marshal(call.Args); err == nil {
			args = string(raw)
		}
	}

	id := call.ID
	if id == "" {
		id = call.Name
	}

	return core.FunctionCall{ID: id, Name: call.Name, Arguments: args}
}

func convertUsage(md *genai.GenerateContentResponseUsageMetadata) *model.TokenUsage {
	return &model.TokenUsage{
		PromptTokens:     int(md.PromptTokenCount),
		CompletionTokens: int(md.CandidatesTokenCount),
		TotalTokens:      int(md.TotalTokenCount),
	}
}

func finishReason(reason genai.FinishReason) string {
	if reason == "" || reason == genai.FinishReasonStop {
		return "stop"
	}
	return strings.ToLower(string(reason))
}

// buildContents converts normalized contents into genai contents. System
// turns are collapsed into the returned system instruction; tool responses
// become FunctionResponse parts in a user turn, which is how the Gemini API
// expects tool results back.
func buildContents(contents []core.Content) ([]*genai.Content, string) {
	var system strings.Builder
	var result []*genai.Content

	for _, c := range contents {
		if c.Role == "system" {
			if text := c.Text(); text != "" {
				if system.Len() > 0 {
					system.WriteString("\n\n")
				}
				system.WriteString(text)
			}
			continue
		}

		role := "user"
		if c.Role == "assistant" {
			role = "model"
		}

		var parts []*genai.Part
		for _, p := range c.Parts {
			switch part := p.(type) {
			case core.TextPart:
				if part.Text != "" {
					parts = append(parts, &genai.Part{Text: part.Text})
				}
			case core.FunctionCallPart:
				var args map[string]any
				if part.FunctionCall.Arguments != "" {
					_ = json.Unmarshal([]byte(part.FunctionCall.Arguments), &args)
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   part.FunctionCall.ID,
						Name: part.FunctionCall.Name,
						Args: args,
					},
				})
			case core.FunctionResponsePart:
				fr := part.FunctionResponse
				if fr.Name == "" {
					continue
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name: fr.Name,
						Response: map[string]any{
							"content":  fr.Response,
							"is_error": fr.Error != "",
						},
					},
				})
			}
		}

		if len(parts) > 0 {
			result = append(result, &genai.Content{Role: role, Parts: parts})
		}
	}

	return result, system.String()
}

func buildDeclarations(tools []model.ToolDefinition) []*genai.FunctionDeclaration {
	declarations := make([]*genai.FunctionDeclaration, len(tools))

	for i, tdef := range tools {
		declarations[i] = &genai.FunctionDeclaration{
			Name:        tdef.Function.Name,
			Description: tdef.Function.Description,
			Parameters:  convertSchema(tdef.Function.Parameters),
		}
	}

	return declarations
}

// convertSchema recursively converts a JSON Schema object into the genai
// schema representation.
func convertSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	result := &genai.Schema{}
	if desc, ok := schema["description"].(string); ok {
		result.Description = desc
	}

	typeName, _ := schema["type"].(string)
	switch typeName {
	case "number":
		result.Type = genai.TypeNumber
	case "integer":
		result.Type = genai.TypeInteger
	case "boolean":
		result.Type = genai.TypeBoolean
	case "array":
		result.Type = genai.TypeArray
		if items, ok := schema["items"].(map[string]any); ok {
			result.Items = convertSchema(items)
		}
	case "object":
		result.Type = genai.TypeObject
		if props, ok := schema["properties"].(map[string]any); ok {
			result.Properties = make(map[string]*genai.Schema, len(props))
			for name, prop := range props {
				if propSchema, ok := prop.(map[string]any); ok {
					result.Properties[name] = convertSchema(propSchema)
				}
			}
		}
		switch required := schema["required"].(type) {
		case []string:
			result.Required = required
		case []any:
			for _, r := range required {
				if s, ok := r.(string); ok {
					result.Required = append(result.Required, s)
				}
			}
		}
	default:
		result.Type = genai.TypeString
	}

	if enum, ok := schema["enum"].([]string); ok {
		result.Enum = enum
	}

	return result
}

// wrapError converts SDK failures into StatusError so the retry layer can
// classify them by HTTP status code.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini api error: %w", model.NewStatusError(apiErr.Code, apiErr.Message))
	}
	return fmt.Errorf("gemini api error: %w", err)
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
