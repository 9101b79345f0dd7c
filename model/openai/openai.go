// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including function/tool calling). Setting a custom
// base URL also makes it serve OpenAI-compatible gateways such as OpenRouter.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/model"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
	Timeout             time.Duration
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete implements model.Model.
func (m *Model) Complete(ctx context.Context, messages []core.Message, optFns ...func(o *model.CallOptions)) (string, error) {
	params := m.buildParams(messages, nil, optFns)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", m.wrapErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", &model.Error{Kind: model.ErrKindResponse, Provider: "openai", Err: errors.New("no choices in completion")}
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteWithTools implements model.Model.
func (m *Model) CompleteWithTools(ctx context.Context, messages []core.Message, tools []model.ToolDefinition, optFns ...func(o *model.CallOptions)) (*model.ToolResponse, error) {
	params := m.buildParams(messages, tools, optFns)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, m.wrapErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &model.Error{Kind: model.ErrKindResponse, Provider: "openai", Err: errors.New("no choices in completion")}
	}

	msg := resp.Choices[0].Message
	out := &model.ToolResponse{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: model.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			},
		})
	}
	return out, nil
}

// buildParams assembles the request including per-call option overrides and
// tool definitions.
func (m *Model) buildParams(messages []core.Message, tools []model.ToolDefinition, optFns []func(o *model.CallOptions)) openai.ChatCompletionNewParams {
	callOpts := model.CallOptions{Temperature: m.opts.Temperature, MaxTokens: m.opts.MaxCompletionTokens}
	for _, fn := range optFns {
		fn(&callOpts)
	}

	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(messages),
		Model:               m.opts.Model,
		Temperature:         openai.Float(callOpts.Temperature),
		MaxCompletionTokens: openai.Int(callOpts.MaxTokens),
	}
	if len(tools) == 0 {
		return params
	}

	oaTools := make([]openai.ChatCompletionToolParam, len(tools))
	for i, tdef := range tools {
		oaTools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = oaTools
	return params
}

// buildMessages converts conversation records into OpenAI chat messages.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case core.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// wrapErr classifies SDK failures into the shared model error taxonomy.
func (m *Model) wrapErr(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		kind := model.ErrKindResponse
		if apierr.StatusCode == http.StatusTooManyRequests {
			kind = model.ErrKindRateLimit
		}
		return &model.Error{Kind: kind, Provider: "openai", Err: fmt.Errorf("api error: %w", err)}
	}
	return &model.Error{Kind: model.ErrKindConnection, Provider: "openai", Err: err}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
