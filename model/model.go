// Package model defines the LLM provider interface shared by all agents,
// including function/tool calling structures normalized across vendors, plus
// an in-memory mock for tests.
package model

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/threadloop/threadloop/core"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
type ToolCallFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// ToolResponse is the outcome of a tool-enabled completion: assistant text
// plus zero or more requested tool invocations.
type ToolResponse struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// CallOptions carries per-call generation parameters. Adapters seed it with
// their configured defaults before applying the caller's option functions.
type CallOptions struct {
	Temperature float64
	MaxTokens   int64
}

// WithTemperature overrides the sampling temperature for one call.
func WithTemperature(t float64) func(o *CallOptions) {
	return func(o *CallOptions) { o.Temperature = t }
}

// WithMaxTokens overrides the completion token limit for one call.
func WithMaxTokens(n int64) func(o *CallOptions) {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	// Complete returns the assistant text for the given conversation.
	Complete(ctx context.Context, messages []core.Message, optFns ...func(o *CallOptions)) (string, error)

	// CompleteWithTools additionally exposes tool definitions and returns any
	// tool invocations the model requested.
	CompleteWithTools(ctx context.Context, messages []core.Message, tools []ToolDefinition, optFns ...func(o *CallOptions)) (*ToolResponse, error)

	// Info returns information about the model implementation.
	Info() Info
}

type mockRule struct {
	match     string
	response  string
	toolCalls []ToolCall
	err       error
}

// MockCall records one invocation of the mock for later inspection.
type MockCall struct {
	Messages []core.Message
	Tools    []ToolDefinition
	Options  CallOptions
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Rules are matched by substring against the last message content, in
// registration order; unmatched calls return the default response.
type MockModel struct {
	mu      sync.Mutex
	info    Info
	rules   []mockRule
	deflt   string
	history []MockCall
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: provider, SupportsTools: true},
	}
}

// AddResponse registers a canned completion for prompts containing match.
func (m *MockModel) AddResponse(match, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, response: response})
}

// AddToolCalls registers canned tool invocations for prompts containing match.
func (m *MockModel) AddToolCalls(match, content string, calls ...ToolCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, response: content, toolCalls: calls})
}

// AddError registers a canned error for prompts containing match.
func (m *MockModel) AddError(match string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, err: err})
}

// SetDefault sets the response returned when no rule matches.
func (m *MockModel) SetDefault(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deflt = response
}

// Calls returns a copy of the recorded invocations.
func (m *MockModel) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.history))
	copy(out, m.history)
	return out
}

// CallCount returns the number of recorded invocations.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

func (m *MockModel) lookup(messages []core.Message) mockRule {
	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	for _, r := range m.rules {
		if strings.Contains(last, r.match) {
			return r
		}
	}
	return mockRule{response: m.deflt}
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, messages []core.Message, optFns ...func(o *CallOptions)) (string, error) {
	var opts CallOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	m.mu.Lock()
	m.history = append(m.history, MockCall{Messages: messages, Options: opts})
	m.mu.Unlock()

	rule := m.lookup(messages)
	if rule.err != nil {
		return "", rule.err
	}
	return rule.response, nil
}

// CompleteWithTools implements Model.
func (m *MockModel) CompleteWithTools(ctx context.Context, messages []core.Message, tools []ToolDefinition, optFns ...func(o *CallOptions)) (*ToolResponse, error) {
	var opts CallOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	m.mu.Lock()
	m.history = append(m.history, MockCall{Messages: messages, Tools: tools, Options: opts})
	m.mu.Unlock()

	rule := m.lookup(messages)
	if rule.err != nil {
		return nil, rule.err
	}
	return &ToolResponse{Content: rule.response, ToolCalls: rule.toolCalls}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
