package api

import "github.com/threadloop/threadloop/core"

// ChatRequest is the request body for both chat endpoints.
type ChatRequest struct {
	Messages []core.Message `json:"messages"`
}

// ChatResponse is the non-streaming chat response.
type ChatResponse struct {
	Content    string      `json:"content"`
	AgentTrace []TraceStep `json:"agent_trace"`
}

// TraceStep records one executed plan step in the response trace.
type TraceStep struct {
	Agent     core.AgentName `json:"agent"`
	Action    string         `json:"action"`
	Completed bool           `json:"completed"`
	Result    string         `json:"result,omitempty"`
}

// StreamEvent is a single event on the SSE chat stream.
type StreamEvent struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	AgentName  string `json:"agent_name,omitempty"`
	Status     string `json:"status,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolResult string `json:"tool_result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HTTPError is the unified JSON error body.
type HTTPError struct {
	Error string `json:"error"`
}
