// Package mcp implements a JSON-RPC 2.0 client for remote tool services
// speaking the Model Context Protocol over HTTP: capability discovery via
// tools/list and invocation via tools/call.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/threadloop/threadloop/model"
)

// Tool describes one remote capability exposed by the service.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Client is the remote tool service contract used by the platform action
// worker. Individual call failures surface as *ToolError so the caller can
// convert them to inline error text instead of aborting the run.
type Client interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (string, error)
}

// ToolError reports a failure of one tool invocation, as opposed to a
// transport or protocol failure.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

// Options configures the HTTP client construction.
type Options struct {
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// HTTPClient talks JSON-RPC 2.0 to an MCP endpoint over HTTP POST.
//
// The discovered tool list is memoized on first successful ListTools and
// never invalidated, so one client instance is safe to share read-only
// across concurrent runs.
type HTTPClient struct {
	endpoint   string
	token      string
	httpClient *http.Client

	mu    sync.Mutex
	tools []Tool
}

// NewHTTPClient creates a client for the given MCP endpoint.
func NewHTTPClient(endpoint string, optFns ...func(o *Options)) *HTTPClient {
	opts := Options{Timeout: 30 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPClient{
		endpoint:   endpoint,
		token:      opts.BearerToken,
		httpClient: client,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func (c *HTTPClient) call(ctx context.Context, method string, params any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("mcp: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mcp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mcp: %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mcp: %s: unexpected status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("mcp: %s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("mcp: %s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("mcp: %s: decode result: %w", method, err)
		}
	}
	return nil
}

// ListTools discovers the remote capabilities, caching the list on first
// success.
func (c *HTTPClient) ListTools(ctx context.Context) ([]Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tools != nil {
		return c.tools, nil
	}

	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	c.tools = result.Tools
	return c.tools, nil
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallTool invokes one remote tool and returns its textual output with
// multi-part results concatenated. A service-reported tool failure returns
// *ToolError.
func (c *HTTPClient) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	params := map[string]any{"name": name}
	if arguments != nil {
		params["arguments"] = arguments
	}

	var result struct {
		Content []contentPart `json:"content"`
		IsError bool          `json:"isError"`
	}
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, part := range result.Content {
		if part.Type == "text" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(part.Text)
		}
	}
	text := sb.String()

	if result.IsError {
		return "", &ToolError{Tool: name, Message: text}
	}
	return text, nil
}

// ToToolDefinitions converts discovered tools into the LLM function calling
// schema.
func ToToolDefinitions(tools []Tool) []model.ToolDefinition {
	out := make([]model.ToolDefinition, len(tools))
	for i, tool := range tools {
		params := tool.InputSchema
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		}
	}
	return out
}
