package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/mcp"
	"github.com/threadloop/threadloop/model"
)

// ThreadsOptions configures the Threads platform agent.
type ThreadsOptions struct {
	Logger      logging.Logger
	Temperature float64
}

// Threads is the platform action worker. It discovers the remote tools once,
// lets the model pick invocations via function calling and executes them
// sequentially against the MCP service.
type Threads struct {
	BaseAgent
	client mcp.Client
	opts   ThreadsOptions

	toolsMu  sync.Mutex
	loaded   bool
	tools    []mcp.Tool
	toolDefs []model.ToolDefinition
}

// NewThreads creates the Threads agent.
func NewThreads(m model.Model, client mcp.Client, optFns ...func(o *ThreadsOptions)) *Threads {
	opts := ThreadsOptions{Temperature: 0.7}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Threads{
		BaseAgent: NewBaseAgent("threads", "Interacts with Meta Threads to create posts, replies, and manage content", m, opts.Logger),
		client:    client,
		opts:      opts,
	}
}

// loadTools discovers and converts the remote tools, caching the list on
// first success only. A failed discovery is retried on the next run.
func (t *Threads) loadTools(ctx context.Context) ([]model.ToolDefinition, error) {
	t.toolsMu.Lock()
	defer t.toolsMu.Unlock()
	if t.loaded {
		return t.toolDefs, nil
	}

	tools, err := t.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	t.tools = tools
	t.toolDefs = mcp.ToToolDefinitions(tools)
	t.loaded = true
	t.logger.Info("loaded mcp tools", "count", len(tools))
	return t.toolDefs, nil
}

// Invoke implements Agent.
func (t *Threads) Invoke(ctx context.Context, state core.State) (core.State, error) {
	tools, err := t.loadTools(ctx)
	if err != nil {
		return state, &core.AgentError{Agent: core.AgentThreads, Err: fmt.Errorf("load tools: %w", err)}
	}

	userRequest := state.FirstUserContent()
	var goal string
	if state.Plan != nil {
		goal = state.Plan.Goal
	}

	resp, err := t.model.CompleteWithTools(ctx, []core.Message{
		core.SystemMessage(threadsPrompt + t.toolsDescription()),
		core.UserMessage(buildThreadsContext(userRequest, goal, state.CurrentAction, state.WebResults)),
	}, tools, model.WithTemperature(t.opts.Temperature))
	if err != nil {
		return state, &core.AgentError{Agent: core.AgentThreads, Err: err}
	}
	t.logger.Info("model decided on tool calls", "count", len(resp.ToolCalls))

	var results []string
	for _, call := range resp.ToolCalls {
		results = append(results, t.executeTool(ctx, call))
	}

	finalResult := strings.Join(results, "\n\n")
	if len(results) == 0 {
		finalResult = resp.Content
		if finalResult == "" {
			finalResult = "No action taken"
		}
	}

	newState := state.Clone()
	if newState.Plan != nil {
		newState.Plan.MarkCurrentStepCompleted(finalResult)
	}
	newState.ThreadsResults = append(newState.ThreadsResults, core.ThreadsResult{
		Action: state.CurrentAction,
		Result: finalResult,
	})
	newState.AppendAssistant(finalResult)
	return newState, nil
}

// executeTool runs one requested invocation. Failures become inline error
// text so one bad call does not abort the rest.
func (t *Threads) executeTool(ctx context.Context, call model.ToolCall) string {
	name := call.Function.Name

	var arguments map[string]any
	if len(call.Function.Arguments) > 0 {
		if err := json.Unmarshal(call.Function.Arguments, &arguments); err != nil {
			t.logger.Error("bad tool arguments", "tool", name, "error", err)
			return fmt.Sprintf("Error calling %s: %v", name, err)
		}
	}

	t.logger.Info("executing mcp tool", "tool", name)
	result, err := t.client.CallTool(ctx, name, arguments)
	if err != nil {
		t.logger.Error("mcp tool call failed", "tool", name, "error", err)
		return fmt.Sprintf("Error calling %s: %v", name, err)
	}
	return result
}

// toolsDescription renders the discovered tools as a compact listing appended
// to the system prompt.
func (t *Threads) toolsDescription() string {
	if len(t.tools) == 0 {
		return ""
	}

	lines := []string{"\nAvailable tools:"}
	for _, tool := range t.tools {
		desc := tool.Description
		if idx := strings.IndexByte(desc, '\n'); idx >= 0 {
			desc = desc[:idx]
		}

		var params []string
		if tool.InputSchema != nil {
			required := map[string]bool{}
			if req, ok := tool.InputSchema["required"].([]any); ok {
				for _, r := range req {
					if s, ok := r.(string); ok {
						required[s] = true
					}
				}
			}
			if props, ok := tool.InputSchema["properties"].(map[string]any); ok {
				names := make([]string, 0, len(props))
				for name := range props {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					if required[name] {
						params = append(params, name)
					} else {
						params = append(params, name+"?")
					}
				}
			}
		}

		lines = append(lines, fmt.Sprintf("- %s(%s): %s", tool.Name, strings.Join(params, ", "), desc))
	}
	return strings.Join(lines, "\n")
}

func buildThreadsContext(userRequest, goal, currentAction string, webResults []core.SearchResult) string {
	parts := []string{"User's request: " + userRequest}
	if goal != "" {
		parts = append(parts, "Overall goal: "+goal)
	}
	if currentAction != "" {
		parts = append(parts, "Current task direction: "+currentAction)
	}
	if len(webResults) > 0 {
		parts = append(parts, "\nResearch findings from web search:")
		for _, result := range webResults[:min(3, len(webResults))] {
			parts = append(parts, fmt.Sprintf("- %s: %s", result.Title, truncate(result.Snippet, 150)))
		}
	}
	parts = append(parts, "\nPlease accomplish the user's goal using the available Threads tools.")
	return strings.Join(parts, "\n")
}
