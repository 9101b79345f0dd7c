package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/model"
)

// ResponseOptions configures the response synthesizer.
type ResponseOptions struct {
	Logger      logging.Logger
	Temperature float64
}

// Response is the terminal worker: it turns the accumulated results into the
// final human-facing reply. It has no fallback path; a failure here ends the
// run.
type Response struct {
	BaseAgent
	opts ResponseOptions
}

// NewResponse creates the response synthesizer agent.
func NewResponse(m model.Model, optFns ...func(o *ResponseOptions)) *Response {
	opts := ResponseOptions{Temperature: 0.7}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Response{
		BaseAgent: NewBaseAgent("response", "Generates human-readable responses from workflow results", m, opts.Logger),
		opts:      opts,
	}
}

// Invoke implements Agent.
func (r *Response) Invoke(ctx context.Context, state core.State) (core.State, error) {
	output, err := r.model.Complete(ctx, []core.Message{
		core.SystemMessage(responsePrompt),
		core.UserMessage(buildResponseContext(state)),
	}, model.WithTemperature(r.opts.Temperature))
	if err != nil {
		return state, &core.AgentError{Agent: core.AgentResponse, Err: err}
	}
	r.logger.Info("generated final response")

	newState := state.Clone()
	newState.Output = output
	newState.AppendAssistant(output)
	return newState, nil
}

// buildResponseContext renders the request, goal, up to five search hits and
// every platform result (pretty-printing JSON-shaped result text).
func buildResponseContext(state core.State) string {
	var parts []string

	parts = append(parts, "User's request: "+state.FirstUserContent())

	if state.Plan != nil {
		parts = append(parts, "\nGoal: "+state.Plan.Goal)
	}

	if len(state.WebResults) > 0 {
		var lines []string
		for _, result := range state.WebResults[:min(5, len(state.WebResults))] {
			lines = append(lines, "- "+result.Title+" ("+result.Source+"): "+truncate(result.Snippet, 100))
		}
		parts = append(parts, "\nWeb search results:\n"+strings.Join(lines, "\n"))
	}

	if len(state.ThreadsResults) > 0 {
		parts = append(parts, "\nThreads operations:")
		for _, result := range state.ThreadsResults {
			parts = append(parts, "\nAction: "+result.Action+"\nResult:\n"+prettyJSON(result.Result))
		}
	}

	parts = append(parts, "\n\nPlease create a clear, human-readable response for the user.")
	return strings.Join(parts, "\n")
}

// prettyJSON re-indents result text that looks like a JSON object; anything
// else passes through untouched.
func prettyJSON(s string) string {
	if !strings.HasPrefix(s, "{") {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}
