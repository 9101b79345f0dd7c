package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/workflow"
)

type fakeRunner struct {
	state  core.State
	err    error
	events []workflow.StepEvent
}

func (f *fakeRunner) Run(ctx context.Context, messages []core.Message) (core.State, error) {
	return f.state, f.err
}

func (f *fakeRunner) Stream(ctx context.Context, messages []core.Message) (<-chan workflow.StepEvent, <-chan error) {
	events := make(chan workflow.StepEvent, len(f.events))
	errCh := make(chan error, 1)
	for _, ev := range f.events {
		events <- ev
	}
	if f.err != nil {
		errCh <- f.err
	}
	close(events)
	close(errCh)
	return events, errCh
}

func completedState() core.State {
	state := core.NewState([]core.Message{core.UserMessage("post hello")})
	state.Plan = core.NewPlan("post hello", []core.PlanStep{
		{Agent: core.AgentThreads, Action: "Create post", Completed: true, Result: "posted id=42"},
	})
	state.Output = "Posted your message."
	state.AppendAssistant("Posted your message.")
	return state
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := NewServer(&fakeRunner{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestChatSync(t *testing.T) {
	s := NewServer(&fakeRunner{state: completedState()})

	rec := postJSON(t, s.Handler(), "/chat/sync", `{"messages":[{"role":"user","content":"post hello"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Posted your message.", resp.Content)
	require.Len(t, resp.AgentTrace, 1)
	assert.Equal(t, core.AgentThreads, resp.AgentTrace[0].Agent)
	assert.True(t, resp.AgentTrace[0].Completed)
	assert.Equal(t, "posted id=42", resp.AgentTrace[0].Result)
}

func TestChatSyncEmptyMessages(t *testing.T) {
	s := NewServer(&fakeRunner{})

	rec := postJSON(t, s.Handler(), "/chat/sync", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "messages must not be empty")
}

func TestChatSyncRunnerError(t *testing.T) {
	s := NewServer(&fakeRunner{err: &core.MaxIterationsError{Limit: 10}})

	rec := postJSON(t, s.Handler(), "/chat/sync", `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "maximum iterations")
}

func parseSSE(t *testing.T, body string) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev StreamEvent
			require.NoError(t, json.Unmarshal([]byte(data), &ev))
			out = append(out, ev)
		}
	}
	return out
}

func TestChatStreamEventSequence(t *testing.T) {
	planned := core.NewState([]core.Message{core.UserMessage("post hello")})
	planned.AppendAssistant("Plan created: post hello")

	executed := planned.Clone()
	executed.ThreadsResults = append(executed.ThreadsResults, core.ThreadsResult{Action: "Create post", Result: "posted id=42"})

	done := executed.Clone()
	done.Output = "Posted your message."
	done.AppendAssistant("Posted your message.")

	s := NewServer(&fakeRunner{events: []workflow.StepEvent{
		{Node: workflow.NodePlanning, State: planned},
		{Node: workflow.NodeThreads, State: executed},
		{Node: workflow.NodeResponse, State: done},
	}})

	rec := postJSON(t, s.Handler(), "/chat", `{"messages":[{"role":"user","content":"post hello"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)

	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"agent", "token", "agent", "token", "tool_call", "agent", "token", "done"}, types)

	assert.Equal(t, "planning", events[0].AgentName)
	assert.Equal(t, "completed", events[0].Status)
	assert.Equal(t, "Plan created: post hello", events[1].Content)
	assert.Equal(t, "threads_action", events[4].ToolName)
	assert.Equal(t, "posted id=42", events[4].ToolResult)
	assert.Equal(t, "done", events[len(events)-1].Type)
}

func TestChatStreamTerminalError(t *testing.T) {
	s := NewServer(&fakeRunner{err: &core.PlanningError{Reason: "no user message found in state"}})

	rec := postJSON(t, s.Handler(), "/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "error", last.Type)
	assert.Contains(t, last.Error, "no user message")
}
