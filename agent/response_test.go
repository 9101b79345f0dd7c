package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/model"
)

func TestResponseSetsOutput(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault("Here is what I did for you.")

	state := core.NewState([]core.Message{core.UserMessage("post hello")})
	state.Plan = core.NewPlan("post a greeting", []core.PlanStep{
		{Agent: core.AgentThreads, Action: "post", Completed: true, Result: "posted"},
	})
	state.ThreadsResults = []core.ThreadsResult{{Action: "post", Result: "posted"}}

	r := NewResponse(mock)
	out, err := r.Invoke(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "Here is what I did for you.", out.Output)
	last := out.Messages[len(out.Messages)-1]
	assert.Equal(t, core.RoleAssistant, last.Role)
	assert.Equal(t, "Here is what I did for you.", last.Content)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0.7, calls[0].Options.Temperature)
}

func TestResponseContextFormatting(t *testing.T) {
	state := core.NewState([]core.Message{core.UserMessage("what happened?")})
	state.Plan = core.NewPlan("report back", nil)
	state.WebResults = []core.SearchResult{
		{Title: "One", Source: "serper", Snippet: "a"},
		{Title: "Two", Source: "serper", Snippet: "b"},
		{Title: "Three", Source: "serper", Snippet: "c"},
		{Title: "Four", Source: "serper", Snippet: "d"},
		{Title: "Five", Source: "serper", Snippet: "e"},
		{Title: "Six", Source: "serper", Snippet: "never included"},
	}
	state.ThreadsResults = []core.ThreadsResult{
		{Action: "fetch posts", Result: `{"id":"42","text":"hi"}`},
		{Action: "reply", Result: "plain text result"},
	}

	ctx := buildResponseContext(state)

	assert.Contains(t, ctx, "User's request: what happened?")
	assert.Contains(t, ctx, "Goal: report back")
	assert.Contains(t, ctx, "- Five (serper): e")
	assert.NotContains(t, ctx, "Six")

	// JSON-shaped results are pretty printed, plain text passes through.
	assert.Contains(t, ctx, "\"id\": \"42\"")
	assert.Contains(t, ctx, "plain text result")
	assert.Contains(t, ctx, "Please create a clear, human-readable response for the user.")
}

func TestResponseModelErrorIsFatal(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.AddError("broken request", errors.New("provider down"))

	state := core.NewState([]core.Message{core.UserMessage("broken request")})

	r := NewResponse(mock)
	_, err := r.Invoke(context.Background(), state)
	require.Error(t, err)

	var agentErr *core.AgentError
	require.True(t, errors.As(err, &agentErr))
	assert.Equal(t, core.AgentResponse, agentErr.Agent)
}
