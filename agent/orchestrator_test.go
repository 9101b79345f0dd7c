package agent

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/model"
)

func orchestratorState(steps ...core.PlanStep) core.State {
	state := core.NewState([]core.Message{core.UserMessage("do my task")})
	state.Plan = core.NewPlan("the goal", steps)
	return state
}

func TestOrchestratorRequiresPlan(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	o := NewOrchestrator(mock)

	_, err := o.Invoke(context.Background(), core.NewState([]core.Message{core.UserMessage("hi")}))
	require.Error(t, err)

	var orchErr *core.OrchestrationError
	assert.True(t, errors.As(err, &orchErr))
	assert.Equal(t, 0, mock.CallCount())
}

func TestOrchestratorContinueRoutesToNextStep(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault(`{"evaluation":"First run","decision":"continue","reasoning":"start","modifications":[]}`)

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentWebSearch, Action: "search for it"},
		core.PlanStep{Agent: core.AgentThreads, Action: "post it"},
	))
	require.NoError(t, err)

	assert.Equal(t, core.AgentWebSearch, state.NextAgent)
	assert.Equal(t, "search for it", state.CurrentAction)
}

func TestOrchestratorCompleteRoutesToResponse(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault(`{"evaluation":"done","decision":"complete","reasoning":"all good"}`)

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentThreads, Action: "post it"},
	))
	require.NoError(t, err)
	assert.Equal(t, core.AgentResponse, state.NextAgent)
}

func TestOrchestratorAllStepsDoneRoutesToResponse(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault(`{"evaluation":"ok","decision":"continue","reasoning":"r"}`)

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentThreads, Action: "post it", Completed: true, Result: "done"},
	))
	require.NoError(t, err)
	assert.Equal(t, core.AgentResponse, state.NextAgent)
}

func TestOrchestratorModifyInsertsAfterCompleted(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault(`{
		"evaluation":"search was too narrow",
		"decision":"modify",
		"reasoning":"retry",
		"modifications":[{"agent":"web_search","action":"Search for X with different keywords"}]
	}`)

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentWebSearch, Action: "first search", Completed: true, Result: "nothing"},
		core.PlanStep{Agent: core.AgentThreads, Action: "post it"},
	))
	require.NoError(t, err)

	require.Len(t, state.Plan.Steps, 3)
	assert.Equal(t, "Search for X with different keywords", state.Plan.Steps[1].Action)
	assert.Equal(t, "post it", state.Plan.Steps[2].Action)
	assert.Equal(t, core.AgentWebSearch, state.NextAgent)
	assert.Equal(t, "Search for X with different keywords", state.CurrentAction)
}

func TestOrchestratorRejectsCommunicationModifications(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault(`{
		"evaluation":"e",
		"decision":"modify",
		"reasoning":"r",
		"modifications":[
			{"agent":"threads","action":"Inform the user that the task failed"},
			{"agent":"threads","action":"Notify the user about the outcome"}
		]
	}`)

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentThreads, Action: "post it", Completed: true, Result: "done"},
	))
	require.NoError(t, err)

	// Communication-only modifications collapse to an implicit complete.
	assert.Equal(t, core.AgentResponse, state.NextAgent)
	assert.Len(t, state.Plan.Steps, 1)
}

func TestOrchestratorRejectsUnknownModificationAgents(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault(`{
		"evaluation":"e",
		"decision":"modify",
		"reasoning":"r",
		"modifications":[
			{"agent":"twitter","action":"Cross-post to twitter"},
			{"agent":"web_search","action":"Dig deeper"}
		]
	}`)

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentWebSearch, Action: "search", Completed: true, Result: "thin"},
	))
	require.NoError(t, err)

	require.Len(t, state.Plan.Steps, 2)
	assert.Equal(t, "Dig deeper", state.Plan.Steps[1].Action)
	assert.Equal(t, core.AgentWebSearch, state.NextAgent)
}

func TestOrchestratorParseFailureDefaultsToContinue(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault("I think we should keep going, probably?")

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentThreads, Action: "post it"},
	))
	require.NoError(t, err)

	// Parse failure keeps the loop alive: no mutation, next pending step.
	assert.Equal(t, core.AgentThreads, state.NextAgent)
	assert.Len(t, state.Plan.Steps, 1)
}

func TestOrchestratorFencedDecision(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.SetDefault("```json\n{\"evaluation\":\"e\",\"decision\":\"complete\",\"reasoning\":\"r\"}\n```")

	o := NewOrchestrator(mock)
	state, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentThreads, Action: "post it"},
	))
	require.NoError(t, err)
	assert.Equal(t, core.AgentResponse, state.NextAgent)
}

func TestOrchestratorNextAgentAlwaysInEnum(t *testing.T) {
	decisions := []string{
		`{"decision":"continue"}`,
		`{"decision":"modify","modifications":[]}`,
		`{"decision":"complete"}`,
		`{"decision":"something else entirely"}`,
		`garbage`,
	}
	for _, decision := range decisions {
		mock := model.NewMockModel("mock", "test")
		mock.SetDefault(decision)

		o := NewOrchestrator(mock)
		state, err := o.Invoke(context.Background(), orchestratorState(
			core.PlanStep{Agent: core.AgentWebSearch, Action: "search"},
		))
		require.NoError(t, err)
		assert.Contains(t, []core.AgentName{core.AgentWebSearch, core.AgentThreads, core.AgentResponse}, state.NextAgent)
	}
}

func TestOrchestratorModelErrorPropagates(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.AddError("do my task", &model.Error{Kind: model.ErrKindConnection, Provider: "test", Err: errors.New("down")})

	o := NewOrchestrator(mock)
	_, err := o.Invoke(context.Background(), orchestratorState(
		core.PlanStep{Agent: core.AgentThreads, Action: "post it"},
	))
	require.Error(t, err)

	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrKindConnection, kind)
}

func TestBuildEvaluationContext(t *testing.T) {
	state := core.NewState([]core.Message{core.UserMessage("post the latest AI news")})
	state.Plan = core.NewPlan("share news", []core.PlanStep{
		{Agent: core.AgentWebSearch, Action: "search", Completed: true, Result: "found three articles"},
		{Agent: core.AgentThreads, Action: "post"},
	})
	state.WebResults = []core.SearchResult{
		{Title: "AI advances", Snippet: "big model news"},
	}

	ctx := buildEvaluationContext(state, state.Plan)

	assert.Contains(t, ctx, "User's request: post the latest AI news")
	assert.Contains(t, ctx, "Goal: share news")
	assert.Contains(t, ctx, "1. [COMPLETED] web_search: search")
	assert.Contains(t, ctx, "2. [PENDING] threads: post")
	assert.Contains(t, ctx, "Last completed step: web_search - search")
	assert.Contains(t, ctx, "AI advances")
	assert.Contains(t, ctx, "Next pending step: threads - post")
}

func TestBuildEvaluationContextFirstRun(t *testing.T) {
	state := core.NewState([]core.Message{core.UserMessage("hi")})
	state.Plan = core.NewPlan("g", []core.PlanStep{{Agent: core.AgentThreads, Action: "a"}})

	ctx := buildEvaluationContext(state, state.Plan)
	assert.Contains(t, ctx, "No steps completed yet - this is the first evaluation.")
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))

	// A cut inside a multi-byte rune backs off to the previous boundary.
	s := "résumé and more"
	cut := truncate(s, 2) // byte 2 is inside the two-byte "é"
	assert.Equal(t, "r...", cut)
	assert.True(t, utf8.ValidString(cut))

	for n := 0; n <= len(s); n++ {
		assert.True(t, utf8.ValidString(truncate(s, n)), "cut at %d", n)
	}
}
