package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/internal/jsonx"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/model"
)

// Default keyword sets for the deterministic fallback plan. Their content is
// a tunable policy, not an invariant.
var (
	DefaultSearchKeywords = []string{"news", "trending", "latest", "search", "find", "research", "information"}
	DefaultPostKeywords   = []string{"post", "share", "publish", "thread", "create"}
)

// PlannerOptions configures the planning agent.
type PlannerOptions struct {
	Logger         logging.Logger
	Temperature    float64
	SearchKeywords []string
	PostKeywords   []string
}

// Planner analyzes the user request and creates the execution plan. It runs
// exactly once, as the entry node of every workflow.
type Planner struct {
	BaseAgent
	opts PlannerOptions
}

// NewPlanner creates the planning agent.
func NewPlanner(m model.Model, optFns ...func(o *PlannerOptions)) *Planner {
	opts := PlannerOptions{
		Temperature:    0.3,
		SearchKeywords: DefaultSearchKeywords,
		PostKeywords:   DefaultPostKeywords,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{
		BaseAgent: NewBaseAgent("planning", "Analyzes user requests and creates step-by-step execution plans", m, opts.Logger),
		opts:      opts,
	}
}

// Invoke implements Agent.
func (p *Planner) Invoke(ctx context.Context, state core.State) (core.State, error) {
	userMessage, ok := core.LastUserContent(state.Messages)
	if !ok {
		return state, &core.PlanningError{Reason: "no user message found in state"}
	}

	response, err := p.model.Complete(ctx, []core.Message{
		core.SystemMessage(planningPrompt),
		core.UserMessage(userMessage),
	}, model.WithTemperature(p.opts.Temperature))
	if err != nil {
		return state, &core.PlanningError{Reason: fmt.Sprintf("failed to create plan: %v", err)}
	}

	plan := p.parsePlan(response, userMessage)
	p.logger.Info("created plan", "steps", len(plan.Steps), "goal", plan.Goal)

	newState := state.Clone()
	newState.Plan = plan
	newState.AppendAssistant("Plan created: " + plan.Goal)
	return newState, nil
}

// parsePlan decodes the model response into a plan. Any parse failure falls
// back to the deterministic keyword plan; step agents outside the worker set
// are coerced to threads.
func (p *Planner) parsePlan(response, userMessage string) *core.Plan {
	var raw struct {
		Goal  string `json:"goal"`
		Steps []struct {
			Agent  string `json:"agent"`
			Action string `json:"action"`
		} `json:"steps"`
	}
	if err := jsonx.DecodeObject(response, &raw); err != nil {
		p.logger.Warn("failed to parse plan response, using fallback", "error", err)
		return p.fallbackPlan(userMessage)
	}

	steps := make([]core.PlanStep, 0, len(raw.Steps))
	for _, step := range raw.Steps {
		agent := core.AgentName(step.Agent)
		if !core.ValidStepAgent(agent) {
			agent = core.AgentThreads
		}
		steps = append(steps, core.PlanStep{Agent: agent, Action: step.Action})
	}

	goal := raw.Goal
	if goal == "" {
		goal = userMessage
	}
	return core.NewPlan(goal, steps)
}

// fallbackPlan builds a plan from keyword heuristics. The same user message
// always yields the same step sequence.
func (p *Planner) fallbackPlan(userMessage string) *core.Plan {
	lower := strings.ToLower(userMessage)
	var steps []core.PlanStep

	if containsAny(lower, p.opts.SearchKeywords) {
		steps = append(steps, core.PlanStep{
			Agent:  core.AgentWebSearch,
			Action: "Search for relevant information",
		})
	}
	if containsAny(lower, p.opts.PostKeywords) {
		steps = append(steps, core.PlanStep{
			Agent:  core.AgentThreads,
			Action: "Create and publish post on Threads",
		})
	}
	if len(steps) == 0 {
		steps = append(steps, core.PlanStep{
			Agent:  core.AgentThreads,
			Action: "Process user request on Threads",
		})
	}

	return core.NewPlan(userMessage, steps)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
