package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/internal/jsonx"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/model"
)

// Decision names the three outcomes the orchestrator can choose.
type Decision string

const (
	// DecisionContinue proceeds with the next pending step.
	DecisionContinue Decision = "continue"
	// DecisionModify inserts corrective steps before continuing.
	DecisionModify Decision = "modify"
	// DecisionComplete finishes the run via the response synthesizer.
	DecisionComplete Decision = "complete"
)

// Modification is one step the orchestrator proposes to add to the plan.
type Modification struct {
	Agent  string `json:"agent"`
	Action string `json:"action"`
}

// Evaluation is the structured decision parsed from the orchestrator model.
type Evaluation struct {
	Evaluation    string         `json:"evaluation"`
	Decision      Decision       `json:"decision"`
	Reasoning     string         `json:"reasoning"`
	Modifications []Modification `json:"modifications"`
}

// Phrases that mark a proposed step as direct user communication. Such steps
// are policy-rejected: only the response synthesizer addresses the user.
var communicationPhrases = []string{
	"inform the user",
	"tell the user",
	"explain to",
	"notify the user",
}

// OrchestratorOptions configures the orchestrator agent.
type OrchestratorOptions struct {
	Logger      logging.Logger
	Temperature float64
}

// Orchestrator drives the plan loop: it evaluates progress with one model
// call, applies the parsed decision to the plan and selects the next agent.
type Orchestrator struct {
	BaseAgent
	opts OrchestratorOptions
}

// NewOrchestrator creates the orchestrator agent.
func NewOrchestrator(m model.Model, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{Temperature: 0.3}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		BaseAgent: NewBaseAgent("orchestrator", "Evaluates agent outputs and routes tasks based on LLM decisions", m, opts.Logger),
		opts:      opts,
	}
}

// Invoke implements Agent.
func (o *Orchestrator) Invoke(ctx context.Context, state core.State) (core.State, error) {
	if state.Plan == nil {
		return state, &core.OrchestrationError{Reason: "no plan found in state"}
	}

	newState := state.Clone()
	plan := newState.Plan

	response, err := o.model.Complete(ctx, []core.Message{
		core.SystemMessage(orchestratorPrompt),
		core.UserMessage(buildEvaluationContext(newState, plan)),
	}, model.WithTemperature(o.opts.Temperature))
	if err != nil {
		return state, err
	}

	eval := o.parseDecision(response)
	o.logger.Info("orchestrator decision", "decision", eval.Decision, "reasoning", eval.Reasoning)

	o.applyDecision(&newState, plan, eval)
	return newState, nil
}

// parseDecision decodes the model response, recovering from malformed output
// with a conservative continue so the loop keeps moving.
func (o *Orchestrator) parseDecision(response string) Evaluation {
	var eval Evaluation
	if err := jsonx.DecodeObject(response, &eval); err != nil {
		o.logger.Warn("failed to parse orchestrator decision", "error", err)
		return Evaluation{
			Evaluation: "Failed to parse LLM response",
			Decision:   DecisionContinue,
			Reasoning:  "Defaulting to continue due to parse error",
		}
	}
	return eval
}

// applyDecision mutates the plan per the decision and sets the routing
// directive on state.
func (o *Orchestrator) applyDecision(state *core.State, plan *core.Plan, eval Evaluation) {
	if eval.Decision == DecisionComplete {
		state.NextAgent = core.AgentResponse
		return
	}

	if eval.Decision == DecisionModify && len(eval.Modifications) > 0 {
		var newSteps []core.PlanStep
		for _, mod := range eval.Modifications {
			if isCommunicationAction(mod.Action) {
				o.logger.Warn("skipping communication modification", "action", mod.Action)
				continue
			}
			agent := core.AgentName(mod.Agent)
			if core.ValidStepAgent(agent) && mod.Action != "" {
				newSteps = append(newSteps, core.PlanStep{Agent: agent, Action: mod.Action})
			}
		}

		if len(newSteps) > 0 {
			plan.InsertAfterCompleted(newSteps)
			o.logger.Info("added steps to plan", "count", len(newSteps))
		} else {
			// Every proposal was user communication; the plan has nothing
			// actionable left, so this is an implicit complete.
			o.logger.Info("all modifications were user communication, completing")
			state.NextAgent = core.AgentResponse
			return
		}
	}

	if next := plan.NextIncompleteStep(); next != nil {
		state.NextAgent = next.Agent
		state.CurrentAction = next.Action
		o.logger.Info("routing to agent", "agent", next.Agent)
		return
	}
	state.NextAgent = core.AgentResponse
	o.logger.Info("no more steps, routing to response")
}

func isCommunicationAction(action string) bool {
	lower := strings.ToLower(action)
	for _, phrase := range communicationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// buildEvaluationContext renders the run so far for the evaluation call: the
// request, the goal, every step with status, details of the last completed
// step, any error and the next pending step.
func buildEvaluationContext(state core.State, plan *core.Plan) string {
	var parts []string

	parts = append(parts, "User's request: "+state.FirstUserContent())
	parts = append(parts, "\nGoal: "+plan.Goal)

	parts = append(parts, "\nExecution Plan:")
	for i, step := range plan.Steps {
		status := "PENDING"
		if step.Completed {
			status = "COMPLETED"
		}
		parts = append(parts, fmt.Sprintf("  %d. [%s] %s: %s", i+1, status, step.Agent, step.Action))
		if step.Result != "" {
			parts = append(parts, "      Result: "+truncate(step.Result, 200))
		}
	}

	if last := lastCompletedStep(plan); last != nil {
		parts = append(parts, fmt.Sprintf("\nLast completed step: %s - %s", last.Agent, last.Action))

		switch last.Agent {
		case core.AgentWebSearch:
			if len(state.WebResults) > 0 {
				parts = append(parts, "Web search results:")
				for _, result := range state.WebResults[:min(3, len(state.WebResults))] {
					parts = append(parts, fmt.Sprintf("  - %s: %s", result.Title, truncate(result.Snippet, 100)))
				}
			} else {
				parts = append(parts, "Web search results: No results found")
			}
		case core.AgentThreads:
			if len(state.ThreadsResults) > 0 {
				latest := state.ThreadsResults[len(state.ThreadsResults)-1]
				parts = append(parts, "Threads results:")
				parts = append(parts, "  Action: "+latest.Action)
				parts = append(parts, "  Result: "+truncate(latest.Result, 300))
			} else {
				parts = append(parts, "Threads results: No results")
			}
		}
	} else {
		parts = append(parts, "\nNo steps completed yet - this is the first evaluation.")
	}

	if state.Error != "" {
		parts = append(parts, "\nError occurred: "+state.Error)
	}

	if next := plan.NextIncompleteStep(); next != nil {
		parts = append(parts, fmt.Sprintf("\nNext pending step: %s - %s", next.Agent, next.Action))
	} else {
		parts = append(parts, "\nAll steps completed.")
	}

	return strings.Join(parts, "\n")
}

func lastCompletedStep(plan *core.Plan) *core.PlanStep {
	var last *core.PlanStep
	for i := range plan.Steps {
		if plan.Steps[i].Completed {
			last = &plan.Steps[i]
		}
	}
	return last
}

// truncate shortens s to at most n bytes, backing off to a rune boundary so
// the cut never produces invalid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
