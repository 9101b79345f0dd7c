package core

import "fmt"

// PlanningError indicates the plan builder could not start, typically because
// the conversation carries no user message to plan from.
type PlanningError struct {
	Reason string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed: %s", e.Reason)
}

// OrchestrationError indicates a broken loop precondition, such as the
// orchestrator running before any plan exists.
type OrchestrationError struct {
	Reason string
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("orchestration failed: %s", e.Reason)
}

// AgentError wraps a worker failure with the name of the failing agent.
type AgentError struct {
	Agent AgentName
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// MaxIterationsError reports that a run exceeded the node execution ceiling
// without the orchestrator reaching a complete decision.
type MaxIterationsError struct {
	Limit int
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("workflow exceeded maximum iterations (%d)", e.Limit)
}
