package core

// AgentName identifies a worker agent a plan step can be delegated to, or the
// routing target chosen by the orchestrator.
type AgentName string

const (
	// AgentWebSearch is the web research worker.
	AgentWebSearch AgentName = "web_search"
	// AgentThreads is the Threads platform action worker.
	AgentThreads AgentName = "threads"
	// AgentResponse is the response synthesizer.
	AgentResponse AgentName = "response"
)

// ValidStepAgent reports whether name may own a plan step. Only the two task
// workers execute steps; the response synthesizer is a routing target, not a
// step owner.
func ValidStepAgent(name AgentName) bool {
	return name == AgentWebSearch || name == AgentThreads
}

// PlanStep is one delegated unit of work. A step is owned by the plan that
// contains it and is mutated in place by the worker that executes it.
type PlanStep struct {
	Agent     AgentName `json:"agent"`
	Action    string    `json:"action"`
	Completed bool      `json:"completed"`
	Result    string    `json:"result,omitempty"`
}

// Plan is an ordered sequence of delegated steps toward a goal.
//
// CurrentStepIndex is advisory bookkeeping for auto-advance on completion.
// The authoritative notion of progress is "first incomplete step in sequence
// order"; the two can diverge after out-of-order insertions.
type Plan struct {
	Goal             string     `json:"goal"`
	Steps            []PlanStep `json:"steps"`
	CurrentStepIndex int        `json:"current_step_index"`
}

// NewPlan creates a plan with the cursor at the first step.
func NewPlan(goal string, steps []PlanStep) *Plan {
	return &Plan{Goal: goal, Steps: steps}
}

// CurrentStep returns the step at the cursor, or nil when the cursor is past
// the end.
func (p *Plan) CurrentStep() *PlanStep {
	if p.CurrentStepIndex < 0 || p.CurrentStepIndex >= len(p.Steps) {
		return nil
	}
	return &p.Steps[p.CurrentStepIndex]
}

// NextIncompleteStep returns the first step in sequence order that has not
// completed, or nil when every step is done.
func (p *Plan) NextIncompleteStep() *PlanStep {
	for i := range p.Steps {
		if !p.Steps[i].Completed {
			return &p.Steps[i]
		}
	}
	return nil
}

// MarkCurrentStepCompleted records result on the step at the cursor and
// advances the cursor by one. It is a silent no-op when the cursor is already
// past the last step.
func (p *Plan) MarkCurrentStepCompleted(result string) {
	if step := p.CurrentStep(); step != nil {
		step.Completed = true
		step.Result = result
	}
	if p.CurrentStepIndex < len(p.Steps) {
		p.CurrentStepIndex++
	}
}

// IsComplete reports whether every step has completed. An empty plan is
// complete.
func (p *Plan) IsComplete() bool {
	for i := range p.Steps {
		if !p.Steps[i].Completed {
			return false
		}
	}
	return true
}

// InsertAfterCompleted splices steps immediately after the last completed
// step, preserving the relative order of the pending tail. With no completed
// steps the new steps go to the front.
func (p *Plan) InsertAfterCompleted(steps []PlanStep) {
	if len(steps) == 0 {
		return
	}
	pos := 0
	for i := range p.Steps {
		if p.Steps[i].Completed {
			pos = i + 1
		}
	}
	tail := make([]PlanStep, len(p.Steps[pos:]))
	copy(tail, p.Steps[pos:])
	p.Steps = append(p.Steps[:pos], append(steps, tail...)...)
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Steps = make([]PlanStep, len(p.Steps))
	copy(cp.Steps, p.Steps)
	return &cp
}
