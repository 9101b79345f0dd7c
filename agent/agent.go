// Package agent implements the five workers of the workflow: planning,
// orchestration, web search, Threads platform actions and response synthesis.
// Each agent consumes the run state and returns an updated copy.
package agent

import (
	"context"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/model"
)

// Agent is one node of the workflow graph.
type Agent interface {
	// Name returns the unique node name of the agent.
	Name() string

	// Description returns a human readable summary of the agent's purpose.
	Description() string

	// Invoke executes the agent against the current state and returns the
	// updated state.
	Invoke(ctx context.Context, state core.State) (core.State, error)
}

// BaseAgent carries the identity and collaborators shared by all agents.
type BaseAgent struct {
	name        string
	description string
	model       model.Model
	logger      logging.Logger
}

// NewBaseAgent creates the shared agent core.
func NewBaseAgent(name, description string, m model.Model, logger logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{name: name, description: description, model: m, logger: logger}
}

// Name returns the agent name.
func (a *BaseAgent) Name() string { return a.name }

// Description returns the agent description.
func (a *BaseAgent) Description() string { return a.description }
