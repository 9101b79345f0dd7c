// Package workflow wires the five agents into a cyclic control flow graph:
// planning feeds the orchestrator, the orchestrator routes to a worker or to
// the response synthesizer, and workers loop back to the orchestrator. The
// topology is fixed, so it is implemented as an explicit state machine
// rather than a generic graph engine.
package workflow

import (
	"context"

	"github.com/threadloop/threadloop/agent"
	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/telemetry"
)

// Node names one vertex of the graph.
type Node string

const (
	// NodePlanning is the entry node.
	NodePlanning Node = "planning"
	// NodeOrchestrator is the loop control node.
	NodeOrchestrator Node = "orchestrator"
	// NodeWebSearch is the web research worker node.
	NodeWebSearch Node = "web_search"
	// NodeThreads is the platform action worker node.
	NodeThreads Node = "threads"
	// NodeResponse is the terminal node.
	NodeResponse Node = "response"

	// nodeEnd is the internal terminal marker.
	nodeEnd Node = ""
)

// StepEvent is emitted after a node executes, carrying the node name and the
// state as of that point.
type StepEvent struct {
	Node  Node       `json:"node"`
	State core.State `json:"state"`
}

// Options configures a workflow.
type Options struct {
	// MaxIterations bounds the total number of node executions per run.
	MaxIterations int
	// EventBufferSize sizes the streaming event channel.
	EventBufferSize int
	Logger          logging.Logger
	Observer        telemetry.Observer
}

// Workflow executes runs over a fixed set of agents. It holds no per-run
// state, so one workflow serves concurrent runs.
type Workflow struct {
	planner      agent.Agent
	orchestrator agent.Agent
	webSearch    agent.Agent
	threads      agent.Agent
	response     agent.Agent
	opts         Options
}

// New assembles the workflow graph from its five agents.
func New(planner, orchestrator, webSearch, threads, response agent.Agent, optFns ...func(o *Options)) *Workflow {
	opts := Options{
		MaxIterations:   10,
		EventBufferSize: 16,
		Logger:          logging.NoOpLogger{},
		Observer:        telemetry.NoopObserver{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Workflow{
		planner:      planner,
		orchestrator: orchestrator,
		webSearch:    webSearch,
		threads:      threads,
		response:     response,
		opts:         opts,
	}
}

func (w *Workflow) agentFor(node Node) agent.Agent {
	switch node {
	case NodePlanning:
		return w.planner
	case NodeOrchestrator:
		return w.orchestrator
	case NodeWebSearch:
		return w.webSearch
	case NodeThreads:
		return w.threads
	default:
		return w.response
	}
}

// transition returns the node following node. The orchestrator's outgoing
// edge is conditional on the routing directive; an unrecognized directive
// resolves to the response synthesizer.
func transition(node Node, state core.State) Node {
	switch node {
	case NodePlanning:
		return NodeOrchestrator
	case NodeOrchestrator:
		switch state.NextAgent {
		case core.AgentWebSearch:
			return NodeWebSearch
		case core.AgentThreads:
			return NodeThreads
		default:
			return NodeResponse
		}
	case NodeWebSearch, NodeThreads:
		return NodeOrchestrator
	default:
		return nodeEnd
	}
}

// Run executes the graph to completion and returns the final state.
func (w *Workflow) Run(ctx context.Context, messages []core.Message) (core.State, error) {
	state := core.NewState(messages)
	w.opts.Logger.Info("starting workflow run")

	node := NodePlanning
	for i := 0; i < w.opts.MaxIterations; i++ {
		next, err := w.step(ctx, node, &state)
		if err != nil {
			return state, err
		}
		if next == nodeEnd {
			w.opts.Logger.Info("workflow run completed")
			return state, nil
		}
		node = next
	}
	return state, &core.MaxIterationsError{Limit: w.opts.MaxIterations}
}

// Stream executes the graph, emitting a StepEvent after every node. The
// event channel closes when the run finishes; a terminating failure is
// delivered on the error channel before both close.
func (w *Workflow) Stream(ctx context.Context, messages []core.Message) (<-chan StepEvent, <-chan error) {
	events := make(chan StepEvent, w.opts.EventBufferSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errCh)

		state := core.NewState(messages)
		w.opts.Logger.Info("starting workflow stream")

		node := NodePlanning
		for i := 0; i < w.opts.MaxIterations; i++ {
			next, err := w.step(ctx, node, &state)
			if err != nil {
				errCh <- err
				return
			}

			select {
			case events <- StepEvent{Node: node, State: state}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}

			if next == nodeEnd {
				w.opts.Logger.Info("workflow stream completed")
				return
			}
			node = next
		}
		errCh <- &core.MaxIterationsError{Limit: w.opts.MaxIterations}
	}()

	return events, errCh
}

// step runs one node, updating state in place, and returns the next node.
func (w *Workflow) step(ctx context.Context, node Node, state *core.State) (Node, error) {
	if err := ctx.Err(); err != nil {
		return nodeEnd, err
	}

	nodeCtx := w.opts.Observer.NodeStart(ctx, string(node))

	newState, err := w.agentFor(node).Invoke(nodeCtx, *state)
	w.opts.Observer.NodeEnd(nodeCtx, string(node), err)
	if err != nil {
		w.opts.Logger.Error("node failed", "node", node, "error", err)
		return nodeEnd, err
	}

	*state = newState
	return transition(node, newState), nil
}
