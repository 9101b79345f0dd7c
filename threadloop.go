// Package threadloop provides a high-level façade over the agent workflow:
// a planner, an orchestrator, a web research worker, a Threads platform
// worker and a response synthesizer wired into a cyclic control flow graph.
// Most applications interact with this package by:
//  1. Creating a Threadloop via New() with a chat model, a web searcher and
//     a Threads MCP client
//  2. Running requests synchronously (Run) or consuming per-node events
//     (Stream)
//
// The façade delegates execution to workflow.Workflow while keeping setup
// ergonomics concise. The zero options are safe for local development;
// production deployments typically supply a structured logger and a tracing
// observer.
package threadloop

import (
	"context"

	"github.com/threadloop/threadloop/agent"
	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/mcp"
	"github.com/threadloop/threadloop/model"
	"github.com/threadloop/threadloop/search"
	"github.com/threadloop/threadloop/telemetry"
	"github.com/threadloop/threadloop/workflow"
)

// Options configures the Threadloop instance.
type Options struct {
	// MaxIterations bounds the total number of node executions per run,
	// guarding against orchestration loops that never complete.
	MaxIterations int

	// EventBufferSize sets the channel buffer size for streamed events.
	EventBufferSize int

	// SearchResultLimit caps results fetched per web search.
	SearchResultLimit int

	// Logger defaults to a no-op logger if nil.
	Logger logging.Logger

	// Observer receives node and external call lifecycle callbacks.
	// Defaults to a no-op observer if nil.
	Observer telemetry.Observer
}

// Threadloop is the high-level façade aggregating the agents and the graph.
type Threadloop struct {
	workflow *workflow.Workflow
}

// New assembles the default agent stack around the given collaborators.
func New(chatModel model.Model, searcher search.Searcher, toolClient mcp.Client, optFns ...func(o *Options)) *Threadloop {
	opts := Options{
		MaxIterations:     10,
		EventBufferSize:   16,
		SearchResultLimit: 5,
		Logger:            logging.NoOpLogger{},
		Observer:          telemetry.NoopObserver{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	chatModel = telemetry.InstrumentModel(chatModel, opts.Observer)
	searcher = telemetry.InstrumentSearcher(searcher, opts.Observer)
	toolClient = telemetry.InstrumentToolClient(toolClient, opts.Observer)

	planner := agent.NewPlanner(chatModel, func(o *agent.PlannerOptions) { o.Logger = opts.Logger })
	orchestrator := agent.NewOrchestrator(chatModel, func(o *agent.OrchestratorOptions) { o.Logger = opts.Logger })
	webSearch := agent.NewWebSearch(chatModel, searcher, func(o *agent.WebSearchOptions) {
		o.Logger = opts.Logger
		o.ResultLimit = opts.SearchResultLimit
	})
	threads := agent.NewThreads(chatModel, toolClient, func(o *agent.ThreadsOptions) { o.Logger = opts.Logger })
	response := agent.NewResponse(chatModel, func(o *agent.ResponseOptions) { o.Logger = opts.Logger })

	w := workflow.New(planner, orchestrator, webSearch, threads, response, func(o *workflow.Options) {
		o.MaxIterations = opts.MaxIterations
		o.EventBufferSize = opts.EventBufferSize
		o.Logger = opts.Logger
		o.Observer = opts.Observer
	})

	return &Threadloop{workflow: w}
}

// Run executes a request to completion and returns the final state.
func (t *Threadloop) Run(ctx context.Context, messages []core.Message) (core.State, error) {
	return t.workflow.Run(ctx, messages)
}

// RunPrompt is a convenience wrapper around Run for a single user prompt,
// returning the synthesized reply.
func (t *Threadloop) RunPrompt(ctx context.Context, prompt string) (string, error) {
	state, err := t.workflow.Run(ctx, []core.Message{core.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	return state.Output, nil
}

// Stream executes a request, emitting an event after every node. The event
// channel closes when the run finishes; a terminating failure is delivered
// on the error channel before both close.
func (t *Threadloop) Stream(ctx context.Context, messages []core.Message) (<-chan workflow.StepEvent, <-chan error) {
	return t.workflow.Stream(ctx, messages)
}
