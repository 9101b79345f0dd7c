package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/model"
	"github.com/threadloop/threadloop/search"
)

// noResultsText is the fixed synthesis output when the search returns no
// hits. No synthesis model call is made in that case.
const noResultsText = "No relevant search results found for this query."

// WebSearchOptions configures the web search agent.
type WebSearchOptions struct {
	Logger               logging.Logger
	ResultLimit          int
	QueryTemperature     float64
	SynthesisTemperature float64
}

// WebSearch is the research worker: it generates a search query, executes it
// and synthesizes the hits into prose.
type WebSearch struct {
	BaseAgent
	searcher search.Searcher
	opts     WebSearchOptions
}

// NewWebSearch creates the web search agent.
func NewWebSearch(m model.Model, searcher search.Searcher, optFns ...func(o *WebSearchOptions)) *WebSearch {
	opts := WebSearchOptions{
		ResultLimit:          5,
		QueryTemperature:     0.3,
		SynthesisTemperature: 0.5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WebSearch{
		BaseAgent: NewBaseAgent("web_search", "Searches the web for information and synthesizes results", m, opts.Logger),
		searcher:  searcher,
		opts:      opts,
	}
}

// Invoke implements Agent.
func (w *WebSearch) Invoke(ctx context.Context, state core.State) (core.State, error) {
	userRequest := state.FirstUserContent()
	var goal string
	if state.Plan != nil {
		goal = state.Plan.Goal
	}

	query, err := w.generateQuery(ctx, userRequest, goal, state.CurrentAction)
	if err != nil {
		return state, &core.AgentError{Agent: core.AgentWebSearch, Err: err}
	}
	w.logger.Info("generated search query", "query", query)

	results, err := w.searcher.Search(ctx, query, w.opts.ResultLimit)
	if err != nil {
		// Best-effort degradation: a failed search behaves like an empty
		// hit list so the run can still produce its no-results fallback.
		w.logger.Warn("web search failed", "query", query, "error", err)
		results = nil
	}
	w.logger.Info("web search executed", "results", len(results))

	synthesis, err := w.synthesize(ctx, results, userRequest, goal)
	if err != nil {
		return state, &core.AgentError{Agent: core.AgentWebSearch, Err: err}
	}

	newState := state.Clone()
	newState.WebResults = append(newState.WebResults, results...)
	if newState.Plan != nil {
		newState.Plan.MarkCurrentStepCompleted(synthesis)
	}
	newState.AppendAssistant(synthesis)
	return newState, nil
}

// generateQuery asks the model for a concise search query, stripping any
// wrapping quotes.
func (w *WebSearch) generateQuery(ctx context.Context, userRequest, goal, currentAction string) (string, error) {
	parts := []string{"User's request: " + userRequest}
	if goal != "" {
		parts = append(parts, "Overall goal: "+goal)
	}
	if currentAction != "" {
		parts = append(parts, "Current task direction: "+currentAction)
	}

	response, err := w.model.Complete(ctx, []core.Message{
		core.SystemMessage(queryGenerationPrompt),
		core.UserMessage(strings.Join(parts, "\n")),
	}, model.WithTemperature(w.opts.QueryTemperature))
	if err != nil {
		return "", fmt.Errorf("generate query: %w", err)
	}

	query := strings.TrimSpace(response)
	query = strings.Trim(query, `"`)
	query = strings.Trim(query, `'`)
	return query, nil
}

// synthesize summarizes the hits with one model call, or returns the fixed
// no-results sentence without calling the model when there are none.
func (w *WebSearch) synthesize(ctx context.Context, results []core.SearchResult, userRequest, goal string) (string, error) {
	if len(results) == 0 {
		return noResultsText, nil
	}

	resultTexts := make([]string, len(results))
	for i, r := range results {
		resultTexts[i] = fmt.Sprintf("**%s** (%s)\n%s\nURL: %s", r.Title, r.Source, r.Snippet, r.URL)
	}

	parts := []string{"User's request: " + userRequest}
	if goal != "" {
		parts = append(parts, "Goal: "+goal)
	}
	parts = append(parts, "\nSearch results:\n"+strings.Join(resultTexts, "\n\n"))
	parts = append(parts, "\nPlease synthesize these results to address the user's needs.")

	response, err := w.model.Complete(ctx, []core.Message{
		core.SystemMessage(synthesisPrompt),
		core.UserMessage(strings.Join(parts, "\n")),
	}, model.WithTemperature(w.opts.SynthesisTemperature))
	if err != nil {
		return "", fmt.Errorf("synthesize results: %w", err)
	}
	return response, nil
}
