package telemetry

import (
	"context"
	"time"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/mcp"
	"github.com/threadloop/threadloop/model"
	"github.com/threadloop/threadloop/search"
)

// InstrumentModel wraps a model so every completion reports an ExternalCall.
func InstrumentModel(inner model.Model, obs Observer) model.Model {
	return &observedModel{inner: inner, obs: obs}
}

type observedModel struct {
	inner model.Model
	obs   Observer
}

func (m *observedModel) Complete(ctx context.Context, messages []core.Message, optFns ...func(o *model.CallOptions)) (string, error) {
	start := time.Now()
	out, err := m.inner.Complete(ctx, messages, optFns...)
	m.obs.ExternalCall(ctx, "model", m.inner.Info().Name, time.Since(start), err)
	return out, err
}

func (m *observedModel) CompleteWithTools(ctx context.Context, messages []core.Message, tools []model.ToolDefinition, optFns ...func(o *model.CallOptions)) (*model.ToolResponse, error) {
	start := time.Now()
	out, err := m.inner.CompleteWithTools(ctx, messages, tools, optFns...)
	m.obs.ExternalCall(ctx, "model", m.inner.Info().Name, time.Since(start), err)
	return out, err
}

func (m *observedModel) Info() model.Info { return m.inner.Info() }

// InstrumentSearcher wraps a searcher so every query reports an ExternalCall.
func InstrumentSearcher(inner search.Searcher, obs Observer) search.Searcher {
	return &observedSearcher{inner: inner, obs: obs}
}

type observedSearcher struct {
	inner search.Searcher
	obs   Observer
}

func (s *observedSearcher) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	start := time.Now()
	out, err := s.inner.Search(ctx, query, limit)
	s.obs.ExternalCall(ctx, "search", query, time.Since(start), err)
	return out, err
}

// InstrumentToolClient wraps a remote tool client so discovery and every
// invocation report an ExternalCall.
func InstrumentToolClient(inner mcp.Client, obs Observer) mcp.Client {
	return &observedToolClient{inner: inner, obs: obs}
}

type observedToolClient struct {
	inner mcp.Client
	obs   Observer
}

func (c *observedToolClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	start := time.Now()
	out, err := c.inner.ListTools(ctx)
	c.obs.ExternalCall(ctx, "tool", "tools/list", time.Since(start), err)
	return out, err
}

func (c *observedToolClient) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	start := time.Now()
	out, err := c.inner.CallTool(ctx, name, arguments)
	c.obs.ExternalCall(ctx, "tool", name, time.Since(start), err)
	return out, err
}
