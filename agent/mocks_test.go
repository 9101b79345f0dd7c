package agent

import (
	"context"
	"sync"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/mcp"
)

type mockSearcher struct {
	mu      sync.Mutex
	results []core.SearchResult
	err     error
	queries []string
	limits  []int
}

func (s *mockSearcher) Search(_ context.Context, query string, limit int) ([]core.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type mockToolClient struct {
	mu        sync.Mutex
	tools     []mcp.Tool
	listErr   error
	listCalls int
	results   map[string]string
	callErrs  map[string]error
	called    []string
}

func (c *mockToolClient) ListTools(context.Context) ([]mcp.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.tools, nil
}

func (c *mockToolClient) CallTool(_ context.Context, name string, _ map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.called = append(c.called, name)
	if err, ok := c.callErrs[name]; ok {
		return "", err
	}
	return c.results[name], nil
}
