package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "serper", cfg.Search.Provider)
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.Equal(t, 10, cfg.Workflow.MaxIterations)
	assert.Equal(t, 16, cfg.Workflow.EventBufferSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadloop.yaml")
	data := []byte(`
server:
  address: ":9999"
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
  api_key: test-key
search:
  provider: brave
  api_key: brave-key
  limit: 3
workflow:
  max_iterations: 25
fallback:
  search_keywords: [news, weather]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, "brave", cfg.Search.Provider)
	assert.Equal(t, 3, cfg.Search.Limit)
	assert.Equal(t, 25, cfg.Workflow.MaxIterations)
	assert.Equal(t, []string{"news", "weather"}, cfg.Fallback.SearchKeywords)
	// Defaults still apply for untouched sections.
	assert.Equal(t, "http://localhost:8001/mcp", cfg.Threads.MCPURL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("THREADLOOP_LLM_MODEL", "gpt-4o")
	t.Setenv("THREADLOOP_SEARCH_LIMIT", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Search.Limit)
}

func TestLoadProviderKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: cohere\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestLoadRejectsNonPositiveIterations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workflow:\n  max_iterations: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_iterations")
}
