// Package config loads application configuration from an optional YAML
// file and THREADLOOP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Threads  ThreadsConfig  `mapstructure:"threads"`
	Search   SearchConfig   `mapstructure:"search"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Fallback FallbackConfig `mapstructure:"fallback"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig selects and configures the chat model provider.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"` // openai or anthropic
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ThreadsConfig points at the Threads MCP server.
type ThreadsConfig struct {
	MCPURL      string        `mapstructure:"mcp_url"`
	BearerToken string        `mapstructure:"bearer_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SearchConfig configures the web search provider.
type SearchConfig struct {
	Provider string        `mapstructure:"provider"` // serper or brave
	APIKey   string        `mapstructure:"api_key"`
	Limit    int           `mapstructure:"limit"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// WorkflowConfig bounds graph execution.
type WorkflowConfig struct {
	MaxIterations   int `mapstructure:"max_iterations"`
	EventBufferSize int `mapstructure:"event_buffer_size"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// FallbackConfig tunes the deterministic plan used when the model
// returns an unusable plan.
type FallbackConfig struct {
	SearchKeywords []string `mapstructure:"search_keywords"`
	PostKeywords   []string `mapstructure:"post_keywords"`
}

// Load reads configuration from the given file (optional, YAML) and the
// environment. Environment variables use the THREADLOOP prefix with
// underscores, e.g. THREADLOOP_LLM_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("THREADLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("threadloop")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("threads.mcp_url", "http://localhost:8001/mcp")
	v.SetDefault("threads.timeout", "30s")

	v.SetDefault("search.provider", "serper")
	v.SetDefault("search.limit", 5)
	v.SetDefault("search.timeout", "30s")

	v.SetDefault("workflow.max_iterations", 10)
	v.SetDefault("workflow.event_buffer_size", 16)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv picks up the conventional provider key variables so
// operators do not have to duplicate them under the THREADLOOP prefix.
func overrideFromEnv(v *viper.Viper) {
	provider := v.GetString("llm.provider")
	if v.GetString("llm.api_key") == "" {
		switch provider {
		case "anthropic":
			if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
				v.Set("llm.api_key", key)
			}
		default:
			if key := os.Getenv("OPENAI_API_KEY"); key != "" {
				v.Set("llm.api_key", key)
			}
		}
	}

	if v.GetString("search.api_key") == "" {
		switch v.GetString("search.provider") {
		case "brave":
			if key := os.Getenv("BRAVE_SEARCH_KEY"); key != "" {
				v.Set("search.api_key", key)
			}
		default:
			if key := os.Getenv("SERPER_API_KEY"); key != "" {
				v.Set("search.api_key", key)
			}
		}
	}

	if v.GetString("threads.bearer_token") == "" {
		if token := os.Getenv("THREADS_BEARER_TOKEN"); token != "" {
			v.Set("threads.bearer_token", token)
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	switch cfg.Search.Provider {
	case "serper", "brave":
	default:
		return fmt.Errorf("unknown search provider %q", cfg.Search.Provider)
	}

	if cfg.Workflow.MaxIterations <= 0 {
		return fmt.Errorf("workflow.max_iterations must be positive, got %d", cfg.Workflow.MaxIterations)
	}
	if cfg.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive, got %d", cfg.Search.Limit)
	}

	return nil
}
