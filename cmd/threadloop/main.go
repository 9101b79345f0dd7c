package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/threadloop/threadloop/agent"
	"github.com/threadloop/threadloop/api"
	"github.com/threadloop/threadloop/config"
	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/mcp"
	"github.com/threadloop/threadloop/model"
	anthropicmodel "github.com/threadloop/threadloop/model/anthropic"
	openaimodel "github.com/threadloop/threadloop/model/openai"
	"github.com/threadloop/threadloop/search"
	"github.com/threadloop/threadloop/telemetry"
	"github.com/threadloop/threadloop/workflow"
)

func main() {
	root := &cobra.Command{
		Use:   "threadloop",
		Short: "Multi-agent assistant for web research and Threads posting",
	}
	root.AddCommand(serveCmd(), runCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			w, err := buildWorkflow(cfg, logger)
			if err != nil {
				return err
			}

			server := api.NewServer(w, func(o *api.Options) { o.Logger = logger })

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start(cfg.Server.Address) }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML, optional)")
	return cmd
}

func runCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run a single request from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			w, err := buildWorkflow(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			prompt := strings.Join(args, " ")
			events, errCh := w.Stream(ctx, []core.Message{core.UserMessage(prompt)})

			var final core.State
			for ev := range events {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s]\n", ev.Node)
				final = ev.State
			}
			if err := <-errCh; err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), final.Output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML, optional)")
	return cmd
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)
}

// buildWorkflow wires every dependency explicitly: model, search, MCP,
// telemetry, agents, graph.
func buildWorkflow(cfg *config.Config, logger logging.Logger) (*workflow.Workflow, error) {
	obs := telemetry.Observer(&telemetry.TraceObserver{Tracer: otel.Tracer("threadloop")})
	if cfg.Logging.Level == "debug" {
		obs = &telemetry.LogObserver{Logger: logger}
	}

	chatModel, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}
	chatModel = telemetry.InstrumentModel(chatModel, obs)

	searcher, err := search.New(search.Provider(cfg.Search.Provider), cfg.Search.APIKey,
		func(o *search.Options) { o.Timeout = cfg.Search.Timeout })
	if err != nil {
		return nil, err
	}
	searcher = telemetry.InstrumentSearcher(searcher, obs)

	toolClient := mcp.Client(mcp.NewHTTPClient(cfg.Threads.MCPURL, func(o *mcp.Options) {
		o.BearerToken = cfg.Threads.BearerToken
		o.Timeout = cfg.Threads.Timeout
	}))
	toolClient = telemetry.InstrumentToolClient(toolClient, obs)

	planner := agent.NewPlanner(chatModel, func(o *agent.PlannerOptions) {
		o.Logger = logger
		if len(cfg.Fallback.SearchKeywords) > 0 {
			o.SearchKeywords = cfg.Fallback.SearchKeywords
		}
		if len(cfg.Fallback.PostKeywords) > 0 {
			o.PostKeywords = cfg.Fallback.PostKeywords
		}
	})
	orchestrator := agent.NewOrchestrator(chatModel, func(o *agent.OrchestratorOptions) {
		o.Logger = logger
	})
	webSearch := agent.NewWebSearch(chatModel, searcher, func(o *agent.WebSearchOptions) {
		o.Logger = logger
		o.ResultLimit = cfg.Search.Limit
	})
	threads := agent.NewThreads(chatModel, toolClient, func(o *agent.ThreadsOptions) {
		o.Logger = logger
	})
	response := agent.NewResponse(chatModel, func(o *agent.ResponseOptions) {
		o.Logger = logger
	})

	return workflow.New(planner, orchestrator, webSearch, threads, response,
		func(o *workflow.Options) {
			o.MaxIterations = cfg.Workflow.MaxIterations
			o.EventBufferSize = cfg.Workflow.EventBufferSize
			o.Logger = logger
			o.Observer = obs
		}), nil
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.LLM.Model
			o.APIKey = cfg.LLM.APIKey
			o.BaseURL = cfg.LLM.BaseURL
			o.Timeout = cfg.LLM.Timeout
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(cfg.LLM.Model)
			o.APIKey = cfg.LLM.APIKey
			o.Timeout = cfg.LLM.Timeout
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
