// Package api exposes the workflow over HTTP: a streaming SSE chat
// endpoint, a synchronous variant, and a health check.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/logging"
	"github.com/threadloop/threadloop/workflow"
)

// Runner executes the agent workflow. *workflow.Workflow satisfies it.
type Runner interface {
	Run(ctx context.Context, messages []core.Message) (core.State, error)
	Stream(ctx context.Context, messages []core.Message) (<-chan workflow.StepEvent, <-chan error)
}

// Options configures the server.
type Options struct {
	Logger logging.Logger
}

// Server wraps an echo instance serving the chat API.
type Server struct {
	echo   *echo.Echo
	runner Runner
	logger logging.Logger
}

// NewServer builds the HTTP server around the given workflow runner.
func NewServer(runner Runner, optFns ...func(o *Options)) *Server {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	s := &Server{echo: e, runner: runner, logger: opts.Logger}

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Error("request failed", "status", code, "method", req.Method, "path", req.URL.Path, "error", err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}

	e.GET("/healthz", s.health)
	e.GET("/", s.root)
	e.POST("/chat", s.chatStream)
	e.POST("/chat/sync", s.chatSync)

	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting HTTP server", "address", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":   "threadloop",
		"status": "running",
	})
}

func (s *Server) chatSync(c echo.Context) error {
	req, err := bindChatRequest(c)
	if err != nil {
		return err
	}
	s.logger.Info("sync chat request", "messages", len(req.Messages))

	state, err := s.runner.Run(c.Request().Context(), req.Messages)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := ChatResponse{Content: finalContent(state)}
	if state.Plan != nil {
		for _, step := range state.Plan.Steps {
			resp.AgentTrace = append(resp.AgentTrace, TraceStep{
				Agent:     step.Agent,
				Action:    step.Action,
				Completed: step.Completed,
				Result:    step.Result,
			})
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) chatStream(c echo.Context) error {
	req, err := bindChatRequest(c)
	if err != nil {
		return err
	}
	s.logger.Info("chat request", "messages", len(req.Messages))

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	ctx := c.Request().Context()
	events, errCh := s.runner.Stream(ctx, req.Messages)

	send := func(name string, ev StreamEvent) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("event: " + name + "\n")); err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	emitted := 0 // tool results already streamed
	for ev := range events {
		if err := send("agent", StreamEvent{Type: "agent", AgentName: string(ev.Node), Status: "completed"}); err != nil {
			return err
		}

		if n := len(ev.State.Messages); n > 0 {
			if last := ev.State.Messages[n-1]; last.Role == core.RoleAssistant {
				if err := send("token", StreamEvent{Type: "token", Content: last.Content}); err != nil {
					return err
				}
			}
		}

		if ev.Node == workflow.NodeThreads {
			for ; emitted < len(ev.State.ThreadsResults); emitted++ {
				result := ev.State.ThreadsResults[emitted]
				if err := send("tool_call", StreamEvent{Type: "tool_call", ToolName: "threads_action", ToolResult: result.Result}); err != nil {
					return err
				}
			}
		}
	}

	if err := <-errCh; err != nil {
		s.logger.Error("stream failed", "error", err)
		return send("error", StreamEvent{Type: "error", Error: err.Error()})
	}
	return send("done", StreamEvent{Type: "done", Content: "Workflow completed successfully"})
}

func bindChatRequest(c echo.Context) (ChatRequest, error) {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Messages) == 0 {
		return req, echo.NewHTTPError(http.StatusBadRequest, "messages must not be empty")
	}
	return req, nil
}

// finalContent returns the last assistant message, falling back to the
// synthesized output field.
func finalContent(state core.State) string {
	if n := len(state.Messages); n > 0 {
		if last := state.Messages[n-1]; last.Role == core.RoleAssistant {
			return last.Content
		}
	}
	return state.Output
}
