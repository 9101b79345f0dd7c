// Package telemetry defines an optional observer invoked around every node
// execution and every external call (model, search, remote tool), with
// logging and OpenTelemetry-backed implementations.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/threadloop/threadloop/logging"
)

// Observer receives lifecycle callbacks from the workflow. Implementations
// must be safe for concurrent use across runs.
type Observer interface {
	// NodeStart is called before a node executes; the returned context is
	// passed to the node and to NodeEnd.
	NodeStart(ctx context.Context, node string) context.Context

	// NodeEnd is called after a node executes with its error, if any.
	NodeEnd(ctx context.Context, node string, err error)

	// ExternalCall is called after each collaborator call. Kind is one of
	// "model", "search" or "tool".
	ExternalCall(ctx context.Context, kind, name string, elapsed time.Duration, err error)
}

// NoopObserver ignores all callbacks.
type NoopObserver struct{}

// NodeStart implements Observer.
func (NoopObserver) NodeStart(ctx context.Context, _ string) context.Context { return ctx }

// NodeEnd implements Observer.
func (NoopObserver) NodeEnd(context.Context, string, error) {}

// ExternalCall implements Observer.
func (NoopObserver) ExternalCall(context.Context, string, string, time.Duration, error) {}

// LogObserver reports node and call activity through a structured logger.
type LogObserver struct {
	Logger logging.Logger
}

// NodeStart implements Observer.
func (o *LogObserver) NodeStart(ctx context.Context, node string) context.Context {
	o.Logger.Debug("node started", "node", node)
	return ctx
}

// NodeEnd implements Observer.
func (o *LogObserver) NodeEnd(_ context.Context, node string, err error) {
	if err != nil {
		o.Logger.Error("node failed", "node", node, "error", err)
		return
	}
	o.Logger.Info("node completed", "node", node)
}

// ExternalCall implements Observer.
func (o *LogObserver) ExternalCall(_ context.Context, kind, name string, elapsed time.Duration, err error) {
	if err != nil {
		o.Logger.Warn("external call failed", "kind", kind, "name", name, "duration", elapsed, "error", err)
		return
	}
	o.Logger.Debug("external call completed", "kind", kind, "name", name, "duration", elapsed)
}

// TraceObserver emits an OpenTelemetry span per node and an event per
// external call.
type TraceObserver struct {
	Tracer trace.Tracer
}

// NodeStart implements Observer.
func (o *TraceObserver) NodeStart(ctx context.Context, node string) context.Context {
	ctx, _ = o.Tracer.Start(ctx, "workflow.node."+node)
	return ctx
}

// NodeEnd implements Observer.
func (o *TraceObserver) NodeEnd(ctx context.Context, node string, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ExternalCall implements Observer.
func (o *TraceObserver) ExternalCall(ctx context.Context, kind, name string, elapsed time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	attrs := []attribute.KeyValue{
		attribute.String("call.kind", kind),
		attribute.String("call.name", name),
		attribute.Int64("call.duration_ms", elapsed.Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("call.error", err.Error()))
	}
	span.AddEvent("external_call", trace.WithAttributes(attrs...))
}
