// Package obs adapts flowcore's run-level (ExecuteAndCaptureResults) and
// per-node (Observer) execution events into OpenTelemetry spans and
// metrics, grounded in the teacher's otel package. flowcore.Observer
// fires once per completed node with its final inputs/outputs rather
// than as separate started/finished/failed events, so each node gets a
// single point-in-time span instead of the teacher's start/end pair —
// node errors abort the run before Observer would fire for that node,
// so per-node failure is visible only as the run span's error status.
package obs

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowcore-dev/flowcore"
)

// TracingHandler creates OpenTelemetry spans for flowcore graph runs.
type TracingHandler struct {
	tracer trace.Tracer

	mu      sync.Mutex
	runCtx  map[string]context.Context
	runSpan map[string]trace.Span
}

// NewTracingHandler creates a TracingHandler using tracer to start spans.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:  tracer,
		runCtx:  make(map[string]context.Context),
		runSpan: make(map[string]trace.Span),
	}
}

// StartRun opens a root span named "run:<graphName>" (or "run:<runID>" if
// graphName is empty) and returns an Observer to attach to the graph via
// Graph.SetObserver plus a finish func to call once execution completes.
func (h *TracingHandler) StartRun(runID, graphName string) (flowcore.Observer, func(err error)) {
	spanName := "run:" + runID
	if graphName != "" {
		spanName = "run:" + graphName
	}

	ctx, span := h.tracer.Start(context.Background(), spanName,
		trace.WithAttributes(attribute.String("flowcore.run_id", runID)))
	if graphName != "" {
		span.SetAttributes(attribute.String("flowcore.graph", graphName))
	}

	h.mu.Lock()
	h.runCtx[runID] = ctx
	h.runSpan[runID] = span
	h.mu.Unlock()

	observer := func(nodeID string, inputs, outputs map[string]flowcore.DataValue) {
		_, nodeSpan := h.tracer.Start(ctx, "node:"+nodeID,
			trace.WithAttributes(
				attribute.String("flowcore.run_id", runID),
				attribute.String("flowcore.node_id", nodeID),
				attribute.Int("flowcore.input_count", len(inputs)),
				attribute.Int("flowcore.output_count", len(outputs)),
			),
		)
		nodeSpan.SetStatus(codes.Ok, "")
		nodeSpan.End()
	}

	finish := func(err error) {
		h.mu.Lock()
		span, ok := h.runSpan[runID]
		if ok {
			delete(h.runSpan, runID)
			delete(h.runCtx, runID)
		}
		h.mu.Unlock()
		if !ok {
			return
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	return observer, finish
}

// RunGraph executes g under a trace span named for graphName, wiring the
// per-node Observer and recording the run's outcome. The span is opened
// before Execute generates its own ExecutionResult.RunID, so the run and
// node spans start out with a freshly generated tracing id as
// flowcore.run_id; once the result is known, the run span's
// flowcore.run_id is replaced with the result's RunID (node spans keep
// the tracing id).
func (h *TracingHandler) RunGraph(g *flowcore.Graph, graphName string) *flowcore.ExecutionResult {
	tracingID := uuid.NewString()
	observer, finish := h.StartRun(tracingID, graphName)
	g.SetObserver(observer)

	result := g.ExecuteAndCaptureResults()

	h.mu.Lock()
	if span, ok := h.runSpan[tracingID]; ok {
		span.SetAttributes(attribute.String("flowcore.run_id", result.RunID))
	}
	h.mu.Unlock()

	var err error
	if !result.Success() {
		err = errorString(result.ErrorMessage)
	}
	finish(err)
	return result
}

type errorString string

func (e errorString) Error() string { return string(e) }
