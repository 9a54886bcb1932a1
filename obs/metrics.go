package obs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/flowcore-dev/flowcore"
)

// MetricsHandler records OpenTelemetry counters and histograms for
// flowcore graph runs, grounded in the teacher's otel.MetricsHandler.
type MetricsHandler struct {
	nodeExecutions metric.Int64Counter
	runFailures    metric.Int64Counter
	runDuration    metric.Float64Histogram
}

// NewMetricsHandler creates a MetricsHandler using meter to create its
// instruments.
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	nodeExec, err := meter.Int64Counter("flowcore.node.executions",
		metric.WithDescription("Number of node executions observed across all runs"),
	)
	if err != nil {
		return nil, err
	}
	runFail, err := meter.Int64Counter("flowcore.run.failures",
		metric.WithDescription("Number of graph runs that ended in error"),
	)
	if err != nil {
		return nil, err
	}
	runDur, err := meter.Float64Histogram("flowcore.run.duration",
		metric.WithDescription("Duration of a graph run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHandler{nodeExecutions: nodeExec, runFailures: runFail, runDuration: runDur}, nil
}

// Observer returns a flowcore.Observer that increments the node
// execution counter once per completed node.
func (h *MetricsHandler) Observer() flowcore.Observer {
	return func(nodeID string, inputs, outputs map[string]flowcore.DataValue) {
		h.nodeExecutions.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("node_id", nodeID)))
	}
}

// ComposeObservers returns an Observer that calls each of observers in
// order. Graph.SetObserver only holds one callback, so a caller wanting
// both tracing spans and metrics on the same run wires them together
// with this before calling SetObserver.
func ComposeObservers(observers ...flowcore.Observer) flowcore.Observer {
	return func(nodeID string, inputs, outputs map[string]flowcore.DataValue) {
		for _, o := range observers {
			if o != nil {
				o(nodeID, inputs, outputs)
			}
		}
	}
}

// RunGraph executes g, wiring Observer for per-node counts and recording
// the run's duration and failure outcome.
func (h *MetricsHandler) RunGraph(g *flowcore.Graph) *flowcore.ExecutionResult {
	g.SetObserver(h.Observer())

	start := time.Now()
	result := g.ExecuteAndCaptureResults()
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(attribute.String("run_id", result.RunID))
	h.runDuration.Record(context.Background(), elapsed.Seconds(), attrs)
	if !result.Success() {
		h.runFailures.Add(context.Background(), 1, attrs)
	}

	return result
}
