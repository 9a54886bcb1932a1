package flowcore

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Edge is an explicit directed connection binding one output port to one
// input port. When a Graph has any edges, edge mode is authoritative and
// name-matching is disabled (spec.md §4.3); the two modes are never mixed.
type Edge struct {
	FromNodeID string
	FromPort   string
	ToNodeID   string
	ToPort     string
}

// Observer is invoked by the scheduler after each node executes, for UI
// or test purposes. It runs on the scheduler's single logical thread of
// control and must not block.
type Observer func(nodeID string, inputs, outputs map[string]DataValue)

// Graph holds a node_id -> Node map, an optional list of edges, a
// per-node inline-value overlay, a cooperative stop flag, and an
// optional execution observer.
type Graph struct {
	nodes        map[string]Node
	order        []string // insertion order, for stable iteration
	edges        []Edge
	inlineValues map[string]map[string]DataValue

	stopFlag atomic.Bool
	observer Observer
	logger   *slog.Logger
}

// NewGraph creates an empty Graph. The stop flag starts cleared.
func NewGraph() *Graph {
	return &Graph{
		nodes:        make(map[string]Node),
		inlineValues: make(map[string]map[string]DataValue),
	}
}

// AddNode adds a node to the graph. It is an error to add a node under an
// id that is already present.
func (g *Graph) AddNode(n Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrValidation)
	}
	id := n.ID()
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return nil
}

// Node returns the node registered under id, if any.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// SetInlineValue sets a per-node overlay default for an input port. It
// satisfies Required even in the absence of an incoming edge or
// name-matched producer, but never overrides a value arriving via an
// edge or name-matched producer.
func (g *Graph) SetInlineValue(nodeID, portName string, value DataValue) {
	if g.inlineValues[nodeID] == nil {
		g.inlineValues[nodeID] = make(map[string]DataValue)
	}
	g.inlineValues[nodeID][portName] = value
}

// InlineValues returns the inline value overlay for a node, or nil.
func (g *Graph) InlineValues(nodeID string) map[string]DataValue {
	return g.inlineValues[nodeID]
}

// SetEdges installs the graph's explicit edge list, switching the
// scheduler into edge mode. Passing an empty slice reverts to name-match
// mode.
func (g *Graph) SetEdges(edges []Edge) {
	g.edges = edges
}

// Edges returns the graph's explicit edges.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// SetObserver installs the execution-observer callback, replacing any
// previous one.
func (g *Graph) SetObserver(obs Observer) {
	g.observer = obs
}

func (g *Graph) notify(nodeID string, inputs, outputs map[string]DataValue) {
	if g.observer != nil {
		g.observer(nodeID, inputs, outputs)
	}
}

// SetLogger installs the logger used to report node failures and cycle
// detection during Execute/ExecuteAndCaptureResults. A nil logger (the
// default) falls back to slog.Default() at the point of use, so a graph
// built before any global slog configuration still logs somewhere
// reasonable once one is set.
func (g *Graph) SetLogger(logger *slog.Logger) {
	g.logger = logger
}

func (g *Graph) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// RequestStop sets the cooperative stop flag. Event-producer root loops
// observe it at the top of each on_update iteration; it never truncates
// an in-flight on_update.
func (g *Graph) RequestStop() {
	g.stopFlag.Store(true)
}

// ResetStopFlag clears the stop flag. The flag is level-triggered;
// resetting it before a new execution is the caller's responsibility.
func (g *Graph) ResetStopFlag() {
	g.stopFlag.Store(false)
}

// Stopped reports the current value of the stop flag.
func (g *Graph) Stopped() bool {
	return g.stopFlag.Load()
}
