package flowcore

import (
	"encoding/json"
	"fmt"
)

// Node is a long-lived computational unit with typed input/output ports.
// Ports reported by a node must never change across calls. Execute and
// OnUpdate must return only outputs listed in OutputPorts. Inputs passed
// in are guaranteed type-correct by the scheduler's validation pass.
type Node interface {
	ID() string
	Name() string
	Description() string

	// Kind reports whether the node runs once per pass (Simple) or opens
	// a streaming subgraph (EventProducer).
	Kind() NodeKind

	InputPorts() []Port
	OutputPorts() []Port

	// Execute runs the node's batch operation.
	Execute(inputs map[string]DataValue) (map[string]DataValue, error)

	// OnStart is called once before the OnUpdate loop begins, for
	// EventProducer nodes. The default no-op is adequate for Simple nodes.
	OnStart(inputs map[string]DataValue) error

	// OnUpdate is called repeatedly for EventProducer nodes; returning
	// (nil, nil) signals the stream is exhausted.
	OnUpdate() (map[string]DataValue, error)

	// OnCleanup releases resources after the OnUpdate loop exits.
	OnCleanup() error
}

// BaseNode provides identity bookkeeping and the default lifecycle hooks
// (no-op OnStart/OnCleanup, "no value" OnUpdate) so concrete node types
// only need to implement Execute plus whichever hooks they need.
type BaseNode struct {
	id   string
	name string
	desc string
	kind NodeKind
}

// NewBaseNode creates a BaseNode. kind defaults to NodeKindSimple when
// empty.
func NewBaseNode(id, name string, kind NodeKind) BaseNode {
	if kind == "" {
		kind = NodeKindSimple
	}
	return BaseNode{id: id, name: name, kind: kind}
}

func (b BaseNode) ID() string          { return b.id }
func (b BaseNode) Name() string        { return b.name }
func (b BaseNode) Description() string { return b.desc }
func (b BaseNode) Kind() NodeKind      { return b.kind }

// WithDescription is used by concrete node constructors to set a
// human-readable description; BaseNode is usually embedded by value, so
// this returns an updated copy.
func (b BaseNode) WithDescription(desc string) BaseNode {
	b.desc = desc
	return b
}

func (b BaseNode) OnStart(map[string]DataValue) error             { return nil }
func (b BaseNode) OnUpdate() (map[string]DataValue, error)         { return nil, nil }
func (b BaseNode) OnCleanup() error                                { return nil }

// ValidateInputs succeeds iff every required input port has a present
// value and every present value's DataType exactly equals its port's
// declared type.
func ValidateInputs(n Node, inputs map[string]DataValue) error {
	for _, port := range n.InputPorts() {
		value, ok := inputs[port.Name]
		if !ok {
			if port.Required {
				return fmt.Errorf("%w: required input port %q is missing", ErrValidation, port.Name)
			}
			continue
		}
		if !value.DataType().Equal(port.DataType) {
			return fmt.Errorf("%w: input port %q expects type %s, got %s",
				ErrValidation, port.Name, port.DataType, value.DataType())
		}
	}
	return nil
}

// ValidateOutputs succeeds iff every present output's type equals its
// declared port type. Missing optional or required outputs are permitted;
// only a type mismatch on a present value is an error.
func ValidateOutputs(n Node, outputs map[string]DataValue) error {
	for _, port := range n.OutputPorts() {
		value, ok := outputs[port.Name]
		if !ok {
			continue
		}
		if !value.DataType().Equal(port.DataType) {
			return fmt.Errorf("%w: output port %q expects type %s, got %s",
				ErrValidation, port.Name, port.DataType, value.DataType())
		}
	}
	return nil
}

// NodeJSON is the introspection shape produced by ToJSON, useful for UI
// and debugging tooling.
type NodeJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"node_type"`
	InputPorts  []Port `json:"input_ports"`
	OutputPorts []Port `json:"output_ports"`
}

// ToJSON renders a node's identity and shape for introspection.
func ToJSON(n Node) ([]byte, error) {
	return json.Marshal(NodeJSON{
		ID:          n.ID(),
		Name:        n.Name(),
		Description: n.Description(),
		Kind:        string(n.Kind()),
		InputPorts:  n.InputPorts(),
		OutputPorts: n.OutputPorts(),
	})
}
