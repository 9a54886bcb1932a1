// Package graphdef is the serializable intermediate representation of a
// Graph: node shapes, edges, and UI layout, independent of any live Node
// implementation. A Registry turns a GraphDefinition into an executable
// flowcore.Graph; BuildDefinitionFromGraph goes the other way for
// inspection and persistence.
package graphdef

import (
	"encoding/json"
	"fmt"

	"github.com/flowcore-dev/flowcore"
)

// GraphPosition is a node's canvas coordinate, in the same units a UI
// would use to lay out a graph editor.
type GraphPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphSize is a node's canvas footprint.
type GraphSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NodeDefinition is one node's serializable shape: identity, declared
// ports, and layout. Config carries type-specific construction
// parameters consumed by the factory registered under NodeType.
type NodeDefinition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	NodeType    string          `json:"node_type"`
	InputPorts  []flowcore.Port `json:"input_ports,omitempty"`
	OutputPorts []flowcore.Port `json:"output_ports,omitempty"`
	Config      map[string]any  `json:"config,omitempty"`
	Position    *GraphPosition  `json:"position,omitempty"`
	Size        *GraphSize      `json:"size,omitempty"`
}

// EdgeDefinition is a serializable explicit connection between two ports.
type EdgeDefinition struct {
	FromNodeID string `json:"from_node_id"`
	FromPort   string `json:"from_port"`
	ToNodeID   string `json:"to_node_id"`
	ToPort     string `json:"to_port"`
}

// GraphDefinition is the full serializable shape of a Graph: its nodes,
// its edges (empty when the graph relies on name-matching), and inline
// values keyed by node id then port name. InlineValues are stored as
// plain JSON rather than DataValue: like the original implementation
// (whose DataValue has a Serialize impl but no matching Deserialize),
// a bare JSON value is ambiguous on its own — String and Password both
// round-trip through a JSON string, for instance — so turning one back
// into a DataValue requires the target port's declared DataType.
// registry.BuildGraphFromDefinition does that coercion at build time.
type GraphDefinition struct {
	ID           string                     `json:"id,omitempty"`
	Name         string                     `json:"name,omitempty"`
	Nodes        []NodeDefinition           `json:"nodes"`
	Edges        []EdgeDefinition           `json:"edges,omitempty"`
	InlineValues map[string]map[string]any `json:"inline_values,omitempty"`
}

const (
	layoutCols       = 4
	layoutColSpacing = 220.0
	layoutRowSpacing = 140.0
	layoutOriginX    = 40.0
	layoutOriginY    = 40.0
)

// EnsurePositions assigns a deterministic grid position (four columns,
// 220x140 spacing, origin at (40,40)) to every node that doesn't already
// carry one, in the order nodes appear in the definition. It never
// overwrites an existing position, so re-saving a graph a UI has already
// laid out does not reshuffle it.
func EnsurePositions(def *GraphDefinition) {
	slot := 0
	for i := range def.Nodes {
		if def.Nodes[i].Position != nil {
			continue
		}
		col := slot % layoutCols
		row := slot / layoutCols
		def.Nodes[i].Position = &GraphPosition{
			X: layoutOriginX + float64(col)*layoutColSpacing,
			Y: layoutOriginY + float64(row)*layoutRowSpacing,
		}
		slot++
	}
}

// LoadJSON parses a GraphDefinition from JSON bytes.
func LoadJSON(data []byte) (*GraphDefinition, error) {
	var def GraphDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("flowcore/graphdef: parsing graph definition: %w", err)
	}
	return &def, nil
}

// SaveJSON serializes a GraphDefinition to indented JSON, assigning grid
// positions to any node that doesn't already have one.
func SaveJSON(def *GraphDefinition) ([]byte, error) {
	EnsurePositions(def)
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("flowcore/graphdef: encoding graph definition: %w", err)
	}
	return data, nil
}

// NodeTyper resolves the registered type id a live node was constructed
// from. A Registry satisfies this by recording constructor type ids
// alongside the nodes it builds.
type NodeTyper interface {
	TypeOf(nodeID string) (string, bool)
}

// BuildDefinitionFromGraph projects a live Graph back into its
// serializable shape, for round-tripping through a UI or a store. The
// projection carries node identity, ports, and explicit edges; it never
// carries transient Execute results (those belong to ExecutionResult,
// not the graph's static shape).
func BuildDefinitionFromGraph(g *flowcore.Graph, typer NodeTyper) (*GraphDefinition, error) {
	def := &GraphDefinition{
		InlineValues: make(map[string]map[string]any),
	}

	for _, n := range g.Nodes() {
		nodeType := ""
		if typer != nil {
			if t, ok := typer.TypeOf(n.ID()); ok {
				nodeType = t
			}
		}
		def.Nodes = append(def.Nodes, NodeDefinition{
			ID:          n.ID(),
			Name:        n.Name(),
			Description: n.Description(),
			NodeType:    nodeType,
			InputPorts:  n.InputPorts(),
			OutputPorts: n.OutputPorts(),
		})
		if inline := g.InlineValues(n.ID()); len(inline) > 0 {
			jsonInline := make(map[string]any, len(inline))
			for port, value := range inline {
				jsonInline[port] = value.ToJSON()
			}
			def.InlineValues[n.ID()] = jsonInline
		}
	}

	for _, e := range g.Edges() {
		def.Edges = append(def.Edges, EdgeDefinition{
			FromNodeID: e.FromNodeID,
			FromPort:   e.FromPort,
			ToNodeID:   e.ToNodeID,
			ToPort:     e.ToPort,
		})
	}

	EnsurePositions(def)
	return def, nil
}
