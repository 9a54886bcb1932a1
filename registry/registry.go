// Package registry is the process-wide node factory table: every node
// type a graph definition can reference must be registered here first,
// the way the original implementation's NODE_REGISTRY static works.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/graphdef"
)

// NodeFactory builds a live Node from a node id and its definition-time
// config. Implementations should treat config as untrusted JSON-shaped
// input and validate it explicitly.
type NodeFactory func(id string, config map[string]any) (flowcore.Node, error)

// NodeTypeMetadata describes a registered node type for introspection
// (CLI listings, UI palettes) without instantiating it.
type NodeTypeMetadata struct {
	TypeID      string
	Name        string
	Description string
	Category    string
	Kind        flowcore.NodeKind
	InputPorts  []flowcore.Port
	OutputPorts []flowcore.Port
}

// Registry holds the factory and metadata for every registered node
// type, guarded by a single RWMutex — reads (CreateNode, GetAllTypes) are far more frequent
// than writes (Register), which only happen during init.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]NodeFactory
	metadata  map[string]NodeTypeMetadata
	typeOf    map[string]string // node id -> type id, recorded by CreateNode
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]NodeFactory),
		metadata:  make(map[string]NodeTypeMetadata),
		typeOf:    make(map[string]string),
	}
}

// SetLogger installs the logger used to report node construction
// failures. A nil logger (the default) falls back to slog.Default().
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

var (
	globalOnce sync.Once
	globalReg  *Registry
)

// Global returns the process-wide Registry, creating it on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		globalReg = NewRegistry()
	})
	return globalReg
}

// Register adds a node type to the registry. Registering the same type
// id twice is an error; callers should check at process init time.
func (r *Registry) Register(meta NodeTypeMetadata, factory NodeFactory) error {
	if meta.TypeID == "" {
		return fmt.Errorf("flowcore/registry: node type metadata requires a TypeID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[meta.TypeID]; exists {
		return fmt.Errorf("flowcore/registry: node type %q is already registered", meta.TypeID)
	}
	r.factories[meta.TypeID] = factory
	r.metadata[meta.TypeID] = meta
	return nil
}

// Get returns the metadata registered for typeID, if any.
func (r *Registry) Get(typeID string) (NodeTypeMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[typeID]
	return meta, ok
}

// CreateNode instantiates a node of the given registered type. It
// records the mapping so a later BuildDefinitionFromGraph call can
// recover each node's type id via TypeOf.
func (r *Registry) CreateNode(typeID, nodeID string, config map[string]any) (flowcore.Node, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", flowcore.ErrUnknownType, typeID)
	}
	node, err := factory(nodeID, config)
	if err != nil {
		r.log().Error("node construction failed", "node_id", nodeID, "node_type", typeID, "error", err)
		return nil, fmt.Errorf("flowcore/registry: creating node %q (type %q): %w", nodeID, typeID, err)
	}
	r.mu.Lock()
	r.typeOf[nodeID] = typeID
	r.mu.Unlock()
	return node, nil
}

// TypeOf returns the registered type id the node was constructed from.
// It implements graphdef.NodeTyper.
func (r *Registry) TypeOf(nodeID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.typeOf[nodeID]
	return t, ok
}

// GetAllTypes returns every registered type's metadata, sorted by
// TypeID for deterministic CLI/UI listings.
func (r *Registry) GetAllTypes() []NodeTypeMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NodeTypeMetadata, 0, len(r.metadata))
	for _, meta := range r.metadata {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

// GetCategories returns the distinct, sorted set of categories among
// registered node types.
func (r *Registry) GetCategories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for _, meta := range r.metadata {
		if meta.Category != "" {
			seen[meta.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GetTypesByCategory returns registered types in a category, sorted by
// TypeID.
func (r *Registry) GetTypesByCategory(category string) []NodeTypeMetadata {
	all := r.GetAllTypes()
	out := make([]NodeTypeMetadata, 0, len(all))
	for _, meta := range all {
		if meta.Category == category {
			out = append(out, meta)
		}
	}
	return out
}

// BuildGraphFromDefinition materializes a GraphDefinition into an
// executable flowcore.Graph, instantiating every node via the registry
// and wiring explicit edges and inline values when present.
func (r *Registry) BuildGraphFromDefinition(def *graphdef.GraphDefinition) (*flowcore.Graph, error) {
	g := flowcore.NewGraph()
	nodesByID := make(map[string]flowcore.Node, len(def.Nodes))

	for _, nd := range def.Nodes {
		node, err := r.CreateNode(nd.NodeType, nd.ID, nd.Config)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("flowcore/registry: adding node %q: %w", nd.ID, err)
		}
		nodesByID[nd.ID] = node
	}

	if len(def.Edges) > 0 {
		edges := make([]flowcore.Edge, 0, len(def.Edges))
		for _, ed := range def.Edges {
			edges = append(edges, flowcore.Edge{
				FromNodeID: ed.FromNodeID,
				FromPort:   ed.FromPort,
				ToNodeID:   ed.ToNodeID,
				ToPort:     ed.ToPort,
			})
		}
		g.SetEdges(edges)
	}

	for nodeID, ports := range def.InlineValues {
		node, ok := nodesByID[nodeID]
		if !ok {
			return nil, fmt.Errorf("flowcore/registry: inline value for unknown node %q", nodeID)
		}
		for portName, raw := range ports {
			target, ok := findInputPort(node, portName)
			if !ok {
				return nil, fmt.Errorf("flowcore/registry: inline value for unknown port %q on node %q", portName, nodeID)
			}
			value, ok := JSONToDataValue(target, raw)
			if !ok {
				continue
			}
			g.SetInlineValue(nodeID, portName, value)
		}
	}

	return g, nil
}

func findInputPort(node flowcore.Node, name string) (flowcore.DataType, bool) {
	for _, p := range node.InputPorts() {
		if p.Name == name {
			return p.DataType, true
		}
	}
	return flowcore.DataType{}, false
}
