package registry_test

import (
	"errors"
	"testing"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/graphdef"
	"github.com/flowcore-dev/flowcore/registry"
)

type constNode struct {
	flowcore.BaseNode
	value string
}

func (c *constNode) InputPorts() []flowcore.Port  { return nil }
func (c *constNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("value", flowcore.String)}
}
func (c *constNode) Execute(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	return map[string]flowcore.DataValue{"value": flowcore.NewString(c.value)}, nil
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.NewRegistry()
	err := r.Register(registry.NodeTypeMetadata{
		TypeID:   "const_string",
		Name:     "Constant String",
		Category: "data",
		Kind:     flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		value, _ := config["value"].(string)
		return &constNode{BaseNode: flowcore.NewBaseNode(id, id, flowcore.NodeKindSimple), value: value}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func TestRegisterDuplicateRejected(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register(registry.NodeTypeMetadata{TypeID: "const_string"}, nil)
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestCreateNodeUnknownType(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.CreateNode("does_not_exist", "n1", nil)
	if !errors.Is(err, flowcore.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestBuildGraphFromDefinitionAndExecute(t *testing.T) {
	r := newTestRegistry(t)
	def := &graphdef.GraphDefinition{
		Nodes: []graphdef.NodeDefinition{
			{ID: "n1", NodeType: "const_string", Config: map[string]any{"value": "hi"}},
		},
	}

	g, err := r.BuildGraphFromDefinition(def)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	result := g.ExecuteAndCaptureResults()
	if !result.Success() {
		t.Fatalf("expected success, got %q", result.ErrorMessage)
	}
	if got := result.NodeResults["n1"]["value"].AsString(); got != "hi" {
		t.Fatalf("expected hi, got %q", got)
	}

	typeID, ok := r.TypeOf("n1")
	if !ok || typeID != "const_string" {
		t.Fatalf("expected TypeOf to recover const_string, got %q (%v)", typeID, ok)
	}
}

func TestGetCategoriesAndTypesByCategory(t *testing.T) {
	r := newTestRegistry(t)
	cats := r.GetCategories()
	if len(cats) != 1 || cats[0] != "data" {
		t.Fatalf("expected [data], got %v", cats)
	}
	types := r.GetTypesByCategory("data")
	if len(types) != 1 || types[0].TypeID != "const_string" {
		t.Fatalf("unexpected types: %+v", types)
	}
}

func TestJSONToDataValue(t *testing.T) {
	v, ok := registry.JSONToDataValue(flowcore.Integer, float64(42))
	if !ok || v.AsInteger() != 42 {
		t.Fatalf("expected 42, got %v ok=%v", v, ok)
	}

	listVal, ok := registry.JSONToDataValue(flowcore.List(flowcore.String), []any{"a", "b"})
	if !ok || len(listVal.AsList()) != 2 {
		t.Fatalf("expected list of 2, got %v ok=%v", listVal, ok)
	}

	if strVal, ok := registry.JSONToDataValue(flowcore.Integer, "7"); !ok || strVal.AsInteger() != 7 {
		t.Fatalf("expected string \"7\" to coerce to Integer(7), got %v ok=%v", strVal, ok)
	}

	if boolVal, ok := registry.JSONToDataValue(flowcore.Boolean, "true"); !ok || !boolVal.AsBoolean() {
		t.Fatalf("expected string \"true\" to coerce to Boolean(true), got %v ok=%v", boolVal, ok)
	}

	if _, ok := registry.JSONToDataValue(flowcore.Integer, "not a number"); ok {
		t.Fatal("expected no value for a non-numeric string against Integer")
	}
}
