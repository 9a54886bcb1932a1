package nodes_test

import (
	"testing"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/nodes"
)

func TestStringDataNodeOutputsConfiguredValue(t *testing.T) {
	n := nodes.NewStringDataNode("s1", "greeting", "hello")
	out, err := n.Execute(nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := out["text"].AsString(); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestJSONParserNodeReportsFailureOnMalformedInput(t *testing.T) {
	n := nodes.NewJSONParserNode("p1", "parser")
	out, err := n.Execute(map[string]flowcore.DataValue{
		"json_string": flowcore.NewString("not json"),
	})
	if err != nil {
		t.Fatalf("execute should not error on bad json: %v", err)
	}
	if out["success"].AsBoolean() {
		t.Fatal("expected success=false for malformed json")
	}
}

func TestJSONParserNodeParsesValidInput(t *testing.T) {
	n := nodes.NewJSONParserNode("p1", "parser")
	out, err := n.Execute(map[string]flowcore.DataValue{
		"json_string": flowcore.NewString(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !out["success"].AsBoolean() {
		t.Fatal("expected success=true")
	}
	parsed, ok := out["parsed"].AsJSON().(map[string]any)
	if !ok || parsed["a"] != float64(1) {
		t.Fatalf("unexpected parsed value: %+v", out["parsed"].AsJSON())
	}
}

func TestConditionalNodeSelectsBranch(t *testing.T) {
	n := nodes.NewConditionalNode("c1", "cond")

	out, err := n.Execute(map[string]flowcore.DataValue{
		"condition":  flowcore.NewBoolean(true),
		"true_value": flowcore.NewJSON("yes"),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out["branch_taken"].AsString() != "true" || out["result"].AsJSON() != "yes" {
		t.Fatalf("unexpected true-branch output: %+v", out)
	}

	out, err = n.Execute(map[string]flowcore.DataValue{
		"condition": flowcore.NewBoolean(false),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out["branch_taken"].AsString() != "false" || out["result"].AsJSON() != nil {
		t.Fatalf("unexpected false-branch output: %+v", out)
	}
}

func TestMessageListDataNodeDefaultsToEmpty(t *testing.T) {
	n := nodes.NewMessageListDataNode("m1", "messages")
	out, err := n.Execute(nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out["messages"].AsMessageList()) != 0 {
		t.Fatalf("expected empty list, got %+v", out["messages"].AsMessageList())
	}
}
