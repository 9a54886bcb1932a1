package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	err := reg.Register(registry.NodeTypeMetadata{
		TypeID: "const_string", Name: "String Data", Category: "utility", Kind: flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		value, _ := config["value"].(string)
		return stubConstNode{flowcore.NewBaseNode(id, id, flowcore.NodeKindSimple), value}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

type stubConstNode struct {
	flowcore.BaseNode
	value string
}

func (n stubConstNode) InputPorts() []flowcore.Port { return nil }
func (n stubConstNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("text", flowcore.String)}
}
func (n stubConstNode) Execute(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	return map[string]flowcore.DataValue{"text": flowcore.NewString(n.value)}, nil
}

func newTestRoot(reg *registry.Registry) *cobra.Command {
	root := &cobra.Command{Use: "flowcorectl", SilenceUsage: true}
	root.AddCommand(NewRunCmd(reg))
	root.AddCommand(NewValidateCmd(reg))
	root.AddCommand(NewRegistryCmd(reg))
	return root
}

func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validGraphJSON = `{
  "id": "g1",
  "nodes": [
    {"id": "n1", "node_type": "const_string", "config": {"value": "hello"}}
  ]
}`

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTestFile(t, "graph.json", validGraphJSON)

	stdout, _, err := executeCommand(newTestRoot(reg), "validate", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Valid!") {
		t.Fatalf("expected success message, got %q", stdout)
	}
}

func TestValidateRejectsUnknownNodeType(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTestFile(t, "graph.json", `{"nodes":[{"id":"n1","node_type":"does_not_exist"}]}`)

	_, _, err := executeCommand(newTestRoot(reg), "validate", path)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitUnknownType {
		t.Fatalf("expected exitUnknownType error, got %v", err)
	}
}

func TestValidateReportsFileNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	_, _, err := executeCommand(newTestRoot(reg), "validate", filepath.Join(t.TempDir(), "missing.json"))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitFileNotFound {
		t.Fatalf("expected exitFileNotFound error, got %v", err)
	}
}

func TestRunExecutesGraphAndPrintsResult(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTestFile(t, "graph.json", validGraphJSON)

	stdout, _, err := executeCommand(newTestRoot(reg), "run", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "n1.text") || !strings.Contains(stdout, "hello") {
		t.Fatalf("expected output to include n1.text = hello, got %q", stdout)
	}
}

func TestRunDryRunSkipsExecution(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTestFile(t, "graph.json", validGraphJSON)

	stdout, _, err := executeCommand(newTestRoot(reg), "run", "--dry-run", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(stdout, "hello") {
		t.Fatalf("expected dry run not to execute, got %q", stdout)
	}
}

func TestRunJSONFormat(t *testing.T) {
	reg := newTestRegistry(t)
	path := writeTestFile(t, "graph.json", validGraphJSON)

	stdout, _, err := executeCommand(newTestRoot(reg), "run", "--format", "json", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"success": true`) {
		t.Fatalf("expected JSON output with success true, got %q", stdout)
	}
}

func TestRegistryListsRegisteredTypes(t *testing.T) {
	reg := newTestRegistry(t)
	stdout, _, err := executeCommand(newTestRoot(reg), "registry")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "const_string") {
		t.Fatalf("expected registry listing to include const_string, got %q", stdout)
	}
}
