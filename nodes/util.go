// Package nodes provides the concrete, registrable Node implementations
// that ship with flowcore: data utilities, conditional branching, and
// the database, messaging, and LLM nodes that give a graph access to
// the outside world.
package nodes

import (
	"encoding/json"

	"github.com/flowcore-dev/flowcore"
)

// StringDataNode is a constant string source. Its value is supplied at
// construction time (typically from a graph definition's node config; the
// node has no input port an inline value could feed), standing in for
// the original implementation's UI-bound data source.
type StringDataNode struct {
	flowcore.BaseNode
	value string
}

// NewStringDataNode creates a StringDataNode that always outputs value.
func NewStringDataNode(id, name, value string) *StringDataNode {
	return &StringDataNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple), value: value}
}

func (n *StringDataNode) InputPorts() []flowcore.Port { return nil }

func (n *StringDataNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("text", flowcore.String).WithDescription("output string")}
}

func (n *StringDataNode) Execute(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	return map[string]flowcore.DataValue{"text": flowcore.NewString(n.value)}, nil
}

// PreviewStringNode is a sink for an optional text input: it declares no
// outputs and returns none, so a UI can tap a wire and show its current
// value (through the graph's Observer) without altering the dataflow.
type PreviewStringNode struct {
	flowcore.BaseNode
}

func NewPreviewStringNode(id, name string) *PreviewStringNode {
	return &PreviewStringNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple)}
}

func (n *PreviewStringNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("text", flowcore.String).WithDescription("text to preview").Optional()}
}

func (n *PreviewStringNode) OutputPorts() []flowcore.Port { return nil }

func (n *PreviewStringNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	return map[string]flowcore.DataValue{}, nil
}

// PreviewMessageListNode is PreviewStringNode's MessageList counterpart.
type PreviewMessageListNode struct {
	flowcore.BaseNode
}

func NewPreviewMessageListNode(id, name string) *PreviewMessageListNode {
	return &PreviewMessageListNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple)}
}

func (n *PreviewMessageListNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("messages", flowcore.MessageList).WithDescription("messages to preview").Optional()}
}

func (n *PreviewMessageListNode) OutputPorts() []flowcore.Port { return nil }

func (n *PreviewMessageListNode) Execute(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	return map[string]flowcore.DataValue{}, nil
}

// JSONParserNode parses a JSON string input into a structured Json
// value. A malformed string is not an execution error: it is reported
// through the success output, the same softened-failure contract the
// original implementation uses so one bad payload doesn't abort a run.
type JSONParserNode struct {
	flowcore.BaseNode
}

func NewJSONParserNode(id, name string) *JSONParserNode {
	return &JSONParserNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple)}
}

func (n *JSONParserNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("json_string", flowcore.String)}
}

func (n *JSONParserNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("parsed", flowcore.JSON),
		flowcore.NewPort("success", flowcore.Boolean),
	}
}

func (n *JSONParserNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	var parsed any
	err := json.Unmarshal([]byte(inputs["json_string"].AsString()), &parsed)
	if err != nil {
		return map[string]flowcore.DataValue{
			"parsed":  flowcore.NewJSON(nil),
			"success": flowcore.NewBoolean(false),
		}, nil
	}
	return map[string]flowcore.DataValue{
		"parsed":  flowcore.NewJSON(parsed),
		"success": flowcore.NewBoolean(true),
	}, nil
}

// ConditionalNode selects between two Json values based on a boolean
// condition and reports which branch it took.
type ConditionalNode struct {
	flowcore.BaseNode
}

func NewConditionalNode(id, name string) *ConditionalNode {
	return &ConditionalNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple)}
}

func (n *ConditionalNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("condition", flowcore.Boolean),
		flowcore.NewPort("true_value", flowcore.JSON).Optional(),
		flowcore.NewPort("false_value", flowcore.JSON).Optional(),
	}
}

func (n *ConditionalNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("result", flowcore.JSON),
		flowcore.NewPort("branch_taken", flowcore.String),
	}
}

func (n *ConditionalNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	condition := inputs["condition"].AsBoolean()
	branch := "false"
	value := inputs["false_value"]
	if condition {
		branch = "true"
		value = inputs["true_value"]
	}
	if value.Tag == "" {
		value = flowcore.NewJSON(nil)
	}
	return map[string]flowcore.DataValue{
		"result":       value,
		"branch_taken": flowcore.NewString(branch),
	}, nil
}

// MessageListDataNode is a MessageList source fed by an inline value
// overlay (the UI-equivalent input) rather than an upstream edge; when
// no value has been supplied it outputs an empty list instead of
// failing validation.
type MessageListDataNode struct {
	flowcore.BaseNode
}

func NewMessageListDataNode(id, name string) *MessageListDataNode {
	return &MessageListDataNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple)}
}

func (n *MessageListDataNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("messages", flowcore.MessageList).Optional()}
}

func (n *MessageListDataNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("messages", flowcore.MessageList)}
}

func (n *MessageListDataNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	value, ok := inputs["messages"]
	if !ok || value.Tag != flowcore.TagMessageList {
		value = flowcore.NewMessageList(nil)
	}
	return map[string]flowcore.DataValue{"messages": value}, nil
}
