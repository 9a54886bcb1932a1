package nodes

import (
	"github.com/flowcore-dev/flowcore"
)

// MessageSourceNode is an EventProducer that relays inbound
// MessageEventValues from a channel the caller owns, generalizing the
// original implementation's BotAdapterNode (which spawned a
// transport-specific task feeding a channel) to any external message
// transport a caller wires up — a webhook handler, a queue consumer, a
// chat SDK callback — without baking in one vendor's adapter.
type MessageSourceNode struct {
	flowcore.BaseNode
	events <-chan flowcore.MessageEventValue
}

// NewMessageSourceNode creates a MessageSourceNode that emits one event
// per value it receives from events until the channel is closed.
func NewMessageSourceNode(id, name string, events <-chan flowcore.MessageEventValue) *MessageSourceNode {
	return &MessageSourceNode{
		BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindEventProducer),
		events:   events,
	}
}

func (n *MessageSourceNode) InputPorts() []flowcore.Port { return nil }

func (n *MessageSourceNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("event", flowcore.MessageEvent)}
}

func (n *MessageSourceNode) OnStart(map[string]flowcore.DataValue) error { return nil }

// OnUpdate blocks on the event channel. A closed channel signals the
// stream is exhausted, reported the way spec.md requires: (nil, nil).
func (n *MessageSourceNode) OnUpdate() (map[string]flowcore.DataValue, error) {
	event, ok := <-n.events
	if !ok {
		return nil, nil
	}
	return map[string]flowcore.DataValue{"event": flowcore.NewMessageEvent(event)}, nil
}

func (n *MessageSourceNode) OnCleanup() error { return nil }

// MessageSenderNode delivers a message back out through sender, the
// caller-owned counterpart to MessageSourceNode's events channel —
// generalizing the original implementation's MessageSenderNode (which
// posted back to one QQ server) the same way MessageSourceNode
// generalizes BotAdapterNode's inbound side.
type MessageSenderNode struct {
	flowcore.BaseNode
	sender chan<- flowcore.MessageEventValue
}

// NewMessageSenderNode creates a MessageSenderNode that writes one
// event to sender per Execute call.
func NewMessageSenderNode(id, name string, sender chan<- flowcore.MessageEventValue) *MessageSenderNode {
	return &MessageSenderNode{
		BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple),
		sender:   sender,
	}
}

func (n *MessageSenderNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("target_id", flowcore.String).WithDescription("target user or group ID"),
		flowcore.NewPort("content", flowcore.String).WithDescription("message content to send"),
		flowcore.NewPort("message_type", flowcore.String).WithDescription("type of message to send"),
	}
}

func (n *MessageSenderNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("success", flowcore.Boolean),
		flowcore.NewPort("response", flowcore.JSON),
	}
}

func (n *MessageSenderNode) Execute(inputs map[string]flowcore.DataValue) (out map[string]flowcore.DataValue, err error) {
	targetID := inputs["target_id"].AsString()
	event := flowcore.MessageEventValue{
		MessageType: inputs["message_type"].AsString(),
		Content:     inputs["content"].AsString(),
		GroupID:     targetID,
	}

	dropped := map[string]flowcore.DataValue{
		"success":  flowcore.NewBoolean(false),
		"response": flowcore.NewJSON(map[string]any{"status": "dropped", "reason": "sender channel full or closed"}),
	}
	// A send on a closed channel panics; report it as dropped.
	defer func() {
		if recover() != nil {
			out, err = dropped, nil
		}
	}()

	select {
	case n.sender <- event:
		return map[string]flowcore.DataValue{
			"success":  flowcore.NewBoolean(true),
			"response": flowcore.NewJSON(map[string]any{"status": "sent", "target_id": targetID}),
		}, nil
	default:
		return dropped, nil
	}
}
