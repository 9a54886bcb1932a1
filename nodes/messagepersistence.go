package nodes

import (
	"context"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/store"
)

// MessagePersistenceNode stores a MessageEvent and passes it through,
// grounded in the original implementation's
// MessageMySQLPersistenceNode. That node's execute always reported
// success=false because actual persistence needed an async context it
// didn't have; here Execute runs synchronously against a SQLiteStore
// (the substitute this module uses for the original's MySQL dependency
// — see DESIGN.md), so it can report a real outcome.
type MessagePersistenceNode struct {
	flowcore.BaseNode
	store *store.SQLiteStore
}

func NewMessagePersistenceNode(id, name string, st *store.SQLiteStore) *MessagePersistenceNode {
	return &MessagePersistenceNode{
		BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple),
		store:    st,
	}
}

func (n *MessagePersistenceNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("message_event", flowcore.MessageEvent),
	}
}

func (n *MessagePersistenceNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("success", flowcore.Boolean),
		flowcore.NewPort("message_event", flowcore.MessageEvent),
	}
}

func (n *MessagePersistenceNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	event := inputs["message_event"].AsMessageEvent()

	success := true
	if err := n.store.SaveMessageEvent(context.Background(), n.ID(), event); err != nil {
		success = false
	}

	return map[string]flowcore.DataValue{
		"success":       flowcore.NewBoolean(success),
		"message_event": flowcore.NewMessageEvent(event),
	}, nil
}
