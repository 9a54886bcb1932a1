package nodes_test

import (
	"context"
	"testing"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/nodes"
	"github.com/flowcore-dev/flowcore/store"
)

func TestMessagePersistenceNodeStoresAndPassesThrough(t *testing.T) {
	st, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	n := nodes.NewMessagePersistenceNode("persist1", "persist", st)
	out, err := n.Execute(map[string]flowcore.DataValue{
		"message_event": flowcore.NewMessageEvent(flowcore.MessageEventValue{MessageID: "m1", Content: "hi"}),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !out["success"].AsBoolean() {
		t.Fatal("expected success=true")
	}

	events, err := st.ListMessageEvents(context.Background(), "persist1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].MessageID != "m1" {
		t.Fatalf("unexpected stored events: %+v", events)
	}
}
