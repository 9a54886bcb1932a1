package nodes_test

import (
	"testing"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/nodes"
)

func TestMessageCacheNodeUsesInMemoryCacheWithoutRedisRef(t *testing.T) {
	n := nodes.NewMessageCacheNode("cache1", "cache")
	out, err := n.Execute(map[string]flowcore.DataValue{
		"message_event": flowcore.NewMessageEvent(flowcore.MessageEventValue{MessageID: "m1", Content: "hi"}),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !out["success"].AsBoolean() {
		t.Fatal("expected success=true for in-memory cache")
	}
	if out["message_event"].AsMessageEvent().MessageID != "m1" {
		t.Fatalf("expected passthrough of message_event, got %+v", out["message_event"])
	}
}
