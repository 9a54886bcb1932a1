package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/flowcore-dev/flowcore"
	"github.com/redis/go-redis/v9"
)

// MessageCacheNode caches a MessageEvent, grounded in the original
// implementation's MessageCacheNode: an in-memory map when no Redis
// config is wired, or Redis when it is. The original's in-memory path
// was a TokioMutex<HashMap<String, String>> populated but never read
// back through the node contract; this node keeps that same one-way
// cache-and-pass-through shape.
type MessageCacheNode struct {
	flowcore.BaseNode

	mu    sync.Mutex
	local map[string]string
}

func NewMessageCacheNode(id, name string) *MessageCacheNode {
	return &MessageCacheNode{
		BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple),
		local:    make(map[string]string),
	}
}

func (n *MessageCacheNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("message_event", flowcore.MessageEvent),
		flowcore.NewPort("redis_ref", flowcore.RedisRef).WithDescription("optional: use Redis instead of the in-memory cache").Optional(),
	}
}

func (n *MessageCacheNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("success", flowcore.Boolean),
		flowcore.NewPort("message_event", flowcore.MessageEvent),
	}
}

func (n *MessageCacheNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	event := inputs["message_event"].AsMessageEvent()
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal message event: %w", err)
	}

	success := true
	if ref, ok := inputs["redis_ref"]; ok && ref.Tag == flowcore.TagRedisRef {
		success = n.cacheInRedis(ref.AsRef(), event.MessageID, payload)
	} else {
		n.mu.Lock()
		n.local[event.MessageID] = string(payload)
		n.mu.Unlock()
	}

	return map[string]flowcore.DataValue{
		"success":       flowcore.NewBoolean(success),
		"message_event": flowcore.NewMessageEvent(event),
	}, nil
}

func (n *MessageCacheNode) cacheInRedis(ref flowcore.OpaqueRef, key string, payload []byte) bool {
	host, _ := ref.Fields["host"].(string)
	port, _ := ref.Fields["port"].(int64)
	db, _ := ref.Fields["db"].(int)
	if host == "" {
		return false
	}

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port), DB: db})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Set(ctx, key, payload, time.Hour).Err() == nil
}
