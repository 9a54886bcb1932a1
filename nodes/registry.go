package nodes

import (
	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/registry"
	"github.com/flowcore-dev/flowcore/store"
)

// Dependencies carries the live, non-serializable resources a handful of
// node types need at construction time — a database handle, or the
// channels a bot-style transport uses to move events in and out of a
// graph. A GraphDefinition's config can only ever be JSON, so these
// can't travel through NodeDefinition.Config the way a cron expression
// or a model name can; the caller assembling the registry for a given
// process supplies them once, up front.
type Dependencies struct {
	Store *store.SQLiteStore

	MessageEvents <-chan flowcore.MessageEventValue
	MessageSender chan<- flowcore.MessageEventValue

	LLMDefaultModel string
	LLMBaseURL      string
	LLMAPIKey       string
}

func configString(config map[string]any, key, fallback string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// RegisterAll registers every node type this package ships with into r,
// the way the original implementation's init_node_registry populates its
// NODE_REGISTRY. Node types whose constructor needs a Dependencies field
// that deps leaves unset (message_persistence, message_source and
// message_sender, each when its Store, MessageEvents or MessageSender
// field is nil) are skipped rather than
// registered with a broken factory, so a caller that only wants the
// stateless utility and database-config nodes can pass a zero
// Dependencies.
func RegisterAll(r *registry.Registry, deps Dependencies) error {
	register := func(meta registry.NodeTypeMetadata, factory registry.NodeFactory) error {
		return r.Register(meta, factory)
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "const_string", Name: "String Data", Category: "utility",
		Description: "Outputs a fixed string configured on the node",
		Kind:        flowcore.NodeKindSimple,
		OutputPorts: []flowcore.Port{flowcore.NewPort("text", flowcore.String)},
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewStringDataNode(id, id, configString(config, "value", "")), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "preview_string", Name: "Preview String", Category: "utility",
		Description: "Taps a string wire for inspection without altering it",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewPreviewStringNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "preview_message_list", Name: "Preview Messages", Category: "utility",
		Description: "Taps a message list wire for inspection without altering it",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewPreviewMessageListNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "json_parser", Name: "JSON Parser", Category: "utility",
		Description: "Parses a JSON string into structured data",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewJSONParserNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "conditional", Name: "Conditional", Category: "utility",
		Description: "Selects between two values based on a boolean condition",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewConditionalNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "message_list_data", Name: "Message List Data", Category: "utility",
		Description: "Message list source fed by an inline value overlay",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewMessageListDataNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "redis_config", Name: "Redis Connection", Category: "database",
		Description: "Builds and verifies a Redis connection reference",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewRedisConfigNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "sql_config", Name: "SQL Connection", Category: "database",
		Description: "Builds a SQL connection reference",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewSQLConfigNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "message_cache", Name: "Message Cache", Category: "message-storage",
		Description: "Caches message events in memory or, when wired to a redis_ref, in Redis",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		return NewMessageCacheNode(id, id), nil
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "cron_timer", Name: "Cron Timer", Category: "trigger",
		Description: "Emits an event on every firing of a UTC cron expression",
		Kind:        flowcore.NodeKindEventProducer,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		expr := configString(config, "cron_expr", "")
		return NewTimerProducerNode(id, id, expr)
	}); err != nil {
		return err
	}

	if err := register(registry.NodeTypeMetadata{
		TypeID: "llm_completion", Name: "LLM Completion", Category: "ai",
		Description: "Sends a conversation to an OpenAI-compatible chat completion endpoint",
		Kind:        flowcore.NodeKindSimple,
	}, func(id string, config map[string]any) (flowcore.Node, error) {
		model := configString(config, "default_model", deps.LLMDefaultModel)
		baseURL := configString(config, "base_url", deps.LLMBaseURL)
		apiKey := configString(config, "api_key", deps.LLMAPIKey)
		return NewLLMCompletionNode(id, id, model, baseURL, apiKey), nil
	}); err != nil {
		return err
	}

	if deps.Store != nil {
		if err := register(registry.NodeTypeMetadata{
			TypeID: "message_persistence", Name: "Message Persistence", Category: "message-storage",
			Description: "Persists message events to the process's sqlite store",
			Kind:        flowcore.NodeKindSimple,
		}, func(id string, config map[string]any) (flowcore.Node, error) {
			return NewMessagePersistenceNode(id, id, deps.Store), nil
		}); err != nil {
			return err
		}
	}

	if deps.MessageEvents != nil {
		if err := register(registry.NodeTypeMetadata{
			TypeID: "message_source", Name: "Message Source", Category: "bot-adapter",
			Description: "Relays inbound message events from the process's bot transport",
			Kind:        flowcore.NodeKindEventProducer,
		}, func(id string, config map[string]any) (flowcore.Node, error) {
			return NewMessageSourceNode(id, id, deps.MessageEvents), nil
		}); err != nil {
			return err
		}
	}

	if deps.MessageSender != nil {
		if err := register(registry.NodeTypeMetadata{
			TypeID: "message_sender", Name: "Message Sender", Category: "bot-adapter",
			Description: "Sends a message event out through the process's bot transport",
			Kind:        flowcore.NodeKindSimple,
		}, func(id string, config map[string]any) (flowcore.Node, error) {
			return NewMessageSenderNode(id, id, deps.MessageSender), nil
		}); err != nil {
			return err
		}
	}

	return nil
}
