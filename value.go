package flowcore

import (
	"encoding/base64"
	"encoding/json"
)

// Message is a minimal chat-style message, the shape MessageList values
// carry. It mirrors the original implementation's crate::llm::Message
// closely enough for nodes to build and inspect conversations.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []ToolCall     `json:"tool_calls,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// ToolCall is a single tool invocation requested within a Message.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// MessageSender identifies who produced a MessageEventValue.
type MessageSender struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname,omitempty"`
	Role     string `json:"role,omitempty"`
}

// MessageEventValue is the shape carried by DataType MessageEvent: an
// inbound message from an external conversation surface (chat adapter,
// queue, webhook). The engine never interprets its fields.
type MessageEventValue struct {
	MessageID      string        `json:"message_id"`
	MessageType    string        `json:"message_type"`
	Sender         MessageSender `json:"sender"`
	GroupID        string        `json:"group_id,omitempty"`
	Content        string        `json:"content"`
	IsGroupMessage bool          `json:"is_group_message"`
}

// FunctionToolDescriptor is the JSON-schema-ish shape carried by
// DataType FunctionTools, describing a callable tool without binding to
// any particular execution mechanism.
type FunctionToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// OpaqueRef is a named, serialization-opaque handle — the payload carried
// by BotAdapterRef, RedisRef, and MySqlRef values when the underlying
// resource has no lossless JSON projection. Fields holds the resource's
// connection parameters and is excluded from JSON. Nodes read it
// (MessageCacheNode connects to Redis from its host/port/db), and it is
// not secret-free in general: SQLConfigNode's sql_ref includes its
// connection URL, password included.
type OpaqueRef struct {
	Kind   string         `json:"type"`
	Fields map[string]any `json:"-"`
}

// DataValue is a tagged value whose tag determines its DataType.
// Exactly one of the typed fields is meaningful, selected by Tag.
type DataValue struct {
	Tag DataTypeTag

	str   string
	i64   int64
	f64   float64
	b     bool
	j     any
	bin   []byte
	list  []DataValue
	msgs  []Message
	event MessageEventValue
	tools []FunctionToolDescriptor
	ref   OpaqueRef
}

// Constructors. Each pins Tag to the value's DataType.

func NewString(v string) DataValue    { return DataValue{Tag: TagString, str: v} }
func NewInteger(v int64) DataValue    { return DataValue{Tag: TagInteger, i64: v} }
func NewFloat(v float64) DataValue    { return DataValue{Tag: TagFloat, f64: v} }
func NewBoolean(v bool) DataValue     { return DataValue{Tag: TagBoolean, b: v} }
func NewJSON(v any) DataValue         { return DataValue{Tag: TagJSON, j: v} }
func NewBinary(v []byte) DataValue    { return DataValue{Tag: TagBinary, bin: v} }
func NewPassword(v string) DataValue  { return DataValue{Tag: TagPassword, str: v} }
func NewMessageList(v []Message) DataValue {
	return DataValue{Tag: TagMessageList, msgs: v}
}
func NewMessageEvent(v MessageEventValue) DataValue {
	return DataValue{Tag: TagMessageEvent, event: v}
}
func NewFunctionTools(v []FunctionToolDescriptor) DataValue {
	return DataValue{Tag: TagFunctionTools, tools: v}
}
func NewBotAdapterRef(v OpaqueRef) DataValue { return DataValue{Tag: TagBotAdapterRef, ref: v} }
func NewRedisRef(v OpaqueRef) DataValue      { return DataValue{Tag: TagRedisRef, ref: v} }
func NewMySqlRef(v OpaqueRef) DataValue      { return DataValue{Tag: TagMySqlRef, ref: v} }

// NewList builds a List value from its elements. Its DataType is derived
// by DataType(): List(T) where T is the first element's type, or
// List(String) if empty — a pragmatic default callers should not rely on
// for empty lists (see DataValue.DataType doc).
func NewList(items []DataValue) DataValue {
	return DataValue{Tag: TagList, list: items}
}

// Raw accessors. Each panics-free: they return the zero value when the
// tag does not match, so callers should check DataType() or Tag first.

func (v DataValue) AsString() string                 { return v.str }
func (v DataValue) AsInteger() int64                 { return v.i64 }
func (v DataValue) AsFloat() float64                 { return v.f64 }
func (v DataValue) AsBoolean() bool                  { return v.b }
func (v DataValue) AsJSON() any                      { return v.j }
func (v DataValue) AsBinary() []byte                 { return v.bin }
func (v DataValue) AsList() []DataValue              { return v.list }
func (v DataValue) AsMessageList() []Message         { return v.msgs }
func (v DataValue) AsMessageEvent() MessageEventValue { return v.event }
func (v DataValue) AsFunctionTools() []FunctionToolDescriptor { return v.tools }
func (v DataValue) AsRef() OpaqueRef                 { return v.ref }

// DataType is total: for a List it returns List(T) where T is the type
// of the first element, or List(String) if empty.
func (v DataValue) DataType() DataType {
	switch v.Tag {
	case TagList:
		if len(v.list) > 0 {
			return List(v.list[0].DataType())
		}
		return List(String)
	default:
		return DataType{Tag: v.Tag}
	}
}

// ToJSON is a lossless projection for inspection and persistence of
// non-opaque kinds. Opaque kinds (shared handles, tool collections)
// serialize to a tagged marker rather than their internal state.
func (v DataValue) ToJSON() any {
	switch v.Tag {
	case TagString, TagPassword:
		return v.str
	case TagInteger:
		return v.i64
	case TagFloat:
		return v.f64
	case TagBoolean:
		return v.b
	case TagJSON:
		return v.j
	case TagBinary:
		return base64.StdEncoding.EncodeToString(v.bin)
	case TagList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.ToJSON()
		}
		return out
	case TagMessageList:
		return v.msgs
	case TagMessageEvent:
		return v.event
	case TagFunctionTools:
		return v.tools
	case TagBotAdapterRef, TagRedisRef, TagMySqlRef:
		return map[string]any{"type": v.ref.Kind}
	default:
		return nil
	}
}

// MarshalJSON makes DataValue directly json.Marshal-able via its ToJSON
// projection, the way the original implementation's serde impl delegates
// to to_json().
func (v DataValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToJSON())
}
