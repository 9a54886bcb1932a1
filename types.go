// Package flowcore implements a typed dataflow-graph execution engine.
//
// A Graph is a set of Nodes connected either by explicit Edges or by
// matching input/output port names. The Scheduler (graph.go, scheduler.go)
// derives a deterministic execution order, drives each Node's Execute
// (batch mode) or on-start/on-update/on-cleanup lifecycle (streaming mode,
// for EventProducer nodes), and exposes the result through ExecutionResult.
package flowcore

import (
	"encoding/json"
	"fmt"
)

// NodeKind distinguishes how a node participates in scheduling.
type NodeKind string

const (
	// NodeKindSimple nodes run once per pass via Execute.
	NodeKindSimple NodeKind = "Simple"
	// NodeKindEventProducer nodes open a streaming subgraph: on_start then
	// repeated on_update until it returns no value, then on_cleanup.
	NodeKindEventProducer NodeKind = "EventProducer"
)

// DataTypeTag identifies the shape of a DataValue. Equality between two
// DataTypes is structural and exact: List(Integer) != List(Float), and
// there is no implicit widening or subtyping.
type DataTypeTag string

const (
	TagString        DataTypeTag = "String"
	TagInteger       DataTypeTag = "Integer"
	TagFloat         DataTypeTag = "Float"
	TagBoolean       DataTypeTag = "Boolean"
	TagJSON          DataTypeTag = "Json"
	TagBinary        DataTypeTag = "Binary"
	TagList          DataTypeTag = "List"
	TagPassword      DataTypeTag = "Password"
	TagMessageList   DataTypeTag = "MessageList"
	TagMessageEvent  DataTypeTag = "MessageEvent"
	TagBotAdapterRef DataTypeTag = "BotAdapterRef"
	TagRedisRef      DataTypeTag = "RedisRef"
	TagMySqlRef      DataTypeTag = "MySqlRef"
	TagFunctionTools DataTypeTag = "FunctionTools"
	TagCustom        DataTypeTag = "Custom"
)

// DataType is a closed tagged enumeration of value shapes carried across
// edges. List and Custom carry a parameter; all other tags are atomic.
type DataType struct {
	Tag    DataTypeTag
	Elem   *DataType // non-nil only when Tag == TagList
	Custom string    // non-empty only when Tag == TagCustom
}

// Atomic DataType constructors for the non-parametric tags.
var (
	String        = DataType{Tag: TagString}
	Integer       = DataType{Tag: TagInteger}
	Float         = DataType{Tag: TagFloat}
	Boolean       = DataType{Tag: TagBoolean}
	JSON          = DataType{Tag: TagJSON}
	Binary        = DataType{Tag: TagBinary}
	Password      = DataType{Tag: TagPassword}
	MessageList   = DataType{Tag: TagMessageList}
	MessageEvent  = DataType{Tag: TagMessageEvent}
	BotAdapterRef = DataType{Tag: TagBotAdapterRef}
	RedisRef      = DataType{Tag: TagRedisRef}
	MySqlRef      = DataType{Tag: TagMySqlRef}
	FunctionTools = DataType{Tag: TagFunctionTools}
)

// List builds a List(elem) DataType.
func List(elem DataType) DataType {
	e := elem
	return DataType{Tag: TagList, Elem: &e}
}

// CustomType builds a Custom(name) DataType for extension.
func CustomType(name string) DataType {
	return DataType{Tag: TagCustom, Custom: name}
}

// Equal reports structural, exact equality between two DataTypes.
func (d DataType) Equal(other DataType) bool {
	if d.Tag != other.Tag {
		return false
	}
	switch d.Tag {
	case TagList:
		if d.Elem == nil || other.Elem == nil {
			return d.Elem == other.Elem
		}
		return d.Elem.Equal(*other.Elem)
	case TagCustom:
		return d.Custom == other.Custom
	default:
		return true
	}
}

// String renders the DataType the way the original implementation's
// Display impl does, e.g. "List<Integer>" or "Custom(foo)".
func (d DataType) String() string {
	switch d.Tag {
	case TagList:
		inner := "?"
		if d.Elem != nil {
			inner = d.Elem.String()
		}
		return fmt.Sprintf("List<%s>", inner)
	case TagCustom:
		return fmt.Sprintf("Custom(%s)", d.Custom)
	default:
		return string(d.Tag)
	}
}

// MarshalJSON renders the tagged-union JSON shape used by GraphDefinition
// ports: atomic tags serialize as their bare tag string, List as
// {"List": <DataType>}, Custom as {"Custom": "<name>"}.
func (d DataType) MarshalJSON() ([]byte, error) {
	switch d.Tag {
	case TagList:
		var inner DataType
		if d.Elem != nil {
			inner = *d.Elem
		}
		return json.Marshal(map[string]DataType{"List": inner})
	case TagCustom:
		return json.Marshal(map[string]string{"Custom": d.Custom})
	default:
		return json.Marshal(string(d.Tag))
	}
}

func (d *DataType) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*d = DataType{Tag: DataTypeTag(asString)}
		return nil
	}

	var asList struct {
		List *DataType `json:"List"`
	}
	if err := json.Unmarshal(data, &asList); err == nil && asList.List != nil {
		*d = List(*asList.List)
		return nil
	}

	var asCustom struct {
		Custom *string `json:"Custom"`
	}
	if err := json.Unmarshal(data, &asCustom); err == nil && asCustom.Custom != nil {
		*d = CustomType(*asCustom.Custom)
		return nil
	}

	return fmt.Errorf("flowcore: cannot unmarshal DataType from %s", string(data))
}

// Port is a named, typed endpoint on a node. Required applies only to
// input ports; it is ignored on outputs.
type Port struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"data_type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
}

// NewPort creates a required Port with the given name and type.
func NewPort(name string, dataType DataType) Port {
	return Port{Name: name, DataType: dataType, Required: true}
}

// WithDescription returns a copy of the port with a description set.
func (p Port) WithDescription(desc string) Port {
	p.Description = desc
	return p
}

// Optional returns a copy of the port marked not required.
func (p Port) Optional() Port {
	p.Required = false
	return p
}
