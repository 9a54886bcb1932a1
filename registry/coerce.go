package registry

import (
	"encoding/json"
	"strconv"

	"github.com/flowcore-dev/flowcore"
)

// JSONToDataValue coerces a raw JSON-decoded value (string, float64,
// bool, []any, map[string]any, or nil) into a DataValue of the given
// target type, the way the original implementation's
// json_to_data_value does when materializing config-supplied inline
// values from a graph definition. A JSON string is also accepted for
// Integer, Float, Boolean, and Json targets and parsed accordingly,
// since hand-authored definitions commonly quote scalars. The second
// return value is false when the combination doesn't coerce to
// anything; callers drop the value and leave the port unspecified
// rather than failing the whole build.
func JSONToDataValue(target flowcore.DataType, raw any) (flowcore.DataValue, bool) {
	switch target.Tag {
	case flowcore.TagString:
		if s, ok := raw.(string); ok {
			return flowcore.NewString(s), true
		}
		return flowcore.DataValue{}, false

	case flowcore.TagPassword:
		if s, ok := raw.(string); ok {
			return flowcore.NewPassword(s), true
		}
		return flowcore.DataValue{}, false

	case flowcore.TagInteger:
		switch v := raw.(type) {
		case float64:
			return flowcore.NewInteger(int64(v)), true
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return flowcore.DataValue{}, false
			}
			return flowcore.NewInteger(n), true
		}
		return flowcore.DataValue{}, false

	case flowcore.TagFloat:
		switch v := raw.(type) {
		case float64:
			return flowcore.NewFloat(v), true
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return flowcore.DataValue{}, false
			}
			return flowcore.NewFloat(f), true
		}
		return flowcore.DataValue{}, false

	case flowcore.TagBoolean:
		switch v := raw.(type) {
		case bool:
			return flowcore.NewBoolean(v), true
		case string:
			switch v {
			case "true":
				return flowcore.NewBoolean(true), true
			case "false":
				return flowcore.NewBoolean(false), true
			}
		}
		return flowcore.DataValue{}, false

	case flowcore.TagJSON:
		if s, ok := raw.(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				return flowcore.NewJSON(parsed), true
			}
			return flowcore.NewJSON(s), true
		}
		return flowcore.NewJSON(raw), true

	case flowcore.TagList:
		items, ok := raw.([]any)
		if !ok {
			return flowcore.DataValue{}, false
		}
		elem := flowcore.String
		if target.Elem != nil {
			elem = *target.Elem
		}
		values := make([]flowcore.DataValue, 0, len(items))
		for _, item := range items {
			v, ok := JSONToDataValue(elem, item)
			if !ok {
				return flowcore.DataValue{}, false
			}
			values = append(values, v)
		}
		return flowcore.NewList(values), true

	default:
		return flowcore.DataValue{}, false
	}
}
