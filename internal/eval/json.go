package eval

import (
	"encoding/json"
	"fmt"

	"adana/internal/value"
)

// jsonify/parseJSON bridge Primitive <-> JSON for the jsonify/
// parse_json built-ins. No example repo in the corpus wires a
// third-party JSON library (see DESIGN.md), so this is one of the few
// spots that stays on the standard library.
func jsonify(p value.Primitive) (value.Primitive, error) {
	v, err := toJSONValue(p)
	if err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	return value.String(string(out)), nil
}

func toJSONValue(p value.Primitive) (interface{}, error) {
	p = value.Deref(p)
	switch v := p.(type) {
	case value.U8:
		return uint8(v), nil
	case value.I8:
		return int8(v), nil
	case value.Int:
		return v.V, nil
	case value.Double:
		return float64(v), nil
	case value.Bool:
		return bool(v), nil
	case value.Null:
		return nil, nil
	case value.String:
		return string(v), nil
	case *value.Array:
		out := make([]interface{}, len(v.Elements))
		for i, e := range v.Elements {
			jv, err := toJSONValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = jv
		}
		return out, nil
	case *value.Struct:
		out := make(map[string]interface{}, len(v.Keys))
		for _, k := range v.Keys {
			jv, err := toJSONValue(v.Values[k])
			if err != nil {
				return nil, err
			}
			out[k] = jv
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot jsonify %s", p.TypeName())
}

func parseJSON(src string) (value.Primitive, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		return value.ErrorVal{Msg: err.Error()}, nil
	}
	return fromJSONValue(v), nil
}

func fromJSONValue(v interface{}) value.Primitive {
	switch t := v.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(t)
	case float64:
		return value.Double(t)
	case string:
		return value.String(t)
	case []interface{}:
		out := &value.Array{Elements: make([]value.Primitive, len(t))}
		for i, e := range t {
			out.Elements[i] = fromJSONValue(e)
		}
		return out
	case map[string]interface{}:
		s := value.NewStruct()
		for k, e := range t {
			s.Set(k, fromJSONValue(e))
		}
		return s
	}
	return value.Null{}
}
