package grpc

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

// toStruct converts any JSON-encodable value into a protobuf Struct using
// the same field names as the HTTP API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("response is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// wrap puts a non-object value under key.
func wrap(key string, v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{key: decoded})
}

func stringField(in *structpb.Struct, key string) (string, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", models.Validationf("%s must be a string", key)
	}
	return s.StringValue, nil
}

// intField reads a whole number. Missing fields read as zero.
func intField(in *structpb.Struct, key string) (int, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, models.Validationf("%s must be a number", key)
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, models.Validationf("%s must be a whole number", key)
	}
	return int(f), nil
}

func boolField(in *structpb.Struct, key string) (bool, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return false, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, models.Validationf("%s must be a boolean", key)
	}
	return b.BoolValue, nil
}

// intMapField reads an object of whole numbers, e.g. team name to budget.
func intMapField(in *structpb.Struct, key string) (map[string]int, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return map[string]int{}, nil
	}
	obj := v.GetStructValue()
	if obj == nil {
		return nil, models.Validationf("%s must be an object", key)
	}
	out := make(map[string]int, len(obj.GetFields()))
	for name := range obj.GetFields() {
		n, err := intField(obj, name)
		if err != nil {
			return nil, models.Validationf("%s.%s must be a whole number", key, name)
		}
		out[name] = n
	}
	return out, nil
}
