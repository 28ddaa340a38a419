package value

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto renders v as a google.protobuf.Value.
func ToProto(v Value) *structpb.Value {
	switch x := v.(type) {
	case nil, Null:
		return structpb.NewNullValue()
	case Bool:
		return structpb.NewBoolValue(bool(x))
	case Number:
		return structpb.NewNumberValue(float64(x))
	case String:
		return structpb.NewStringValue(string(x))
	case Array:
		list := &structpb.ListValue{Values: make([]*structpb.Value, len(x))}
		for i, item := range x {
			list.Values[i] = ToProto(item)
		}
		return structpb.NewListValue(list)
	case Object:
		object := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(x))}
		for key, item := range x {
			object.Fields[key] = ToProto(item)
		}
		return structpb.NewStructValue(object)
	default:
		panic(errors.Errorf("unknown value type %T", v))
	}
}

// FromProto is the inverse of ToProto. A nil message or unset kind decodes to Null.
func FromProto(p *structpb.Value) (Value, error) {
	if p == nil {
		return Null{}, nil
	}
	switch kind := p.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return Null{}, nil
	case *structpb.Value_BoolValue:
		return Bool(kind.BoolValue), nil
	case *structpb.Value_NumberValue:
		return Number(kind.NumberValue), nil
	case *structpb.Value_StringValue:
		return String(kind.StringValue), nil
	case *structpb.Value_ListValue:
		items := kind.ListValue.GetValues()
		array := make(Array, len(items))
		for i, item := range items {
			converted, err := FromProto(item)
			if err != nil {
				return nil, err
			}
			array[i] = converted
		}
		return array, nil
	case *structpb.Value_StructValue:
		fields := kind.StructValue.GetFields()
		object := make(Object, len(fields))
		for key, item := range fields {
			converted, err := FromProto(item)
			if err != nil {
				return nil, err
			}
			object[key] = converted
		}
		return object, nil
	default:
		return nil, errors.Errorf("unsupported protobuf value kind %T", kind)
	}
}
