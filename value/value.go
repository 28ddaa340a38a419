// Package value is the closed set of JSON-compatible values held in synchronized state.
package value

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

var kindNames = [...]string{"null", "bool", "number", "string", "array", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one of Null, Bool, Number, String, Array or Object.
// Values handed around by the pipeline are treated as immutable.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	Null   struct{}
	Bool   bool
	Number float64
	String string
	Array  []Value
	Object map[string]Value
)

func (Null) Kind() Kind   { return NullKind }
func (Bool) Kind() Kind   { return BoolKind }
func (Number) Kind() Kind { return NumberKind }
func (String) Kind() Kind { return StringKind }
func (Array) Kind() Kind  { return ArrayKind }
func (Object) Kind() Kind { return ObjectKind }

func (Null) sealed()   {}
func (Bool) sealed()   {}
func (Number) sealed() {}
func (String) sealed() {}
func (Array) sealed()  {}
func (Object) sealed() {}

func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.Errorf("number %v is not representable in json", f)
	}
	return json.Marshal(f)
}

// Keys returns the object keys in byte order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for key := range o {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsNull reports whether v is absent or Null.
func IsNull(v Value) bool {
	return v == nil || v.Kind() == NullKind
}

// FromAny converts plain Go data (the shapes encoding/json produces, plus
// integer types and Value itself) into a Value. Anything else goes through a
// json round trip.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(x), nil
	case int:
		return Number(x), nil
	case int8:
		return Number(x), nil
	case int16:
		return Number(x), nil
	case int32:
		return Number(x), nil
	case int64:
		return Number(x), nil
	case uint:
		return Number(x), nil
	case uint8:
		return Number(x), nil
	case uint16:
		return Number(x), nil
	case uint32:
		return Number(x), nil
	case uint64:
		return Number(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid json number %q", x.String())
		}
		return Number(f), nil
	case string:
		return String(x), nil
	case []any:
		array := make(Array, len(x))
		for i, item := range x {
			converted, err := FromAny(item)
			if err != nil {
				return nil, errors.WithMessagef(err, "index %d", i)
			}
			array[i] = converted
		}
		return array, nil
	case []Value:
		return Array(x), nil
	case map[string]any:
		object := make(Object, len(x))
		for key, item := range x {
			converted, err := FromAny(item)
			if err != nil {
				return nil, errors.WithMessagef(err, "key %q", key)
			}
			object[key] = converted
		}
		return object, nil
	case map[string]Value:
		return Object(x), nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null{}, nil
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithMessagef(err, "unsupported value of type %T", v)
	}
	return Unmarshal(bytes)
}

// MustFromAny is FromAny for literals known to be valid.
func MustFromAny(v any) Value {
	converted, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return converted
}

// ToAny converts v back into plain Go data: nil, bool, float64, string, []any, map[string]any.
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Number:
		return float64(x)
	case String:
		return string(x)
	case Array:
		array := make([]any, len(x))
		for i, item := range x {
			array[i] = ToAny(item)
		}
		return array
	case Object:
		object := make(map[string]any, len(x))
		for key, item := range x {
			object[key] = ToAny(item)
		}
		return object
	default:
		panic(errors.Errorf("unknown value type %T", v))
	}
}
