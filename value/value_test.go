package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"n":    int64(3),
		"u":    uint8(4),
		"f":    float32(0.5),
		"s":    "x",
		"b":    true,
		"null": nil,
		"list": []any{json.Number("7"), "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, Object{
		"n":    Number(3),
		"u":    Number(4),
		"f":    Number(0.5),
		"s":    String("x"),
		"b":    Bool(true),
		"null": Null{},
		"list": Array{Number(7), String("y")},
	}, v)

	type entity struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	v, err = FromAny(entity{ID: "fun", Name: "entity"})
	require.NoError(t, err)
	assert.Equal(t, Object{"id": String("fun"), "name": String("entity")}, v)

	var missing *entity
	v, err = FromAny(missing)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)

	_, err = FromAny(make(chan int))
	assert.Error(t, err)
}

func TestToAny(t *testing.T) {
	v := MustFromAny(map[string]any{"ids": []any{"fun"}, "n": 1.5, "none": nil})
	assert.Equal(t, map[string]any{"ids": []any{"fun"}, "n": 1.5, "none": nil}, ToAny(v))
	assert.Nil(t, ToAny(nil))
}

func TestJSON(t *testing.T) {
	v, err := Unmarshal([]byte(`{"b":[1,true,null,"s"],"a":{"x":2.5}}`))
	require.NoError(t, err)
	assert.True(t, Equal(MustFromAny(map[string]any{
		"a": map[string]any{"x": 2.5},
		"b": []any{1, true, nil, "s"},
	}), v))

	bytes, err := Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"x":2.5},"b":[1,true,null,"s"]}`, string(bytes))

	bytes, err = Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(bytes))

	_, err = Marshal(Number(math.NaN()))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"a":1} {}`))
	assert.Error(t, err)

	for _, data := range []string{`{"a":1}}`, `{}]`, `1 x`} {
		_, err = Unmarshal([]byte(data))
		assert.Error(t, err, data)
	}

	v, err = Unmarshal([]byte("{\"a\":1} \n"))
	assert.NoError(t, err)
	assert.NotNil(t, v)

	_, err = UnmarshalObject([]byte(`[1]`))
	assert.Error(t, err)
	object, err := UnmarshalObject([]byte(`{"hello":"world"}`))
	require.NoError(t, err)
	assert.Equal(t, Object{"hello": String("world")}, object)
}

func TestProto(t *testing.T) {
	v := MustFromAny(map[string]any{
		"entities": map[string]any{"fun": map[string]any{"id": "fun", "name": "entity"}},
		"ids":      []any{"fun", nil, false, 3},
	})
	bytes, err := proto.Marshal(ToProto(v))
	require.NoError(t, err)

	decoded := &structpb.Value{}
	require.NoError(t, proto.Unmarshal(bytes, decoded))
	back, err := FromProto(decoded)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))

	null, err := FromProto(nil)
	require.NoError(t, err)
	assert.Equal(t, Null{}, null)
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Object{"c": Null{}, "a": Null{}, "b": Null{}}.Keys())
}
