package value

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Marshal encodes v as json, objects with sorted keys.
func Marshal(v Value) ([]byte, error) {
	if v == nil {
		v = Null{}
	}
	return json.Marshal(v)
}

// Unmarshal decodes a single json document.
func Unmarshal(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.WithMessage(err, "failed to decode json value")
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("failed to decode json value: trailing data")
	}
	return FromAny(raw)
}

// UnmarshalObject decodes a json document that must be an object.
func UnmarshalObject(data []byte) (Object, error) {
	v, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	object, ok := v.(Object)
	if !ok {
		return nil, errors.Errorf("expected a json object, got %s", v.Kind())
	}
	return object, nil
}
