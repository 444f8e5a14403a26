package binding

import "encoding/json"

// Codec converts a value to and from its stored string form.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(raw string) (T, error)
}

// JSONCodec stores values as JSON.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (JSONCodec[T]) Decode(raw string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}

// StringCodec stores strings verbatim, without JSON quoting.
type StringCodec struct{}

func (StringCodec) Encode(v string) (string, error) { return v, nil }

func (StringCodec) Decode(raw string) (string, error) { return raw, nil }
