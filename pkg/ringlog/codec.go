package ringlog

import (
	"encoding/json"
)

// Codec converts messages of type T to and from the payload bytes stored in a
// frame. The ring log never inspects payloads.
//
// Unmarshal must not retain payload after it returns; the buffer is reused.
type Codec[T any] interface {
	Marshal(message T) ([]byte, error)
	Unmarshal(payload []byte) (T, error)
}

// CodecFuncs adapts a pair of functions to Codec.
type CodecFuncs[T any] struct {
	MarshalFunc   func(message T) ([]byte, error)
	UnmarshalFunc func(payload []byte) (T, error)
}

// Marshal implements Codec.
func (c CodecFuncs[T]) Marshal(message T) ([]byte, error) {
	return c.MarshalFunc(message)
}

// Unmarshal implements Codec.
func (c CodecFuncs[T]) Unmarshal(payload []byte) (T, error) {
	return c.UnmarshalFunc(payload)
}

// JSONCodec stores messages as JSON documents.
type JSONCodec[T any] struct{}

// Marshal implements Codec.
func (JSONCodec[T]) Marshal(message T) ([]byte, error) {
	return json.Marshal(message)
}

// Unmarshal implements Codec.
func (JSONCodec[T]) Unmarshal(payload []byte) (T, error) {
	var message T
	err := json.Unmarshal(payload, &message)
	return message, err
}

// BytesCodec stores raw byte slices unchanged.
type BytesCodec struct{}

// Marshal implements Codec.
func (BytesCodec) Marshal(message []byte) ([]byte, error) {
	return message, nil
}

// Unmarshal implements Codec. The returned slice is owned by the caller.
func (BytesCodec) Unmarshal(payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// StringCodec stores strings as their UTF-8 bytes.
type StringCodec struct{}

// Marshal implements Codec.
func (StringCodec) Marshal(message string) ([]byte, error) {
	return []byte(message), nil
}

// Unmarshal implements Codec.
func (StringCodec) Unmarshal(payload []byte) (string, error) {
	return string(payload), nil
}

var (
	_ Codec[[]byte] = BytesCodec{}
	_ Codec[string] = StringCodec{}
)
