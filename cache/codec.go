package cache

import "github.com/vmihailenco/msgpack/v5"

// Codec turns values into the opaque bytes stored by a CacheService.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type msgpackCodec struct{}

// NewMsgpackCodec returns the default codec. Decoding always produces a fresh
// value, so a cached snapshot can never be mutated through a returned value.
func NewMsgpackCodec() Codec {
	return msgpackCodec{}
}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
