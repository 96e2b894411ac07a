package protocol

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownCodec is returned for codec names that are not registered.
var ErrUnknownCodec = errors.New("unknown codec type")

// Codec turns messages into websocket frame payloads and back.
type Codec interface {
	Encode(msg *Message) ([]byte, error)
	Decode(data []byte) (*Message, error)

	// Name is the value of the ?codec= query parameter selecting it.
	Name() string

	// Binary reports whether encoded messages go in binary frames.
	Binary() bool
}

// JSONCodec sends messages as JSON text frames. The browser client uses it.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec { return &JSONCodec{} }

func (*JSONCodec) Encode(msg *Message) ([]byte, error)  { return json.Marshal(msg) }
func (*JSONCodec) Decode(data []byte) (*Message, error) { return decode(json.Unmarshal, data) }
func (*JSONCodec) Name() string                         { return "json" }
func (*JSONCodec) Binary() bool                         { return false }

// MsgPackCodec sends messages as MessagePack binary frames.
type MsgPackCodec struct{}

func NewMsgPackCodec() *MsgPackCodec { return &MsgPackCodec{} }

func (*MsgPackCodec) Encode(msg *Message) ([]byte, error)  { return msgpack.Marshal(msg) }
func (*MsgPackCodec) Decode(data []byte) (*Message, error) { return decode(msgpack.Unmarshal, data) }
func (*MsgPackCodec) Name() string                         { return "msgpack" }
func (*MsgPackCodec) Binary() bool                         { return true }

func decode(unmarshal func([]byte, any) error, data []byte) (*Message, error) {
	var msg Message
	if err := unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CodecRegistry holds the JSON and MsgPack codecs and the default used
// when a connection does not ask for one.
type CodecRegistry struct {
	codecs   map[string]Codec
	fallback Codec
	mu       sync.RWMutex
}

// NewCodecRegistry creates a registry with JSON as the default.
func NewCodecRegistry() *CodecRegistry {
	js, mp := NewJSONCodec(), NewMsgPackCodec()
	return &CodecRegistry{
		codecs:   map[string]Codec{js.Name(): js, mp.Name(): mp},
		fallback: js,
	}
}

// Get retrieves a codec by name.
func (r *CodecRegistry) Get(name string) (Codec, bool) {
	c, ok := r.codecs[name]
	return c, ok
}

// Default returns the default codec.
func (r *CodecRegistry) Default() Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// SetDefault selects the default codec by name.
func (r *CodecRegistry) SetDefault(name string) error {
	c, ok := r.codecs[name]
	if !ok {
		return ErrUnknownCodec
	}
	r.mu.Lock()
	r.fallback = c
	r.mu.Unlock()
	return nil
}
