// Package protocol defines the live wire protocol between pages and the
// webwidgets server.
package protocol

import (
	"errors"
	"fmt"
	"time"
)

// MessageType identifies the type of protocol message.
type MessageType string

// Client to server.
const (
	// MsgConnect attaches a new element instance: {tag, attrs}.
	MsgConnect MessageType = "connect"
	// MsgAttr reports an attribute change: {name, value}; a null value
	// means the attribute was removed.
	MsgAttr MessageType = "attr"
	// MsgEvent forwards a user interaction: event name plus payload.
	MsgEvent MessageType = "event"
	// MsgDisconnect detaches an element instance.
	MsgDisconnect MessageType = "disconnect"
	// MsgHeartbeat keeps the connection alive.
	MsgHeartbeat MessageType = "heartbeat"
)

// Server to client.
const (
	// MsgRender carries a freshly rendered fragment: {html}.
	MsgRender MessageType = "render"
	// MsgReflect asks the page to set an attribute on the host tag.
	MsgReflect MessageType = "reflect"
	// MsgEmit asks the page to dispatch a custom event: {event, detail}.
	MsgEmit MessageType = "emit"
	// MsgError reports a failure for a ref: {reason}.
	MsgError MessageType = "error"
	// MsgReply acknowledges a heartbeat.
	MsgReply MessageType = "reply"
)

// ErrInvalidMessage is returned for messages that fail validation.
var ErrInvalidMessage = errors.New("invalid message format")

// String returns the wire name of the message type.
func (mt MessageType) String() string {
	return string(mt)
}

// FromClient reports whether pages may send this type.
func (mt MessageType) FromClient() bool {
	switch mt {
	case MsgConnect, MsgAttr, MsgEvent, MsgDisconnect, MsgHeartbeat:
		return true
	}
	return false
}

// Message represents a protocol message exchanged between client and server.
type Message struct {
	// Type identifies what kind of message this is
	Type MessageType `json:"t" msgpack:"t"`

	// Ref identifies the element instance within the connection
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// Event is the user event name for MsgEvent
	Event string `json:"event,omitempty" msgpack:"event,omitempty"`

	// Payload contains the message data
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`

	// Timestamp when the message was created
	Timestamp int64 `json:"ts,omitempty" msgpack:"ts,omitempty"`
}

// NewMessage creates a new message with the given parameters.
func NewMessage(msgType MessageType, ref string) *Message {
	return &Message{
		Type:      msgType,
		Ref:       ref,
		Payload:   make(map[string]any),
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithPayload sets the message payload.
func (m *Message) WithPayload(payload map[string]any) *Message {
	m.Payload = payload
	return m
}

// SetPayloadValue sets a single value in the payload.
func (m *Message) SetPayloadValue(key string, value any) *Message {
	if m.Payload == nil {
		m.Payload = make(map[string]any)
	}
	m.Payload[key] = value
	return m
}

// GetPayloadString retrieves a string value from the payload.
func (m *Message) GetPayloadString(key string) string {
	if m.Payload == nil {
		return ""
	}
	if v, ok := m.Payload[key].(string); ok {
		return v
	}
	return ""
}

// GetPayloadMap retrieves a nested object from the payload.
func (m *Message) GetPayloadMap(key string) map[string]any {
	if m.Payload == nil {
		return nil
	}
	v, _ := m.Payload[key].(map[string]any)
	return v
}

// Attributes returns the attrs object of a connect message as strings.
// Non-string values are formatted; nulls are skipped.
func (m *Message) Attributes() map[string]string {
	raw := m.GetPayloadMap("attrs")
	attrs := make(map[string]string, len(raw))
	for name, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			attrs[name] = v
		default:
			attrs[name] = fmt.Sprint(v)
		}
	}
	return attrs
}

// AttrChange returns the name and value of an attr message. present is
// false when the attribute was removed.
func (m *Message) AttrChange() (name, value string, present bool) {
	name = m.GetPayloadString("name")
	v, ok := m.Payload["value"]
	if !ok || v == nil {
		return name, "", false
	}
	if s, ok := v.(string); ok {
		return name, s, true
	}
	return name, fmt.Sprint(v), true
}

// Validate checks a message received from a page.
func (m *Message) Validate() error {
	if !m.Type.FromClient() {
		return fmt.Errorf("%w: unexpected type %q", ErrInvalidMessage, m.Type)
	}
	if m.Type != MsgHeartbeat && m.Ref == "" {
		return fmt.Errorf("%w: %s without ref", ErrInvalidMessage, m.Type)
	}
	switch m.Type {
	case MsgConnect:
		if m.GetPayloadString("tag") == "" {
			return fmt.Errorf("%w: connect without tag", ErrInvalidMessage)
		}
	case MsgAttr:
		if m.GetPayloadString("name") == "" {
			return fmt.Errorf("%w: attr without name", ErrInvalidMessage)
		}
	case MsgEvent:
		if m.Event == "" {
			return fmt.Errorf("%w: event without name", ErrInvalidMessage)
		}
	}
	return nil
}

// Clone creates a copy of the message.
func (m *Message) Clone() *Message {
	clone := &Message{
		Type:      m.Type,
		Ref:       m.Ref,
		Event:     m.Event,
		Timestamp: m.Timestamp,
	}
	if m.Payload != nil {
		clone.Payload = make(map[string]any, len(m.Payload))
		for k, v := range m.Payload {
			clone.Payload[k] = v
		}
	}
	return clone
}

// Convenience constructors

// ConnectMessage creates a connect message.
func ConnectMessage(ref, tag string, attrs map[string]string) *Message {
	a := make(map[string]any, len(attrs))
	for k, v := range attrs {
		a[k] = v
	}
	return NewMessage(MsgConnect, ref).WithPayload(map[string]any{"tag": tag, "attrs": a})
}

// AttrMessage creates an attribute change message.
func AttrMessage(ref, name, value string) *Message {
	return NewMessage(MsgAttr, ref).WithPayload(map[string]any{"name": name, "value": value})
}

// RemoveAttrMessage creates an attribute removal message.
func RemoveAttrMessage(ref, name string) *Message {
	return NewMessage(MsgAttr, ref).WithPayload(map[string]any{"name": name, "value": nil})
}

// EventMessage creates a user event message.
func EventMessage(ref, event string, payload map[string]any) *Message {
	msg := NewMessage(MsgEvent, ref)
	msg.Event = event
	if payload != nil {
		msg.Payload = payload
	}
	return msg
}

// DisconnectMessage creates a disconnect message.
func DisconnectMessage(ref string) *Message {
	return NewMessage(MsgDisconnect, ref)
}

// RenderMessage creates a render message.
func RenderMessage(ref, html string) *Message {
	return NewMessage(MsgRender, ref).WithPayload(map[string]any{"html": html})
}

// ReflectMessage creates a reflect message.
func ReflectMessage(ref, name, value string) *Message {
	return NewMessage(MsgReflect, ref).WithPayload(map[string]any{"name": name, "value": value})
}

// EmitMessage creates a custom event message.
func EmitMessage(ref, event string, detail map[string]any) *Message {
	return NewMessage(MsgEmit, ref).WithPayload(map[string]any{"event": event, "detail": detail})
}

// ErrorMessage creates an error message.
func ErrorMessage(ref, reason string) *Message {
	return NewMessage(MsgError, ref).WithPayload(map[string]any{"reason": reason})
}

// HeartbeatMessage creates a heartbeat message.
func HeartbeatMessage() *Message {
	return NewMessage(MsgHeartbeat, "")
}

// ReplyMessage acknowledges a heartbeat.
func ReplyMessage(ref string) *Message {
	return NewMessage(MsgReply, ref).WithPayload(map[string]any{"status": "ok"})
}
