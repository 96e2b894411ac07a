package router

import (
	"fmt"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/metrics"
	"github.com/cuebitt/webwidgets/pkg/protocol"
	"github.com/cuebitt/webwidgets/pkg/transport"
)

// hostEvents maps host events onto wire message types.
var hostEvents = map[string]protocol.MessageType{
	core.EventRender:  protocol.MsgRender,
	core.EventReflect: protocol.MsgReflect,
	core.EventEmit:    protocol.MsgEmit,
}

// TransportAdapter lets a core.Host push onto a live transport.
type TransportAdapter struct {
	t transport.Transport
}

// NewTransportAdapter wraps t.
func NewTransportAdapter(t transport.Transport) *TransportAdapter {
	return &TransportAdapter{t: t}
}

// Send implements core.Transport.
func (a *TransportAdapter) Send(msg core.Message) error {
	typ, ok := hostEvents[msg.Event]
	if !ok {
		return fmt.Errorf("unknown host event %q", msg.Event)
	}
	return a.t.Send(protocol.NewMessage(typ, msg.Ref).WithPayload(msg.Payload))
}

// Close implements core.Transport.
func (a *TransportAdapter) Close() error {
	return a.t.Close()
}

// IsConnected implements core.Transport.
func (a *TransportAdapter) IsConnected() bool {
	return a.t.IsConnected()
}

// meteredTransport counts every message pushed to the page.
type meteredTransport struct {
	transport.Transport
	sent *metrics.CounterVec
}

func (m *meteredTransport) Send(msg *protocol.Message) error {
	if err := m.Transport.Send(msg); err != nil {
		return err
	}
	m.sent.Inc(msg.Type.String())
	return nil
}
