// Package testing provides testing utilities for webwidgets elements.
// It lets element lifecycles be exercised without a browser or websocket.
package testing

import (
	"errors"
	"sync"
	"time"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/google/uuid"
)

// ErrTransportClosed is returned by Send after Close.
var ErrTransportClosed = errors.New("recording transport closed")

// RecordingTransport implements core.Transport and keeps every message.
type RecordingTransport struct {
	ID        string
	sent      []core.Message
	closed    bool
	sendError error
	notify    chan struct{}

	mu sync.Mutex
}

// NewRecordingTransport creates a connected recording transport.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{
		ID:     "test-transport-" + uuid.New().String()[:8],
		notify: make(chan struct{}, 1),
	}
}

// Send records a message.
func (rt *RecordingTransport) Send(msg core.Message) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.sendError != nil {
		return rt.sendError
	}
	if rt.closed {
		return ErrTransportClosed
	}

	rt.sent = append(rt.sent, msg)
	select {
	case rt.notify <- struct{}{}:
	default:
	}
	return nil
}

// Close marks the transport as closed.
func (rt *RecordingTransport) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.closed = true
	return nil
}

// IsConnected reports whether Close has not been called.
func (rt *RecordingTransport) IsConnected() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return !rt.closed
}

// Messages returns a copy of all recorded messages.
func (rt *RecordingTransport) Messages() []core.Message {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	result := make([]core.Message, len(rt.sent))
	copy(result, rt.sent)
	return result
}

// Count returns how many messages with event were recorded.
func (rt *RecordingTransport) Count(event string) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	n := 0
	for _, msg := range rt.sent {
		if msg.Event == event {
			n++
		}
	}
	return n
}

// Last returns the most recent message with event.
func (rt *RecordingTransport) Last(event string) (core.Message, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for i := len(rt.sent) - 1; i >= 0; i-- {
		if rt.sent[i].Event == event {
			return rt.sent[i], true
		}
	}
	return core.Message{}, false
}

// Emitted returns the details of every custom event named name.
func (rt *RecordingTransport) Emitted(name string) []map[string]any {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var details []map[string]any
	for _, msg := range rt.sent {
		if msg.Event != core.EventEmit || msg.Payload["event"] != name {
			continue
		}
		detail, _ := msg.Payload["detail"].(map[string]any)
		details = append(details, detail)
	}
	return details
}

// WaitFor blocks until at least n messages with event were recorded or the
// timeout passes. It reports whether the count was reached.
func (rt *RecordingTransport) WaitFor(event string, n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if rt.Count(event) >= n {
			return true
		}
		select {
		case <-rt.notify:
		case <-deadline.C:
			return rt.Count(event) >= n
		}
	}
}

// SetError makes subsequent Sends fail with err.
func (rt *RecordingTransport) SetError(err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.sendError = err
}

// Reset clears recorded messages and errors and reopens the transport.
func (rt *RecordingTransport) Reset() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.sent = nil
	rt.closed = false
	rt.sendError = nil
}
