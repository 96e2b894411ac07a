package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuebitt/webwidgets/pkg/logging"
)

// Common host errors.
var (
	ErrHostClosed       = errors.New("host is disconnected")
	ErrAlreadyConnected = errors.New("element already connected")
	ErrNotConnected     = errors.New("element not connected")
	ErrNilRenderer      = errors.New("element returned nil renderer")
)

// Events pushed from a host to its transport.
const (
	EventRender  = "render"
	EventReflect = "reflect"
	EventEmit    = "emit"
)

// Transport is the interface for the connection a host pushes fragments to.
type Transport interface {
	Send(msg Message) error
	Close() error
	IsConnected() bool
}

// Message represents a message sent from a host to the page.
type Message struct {
	Ref     string         `json:"ref,omitempty"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the logger used for transport and polling diagnostics.
func WithLogger(logger logging.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Host drives the lifecycle of a single element instance placed on a page.
//
// Every element callback runs with the host lock held, so element code is
// never executed concurrently for the same instance. Methods documented as
// "callback only" (Render, Reflect, Emit) must be called from inside a
// callback or a Do function; the others acquire the lock themselves.
type Host struct {
	id        string
	element   Element
	transport Transport
	attrs     *Attributes
	observed  map[string]bool
	logger    logging.Logger

	connected   atomic.Bool
	closed      atomic.Bool
	connectedAt time.Time

	// lifetime is cancelled on Disconnect; timers and fetches bind to it.
	lifetime context.Context
	cancel   context.CancelFunc

	fragment string
	fragMu   sync.RWMutex
	renders  atomic.Int64

	mu sync.Mutex
}

// NewHost creates a host for el identified by id. The transport may be nil,
// in which case rendered fragments are only kept locally.
func NewHost(id string, el Element, transport Transport, opts ...HostOption) *Host {
	observed := make(map[string]bool)
	for _, name := range el.ObservedAttributes() {
		observed[name] = true
	}

	lifetime, cancel := context.WithCancel(context.Background())

	h := &Host{
		id:        id,
		element:   el,
		transport: transport,
		attrs:     NewAttributes(),
		observed:  observed,
		logger:    logging.NopLogger{},
		lifetime:  lifetime,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logging.String("ref", id), logging.String("tag", el.Tag()))
	return h
}

// ID returns the instance identifier.
func (h *Host) ID() string {
	return h.id
}

// Tag returns the element's tag name.
func (h *Host) Tag() string {
	return h.element.Tag()
}

// Element returns the hosted element.
func (h *Host) Element() Element {
	return h.element
}

// Logger returns the host's logger, annotated with ref and tag.
func (h *Host) Logger() logging.Logger {
	return h.logger
}

// Lifetime returns a context that is cancelled when the host disconnects.
func (h *Host) Lifetime() context.Context {
	return h.lifetime
}

// IsConnected reports whether initialization completed and the host has
// not been disconnected.
func (h *Host) IsConnected() bool {
	return h.connected.Load()
}

// ConnectedAt returns when initialization completed.
func (h *Host) ConnectedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connectedAt
}

// Observes reports whether name is one of the element's observed attributes.
func (h *Host) Observes(name string) bool {
	return h.observed[name]
}

// Attribute returns an attribute value and whether it is present.
func (h *Host) Attribute(name string) (string, bool) {
	return h.attrs.Lookup(name)
}

// AttributeOr returns an attribute value or def when absent or empty.
func (h *Host) AttributeOr(name, def string) string {
	return h.attrs.GetDefault(name, def)
}

// Attributes returns a copy of all stored attributes, observed or not.
func (h *Host) Attributes() map[string]string {
	return h.attrs.Data()
}

// Fragment returns the most recently rendered fragment.
func (h *Host) Fragment() string {
	h.fragMu.RLock()
	defer h.fragMu.RUnlock()
	return h.fragment
}

// RenderCount returns how many times the element has been rendered.
func (h *Host) RenderCount() int64 {
	return h.renders.Load()
}

// Connect stores attrs and initializes the element. The host is marked
// connected only if the element's Connected callback succeeds.
func (h *Host) Connect(ctx context.Context, attrs map[string]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed.Load() {
		return ErrHostClosed
	}
	if h.connected.Load() {
		return ErrAlreadyConnected
	}

	for name, value := range attrs {
		h.attrs.Set(name, value)
	}

	if err := h.element.Connected(WithHost(ctx, h), h); err != nil {
		return fmt.Errorf("connect %s: %w", h.element.Tag(), err)
	}

	h.connectedAt = time.Now()
	h.connected.Store(true)
	return nil
}

// SetAttribute records a new attribute value. The element is notified only
// when it is connected, observes name and the value actually changed.
func (h *Host) SetAttribute(ctx context.Context, name, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed.Load() {
		return ErrHostClosed
	}

	old, changed := h.attrs.Set(name, value)
	if !changed || !h.connected.Load() || !h.observed[name] {
		return nil
	}
	return h.element.AttributeChanged(WithHost(ctx, h), name, old, value)
}

// RemoveAttribute deletes an attribute. The element sees the change as a
// transition to the empty value.
func (h *Host) RemoveAttribute(ctx context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed.Load() {
		return ErrHostClosed
	}

	old, had := h.attrs.Remove(name)
	if !had || !h.connected.Load() || !h.observed[name] {
		return nil
	}
	return h.element.AttributeChanged(WithHost(ctx, h), name, old, "")
}

// Dispatch forwards a user event to the element if it handles events.
func (h *Host) Dispatch(ctx context.Context, event string, payload map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed.Load() {
		return ErrHostClosed
	}
	if !h.connected.Load() {
		return ErrNotConnected
	}

	handler, ok := h.element.(EventHandler)
	if !ok {
		return nil
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	return handler.HandleEvent(WithHost(ctx, h), event, payload)
}

// Do runs fn with the host lock held. It returns ErrNotConnected without
// calling fn once the host is no longer connected, which is how late
// results of background work are discarded.
func (h *Host) Do(fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected.Load() {
		return ErrNotConnected
	}
	return fn()
}

// Disconnect cancels the instance lifetime and notifies the element.
// Calling it more than once is safe.
func (h *Host) Disconnect(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	wasConnected := h.connected.Swap(false)
	h.cancel()

	if wasConnected {
		h.element.Disconnected(WithHost(ctx, h))
	}
}

// Render rebuilds the fragment and pushes it to the transport.
// Callback only.
func (h *Host) Render(ctx context.Context) error {
	r := h.element.Render(ctx)
	if r == nil {
		return ErrNilRenderer
	}

	var sb strings.Builder
	if err := r.Render(ctx, &sb); err != nil {
		return fmt.Errorf("render %s: %w", h.element.Tag(), err)
	}
	html := sb.String()

	h.fragMu.Lock()
	h.fragment = html
	h.fragMu.Unlock()
	h.renders.Add(1)

	h.send(Message{Event: EventRender, Payload: map[string]any{"html": html}})
	return nil
}

// Reflect sets an attribute from inside the element (the equivalent of an
// element calling setAttribute on itself). The page is told about the new
// value and, if it changed, the element's AttributeChanged runs.
// Callback only.
func (h *Host) Reflect(ctx context.Context, name, value string) error {
	old, changed := h.attrs.Set(name, value)

	h.send(Message{Event: EventReflect, Payload: map[string]any{"name": name, "value": value}})

	if !changed || !h.connected.Load() || !h.observed[name] {
		return nil
	}
	return h.element.AttributeChanged(ctx, name, old, value)
}

// Emit dispatches a custom event from the element to the page.
// Callback only.
func (h *Host) Emit(event string, detail map[string]any) {
	h.send(Message{Event: EventEmit, Payload: map[string]any{"event": event, "detail": detail}})
}

func (h *Host) send(msg Message) {
	if h.transport == nil || !h.transport.IsConnected() {
		return
	}
	msg.Ref = h.id
	if err := h.transport.Send(msg); err != nil {
		h.logger.Debug("dropping message", logging.String("event", msg.Event), logging.Err(err))
	}
}
