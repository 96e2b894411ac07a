// Package core provides the fundamental abstractions for webwidgets elements.
package core

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
)

// Element is the interface that every widget must implement.
// Elements are attribute-driven: the host page declares a fixed set of
// attributes, the element reads them on connect and re-renders whenever
// one of them changes.
type Element interface {
	// Tag returns the custom element tag name (e.g. "lanyard-status").
	Tag() string

	// ObservedAttributes lists the attributes the element reacts to.
	// Changes to any other attribute are stored by the host but never
	// delivered to the element.
	ObservedAttributes() []string

	// Connected is called once when the element is attached to a page.
	// It must read its attributes from the host, apply defaults and
	// perform the initial render through host.Render.
	Connected(ctx context.Context, host *Host) error

	// AttributeChanged is called after initialization whenever an observed
	// attribute takes a new value. newValue is empty when the attribute was
	// removed.
	AttributeChanged(ctx context.Context, name, oldValue, newValue string) error

	// Disconnected is called when the element is removed from the page.
	// The host has already cancelled the instance lifetime at this point.
	Disconnected(ctx context.Context)

	// Render returns the current fragment. It must be a pure function of
	// the element's configuration and latest snapshot.
	Render(ctx context.Context) Renderer
}

// EventHandler is implemented by elements that react to user interaction
// (clicks and similar) forwarded by the page.
type EventHandler interface {
	HandleEvent(ctx context.Context, event string, payload map[string]any) error
}

// Renderer is the interface for rendering HTML content.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// StringRenderer renders a fixed, already built fragment.
type StringRenderer string

func (s StringRenderer) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, string(s))
	return err
}

// BaseElement provides default implementations for the optional parts of
// Element. Embed it and override what is needed.
type BaseElement struct{}

// ObservedAttributes returns no attributes.
func (BaseElement) ObservedAttributes() []string { return nil }

// AttributeChanged does nothing by default.
func (BaseElement) AttributeChanged(ctx context.Context, name, oldValue, newValue string) error {
	return nil
}

// Disconnected does nothing by default.
func (BaseElement) Disconnected(ctx context.Context) {}

// Registry errors.
var (
	ErrRegistrySealed = errors.New("element registry is sealed")
	ErrDuplicateTag   = errors.New("element tag already registered")
	ErrUnknownTag     = errors.New("unknown element tag")
	ErrInvalidTag     = errors.New("invalid element tag")
)

// Registry maps tag names to element factories.
// It is populated once at startup and sealed; after Seal it is read-only
// and safe for concurrent use.
type Registry struct {
	factories map[string]func() Element
	sealed    bool
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]func() Element),
	}
}

// Register adds an element factory under tag.
func (r *Registry) Register(tag string, factory func() Element) error {
	if !validTag(tag) || factory == nil {
		return ErrInvalidTag
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if _, ok := r.factories[tag]; ok {
		return ErrDuplicateTag
	}
	r.factories[tag] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tag string, factory func() Element) {
	if err := r.Register(tag, factory); err != nil {
		panic(tag + ": " + err.Error())
	}
}

// Seal prevents further registrations.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Create instantiates a new element by tag.
func (r *Registry) Create(tag string) (Element, error) {
	r.mu.RLock()
	f, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownTag
	}
	return f(), nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// validTag applies the custom element naming rule: lowercase ASCII,
// starting with a letter and containing a hyphen.
func validTag(tag string) bool {
	if len(tag) < 3 || tag[0] < 'a' || tag[0] > 'z' {
		return false
	}
	hyphen := false
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case c == '-':
			hyphen = true
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return hyphen
}
