package core

import (
	"context"
)

// Context keys for storing values in context.
type contextKey string

const hostKey contextKey = "webwidgets:host"

// WithHost adds a host to the context.
func WithHost(ctx context.Context, host *Host) context.Context {
	return context.WithValue(ctx, hostKey, host)
}

// HostFromContext retrieves the host from context.
func HostFromContext(ctx context.Context) *Host {
	h, _ := ctx.Value(hostKey).(*Host)
	return h
}

// Placement describes one widget declared on a page: its tag and the
// attributes written in the markup.
type Placement struct {
	Tag        string            `json:"tag" yaml:"tag"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}
