package core

import (
	"sort"
	"sync"
)

// Attributes is a thread-safe store for the attributes declared on an
// element. Set and Remove report whether anything changed so hosts can tell
// real changes from redundant writes.
type Attributes struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewAttributes creates an empty attribute store.
func NewAttributes() *Attributes {
	return &Attributes{
		data: make(map[string]string),
	}
}

// Get returns the attribute value or empty string if absent.
func (a *Attributes) Get(name string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data[name]
}

// Lookup returns the attribute value and whether it is present.
func (a *Attributes) Lookup(name string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.data[name]
	return v, ok
}

// GetDefault returns the attribute value, or def when the attribute is
// absent or empty.
func (a *Attributes) GetDefault(name, def string) string {
	if v := a.Get(name); v != "" {
		return v
	}
	return def
}

// Set stores a value. It returns the previous value and whether the
// stored value actually changed (a new attribute always counts as changed).
func (a *Attributes) Set(name, value string) (old string, changed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	old, had := a.data[name]
	a.data[name] = value
	return old, !had || old != value
}

// Remove deletes an attribute, returning the previous value and whether
// it was present.
func (a *Attributes) Remove(name string) (old string, had bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	old, had = a.data[name]
	delete(a.data, name)
	return old, had
}

// Names returns the attribute names in sorted order.
func (a *Attributes) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.data))
	for name := range a.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Data returns a copy of all attributes.
func (a *Attributes) Data() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make(map[string]string, len(a.data))
	for k, v := range a.data {
		result[k] = v
	}
	return result
}
