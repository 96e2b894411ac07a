package testing

import (
	"context"
	"sync"

	"github.com/cuebitt/webwidgets/pkg/presence"
)

// StubSource is an in-memory status source.
type StubSource struct {
	snapshot *presence.Snapshot
	err      error
	calls    []string
	gate     chan struct{}

	mu sync.Mutex
}

// NewStubSource creates a source that returns snap.
func NewStubSource(snap *presence.Snapshot) *StubSource {
	return &StubSource{snapshot: snap}
}

// Fetch returns the configured snapshot or error. When a gate is set it
// waits for Release or ctx first.
func (s *StubSource) Fetch(ctx context.Context, userID string) (*presence.Snapshot, error) {
	s.mu.Lock()
	s.calls = append(s.calls, userID)
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	snap := *s.snapshot
	return &snap, nil
}

// AvatarURL returns a fake avatar location.
func (s *StubSource) AvatarURL(userID string) string {
	return "https://avatars.test/" + userID + ".webp"
}

// SetSnapshot replaces the snapshot returned by later fetches.
func (s *StubSource) SetSnapshot(snap *presence.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.err = nil
}

// SetError makes later fetches fail.
func (s *StubSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Hold makes later fetches block until Release.
func (s *StubSource) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

// Release unblocks held fetches.
func (s *StubSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// Calls returns the user ids fetched so far.
func (s *StubSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, len(s.calls))
	copy(result, s.calls)
	return result
}
