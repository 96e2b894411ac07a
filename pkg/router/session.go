package router

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/protocol"
	"github.com/cuebitt/webwidgets/pkg/transport"
)

// ErrSessionClosed is returned when attaching to a closed session.
var ErrSessionClosed = errors.New("session closed")

// Session is one live connection and the widget hosts attached over it.
type Session struct {
	// ID identifies the connection in logs.
	ID string

	transport transport.Transport
	adapter   *TransportAdapter
	logger    logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	hosts        map[string]*core.Host
	createdAt    time.Time
	lastActivity time.Time
	closed       bool

	mu sync.RWMutex
}

func newSession(t transport.Transport, logger logging.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	id := uuid.NewString()
	return &Session{
		ID:           id,
		transport:    t,
		adapter:      NewTransportAdapter(t),
		logger:       logger.With(logging.String("session", id)),
		ctx:          ctx,
		cancel:       cancel,
		hosts:        make(map[string]*core.Host),
		createdAt:    now,
		lastActivity: now,
	}
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// CreatedAt returns when the connection was accepted.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Touch records activity on the connection.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns the time of the last received message.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Host returns the host attached under ref.
func (s *Session) Host(ref string) (*core.Host, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hosts[ref]
	return h, ok
}

// Len returns the number of attached hosts.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hosts)
}

// Refs returns the attached refs in sorted order.
func (s *Session) Refs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]string, 0, len(s.hosts))
	for ref := range s.hosts {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func (s *Session) attach(ref string, h *core.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if _, ok := s.hosts[ref]; ok {
		return ErrDuplicateRef
	}
	s.hosts[ref] = h
	return nil
}

func (s *Session) detach(ref string) *core.Host {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hosts[ref]
	delete(s.hosts, ref)
	return h
}

func (s *Session) send(msg *protocol.Message) {
	if err := s.transport.Send(msg); err != nil {
		s.logger.Debug("dropping reply", logging.String("type", msg.Type.String()), logging.Err(err))
	}
}

// Close disconnects every attached host and closes the transport. Calling
// it more than once is safe.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	hosts := s.hosts
	s.hosts = make(map[string]*core.Host)
	s.mu.Unlock()

	s.cancel()
	for _, h := range hosts {
		h.Disconnect(ctx)
	}
	_ = s.transport.Close()
}

// SessionManager tracks live sessions.
type SessionManager struct {
	sessions map[string]*Session
	reserved int
	mu       sync.RWMutex
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// Reserve claims room for one more session before the upgrade. It fails
// once live and reserved sessions reach max; a zero max means unlimited.
// Create consumes the reservation, Unreserve hands it back.
func (m *SessionManager) Reserve(max int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max > 0 && len(m.sessions)+m.reserved >= max {
		return false
	}
	m.reserved++
	return true
}

// Unreserve returns a reservation whose upgrade did not happen.
func (m *SessionManager) Unreserve() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserved > 0 {
		m.reserved--
	}
}

// Create registers a session for a freshly accepted transport.
func (m *SessionManager) Create(t transport.Transport, logger logging.Logger) *Session {
	s := newSession(t, logger)

	m.mu.Lock()
	m.sessions[s.ID] = s
	if m.reserved > 0 {
		m.reserved--
	}
	m.mu.Unlock()

	return s
}

// Get obtains a session by ID.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove forgets a session without closing it.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Elements returns the number of hosts attached across all sessions.
func (m *SessionManager) Elements() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		n += s.Len()
	}
	return n
}

// CloseAll closes and forgets every session.
func (m *SessionManager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close(ctx)
	}
}
