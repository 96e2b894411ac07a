// Package lanyard implements the lanyard-status element, a Discord presence
// badge that polls a Lanyard status API.
package lanyard

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/presence"
	"github.com/cuebitt/webwidgets/pkg/statusapi"
)

// Tag is the element tag name.
const Tag = "lanyard-status"

// Attribute names.
const (
	AttrUserID         = "user-id"
	AttrUpdateInterval = "update-interval"
)

// Defaults applied when an attribute is absent or invalid.
const (
	DefaultUserID         = "987555201969971210"
	DefaultUpdateInterval = 30
)

// errStale marks a poll whose interval has been replaced.
var errStale = errors.New("stale poll")

// Option configures a Status element.
type Option func(*Status)

// WithUnit sets the duration of one update-interval step. Defaults to a
// second.
func WithUnit(unit time.Duration) Option {
	return func(s *Status) {
		if unit > 0 {
			s.unit = unit
		}
	}
}

// Status is the lanyard-status element.
type Status struct {
	core.BaseElement
	source statusapi.Source
	unit   time.Duration

	host     *core.Host
	userID   string
	every    float64
	ticker   *core.Interval
	snapshot *presence.Snapshot
}

// New creates a lanyard-status element that reads presence from source.
func New(source statusapi.Source, opts ...Option) *Status {
	s := &Status{
		source: source,
		unit:   time.Second,
		userID: DefaultUserID,
		every:  DefaultUpdateInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Status) Tag() string { return Tag }

func (s *Status) ObservedAttributes() []string {
	return []string{AttrUserID, AttrUpdateInterval}
}

// UserID returns the user whose presence is displayed.
func (s *Status) UserID() string {
	return s.userID
}

// UpdateInterval returns the polling interval in units.
func (s *Status) UpdateInterval() float64 {
	return s.every
}

// Snapshot returns the last successfully fetched snapshot.
func (s *Status) Snapshot() *presence.Snapshot {
	return s.snapshot
}

// Period returns the current polling period. It is never shorter than one
// unit, and intervals too long for a time.Duration saturate.
func (s *Status) Period() time.Duration {
	d := s.every * float64(s.unit)
	if d >= math.MaxInt64 {
		return math.MaxInt64
	}
	return max(time.Duration(d), s.unit)
}

// Connected performs the first fetch, renders it and starts polling. A
// failed first fetch fails the connect and nothing is rendered.
func (s *Status) Connected(ctx context.Context, host *core.Host) error {
	s.host = host
	s.userID = host.AttributeOr(AttrUserID, DefaultUserID)
	s.every = ParseInterval(host.AttributeOr(AttrUpdateInterval, ""))

	snap, err := s.source.Fetch(ctx, s.userID)
	if err != nil {
		return err
	}
	s.snapshot = snap

	if err := host.Render(ctx); err != nil {
		return err
	}
	s.ticker = host.Every(s.Period(), s.poll)
	return nil
}

// AttributeChanged applies a new user id or interval. A new user id only
// re-renders; the snapshot is refreshed on the next poll.
func (s *Status) AttributeChanged(ctx context.Context, name, oldValue, newValue string) error {
	switch name {
	case AttrUserID:
		s.userID = valueOr(newValue, DefaultUserID)
	case AttrUpdateInterval:
		s.every = ParseInterval(newValue)
		s.ticker.Stop()
		s.ticker = s.host.Every(s.Period(), s.poll)
	}
	return s.host.Render(ctx)
}

// Disconnected stops polling.
func (s *Status) Disconnected(ctx context.Context) {
	s.ticker.Stop()
	s.ticker = nil
}

// poll runs on the interval goroutine. The fetch happens outside the host
// lock; its result is dropped if the interval was replaced meanwhile or
// the element is gone.
func (s *Status) poll(ctx context.Context, iv *core.Interval) {
	var userID string
	err := s.host.Do(func() error {
		if iv != s.ticker {
			return errStale
		}
		userID = s.userID
		return nil
	})
	if err != nil {
		return
	}

	snap, err := s.source.Fetch(ctx, userID)
	if err != nil {
		if ctx.Err() == nil {
			s.host.Logger().Warn("presence refresh failed, keeping last snapshot",
				logging.String("user_id", userID),
				logging.Err(err),
			)
		}
		return
	}

	err = s.host.Do(func() error {
		if iv != s.ticker {
			return errStale
		}
		s.snapshot = snap
		return s.host.Render(ctx)
	})
	if err != nil && err != errStale && err != core.ErrNotConnected {
		s.host.Logger().Error("presence render failed", logging.Err(err))
	}
}

// ParseInterval reads an update-interval attribute. Values that are not a
// positive finite number yield the default.
func ParseInterval(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return DefaultUpdateInterval
	}
	return f
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
