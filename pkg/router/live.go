package router

import (
	"context"
	"fmt"
	"time"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/limits"
	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/protocol"
)

type sessionKey struct{}

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

func (r *Router) newDispatcher() *protocol.Dispatcher {
	d := protocol.NewDispatcher()
	d.SetTimeout(r.config.Timeouts.ElementConnect)
	d.Use(protocol.LoggingMiddleware(r.logger))

	d.RegisterFunc(protocol.MsgConnect, r.onConnect)
	d.RegisterFunc(protocol.MsgAttr, r.onAttr)
	d.RegisterFunc(protocol.MsgEvent, r.onEvent)
	d.RegisterFunc(protocol.MsgDisconnect, r.onDisconnect)
	d.RegisterFunc(protocol.MsgHeartbeat, func(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
		return protocol.ReplyMessage(msg.Ref), nil
	})
	return d
}

// messageLoop processes incoming messages of one connection in order.
// When the socket closes every host of the session is disconnected.
func (r *Router) messageLoop(s *Session, ip string) {
	defer func() {
		r.sessions.Remove(s.ID)
		s.Close(context.Background())
		r.rates.Forget(s.ID)
		r.conns.Release(ip)
		r.metrics.SessionsActive.Dec()
		s.logger.Info("session closed",
			logging.Duration("age", time.Since(s.CreatedAt())),
			logging.Duration("idle", time.Since(s.LastActivity())),
		)
	}()

	for {
		select {
		case msg := <-s.transport.Receive():
			s.Touch()
			r.handleMessage(s, msg)
		case <-s.transport.Done():
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// handleMessage runs one message. Messages over the connection's rate are
// answered with an error and not applied.
func (r *Router) handleMessage(s *Session, msg *protocol.Message) {
	r.metrics.MessagesReceived.Inc(msg.Type.String())

	if !r.rates.Allow(s.ID) {
		r.fail(s, msg, limits.ErrRateLimitExceeded)
		return
	}
	if err := msg.Validate(); err != nil {
		r.fail(s, msg, err)
		return
	}

	reply, err := r.dispatcher.Dispatch(withSession(s.ctx, s), msg)
	if err != nil {
		r.fail(s, msg, err)
		return
	}
	if reply != nil {
		s.send(reply)
	}
}

func (r *Router) fail(s *Session, msg *protocol.Message, err error) {
	r.metrics.Errors.Inc(msg.Type.String())
	s.send(protocol.ErrorMessage(msg.Ref, err.Error()))
}

func (r *Router) onConnect(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	defer r.metrics.ConnectDuration.Since(time.Now())

	s := sessionFrom(ctx)
	if _, ok := s.Host(msg.Ref); ok {
		return nil, ErrDuplicateRef
	}
	if s.Len() >= r.config.MaxElements {
		return nil, ErrTooManyElements
	}

	tag := msg.GetPayloadString("tag")
	el, err := r.registry.Create(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, tag)
	}

	host := core.NewHost(msg.Ref, el, s.adapter, core.WithLogger(s.logger))
	if err := host.Connect(ctx, msg.Attributes()); err != nil {
		host.Disconnect(ctx)
		return nil, err
	}
	if err := s.attach(msg.Ref, host); err != nil {
		host.Disconnect(context.Background())
		return nil, err
	}

	s.logger.Debug("element connected", logging.String("ref", msg.Ref), logging.String("tag", tag))
	return nil, nil
}

func (r *Router) onAttr(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	host, ok := sessionFrom(ctx).Host(msg.Ref)
	if !ok {
		return nil, ErrUnknownRef
	}

	name, value, present := msg.AttrChange()
	if !present {
		return nil, host.RemoveAttribute(ctx, name)
	}
	return nil, host.SetAttribute(ctx, name, value)
}

func (r *Router) onEvent(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	host, ok := sessionFrom(ctx).Host(msg.Ref)
	if !ok {
		return nil, ErrUnknownRef
	}
	return nil, host.Dispatch(ctx, msg.Event, msg.Payload)
}

// onDisconnect is quiet for refs that never attached, which happens when
// the page removes an element whose connect failed.
func (r *Router) onDisconnect(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	if host := sessionFrom(ctx).detach(msg.Ref); host != nil {
		host.Disconnect(ctx)
	}
	return nil, nil
}
