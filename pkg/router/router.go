// Package router serves the widget page, the live websocket endpoint, the
// client script and the health endpoints.
package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cuebitt/webwidgets/client"
	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/health"
	"github.com/cuebitt/webwidgets/pkg/limits"
	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/metrics"
	"github.com/cuebitt/webwidgets/pkg/protocol"
	"github.com/cuebitt/webwidgets/pkg/transport"
)

// Routes.
const (
	PathPage    = "/"
	PathSocket  = "/_widgets/ws"
	PathScript  = "/_widgets/static/" + client.ScriptName
	PathHealth  = "/healthz"
	PathLive    = "/livez"
	PathReady   = "/readyz"
	PathMetrics = "/metrics"
)

// Common router errors.
var (
	ErrUnknownRef      = errors.New("unknown ref")
	ErrDuplicateRef    = errors.New("ref already connected")
	ErrTooManyElements = errors.New("too many elements on this connection")
)

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// Router handles HTTP routing for the widget server.
type Router struct {
	mux        *http.ServeMux
	handler    http.Handler
	registry   *core.Registry
	page       Page
	config     core.Config
	codecs     *protocol.CodecRegistry
	logger     logging.Logger
	sessions   *SessionManager
	health     *health.Checker
	dispatcher *protocol.Dispatcher
	middleware []Middleware
	metrics    *metrics.Metrics
	rates      *limits.TokenBucket
	conns      *limits.ConnectionLimiter
}

// Option configures a Router.
type Option func(*Router)

// WithConfig sets the server configuration. The configured codec becomes
// the default for connections that do not ask for one.
func WithConfig(cfg core.Config) Option {
	return func(r *Router) {
		r.config = cfg
	}
}

// WithLogger sets the router logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPage sets the page served at /.
func WithPage(page Page) Option {
	return func(r *Router) {
		r.page = page
	}
}

// WithHealth replaces the default health checker.
func WithHealth(hc *health.Checker) Option {
	return func(r *Router) {
		if hc != nil {
			r.health = hc
		}
	}
}

// WithMetrics sets the collector served at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithMiddleware appends HTTP middleware, outermost first.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// New creates a router serving elements from reg.
func New(reg *core.Registry, opts ...Option) (*Router, error) {
	r := &Router{
		mux:      http.NewServeMux(),
		registry: reg,
		config:   core.DefaultConfig(),
		codecs:   protocol.NewCodecRegistry(),
		logger:   logging.NopLogger{},
		health:   health.DefaultChecker(""),
		metrics:  metrics.New("webwidgets"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	if err := r.codecs.SetDefault(r.config.Codec); err != nil {
		return nil, err
	}

	r.sessions = NewSessionManager()
	r.dispatcher = r.newDispatcher()
	r.rates = limits.NewTokenBucket(r.config.MessageRate, r.config.MessageBurst)
	r.conns = limits.NewConnectionLimiter(r.config.MaxSessionsPerIP)

	r.metrics.GaugeFunc("elements_active", "Widget hosts attached over live sessions", func() float64 {
		return float64(r.sessions.Elements())
	})
	r.metrics.GaugeFunc("dispatch_seconds", "Time spent in live message handlers", func() float64 {
		return r.dispatcher.Metrics().TotalLatency.Seconds()
	})

	r.health.AddCriticalCheck("widgets", health.TagsCheck(reg.Has, r.page.Tags()...), time.Second)
	r.health.AddCheck("sessions", health.SessionCapacityCheck(r.sessions.Count, r.config.MaxSessions), time.Second)

	r.mux.Handle("GET "+PathPage+"{$}", NoStore()(http.HandlerFunc(r.handlePage)))
	r.mux.Handle("GET "+PathSocket, http.HandlerFunc(r.handleWebSocket))
	r.mux.Handle("GET "+PathScript, client.ScriptHandler())
	r.mux.Handle("GET "+PathHealth, r.health.HealthHandler())
	r.mux.Handle("GET "+PathLive, r.health.LivenessHandler())
	r.mux.Handle("GET "+PathReady, r.health.ReadinessHandler())
	r.mux.Handle("GET "+PathMetrics, r.metrics.Handler())

	var h http.Handler = r.mux
	for i := len(r.middleware) - 1; i >= 0; i-- {
		h = r.middleware[i](h)
	}
	h = logging.RequestLogger(r.logger)(h)
	h = Recovery(r.logger)(h)
	r.handler = h

	return r, nil
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Sessions returns the live session manager.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Health returns the health checker.
func (r *Router) Health() *health.Checker {
	return r.health
}

// Metrics returns the router's metrics.
func (r *Router) Metrics() *metrics.Metrics {
	return r.metrics
}

// Dispatcher returns the live message dispatcher.
func (r *Router) Dispatcher() *protocol.Dispatcher {
	return r.dispatcher
}

// Shutdown disconnects every live session.
func (r *Router) Shutdown(ctx context.Context) error {
	r.sessions.CloseAll(ctx)
	return ctx.Err()
}

func (r *Router) transportConfig() *transport.TransportConfig {
	cfg := transport.DefaultTransportConfig()
	cfg.ReadTimeout = r.config.Timeouts.WebSocketRead
	cfg.WriteTimeout = r.config.Timeouts.WebSocketWrite
	cfg.MaxMessageSize = r.config.MaxMessageSize
	return cfg
}

// codecFor picks the codec requested by the page, falling back to the
// configured default.
func (r *Router) codecFor(req *http.Request) protocol.Codec {
	if name := req.URL.Query().Get("codec"); name != "" {
		if c, ok := r.codecs.Get(name); ok {
			return c
		}
	}
	return r.codecs.Default()
}

func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	logger := logging.L(req.Context())

	if !r.sessions.Reserve(r.config.MaxSessions) {
		r.metrics.SessionsRejected.Inc("capacity")
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}

	ip := limits.ClientIP(req, r.config.TrustProxyHeaders)
	if !r.conns.Acquire(ip) {
		r.sessions.Unreserve()
		r.metrics.SessionsRejected.Inc("address")
		http.Error(w, limits.ErrTooManyConnections.Error(), http.StatusTooManyRequests)
		return
	}

	ws := transport.NewWebSocketTransport(r.transportConfig(),
		transport.WithCodec(r.codecFor(req)),
		transport.WithSecurity(&transport.WebSocketConfig{
			AllowedOrigins:  r.config.AllowedOrigins,
			InsecureDevMode: r.config.Debug && len(r.config.AllowedOrigins) == 0,
		}),
		transport.WithLogger(logger),
	)
	if err := ws.Upgrade(w, req); err != nil {
		r.sessions.Unreserve()
		r.conns.Release(ip)
		r.metrics.SessionsRejected.Inc("origin")
		logger.Info("websocket upgrade rejected", logging.String("origin", req.Header.Get("Origin")), logging.Err(err))
		return
	}

	// The connection outlives the upgrade request, so the session gets its
	// own root context.
	session := r.sessions.Create(&meteredTransport{Transport: ws, sent: r.metrics.MessagesSent}, logger)
	r.metrics.SessionsTotal.Inc()
	r.metrics.SessionsActive.Inc()
	logger.Info("session opened",
		logging.String("session", session.ID),
		logging.String("codec", ws.Codec().Name()),
		logging.String("remote", ip),
	)

	go r.messageLoop(session, ip)
}
