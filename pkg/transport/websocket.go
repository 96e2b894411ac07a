package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/protocol"
)

// WebSocket security errors
var (
	ErrOriginNotAllowed = errors.New("origin not allowed")
)

// WebSocketConfig configures WebSocket security settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of allowed origins for WebSocket connections.
	// If empty and InsecureDevMode is false, only same-origin connections are allowed.
	AllowedOrigins []string

	// InsecureDevMode disables origin validation. Development only.
	InsecureDevMode bool
}

// DefaultWebSocketConfig returns secure default configuration.
func DefaultWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{}
}

// WebSocketOption configures a WebSocketTransport.
type WebSocketOption func(*WebSocketTransport)

// WithCodec sets the frame codec. JSON is used by default.
func WithCodec(codec protocol.Codec) WebSocketOption {
	return func(t *WebSocketTransport) {
		if codec != nil {
			t.codec = codec
		}
	}
}

// WithSecurity sets the origin policy.
func WithSecurity(cfg *WebSocketConfig) WebSocketOption {
	return func(t *WebSocketTransport) {
		if cfg != nil {
			t.wsConfig = cfg
		}
	}
}

// WithLogger sets the logger for frame level diagnostics.
func WithLogger(logger logging.Logger) WebSocketOption {
	return func(t *WebSocketTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WebSocketTransport implements Transport over a server-side WebSocket.
type WebSocketTransport struct {
	*BaseTransport
	conn     *websocket.Conn
	codec    protocol.Codec
	wsConfig *WebSocketConfig
	logger   logging.Logger
	mu       sync.Mutex
}

// NewWebSocketTransport creates a new WebSocket transport.
func NewWebSocketTransport(config *TransportConfig, opts ...WebSocketOption) *WebSocketTransport {
	t := &WebSocketTransport{
		BaseTransport: NewBaseTransport(config),
		codec:         protocol.NewJSONCodec(),
		wsConfig:      DefaultWebSocketConfig(),
		logger:        logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Codec returns the codec frames are encoded with.
func (t *WebSocketTransport) Codec() protocol.Codec {
	return t.codec
}

// isOriginAllowed checks if the origin is allowed for WebSocket connections.
func (t *WebSocketTransport) isOriginAllowed(origin string, requestHost string) bool {
	if t.wsConfig.InsecureDevMode {
		return true
	}

	// No Origin header: not a browser cross-site request.
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if originURL.Host == requestHost {
		return true
	}

	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if allowedURL, err := url.Parse(allowed); err == nil && allowedURL.Host == originURL.Host {
			return true
		}
	}

	return false
}

// originPatterns converts the allow list into host patterns for Accept.
func (t *WebSocketTransport) originPatterns() []string {
	patterns := make([]string, 0, len(t.wsConfig.AllowedOrigins))
	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if u, err := url.Parse(allowed); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}

// Upgrade upgrades an HTTP connection to WebSocket and starts the frame
// loops. The origin is validated before the handshake.
func (t *WebSocketTransport) Upgrade(w http.ResponseWriter, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if !t.isOriginAllowed(origin, r.Host) {
		http.Error(w, "Forbidden: Origin not allowed", http.StatusForbidden)
		return ErrOriginNotAllowed
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: t.wsConfig.InsecureDevMode,
		OriginPatterns:     t.originPatterns(),
	})
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}

	conn.SetReadLimit(t.config.MaxMessageSize)

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	t.SetConnected(true)

	go t.readLoop()
	go t.writeLoop()
	go t.pingLoop()

	return nil
}

// Send queues a message for the page.
func (t *WebSocketTransport) Send(msg *protocol.Message) error {
	return t.queue(msg)
}

// Close closes the WebSocket connection.
func (t *WebSocketTransport) Close() error {
	t.BaseTransport.Close()

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "closing")
	}
	return nil
}

func (t *WebSocketTransport) current() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *WebSocketTransport) readLoop() {
	defer t.Close()

	for {
		conn := t.current()
		if conn == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), t.config.ReadTimeout)
		_, data, err := conn.Read(ctx)
		cancel()

		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				t.logger.Debug("websocket read ended", logging.Err(err))
			}
			return
		}

		msg, err := t.codec.Decode(data)
		if err != nil {
			t.logger.Debug("undecodable frame", logging.Int("bytes", len(data)), logging.Err(err))
			_ = t.queue(protocol.ErrorMessage("", "invalid message"))
			continue
		}

		if err := t.push(msg); err != nil {
			return
		}
	}
}

func (t *WebSocketTransport) writeLoop() {
	frame := websocket.MessageText
	if t.codec.Binary() {
		frame = websocket.MessageBinary
	}

	for {
		select {
		case msg := <-t.sendCh:
			conn := t.current()
			if conn == nil {
				return
			}

			data, err := t.codec.Encode(msg)
			if err != nil {
				t.logger.Warn("encode failed", logging.String("type", msg.Type.String()), logging.Err(err))
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			err = conn.Write(ctx, frame, data)
			cancel()

			if err != nil {
				t.logger.Debug("websocket write failed", logging.Err(err))
				t.Close()
				return
			}

		case <-t.closeCh:
			return
		}
	}
}

func (t *WebSocketTransport) pingLoop() {
	if t.config.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn := t.current()
			if conn == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			_ = conn.Ping(ctx)
			cancel()
		case <-t.closeCh:
			return
		}
	}
}
