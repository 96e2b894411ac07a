package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/cuebitt/webwidgets/pkg/protocol"
)

func TestWebSocket_OriginValidation(t *testing.T) {
	tests := []struct {
		name          string
		wsConfig      *WebSocketConfig
		origin        string
		host          string
		expectAllowed bool
	}{
		{
			name:          "same-origin allowed",
			wsConfig:      &WebSocketConfig{},
			origin:        "https://example.com",
			host:          "example.com",
			expectAllowed: true,
		},
		{
			name:          "no origin allowed",
			wsConfig:      &WebSocketConfig{},
			origin:        "",
			host:          "example.com",
			expectAllowed: true,
		},
		{
			name:          "explicit origin allowed",
			wsConfig:      &WebSocketConfig{AllowedOrigins: []string{"https://allowed.com"}},
			origin:        "https://allowed.com",
			host:          "example.com",
			expectAllowed: true,
		},
		{
			name:          "origin not in list blocked",
			wsConfig:      &WebSocketConfig{AllowedOrigins: []string{"https://allowed.com"}},
			origin:        "https://attacker.com",
			host:          "example.com",
			expectAllowed: false,
		},
		{
			name:          "wildcard allows all",
			wsConfig:      &WebSocketConfig{AllowedOrigins: []string{"*"}},
			origin:        "https://any-site.com",
			host:          "example.com",
			expectAllowed: true,
		},
		{
			name:          "insecure dev mode allows all",
			wsConfig:      &WebSocketConfig{InsecureDevMode: true},
			origin:        "https://attacker.com",
			host:          "example.com",
			expectAllowed: true,
		},
		{
			name:          "cross-origin blocked by default",
			wsConfig:      &WebSocketConfig{},
			origin:        "https://other-site.com",
			host:          "example.com",
			expectAllowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := NewWebSocketTransport(nil, WithSecurity(tt.wsConfig))

			allowed := transport.isOriginAllowed(tt.origin, tt.host)

			if allowed != tt.expectAllowed {
				t.Errorf("isOriginAllowed(%q, %q) = %v, want %v",
					tt.origin, tt.host, allowed, tt.expectAllowed)
			}
		})
	}
}

func TestWebSocket_RejectsInvalidOrigin(t *testing.T) {
	transport := NewWebSocketTransport(nil, WithSecurity(&WebSocketConfig{
		AllowedOrigins: []string{"https://allowed.com"},
	}))

	req := httptest.NewRequest("GET", "/_widgets/ws", nil)
	req.Header.Set("Origin", "https://attacker.com")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	req.Host = "example.com"

	w := httptest.NewRecorder()

	if err := transport.Upgrade(w, req); err != ErrOriginNotAllowed {
		t.Errorf("expected ErrOriginNotAllowed, got %v", err)
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}

func TestWebSocket_OriginPatterns(t *testing.T) {
	transport := NewWebSocketTransport(nil, WithSecurity(&WebSocketConfig{
		AllowedOrigins: []string{"https://allowed.com", "*", "::bad"},
	}))

	got := strings.Join(transport.originPatterns(), ",")
	if got != "allowed.com,*" {
		t.Errorf("expected 'allowed.com,*', got '%s'", got)
	}
}

// echoServer upgrades and sends every received message straight back.
func echoServer(t *testing.T, codec protocol.Codec) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr := NewWebSocketTransport(nil, WithCodec(codec))
		if err := tr.Upgrade(w, r); err != nil {
			return
		}
		go func() {
			for {
				select {
				case msg := <-tr.Receive():
					_ = tr.Send(msg)
				case <-tr.Done():
					return
				}
			}
		}()
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestWebSocket_EchoJSON(t *testing.T) {
	conn := dial(t, echoServer(t, protocol.NewJSONCodec()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := `{"t":"event","ref":"r1","event":"click","payload":{}}`
	if err := conn.Write(ctx, websocket.MessageText, []byte(in)); err != nil {
		t.Fatalf("write: %v", err)
	}

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Errorf("expected text frame, got %v", typ)
	}

	msg, err := protocol.NewJSONCodec().Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != protocol.MsgEvent || msg.Ref != "r1" || msg.Event != "click" {
		t.Errorf("unexpected echo %+v", msg)
	}
}

func TestWebSocket_EchoMsgPack(t *testing.T) {
	codec := protocol.NewMsgPackCodec()
	conn := dial(t, echoServer(t, codec))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, _ := codec.Encode(protocol.AttrMessage("r2", "theme", "dark"))
	if err := conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	typ, out, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageBinary {
		t.Errorf("expected binary frame, got %v", typ)
	}

	msg, err := codec.Decode(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	name, value, present := msg.AttrChange()
	if name != "theme" || value != "dark" || !present {
		t.Errorf("expected theme=dark, got %s=%s %v", name, value, present)
	}
}

func TestWebSocket_InvalidFrame(t *testing.T) {
	conn := dial(t, echoServer(t, protocol.NewJSONCodec()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, _ := protocol.NewJSONCodec().Decode(data)
	if msg == nil || msg.Type != protocol.MsgError {
		t.Fatalf("expected error message, got %s", data)
	}
	if msg.GetPayloadString("reason") != "invalid message" {
		t.Errorf("expected reason 'invalid message', got '%s'", msg.GetPayloadString("reason"))
	}
}

func TestBaseTransport_SendAfterClose(t *testing.T) {
	base := NewBaseTransport(nil)
	base.SetConnected(true)
	base.Close()
	base.Close()

	if err := base.queue(protocol.HeartbeatMessage()); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	select {
	case <-base.Done():
	default:
		t.Error("expected Done to be closed")
	}
}
