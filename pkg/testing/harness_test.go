package testing

import (
	"context"
	"testing"
	"time"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/presence"
)

type echoElement struct {
	core.BaseElement
	host *core.Host
}

func (e *echoElement) Tag() string                  { return "x-echo" }
func (e *echoElement) ObservedAttributes() []string { return []string{"text"} }

func (e *echoElement) Connected(ctx context.Context, host *core.Host) error {
	e.host = host
	return host.Render(ctx)
}

func (e *echoElement) AttributeChanged(ctx context.Context, name, oldValue, newValue string) error {
	return e.host.Render(ctx)
}

func (e *echoElement) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	e.host.Emit("echoed", map[string]any{"text": e.host.AttributeOr("text", "")})
	return nil
}

func (e *echoElement) Render(ctx context.Context) core.Renderer {
	return core.StringRenderer(`<p class="echo big">` + e.host.AttributeOr("text", "-") + `</p>`)
}

func TestMount(t *testing.T) {
	et := Mount(t, &echoElement{}, map[string]string{"text": "hello"})

	et.Assert().HasElement("p").HasText("hello").HasClass("echo").HasClass("big")
	if et.Renders() != 1 {
		t.Errorf("expected 1 render, got %d", et.Renders())
	}

	et.Set("text", "bye").Click()

	et.Assert().HasText("bye").LacksText("hello")
	if got := et.Transport.Count(core.EventRender); got != 2 {
		t.Errorf("expected 2 render messages, got %d", got)
	}

	emitted := et.Transport.Emitted("echoed")
	if len(emitted) != 1 || emitted[0]["text"] != "bye" {
		t.Errorf("expected one echoed event with text 'bye', got %v", emitted)
	}
}

func TestRecordingTransport_WaitFor(t *testing.T) {
	rt := NewRecordingTransport()

	go func() {
		time.Sleep(5 * time.Millisecond)
		rt.Send(core.Message{Event: core.EventRender})
	}()

	if !rt.WaitFor(core.EventRender, 1, time.Second) {
		t.Error("expected render message to arrive")
	}
	if rt.WaitFor(core.EventRender, 2, 10*time.Millisecond) {
		t.Error("expected second render to time out")
	}

	rt.Close()
	if err := rt.Send(core.Message{Event: core.EventRender}); err != ErrTransportClosed {
		t.Errorf("expected ErrTransportClosed, got %v", err)
	}
}

func TestStubSource(t *testing.T) {
	src := NewStubSource(&presence.Snapshot{Data: presence.Data{DiscordStatus: "idle"}})

	snap, err := src.Fetch(context.Background(), "1")
	if err != nil || snap.Data.DiscordStatus != "idle" {
		t.Fatalf("expected idle snapshot, got %v %v", snap, err)
	}

	src.Hold()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := src.Fetch(ctx, "2"); err == nil {
		t.Error("expected held fetch to stop on context deadline")
	}
	src.Release()

	if got := src.Calls(); len(got) != 2 || got[1] != "2" {
		t.Errorf("expected calls [1 2], got %v", got)
	}
}
