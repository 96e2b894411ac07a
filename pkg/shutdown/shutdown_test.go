package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestHandler_RunsHooksByPriority(t *testing.T) {
	h := NewHandler(nil)
	var order []string

	h.Register(SessionsHook("sessions", func(ctx context.Context) error {
		order = append(order, "sessions")
		return nil
	}))
	h.Register(HTTPServerHook("http", func(ctx context.Context) error {
		order = append(order, "http")
		return nil
	}))
	h.RegisterFunc("last", PriorityLast, func(ctx context.Context) error {
		order = append(order, "last")
		return nil
	})

	if err := h.Shutdown(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff([]string{"http", "sessions", "last"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if err := h.Shutdown(); err != ErrAlreadyClosed {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestHandler_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	var reported []string

	h := NewHandler(&Config{
		Timeout: time.Second,
		OnHookComplete: func(name string, err error, d time.Duration) {
			if err != nil {
				reported = append(reported, name)
			}
		},
	})
	h.RegisterFunc("a", 1, func(ctx context.Context) error { return boom })
	h.RegisterFunc("b", 2, func(ctx context.Context) error { return nil })

	err := h.Shutdown()
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, reported); diff != "" {
		t.Errorf("reported mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_Timeout(t *testing.T) {
	h := NewHandler(&Config{Timeout: 10 * time.Millisecond})
	h.Register(TimeoutHook(Hook{Name: "slow", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}, time.Second))

	if err := h.Shutdown(); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("expected ErrShutdownTimeout, got %v", err)
	}
}

func TestHandler_WaitReturnsAfterShutdown(t *testing.T) {
	h := NewHandler(nil)
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()

	time.Sleep(10 * time.Millisecond)
	_ = h.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil from Wait, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Wait to return")
	}
}

func TestTimeoutHook_LeavesTimeForLaterHooks(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second})
	ran := false

	h.Register(TimeoutHook(SessionsHook("sessions", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), 10*time.Millisecond))
	h.RegisterFunc("last", PriorityLast, func(ctx context.Context) error {
		ran = true
		return nil
	})

	err := h.Shutdown()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the bounded hook to time out, got %v", err)
	}
	if errors.Is(err, ErrShutdownTimeout) {
		t.Error("expected the overall sequence to finish in time")
	}
	if !ran {
		t.Error("expected later hook to run")
	}
}
