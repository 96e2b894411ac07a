package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_AllPass(t *testing.T) {
	hc := NewChecker()
	hc.SetVersion("1.0.0")
	hc.AddCheck("ping", PingCheck(), time.Second)
	hc.AddCheck("widgets", TagsCheck(func(string) bool { return true }, "theme-switcher"), time.Second)

	status := hc.Check(context.Background())

	if status.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(status.Checks))
	}
	if status.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", status.Version)
	}
}

func TestChecker_NonCriticalFailureDegrades(t *testing.T) {
	hc := NewChecker()
	hc.AddCheck("ping", PingCheck(), time.Second)
	hc.AddCheck("status-api", UpstreamCheck(func(ctx context.Context) error {
		return errors.New("connection refused")
	}), time.Second)

	status := hc.Check(context.Background())

	if status.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", status.Status)
	}
	if got := status.Checks["status-api"].Error; got != "upstream unreachable: connection refused" {
		t.Errorf("unexpected error text %q", got)
	}
}

func TestChecker_CriticalFailure(t *testing.T) {
	hc := NewChecker()
	hc.AddCriticalCheck("widgets", TagsCheck(func(tag string) bool { return tag != "lanyard-status" },
		"theme-switcher", "lanyard-status"), time.Second)

	status := hc.Check(context.Background())

	if status.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", status.Status)
	}
	if got := status.Checks["widgets"].Error; got != "widget lanyard-status not registered" {
		t.Errorf("unexpected error text %q", got)
	}
}

func TestChecker_Timeout(t *testing.T) {
	hc := NewChecker()
	hc.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 10*time.Millisecond)

	status := hc.Check(context.Background())

	if status.Checks["slow"].Status != StatusUnhealthy {
		t.Errorf("expected slow check to fail on timeout")
	}
}

func TestSessionCapacityCheck(t *testing.T) {
	current := 3
	check := SessionCapacityCheck(func() int { return current }, 4)

	if err := check(context.Background()); err != nil {
		t.Errorf("expected no error below capacity, got %v", err)
	}

	current = 4
	err := check(context.Background())
	var he *HealthError
	if !errors.As(err, &he) {
		t.Fatalf("expected HealthError at capacity, got %v", err)
	}
	if he.Details["max"] != 4 {
		t.Errorf("expected max detail 4, got %v", he.Details["max"])
	}

	if err := SessionCapacityCheck(func() int { return 100 }, 0)(context.Background()); err != nil {
		t.Errorf("expected zero max to mean unlimited, got %v", err)
	}
}

func TestChecker_DetailsReported(t *testing.T) {
	hc := NewChecker()
	hc.AddCheck("sessions", SessionCapacityCheck(func() int { return 2 }, 2), time.Second)

	result := hc.Check(context.Background()).Checks["sessions"]
	if result.Details == nil {
		t.Error("expected health error details in the result")
	}
}

func TestMemoryCheck(t *testing.T) {
	if err := MemoryCheck(1 << 40)(context.Background()); err != nil {
		t.Errorf("expected generous limit to pass, got %v", err)
	}
	if err := MemoryCheck(1)(context.Background()); err == nil {
		t.Error("expected tiny limit to fail")
	}
}

func TestLivenessHandler(t *testing.T) {
	hc := NewChecker()
	hc.AddCriticalCheck("broken", func(ctx context.Context) error { return errors.New("x") }, time.Second)

	rec := httptest.NewRecorder()
	hc.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected liveness to ignore checks, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("expected JSON body, got %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("expected status alive, got %v", body["status"])
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name string
		fail bool
		want int
	}{
		{"healthy", false, http.StatusOK},
		{"unhealthy", true, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewChecker()
			hc.AddCriticalCheck("widgets", func(ctx context.Context) error {
				if tt.fail {
					return errors.New("down")
				}
				return nil
			}, time.Second)

			rec := httptest.NewRecorder()
			hc.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	hc := DefaultChecker("test")

	rec := httptest.NewRecorder()
	hc.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("expected JSON body, got %v", err)
	}
	if status.Status != StatusHealthy || status.Version != "test" {
		t.Errorf("unexpected status %+v", status)
	}
	if _, ok := status.Checks["ping"]; !ok {
		t.Error("expected ping check in the default checker")
	}
}
