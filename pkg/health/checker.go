// Package health serves the /healthz, /livez and /readyz endpoints of the
// widget server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"
)

// Status is the outcome of a check or of the whole server.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// defaultTimeout bounds checks registered without a timeout.
const defaultTimeout = 5 * time.Second

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration_ms"`
	Error    string        `json:"error,omitempty"`
	Details  any           `json:"details,omitempty"`
}

// HealthStatus is the aggregated report.
type HealthStatus struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

type check struct {
	name     string
	fn       func(ctx context.Context) error
	timeout  time.Duration
	critical bool
}

// Checker runs the registered checks. A failing critical check makes the
// server unhealthy; any other failure only degrades it.
type Checker struct {
	checks  []check
	version string
	mu      sync.RWMutex
}

// NewChecker creates a checker with no checks.
func NewChecker() *Checker {
	return &Checker{}
}

// DefaultChecker provides a checker with the ping check registered.
func DefaultChecker(version string) *Checker {
	hc := NewChecker()
	hc.SetVersion(version)
	hc.AddCheck("ping", PingCheck(), time.Second)
	return hc
}

// SetVersion sets the version shown in reports.
func (hc *Checker) SetVersion(version string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.version = version
}

// AddCheck registers a check whose failure degrades the server.
func (hc *Checker) AddCheck(name string, fn func(context.Context) error, timeout time.Duration) {
	hc.add(check{name: name, fn: fn, timeout: timeout})
}

// AddCriticalCheck registers a check whose failure makes the server
// unhealthy.
func (hc *Checker) AddCriticalCheck(name string, fn func(context.Context) error, timeout time.Duration) {
	hc.add(check{name: name, fn: fn, timeout: timeout, critical: true})
}

func (hc *Checker) add(c check) {
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Check runs every check concurrently and aggregates the results.
func (hc *Checker) Check(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	checks := append([]check(nil), hc.checks...)
	version := hc.version
	hc.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.run(ctx)
		}()
	}
	wg.Wait()

	status := HealthStatus{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
		Version:   version,
	}
	for i, c := range checks {
		res := results[i]
		status.Checks[c.name] = res
		switch {
		case res.Status == StatusHealthy:
		case c.critical:
			status.Status = StatusUnhealthy
		case status.Status == StatusHealthy:
			status.Status = StatusDegraded
		}
	}
	return status
}

func (c check) run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.fn(ctx)
	res := CheckResult{Status: StatusHealthy, Duration: time.Since(start) / time.Millisecond}
	if err != nil {
		res.Status = StatusUnhealthy
		res.Error = err.Error()
		if he, ok := err.(*HealthError); ok {
			res.Details = he.Details
		}
	}
	return res
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler answers 200 while the process runs; it runs no checks.
func (hc *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "alive", "timestamp": time.Now()})
	})
}

// ReadinessHandler answers 503 when a critical check fails, 200 otherwise.
func (hc *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := hc.Check(r.Context())
		code := http.StatusOK
		if status.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	})
}

// HealthHandler always answers 200 with the full report.
func (hc *Checker) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hc.Check(r.Context()))
	})
}

// HealthError is a check failure carrying details for the report.
type HealthError struct {
	Message string
	Details map[string]any
}

func (e *HealthError) Error() string {
	return e.Message
}

// PingCheck always passes.
func PingCheck() func(context.Context) error {
	return func(ctx context.Context) error { return nil }
}

// SessionCapacityCheck fails once the number of live sessions reaches max.
// A zero max means unlimited.
func SessionCapacityCheck(count func() int, max int) func(context.Context) error {
	return func(ctx context.Context) error {
		if current := count(); max > 0 && current >= max {
			return &HealthError{
				Message: "live sessions at capacity",
				Details: map[string]any{"current": current, "max": max},
			}
		}
		return nil
	}
}

// TagsCheck fails when any of the required widget tags is missing from
// the registry.
func TagsCheck(has func(tag string) bool, required ...string) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, tag := range required {
			if !has(tag) {
				return fmt.Errorf("widget %s not registered", tag)
			}
		}
		return nil
	}
}

// UpstreamCheck wraps a reachability check of a remote dependency.
func UpstreamCheck(ping func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("upstream unreachable: %w", err)
		}
		return nil
	}
}

// MemoryCheck fails when the heap in use exceeds maxBytes.
func MemoryCheck(maxBytes uint64) func(context.Context) error {
	return func(ctx context.Context) error {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if ms.HeapInuse > maxBytes {
			return &HealthError{
				Message: "heap usage above limit",
				Details: map[string]any{"heap_inuse": ms.HeapInuse, "max": maxBytes},
			}
		}
		return nil
	}
}
