// Package metrics collects live server counters and exposes them in the
// Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the live server metrics.
type Metrics struct {
	SessionsActive   *Gauge
	SessionsTotal    *Counter
	SessionsRejected *CounterVec

	MessagesReceived *CounterVec
	MessagesSent     *CounterVec
	Errors           *CounterVec

	ConnectDuration *Histogram
	PageRenders     *Counter

	namespace string
	funcs     []gaugeFunc
	mu        sync.Mutex
}

type gaugeFunc struct {
	name, help string
	fn         func() float64
}

// New creates a metrics set whose names start with namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		SessionsActive:   NewGauge("sessions_active", "Live websocket sessions"),
		SessionsTotal:    NewCounter("sessions_total", "Websocket sessions opened"),
		SessionsRejected: NewCounterVec("sessions_rejected_total", "Websocket upgrades refused", "reason"),

		MessagesReceived: NewCounterVec("messages_received_total", "Messages received from pages", "type"),
		MessagesSent:     NewCounterVec("messages_sent_total", "Messages pushed to pages", "type"),
		Errors:           NewCounterVec("errors_total", "Messages answered with an error", "type"),

		ConnectDuration: NewHistogram("connect_duration_seconds", "Element connect latency"),
		PageRenders:     NewCounter("page_renders_total", "Prerendered pages served"),

		namespace: namespace,
	}
}

// GaugeFunc registers a gauge whose value is read at scrape time.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, gaugeFunc{name: name, help: help, fn: fn})
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.WriteTo(w)
	})
}

// WriteTo writes every metric to w.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	p := &printer{w: w, ns: m.namespace}

	p.gauge(m.SessionsActive.name, m.SessionsActive.help, m.SessionsActive.Value())
	p.counter(m.SessionsTotal.name, m.SessionsTotal.help, m.SessionsTotal.Value())
	p.counterVec(m.SessionsRejected)
	p.counterVec(m.MessagesReceived)
	p.counterVec(m.MessagesSent)
	p.counterVec(m.Errors)
	p.histogram(m.ConnectDuration)
	p.counter(m.PageRenders.name, m.PageRenders.help, m.PageRenders.Value())

	m.mu.Lock()
	funcs := append([]gaugeFunc(nil), m.funcs...)
	m.mu.Unlock()
	for _, g := range funcs {
		p.gauge(g.name, g.help, g.fn())
	}

	return p.n, p.err
}

type printer struct {
	w   io.Writer
	ns  string
	n   int64
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	n, err := fmt.Fprintf(p.w, format, args...)
	p.n += int64(n)
	p.err = err
}

func (p *printer) header(name, help, typ string) {
	p.printf("# HELP %s_%s %s\n# TYPE %s_%s %s\n", p.ns, name, help, p.ns, name, typ)
}

func (p *printer) gauge(name, help string, v float64) {
	p.header(name, help, "gauge")
	p.printf("%s_%s %g\n", p.ns, name, v)
}

func (p *printer) counter(name, help string, v float64) {
	p.header(name, help, "counter")
	p.printf("%s_%s %g\n", p.ns, name, v)
}

func (p *printer) counterVec(cv *CounterVec) {
	p.header(cv.name, cv.help, "counter")
	values := cv.Values()
	labels := make([]string, 0, len(values))
	for l := range values {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		p.printf("%s_%s{%s=%q} %g\n", p.ns, cv.name, cv.label, l, values[l])
	}
}

func (p *printer) histogram(h *Histogram) {
	s := h.Stats()
	p.header(h.name, h.help, "summary")
	p.printf("%s_%s_sum %g\n", p.ns, h.name, s.Sum)
	p.printf("%s_%s_count %d\n", p.ns, h.name, s.Count)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Value returns the current counter value.
func (c *Counter) Value() float64 {
	return float64(c.value.Load())
}

// Gauge is a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

// NewGauge creates a new gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Inc() { g.value.Add(1) }
func (g *Gauge) Dec() { g.value.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	return float64(g.value.Load())
}

// CounterVec is a family of counters keyed by one label.
type CounterVec struct {
	name   string
	help   string
	label  string
	values map[string]*Counter
	mu     sync.RWMutex
}

// NewCounterVec creates a new counter vector.
func NewCounterVec(name, help, label string) *CounterVec {
	return &CounterVec{
		name:   name,
		help:   help,
		label:  label,
		values: make(map[string]*Counter),
	}
}

// WithLabel returns the counter for a label value.
func (cv *CounterVec) WithLabel(value string) *Counter {
	cv.mu.RLock()
	c, ok := cv.values[value]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.values[value]; ok {
		return c
	}
	c = NewCounter(cv.name, cv.help)
	cv.values[value] = c
	return c
}

// Inc increments the counter for label.
func (cv *CounterVec) Inc(label string) {
	cv.WithLabel(label).Inc()
}

// Values returns all counter values by label.
func (cv *CounterVec) Values() map[string]float64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	result := make(map[string]float64, len(cv.values))
	for label, counter := range cv.values {
		result[label] = counter.Value()
	}
	return result
}

// Histogram tracks the sum and count of observed values.
type Histogram struct {
	name  string
	help  string
	sum   float64
	count int64
	max   float64
	mu    sync.Mutex
}

// NewHistogram creates a new histogram.
func NewHistogram(name, help string) *Histogram {
	return &Histogram{name: name, help: help}
}

// Observe records a value.
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += value
	h.count++
	if value > h.max {
		h.max = value
	}
}

// ObserveDuration records a duration in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Since records the time elapsed since start.
func (h *Histogram) Since(start time.Time) {
	h.ObserveDuration(time.Since(start))
}

// Stats returns histogram statistics.
func (h *Histogram) Stats() HistogramStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := HistogramStats{Count: h.count, Sum: h.sum, Max: h.max}
	if h.count > 0 {
		stats.Avg = h.sum / float64(h.count)
	}
	return stats
}

// HistogramStats contains histogram statistics.
type HistogramStats struct {
	Count int64
	Sum   float64
	Max   float64
	Avg   float64
}
