// Package shutdown runs ordered hooks when the widget server is asked to
// stop.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/cuebitt/webwidgets/pkg/logging"
)

// Common shutdown errors.
var (
	ErrShutdownTimeout = errors.New("shutdown timed out")
	ErrAlreadyClosed   = errors.New("shutdown handler already closed")
)

// Hook priorities. Lower runs earlier.
const (
	PriorityFirst    = 0
	PriorityHTTP     = 100 // stop accepting page loads and upgrades
	PrioritySessions = 200 // disconnect live widgets and their timers
	PriorityLast     = 1000
)

// Hook is one step of the shutdown sequence.
type Hook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Config configures the shutdown handler.
type Config struct {
	// Timeout bounds the whole sequence.
	Timeout time.Duration

	// Signals start the sequence. Defaults to SIGINT and SIGTERM.
	Signals []os.Signal

	// OnHookComplete is called after every hook. When nil, the outcome is
	// logged through Logger.
	OnHookComplete func(name string, err error, duration time.Duration)

	Logger logging.Logger
}

// DefaultConfig returns the defaults used by the server.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		Logger:  logging.NopLogger{},
	}
}

// Handler runs the registered hooks once, on a signal or on demand.
type Handler struct {
	config *Config
	hooks  []Hook
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

// NewHandler creates a handler. A nil config means DefaultConfig.
func NewHandler(config *Config) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = logging.NopLogger{}
	}
	if len(config.Signals) == 0 {
		config.Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	if config.OnHookComplete == nil {
		config.OnHookComplete = logOutcome(config.Logger)
	}
	return &Handler{config: config, done: make(chan struct{})}
}

func logOutcome(logger logging.Logger) func(string, error, time.Duration) {
	return func(name string, err error, d time.Duration) {
		fields := []logging.Field{logging.String("hook", name), logging.Duration("duration", d)}
		if err != nil {
			logger.Warn("shutdown hook failed", append(fields, logging.Err(err))...)
			return
		}
		logger.Info("shutdown hook done", fields...)
	}
}

// Register adds a hook.
func (h *Handler) Register(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// RegisterFunc registers fn as a hook.
func (h *Handler) RegisterFunc(name string, priority int, fn func(ctx context.Context) error) {
	h.Register(Hook{Name: name, Priority: priority, Fn: fn})
}

// Wait blocks until a shutdown signal arrives and then runs the hooks. It
// returns nil without running them if Shutdown was called in the meantime.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.config.Signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.config.Logger.Info("shutdown signal received", logging.String("signal", sig.String()))
		return h.Shutdown()
	case <-h.done:
		return nil
	}
}

// Shutdown runs every hook in priority order. Hook errors are joined; the
// sequence stops early only when the timeout expires.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrAlreadyClosed
	}
	h.closed = true
	close(h.done)
	hooks := slices.Clone(h.hooks)
	h.mu.Unlock()

	slices.SortStableFunc(hooks, func(a, b Hook) int { return a.Priority - b.Priority })

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var errs []error
	for _, hook := range hooks {
		if err := h.run(ctx, hook); err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			errs = append(errs, ErrShutdownTimeout)
			break
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) run(ctx context.Context, hook Hook) error {
	start := time.Now()
	err := hook.Fn(ctx)
	h.config.OnHookComplete(hook.Name, err, time.Since(start))
	return err
}

// HTTPServerHook stops an HTTP server, typically (*http.Server).Shutdown.
func HTTPServerHook(name string, shutdownFn func(ctx context.Context) error) Hook {
	return Hook{Name: name, Priority: PriorityHTTP, Fn: shutdownFn}
}

// SessionsHook disconnects every live widget session.
func SessionsHook(name string, closeAll func(ctx context.Context) error) Hook {
	return Hook{Name: name, Priority: PrioritySessions, Fn: closeAll}
}

// TimeoutHook bounds a single hook so a slow step leaves time for the rest.
func TimeoutHook(hook Hook, timeout time.Duration) Hook {
	fn := hook.Fn
	hook.Fn = func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx)
	}
	return hook
}
