package core

import (
	"time"
)

// TimeoutConfig configures timeouts for various operations.
type TimeoutConfig struct {
	// ElementConnect bounds Host.Connect, including the initial fetch.
	ElementConnect time.Duration

	// StatusFetch bounds a single request to the remote status API.
	StatusFetch time.Duration

	// WebSocketRead is the read timeout for WebSocket connections.
	WebSocketRead time.Duration

	// WebSocketWrite is the write timeout for WebSocket connections.
	WebSocketWrite time.Duration

	// GracefulShutdown is the timeout for graceful shutdown.
	GracefulShutdown time.Duration
}

// DefaultTimeoutConfig returns default timeout configuration.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ElementConnect:   10 * time.Second,
		StatusFetch:      5 * time.Second,
		WebSocketRead:    60 * time.Second,
		WebSocketWrite:   10 * time.Second,
		GracefulShutdown: 30 * time.Second,
	}
}

// RelaxedTimeoutConfig returns more relaxed timeouts for development.
func RelaxedTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ElementConnect:   30 * time.Second,
		StatusFetch:      15 * time.Second,
		WebSocketRead:    300 * time.Second,
		WebSocketWrite:   30 * time.Second,
		GracefulShutdown: 5 * time.Second,
	}
}

// Config combines all configuration settings.
type Config struct {
	Timeouts TimeoutConfig

	// Server settings
	Address string
	Debug   bool

	// Codec is the live wire codec name ("json" or "msgpack").
	Codec string

	// AllowedOrigins for WebSocket connections. Empty means same-origin only.
	AllowedOrigins []string

	// TrustProxyHeaders takes client addresses from X-Forwarded-For.
	TrustProxyHeaders bool

	// Resource limits. MaxElements bounds the widgets a single connection
	// may attach; MaxSessions and MaxSessionsPerIP bound live connections
	// (0 means unlimited).
	MaxMessageSize   int64
	MaxElements      int
	MaxSessions      int
	MaxSessionsPerIP int

	// MessageRate is the sustained messages per second one connection may
	// send, MessageBurst the bucket size. A zero rate disables limiting.
	MessageRate  float64
	MessageBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeouts:         DefaultTimeoutConfig(),
		Address:          ":3000",
		Codec:            "json",
		MaxMessageSize:   64 * 1024,
		MaxElements:      64,
		MaxSessions:      10000,
		MaxSessionsPerIP: 32,
		MessageRate:      50,
		MessageBurst:     100,
	}
}

// DevelopmentConfig returns configuration optimized for development.
func DevelopmentConfig() Config {
	return Config{
		Timeouts:       RelaxedTimeoutConfig(),
		Address:        ":3000",
		Debug:          true,
		Codec:          "json",
		AllowedOrigins: []string{"*"},
		MaxMessageSize: 1024 * 1024,
		MaxElements:    1000,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}
	if c.Codec != "json" && c.Codec != "msgpack" {
		return ErrInvalidCodec
	}
	if c.MaxMessageSize <= 0 {
		return ErrInvalidMaxMessageSize
	}
	if c.MaxElements <= 0 {
		return ErrInvalidMaxElements
	}
	if c.MaxSessions < 0 || c.MaxSessionsPerIP < 0 {
		return ErrInvalidMaxSessions
	}
	if c.MessageRate < 0 || (c.MessageRate > 0 && c.MessageBurst <= 0) {
		return ErrInvalidMessageRate
	}
	return nil
}

// Configuration errors.
var (
	ErrAddressRequired       = configError("Address is required")
	ErrInvalidCodec          = configError("Codec must be json or msgpack")
	ErrInvalidMaxMessageSize = configError("MaxMessageSize must be positive")
	ErrInvalidMaxElements    = configError("MaxElements must be positive")
	ErrInvalidMaxSessions    = configError("MaxSessions must not be negative")
	ErrInvalidMessageRate    = configError("MessageRate must not be negative and needs a positive MessageBurst")
)

type configError string

func (e configError) Error() string { return string(e) }
