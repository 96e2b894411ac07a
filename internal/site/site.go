// Package site loads the YAML description of a widget site: server
// settings, the status API and the widgets placed on the page.
package site

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuebitt/webwidgets/pkg/core"
	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/retry"
	"github.com/cuebitt/webwidgets/pkg/router"
	"github.com/cuebitt/webwidgets/pkg/statusapi"
)

// Site is the root of a site file.
type Site struct {
	Title   string           `yaml:"title"`
	Server  Server           `yaml:"server"`
	Status  StatusAPI        `yaml:"status_api"`
	Widgets []core.Placement `yaml:"widgets"`
}

// Server holds listener, wire and logging settings.
type Server struct {
	Address           string   `yaml:"address"`
	Codec             string   `yaml:"codec"`
	Debug             bool     `yaml:"debug"`
	LogLevel          string   `yaml:"log_level"`
	JSONLogs          bool     `yaml:"json_logs"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	TrustProxyHeaders bool     `yaml:"trust_proxy_headers"`
	MaxElements       int      `yaml:"max_elements"`
	MaxSessions       int      `yaml:"max_sessions"`
	MaxSessionsPerIP  int      `yaml:"max_sessions_per_ip"`
	MessageRate       float64  `yaml:"message_rate"`
	MessageBurst      int      `yaml:"message_burst"`
	Timeouts          Timeouts `yaml:"timeouts"`
}

// Timeouts are Go duration strings such as "10s".
type Timeouts struct {
	ElementConnect   time.Duration `yaml:"element_connect"`
	WebSocketRead    time.Duration `yaml:"websocket_read"`
	WebSocketWrite   time.Duration `yaml:"websocket_write"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// StatusAPI configures the presence source used by lanyard-status.
type StatusAPI struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	IntervalUnit time.Duration `yaml:"interval_unit"`

	// The circuit opens after BreakerFailures consecutive upstream
	// failures and stays open for BreakerCooldown. Zero failures disables it.
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// Default returns a site with server defaults and no widgets.
func Default() *Site {
	cfg := core.DefaultConfig()
	return &Site{
		Title: "webwidgets",
		Server: Server{
			Address:          cfg.Address,
			Codec:            cfg.Codec,
			LogLevel:         "info",
			MaxElements:      cfg.MaxElements,
			MaxSessions:      cfg.MaxSessions,
			MaxSessionsPerIP: cfg.MaxSessionsPerIP,
			MessageRate:      cfg.MessageRate,
			MessageBurst:     cfg.MessageBurst,
			Timeouts: Timeouts{
				ElementConnect:   cfg.Timeouts.ElementConnect,
				WebSocketRead:    cfg.Timeouts.WebSocketRead,
				WebSocketWrite:   cfg.Timeouts.WebSocketWrite,
				GracefulShutdown: cfg.Timeouts.GracefulShutdown,
			},
		},
		Status: StatusAPI{
			BaseURL:      statusapi.DefaultBaseURL,
			Timeout:      cfg.Timeouts.StatusFetch,
			Retries:      retry.DefaultConfig().MaxRetries,
			IntervalUnit: time.Second,

			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
	}
}

// Load reads and validates the site file at path. Environment overrides
// are applied after parsing.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.applyEnvOverrides()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes a site document over the defaults. Unknown keys are
// rejected and an empty document yields the defaults.
func Parse(data []byte) (*Site, error) {
	s := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse site: %w", err)
	}
	return s, nil
}

func (s *Site) applyEnvOverrides() {
	if v := os.Getenv("WEBWIDGETS_ADDRESS"); v != "" {
		s.Server.Address = v
	}
	if v := os.Getenv("WEBWIDGETS_LOG_LEVEL"); v != "" {
		s.Server.LogLevel = v
	}
	if v := os.Getenv("WEBWIDGETS_STATUS_API"); v != "" {
		s.Status.BaseURL = v
	}
}

// Validate checks the site without mutating it.
func (s *Site) Validate() error {
	if err := s.Config().Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	u, err := url.Parse(s.Status.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("status_api: base_url %q must be an absolute http(s) URL", s.Status.BaseURL)
	}
	if s.Status.Retries < 0 {
		return fmt.Errorf("status_api: retries must not be negative")
	}
	if s.Status.Timeout < 0 || s.Status.IntervalUnit < 0 || s.Status.BreakerCooldown < 0 {
		return fmt.Errorf("status_api: durations must not be negative")
	}

	for i, w := range s.Widgets {
		if w.Tag == "" {
			return fmt.Errorf("widgets[%d]: tag is required", i)
		}
	}
	return nil
}

// Config returns the live server configuration described by the site.
// Zero timeouts keep their defaults.
func (s *Site) Config() core.Config {
	cfg := core.DefaultConfig()
	cfg.Address = s.Server.Address
	cfg.Codec = s.Server.Codec
	cfg.Debug = s.Server.Debug
	cfg.AllowedOrigins = s.Server.AllowedOrigins
	cfg.MaxElements = s.Server.MaxElements
	cfg.MaxSessions = s.Server.MaxSessions
	cfg.MaxSessionsPerIP = s.Server.MaxSessionsPerIP
	cfg.MessageRate = s.Server.MessageRate
	cfg.MessageBurst = s.Server.MessageBurst
	cfg.TrustProxyHeaders = s.Server.TrustProxyHeaders

	t := s.Server.Timeouts
	setDuration(&cfg.Timeouts.ElementConnect, t.ElementConnect)
	setDuration(&cfg.Timeouts.WebSocketRead, t.WebSocketRead)
	setDuration(&cfg.Timeouts.WebSocketWrite, t.WebSocketWrite)
	setDuration(&cfg.Timeouts.GracefulShutdown, t.GracefulShutdown)
	setDuration(&cfg.Timeouts.StatusFetch, s.Status.Timeout)
	return cfg
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Page returns the page served at /.
func (s *Site) Page() router.Page {
	return router.Page{Title: s.Title, Widgets: s.Widgets}
}

// StatusClient builds the status API client described by the site.
func (s *Site) StatusClient(logger logging.Logger) *statusapi.Client {
	rc := retry.DefaultConfig()
	rc.MaxRetries = s.Status.Retries

	return statusapi.NewClient(
		statusapi.WithBaseURL(s.Status.BaseURL),
		statusapi.WithTimeout(s.Config().Timeouts.StatusFetch),
		statusapi.WithRetry(rc),
		statusapi.WithBreaker(statusapi.NewBreaker(s.Status.BreakerFailures, s.Status.BreakerCooldown)),
		statusapi.WithLogger(logger),
	)
}

// Logger builds the logger described by the server settings, writing to
// w. Debug servers also log source locations.
func (s *Site) Logger(w io.Writer) logging.Logger {
	opts := []logging.LoggerOption{
		logging.WithOutput(w),
		logging.WithLevel(logging.ParseLevel(s.Server.LogLevel)),
	}
	if s.Server.JSONLogs {
		opts = append(opts, logging.WithJSON())
	}
	if s.Server.Debug {
		opts = append(opts, logging.WithSource())
	}
	return logging.NewSlogLogger(opts...)
}
