// Package statusapi fetches presence snapshots from a Lanyard compatible
// status API.
package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/presence"
	"github.com/cuebitt/webwidgets/pkg/retry"
	"github.com/rohanthewiz/serr"
)

// DefaultBaseURL is the public Lanyard instance.
const DefaultBaseURL = "https://api.lanyard.rest"

// maxBodySize bounds the response body read from the API.
const maxBodySize = 1 << 20

// Source provides presence snapshots and avatar URLs for a user id.
type Source interface {
	Fetch(ctx context.Context, userID string) (*presence.Snapshot, error)
	AvatarURL(userID string) string
}

// Client is an HTTP Source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      *retry.Config
	breaker    *Breaker
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API instance.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every single request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetry sets the retry policy. A nil config disables retries.
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) {
		if cfg == nil {
			cfg = &retry.Config{MaxRetries: 0}
		}
		c.retry = cfg
	}
}

// WithBreaker sets the circuit breaker shared by every fetch. A nil
// breaker disables it.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a status API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		timeout:    5 * time.Second,
		retry:      retry.DefaultConfig(),
		breaker:    NewBreaker(5, 30*time.Second),
		logger:     logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker != nil {
		logger := c.logger
		c.breaker.onChange = func(from, to State) {
			logger.Warn("status API circuit changed", logging.String("from", from.String()), logging.String("to", to.String()))
		}
	}
	return c
}

// Breaker returns the client's circuit breaker, or nil.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AvatarURL returns the avatar image URL for userID.
func (c *Client) AvatarURL(userID string) string {
	return fmt.Sprintf("%s/%s.webp", c.baseURL, url.PathEscape(userID))
}

// Fetch retrieves the current snapshot for userID. Network errors and 5xx
// responses are retried; client errors and unusable bodies are not.
func (c *Client) Fetch(ctx context.Context, userID string) (*presence.Snapshot, error) {
	if userID == "" {
		return nil, serr.New("user id is required")
	}

	cfg := *c.retry
	if cfg.RetryIf == nil {
		cfg.RetryIf = retry.RetryUnlessPermanent()
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.Debug("retrying status fetch",
			logging.String("user_id", userID),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Err(err),
		)
	}

	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	snap, err := retry.RetryWithResult(ctx, &cfg, func() (*presence.Snapshot, error) {
		return c.fetchOnce(ctx, userID)
	})
	switch {
	case err == nil:
		c.breaker.Record(nil)
	case retry.IsPermanentError(err):
		// The API answered; it is the request that failed.
		c.breaker.Record(nil)
	case ctx.Err() != nil:
		c.breaker.Release()
	default:
		c.breaker.Record(err)
	}
	return snap, err
}

func (c *Client) fetchOnce(ctx context.Context, userID string) (*presence.Snapshot, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/v1/users/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.NewPermanentError(serr.Wrap(err, "failed to create status request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serr.Wrap(err, "status request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, serr.New(fmt.Sprintf("status API returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retry.NewPermanentError(serr.New(fmt.Sprintf("status API returned %d for user %s", resp.StatusCode, userID)))
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&env); err != nil {
		return nil, retry.NewPermanentError(serr.Wrap(err, "failed to decode status response"))
	}
	if env.Success != nil && !*env.Success {
		msg := "status API reported failure for user " + userID
		if env.Error != nil && env.Error.Message != "" {
			msg += ": " + env.Error.Message
		}
		return nil, retry.NewPermanentError(serr.New(msg))
	}
	return &presence.Snapshot{Success: true, Data: env.Data}, nil
}

// Ping reports whether the API answers at all. Any response below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return serr.Wrap(err, "failed to create ping request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return serr.Wrap(err, "status API ping failed")
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return serr.New(fmt.Sprintf("status API returned %d", resp.StatusCode))
	}
	return nil
}

// envelope is the raw response shape. A missing success field is accepted
// as long as the body decodes.
type envelope struct {
	Success *bool         `json:"success"`
	Data    presence.Data `json:"data"`
	Error   *apiError     `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
