// Package httpclient provides the HTTP session used for URL probing and
// scraping. Each session owns its own User-Agent (picked from a rotation
// pool) and browser-like default headers, so concurrent workers do not
// share an identity across requests.
package httpclient

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"

	"finscout/internal/platform/errors"
	"finscout/internal/platform/logx"
	"finscout/internal/platform/rate"
)

// defaultUserAgents is the rotation pool used when the config does not
// provide one.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Config holds the configuration for a scraping session.
type Config struct {
	// Timeout is the per-request timeout. Default: 10 seconds.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts for retryable statuses
	// (429/502/503/504) and transport errors. Default: 0 (no retry);
	// probes treat failures as a signal, not something to paper over.
	MaxRetries int

	// RetryBackoff is the initial backoff between retries, doubled each
	// attempt. Default: 1 second.
	RetryBackoff time.Duration

	// UserAgents is the rotation pool; one entry is picked per session.
	UserAgents []string

	// RequestDelay spaces successive requests within one session.
	// 0 disables pacing.
	RequestDelay time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		MaxRetries:   0,
		RetryBackoff: 1 * time.Second,
		UserAgents:   defaultUserAgents,
		RequestDelay: 0,
	}
}

// Session is an HTTP client with a fixed identity and request pacing.
type Session struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     logx.Logger
	config     Config
}

// New creates a session, picking one User-Agent from the pool at random.
// Uniform non-cryptographic selection is deliberate: this spreads load,
// it is not a security boundary.
func New(config Config, logger logx.Logger) *Session {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 1 * time.Second
	}
	if len(config.UserAgents) == 0 {
		config.UserAgents = defaultUserAgents
	}

	var limiter *rate.Limiter
	if config.RequestDelay > 0 {
		limiter = rate.NewInterval(config.RequestDelay)
	}

	return &Session{
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
		userAgent:  config.UserAgents[rand.Intn(len(config.UserAgents))],
		logger:     logger.With("component", "httpclient"),
		config:     config,
	}
}

// UserAgent returns the identity picked for this session.
func (s *Session) UserAgent() string {
	return s.userAgent
}

// Get performs a GET request with pacing and bounded retries.
func (s *Session) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, errors.Wrap(err, "request pacing interrupted")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create request for %s", url)
		}
		s.setHeaders(req)

		start := time.Now()
		resp, err := s.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			s.logger.Debug("request failed",
				"url", url,
				"attempt", attempt+1,
				"error", err.Error(),
				"duration_ms", duration.Milliseconds(),
			)
			lastErr = err
			if attempt >= s.config.MaxRetries {
				break
			}
			if err := s.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		s.logger.Debug("response received",
			"url", url,
			"status", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
		)

		if !isRetryableStatus(resp.StatusCode) || attempt >= s.config.MaxRetries {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = errors.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if err := s.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	return nil, errors.Wrapf(lastErr, "request to %s failed after %d attempts", url, s.config.MaxRetries+1)
}

// setHeaders applies the session identity and browser-like defaults.
func (s *Session) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Connection", "keep-alive")
}

// backoff sleeps with exponential increase, honoring cancellation.
func (s *Session) backoff(ctx context.Context, attempt int) error {
	d := time.Duration(float64(s.config.RetryBackoff) * math.Pow(2, float64(attempt)))
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "backoff interrupted")
	case <-time.After(d):
		return nil
	}
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
