// Package source fetches ranking pages and extracts team observations.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/okian/fantaledger/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 20 * time.Second
	defaultAttempts   = 3
	defaultRetryDelay = time.Second
	defaultInterval   = 800 * time.Millisecond
	maxBodyBytes      = 8 << 20

	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Client performs paced GET requests with retries.
type Client struct {
	http           *http.Client
	timeout        time.Duration
	attempts       int
	retryDelay     time.Duration
	interval       time.Duration
	userAgent      string
	acceptLanguage string
	limiter        *rate.Limiter
	logger         logger.Logger
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		timeout:    defaultTimeout,
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
		interval:   defaultInterval,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	limit := rate.Inf
	if c.interval > 0 {
		limit = rate.Every(c.interval)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c
}

// Fetch returns the body of url. An attempt succeeds on HTTP 200 with a
// non-empty body; anything else is retried up to the configured attempts.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	var body []byte

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.attempts-1)),
		ctx,
	)
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.get(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		metrics.RecordFetch(url, metrics.OutcomeRetry)
		c.logger.Warn(ctx, "fetch attempt failed, retrying",
			logger.String("url", url),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		metrics.RecordFetch(url, metrics.OutcomeFailure)
		return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, attempt, err)
	}

	metrics.RecordFetch(url, metrics.OutcomeSuccess)
	metrics.RecordFetchDuration(url, time.Since(start))
	c.logger.Debug(ctx, "fetched page",
		logger.String("url", url),
		logger.Int("bytes", len(body)),
		logger.Int("attempts", attempt),
	)
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", acceptHeader)
	if c.acceptLanguage != "" {
		req.Header.Set("Accept-Language", c.acceptLanguage)
	}
	req.Header.Set("Connection", "keep-alive")
}
