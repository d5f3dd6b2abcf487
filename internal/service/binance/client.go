package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	xhttp "CandlePull/pkg/http"
	applogger "CandlePull/pkg/logger"
	"CandlePull/pkg/metrics"

	"go.uber.org/ratelimit"
)

// Typed failures of the upstream client. Callers match with errors.Is.
var (
	// ErrUnavailable means transport failures or non-2xx responses exhausted the retry budget.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformedResponse means a 2xx body did not parse as an array of kline rows.
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrInvalidRequest means the call was rejected locally before any network I/O.
	ErrInvalidRequest = errors.New("invalid request")
)

// RawCandleRow is one positional kline row as returned by the upstream API.
// Fields stay raw JSON until the normalizer types them.
type RawCandleRow []json.RawMessage

// Sleeper waits between retry attempts. Tests inject a no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config holds upstream client configuration.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int // total attempts, >= 1
	RetryDelay     time.Duration
	MaxLimit       int
	RequestsPerSec int // 0 disables pacing
}

// Client fetches raw kline rows from the Binance REST API.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter ratelimit.Limiter
	sleep   Sleeper
	logger  *applogger.Logger
	rec     *metrics.Recorder
}

// Option configures Client.
type Option func(*Client)

// WithSleeper overrides the retry sleep function.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithLogger sets the client logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Client) { c.rec = rec }
}

// New creates an upstream klines client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 1000
	}

	c := &Client{
		cfg:   cfg,
		http:  xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		sleep: defaultSleeper,
	}
	if cfg.RequestsPerSec > 0 {
		c.limiter = ratelimit.New(cfg.RequestsPerSec)
	} else {
		c.limiter = ratelimit.NewUnlimited()
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRawCandles requests limit klines for symbol/interval.
// Either all requested rows are returned or a typed error; no partial results.
func (c *Client) FetchRawCandles(ctx context.Context, symbol, interval string, limit int) ([]RawCandleRow, error) {
	if !IsValidSymbol(symbol) {
		return nil, fmt.Errorf("%w: symbol %q", ErrInvalidRequest, symbol)
	}
	if !IsValidInterval(interval) {
		return nil, fmt.Errorf("%w: interval %q", ErrInvalidRequest, interval)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidRequest, limit)
	}
	if limit > c.cfg.MaxLimit {
		return nil, fmt.Errorf("%w: limit %d exceeds maximum %d", ErrInvalidRequest, limit, c.cfg.MaxLimit)
	}

	start := time.Now()
	defer func() {
		if c.rec != nil {
			c.rec.FetchLatency(symbol, time.Since(start))
		}
	}()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			if c.rec != nil {
				c.rec.UpstreamRetry(symbol)
			}
			// linear backoff
			if err := c.sleep(ctx, time.Duration(attempt-1)*c.cfg.RetryDelay); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		c.limiter.Take()

		rows, retryable, err := c.fetchOnce(ctx, symbol, interval, limit)
		if err == nil {
			return rows, nil
		}
		if !retryable {
			return nil, err
		}

		lastErr = err
		if c.logger != nil {
			c.logger.Warn("upstream fetch attempt failed",
				applogger.String("symbol", symbol),
				applogger.Int("attempt", attempt),
				applogger.Error(err),
			)
		}
	}

	if c.rec != nil {
		c.rec.PipelineError("unavailable")
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrUnavailable, c.cfg.MaxRetries, lastErr)
}

// fetchOnce performs a single upstream call. retryable reports whether the
// failure is transient (transport error or non-2xx status).
func (c *Client) fetchOnce(ctx context.Context, symbol, interval string, limit int) (rows []RawCandleRow, retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.http.SendRequest(reqCtx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.cfg.BaseURL + "/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		},
	})
	if err != nil {
		if c.rec != nil {
			c.rec.UpstreamRequest(symbol, "transport_error")
		}
		return nil, true, fmt.Errorf("klines request: %w", err)
	}
	defer resp.Body.Close()

	if c.rec != nil {
		c.rec.UpstreamRequest(symbol, strconv.Itoa(resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, true, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	if err := json.Unmarshal(body, &rows); err != nil {
		if c.rec != nil {
			c.rec.PipelineError("malformed")
		}
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return rows, false, nil
}
