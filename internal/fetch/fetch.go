package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/pfrederiksen/espn-tables/internal/logger"
	"github.com/pfrederiksen/espn-tables/internal/telemetry"
)

const (
	// UserAgent is sent with every page request unless WithUserAgent overrides it.
	UserAgent = "espn-tables/1.0 (github.com/pfrederiksen/espn-tables)"
	// Timeout bounds a whole request unless WithTimeout overrides it.
	Timeout = 30 * time.Second
)

// Fetcher returns the HTML body served at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError reports a network failure (Err set) or an unsuccessful HTTP
// status (StatusCode set).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client is a Fetcher backed by resty.
type Client struct {
	client  *resty.Client
	log     *logger.Logger
	metrics *logger.Metrics
}

// Option configures a Client.
type Option func(*config)

type config struct {
	timeout   time.Duration
	userAgent string
	tracer    trace.Tracer
	log       *logger.Logger
	metrics   *logger.Metrics
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) { c.tracer = tracer }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *logger.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithMetrics sets where fetch counters and timings are recorded.
func WithMetrics(m *logger.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// New creates a Client.
func New(opts ...Option) *Client {
	cfg := config{
		timeout:   Timeout,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := resty.New().
		SetTimeout(cfg.timeout).
		SetHeader("User-Agent", cfg.userAgent).
		SetRetryCount(0)
	telemetry.InstrumentResty(client, cfg.tracer)

	return &Client{
		client:  client,
		log:     cfg.log,
		metrics: cfg.metrics,
	}
}

// Fetch issues a GET to url and returns the body as a string.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	res, err := c.client.R().
		SetContext(ctx).
		Get(url)
	elapsed := time.Since(start)
	c.recordTiming(elapsed)

	if err != nil {
		c.incr("fetch.error")
		c.logError("fetch failed", logger.Fields{"url": url}, err)
		return "", &FetchError{URL: url, Err: err}
	}

	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		c.incr("fetch.error")
		ferr := &FetchError{URL: url, StatusCode: res.StatusCode()}
		c.logError("fetch failed", logger.Fields{"url": url, "status": res.StatusCode()}, ferr)
		return "", ferr
	}

	c.incr("fetch.ok")
	c.logDebug("fetched page", logger.Fields{
		"url":      url,
		"status":   res.StatusCode(),
		"bytes":    len(res.Body()),
		"duration": elapsed.String(),
	})
	return res.String(), nil
}

func (c *Client) recordTiming(d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordTiming("fetch", d)
		return
	}
	logger.RecordTiming("fetch", d)
}

func (c *Client) incr(name string) {
	if c.metrics != nil {
		c.metrics.IncrCounter(name)
		return
	}
	logger.IncrCounter(name)
}

func (c *Client) logDebug(msg string, fields logger.Fields) {
	if c.log != nil {
		c.log.Debug(msg, fields)
		return
	}
	logger.Debug(msg, fields)
}

func (c *Client) logError(msg string, fields logger.Fields, err error) {
	if c.log != nil {
		c.log.Error(msg, fields, err)
		return
	}
	logger.Error(msg, fields, err)
}
