package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// UserAgent is sent with every outbound request
const UserAgent = "EcoSwipe/1.0"

// Client wraps resty with rate limiting and a bounded timeout.
// Requests are never retried; callers decide whether to try again.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Mu      sync.RWMutex
}

// Options configures a Client
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Transport         http.RoundTripper
}

// DefaultOptions returns the settings used by the scoring client
func DefaultOptions() Options {
	return Options{
		Timeout: 45 * time.Second,
	}
}

// NewClient creates an HTTP client with sonic JSON coding and no retries
func NewClient(opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		// Pooled transport from retryablehttp; retrying stays disabled
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = 0
		retryClient.Logger = nil
		transport = retryClient.HTTPClient.Transport
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().Timeout
	}

	restyClient := resty.New()
	restyClient.
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetJSONUnmarshaler(sonic.ConfigStd.Unmarshal)

	restyClient.SetTransport(transport)

	c := &Client{Resty: restyClient}
	c.SetRateLimit(opts.RequestsPerSecond)
	return c
}

// SetHeader adds a default header
func (c *Client) SetHeader(key, value string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetTimeout configures the per-request timeout
func (c *Client) SetTimeout(duration time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetTimeout(duration)
}

// SetRateLimit configures rate limiting (requests per second); zero or less is unlimited
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Request creates a new request bound to ctx after waiting for the rate limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// Timeout returns the configured request timeout
func (c *Client) Timeout() time.Duration {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.GetClient().Timeout
}
