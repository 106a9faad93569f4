package scoring

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/providers/http/client"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	// DefaultModel is sent as the model hint
	DefaultModel = "gpt-4o-mini"

	// DefaultLimit is the observed cap on alternatives per session
	DefaultLimit = 3
)

// Resolver yields the base URL of a healthy backend
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Recorder observes backend calls; implemented by the monitoring package
type Recorder interface {
	ObserveBackendCall(op, outcome string, d time.Duration)
}

// Client issues judge and search requests against the located backend
type Client struct {
	http     *client.Client
	resolver Resolver
	model    string
	log      *zap.Logger
	recorder Recorder
}

// Option configures a Client
type Option func(*Client)

// WithModel overrides the model hint
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRecorder reports every backend call to r
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a scoring client
func NewClient(httpClient *client.Client, resolver Resolver, opts ...Option) *Client {
	c := &Client{
		http:     httpClient,
		resolver: resolver,
		model:    DefaultModel,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type judgeRequest struct {
	Product types.Product `json:"product"`
	Model   string        `json:"model"`
}

type searchRequest struct {
	Product types.Product `json:"product"`
	Limit   int           `json:"limit"`
	Model   string        `json:"model"`
}

// SearchResult is the normalized /search answer
type SearchResult struct {
	Score   types.Score         `json:"ecoscore"`
	Impact  string              `json:"impact,omitempty"`
	Results []types.Alternative `json:"results"`
}

// Judge scores product. A 2xx answer without a numeric ecoscore is Unknown.
func (c *Client) Judge(ctx context.Context, product types.Product) (types.Score, error) {
	body, err := c.post(ctx, "judge", "/judge", judgeRequest{Product: product, Model: c.model})
	if err != nil {
		return types.Unknown, err
	}

	var payload struct {
		EcoScore types.Score `json:"ecoscore"`
	}
	if err := sonic.ConfigStd.Unmarshal(body, &payload); err != nil {
		c.log.Debug("judge response not JSON", zap.Error(err))
		return types.Unknown, fmt.Errorf("judge: %w", ErrMalformedResponse)
	}
	return payload.EcoScore, nil
}

// Search asks for up to limit alternatives. Zero results is a valid answer.
func (c *Client) Search(ctx context.Context, product types.Product, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	body, err := c.post(ctx, "search", "/search", searchRequest{Product: product, Limit: limit, Model: c.model})
	if err != nil {
		return nil, err
	}

	var payload struct {
		EcoScore types.Score      `json:"ecoscore"`
		Impact   any              `json:"impact"`
		Results  []map[string]any `json:"results"`
	}
	if err := sonic.ConfigStd.Unmarshal(body, &payload); err != nil {
		c.log.Debug("search response not JSON", zap.Error(err))
		return nil, fmt.Errorf("search: %w", ErrMalformedResponse)
	}

	result := &SearchResult{
		Score:   payload.EcoScore,
		Impact:  stringField(payload.Impact),
		Results: make([]types.Alternative, 0, limit),
	}
	for _, raw := range payload.Results {
		alt := types.Alternative{
			Name:  stringField(raw["name"]),
			URL:   stringField(raw["url"]),
			Image: stringField(raw["image"]),
			Price: stringField(raw["price"]),
		}
		if alt.URL == "" {
			continue
		}
		if alt.Name == "" {
			alt.Name = types.NameFromURL(alt.URL)
		}
		result.Results = append(result.Results, alt)
		if len(result.Results) == limit {
			break
		}
	}
	return result, nil
}

// post resolves the backend and sends a JSON body, returning the raw 2xx body
func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	start := time.Now()

	base, err := c.resolver.Resolve(ctx)
	if err != nil {
		c.observe(op, "unreachable", start)
		if errors.Is(err, ErrBackendUnreachable) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %v", op, ErrRequestFailed, err)
	}

	req, err := c.http.Request(ctx)
	if err != nil {
		c.observe(op, "error", start)
		return nil, fmt.Errorf("%s: %w: %v", op, ErrRequestFailed, err)
	}

	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(base + path)
	if err != nil {
		c.observe(op, "error", start)
		c.log.Warn("backend call failed", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %v", op, ErrRequestFailed, err)
	}

	if !resp.IsSuccess() {
		c.observe(op, strconv.Itoa(resp.StatusCode()), start)
		c.log.Warn("backend call rejected", zap.String("op", op), zap.Int("status", resp.StatusCode()))
		return nil, &RequestError{Op: op, Status: resp.StatusCode()}
	}

	c.observe(op, "ok", start)
	return resp.Body(), nil
}

func (c *Client) observe(op, outcome string, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveBackendCall(op, outcome, time.Since(start))
	}
}

// stringField accepts strings and numbers ("$20" or 19.99)
func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
