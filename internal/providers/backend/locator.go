package backend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/providers/http/client"
	"go.uber.org/zap"
)

// ErrUnreachable means no candidate answered its health check
var ErrUnreachable = errors.New("backend not reachable")

// DefaultCandidates are tried in order
var DefaultCandidates = []string{
	"http://localhost:5057",
	"http://127.0.0.1:5057",
	"http://localhost:5060",
	"http://127.0.0.1:5060",
}

// DefaultProbeTimeout bounds each health check
const DefaultProbeTimeout = 1500 * time.Millisecond

// Locator picks the first healthy backend and remembers the outcome for its
// whole lifetime, failures included. One Locator serves one popup session.
type Locator struct {
	client       *client.Client
	candidates   []string
	probeTimeout time.Duration
	log          *zap.Logger

	mu       sync.Mutex
	resolved bool
	selected string
	err      error
	probes   []string
}

// Option configures a Locator
type Option func(*Locator)

// WithProbeTimeout bounds each health probe
func WithProbeTimeout(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.probeTimeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(l *Locator) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLocator creates a locator over candidates; an empty list uses DefaultCandidates
func NewLocator(c *client.Client, candidates []string, opts ...Option) *Locator {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	trimmed := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		if cand = strings.TrimRight(strings.TrimSpace(cand), "/"); cand != "" {
			trimmed = append(trimmed, cand)
		}
	}

	l := &Locator{
		client:       c,
		candidates:   trimmed,
		probeTimeout: DefaultProbeTimeout,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the selected base URL, probing candidates on first use.
// Concurrent callers wait for the single probing pass.
func (l *Locator) Resolve(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolved {
		return l.selected, l.err
	}

	for _, cand := range l.candidates {
		if err := ctx.Err(); err != nil {
			// Caller gave up; leave the locator unresolved
			return "", err
		}

		l.probes = append(l.probes, cand)
		if l.probe(ctx, cand) {
			l.log.Info("backend selected", zap.String("url", cand))
			l.resolved, l.selected, l.err = true, cand, nil
			return cand, nil
		}
	}

	l.log.Warn("no backend reachable", zap.Strings("candidates", l.candidates))
	l.resolved, l.selected, l.err = true, "", ErrUnreachable
	return "", ErrUnreachable
}

// Selected returns the cached result without probing
func (l *Locator) Selected() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected, l.resolved && l.err == nil
}

// Probed lists the candidates probed so far, in order
func (l *Locator) Probed() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.probes...)
}

func (l *Locator) probe(ctx context.Context, base string) bool {
	ctx, cancel := context.WithTimeout(ctx, l.probeTimeout)
	defer cancel()

	req, err := l.client.Request(ctx)
	if err != nil {
		l.log.Debug("health probe skipped", zap.String("url", base), zap.Error(err))
		return false
	}

	resp, err := req.Get(base + "/health")
	if err != nil {
		l.log.Debug("health probe failed", zap.String("url", base), zap.Error(err))
		return false
	}
	if !resp.IsSuccess() {
		l.log.Debug("health probe unhealthy", zap.String("url", base), zap.Int("status", resp.StatusCode()))
		return false
	}
	return true
}
