package session

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
	"golang.org/x/sync/singleflight"
)

const prefetchKey = "search"

// prefetch is the single in-flight search slot. A second caller joins the
// outstanding search; only successful results are kept.
type prefetch struct {
	ctx    context.Context
	search func(ctx context.Context) (*scoring.SearchResult, error)
	group  singleflight.Group

	mu     sync.Mutex
	result *scoring.SearchResult
}

func newPrefetch(ctx context.Context, search func(ctx context.Context) (*scoring.SearchResult, error)) *prefetch {
	return &prefetch{ctx: ctx, search: search}
}

// Start launches a background search unless one is cached or in flight
func (p *prefetch) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.result != nil {
		return
	}
	p.group.DoChan(prefetchKey, p.run)
}

// Await returns the cached result, joins the in-flight search, or issues one
func (p *prefetch) Await(ctx context.Context) (*scoring.SearchResult, error) {
	p.mu.Lock()
	if p.result != nil {
		res := p.result
		p.mu.Unlock()
		return res, nil
	}
	ch := p.group.DoChan(prefetchKey, p.run)
	p.mu.Unlock()

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*scoring.SearchResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cached reports whether a completed result is available
func (p *prefetch) Cached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result != nil
}

func (p *prefetch) run() (any, error) {
	res, err := p.search(p.ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &scoring.SearchResult{}
	}

	p.mu.Lock()
	p.result = res
	p.mu.Unlock()
	return res, nil
}
