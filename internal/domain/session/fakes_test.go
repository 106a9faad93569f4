package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/cart"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/storage"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
)

type judgeResult struct {
	score types.Score
	err   error
}

// fakeScorer answers judge by product name and search from a queue
type fakeScorer struct {
	mu      sync.Mutex
	judges  map[string]judgeResult
	judged  []types.Product
	results []*scoring.SearchResult
	errs    []error

	// when set, calls block until the channel is closed or ctx ends
	judgeGate  chan struct{}
	searchGate chan struct{}

	searchCalls atomic.Int32
	searchDone  atomic.Int32
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{judges: make(map[string]judgeResult)}
}

func (f *fakeScorer) judge(name string, score float64) *fakeScorer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.judges[name] = judgeResult{score: types.ScoreOf(score)}
	return f
}

func (f *fakeScorer) judgeErr(name string, err error) *fakeScorer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.judges[name] = judgeResult{err: err}
	return f
}

func (f *fakeScorer) search(res *scoring.SearchResult, err error) *fakeScorer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	f.errs = append(f.errs, err)
	return f
}

func (f *fakeScorer) Judge(ctx context.Context, product types.Product) (types.Score, error) {
	f.mu.Lock()
	f.judged = append(f.judged, product)
	gate := f.judgeGate
	res := f.judges[product.Name]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return types.Unknown, ctx.Err()
		}
	}
	return res.score, res.err
}

func (f *fakeScorer) Search(ctx context.Context, product types.Product, limit int) (*scoring.SearchResult, error) {
	n := int(f.searchCalls.Add(1)) - 1
	defer f.searchDone.Add(1)

	f.mu.Lock()
	gate := f.searchGate
	var (
		res *scoring.SearchResult
		err error
	)
	if len(f.results) > 0 {
		i := min(n, len(f.results)-1)
		res, err = f.results[i], f.errs[i]
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &scoring.SearchResult{}, nil
	}
	out := *res
	if len(out.Results) > limit {
		out.Results = out.Results[:limit]
	}
	return &out, nil
}

func (f *fakeScorer) judgedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.judged))
	for _, p := range f.judged {
		names = append(names, p.Name)
	}
	return names
}

type phaseRecorder struct {
	mu     sync.Mutex
	phases []string
}

func (p *phaseRecorder) ObservePhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, phase)
}

type fixture struct {
	scorer  *fakeScorer
	adapter *storage.Adapter
	cart    *cart.Manager
}

func newFixture(t *testing.T, scorer *fakeScorer) *fixture {
	t.Helper()
	adapter := storage.NewAdapter(storage.NewMemoryStore())
	return &fixture{
		scorer:  scorer,
		adapter: adapter,
		cart:    cart.NewManager(adapter, nil),
	}
}

func (fx *fixture) machine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine(Deps{
		Scorer: fx.scorer,
		Pages:  fx.adapter,
		Cart:   fx.cart,
	})
	t.Cleanup(m.Close)
	return m
}

var plasticBottle = PageInfo{URL: "https://amazon.com/dp/X", Title: "Plastic Bottle"}

func results(alts ...types.Alternative) *scoring.SearchResult {
	return &scoring.SearchResult{Results: alts}
}
