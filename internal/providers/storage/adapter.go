package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Namespace keys for the two persisted blobs
const (
	PageStatesKey = "ecoswipe.pageStates"
	CartKey       = "ecoswipe.cart"
)

// DefaultMaxPages caps the page-state map
const DefaultMaxPages = 200

// Adapter exposes the page-state map and the cart list on top of a Store.
// Plain reads never fail: an unavailable store resolves to empty values.
// ReadCart and the page-map writes see the failure instead.
type Adapter struct {
	store    Store
	log      *zap.Logger
	maxPages int
	now      func() time.Time

	// serializes read-modify-write of the page map
	mu sync.Mutex
}

// Option configures an Adapter
type Option func(*Adapter)

// WithMaxPages caps the number of page states kept; n <= 0 disables eviction
func WithMaxPages(n int) Option {
	return func(a *Adapter) { a.maxPages = n }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// WithClock overrides the time source used for UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter wraps store. A nil store gives a purely ephemeral adapter.
func NewAdapter(store Store, opts ...Option) *Adapter {
	a := &Adapter{
		store:    store,
		log:      zap.NewNop(),
		maxPages: DefaultMaxPages,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ============================================================================
// Page States
// ============================================================================

// LoadPageState returns the persisted state for pageURL, normalized so that
// scores and index are consistent with the alternative list
func (a *Adapter) LoadPageState(ctx context.Context, pageURL string) (*types.SessionState, bool) {
	pages, err := a.readPages(ctx)
	if err != nil {
		a.log.Warn("page state read failed", zap.String("url", pageURL), zap.Error(err))
		return nil, false
	}

	state, ok := pages[pageURL]
	if !ok || state == nil {
		return nil, false
	}
	state.Normalize()
	return state, true
}

// SavePageState writes state for pageURL, preserving every other URL.
// Nothing is written when the current map cannot be read.
func (a *Adapter) SavePageState(ctx context.Context, pageURL string, state types.SessionState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	pages, err := a.readPages(ctx)
	if err != nil {
		return err
	}

	saved := state.Clone()
	saved.UpdatedAt = a.now().UTC()
	pages[pageURL] = &saved

	if evicted := a.evict(pages, pageURL); evicted > 0 {
		a.log.Debug("evicted page states", zap.Int("count", evicted))
	}

	data, err := sonic.ConfigStd.Marshal(pages)
	if err != nil {
		return fmt.Errorf("failed to encode page states: %w", err)
	}
	return a.write(ctx, PageStatesKey, data)
}

// PageCount returns the number of persisted page states
func (a *Adapter) PageCount(ctx context.Context) int {
	pages, err := a.readPages(ctx)
	if err != nil {
		return 0
	}
	return len(pages)
}

func (a *Adapter) readPages(ctx context.Context) (map[string]*types.SessionState, error) {
	pages := make(map[string]*types.SessionState)

	data, err := a.read(ctx, PageStatesKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return pages, nil
	}

	if err := sonic.ConfigStd.Unmarshal(data, &pages); err != nil {
		a.log.Warn("discarding corrupt page states", zap.Error(err))
		return make(map[string]*types.SessionState), nil
	}
	return pages, nil
}

// evict drops the least recently updated states beyond maxPages, never keep
func (a *Adapter) evict(pages map[string]*types.SessionState, keep string) int {
	if a.maxPages <= 0 || len(pages) <= a.maxPages {
		return 0
	}

	keys := make([]string, 0, len(pages))
	for k := range pages {
		if k != keep {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := updatedAt(pages[keys[i]]), updatedAt(pages[keys[j]])
		if ti.Equal(tj) {
			return keys[i] < keys[j]
		}
		return ti.Before(tj)
	})

	excess := len(pages) - a.maxPages
	for _, k := range keys[:excess] {
		delete(pages, k)
	}
	return excess
}

func updatedAt(s *types.SessionState) time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.UpdatedAt
}

// ============================================================================
// Cart
// ============================================================================

// LoadCart returns the persisted cart, or an empty cart when unavailable
func (a *Adapter) LoadCart(ctx context.Context) []types.CartItem {
	items, err := a.ReadCart(ctx)
	if err != nil {
		a.log.Warn("cart read failed", zap.Error(err))
		return []types.CartItem{}
	}
	return items
}

// ReadCart is LoadCart for read-modify-write callers: an unreachable store
// is reported instead of being hidden behind an empty cart
func (a *Adapter) ReadCart(ctx context.Context) ([]types.CartItem, error) {
	data, err := a.read(ctx, CartKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []types.CartItem{}, nil
	}

	var items []types.CartItem
	if err := sonic.ConfigStd.Unmarshal(data, &items); err != nil {
		a.log.Warn("discarding corrupt cart", zap.Error(err))
		return []types.CartItem{}, nil
	}
	if items == nil {
		items = []types.CartItem{}
	}
	return items, nil
}

// SaveCart replaces the persisted cart
func (a *Adapter) SaveCart(ctx context.Context, items []types.CartItem) error {
	if items == nil {
		items = []types.CartItem{}
	}
	data, err := sonic.ConfigStd.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return a.write(ctx, CartKey, data)
}

// ============================================================================
// Store Access
// ============================================================================

// read returns nil data for a missing key
func (a *Adapter) read(ctx context.Context, key string) ([]byte, error) {
	if a.store == nil {
		return nil, ErrUnavailable
	}
	data, err := a.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return data, nil
}

func (a *Adapter) write(ctx context.Context, key string, data []byte) error {
	if a.store == nil {
		return ErrUnavailable
	}
	if err := a.store.Set(ctx, key, data); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
