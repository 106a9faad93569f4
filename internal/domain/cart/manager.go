package cart

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Persister is the slice of the storage adapter the cart needs
type Persister interface {
	LoadCart(ctx context.Context) []types.CartItem
	ReadCart(ctx context.Context) ([]types.CartItem, error)
	SaveCart(ctx context.Context, items []types.CartItem) error
}

// Manager keeps the deduplicated cart in insertion order
type Manager struct {
	store Persister
	log   *zap.Logger
	now   func() time.Time
	mu    sync.Mutex
}

// Summary describes the cart contents
type Summary struct {
	Count     int     `json:"count"`
	Scored    int     `json:"scored"`
	MeanScore float64 `json:"mean_score"`
}

// NewManager creates a cart manager
func NewManager(store Persister, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Load returns the current cart
func (m *Manager) Load(ctx context.Context) []types.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.LoadCart(ctx)
}

// Append adds item unless an entry with the same key exists. The cart is
// only written back when the current contents could be read; a failed read
// or write is returned and leaves the stored cart as it was.
func (m *Manager) Append(ctx context.Context, item types.CartItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.store.ReadCart(ctx)
	if err != nil {
		m.log.Warn("cart not read, skipping write", zap.String("url", item.URL), zap.Error(err))
		return false, err
	}
	key := item.Key()

	added := true
	for _, existing := range items {
		if existing.Key() == key {
			added = false
			break
		}
	}
	if added {
		if item.AddedAt.IsZero() {
			item.AddedAt = m.now().UTC()
		}
		items = append(items, item)
	}

	if err := m.store.SaveCart(ctx, items); err != nil {
		m.log.Warn("cart not persisted", zap.Error(err))
		return added, err
	}
	return added, nil
}

// Clear empties the cart
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.SaveCart(ctx, []types.CartItem{})
}

// Len returns the number of items
func (m *Manager) Len(ctx context.Context) int {
	return len(m.Load(ctx))
}

// Summary counts the cart and averages the known scores
func (m *Manager) Summary(ctx context.Context) Summary {
	items := m.Load(ctx)

	scores := make([]float64, 0, len(items))
	for _, item := range items {
		if v, ok := item.Score.Value(); ok {
			scores = append(scores, v)
		}
	}

	s := Summary{Count: len(items), Scored: len(scores)}
	if len(scores) > 0 {
		s.MeanScore = stat.Mean(scores, nil)
	}
	return s
}
