package cart

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/GriffinCanCode/ecoswipe/internal/providers/storage"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *Manager {
	return NewManager(storage.NewAdapter(storage.NewMemoryStore()), nil)
}

// flakyStore fails the next Get after failNext is set
type flakyStore struct {
	storage.Store
	failNext atomic.Bool
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failNext.CompareAndSwap(true, false) {
		return nil, errors.New("read timed out")
	}
	return f.Store.Get(ctx, key)
}

func mustAppend(t *testing.T, m *Manager, item types.CartItem) bool {
	t.Helper()
	added, err := m.Append(context.Background(), item)
	require.NoError(t, err)
	return added
}

func TestAppendDeduplicatesCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	steel := types.CartItemFrom(types.Alternative{Name: "Steel Bottle", URL: "https://shop.example/steel"}, types.ScoreOf(4))
	assert.True(t, mustAppend(t, m, steel))

	again := steel
	again.Name = "STEEL bottle"
	assert.False(t, mustAppend(t, m, again))

	assert.Equal(t, 1, m.Len(ctx))
	items := m.Load(ctx)
	assert.Equal(t, "Steel Bottle", items[0].Name)
	assert.False(t, items[0].AddedAt.IsZero())
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	names := []string{"c", "a", "b"}
	for _, n := range names {
		require.True(t, mustAppend(t, m, types.CartItem{Name: n, URL: "https://shop.example/" + n}))
	}

	// same name on a different url is a different item
	require.True(t, mustAppend(t, m, types.CartItem{Name: "a", URL: "https://other.example/a"}))

	var got []string
	for _, item := range m.Load(ctx) {
		got = append(got, item.Name)
	}
	assert.Equal(t, []string{"c", "a", "b", "a"}, got)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	mustAppend(t, m, types.CartItem{Name: "x", URL: "u"})
	require.NoError(t, m.Clear(ctx))
	assert.Equal(t, 0, m.Len(ctx))
	assert.NotNil(t, m.Load(ctx))
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	assert.Equal(t, Summary{}, m.Summary(ctx))

	mustAppend(t, m, types.CartItem{Name: "a", URL: "1", Score: types.ScoreOf(4)})
	mustAppend(t, m, types.CartItem{Name: "b", URL: "2", Score: types.ScoreOf(3)})
	mustAppend(t, m, types.CartItem{Name: "c", URL: "3"})

	assert.Equal(t, Summary{Count: 3, Scored: 2, MeanScore: 3.5}, m.Summary(ctx))
}

func TestUnavailableStorage(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewAdapter(nil), nil)

	added, err := m.Append(ctx, types.CartItem{Name: "x", URL: "u"})
	assert.False(t, added)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, 0, m.Len(ctx))
	assert.ErrorIs(t, m.Clear(ctx), storage.ErrUnavailable)
}

func TestAppendAfterFailedReadKeepsCart(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: storage.NewMemoryStore()}
	m := NewManager(storage.NewAdapter(store), nil)

	mustAppend(t, m, types.CartItem{Name: "A", URL: "https://shop.example/a"})
	mustAppend(t, m, types.CartItem{Name: "B", URL: "https://shop.example/b"})

	store.failNext.Store(true)
	added, err := m.Append(ctx, types.CartItem{Name: "C", URL: "https://shop.example/c"})
	assert.False(t, added)
	require.ErrorIs(t, err, storage.ErrUnavailable)

	items := m.Load(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Name)
	assert.Equal(t, "B", items[1].Name)

	// store is back, the next append sees the full cart
	assert.True(t, mustAppend(t, m, types.CartItem{Name: "C", URL: "https://shop.example/c"}))
	assert.Equal(t, 3, m.Len(ctx))
}
