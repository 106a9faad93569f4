package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every call
type brokenStore struct {
	sets atomic.Int32
}

func (b *brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (b *brokenStore) Set(context.Context, string, []byte) error {
	b.sets.Add(1)
	return errors.New("disk on fire")
}

func (b *brokenStore) Close() error { return nil }

func sampleState() types.SessionState {
	s := types.NewSessionState(types.Product{Name: "Plastic Bottle", Link: "https://amazon.com/dp/X"})
	s.SetAlternatives([]types.Alternative{
		{Name: "Steel Bottle", URL: "https://shop.example/steel", Price: "$20"},
		{Name: "Glass Bottle", URL: "https://shop.example/glass"},
	})
	s.SetScore(0, types.ScoreOf(4.0))
	s.CurrentIndex = 1
	return *s
}

var ignoreUpdatedAt = cmpopts.IgnoreFields(types.SessionState{}, "UpdatedAt")

func TestPageStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter(NewMemoryStore())

	want := sampleState()
	require.NoError(t, adapter.SavePageState(ctx, "https://amazon.com/dp/x", want))

	got, ok := adapter.LoadPageState(ctx, "https://amazon.com/dp/x")
	require.True(t, ok)
	if diff := cmp.Diff(want, *got, ignoreUpdatedAt); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestPageStateMissing(t *testing.T) {
	adapter := NewAdapter(NewMemoryStore())

	got, ok := adapter.LoadPageState(context.Background(), "https://amazon.com/dp/none")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSavePreservesOtherPages(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter(NewMemoryStore())

	a := sampleState()
	b := sampleState()
	b.Product.Name = "Other"

	require.NoError(t, adapter.SavePageState(ctx, "a", a))
	require.NoError(t, adapter.SavePageState(ctx, "b", b))

	a.CurrentIndex = 0
	require.NoError(t, adapter.SavePageState(ctx, "a", a))

	gotB, ok := adapter.LoadPageState(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "Other", gotB.Product.Name)
	assert.Equal(t, 1, gotB.CurrentIndex)

	gotA, ok := adapter.LoadPageState(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 0, gotA.CurrentIndex)
	assert.Equal(t, 2, adapter.PageCount(ctx))
}

func TestLoadRepairsStoredState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	blob := `{"u":{"stage":"ALTERNATIVES","product":{"name":"p","link":"u"},
		"alternatives":[{"name":"a","url":"x"},{"name":"b","url":"y"}],
		"alt_scores":[2.5,null,1],"current_index":7}}`
	require.NoError(t, store.Set(ctx, PageStatesKey, []byte(blob)))

	got, ok := NewAdapter(store).LoadPageState(ctx, "u")
	require.True(t, ok)
	assert.Len(t, got.AltScores, 2)
	assert.Equal(t, 1, got.CurrentIndex)
	assert.True(t, got.AltScores[0].Equal(types.ScoreOf(2.5)))
	assert.False(t, got.AltScores[1].Known())
}

func TestCorruptBlobReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, PageStatesKey, []byte(`not json`)))
	require.NoError(t, store.Set(ctx, CartKey, []byte(`{`)))

	adapter := NewAdapter(store)
	_, ok := adapter.LoadPageState(ctx, "u")
	assert.False(t, ok)
	assert.Empty(t, adapter.LoadCart(ctx))

	require.NoError(t, adapter.SavePageState(ctx, "u", sampleState()))
	_, ok = adapter.LoadPageState(ctx, "u")
	assert.True(t, ok)
}

func TestUnavailableStoreDegrades(t *testing.T) {
	ctx := context.Background()
	broken := &brokenStore{}

	for name, adapter := range map[string]*Adapter{
		"broken": NewAdapter(broken),
		"nil":    NewAdapter(nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := adapter.LoadPageState(ctx, "u")
			assert.False(t, ok)
			assert.NotNil(t, adapter.LoadCart(ctx))
			assert.Empty(t, adapter.LoadCart(ctx))

			items, err := adapter.ReadCart(ctx)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, items)

			assert.ErrorIs(t, adapter.SavePageState(ctx, "u", sampleState()), ErrUnavailable)
			assert.ErrorIs(t, adapter.SaveCart(ctx, nil), ErrUnavailable)
		})
	}

	// a failed read means the page map is never overwritten
	assert.Equal(t, int32(1), broken.sets.Load(), "only SaveCart may reach Set")
}

func TestEvictsLeastRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	adapter := NewAdapter(NewMemoryStore(), WithMaxPages(3), WithClock(clock))
	for i := 0; i < 3; i++ {
		require.NoError(t, adapter.SavePageState(ctx, fmt.Sprintf("p%d", i), sampleState()))
	}

	// touch p0 so p1 becomes the oldest
	require.NoError(t, adapter.SavePageState(ctx, "p0", sampleState()))
	require.NoError(t, adapter.SavePageState(ctx, "p3", sampleState()))

	assert.Equal(t, 3, adapter.PageCount(ctx))
	_, ok := adapter.LoadPageState(ctx, "p1")
	assert.False(t, ok)
	for _, k := range []string{"p0", "p2", "p3"} {
		_, ok := adapter.LoadPageState(ctx, k)
		assert.True(t, ok, k)
	}
}

func TestCartRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := NewAdapter(NewMemoryStore())

	assert.Empty(t, adapter.LoadCart(ctx))

	items := []types.CartItem{
		types.CartItemFrom(types.Alternative{Name: "Steel Bottle", URL: "https://shop.example/steel"}, types.ScoreOf(4)),
		types.CartItemFrom(types.Alternative{Name: "Glass Bottle", URL: "https://shop.example/glass"}, types.Unknown),
	}
	require.NoError(t, adapter.SaveCart(ctx, items))

	got := adapter.LoadCart(ctx)
	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("cart mismatch (-want +got):\n%s", diff)
	}

	read, err := adapter.ReadCart(ctx)
	require.NoError(t, err)
	assert.Len(t, read, 2)
}
