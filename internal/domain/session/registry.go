package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/shared/id"
	"go.uber.org/zap"
)

// ErrPopupNotFound is returned for unknown or closed popup ids
var ErrPopupNotFound = errors.New("popup not found")

// Factory builds a fresh machine, with its own backend locator, per popup
type Factory func() *Machine

// Registry tracks the open popups of the bridge
type Registry struct {
	popups  sync.Map // id.PopupID -> *entry
	factory Factory
	log     *zap.Logger
	now     func() time.Time

	active atomic.Int64
	opened atomic.Int64
}

type entry struct {
	machine  *Machine
	lastSeen atomic.Int64
}

// Stats summarizes registry activity
type Stats struct {
	Active int64 `json:"active"`
	Opened int64 `json:"opened"`
}

// NewRegistry creates a popup registry
func NewRegistry(factory Factory, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		log:     log,
		now:     time.Now,
	}
}

// Open creates a popup for page and runs its first transition
func (r *Registry) Open(ctx context.Context, page PageInfo) (id.PopupID, *Machine, Render) {
	popupID := id.NewPopupID()
	m := r.factory()

	e := &entry{machine: m}
	e.lastSeen.Store(r.now().UnixNano())
	r.popups.Store(popupID, e)
	r.active.Add(1)
	r.opened.Add(1)

	r.log.Debug("popup opened", zap.String("id", popupID.String()), zap.String("url", page.URL))
	return popupID, m, m.Open(ctx, page)
}

// Get looks up a popup and marks it as seen
func (r *Registry) Get(popupID id.PopupID) (*Machine, bool) {
	v, ok := r.popups.Load(popupID)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	e.lastSeen.Store(r.now().UnixNano())
	return e.machine, true
}

// Touch marks a popup as seen without looking at its machine. Connected
// clients call it on every frame so an attached popup is never pruned.
func (r *Registry) Touch(popupID id.PopupID) bool {
	_, ok := r.Get(popupID)
	return ok
}

// Dispatch forwards ev to the popup
func (r *Registry) Dispatch(ctx context.Context, popupID id.PopupID, ev Event) (Render, error) {
	m, ok := r.Get(popupID)
	if !ok {
		return Render{}, ErrPopupNotFound
	}
	return m.Dispatch(ctx, ev), nil
}

// Close closes and forgets a popup
func (r *Registry) Close(popupID id.PopupID) bool {
	v, ok := r.popups.LoadAndDelete(popupID)
	if !ok {
		return false
	}
	v.(*entry).machine.Close()
	r.active.Add(-1)
	r.log.Debug("popup closed", zap.String("id", popupID.String()))
	return true
}

// Prune closes popups not seen for maxIdle and returns how many were closed
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle).UnixNano()
	pruned := 0

	r.popups.Range(func(key, value any) bool {
		if value.(*entry).lastSeen.Load() < cutoff {
			if r.Close(key.(id.PopupID)) {
				pruned++
			}
		}
		return true
	})
	if pruned > 0 {
		r.log.Info("pruned idle popups", zap.Int("count", pruned))
	}
	return pruned
}

// CloseAll closes every popup
func (r *Registry) CloseAll() {
	r.popups.Range(func(key, _ any) bool {
		r.Close(key.(id.PopupID))
		return true
	})
}

// Stats returns registry counters
func (r *Registry) Stats() Stats {
	return Stats{
		Active: r.active.Load(),
		Opened: r.opened.Load(),
	}
}
