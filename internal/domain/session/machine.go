package session

import (
	"context"
	"strings"
	"sync"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/site"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"go.uber.org/zap"
)

// DefaultLimit is the number of alternatives requested per search
const DefaultLimit = 3

// Scorer judges products and searches for alternatives
type Scorer interface {
	Judge(ctx context.Context, product types.Product) (types.Score, error)
	Search(ctx context.Context, product types.Product, limit int) (*scoring.SearchResult, error)
}

// Previewer produces card images
type Previewer interface {
	Preview(ctx context.Context, alt types.Alternative) scoring.Preview
}

// PageStore persists session state per page URL
type PageStore interface {
	LoadPageState(ctx context.Context, pageURL string) (*types.SessionState, bool)
	SavePageState(ctx context.Context, pageURL string, state types.SessionState) error
}

// CartStore is the cart the machine appends to
type CartStore interface {
	Append(ctx context.Context, item types.CartItem) (bool, error)
	Clear(ctx context.Context) error
	Len(ctx context.Context) int
}

// SiteChecker rejects pages that cannot be judged
type SiteChecker interface {
	Check(pageURL string) error
}

// Observer is told about every phase the machine enters
type Observer interface {
	ObservePhase(phase string)
}

// Deps are the collaborators of a Machine. Scorer is required.
type Deps struct {
	Scorer    Scorer
	Pages     PageStore
	Cart      CartStore
	Site      SiteChecker
	Previewer Previewer
	Observer  Observer
	Logger    *zap.Logger
	Limit     int
}

// Machine drives one popup: judge, maybe search, browse alternatives.
// Open and Dispatch are serialized and never return errors; failures
// become status text in the returned Render.
type Machine struct {
	scorer    Scorer
	pages     PageStore
	cart      CartStore
	site      SiteChecker
	previewer Previewer
	observer  Observer
	log       *zap.Logger
	limit     int

	// lifetime of the popup; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	// serializes transitions
	opMu sync.Mutex

	mu        sync.Mutex
	phase     Phase
	key       string
	state     *types.SessionState
	primary   types.Score
	impact    string
	last      Render
	closed    bool
	prefetch  *prefetch
	previews  map[int]scoring.Preview
	listeners []listener
	nextID    uint64
}

type listener struct {
	id uint64
	fn func(Render)
}

// NewMachine creates an idle machine
func NewMachine(deps Deps) *Machine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := deps.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Machine{
		scorer:    deps.Scorer,
		pages:     deps.Pages,
		cart:      deps.Cart,
		site:      deps.Site,
		previewer: deps.Previewer,
		observer:  deps.Observer,
		log:       log,
		limit:     limit,
		ctx:       ctx,
		cancel:    cancel,
		phase:     PhaseIdle,
		previews:  make(map[int]scoring.Preview),
		last:      Render{Phase: PhaseIdle},
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

// Open starts the session for page. A page that already reached the
// alternatives stage is restored without judging; anything else is judged
// while a search is prefetched in the background.
func (m *Machine) Open(ctx context.Context, page PageInfo) Render {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.isClosed() {
		return closedRender()
	}

	if err := m.checkSite(page.URL); err != nil {
		m.log.Info("page rejected", zap.String("url", page.URL), zap.Error(err))
		return m.fail(err)
	}

	key := site.Normalize(page.URL)
	product := productFor(page)

	m.mu.Lock()
	m.key = key
	m.primary = types.Unknown
	m.impact = ""
	m.previews = make(map[int]scoring.Preview)
	m.mu.Unlock()

	// A page judged acceptable last time is judged again but not prefetched
	speculate := true
	if m.pages != nil {
		if stored, ok := m.pages.LoadPageState(ctx, key); ok {
			if stored.Browsable() {
				m.log.Debug("restored alternatives stage", zap.String("url", key), zap.Int("index", stored.CurrentIndex))
				m.setState(stored)
				m.enter(PhaseAlternativesShown)
				return m.showCurrent(ctx)
			}
			speculate = !stored.Score.Acceptable()
		}
	}

	m.setState(types.NewSessionState(product))
	pf := m.newPrefetch(product)

	m.enter(PhaseJudging)
	m.emit(Render{Phase: PhaseJudging, Status: StatusAnalyzing})
	if speculate {
		pf.Start()
	}

	score, err := m.scorer.Judge(ctx, product)
	if err != nil {
		m.log.Warn("judge failed", zap.String("url", key), zap.Error(err))
		return m.fail(err)
	}

	m.mu.Lock()
	m.primary = score
	m.state.Score = score
	m.mu.Unlock()
	m.persist(ctx)

	if score.Acceptable() {
		m.enter(PhaseAcceptable)
		return m.publish(Render{
			Phase:     PhaseAcceptable,
			ScoreText: PrimaryLabel(score),
			Notice:    NoticeThankYou,
			CartSize:  m.cartSize(ctx),
		})
	}

	m.enter(PhaseNeedsAlternatives)
	return m.publish(m.needsAlternatives(ctx, ""))
}

// Close ends the popup. Work already in flight may still persist, but the
// machine produces no further renders.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.listeners = nil
	m.mu.Unlock()

	m.cancel()
}

// ============================================================================
// Events
// ============================================================================

// Dispatch applies a user event. Events that do not apply to the current
// phase return the current render unchanged.
func (m *Machine) Dispatch(ctx context.Context, ev Event) Render {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.isClosed() {
		return closedRender()
	}

	switch ev.Type {
	case EventOpenAlternatives:
		return m.openAlternatives(ctx)
	case EventSwipeNext:
		return m.swipe(ctx, 1)
	case EventSwipePrev:
		return m.swipe(ctx, -1)
	case EventAddToCart:
		return m.addToCart(ctx)
	case EventClearCart:
		return m.clearCart(ctx)
	case EventOpenLink:
		return m.openLink()
	default:
		m.log.Debug("unknown event", zap.String("type", string(ev.Type)))
		r := m.Last()
		r.Status, r.Error = StatusGeneric, true
		return r
	}
}

func (m *Machine) openAlternatives(ctx context.Context) Render {
	if m.Phase() != PhaseNeedsAlternatives {
		return m.Last()
	}

	m.mu.Lock()
	pf := m.prefetch
	product := m.state.Product
	m.mu.Unlock()
	if pf == nil {
		pf = m.newPrefetch(product)
	}

	m.enter(PhaseAlternativesLoading)
	m.emit(Render{Phase: PhaseAlternativesLoading, Status: StatusFinding, ScoreText: PrimaryLabel(m.primaryScore())})

	res, err := pf.Await(ctx)
	if m.isClosed() {
		return closedRender()
	}
	if err != nil {
		m.log.Warn("search failed", zap.Error(err))
		m.enter(PhaseNeedsAlternatives)
		return m.publish(m.needsAlternatives(ctx, StatusText(err)))
	}

	m.mu.Lock()
	m.impact = res.Impact
	m.mu.Unlock()

	if len(res.Results) == 0 {
		m.enter(PhaseNoAlternatives)
		return m.publish(Render{
			Phase:     PhaseNoAlternatives,
			ScoreText: PrimaryLabel(m.primaryScore()),
			Impact:    res.Impact,
			Notice:    NoticeNoAlternative,
			CartSize:  m.cartSize(ctx),
		})
	}

	m.mu.Lock()
	m.state.SetAlternatives(res.Results)
	m.previews = make(map[int]scoring.Preview)
	m.mu.Unlock()
	m.persist(ctx)

	m.enter(PhaseAlternativesShown)
	return m.showCurrent(ctx)
}

func (m *Machine) swipe(ctx context.Context, delta int) Render {
	if !m.Phase().Browsing() {
		return m.Last()
	}

	m.mu.Lock()
	m.state.Step(delta)
	m.mu.Unlock()
	m.persist(ctx)

	m.enter(PhaseIndexChanged)
	return m.showCurrent(ctx)
}

func (m *Machine) addToCart(ctx context.Context) Render {
	if !m.Phase().Browsing() || m.cart == nil {
		return m.Last()
	}

	m.mu.Lock()
	alt, score, ok := m.state.Current()
	m.mu.Unlock()
	if !ok {
		return m.Last()
	}

	added, err := m.cart.Append(ctx, types.CartItemFrom(alt, score))
	notice := NoticeDuplicate
	switch {
	case err != nil:
		m.log.Warn("cart append failed", zap.String("name", alt.Name), zap.Error(err))
		notice = NoticeCartUnavailable
	case added:
		notice = NoticeAdded
	}

	r := m.Last()
	r.Notice = notice
	r.CartSize = m.cartSize(ctx)
	return m.publish(r)
}

func (m *Machine) clearCart(ctx context.Context) Render {
	if m.cart == nil {
		return m.Last()
	}

	r := m.Last()
	if err := m.cart.Clear(ctx); err != nil {
		m.log.Warn("cart clear not persisted", zap.Error(err))
	}
	r.Notice = NoticeCleared
	r.CartSize = m.cartSize(ctx)
	return m.publish(r)
}

func (m *Machine) openLink() Render {
	r := m.Last()
	if !m.Phase().Browsing() {
		return r
	}

	m.mu.Lock()
	alt, _, ok := m.state.Current()
	m.mu.Unlock()
	if ok {
		r.OpenURL = alt.URL
	}
	return r
}

// ============================================================================
// Index Changes
// ============================================================================

// showCurrent displays the alternative under the cursor, judging it once if
// its score is not cached. A failed judge leaves the score unknown.
func (m *Machine) showCurrent(ctx context.Context) Render {
	m.mu.Lock()
	index := m.state.CurrentIndex
	alt, score, _ := m.state.Current()
	m.mu.Unlock()

	if !score.Known() {
		judged, err := m.scorer.Judge(ctx, alt.Identity())
		switch {
		case err != nil:
			m.log.Info("alternative judge failed", zap.String("name", alt.Name), zap.Error(err))
		case judged.Known():
			score = judged
			m.mu.Lock()
			m.state.SetScore(index, judged)
			m.mu.Unlock()
			m.persist(ctx)
		}
	}

	card := &Card{
		Name:      alt.Name,
		URL:       alt.URL,
		Price:     alt.Price,
		ScoreText: AlternativeLabel(score),
	}
	if p, ok := m.preview(ctx, index, alt); ok {
		card.Preview = &p
	}

	if m.isClosed() {
		return closedRender()
	}

	m.mu.Lock()
	count := len(m.state.Alternatives)
	phase := m.phase
	impact := m.impact
	m.mu.Unlock()

	return m.publish(Render{
		Phase:     phase,
		ScoreText: card.ScoreText,
		Impact:    impact,
		ShowSwipe: true,
		Card:      card,
		Index:     index,
		Count:     count,
		CartSize:  m.cartSize(ctx),
	})
}

func (m *Machine) preview(ctx context.Context, index int, alt types.Alternative) (scoring.Preview, bool) {
	if m.previewer == nil {
		return scoring.Preview{}, false
	}

	m.mu.Lock()
	p, ok := m.previews[index]
	m.mu.Unlock()
	if ok {
		return p, true
	}

	p = m.previewer.Preview(ctx, alt)
	m.mu.Lock()
	m.previews[index] = p
	m.mu.Unlock()
	return p, true
}

// ============================================================================
// Accessors
// ============================================================================

// State returns a copy of the session state
func (m *Machine) State() types.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return *types.NewSessionState(types.Product{})
	}
	return m.state.Clone()
}

// Phase returns the current phase
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Last returns the most recent render
func (m *Machine) Last() Render {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.last
	r.OpenURL = ""
	return r
}

// Key returns the normalized page URL of the session
func (m *Machine) Key() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key
}

// OnRender registers fn for every render, including interim ones
// (judging, loading). The returned func removes it; Close drops all.
func (m *Machine) OnRender(fn func(Render)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	m.nextID++
	lid := m.nextID
	m.listeners = append(m.listeners, listener{id: lid, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == lid {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns the number of registered render listeners
func (m *Machine) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// ============================================================================
// Helpers
// ============================================================================

func (m *Machine) checkSite(pageURL string) error {
	if m.site != nil {
		return m.site.Check(pageURL)
	}
	if strings.TrimSpace(pageURL) == "" {
		return site.ErrNoURL
	}
	return nil
}

func (m *Machine) needsAlternatives(ctx context.Context, status string) Render {
	m.mu.Lock()
	impact := m.impact
	m.mu.Unlock()

	return Render{
		Phase:      PhaseNeedsAlternatives,
		Status:     status,
		Error:      status != "",
		ScoreText:  PrimaryLabel(m.primaryScore()),
		Impact:     impact,
		ShowAction: true,
		CartSize:   m.cartSize(ctx),
	}
}

func (m *Machine) fail(err error) Render {
	m.enter(PhaseFailed)
	return m.publish(Render{
		Phase:  PhaseFailed,
		Status: StatusText(err),
		Error:  true,
	})
}

// persist writes the full state; it outlives the caller's context and
// failures degrade to an ephemeral session
func (m *Machine) persist(ctx context.Context) {
	if m.pages == nil {
		return
	}

	m.mu.Lock()
	key := m.key
	snapshot := m.state.Clone()
	m.mu.Unlock()

	if err := m.pages.SavePageState(context.WithoutCancel(ctx), key, snapshot); err != nil {
		m.log.Warn("session state not persisted", zap.String("url", key), zap.Error(err))
	}
}

func (m *Machine) newPrefetch(product types.Product) *prefetch {
	pf := newPrefetch(m.ctx, func(ctx context.Context) (*scoring.SearchResult, error) {
		return m.scorer.Search(ctx, product, m.limit)
	})

	m.mu.Lock()
	m.prefetch = pf
	m.mu.Unlock()
	return pf
}

func (m *Machine) setState(s *types.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Machine) enter(p Phase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.ObservePhase(string(p))
	}
}

// publish records r as the latest render and notifies listeners
func (m *Machine) publish(r Render) Render {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return closedRender()
	}
	m.last = r
	m.mu.Unlock()

	m.emit(r)
	return r
}

func (m *Machine) emit(r Render) {
	m.mu.Lock()
	listeners := append([]listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l.fn(r)
	}
}

func (m *Machine) primaryScore() types.Score {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.primary
}

func (m *Machine) cartSize(ctx context.Context) int {
	if m.cart == nil {
		return 0
	}
	return m.cart.Len(ctx)
}

func (m *Machine) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func closedRender() Render {
	return Render{Phase: PhaseClosed}
}

// productFor builds the product identity from the page title and URL
func productFor(page PageInfo) types.Product {
	name := strings.TrimSpace(page.Title)
	link := strings.TrimSpace(page.URL)
	if name == "" {
		name = types.NameFromURL(link)
	}
	return types.Product{Name: name, Link: link}
}
