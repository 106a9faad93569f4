package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/cart"
	"github.com/GriffinCanCode/ecoswipe/internal/domain/session"
	"github.com/GriffinCanCode/ecoswipe/internal/domain/site"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scraper"
	"github.com/GriffinCanCode/ecoswipe/internal/shared/id"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by Root
const Version = "1.0.0"

// Popups is the popup registry the handlers drive
type Popups interface {
	Open(ctx context.Context, page session.PageInfo) (id.PopupID, *session.Machine, session.Render)
	Get(popupID id.PopupID) (*session.Machine, bool)
	Dispatch(ctx context.Context, popupID id.PopupID, ev session.Event) (session.Render, error)
	Close(popupID id.PopupID) bool
	Stats() session.Stats
}

// Cart is the read and clear side of the cart
type Cart interface {
	Load(ctx context.Context) []types.CartItem
	Clear(ctx context.Context) error
	Summary(ctx context.Context) cart.Summary
}

// Fetcher downloads and scrapes a product page
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*scraper.ProductPage, error)
}

// Handlers contains all bridge HTTP handlers
type Handlers struct {
	popups  Popups
	cart    Cart
	site    *site.Matcher
	fetcher Fetcher
	metrics *HandlerMetrics
	log     *zap.Logger
	started time.Time
}

// NewHandlers creates a new handler set. fetcher and metrics may be nil.
func NewHandlers(popups Popups, cart Cart, matcher *site.Matcher, fetcher Fetcher, metrics *HandlerMetrics, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	if matcher == nil {
		matcher = site.Default()
	}
	return &Handlers{
		popups:  popups,
		cart:    cart,
		site:    matcher,
		fetcher: fetcher,
		metrics: metrics,
		log:     log,
		started: time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/popup", h.OpenPopup)
	r.POST("/popup/:id/events", h.DispatchEvent)
	r.GET("/popup/:id/state", h.PopupState)
	r.DELETE("/popup/:id", h.ClosePopup)

	r.GET("/cart", h.GetCart)
	r.DELETE("/cart", h.ClearCart)

	r.POST("/scrape", h.Scrape)
	r.POST("/logs", h.StreamLogs)
	r.GET("/metrics/json", h.MetricsJSON)
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "EcoSwipe popup bridge",
		"version": Version,
	})
}

// Health reports liveness and popup counts
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"popups":         h.popups.Stats(),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// OpenPopupRequest is the active tab reported by the extension
type OpenPopupRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// OpenPopup starts a session and returns its first render
func (h *Handlers) OpenPopup(c *gin.Context) {
	var req OpenPopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	done := h.metrics.Track()
	popupID, _, render := h.popups.Open(c.Request.Context(), session.PageInfo{URL: req.URL, Title: req.Title})
	done(h.popups.Stats().Active)

	c.JSON(http.StatusCreated, gin.H{
		"id":     popupID,
		"render": render,
	})
}

// EventRequest carries one user event
type EventRequest struct {
	Type string `json:"type" binding:"required"`
}

// DispatchEvent forwards an event to the popup
func (h *Handlers) DispatchEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ev := session.Event{Type: session.EventType(req.Type)}
	if t, err := session.ParseEventType(req.Type); err == nil {
		ev.Type = t
	}

	render, err := h.popups.Dispatch(c.Request.Context(), id.PopupID(c.Param("id")), ev)
	if err != nil {
		h.notFound(c, err)
		return
	}
	c.JSON(http.StatusOK, render)
}

// PopupState returns the popup's phase, persisted state and last render
func (h *Handlers) PopupState(c *gin.Context) {
	m, ok := h.popups.Get(id.PopupID(c.Param("id")))
	if !ok {
		h.notFound(c, session.ErrPopupNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     c.Param("id"),
		"key":    m.Key(),
		"phase":  m.Phase(),
		"state":  m.State(),
		"render": m.Last(),
	})
}

// ClosePopup closes the popup; in-flight work still persists
func (h *Handlers) ClosePopup(c *gin.Context) {
	if !h.popups.Close(id.PopupID(c.Param("id"))) {
		h.notFound(c, session.ErrPopupNotFound)
		return
	}
	h.metrics.SetActive(h.popups.Stats().Active)
	c.Status(http.StatusNoContent)
}

// GetCart lists the cart with a summary
func (h *Handlers) GetCart(c *gin.Context) {
	ctx := c.Request.Context()
	items := h.cart.Load(ctx)
	summary := h.cart.Summary(ctx)
	h.metrics.SetCart(summary.Count)

	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"summary": summary,
	})
}

// ClearCart empties the cart
func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context()); err != nil {
		h.log.Warn("cart clear not persisted", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	h.metrics.SetCart(0)
	c.Status(http.StatusNoContent)
}

// ScrapeRequest carries page HTML, or only a URL to fetch
type ScrapeRequest struct {
	HTML string `json:"html"`
	URL  string `json:"url"`
}

// Scrape reads a product identity from page HTML
func (h *Handlers) Scrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var (
		page *scraper.ProductPage
		err  error
	)
	switch {
	case req.HTML != "":
		page, err = scraper.Scrape([]byte(req.HTML), req.URL)
	case req.URL != "" && h.fetcher != nil:
		page, err = h.fetcher.Fetch(c.Request.Context(), req.URL)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "html or url required"})
		return
	}
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, scraper.ErrNoProduct) || req.HTML != "" {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"product":    page,
		"identity":   page.Identity(),
		"is_product": scraper.IsProductURL(page.URL) || (req.HTML != "" && scraper.IsProductPage([]byte(req.HTML), page.URL)),
		"supported":  h.site.Check(page.URL) == nil,
		"normalized": site.Normalize(page.URL),
	}
	if domain, err := site.RegistrableDomain(page.URL); err == nil {
		resp["domain"] = domain
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) notFound(c *gin.Context, err error) {
	c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
}
