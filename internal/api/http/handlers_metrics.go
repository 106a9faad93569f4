package http

import (
	"net/http"

	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
)

// HandlerMetrics feeds popup and cart gauges from the handlers.
// A nil *HandlerMetrics is a no-op.
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// Track counts a popup open; the returned func records the new active count
func (hm *HandlerMetrics) Track() func(active int64) {
	if hm == nil {
		return func(int64) {}
	}
	hm.metrics.IncPopupsOpened()
	return hm.SetActive
}

// SetActive records the number of open popups
func (hm *HandlerMetrics) SetActive(active int64) {
	if hm == nil {
		return
	}
	hm.metrics.SetPopupsActive(int(active))
}

// SetCart records the cart size
func (hm *HandlerMetrics) SetCart(count int) {
	if hm == nil {
		return
	}
	hm.metrics.SetCartItems(count)
}

// MetricsJSON returns a JSON snapshot of the bridge counters
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bridge": h.metrics.metrics.Snapshot(),
		"popups": h.popups.Stats(),
		"cart":   h.cart.Summary(c.Request.Context()),
	})
}
