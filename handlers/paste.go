package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snapbin/snapbin/config"
	"github.com/snapbin/snapbin/internal/services"
	"github.com/snapbin/snapbin/metrics"
	"github.com/snapbin/snapbin/utils"
)

// testNowHeader carries an injected clock value (epoch ms) for deterministic
// expiry tests. Only honored when the test-mode switch is on.
const testNowHeader = "X-Test-Now-Ms"

// PasteHandler handles paste creation and viewing.
type PasteHandler struct {
	service *services.PasteService
	config  *config.Config
}

// NewPasteHandler creates a new paste handler.
func NewPasteHandler(service *services.PasteService, cfg *config.Config) *PasteHandler {
	return &PasteHandler{
		service: service,
		config:  cfg,
	}
}

// CreateRequest is the JSON body of POST /pastes.
type CreateRequest struct {
	Content    string `json:"content"`
	TTLSeconds *int64 `json:"ttl_seconds"`
	MaxViews   *int64 `json:"max_views"`
}

// ViewResponse is the JSON body of a successful view. Timestamps are
// RFC 3339 UTC or null; remaining_views is null for unlimited pastes.
type ViewResponse struct {
	Content        string  `json:"content"`
	CreatedAt      *string `json:"created_at"`
	ExpiresAt      *string `json:"expires_at"`
	RemainingViews *int64  `json:"remaining_views"`
}

// Create handles POST /pastes.
func (h *PasteHandler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.service.Create(c.Request.Context(), req.Content, req.TTLSeconds, req.MaxViews, h.requestNow(c))
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		log.Printf("[ERROR] Create: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create paste"})
		return
	}

	metrics.PastesCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// View handles GET /pastes/:id and POST /pastes/:id/view. Both perform
// exactly one consume: a GET spends a unit of the view budget like any other
// read.
func (h *PasteHandler) View(c *gin.Context) {
	id := c.Param("id")

	// Junk ids can't exist; answer like any other miss without a store trip.
	if !utils.IsValidID(id) {
		metrics.PasteViews.WithLabelValues(metrics.OutcomeNotFound).Inc()
		h.renderUnavailable(c)
		return
	}

	view, err := h.service.ConsumeView(c.Request.Context(), id, h.requestNow(c))
	if err != nil {
		// All terminal conditions render identically; which one applied is
		// for the logs and metrics only.
		switch {
		case errors.Is(err, services.ErrNotFound):
			metrics.PasteViews.WithLabelValues(metrics.OutcomeNotFound).Inc()
		case errors.Is(err, services.ErrExpired):
			metrics.PasteViews.WithLabelValues(metrics.OutcomeExpired).Inc()
		case errors.Is(err, services.ErrViewLimitExceeded):
			metrics.PasteViews.WithLabelValues(metrics.OutcomeExhausted).Inc()
		default:
			metrics.PasteViews.WithLabelValues(metrics.OutcomeError).Inc()
			log.Printf("[ERROR] View %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve paste"})
			return
		}
		if utils.IsDebugEnabled() {
			log.Printf("[DEBUG] View %s unavailable: %v", id, err)
		}
		h.renderUnavailable(c)
		return
	}

	metrics.PasteViews.WithLabelValues(metrics.OutcomeHit).Inc()
	c.JSON(http.StatusOK, ViewResponse{
		Content:        view.Content,
		CreatedAt:      isoMillis(view.CreatedAt),
		ExpiresAt:      isoMillisPtr(view.ExpiresAt),
		RemainingViews: view.RemainingViews,
	})
}

// renderUnavailable is the uniform 404 for every terminal condition.
func (h *PasteHandler) renderUnavailable(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Paste not found"})
}

// requestNow resolves the instant this request is judged against: the real
// clock, unless test mode is on and the client injected one.
func (h *PasteHandler) requestNow(c *gin.Context) int64 {
	if h.config.TestMode {
		if v := c.GetHeader(testNowHeader); v != "" {
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
				return ms
			}
		}
	}
	return utils.NowMillis()
}

func isoMillis(ms int64) *string {
	if ms == 0 {
		return nil
	}
	s := time.UnixMilli(ms).UTC().Format(time.RFC3339)
	return &s
}

func isoMillisPtr(ms *int64) *string {
	if ms == nil {
		return nil
	}
	return isoMillis(*ms)
}
