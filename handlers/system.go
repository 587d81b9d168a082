package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snapbin/snapbin/storage"
)

// SystemHandler handles system endpoints
type SystemHandler struct {
	store storage.PasteStore
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(store storage.PasteStore) *SystemHandler {
	return &SystemHandler{store: store}
}

// Health handles GET /healthz. Always 200: the body says whether the backing
// store answered the liveness probe, so load balancers keep routing while
// monitors still see the degradation.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "store connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
