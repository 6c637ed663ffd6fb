package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eorzealink/server/glamour"
	"github.com/eorzealink/server/loadout"
	mw "github.com/eorzealink/server/middleware"
	"github.com/gin-gonic/gin"
)

// LoadoutHandler exposes the preview/apply pipeline over REST.
type LoadoutHandler struct {
	svc *loadout.Service
}

// NewLoadoutHandler creates a new LoadoutHandler.
func NewLoadoutHandler(svc *loadout.Service) *LoadoutHandler {
	return &LoadoutHandler{svc: svc}
}

type previewRequest struct {
	URL string `json:"url" binding:"required,url"`
	// Wait makes the request block until the preview resolves.
	Wait bool `json:"wait"`
}

// Preview handles POST /api/loadout/preview.
func (h *LoadoutHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	traceID := mw.GetTraceID(c)
	if req.Wait {
		snap, err := h.svc.Preview(c.Request.Context(), req.URL, traceID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "snapshot": snap})
			return
		}
		c.JSON(http.StatusOK, snap)
		return
	}

	h.svc.BeginPreview(req.URL, traceID)
	c.JSON(http.StatusAccepted, h.svc.Snapshot())
}

// Get handles GET /api/loadout. It returns the current snapshot.
func (h *LoadoutHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Snapshot())
}

// Apply handles POST /api/loadout/apply.
func (h *LoadoutHandler) Apply(c *gin.Context) {
	outcome, err := h.svc.Apply(c.Request.Context(), mw.GetTraceID(c))
	switch {
	case errors.Is(err, loadout.ErrNoPreview):
		c.JSON(http.StatusConflict, gin.H{"error": "nothing previewed yet"})
		return
	case errors.Is(err, glamour.ErrNoLocalPlayer):
		c.JSON(http.StatusConflict, gin.H{"error": "no local player present"})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !outcome.Applied {
		c.JSON(http.StatusBadGateway, gin.H{"error": outcome.Message, "outcome": outcome})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// History handles GET /api/loadout/history?limit=N.
func (h *LoadoutHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	previews, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"previews": previews})
}
