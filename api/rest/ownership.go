package rest

import (
	"net/http"
	"strconv"

	"github.com/eorzealink/server/ownership"
	"github.com/gin-gonic/gin"
)

// OwnershipHandler answers point queries against the ownership chain.
type OwnershipHandler struct {
	agg *ownership.Aggregator
}

// NewOwnershipHandler creates a new OwnershipHandler.
func NewOwnershipHandler(agg *ownership.Aggregator) *OwnershipHandler {
	return &OwnershipHandler{agg: agg}
}

// Check handles GET /api/ownership/:item_id.
func (h *OwnershipHandler) Check(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("item_id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	verdict, source := h.agg.Check(c.Request.Context(), uint32(id))
	c.JSON(http.StatusOK, gin.H{
		"item_id": uint32(id),
		"verdict": verdict.String(),
		"source":  source,
	})
}
