package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/highlight-api/internal/models"
)

// Asker answers natural-language questions over the highlight store
type Asker interface {
	Ask(ctx context.Context, query string, topK int) (models.AskResponse, error)
}

// AskHandler serves the question endpoint
type AskHandler struct {
	engine Asker
}

// NewAskHandler creates a new ask handler
func NewAskHandler(engine Asker) *AskHandler {
	return &AskHandler{engine: engine}
}

// HandleAsk handles POST /api/v1/ask
func (h *AskHandler) HandleAsk(c *gin.Context) {
	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Message: "query is required and must be between 1 and 2000 characters",
		})
		return
	}

	resp, err := h.engine.Ask(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		log.Printf("[ERROR] Ask failed for query %q: %v", req.Query, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Message: "failed to search highlights",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
