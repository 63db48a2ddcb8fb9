package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/pkg/response"
)

type historyLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// HistoryHandler serves the on-device run history.
type HistoryHandler struct {
	history historyLister
}

// NewHistoryHandler builds a new handler.
func NewHistoryHandler(history historyLister) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List godoc
// @Summary List recent allocation runs
// @Tags History
// @Produce json
// @Param limit query int false "Maximum rows (default 20)"
// @Success 200 {object} response.Envelope
// @Router /runs [get]
func (h *HistoryHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
