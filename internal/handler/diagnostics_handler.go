package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
	"github.com/noah-isme/substitution-api/pkg/response"
)

type runStateReader interface {
	GetLogs(ctx context.Context, date string) ([]models.ProcessLog, error)
	GetWarnings(ctx context.Context, date string) ([]string, error)
}

// DiagnosticsHandler serves the persisted run trails and warnings.
type DiagnosticsHandler struct {
	state runStateReader
}

// NewDiagnosticsHandler builds a new handler.
func NewDiagnosticsHandler(state runStateReader) *DiagnosticsHandler {
	return &DiagnosticsHandler{state: state}
}

// Logs godoc
// @Summary Get the diagnostic trail for one date
// @Tags Diagnostics
// @Produce json
// @Param date path string true "Run date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /logs/{date} [get]
func (h *DiagnosticsHandler) Logs(c *gin.Context) {
	date := c.Param("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	entries, err := h.state.GetLogs(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Warnings godoc
// @Summary Get the warnings recorded for one date
// @Tags Diagnostics
// @Produce json
// @Param date path string true "Run date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /warnings/{date} [get]
func (h *DiagnosticsHandler) Warnings(c *gin.Context) {
	date := c.Param("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	warnings, err := h.state.GetWarnings(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, warnings, nil)
}
