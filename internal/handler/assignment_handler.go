package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/substitution-api/internal/dto"
	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/internal/service"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
	"github.com/noah-isme/substitution-api/pkg/response"
)

type assignmentEngine interface {
	AutoAssignSubstitutes(ctx context.Context, date string, absent []string) (*models.RunResult, error)
	AssignmentsForDate(ctx context.Context, date string) ([]models.SubstituteAssignment, error)
	VerifyLastRun() ([]models.VerificationReport, error)
}

// AssignmentHandler exposes the allocation engine over HTTP.
type AssignmentHandler struct {
	engine assignmentEngine
	cache  *service.CacheService
}

// NewAssignmentHandler builds a new handler. The cache may be nil.
func NewAssignmentHandler(engine assignmentEngine, cache *service.CacheService) *AssignmentHandler {
	return &AssignmentHandler{engine: engine, cache: cache}
}

// AutoAssign godoc
// @Summary Run substitute allocation for one date
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AutoAssignRequest true "Run parameters"
// @Success 200 {object} response.Envelope
// @Router /assignments/auto [post]
func (h *AssignmentHandler) AutoAssign(c *gin.Context) {
	var req dto.AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}
	if req.Date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	if len(req.AbsentTeachers) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "absentTeachers must name at least one teacher"))
		return
	}

	result, err := h.engine.AutoAssignSubstitutes(c.Request.Context(), req.Date, req.AbsentTeachers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List recorded assignments
// @Tags Assignments
// @Produce json
// @Param date query string false "Run date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	date := c.Query("date")
	key := service.AssignmentCacheKey(date)

	var cached []models.SubstituteAssignment
	if h.cache.Enabled() {
		if hit, _ := h.cache.Get(c.Request.Context(), key, &cached); hit {
			response.JSON(c, http.StatusOK, cached, nil, map[string]interface{}{"cache": "hit"})
			return
		}
	}

	assignments, err := h.engine.AssignmentsForDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.cache.Enabled() {
		_ = h.cache.Set(c.Request.Context(), key, assignments, 0)
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Verify godoc
// @Summary Verify the last allocation run
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /assignments/verify [post]
func (h *AssignmentHandler) Verify(c *gin.Context) {
	reports, err := h.engine.VerifyLastRun()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}
