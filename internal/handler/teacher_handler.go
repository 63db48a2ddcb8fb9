package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/substitution-api/internal/dto"
	"github.com/noah-isme/substitution-api/internal/models"
	"github.com/noah-isme/substitution-api/pkg/response"
)

type teacherDirectory interface {
	Teachers(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	Substitutes(ctx context.Context) ([]models.Teacher, error)
}

// TeacherHandler exposes the loaded teacher directory.
type TeacherHandler struct {
	directory teacherDirectory
}

// NewTeacherHandler builds a new handler.
func NewTeacherHandler(directory teacherDirectory) *TeacherHandler {
	return &TeacherHandler{directory: directory}
}

// List godoc
// @Summary List directory teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Name or variation substring"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	var query dto.TeacherListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}

	filter := models.TeacherFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.Limit,
	}
	teachers, total, err := h.directory.Teachers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	response.JSON(c, http.StatusOK, teachers, &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
	})
}

// Substitutes godoc
// @Summary List the substitute pool
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /substitutes [get]
func (h *TeacherHandler) Substitutes(c *gin.Context) {
	pool, err := h.directory.Substitutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pool, nil)
}
