package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
)

type fakeDirectory struct {
	teachers   []models.Teacher
	total      int
	listErr    error
	pool       []models.Teacher
	poolErr    error
	lastFilter models.TeacherFilter
}

func (f *fakeDirectory) Teachers(_ context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	f.lastFilter = filter
	return f.teachers, f.total, f.listErr
}

func (f *fakeDirectory) Substitutes(context.Context) ([]models.Teacher, error) {
	return f.pool, f.poolErr
}

func TestTeacherListPassesFilterAndPaginates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	directory := &fakeDirectory{
		teachers: []models.Teacher{{Name: "Sari Dewi", GradeLevel: 9}},
		total:    5,
	}
	handler := NewTeacherHandler(directory)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers?search=sari&page=2&limit=1", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sari", directory.lastFilter.Search)
	assert.Equal(t, 2, directory.lastFilter.Page)
	assert.Equal(t, 1, directory.lastFilter.PageSize)

	envelope := decodeEnvelope(t, rec.Body.Bytes())
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Page)
	assert.Equal(t, 1, envelope.Pagination.PageSize)
	assert.Equal(t, 5, envelope.Pagination.TotalCount)
}

func TestTeacherListDefaultsPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	directory := &fakeDirectory{teachers: []models.Teacher{}, total: 0}
	handler := NewTeacherHandler(directory)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.Bytes())
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.Page)
	assert.Equal(t, 20, envelope.Pagination.PageSize)
}

func TestTeacherListSourceFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	directory := &fakeDirectory{listErr: appErrors.Clone(appErrors.ErrSourceUnreadable, "source file missing: substitutes.csv")}
	handler := NewTeacherHandler(directory)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers", nil)

	handler.List(c)

	assert.Equal(t, http.StatusFailedDependency, rec.Code)
}

func TestSubstitutesReturnsPool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	directory := &fakeDirectory{pool: []models.Teacher{
		{Name: "Doe", Phone: "555-1111", GradeLevel: 10},
	}}
	handler := NewTeacherHandler(directory)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/substitutes", nil)

	handler.Substitutes(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec.Body.Bytes())
	var pool []models.Teacher
	require.NoError(t, json.Unmarshal(envelope.Data, &pool))
	require.Len(t, pool, 1)
	assert.Equal(t, "Doe", pool[0].Name)
}
