package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
)

type fakeExports struct {
	job        *models.ExportJob
	createErr  error
	statusErr  error
	file       *os.File
	relPath    string
	resolveErr error

	lastDate   string
	lastFormat models.ExportFormat
}

func (f *fakeExports) CreateJob(_ context.Context, date string, format models.ExportFormat) (*models.ExportJob, error) {
	f.lastDate = date
	f.lastFormat = format
	return f.job, f.createErr
}

func (f *fakeExports) Status(string) (*models.ExportJob, error) {
	return f.job, f.statusErr
}

func (f *fakeExports) ResolveDownload(string) (*os.File, string, error) {
	return f.file, f.relPath, f.resolveErr
}

func TestExportCreateAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &fakeExports{job: &models.ExportJob{
		ID:     "job-1",
		Date:   "2025-03-10",
		Format: models.ExportFormatPDF,
		Status: models.ExportStatusQueued,
	}}
	handler := NewExportHandler(exports)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader(`{"date":"2025-03-10","format":"PDF"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2025-03-10", exports.lastDate)
	assert.Equal(t, models.ExportFormatPDF, exports.lastFormat)
}

func TestExportCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExports{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader(`{"format":`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExports{statusErr: appErrors.Clone(appErrors.ErrNotFound, "export job not found")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/missing/status", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Status(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportDownloadServesFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	path := filepath.Join(dir, "substitution_sheet_2025-03-10.csv")
	require.NoError(t, os.WriteFile(path, []byte("Period,Class\n1,10A\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	handler := NewExportHandler(&fakeExports{file: file, relPath: filepath.Base(path)})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "substitution_sheet_2025-03-10.csv")
	assert.Contains(t, rec.Body.String(), "1,10A")
}

func TestExportDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExports{resolveErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHistoryListReturnsRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := &fakeHistory{records: []models.RunRecord{
		{ID: 1, RunDate: "2025-03-10", Day: "monday", AssignmentCount: 2, WarningCount: 0, CreatedAt: time.Now().UTC()},
	}}
	handler := NewHistoryHandler(history)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/runs?limit=5", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, history.lastLimit)
}

type fakeHistory struct {
	records   []models.RunRecord
	err       error
	lastLimit int
}

func (f *fakeHistory) ListRecent(_ context.Context, limit int) ([]models.RunRecord, error) {
	f.lastLimit = limit
	return f.records, f.err
}
