package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
	"github.com/noah-isme/substitution-api/pkg/jobs"
	"github.com/noah-isme/substitution-api/pkg/storage"
)

type stubAssignments struct {
	assignments []models.SubstituteAssignment
	err         error
}

func (s *stubAssignments) AssignmentsForDate(_ context.Context, _ string) ([]models.SubstituteAssignment, error) {
	return s.assignments, s.err
}

type captureQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newTestExportService(t *testing.T, provider assignmentProvider) (*ExportService, *captureQueue) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(provider, files, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)
	queue := &captureQueue{}
	svc.AttachQueue(queue)
	return svc, queue
}

func TestCreateJobValidation(t *testing.T) {
	svc, _ := newTestExportService(t, &stubAssignments{})

	_, err := svc.CreateJob(context.Background(), "03/10/2025", models.ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateJob(context.Background(), "2025-03-10", models.ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateJobQueuesWork(t *testing.T) {
	svc, queue := newTestExportService(t, &stubAssignments{})

	job, err := svc.CreateJob(context.Background(), "2025-03-10", models.ExportFormatCSV)
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, job.ID, queue.jobs[0].ID)
	assert.Equal(t, "substitution-sheet", queue.jobs[0].Type)
}

func TestHandleFinishesCSVExportAndServesDownload(t *testing.T) {
	provider := &stubAssignments{assignments: []models.SubstituteAssignment{
		{OriginalTeacher: "Smith", Period: 1, ClassName: "10A", Substitute: "Doe", SubstitutePhone: "555-1111"},
	}}
	svc, queue := newTestExportService(t, provider)

	job, err := svc.CreateJob(context.Background(), "2025-03-10", models.ExportFormatCSV)
	require.NoError(t, err)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))

	finished, err := svc.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, finished.Status)
	require.NotNil(t, finished.ResultURL)
	assert.Contains(t, *finished.ResultURL, "/api/v1/export/")
	require.NotNil(t, finished.FinishedAt)

	token := (*finished.ResultURL)[len("/api/v1/export/"):]
	file, name, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Contains(t, name, ".csv")
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Period,Class,Absent Teacher,Substitute,Phone")
	assert.Contains(t, string(content), "Doe")
}

func TestHandleMarksJobFailedOnProviderError(t *testing.T) {
	provider := &stubAssignments{err: appErrors.Clone(appErrors.ErrNotFound, "no persisted assignments")}
	svc, queue := newTestExportService(t, provider)

	job, err := svc.CreateJob(context.Background(), "2025-03-10", models.ExportFormatPDF)
	require.NoError(t, err)

	require.Error(t, svc.Handle(context.Background(), queue.jobs[0]))

	failed, err := svc.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
}

func TestStatusUnknownJob(t *testing.T) {
	svc, _ := newTestExportService(t, &stubAssignments{})

	_, err := svc.Status("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveDownloadRejectsBadToken(t *testing.T) {
	svc, _ := newTestExportService(t, &stubAssignments{})

	_, _, err := svc.ResolveDownload("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestResolveDownloadRejectsUnfinishedJob(t *testing.T) {
	svc, queue := newTestExportService(t, &stubAssignments{})

	job, err := svc.CreateJob(context.Background(), "2025-03-10", models.ExportFormatCSV)
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)

	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	token, _, err := signer.Generate(job.ID, "somefile.csv")
	require.NoError(t, err)

	_, _, err = svc.ResolveDownload(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
