package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
	"github.com/noah-isme/substitution-api/pkg/export"
	"github.com/noah-isme/substitution-api/pkg/jobs"
	"github.com/noah-isme/substitution-api/pkg/storage"
)

type assignmentProvider interface {
	AssignmentsForDate(ctx context.Context, date string) ([]models.SubstituteAssignment, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// exportJobStore tracks export jobs in memory. Jobs are short-lived and a
// restart simply forgets them, matching the single-device deployment.
type exportJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

func newExportJobStore() *exportJobStore {
	return &exportJobStore{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobStore) save(job *models.ExportJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *exportJobStore) get(id string) (models.ExportJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.ExportJob{}, false
	}
	return *job, true
}

func (s *exportJobStore) update(id string, apply func(*models.ExportJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	apply(job)
	return true
}

// ExportService renders the day's substitution sheet as CSV or PDF through
// an asynchronous job queue and serves the results via signed tokens.
type ExportService struct {
	assignments assignmentProvider
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	store       *exportJobStore
	queue       jobDispatcher
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService. The queue is attached
// separately because the queue's handler is this service.
func NewExportService(assignments assignmentProvider, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		assignments: assignments,
		storage:     files,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		store:       newExportJobStore(),
		logger:      logger,
		cfg:         cfg,
	}
}

// AttachQueue wires the dispatcher used for background processing.
func (s *ExportService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob validates the request, registers the job and queues it.
func (s *ExportService) CreateJob(ctx context.Context, date string, format models.ExportFormat) (*models.ExportJob, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(runDateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export queue not running")
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Date:      date,
		Format:    format,
		Status:    models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.store.save(job)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "substitution-sheet"}); err != nil {
		s.failJob(job.ID, "failed to enqueue export job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	snapshot, _ := s.store.get(job.ID)
	return &snapshot, nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(id string) (*models.ExportJob, error) {
	job, ok := s.store.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &job, nil
}

// Handle processes one queued export job. It is the queue's handler.
func (s *ExportService) Handle(ctx context.Context, job jobs.Job) error {
	if !s.store.update(job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusProcessing
	}) {
		return fmt.Errorf("export job %s unknown", job.ID)
	}

	if err := s.generate(ctx, job.ID); err != nil {
		s.failJob(job.ID, err.Error())
		return err
	}
	return nil
}

func (s *ExportService) generate(ctx context.Context, jobID string) error {
	job, ok := s.store.get(jobID)
	if !ok {
		return fmt.Errorf("export job %s unknown", jobID)
	}

	assignments, err := s.assignments.AssignmentsForDate(ctx, job.Date)
	if err != nil {
		return fmt.Errorf("load assignments for %s: %w", job.Date, err)
	}

	dataset := buildSheetDataset(assignments)
	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Substitution Sheet", job.Date)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("substitution_sheet_%s_%s.%s", job.Date, time.Now().UTC().Format("20060102_150405"), job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/export/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)

	now := time.Now().UTC()
	s.store.update(job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusFinished
		j.ResultURL = &url
		j.FinishedAt = &now
		j.ErrorMessage = nil
	})
	return nil
}

func (s *ExportService) failJob(id, msg string) {
	now := time.Now().UTC()
	s.store.update(id, func(j *models.ExportJob) {
		j.Status = models.ExportStatusFailed
		j.ErrorMessage = &msg
		j.FinishedAt = &now
	})
}

// ResolveDownload validates a download token and opens the stored file.
func (s *ExportService) ResolveDownload(token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, ok := s.store.get(jobID)
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.Status != models.ExportStatusFinished || job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, relPath, nil
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
				} else if len(deleted) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

func buildSheetDataset(assignments []models.SubstituteAssignment) export.Dataset {
	rows := make([]map[string]string, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, map[string]string{
			"Period":         fmt.Sprintf("%d", a.Period),
			"Class":          a.ClassName,
			"Absent Teacher": a.OriginalTeacher,
			"Substitute":     a.Substitute,
			"Phone":          a.SubstitutePhone,
		})
	}
	return export.Dataset{
		Headers: []string{"Period", "Class", "Absent Teacher", "Substitute", "Phone"},
		Rows:    rows,
	}
}
