package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/export"
	"github.com/unitrack/attendance-api/pkg/jobs"
	"github.com/unitrack/attendance-api/pkg/storage"
)

type exportReporter interface {
	CourseReportTotal(ctx context.Context, courseID, intake, section string) ([]models.CourseReportEntry, error)
}

type exportStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(maxAge time.Duration) (int, error)
}

// ExportOptions tunes the export pipeline.
type ExportOptions struct {
	APIPrefix string
	Workers   int
	LinkTTL   time.Duration
}

// ExportService renders course reports to files in the background. Each job
// runs through an in-process queue; the finished file is stored on disk and
// exposed through a signed, expiring download link so the file itself can be
// fetched without a JWT.
type ExportService struct {
	reports exportReporter
	store   exportStore
	signer  *storage.SignedURLSigner
	queue   *jobs.Queue
	logger  *zap.Logger

	apiPrefix string
	linkTTL   time.Duration

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

// NewExportService constructs ExportService.
func NewExportService(reports exportReporter, store exportStore, signer *storage.SignedURLSigner, logger *zap.Logger, opts ExportOptions) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = 24 * time.Hour
	}

	s := &ExportService{
		reports:   reports,
		store:     store,
		signer:    signer,
		logger:    logger,
		apiPrefix: opts.APIPrefix,
		linkTTL:   opts.LinkTTL,
		jobs:      make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("report-export", s.process, jobs.QueueConfig{
		Workers: opts.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers and the file janitor.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.janitor(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers an export job and hands it to the queue.
func (s *ExportService) Enqueue(ctx context.Context, courseID, intake, section, format, requestedBy string) (*models.ExportJob, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	if format == "" {
		format = "csv"
	}
	if !models.ExportFormats[format] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Intake:      intake,
		Section:     section,
		Format:      format,
		Status:      models.ExportStatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: "report_export", Payload: job.ID}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	s.logger.Sugar().Infow("export job queued", "job_id", job.ID, "course_id", courseID, "format", format)
	return s.snapshot(job.ID), nil
}

// Job returns the current state of an export job.
func (s *ExportService) Job(id string) (*models.ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// OpenDownload verifies a signed token and opens the exported file. The
// returned name is the suggested download filename.
func (s *ExportService) OpenDownload(token string) (*os.File, string, error) {
	parsed, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}

	f, err := s.store.Open(parsed.Path)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return f, path.Base(parsed.Path), nil
}

func (s *ExportService) process(ctx context.Context, j jobs.Job) error {
	job := s.snapshot(j.Payload)
	if job == nil {
		return fmt.Errorf("export job %s not tracked", j.Payload)
	}
	s.transition(job.ID, models.ExportStatusProcessing, "")

	entries, err := s.reports.CourseReportTotal(ctx, job.CourseID, job.Intake, job.Section)
	if err != nil {
		s.transition(job.ID, models.ExportStatusFailed, err.Error())
		return err
	}

	table := CourseReportTable(entries)
	var payload []byte
	switch job.Format {
	case "pdf":
		payload, err = export.PDF(table)
	default:
		payload, err = export.CSV(table)
	}
	if err != nil {
		s.transition(job.ID, models.ExportStatusFailed, err.Error())
		return err
	}

	name := fmt.Sprintf("reports/attendance-report-%s-%s.%s", job.CourseID, job.ID, job.Format)
	if _, err := s.store.Save(name, payload); err != nil {
		s.transition(job.ID, models.ExportStatusFailed, err.Error())
		return err
	}

	token, err := s.signer.Generate(job.ID, name)
	if err != nil {
		s.transition(job.ID, models.ExportStatusFailed, err.Error())
		return err
	}

	now := time.Now().UTC()
	expires := now.Add(s.linkTTL)
	s.mu.Lock()
	if tracked, ok := s.jobs[job.ID]; ok {
		tracked.Status = models.ExportStatusCompleted
		tracked.Error = ""
		tracked.FileName = path.Base(name)
		tracked.DownloadURL = fmt.Sprintf("%s/reports/export/%s", s.apiPrefix, token)
		tracked.ExpiresAt = &expires
		tracked.CompletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Sugar().Infow("export job completed", "job_id", job.ID, "file", path.Base(name))
	return nil
}

// janitor drops expired files and forgets finished jobs past the link TTL.
func (s *ExportService) janitor(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := s.store.CleanupOlderThan(s.linkTTL); err != nil {
				s.logger.Sugar().Warnw("export cleanup failed", "error", err)
			} else if removed > 0 {
				s.logger.Sugar().Infow("export files cleaned up", "removed", removed)
			}
			s.forgetExpired()
		}
	}
}

func (s *ExportService) forgetExpired() {
	now := time.Now()
	s.mu.Lock()
	for id, job := range s.jobs {
		if job.ExpiresAt != nil && now.After(*job.ExpiresAt) {
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()
}

func (s *ExportService) transition(id string, status models.ExportJobStatus, errMsg string) {
	s.mu.Lock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
		job.Error = errMsg
	}
	s.mu.Unlock()
}

func (s *ExportService) snapshot(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// CourseReportTable lays out per-student report entries for file export.
func CourseReportTable(entries []models.CourseReportEntry) export.Table {
	table := export.Table{
		Title:   "Attendance Report",
		Columns: []string{"Student ID", "Name", "Email", "Intake", "Section", "Total Days", "Present", "Absent", "Percentage", "Marks"},
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []string{
			e.StudentCustomID,
			e.StudentName,
			e.StudentEmail,
			e.Intake,
			e.Section,
			strconv.Itoa(e.TotalDays),
			strconv.Itoa(e.PresentDays),
			strconv.Itoa(e.AbsentDays),
			fmt.Sprintf("%d%%", e.AttendancePercentage),
			strconv.FormatFloat(e.AttendanceMarks, 'f', 2, 64),
		})
	}
	return table
}
