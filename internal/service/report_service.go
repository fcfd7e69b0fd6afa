package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/dto"
	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
	"github.com/noah-isme/sma-exam-api/pkg/jobs"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
	ParseToken(token string, allowExpired bool) (string, string, time.Time, error)
	Open(relPath string) (*os.File, error)
	Cleanup(ttl time.Duration) ([]string, error)
}

// reportJobRegistry keeps export jobs in memory. Jobs are short-lived
// request artifacts; losing them on restart only means re-requesting the
// export.
type reportJobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*models.ReportJob
}

func newReportJobRegistry() *reportJobRegistry {
	return &reportJobRegistry{jobs: make(map[string]*models.ReportJob)}
}

func (r *reportJobRegistry) put(job *models.ReportJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

func (r *reportJobRegistry) get(id string) (*models.ReportJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

func (r *reportJobRegistry) update(id string, fn func(*models.ReportJob)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		fn(job)
	}
}

func (r *reportJobRegistry) list() []models.ReportJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ReportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *reportJobRegistry) evictExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, job := range r.jobs {
		if job.ExpiresAt != nil && job.ExpiresAt.Before(now) {
			delete(r.jobs, id)
			evicted++
		}
	}
	return evicted
}

// ReportServiceConfig governs result retention and cleanup cadence.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ReportService orchestrates asynchronous report exports: it accepts
// requests, tracks job state and hands rendering to the worker queue.
type ReportService struct {
	registry  *reportJobRegistry
	queue     jobDispatcher
	exporter  exportGenerator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(queue jobDispatcher, exporter exportGenerator, cfg ReportServiceConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &ReportService{
		registry:  newReportJobRegistry(),
		queue:     queue,
		exporter:  exporter,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob registers a job and enqueues it for rendering.
func (s *ReportService) CreateJob(ctx context.Context, req dto.CreateReportRequest, requestedBy string) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid report request")
	}
	switch req.Type {
	case models.ReportSeating:
		if req.PlanID == "" {
			return nil, appErrors.New("VALIDATION_ERROR", 400, "planId is required for seating reports")
		}
	default:
		if req.ExamID == "" {
			return nil, appErrors.New("VALIDATION_ERROR", 400, "examId is required for exam reports")
		}
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Format:      req.Format,
		ExamID:      req.ExamID,
		PlanID:      req.PlanID,
		Status:      models.ReportJobQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.registry.put(job)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.registry.update(job.ID, func(j *models.ReportJob) {
			j.Status = models.ReportJobFailed
			j.Error = "failed to enqueue job"
		})
		return nil, appErrors.Wrap(err, "QUEUE_ERROR", 500, "failed to enqueue report job")
	}

	snapshot, _ := s.registry.get(job.ID)
	return snapshot, nil
}

// GetJob returns the current state of a job.
func (s *ReportService) GetJob(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := s.registry.get(id)
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return job, nil
}

// ListJobs returns the tracked jobs, newest first.
func (s *ReportService) ListJobs(ctx context.Context) []models.ReportJob {
	return s.registry.list()
}

// Process is the queue handler: it renders the export and records the
// outcome on the job.
func (s *ReportService) Process(ctx context.Context, queued jobs.Job) error {
	job, ok := s.registry.get(queued.ID)
	if !ok {
		s.logger.Sugar().Warnw("report job vanished before processing", "job_id", queued.ID)
		return nil
	}

	now := time.Now().UTC()
	s.registry.update(job.ID, func(j *models.ReportJob) {
		j.Status = models.ReportJobRunning
		j.StartedAt = &now
	})

	result, err := s.exporter.Generate(ctx, job)
	finished := time.Now().UTC()
	if err != nil {
		s.registry.update(job.ID, func(j *models.ReportJob) {
			j.Status = models.ReportJobFailed
			j.Error = err.Error()
			j.FinishedAt = &finished
		})
		s.logger.Sugar().Errorw("report generation failed", "job_id", job.ID, "type", job.Type, "error", err)
		return err
	}

	s.registry.update(job.ID, func(j *models.ReportJob) {
		j.Status = models.ReportJobCompleted
		j.FilePath = result.RelativePath
		j.DownloadURL = result.URL
		j.FinishedAt = &finished
		j.ExpiresAt = &result.ExpiresAt
	})
	s.logger.Sugar().Infow("report generated", "job_id", job.ID, "type", job.Type, "path", result.RelativePath)
	return nil
}

// ResolveDownload validates a token and opens the underlying file.
func (s *ReportService) ResolveDownload(token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, "INVALID_TOKEN", 403, "download link is invalid or expired")
	}

	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}

	format := models.FormatCSV
	if job, ok := s.registry.get(jobID); ok {
		format = job.Format
	} else if filepath.Ext(relPath) == ".pdf" {
		format = models.FormatPDF
	}

	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    format,
		ExpiresAt: expiresAt,
	}, nil
}

// StartCleanup launches the retention loop removing expired jobs and files.
func (s *ReportService) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted := s.registry.evictExpired(time.Now().UTC())
				removed, err := s.exporter.Cleanup(s.cfg.ResultTTL)
				if err != nil {
					s.logger.Sugar().Warnw("report cleanup failed", "error", err)
					continue
				}
				if evicted > 0 || len(removed) > 0 {
					s.logger.Sugar().Infow("report cleanup", "jobs_evicted", evicted, "files_removed", len(removed))
				}
			}
		}
	}()
}
