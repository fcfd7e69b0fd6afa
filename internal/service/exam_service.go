package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/pkg/config"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context) ([]models.Exam, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
}

// CreateExamRequest defines a new exam with its outcome columns.
type CreateExamRequest struct {
	Name                string                     `json:"name" validate:"required"`
	Subject             string                     `json:"subject"`
	GeneralPassingScore int                        `json:"generalPassingScore" validate:"min=0,max=100"`
	MasteryThreshold    int                        `json:"masteryThreshold" validate:"min=0,max=100"`
	Outcomes            []models.OutcomeDefinition `json:"outcomes" validate:"required,min=1,dive"`
}

// ExamService manages exam configuration.
type ExamService struct {
	exams     examRepository
	analysis  *AnalysisService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.GradingConfig
}

// NewExamService constructs an ExamService.
func NewExamService(exams examRepository, analysis *AnalysisService, cfg config.GradingConfig, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		exams:     exams,
		analysis:  analysis,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
	}
}

// normalizeOutcomes reindexes outcomes sequentially and rejects
// non-positive maximums.
func normalizeOutcomes(outcomes []models.OutcomeDefinition) ([]models.OutcomeDefinition, error) {
	out := make([]models.OutcomeDefinition, len(outcomes))
	for i, o := range outcomes {
		if o.MaxScore <= 0 {
			return nil, appErrors.New("INVALID_OUTCOME", 400, "outcome max score must be positive")
		}
		o.Index = i
		out[i] = o
	}
	return out, nil
}

// List returns all exams.
func (s *ExamService) List(ctx context.Context) ([]models.Exam, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list exams")
	}
	return exams, nil
}

// Get fetches one exam.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load exam")
	}
	return exam, nil
}

// Create validates and stores a new exam.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid exam request")
	}
	outcomes, err := normalizeOutcomes(req.Outcomes)
	if err != nil {
		return nil, err
	}

	exam := &models.Exam{
		Name:                req.Name,
		Subject:             req.Subject,
		GeneralPassingScore: req.GeneralPassingScore,
		MasteryThreshold:    req.MasteryThreshold,
		Outcomes:            outcomes,
	}
	if exam.GeneralPassingScore <= 0 {
		exam.GeneralPassingScore = s.cfg.DefaultPassingScore
	}
	if exam.MasteryThreshold <= 0 {
		exam.MasteryThreshold = s.cfg.DefaultMasteryThreshold
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to create exam")
	}
	s.logger.Sugar().Infow("exam created", "exam_id", exam.ID, "outcomes", len(exam.Outcomes))
	return exam, nil
}

// Update rewrites an exam's configuration. Existing grades are kept;
// cached analytics for the exam are invalidated.
func (s *ExamService) Update(ctx context.Context, id string, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid exam request")
	}
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := normalizeOutcomes(req.Outcomes)
	if err != nil {
		return nil, err
	}

	exam.Name = req.Name
	exam.Subject = req.Subject
	exam.GeneralPassingScore = req.GeneralPassingScore
	exam.MasteryThreshold = req.MasteryThreshold
	exam.Outcomes = outcomes

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to update exam")
	}
	if s.analysis != nil {
		s.analysis.InvalidateExam(ctx, id)
	}
	return exam, nil
}

// Delete removes an exam and its grades.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if err := s.exams.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to delete exam")
	}
	if s.analysis != nil {
		s.analysis.InvalidateExam(ctx, id)
	}
	return nil
}
