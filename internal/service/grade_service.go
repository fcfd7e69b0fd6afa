package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/dto"
	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

type gradeExamRepository interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	UpsertGrade(ctx context.Context, grade *models.Grade) error
	GradesForExam(ctx context.Context, examID string) (models.GradeMap, error)
}

// GradeService handles score entry. Per-outcome writes clamp out-of-range
// values and report the correction back; total writes are distributed
// across outcomes and rejected outright when they exceed the exam maximum.
type GradeService struct {
	exams     gradeExamRepository
	scoring   *ScoringService
	analysis  *AnalysisService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(exams gradeExamRepository, scoring *ScoringService, analysis *AnalysisService, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		exams:     exams,
		scoring:   scoring,
		analysis:  analysis,
		validator: validator.New(),
		logger:    logger,
	}
}

func (s *GradeService) loadExam(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load exam")
	}
	return exam, nil
}

// Grades returns the exam definition together with its grade matrix.
func (s *GradeService) Grades(ctx context.Context, examID string) (*dto.ExamGradesResponse, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	grades, err := s.exams.GradesForExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load grades")
	}
	return &dto.ExamGradesResponse{Exam: *exam, Grades: grades}, nil
}

// Upsert records one outcome score. Values outside [0, maxScore] are
// clamped, logged and flagged in the result rather than rejected.
func (s *GradeService) Upsert(ctx context.Context, examID string, req dto.UpsertGradeRequest) (*dto.GradeWriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid grade request")
	}
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	var outcome *models.OutcomeDefinition
	for i := range exam.Outcomes {
		if exam.Outcomes[i].Index == req.OutcomeIndex {
			outcome = &exam.Outcomes[i]
			break
		}
	}
	if outcome == nil {
		return nil, appErrors.New("OUTCOME_UNKNOWN", 400, "outcome index not defined for exam")
	}

	stored, clamped := s.scoring.Normalize(float64(req.Score), outcome.MaxScore)
	if clamped {
		s.logger.Sugar().Warnw("score clamped into outcome range",
			"exam_id", examID, "student_id", req.StudentID,
			"outcome_index", req.OutcomeIndex, "requested", req.Score, "stored", stored)
	}

	grade := &models.Grade{
		ExamID:       examID,
		StudentID:    req.StudentID,
		OutcomeIndex: req.OutcomeIndex,
		Score:        stored,
	}
	if err := s.exams.UpsertGrade(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to store grade")
	}
	if s.analysis != nil {
		s.analysis.InvalidateExam(ctx, examID)
	}

	return &dto.GradeWriteResult{
		StudentID:    req.StudentID,
		OutcomeIndex: req.OutcomeIndex,
		Requested:    req.Score,
		Stored:       stored,
		Clamped:      clamped,
	}, nil
}

// SetTotal distributes a total score across all outcomes of the exam and
// stores the per-outcome shares.
func (s *GradeService) SetTotal(ctx context.Context, examID string, req dto.SetTotalRequest) (*dto.SetTotalResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid total request")
	}
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	scores, err := s.scoring.DistributeTotal(req.Total, exam.Outcomes)
	if err != nil {
		return nil, err
	}

	for _, o := range exam.Outcomes {
		grade := &models.Grade{
			ExamID:       examID,
			StudentID:    req.StudentID,
			OutcomeIndex: o.Index,
			Score:        scores[o.Index],
		}
		if err := s.exams.UpsertGrade(ctx, grade); err != nil {
			return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to store grade")
		}
	}
	if s.analysis != nil {
		s.analysis.InvalidateExam(ctx, examID)
	}

	return &dto.SetTotalResult{
		StudentID: req.StudentID,
		Total:     req.Total,
		Scores:    scores,
	}, nil
}
