package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

type conflictRepository interface {
	List(ctx context.Context) ([]models.ConflictPair, error)
	Create(ctx context.Context, pair *models.ConflictPair) error
	Exists(ctx context.Context, studentA, studentB string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type conflictStudentChecker interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CreateConflictRequest registers two students who must not share a desk.
type CreateConflictRequest struct {
	StudentA string `json:"studentA" validate:"required"`
	StudentB string `json:"studentB" validate:"required,nefield=StudentA"`
	Note     string `json:"note"`
}

// ConflictService manages the do-not-pair list.
type ConflictService struct {
	conflicts conflictRepository
	students  conflictStudentChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService constructs a ConflictService.
func NewConflictService(conflicts conflictRepository, students conflictStudentChecker, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		conflicts: conflicts,
		students:  students,
		validator: validator.New(),
		logger:    logger,
	}
}

// List returns every registered pair.
func (s *ConflictService) List(ctx context.Context) ([]models.ConflictPair, error) {
	pairs, err := s.conflicts.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list conflict pairs")
	}
	return pairs, nil
}

// Create registers a new pair. Both students must exist and the pair must
// not already be recorded in either order.
func (s *ConflictService) Create(ctx context.Context, req CreateConflictRequest) (*models.ConflictPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid conflict request")
	}
	for _, id := range []string{req.StudentA, req.StudentB} {
		if _, err := s.students.FindByID(ctx, id); err != nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+id)
		}
	}

	exists, err := s.conflicts.Exists(ctx, req.StudentA, req.StudentB)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to check conflict pair")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "conflict pair already registered")
	}

	pair := &models.ConflictPair{
		StudentA: req.StudentA,
		StudentB: req.StudentB,
		Note:     req.Note,
	}
	if err := s.conflicts.Create(ctx, pair); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to create conflict pair")
	}
	return pair, nil
}

// Delete removes a pair.
func (s *ConflictService) Delete(ctx context.Context, id string) error {
	if err := s.conflicts.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to delete conflict pair")
	}
	return nil
}
