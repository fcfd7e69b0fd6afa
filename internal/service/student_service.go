package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentConflictCleaner interface {
	DeleteForStudent(ctx context.Context, studentID string) error
}

type studentGradeCleaner interface {
	DeleteGradesForStudent(ctx context.Context, studentID string) error
}

// UpsertStudentRequest carries roster create and update payloads.
type UpsertStudentRequest struct {
	FullName          string        `json:"fullName" validate:"required"`
	StudentNumber     *string       `json:"studentNumber"`
	Gender            models.Gender `json:"gender" validate:"omitempty,oneof=K E"`
	FrontRowPreferred bool          `json:"frontRowPreferred"`
	SpecialNeeds      string        `json:"specialNeeds"`
}

// StudentService manages the class roster.
type StudentService struct {
	students  studentRepository
	conflicts studentConflictCleaner
	grades    studentGradeCleaner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepository, conflicts studentConflictCleaner, grades studentGradeCleaner, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:  students,
		conflicts: conflicts,
		grades:    grades,
		validator: validator.New(),
		logger:    logger,
	}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list students")
	}
	return students, total, nil
}

// Get fetches one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load student")
	}
	return student, nil
}

// Create adds a student to the roster.
func (s *StudentService) Create(ctx context.Context, req UpsertStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid student request")
	}
	student := &models.Student{
		FullName:      req.FullName,
		StudentNumber: req.StudentNumber,
		Gender:        req.Gender,
		Profile: models.Profile{
			FrontRowPreferred: req.FrontRowPreferred,
			SpecialNeeds:      req.SpecialNeeds,
		},
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to create student")
	}
	return student, nil
}

// Update rewrites a student's attributes.
func (s *StudentService) Update(ctx context.Context, id string, req UpsertStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid student request")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student.FullName = req.FullName
	student.StudentNumber = req.StudentNumber
	student.Gender = req.Gender
	student.Profile.FrontRowPreferred = req.FrontRowPreferred
	student.Profile.SpecialNeeds = req.SpecialNeeds

	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to update student")
	}
	return student, nil
}

// Delete removes a student along with their conflict pairs and grades.
// Seating plans keep historical assignments; regeneration drops the
// departed student naturally.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to delete student")
	}
	if s.conflicts != nil {
		if err := s.conflicts.DeleteForStudent(ctx, id); err != nil {
			s.logger.Sugar().Warnw("failed to clean conflict pairs", "student_id", id, "error", err)
		}
	}
	if s.grades != nil {
		if err := s.grades.DeleteGradesForStudent(ctx, id); err != nil {
			s.logger.Sugar().Warnw("failed to clean grades", "student_id", id, "error", err)
		}
	}
	return nil
}
