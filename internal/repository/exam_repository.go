package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-exam-api/internal/models"
)

// ExamRepository manages persistence for exams, their outcome definitions
// and the grade matrix. Outcomes are stored as a JSONB column.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

type examRow struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	Subject             string         `db:"subject"`
	GeneralPassingScore int            `db:"general_passing_score"`
	MasteryThreshold    int            `db:"mastery_threshold"`
	Outcomes            types.JSONText `db:"outcomes"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (row examRow) toModel() (models.Exam, error) {
	exam := models.Exam{
		ID:                  row.ID,
		Name:                row.Name,
		Subject:             row.Subject,
		GeneralPassingScore: row.GeneralPassingScore,
		MasteryThreshold:    row.MasteryThreshold,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if len(row.Outcomes) > 0 {
		if err := json.Unmarshal(row.Outcomes, &exam.Outcomes); err != nil {
			return exam, fmt.Errorf("decode outcomes: %w", err)
		}
	}
	return exam, nil
}

// List returns all exams ordered by creation time.
func (r *ExamRepository) List(ctx context.Context) ([]models.Exam, error) {
	const query = `SELECT id, name, subject, general_passing_score, mastery_threshold, outcomes, created_at, updated_at FROM exams ORDER BY created_at DESC`
	var rows []examRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	exams := make([]models.Exam, 0, len(rows))
	for _, row := range rows {
		exam, err := row.toModel()
		if err != nil {
			return nil, err
		}
		exams = append(exams, exam)
	}
	return exams, nil
}

// FindByID fetches a single exam with its outcome definitions.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, name, subject, general_passing_score, mastery_threshold, outcomes, created_at, updated_at FROM exams WHERE id = $1`
	var row examRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	exam, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// Create inserts an exam with its outcomes encoded as JSONB.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now

	outcomes, err := json.Marshal(exam.Outcomes)
	if err != nil {
		return fmt.Errorf("encode outcomes: %w", err)
	}
	const query = `INSERT INTO exams (id, name, subject, general_passing_score, mastery_threshold, outcomes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		exam.ID, exam.Name, exam.Subject, exam.GeneralPassingScore, exam.MasteryThreshold,
		types.JSONText(outcomes), exam.CreatedAt, exam.UpdatedAt); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update modifies an exam definition.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	outcomes, err := json.Marshal(exam.Outcomes)
	if err != nil {
		return fmt.Errorf("encode outcomes: %w", err)
	}
	const query = `UPDATE exams SET name = $2, subject = $3, general_passing_score = $4, mastery_threshold = $5, outcomes = $6, updated_at = $7 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		exam.ID, exam.Name, exam.Subject, exam.GeneralPassingScore, exam.MasteryThreshold,
		types.JSONText(outcomes), exam.UpdatedAt); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// Delete removes an exam and, via cascade, its grades.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM exams WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

// UpsertGrade stores one outcome score for one student.
func (r *ExamRepository) UpsertGrade(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO grades (exam_id, student_id, outcome_index, score, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (exam_id, student_id, outcome_index) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		grade.ExamID, grade.StudentID, grade.OutcomeIndex, grade.Score, grade.UpdatedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// GradesForExam loads the full grade matrix for an exam.
func (r *ExamRepository) GradesForExam(ctx context.Context, examID string) (models.GradeMap, error) {
	const query = `SELECT exam_id, student_id, outcome_index, score, updated_at FROM grades WHERE exam_id = $1`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, examID); err != nil {
		return nil, fmt.Errorf("load grades: %w", err)
	}
	gradeMap := make(models.GradeMap, len(grades))
	for _, g := range grades {
		gradeMap.Set(g.StudentID, g.OutcomeIndex, g.Score)
	}
	return gradeMap, nil
}

// DeleteGradesForStudent removes a student's scores on every exam.
func (r *ExamRepository) DeleteGradesForStudent(ctx context.Context, studentID string) error {
	const query = `DELETE FROM grades WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete grades for student: %w", err)
	}
	return nil
}
