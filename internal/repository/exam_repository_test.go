package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/models"
)

func newExamMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamRepositoryFindByIDDecodesOutcomes(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	outcomes := `[{"index":0,"label":"Reading","max_score":25},{"index":1,"label":"Writing","max_score":25}]`
	rows := sqlmock.NewRows([]string{"id", "name", "subject", "general_passing_score", "mastery_threshold", "outcomes", "created_at", "updated_at"}).
		AddRow("e1", "Midterm 1", "Math", 50, 50, []byte(outcomes), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, subject, general_passing_score, mastery_threshold, outcomes, created_at, updated_at FROM exams WHERE id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	exam, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, exam.Outcomes, 2)
	assert.Equal(t, "Reading", exam.Outcomes[0].Label)
	assert.Equal(t, 50, exam.MaxTotalScore())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpsertGrade(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec("INSERT INTO grades").
		WithArgs("e1", "s1", 0, 18, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpsertGrade(context.Background(), &models.Grade{ExamID: "e1", StudentID: "s1", OutcomeIndex: 0, Score: 18})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryGradesForExam(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	rows := sqlmock.NewRows([]string{"exam_id", "student_id", "outcome_index", "score", "updated_at"}).
		AddRow("e1", "s1", 0, 20, time.Now()).
		AddRow("e1", "s1", 1, 15, time.Now()).
		AddRow("e1", "s2", 0, 10, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT exam_id, student_id, outcome_index, score, updated_at FROM grades WHERE exam_id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	grades, err := repo.GradesForExam(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 20, grades.Score("s1", 0))
	assert.Equal(t, 15, grades.Score("s1", 1))
	assert.Equal(t, 10, grades.Score("s2", 0))
	assert.Equal(t, 0, grades.Score("s3", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}
