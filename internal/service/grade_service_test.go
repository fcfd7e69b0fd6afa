package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/dto"
	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

type stubExamRepo struct {
	exam   *models.Exam
	stored []models.Grade
}

func (r *stubExamRepo) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	return r.exam, nil
}

func (r *stubExamRepo) UpsertGrade(ctx context.Context, grade *models.Grade) error {
	r.stored = append(r.stored, *grade)
	return nil
}

func (r *stubExamRepo) GradesForExam(ctx context.Context, examID string) (models.GradeMap, error) {
	grades := models.GradeMap{}
	for _, g := range r.stored {
		grades.Set(g.StudentID, g.OutcomeIndex, g.Score)
	}
	return grades, nil
}

func gradeFixture() (*GradeService, *stubExamRepo) {
	repo := &stubExamRepo{exam: &models.Exam{
		ID:                  "e1",
		Name:                "Midterm 1",
		GeneralPassingScore: 50,
		MasteryThreshold:    50,
		Outcomes: []models.OutcomeDefinition{
			{Index: 0, Label: "Reading", MaxScore: 10},
			{Index: 1, Label: "Writing", MaxScore: 10},
		},
	}}
	svc := NewGradeService(repo, newScoring(), nil, nil)
	return svc, repo
}

func TestGradeUpsertClampsAndFlags(t *testing.T) {
	svc, repo := gradeFixture()

	result, err := svc.Upsert(context.Background(), "e1", dto.UpsertGradeRequest{
		StudentID:    "s1",
		OutcomeIndex: 0,
		Score:        15,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Stored)
	assert.Equal(t, 15, result.Requested)
	assert.True(t, result.Clamped)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, 10, repo.stored[0].Score)

	result, err = svc.Upsert(context.Background(), "e1", dto.UpsertGradeRequest{
		StudentID:    "s1",
		OutcomeIndex: 1,
		Score:        7,
	})
	require.NoError(t, err)
	assert.False(t, result.Clamped)
}

func TestGradeUpsertUnknownOutcome(t *testing.T) {
	svc, _ := gradeFixture()

	_, err := svc.Upsert(context.Background(), "e1", dto.UpsertGradeRequest{
		StudentID:    "s1",
		OutcomeIndex: 9,
		Score:        5,
	})
	require.Error(t, err)
}

func TestGradeSetTotalDistributes(t *testing.T) {
	svc, repo := gradeFixture()

	result, err := svc.SetTotal(context.Background(), "e1", dto.SetTotalRequest{
		StudentID: "s1",
		Total:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 7, 1: 8}, result.Scores)
	assert.Len(t, repo.stored, 2)
}

func TestGradeSetTotalRejectsAboveMax(t *testing.T) {
	svc, repo := gradeFixture()

	_, err := svc.SetTotal(context.Background(), "e1", dto.SetTotalRequest{
		StudentID: "s1",
		Total:     21,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrTotalExceedsMax)
	assert.Empty(t, repo.stored)
}
