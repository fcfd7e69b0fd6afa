package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/pkg/storage"
)

type stubAnalysisBuilder struct {
	report *models.AnalysisReport
}

func (s *stubAnalysisBuilder) BuildReport(ctx context.Context, examID string) (*models.AnalysisReport, error) {
	return s.report, nil
}

type stubPlanSource struct {
	plan *models.SeatingPlan
}

func (s *stubPlanSource) Get(ctx context.Context, id string) (*models.SeatingPlan, error) {
	return s.plan, nil
}

type stubStudentSource struct {
	students []models.Student
}

func (s *stubStudentSource) ListAll(ctx context.Context) ([]models.Student, error) {
	return s.students, nil
}

func newExportFixture(t *testing.T) *ExportService {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	report := &models.AnalysisReport{
		ExamID:   "e1",
		ExamName: "Midterm 1",
		Results: []models.StudentResult{
			{StudentID: "a", FullName: "Student A", Scores: map[int]int{0: 20}, TotalScore: 20, Percentage: 40, Label: models.PerformanceLow},
			{StudentID: "b", FullName: "Student B", Scores: map[int]int{0: 40}, TotalScore: 40, Percentage: 80, Label: models.PerformanceGood, IsPassing: true},
		},
		OutcomeStats: []models.OutcomeStat{
			{OutcomeIndex: 0, Label: "Reading", MaxScore: 50, FailRate: 50},
		},
		TroubledOutcomes: []models.OutcomeStat{
			{OutcomeIndex: 0, Label: "Reading", MaxScore: 50, FailRate: 50},
		},
		FailureMatrix: []models.FailureMatrixRow{
			{OutcomeIndex: 0, Label: "Reading", FailedCount: 1, Students: []models.FailureMatrixEntry{
				{StudentID: "a", FullName: "Student A", Score: 20, MaxScore: 50, PercentageOfOutcome: 40},
			}},
		},
	}
	plan := &models.SeatingPlan{
		ID:          "p1",
		Name:        "Week 36",
		Layout:      models.SeatLayout{Rows: 1, Cols: 1, DeskType: models.DeskDouble, FrontRowDepth: 1},
		Assignments: map[string]string{"R1-C1-L": "a", "R1-C1-R": "b"},
	}
	students := []models.Student{
		{ID: "a", FullName: "Student A"},
		{ID: "b", FullName: "Student B"},
	}

	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(
		&stubAnalysisBuilder{report: report},
		&stubPlanSource{plan: plan},
		&stubStudentSource{students: students},
		store, signer, ExportConfig{APIPrefix: "/api/v1"}, nil,
	)
}

func TestExportServiceGeneratesAnalysisCSV(t *testing.T) {
	svc := newExportFixture(t)
	job := &models.ReportJob{ID: "j1", Type: models.ReportAnalysis, Format: models.FormatCSV, ExamID: "e1"}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/reports/download/"))
	assert.False(t, result.ExpiresAt.IsZero())

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()

	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "Student A")
	assert.Contains(t, content, "Reading")
	assert.Contains(t, content, "Low")
}

func TestExportServiceGeneratesRemedialCSV(t *testing.T) {
	svc := newExportFixture(t)
	job := &models.ReportJob{ID: "j2", Type: models.ReportRemedial, Format: models.FormatCSV, ExamID: "e1"}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()

	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	// only the failing student shows up under the troubled outcome
	assert.Contains(t, content, "Student A")
	assert.Contains(t, content, "20/50")
	assert.NotContains(t, content, "Student B")
}

func TestExportServiceGeneratesSeatingChartPDF(t *testing.T) {
	svc := newExportFixture(t)
	job := &models.ReportJob{ID: "j3", Type: models.ReportSeating, Format: models.FormatPDF, PlanID: "p1"}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.FormatPDF, result.Format)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()

	header := make([]byte, 4)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	svc := newExportFixture(t)
	job := &models.ReportJob{ID: "j4", Type: models.ReportAnalysis, Format: models.FormatCSV, ExamID: "e1"}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "j4", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}
