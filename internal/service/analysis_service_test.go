package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/pkg/config"
)

func newAnalysisForCompute() *AnalysisService {
	scoring := NewScoringService(config.GradingConfig{DefaultPassingScore: 50, DefaultMasteryThreshold: 50}, nil)
	return NewAnalysisService(nil, nil, scoring, nil, nil, config.AnalysisConfig{}, nil)
}

func analysisExam() *models.Exam {
	return &models.Exam{
		ID:                  "e1",
		Name:                "Midterm 1",
		GeneralPassingScore: 50,
		MasteryThreshold:    50,
		Outcomes: []models.OutcomeDefinition{
			{Index: 0, Label: "Reading", MaxScore: 50},
			{Index: 1, Label: "Writing", MaxScore: 50},
		},
	}
}

func analysisRoster() []models.Student {
	return []models.Student{
		{ID: "a", FullName: "Student A"},
		{ID: "b", FullName: "Student B"},
		{ID: "c", FullName: "Student C"},
	}
}

func analysisGrades() models.GradeMap {
	grades := models.GradeMap{}
	grades.Set("a", 0, 20)
	grades.Set("a", 1, 20)
	grades.Set("b", 0, 30)
	grades.Set("b", 1, 20)
	grades.Set("c", 0, 25)
	grades.Set("c", 1, 25)
	return grades
}

func TestComputeStudentResults(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), analysisRoster(), analysisGrades())

	require.Len(t, report.Results, 3)
	a := report.Results[0]
	assert.Equal(t, 40, a.TotalScore)
	assert.InDelta(t, 40.0, a.Percentage, 0.001)
	assert.Equal(t, models.PerformanceLow, a.Label)
	assert.False(t, a.IsPassing)

	b := report.Results[1]
	assert.Equal(t, 50, b.TotalScore)
	assert.True(t, b.IsPassing)
	assert.Equal(t, models.PerformanceMedium, b.Label)
}

func TestComputeClassStats(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), analysisRoster(), analysisGrades())

	stats := report.ClassStats
	assert.Equal(t, 3, stats.StudentCount)
	assert.InDelta(t, 46.67, stats.ClassAverage, 0.01)
	assert.InDelta(t, 46.67, stats.ClassAveragePercentage, 0.01)
	assert.Equal(t, 50, stats.HighestTotal)
	assert.Equal(t, 40, stats.LowestTotal)
	assert.Equal(t, 2, stats.PassingCount)
	assert.Equal(t, 1, stats.FailingCount)
	assert.InDelta(t, 66.67, stats.PassRate, 0.01)
}

func TestComputeCarriesScoringParameters(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), analysisRoster(), analysisGrades())

	assert.Equal(t, 100, report.MaxTotalScore)
	assert.Equal(t, 50, report.GeneralPassingScore)
	assert.Equal(t, 50, report.MasteryThreshold)
}

func TestComputeOutcomeStatsAndMasteryBoundary(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), analysisRoster(), analysisGrades())

	require.Len(t, report.OutcomeStats, 2)
	reading := report.OutcomeStats[0]
	// 25 of 50 sits exactly on the 50% mastery threshold and counts as success
	assert.Equal(t, 2, reading.SuccessCount)
	assert.Equal(t, 1, reading.FailCount)
	assert.InDelta(t, 66.67, reading.SuccessRate, 0.01)
	assert.InDelta(t, 33.33, reading.FailRate, 0.01)
	assert.InDelta(t, 25.0, reading.AverageScore, 0.001)
	assert.InDelta(t, 50.0, reading.AveragePercentage, 0.001)

	writing := report.OutcomeStats[1]
	assert.Equal(t, 1, writing.SuccessCount)
	assert.Equal(t, 2, writing.FailCount)
}

func TestComputeFailureMatrix(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), analysisRoster(), analysisGrades())

	require.Len(t, report.FailureMatrix, 2)

	reading := report.FailureMatrix[0]
	assert.Equal(t, 0, reading.OutcomeIndex)
	assert.Equal(t, "Reading", reading.Label)
	require.Equal(t, 1, reading.FailedCount)
	entry := reading.Students[0]
	assert.Equal(t, "a", entry.StudentID)
	assert.Equal(t, 20, entry.Score)
	assert.Equal(t, 50, entry.MaxScore)
	assert.InDelta(t, 40.0, entry.PercentageOfOutcome, 0.001)
	assert.False(t, entry.IsPassingOverall)

	writing := report.FailureMatrix[1]
	require.Equal(t, 2, writing.FailedCount)
	// B fails this outcome yet still passes overall
	b := writing.Students[1]
	assert.Equal(t, "b", b.StudentID)
	assert.True(t, b.IsPassingOverall)

	for _, row := range report.FailureMatrix {
		for _, st := range row.Students {
			assert.NotEqual(t, "c", st.StudentID)
		}
	}
}

func TestTroubledOutcomesOrderedByFailRate(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), analysisRoster(), analysisGrades())

	require.Len(t, report.TroubledOutcomes, 2)
	assert.Equal(t, 1, report.TroubledOutcomes[0].OutcomeIndex)
	assert.Equal(t, 0, report.TroubledOutcomes[1].OutcomeIndex)
}

func TestTroubledOutcomesFloorAndLimit(t *testing.T) {
	stats := []models.OutcomeStat{
		{OutcomeIndex: 0, FailRate: 30},
		{OutcomeIndex: 1, FailRate: 80},
		{OutcomeIndex: 2, FailRate: 60},
		{OutcomeIndex: 3, FailRate: 60},
		{OutcomeIndex: 4, FailRate: 45},
	}

	troubled := troubledOutcomes(stats)
	require.Len(t, troubled, 3)
	assert.Equal(t, 1, troubled[0].OutcomeIndex)
	// ties keep their original order
	assert.Equal(t, 2, troubled[1].OutcomeIndex)
	assert.Equal(t, 3, troubled[2].OutcomeIndex)
}

func TestComputeDistribution(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), analysisRoster(), analysisGrades())

	counts := map[models.PerformanceLabel]int{}
	for _, b := range report.Distribution {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, 1, counts[models.PerformanceLow])
	assert.Equal(t, 2, counts[models.PerformanceMedium])
	assert.Equal(t, 0, counts[models.PerformanceVeryGood])
}

func TestComputeEmptyRosterProducesZeroedStats(t *testing.T) {
	svc := newAnalysisForCompute()
	report := svc.compute(analysisExam(), nil, models.GradeMap{})

	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.ClassStats.StudentCount)
	assert.Empty(t, report.TroubledOutcomes)
}
