package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/pkg/config"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

func newScoring() *ScoringService {
	return NewScoringService(config.GradingConfig{DefaultPassingScore: 50, DefaultMasteryThreshold: 50}, nil)
}

func TestNormalizeClampsIntoRange(t *testing.T) {
	s := newScoring()

	score, clamped := s.Normalize(-5, 10)
	assert.Equal(t, 0, score)
	assert.True(t, clamped)

	score, clamped = s.Normalize(15, 10)
	assert.Equal(t, 10, score)
	assert.True(t, clamped)

	score, clamped = s.Normalize(7.4, 10)
	assert.Equal(t, 7, score)
	assert.False(t, clamped)
}

func TestNormalizeIdempotent(t *testing.T) {
	s := newScoring()
	first, _ := s.Normalize(23, 20)
	second, clamped := s.Normalize(float64(first), 20)
	assert.Equal(t, first, second)
	assert.False(t, clamped)
}

func TestPercentageFallbackDenominator(t *testing.T) {
	s := newScoring()
	assert.InDelta(t, 42.0, s.Percentage(42, 0), 0.001)
	assert.InDelta(t, 50.0, s.Percentage(25, 50), 0.001)
}

func TestLabelBands(t *testing.T) {
	s := newScoring()
	cases := []struct {
		pct  float64
		want models.PerformanceLabel
	}{
		{0, models.PerformanceVeryLow},
		{20, models.PerformanceVeryLow},
		{20.5, models.PerformanceLow},
		{40, models.PerformanceLow},
		{60, models.PerformanceMedium},
		{80, models.PerformanceGood},
		{80.1, models.PerformanceVeryGood},
		{100, models.PerformanceVeryGood},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.Label(tc.pct), "pct %.1f", tc.pct)
	}
}

func TestIsPassingBoundary(t *testing.T) {
	s := newScoring()
	assert.True(t, s.IsPassing(50, 50))
	assert.False(t, s.IsPassing(49, 50))
	// falls back to the configured default when the exam has no threshold
	assert.True(t, s.IsPassing(50, 0))
	assert.False(t, s.IsPassing(49, 0))
}

func TestOutcomeMasteredBoundary(t *testing.T) {
	s := newScoring()
	assert.True(t, s.OutcomeMastered(5, 10, 50))
	assert.False(t, s.OutcomeMastered(4, 10, 50))
}

func fourOutcomes(max int) []models.OutcomeDefinition {
	return []models.OutcomeDefinition{
		{Index: 0, Label: "A", MaxScore: max},
		{Index: 1, Label: "B", MaxScore: max},
		{Index: 2, Label: "C", MaxScore: max},
		{Index: 3, Label: "D", MaxScore: max},
	}
}

func TestDistributeTotalRemainderOnLast(t *testing.T) {
	s := newScoring()
	scores, err := s.DistributeTotal(57, fourOutcomes(25))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 14, 1: 14, 2: 14, 3: 15}, scores)

	sum := 0
	for _, v := range scores {
		sum += v
	}
	assert.Equal(t, 57, sum)
}

func TestDistributeTotalExact(t *testing.T) {
	s := newScoring()
	scores, err := s.DistributeTotal(100, fourOutcomes(25))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 25, 1: 25, 2: 25, 3: 25}, scores)
}

func TestDistributeTotalRejectsAboveMax(t *testing.T) {
	s := newScoring()
	_, err := s.DistributeTotal(101, fourOutcomes(25))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrTotalExceedsMax)
}

func TestDistributeTotalCapsUnevenOutcomes(t *testing.T) {
	s := newScoring()
	outcomes := []models.OutcomeDefinition{
		{Index: 0, Label: "A", MaxScore: 10},
		{Index: 1, Label: "B", MaxScore: 40},
	}
	scores, err := s.DistributeTotal(48, outcomes)
	require.NoError(t, err)
	// base 24 exceeds the first outcome's max, surplus drifts to the last
	assert.Equal(t, 10, scores[0])
	assert.Equal(t, 38, scores[1])
}
