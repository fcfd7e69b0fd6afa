package service

import (
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/pkg/config"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

// ScoringService holds the pure scoring rules shared by grade entry and
// analysis. Scores are normalized at write time so every read path can
// assume values already sit inside [0, maxScore].
type ScoringService struct {
	cfg    config.GradingConfig
	logger *zap.Logger
}

// NewScoringService constructs a ScoringService.
func NewScoringService(cfg config.GradingConfig, logger *zap.Logger) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPassingScore <= 0 {
		cfg.DefaultPassingScore = 50
	}
	if cfg.DefaultMasteryThreshold <= 0 {
		cfg.DefaultMasteryThreshold = 50
	}
	return &ScoringService{cfg: cfg, logger: logger}
}

// Normalize rounds a raw score to the nearest integer and clamps it into
// [0, maxScore]. The second return reports whether clamping changed the value.
func (s *ScoringService) Normalize(raw float64, maxScore int) (int, bool) {
	score := int(math.Round(raw))
	if score < 0 {
		return 0, true
	}
	if score > maxScore {
		return maxScore, true
	}
	return score, false
}

// Percentage converts a total score to a percentage of the exam maximum.
// An exam whose outcomes sum to zero falls back to a denominator of 100 so
// the result stays defined.
func (s *ScoringService) Percentage(total, maxTotal int) float64 {
	if maxTotal == 0 {
		maxTotal = 100
	}
	return float64(total) / float64(maxTotal) * 100
}

// Label maps a percentage to its qualitative band.
func (s *ScoringService) Label(percentage float64) models.PerformanceLabel {
	switch {
	case percentage <= 20:
		return models.PerformanceVeryLow
	case percentage <= 40:
		return models.PerformanceLow
	case percentage <= 60:
		return models.PerformanceMedium
	case percentage <= 80:
		return models.PerformanceGood
	default:
		return models.PerformanceVeryGood
	}
}

// IsPassing reports whether a total meets the exam's passing score. A
// non-positive configured score falls back to the service default.
func (s *ScoringService) IsPassing(total, generalPassingScore int) bool {
	if generalPassingScore <= 0 {
		generalPassingScore = s.cfg.DefaultPassingScore
	}
	return total >= generalPassingScore
}

// OutcomeMastered reports whether a single outcome score reaches the exam's
// mastery threshold, expressed as a percentage of the outcome maximum.
func (s *ScoringService) OutcomeMastered(score, maxScore, masteryThreshold int) bool {
	if masteryThreshold <= 0 {
		masteryThreshold = s.cfg.DefaultMasteryThreshold
	}
	required := float64(maxScore) * float64(masteryThreshold) / 100
	return float64(score) >= required
}

// DistributeTotal splits a requested total across the exam's outcomes. Each
// outcome receives the floor share capped at its own maximum; the remainder
// plus any capped surplus lands on the last outcome, again capped. Totals
// above the exam maximum are rejected rather than silently clamped, unlike
// per-outcome edits which clamp and warn.
func (s *ScoringService) DistributeTotal(total int, outcomes []models.OutcomeDefinition) (map[int]int, error) {
	if len(outcomes) == 0 {
		return nil, appErrors.New("NO_OUTCOMES", 422, "exam has no outcome definitions")
	}
	maxTotal := 0
	for _, o := range outcomes {
		maxTotal += o.MaxScore
	}
	if total > maxTotal {
		return nil, appErrors.ErrTotalExceedsMax
	}
	if total < 0 {
		total = 0
	}

	base := total / len(outcomes)
	scores := make(map[int]int, len(outcomes))
	assigned := 0
	for i, o := range outcomes {
		if i == len(outcomes)-1 {
			break
		}
		share := base
		if share > o.MaxScore {
			share = o.MaxScore
		}
		scores[o.Index] = share
		assigned += share
	}

	last := outcomes[len(outcomes)-1]
	remainder := total - assigned
	if remainder > last.MaxScore {
		remainder = last.MaxScore
	}
	if remainder < 0 {
		remainder = 0
	}
	scores[last.Index] = remainder
	return scores, nil
}
