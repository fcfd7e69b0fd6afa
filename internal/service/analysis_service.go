package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/internal/repository"
	"github.com/noah-isme/sma-exam-api/pkg/config"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

// troubledFailRateFloor is the minimum fail rate, in percent, for an
// outcome to be flagged as needing class-wide remediation.
const troubledFailRateFloor = 30.0

// troubledOutcomeLimit caps how many outcomes the remedial view surfaces.
const troubledOutcomeLimit = 3

type analysisExamRepository interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	GradesForExam(ctx context.Context, examID string) (models.GradeMap, error)
}

type analysisStudentRepository interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

// AnalysisService computes exam analytics: per-student results, outcome
// statistics, the failure matrix and the class summary. Reports are cached
// in Redis until a grade write invalidates them.
type AnalysisService struct {
	exams    analysisExamRepository
	students analysisStudentRepository
	scoring  *ScoringService
	cache    *repository.CacheRepository
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      config.AnalysisConfig
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(exams analysisExamRepository, students analysisStudentRepository, scoring *ScoringService, cache *repository.CacheRepository, metrics *MetricsService, cfg config.AnalysisConfig, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scoring == nil {
		scoring = NewScoringService(config.GradingConfig{}, logger)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &AnalysisService{
		exams:    exams,
		students: students,
		scoring:  scoring,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

func analysisCacheKey(examID string) string {
	return fmt.Sprintf("analysis:exam:%s", examID)
}

// InvalidateExam drops the cached report for an exam. Called after every
// grade write so readers never see stale analytics.
func (s *AnalysisService) InvalidateExam(ctx context.Context, examID string) {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, analysisCacheKey(examID)); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate analysis cache", "exam_id", examID, "error", err)
	}
}

// BuildReport assembles the full analysis report for an exam.
func (s *AnalysisService) BuildReport(ctx context.Context, examID string) (*models.AnalysisReport, error) {
	if s.cache != nil && s.cfg.CacheEnabled {
		var cached models.AnalysisReport
		if err := s.cache.Get(ctx, analysisCacheKey(examID), &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheMiss()
		}
	}

	start := time.Now()
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load exam")
	}
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load roster")
	}
	grades, err := s.exams.GradesForExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load grades")
	}

	report := s.compute(exam, students, grades)

	if s.metrics != nil {
		s.metrics.ObserveAnalysisBuild(time.Since(start))
	}
	if s.cache != nil && s.cfg.CacheEnabled {
		if err := s.cache.Set(ctx, analysisCacheKey(examID), report, s.cfg.CacheTTL); err != nil {
			s.logger.Sugar().Warnw("failed to cache analysis report", "exam_id", examID, "error", err)
		}
	}
	return report, nil
}

// compute is the pure aggregation pass, separated for testability.
func (s *AnalysisService) compute(exam *models.Exam, students []models.Student, grades models.GradeMap) *models.AnalysisReport {
	maxTotal := exam.MaxTotalScore()

	results := make([]models.StudentResult, 0, len(students))
	for _, st := range students {
		scores := make(map[int]int, len(exam.Outcomes))
		total := 0
		for _, o := range exam.Outcomes {
			score := grades.Score(st.ID, o.Index)
			scores[o.Index] = score
			total += score
		}
		pct := s.scoring.Percentage(total, maxTotal)
		number := ""
		if st.StudentNumber != nil {
			number = *st.StudentNumber
		}
		results = append(results, models.StudentResult{
			StudentID:     st.ID,
			FullName:      st.FullName,
			StudentNumber: number,
			Scores:        scores,
			TotalScore:    total,
			Percentage:    pct,
			Label:         s.scoring.Label(pct),
			IsPassing:     s.scoring.IsPassing(total, exam.GeneralPassingScore),
		})
	}

	outcomeStats := make([]models.OutcomeStat, 0, len(exam.Outcomes))
	for _, o := range exam.Outcomes {
		stat := models.OutcomeStat{OutcomeIndex: o.Index, Label: o.Label, MaxScore: o.MaxScore}
		sum := 0
		for _, res := range results {
			score := res.Scores[o.Index]
			sum += score
			if s.scoring.OutcomeMastered(score, o.MaxScore, exam.MasteryThreshold) {
				stat.SuccessCount++
			} else {
				stat.FailCount++
			}
		}
		if len(results) > 0 {
			stat.AverageScore = float64(sum) / float64(len(results))
			stat.SuccessRate = float64(stat.SuccessCount) / float64(len(results)) * 100
			stat.FailRate = float64(stat.FailCount) / float64(len(results)) * 100
			if o.MaxScore > 0 {
				stat.AveragePercentage = stat.AverageScore / float64(o.MaxScore) * 100
			}
		}
		outcomeStats = append(outcomeStats, stat)
	}

	// One matrix row per outcome, listing only the students below the
	// mastery threshold on it.
	matrix := make([]models.FailureMatrixRow, 0, len(exam.Outcomes))
	for _, o := range exam.Outcomes {
		row := models.FailureMatrixRow{OutcomeIndex: o.Index, Label: o.Label}
		for _, res := range results {
			score := res.Scores[o.Index]
			if s.scoring.OutcomeMastered(score, o.MaxScore, exam.MasteryThreshold) {
				continue
			}
			pct := 0.0
			if o.MaxScore > 0 {
				pct = float64(score) / float64(o.MaxScore) * 100
			}
			row.Students = append(row.Students, models.FailureMatrixEntry{
				StudentID:           res.StudentID,
				FullName:            res.FullName,
				Score:               score,
				MaxScore:            o.MaxScore,
				PercentageOfOutcome: pct,
				IsPassingOverall:    res.IsPassing,
			})
		}
		row.FailedCount = len(row.Students)
		matrix = append(matrix, row)
	}

	classStats := models.ClassStats{StudentCount: len(results)}
	if len(results) > 0 {
		sum := 0
		classStats.HighestTotal = results[0].TotalScore
		classStats.LowestTotal = results[0].TotalScore
		for _, res := range results {
			sum += res.TotalScore
			if res.TotalScore > classStats.HighestTotal {
				classStats.HighestTotal = res.TotalScore
			}
			if res.TotalScore < classStats.LowestTotal {
				classStats.LowestTotal = res.TotalScore
			}
			if res.IsPassing {
				classStats.PassingCount++
			} else {
				classStats.FailingCount++
			}
		}
		classStats.ClassAverage = float64(sum) / float64(len(results))
		classStats.PassRate = float64(classStats.PassingCount) / float64(len(results)) * 100
		denom := maxTotal
		if denom == 0 {
			denom = 100
		}
		classStats.ClassAveragePercentage = classStats.ClassAverage / float64(denom) * 100
	}

	return &models.AnalysisReport{
		ExamID:              exam.ID,
		ExamName:            exam.Name,
		GeneratedAt:         time.Now().UTC(),
		MaxTotalScore:       maxTotal,
		GeneralPassingScore: exam.GeneralPassingScore,
		MasteryThreshold:    exam.MasteryThreshold,
		Results:             results,
		OutcomeStats:        outcomeStats,
		TroubledOutcomes:    troubledOutcomes(outcomeStats),
		FailureMatrix:       matrix,
		ClassStats:          classStats,
		Distribution:        distribution(results),
	}
}

// troubledOutcomes picks the worst outcomes for remediation. The sort is
// stable so outcomes with equal fail rates keep their exam order.
func troubledOutcomes(stats []models.OutcomeStat) []models.OutcomeStat {
	candidates := make([]models.OutcomeStat, 0, len(stats))
	for _, st := range stats {
		if st.FailRate > troubledFailRateFloor {
			candidates = append(candidates, st)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FailRate > candidates[j].FailRate
	})
	if len(candidates) > troubledOutcomeLimit {
		candidates = candidates[:troubledOutcomeLimit]
	}
	return candidates
}

func distribution(results []models.StudentResult) []models.DistributionBucket {
	buckets := []models.DistributionBucket{
		{Label: models.PerformanceVeryLow, Min: 0, Max: 20},
		{Label: models.PerformanceLow, Min: 21, Max: 40},
		{Label: models.PerformanceMedium, Min: 41, Max: 60},
		{Label: models.PerformanceGood, Min: 61, Max: 80},
		{Label: models.PerformanceVeryGood, Min: 81, Max: 100},
	}
	for _, res := range results {
		for i := range buckets {
			if res.Label == buckets[i].Label {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}
