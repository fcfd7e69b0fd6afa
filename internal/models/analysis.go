package models

import "time"

// PerformanceLabel is the qualitative band for a percentage score.
type PerformanceLabel string

const (
	PerformanceVeryLow  PerformanceLabel = "Very Low"
	PerformanceLow      PerformanceLabel = "Low"
	PerformanceMedium   PerformanceLabel = "Medium"
	PerformanceGood     PerformanceLabel = "Good"
	PerformanceVeryGood PerformanceLabel = "Very Good"
)

// StudentResult is one student's computed exam outcome.
type StudentResult struct {
	StudentID     string           `json:"student_id"`
	FullName      string           `json:"full_name"`
	StudentNumber string           `json:"student_number,omitempty"`
	Scores        map[int]int      `json:"scores"`
	TotalScore    int              `json:"total_score"`
	Percentage    float64          `json:"percentage"`
	Label         PerformanceLabel `json:"label"`
	IsPassing     bool             `json:"is_passing"`
}

// OutcomeStat aggregates class performance on a single outcome.
type OutcomeStat struct {
	OutcomeIndex      int     `json:"outcome_index"`
	Label             string  `json:"label"`
	MaxScore          int     `json:"max_score"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
	SuccessCount      int     `json:"success_count"`
	SuccessRate       float64 `json:"success_rate"`
	FailCount         int     `json:"fail_count"`
	FailRate          float64 `json:"fail_rate"`
}

// FailureMatrixEntry is one student below the mastery threshold on an outcome.
type FailureMatrixEntry struct {
	StudentID           string  `json:"student_id"`
	FullName            string  `json:"full_name"`
	Score               int     `json:"score"`
	MaxScore            int     `json:"max_score"`
	PercentageOfOutcome float64 `json:"percentage_of_outcome"`
	IsPassingOverall    bool    `json:"is_passing_overall"`
}

// FailureMatrixRow collects the failing students of one outcome.
type FailureMatrixRow struct {
	OutcomeIndex int                  `json:"outcome_index"`
	Label        string               `json:"label"`
	FailedCount  int                  `json:"failed_count"`
	Students     []FailureMatrixEntry `json:"students"`
}

// ClassStats summarizes the whole class on an exam.
type ClassStats struct {
	StudentCount           int     `json:"student_count"`
	ClassAverage           float64 `json:"class_average"`
	ClassAveragePercentage float64 `json:"class_average_percentage"`
	HighestTotal           int     `json:"highest_total"`
	LowestTotal            int     `json:"lowest_total"`
	PassingCount           int     `json:"passing_count"`
	FailingCount           int     `json:"failing_count"`
	PassRate               float64 `json:"pass_rate"`
}

// DistributionBucket is one bar of the score distribution histogram.
type DistributionBucket struct {
	Label PerformanceLabel `json:"label"`
	Min   int              `json:"min"`
	Max   int              `json:"max"`
	Count int              `json:"count"`
}

// SystemMetrics represents system level metrics captured from
// instrumentation, exposed on the ops endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	AnalysisBuildCount       uint64    `json:"analysis_build_count"`
	SeatingGenerationCount   uint64    `json:"seating_generation_count"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// AnalysisReport is the full analytics payload for an exam. Export layers
// render straight from this shape, so the scoring parameters travel with it.
type AnalysisReport struct {
	ExamID              string               `json:"exam_id"`
	ExamName            string               `json:"exam_name"`
	GeneratedAt         time.Time            `json:"generated_at"`
	MaxTotalScore       int                  `json:"max_total_score"`
	GeneralPassingScore int                  `json:"general_passing_score"`
	MasteryThreshold    int                  `json:"outcome_mastery_threshold"`
	Results             []StudentResult      `json:"results"`
	OutcomeStats        []OutcomeStat        `json:"outcome_stats"`
	TroubledOutcomes    []OutcomeStat        `json:"troubled_outcomes"`
	FailureMatrix       []FailureMatrixRow   `json:"failure_matrix"`
	ClassStats          ClassStats           `json:"class_stats"`
	Distribution        []DistributionBucket `json:"distribution"`
}
