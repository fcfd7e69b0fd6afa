package dto

import "github.com/noah-isme/sma-exam-api/internal/models"

// UpsertGradeRequest records a single outcome score for a student.
type UpsertGradeRequest struct {
	StudentID    string `json:"studentId" validate:"required"`
	OutcomeIndex int    `json:"outcomeIndex" validate:"min=0"`
	Score        int    `json:"score"`
}

// SetTotalRequest distributes a total score across all outcomes.
type SetTotalRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Total     int    `json:"total" validate:"min=0"`
}

// GradeWriteResult reports the stored value after clamping.
type GradeWriteResult struct {
	StudentID    string `json:"studentId"`
	OutcomeIndex int    `json:"outcomeIndex"`
	Requested    int    `json:"requested"`
	Stored       int    `json:"stored"`
	Clamped      bool   `json:"clamped"`
}

// SetTotalResult reports the per-outcome distribution applied.
type SetTotalResult struct {
	StudentID string             `json:"studentId"`
	Total     int                `json:"total"`
	Scores    map[int]int        `json:"scores"`
	Writes    []GradeWriteResult `json:"writes,omitempty"`
}

// ExamGradesResponse bundles the exam definition with its grade matrix.
type ExamGradesResponse struct {
	Exam   models.Exam     `json:"exam"`
	Grades models.GradeMap `json:"grades"`
}
