package models

import "time"

// OutcomeDefinition describes one learning outcome column of an exam.
type OutcomeDefinition struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	MaxScore int    `json:"max_score"`
}

// Exam represents an exam configuration. Outcomes are stored as a JSONB
// column and unmarshalled by the repository.
type Exam struct {
	ID                  string              `db:"id" json:"id"`
	Name                string              `db:"name" json:"name"`
	Subject             string              `db:"subject" json:"subject,omitempty"`
	GeneralPassingScore int                 `db:"general_passing_score" json:"general_passing_score"`
	MasteryThreshold    int                 `db:"mastery_threshold" json:"mastery_threshold"`
	Outcomes            []OutcomeDefinition `json:"outcomes"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

// MaxTotalScore sums the outcome maximums.
func (e *Exam) MaxTotalScore() int {
	total := 0
	for _, o := range e.Outcomes {
		total += o.MaxScore
	}
	return total
}

// Grade is one student's score on one outcome of an exam.
type Grade struct {
	ExamID       string    `db:"exam_id" json:"exam_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	OutcomeIndex int       `db:"outcome_index" json:"outcome_index"`
	Score        int       `db:"score" json:"score"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GradeMap indexes scores by student ID, then outcome index.
type GradeMap map[string]map[int]int

// Set records a score, allocating the inner map on first use.
func (g GradeMap) Set(studentID string, outcomeIndex, score int) {
	row, ok := g[studentID]
	if !ok {
		row = make(map[int]int)
		g[studentID] = row
	}
	row[outcomeIndex] = score
}

// Score returns the recorded score, defaulting to zero when absent.
func (g GradeMap) Score(studentID string, outcomeIndex int) int {
	if row, ok := g[studentID]; ok {
		return row[outcomeIndex]
	}
	return 0
}
