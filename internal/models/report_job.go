package models

import "time"

// ReportType enumerates the exportable report kinds.
type ReportType string

const (
	ReportAnalysis ReportType = "analysis"
	ReportRemedial ReportType = "remedial"
	ReportSeating  ReportType = "seating"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// ReportJobStatus tracks the lifecycle of an export job.
type ReportJobStatus string

const (
	ReportJobQueued    ReportJobStatus = "queued"
	ReportJobRunning   ReportJobStatus = "running"
	ReportJobCompleted ReportJobStatus = "completed"
	ReportJobFailed    ReportJobStatus = "failed"
)

// ReportJob represents an asynchronous report export request.
type ReportJob struct {
	ID          string          `json:"id"`
	Type        ReportType      `json:"type"`
	Format      ReportFormat    `json:"format"`
	ExamID      string          `json:"exam_id,omitempty"`
	PlanID      string          `json:"plan_id,omitempty"`
	Status      ReportJobStatus `json:"status"`
	FilePath    string          `json:"-"`
	DownloadURL string          `json:"download_url,omitempty"`
	Error       string          `json:"error,omitempty"`
	RequestedBy string          `json:"requested_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}
