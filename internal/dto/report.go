package dto

import "github.com/noah-isme/sma-exam-api/internal/models"

// CreateReportRequest enqueues a report export job.
type CreateReportRequest struct {
	Type   models.ReportType   `json:"type" validate:"required,oneof=analysis remedial seating"`
	Format models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ExamID string              `json:"examId,omitempty"`
	PlanID string              `json:"planId,omitempty"`
}

// ReportJobResponse echoes the job state to the client.
type ReportJobResponse struct {
	models.ReportJob
}
