package dto

import "github.com/noah-isme/sma-exam-api/internal/models"

// GenerateSeatingRequest is the payload for POST /seating/plans.
type GenerateSeatingRequest struct {
	Name         string            `json:"name" validate:"required"`
	Layout       models.SeatLayout `json:"layout" validate:"required"`
	SeedModifier int               `json:"seedModifier"`
	BasePlanID   *string           `json:"basePlanId,omitempty"`
}

// MoveStudentRequest swaps or moves a student between seats.
type MoveStudentRequest struct {
	StudentID    string `json:"studentId" validate:"required"`
	TargetSeatID string `json:"targetSeatId" validate:"required"`
}

// PinSeatRequest toggles the pinned flag on a seat.
type PinSeatRequest struct {
	SeatID string `json:"seatId" validate:"required"`
	Pinned bool   `json:"pinned"`
}

// ValidatePlanResponse returns the violations found on a plan.
type ValidatePlanResponse struct {
	PlanID     string             `json:"planId"`
	Valid      bool               `json:"valid"`
	Violations []models.Violation `json:"violations"`
}
