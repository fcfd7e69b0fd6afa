package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-exam-api/internal/dto"
	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
	"github.com/noah-isme/sma-exam-api/pkg/response"
)

type seatingService interface {
	Generate(ctx context.Context, req dto.GenerateSeatingRequest) (*models.SeatingPlan, error)
	List(ctx context.Context) ([]models.SeatingPlan, error)
	Get(ctx context.Context, id string) (*models.SeatingPlan, error)
	Delete(ctx context.Context, id string) error
	MoveStudent(ctx context.Context, planID string, req dto.MoveStudentRequest) (*models.SeatingPlan, error)
	PinSeat(ctx context.Context, planID string, req dto.PinSeatRequest) (*models.SeatingPlan, error)
	Validate(ctx context.Context, planID string) (*dto.ValidatePlanResponse, error)
}

// SeatingHandler exposes seating plan generation and editing endpoints.
type SeatingHandler struct {
	seating seatingService
}

// NewSeatingHandler constructs SeatingHandler.
func NewSeatingHandler(seating seatingService) *SeatingHandler {
	return &SeatingHandler{seating: seating}
}

// Generate godoc
// @Summary Generate a deterministic seating plan
// @Tags Seating
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateSeatingRequest true "Layout and seed"
// @Success 201 {object} response.Envelope
// @Router /seating/plans [post]
func (h *SeatingHandler) Generate(c *gin.Context) {
	var req dto.GenerateSeatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seating payload"))
		return
	}
	plan, err := h.seating.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// List godoc
// @Summary List seating plans
// @Tags Seating
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /seating/plans [get]
func (h *SeatingHandler) List(c *gin.Context) {
	plans, err := h.seating.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Get godoc
// @Summary Get one seating plan
// @Tags Seating
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /seating/plans/{id} [get]
func (h *SeatingHandler) Get(c *gin.Context) {
	plan, err := h.seating.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete a seating plan
// @Tags Seating
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204
// @Router /seating/plans/{id} [delete]
func (h *SeatingHandler) Delete(c *gin.Context) {
	if err := h.seating.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Move godoc
// @Summary Move a student to another seat, swapping occupants
// @Tags Seating
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param payload body dto.MoveStudentRequest true "Move"
// @Success 200 {object} response.Envelope
// @Router /seating/plans/{id}/move [post]
func (h *SeatingHandler) Move(c *gin.Context) {
	var req dto.MoveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload"))
		return
	}
	plan, err := h.seating.MoveStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Pin godoc
// @Summary Pin or unpin a seat
// @Tags Seating
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param payload body dto.PinSeatRequest true "Pin"
// @Success 200 {object} response.Envelope
// @Router /seating/plans/{id}/pin [post]
func (h *SeatingHandler) Pin(c *gin.Context) {
	var req dto.PinSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pin payload"))
		return
	}
	plan, err := h.seating.PinSeat(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Validate godoc
// @Summary Recompute rule violations for a plan
// @Tags Seating
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /seating/plans/{id}/validate [post]
func (h *SeatingHandler) Validate(c *gin.Context) {
	result, err := h.seating.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
