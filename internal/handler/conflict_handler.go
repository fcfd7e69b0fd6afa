package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-exam-api/internal/service"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
	"github.com/noah-isme/sma-exam-api/pkg/response"
)

// ConflictHandler exposes the do-not-pair list.
type ConflictHandler struct {
	conflicts *service.ConflictService
}

// NewConflictHandler constructs ConflictHandler.
func NewConflictHandler(conflicts *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflicts: conflicts}
}

// List godoc
// @Summary List conflict pairs
// @Tags Conflicts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) List(c *gin.Context) {
	pairs, err := h.conflicts.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pairs, nil)
}

// Create godoc
// @Summary Register a conflict pair
// @Tags Conflicts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateConflictRequest true "Pair"
// @Success 201 {object} response.Envelope
// @Router /conflicts [post]
func (h *ConflictHandler) Create(c *gin.Context) {
	var req service.CreateConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict payload"))
		return
	}
	pair, err := h.conflicts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pair)
}

// Delete godoc
// @Summary Remove a conflict pair
// @Tags Conflicts
// @Security BearerAuth
// @Param id path string true "Pair ID"
// @Success 204
// @Router /conflicts/{id} [delete]
func (h *ConflictHandler) Delete(c *gin.Context) {
	if err := h.conflicts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
