package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/dto"
	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

type seatingServiceMock struct {
	plan     *models.SeatingPlan
	err      error
	validate *dto.ValidatePlanResponse
}

func (m *seatingServiceMock) Generate(ctx context.Context, req dto.GenerateSeatingRequest) (*models.SeatingPlan, error) {
	return m.plan, m.err
}

func (m *seatingServiceMock) List(ctx context.Context) ([]models.SeatingPlan, error) {
	if m.plan == nil {
		return nil, m.err
	}
	return []models.SeatingPlan{*m.plan}, m.err
}

func (m *seatingServiceMock) Get(ctx context.Context, id string) (*models.SeatingPlan, error) {
	return m.plan, m.err
}

func (m *seatingServiceMock) Delete(ctx context.Context, id string) error {
	return m.err
}

func (m *seatingServiceMock) MoveStudent(ctx context.Context, planID string, req dto.MoveStudentRequest) (*models.SeatingPlan, error) {
	return m.plan, m.err
}

func (m *seatingServiceMock) PinSeat(ctx context.Context, planID string, req dto.PinSeatRequest) (*models.SeatingPlan, error) {
	return m.plan, m.err
}

func (m *seatingServiceMock) Validate(ctx context.Context, planID string) (*dto.ValidatePlanResponse, error) {
	return m.validate, m.err
}

func TestSeatingHandlerGenerateCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &seatingServiceMock{plan: &models.SeatingPlan{ID: "plan-1", Name: "Week 36"}}
	handler := NewSeatingHandler(mockSvc)

	payload, _ := json.Marshal(dto.GenerateSeatingRequest{
		Name: "Week 36",
		Layout: models.SeatLayout{
			Rows:     5,
			Cols:     4,
			DeskType: models.DeskDouble,
		},
	})
	c, w := newGinContext(http.MethodPost, "/seating/plans", payload)

	handler.Generate(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSeatingHandlerGenerateEmptyRoster(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &seatingServiceMock{err: appErrors.ErrEmptyRoster}
	handler := NewSeatingHandler(mockSvc)

	payload, _ := json.Marshal(dto.GenerateSeatingRequest{
		Name:   "Week 36",
		Layout: models.SeatLayout{Rows: 2, Cols: 2, DeskType: models.DeskSingle},
	})
	c, w := newGinContext(http.MethodPost, "/seating/plans", payload)

	handler.Generate(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSeatingHandlerValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &seatingServiceMock{
		validate: &dto.ValidatePlanResponse{PlanID: "plan-1", Valid: true},
	}
	handler := NewSeatingHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/seating/plans/plan-1/validate", nil)
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.Validate(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"valid":true`)
}
