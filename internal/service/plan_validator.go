package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-exam-api/internal/models"
)

// PlanValidator checks a seating plan against the placement rules. It never
// mutates the plan, callers decide what to do with the violations.
type PlanValidator struct{}

// NewPlanValidator constructs a PlanValidator.
func NewPlanValidator() *PlanValidator {
	return &PlanValidator{}
}

// Validate returns every rule breach in the plan. Front row violations flag
// front-preferring students seated outside the front rows. Conflict
// violations cover deskmates of the same double desk only and are keyed to
// the left seat, one violation per desk.
func (v *PlanValidator) Validate(plan *models.SeatingPlan, students []models.Student, pairs []models.ConflictPair) []models.Violation {
	if plan == nil {
		return nil
	}

	roster := make(map[string]models.Student, len(students))
	for _, st := range students {
		roster[st.ID] = st
	}
	seatByID := make(map[string]models.Seat)
	for _, seat := range BuildSeats(plan.Layout) {
		seatByID[seat.ID] = seat
	}

	violations := []models.Violation{}

	// Violations come out in row-major seat order, matching how plans are
	// generated and rendered.
	occupied := make([]models.Seat, 0, len(plan.Assignments))
	for seatID := range plan.Assignments {
		if seat, ok := seatByID[seatID]; ok {
			occupied = append(occupied, seat)
		}
	}
	sort.Slice(occupied, func(i, j int) bool {
		a, b := occupied[i], occupied[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Side < b.Side
	})

	for _, seat := range occupied {
		seatID := seat.ID
		studentID := plan.Assignments[seatID]
		student, enrolled := roster[studentID]
		if !enrolled {
			continue
		}
		if student.Profile.FrontRowPreferred && !seat.IsFront {
			violations = append(violations, models.Violation{
				Type:      models.ViolationFrontRow,
				SeatID:    seatID,
				StudentID: studentID,
				Message:   fmt.Sprintf("%s prefers the front rows but sits at %s", student.FullName, seatID),
			})
		}

		// Deskmate conflicts are reported once per desk, on the left seat.
		if seat.Side != models.SideLeft {
			continue
		}
		partnerID := plan.Assignments[seat.DeskKey()+"-R"]
		if partnerID == "" {
			continue
		}
		for _, pair := range pairs {
			if pair.Involves(studentID, partnerID) {
				violations = append(violations, models.Violation{
					Type:      models.ViolationConflict,
					SeatID:    seatID,
					StudentID: studentID,
					OtherID:   partnerID,
					Message:   fmt.Sprintf("conflicting students share desk %s", seat.DeskKey()),
				})
				break
			}
		}
	}

	return violations
}
