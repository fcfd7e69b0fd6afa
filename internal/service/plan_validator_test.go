package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/models"
)

func TestPlanValidatorFrontRowViolation(t *testing.T) {
	v := NewPlanValidator()
	students := []models.Student{
		mkStudent("s1", models.GenderFemale, true),
		mkStudent("s2", models.GenderMale, false),
	}
	plan := &models.SeatingPlan{
		Layout: doubleLayout(2, 1),
		Assignments: map[string]string{
			"R2-C1-L": "s1",
			"R1-C1-L": "s2",
		},
	}

	violations := v.Validate(plan, students, nil)
	require.Len(t, violations, 1)
	assert.Equal(t, models.ViolationFrontRow, violations[0].Type)
	assert.Equal(t, "R2-C1-L", violations[0].SeatID)
	assert.Equal(t, "s1", violations[0].StudentID)
}

func TestPlanValidatorConflictKeyedToLeftSeat(t *testing.T) {
	v := NewPlanValidator()
	students := []models.Student{
		mkStudent("s1", models.GenderFemale, false),
		mkStudent("s2", models.GenderMale, false),
	}
	pairs := []models.ConflictPair{{ID: "c1", StudentA: "s2", StudentB: "s1"}}
	plan := &models.SeatingPlan{
		Layout: doubleLayout(1, 1),
		Assignments: map[string]string{
			"R1-C1-L": "s1",
			"R1-C1-R": "s2",
		},
	}

	violations := v.Validate(plan, students, pairs)
	require.Len(t, violations, 1)
	assert.Equal(t, models.ViolationConflict, violations[0].Type)
	assert.Equal(t, "R1-C1-L", violations[0].SeatID)
	assert.Equal(t, "s2", violations[0].OtherID)
}

func TestPlanValidatorIgnoresNonDeskmateConflicts(t *testing.T) {
	v := NewPlanValidator()
	students := []models.Student{
		mkStudent("s1", models.GenderFemale, false),
		mkStudent("s2", models.GenderMale, false),
	}
	pairs := []models.ConflictPair{{ID: "c1", StudentA: "s1", StudentB: "s2"}}
	plan := &models.SeatingPlan{
		Layout: doubleLayout(1, 2),
		Assignments: map[string]string{
			"R1-C1-L": "s1",
			"R1-C2-L": "s2",
		},
	}

	// adjacent desks are fine, only shared double desks count
	violations := v.Validate(plan, students, pairs)
	assert.Empty(t, violations)
}

func TestPlanValidatorOrdersViolationsRowMajor(t *testing.T) {
	v := NewPlanValidator()
	students := []models.Student{
		mkStudent("s1", models.GenderFemale, true),
		mkStudent("s2", models.GenderMale, true),
	}
	plan := &models.SeatingPlan{
		Layout: doubleLayout(10, 1),
		Assignments: map[string]string{
			// lexicographically "R10" sorts before "R2"
			"R10-C1-L": "s1",
			"R2-C1-L":  "s2",
		},
	}

	violations := v.Validate(plan, students, nil)
	require.Len(t, violations, 2)
	assert.Equal(t, "R2-C1-L", violations[0].SeatID)
	assert.Equal(t, "R10-C1-L", violations[1].SeatID)
}

func TestPlanValidatorCleanPlan(t *testing.T) {
	v := NewPlanValidator()
	students := []models.Student{
		mkStudent("s1", models.GenderFemale, true),
	}
	plan := &models.SeatingPlan{
		Layout:      doubleLayout(1, 1),
		Assignments: map[string]string{"R1-C1-L": "s1"},
	}

	assert.Empty(t, v.Validate(plan, students, nil))
}
