package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/models"
)

func newSeatingPlanMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSeatingPlanRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSeatingPlanMock(t)
	defer cleanup()
	repo := NewSeatingPlanRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "layout", "seed", "seed_modifier", "assignments", "pinned_seat_ids", "unplaced", "stats", "violations", "created_at", "updated_at"}).
		AddRow("p1", "Week 36", []byte(`{"rows":5,"cols":4,"desk_type":"double","front_row_depth":1}`),
			int64(202636), 0,
			[]byte(`{"R1-C1-L":"s1","R1-C1-R":"s2"}`),
			[]byte(`["R1-C1-L"]`),
			[]byte(`[]`),
			[]byte(`{"placed":2,"total":2,"unplaced":0,"conflicts":0}`),
			[]byte(`[]`),
			time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, layout, seed, seed_modifier, assignments, pinned_seat_ids, unplaced, stats, violations, created_at, updated_at FROM seating_plans WHERE id = $1")).
		WithArgs("p1").
		WillReturnRows(rows)

	plan, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.DeskDouble, plan.Layout.DeskType)
	assert.Equal(t, uint32(202636), plan.Seed)
	assert.Equal(t, "s1", plan.Assignments["R1-C1-L"])
	assert.True(t, plan.IsPinned("R1-C1-L"))
	assert.Equal(t, 2, plan.Stats.Placed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingPlanRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSeatingPlanMock(t)
	defer cleanup()
	repo := NewSeatingPlanRepository(db)

	mock.ExpectExec("INSERT INTO seating_plans").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	plan := &models.SeatingPlan{
		Name:        "Week 36",
		Layout:      models.SeatLayout{Rows: 5, Cols: 4, DeskType: models.DeskDouble, FrontRowDepth: 1},
		Seed:        202636,
		Assignments: map[string]string{"R1-C1-L": "s1"},
	}
	err := repo.Create(context.Background(), plan)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
