package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-exam-api/internal/models"
)

// SeatingPlanRepository manages persistence for seating plans. The layout,
// assignments, pins, stats and violations are stored as JSONB columns so a
// plan round-trips without a join fan-out.
type SeatingPlanRepository struct {
	db *sqlx.DB
}

// NewSeatingPlanRepository constructs a SeatingPlanRepository.
func NewSeatingPlanRepository(db *sqlx.DB) *SeatingPlanRepository {
	return &SeatingPlanRepository{db: db}
}

type seatingPlanRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Layout       types.JSONText `db:"layout"`
	Seed         int64          `db:"seed"`
	SeedModifier int            `db:"seed_modifier"`
	Assignments  types.JSONText `db:"assignments"`
	Pinned       types.JSONText `db:"pinned_seat_ids"`
	Unplaced     types.JSONText `db:"unplaced"`
	Stats        types.JSONText `db:"stats"`
	Violations   types.JSONText `db:"violations"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (row seatingPlanRow) toModel() (*models.SeatingPlan, error) {
	plan := &models.SeatingPlan{
		ID:           row.ID,
		Name:         row.Name,
		Seed:         uint32(row.Seed),
		SeedModifier: row.SeedModifier,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	fields := []struct {
		raw  types.JSONText
		dest interface{}
	}{
		{row.Layout, &plan.Layout},
		{row.Assignments, &plan.Assignments},
		{row.Pinned, &plan.PinnedSeatIDs},
		{row.Unplaced, &plan.Unplaced},
		{row.Stats, &plan.Stats},
		{row.Violations, &plan.Violations},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return nil, fmt.Errorf("decode seating plan: %w", err)
		}
	}
	if plan.Assignments == nil {
		plan.Assignments = map[string]string{}
	}
	return plan, nil
}

func encodePlanFields(plan *models.SeatingPlan) (layout, assignments, pinned, unplaced, stats, violations types.JSONText, err error) {
	encode := func(v interface{}) (types.JSONText, error) {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode seating plan: %w", err)
		}
		return types.JSONText(raw), nil
	}
	if layout, err = encode(plan.Layout); err != nil {
		return
	}
	if assignments, err = encode(plan.Assignments); err != nil {
		return
	}
	if pinned, err = encode(plan.PinnedSeatIDs); err != nil {
		return
	}
	if unplaced, err = encode(plan.Unplaced); err != nil {
		return
	}
	if stats, err = encode(plan.Stats); err != nil {
		return
	}
	violations, err = encode(plan.Violations)
	return
}

const seatingPlanColumns = "id, name, layout, seed, seed_modifier, assignments, pinned_seat_ids, unplaced, stats, violations, created_at, updated_at"

// List returns all persisted plans, newest first.
func (r *SeatingPlanRepository) List(ctx context.Context) ([]models.SeatingPlan, error) {
	query := fmt.Sprintf("SELECT %s FROM seating_plans ORDER BY created_at DESC", seatingPlanColumns)
	var rows []seatingPlanRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list seating plans: %w", err)
	}
	plans := make([]models.SeatingPlan, 0, len(rows))
	for _, row := range rows {
		plan, err := row.toModel()
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, nil
}

// FindByID fetches one plan.
func (r *SeatingPlanRepository) FindByID(ctx context.Context, id string) (*models.SeatingPlan, error) {
	query := fmt.Sprintf("SELECT %s FROM seating_plans WHERE id = $1", seatingPlanColumns)
	var row seatingPlanRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// Create inserts a plan.
func (r *SeatingPlanRepository) Create(ctx context.Context, plan *models.SeatingPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	layout, assignments, pinned, unplaced, stats, violations, err := encodePlanFields(plan)
	if err != nil {
		return err
	}
	const query = `INSERT INTO seating_plans (id, name, layout, seed, seed_modifier, assignments, pinned_seat_ids, unplaced, stats, violations, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.Name, layout, int64(plan.Seed), plan.SeedModifier,
		assignments, pinned, unplaced, stats, violations,
		plan.CreatedAt, plan.UpdatedAt); err != nil {
		return fmt.Errorf("create seating plan: %w", err)
	}
	return nil
}

// Update rewrites a plan's mutable fields.
func (r *SeatingPlanRepository) Update(ctx context.Context, plan *models.SeatingPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	layout, assignments, pinned, unplaced, stats, violations, err := encodePlanFields(plan)
	if err != nil {
		return err
	}
	const query = `UPDATE seating_plans SET name = $2, layout = $3, seed = $4, seed_modifier = $5, assignments = $6, pinned_seat_ids = $7, unplaced = $8, stats = $9, violations = $10, updated_at = $11 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.Name, layout, int64(plan.Seed), plan.SeedModifier,
		assignments, pinned, unplaced, stats, violations, plan.UpdatedAt); err != nil {
		return fmt.Errorf("update seating plan: %w", err)
	}
	return nil
}

// Delete removes a plan.
func (r *SeatingPlanRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM seating_plans WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete seating plan: %w", err)
	}
	return nil
}
