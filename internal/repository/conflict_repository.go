package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-exam-api/internal/models"
)

// ConflictRepository manages persistence for conflict pairs.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository constructs a ConflictRepository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// List returns every conflict pair.
func (r *ConflictRepository) List(ctx context.Context) ([]models.ConflictPair, error) {
	const query = `SELECT id, student_a, student_b, note, created_at FROM conflict_pairs ORDER BY created_at ASC`
	var pairs []models.ConflictPair
	if err := r.db.SelectContext(ctx, &pairs, query); err != nil {
		return nil, fmt.Errorf("list conflict pairs: %w", err)
	}
	return pairs, nil
}

// Create inserts a new conflict pair.
func (r *ConflictRepository) Create(ctx context.Context, pair *models.ConflictPair) error {
	if pair.ID == "" {
		pair.ID = uuid.NewString()
	}
	if pair.CreatedAt.IsZero() {
		pair.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO conflict_pairs (id, student_a, student_b, note, created_at)
        VALUES (:id, :student_a, :student_b, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pair); err != nil {
		return fmt.Errorf("create conflict pair: %w", err)
	}
	return nil
}

// Exists reports whether a pair covering both students is already recorded.
func (r *ConflictRepository) Exists(ctx context.Context, studentA, studentB string) (bool, error) {
	const query = `SELECT COUNT(*) FROM conflict_pairs WHERE (student_a = $1 AND student_b = $2) OR (student_a = $2 AND student_b = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentA, studentB); err != nil {
		return false, fmt.Errorf("check conflict pair: %w", err)
	}
	return count > 0, nil
}

// Delete removes a conflict pair.
func (r *ConflictRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM conflict_pairs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete conflict pair: %w", err)
	}
	return nil
}

// DeleteForStudent removes every pair involving a student. Called when a
// student leaves the roster so stale pairs do not linger.
func (r *ConflictRepository) DeleteForStudent(ctx context.Context, studentID string) error {
	const query = `DELETE FROM conflict_pairs WHERE student_a = $1 OR student_b = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete conflicts for student: %w", err)
	}
	return nil
}
