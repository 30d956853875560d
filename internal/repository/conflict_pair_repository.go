package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// ConflictPairRepository manages student separation pairs.
type ConflictPairRepository struct {
	db *sqlx.DB
}

// NewConflictPairRepository constructs a ConflictPairRepository.
func NewConflictPairRepository(db *sqlx.DB) *ConflictPairRepository {
	return &ConflictPairRepository{db: db}
}

// ListByDepartment returns the department's separation pairs.
func (r *ConflictPairRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]models.ConflictPair, error) {
	query := `SELECT department_id, student_a, student_b
        FROM conflict_pairs
        WHERE department_id = $1
        ORDER BY student_a, student_b`
	var pairs []models.ConflictPair
	if err := r.db.SelectContext(ctx, &pairs, query, departmentID); err != nil {
		return nil, fmt.Errorf("list conflict pairs: %w", err)
	}
	return pairs, nil
}

// Create stores a unit-ordered pair. Re-creating an existing pair is a no-op.
func (r *ConflictPairRepository) Create(ctx context.Context, pair models.ConflictPair) error {
	pair.StudentA, pair.StudentB = models.NormalizePair(pair.StudentA, pair.StudentB)
	query := `INSERT INTO conflict_pairs (department_id, student_a, student_b)
        VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, pair.DepartmentID, pair.StudentA, pair.StudentB); err != nil {
		return fmt.Errorf("create conflict pair: %w", err)
	}
	return nil
}

// Delete removes a pair in either order.
func (r *ConflictPairRepository) Delete(ctx context.Context, pair models.ConflictPair) error {
	pair.StudentA, pair.StudentB = models.NormalizePair(pair.StudentA, pair.StudentB)
	query := `DELETE FROM conflict_pairs
        WHERE department_id = $1 AND student_a = $2 AND student_b = $3`
	result, err := r.db.ExecContext(ctx, query, pair.DepartmentID, pair.StudentA, pair.StudentB)
	if err != nil {
		return fmt.Errorf("delete conflict pair: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("conflict pair not found")
	}
	return nil
}
