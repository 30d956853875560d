package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// ClassroomRepository manages persistence for classroom records.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// ListByDepartment returns the department's exam rooms, ordered by name.
func (r *ClassroomRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]models.Classroom, error) {
	query := `SELECT id, code, name, capacity, rows, cols, bench_size
        FROM classrooms
        WHERE department_id = $1
        ORDER BY name`
	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query, departmentID); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return rooms, nil
}

// ListByIDs returns the classrooms among the given IDs, ordered by name.
func (r *ClassroomRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Classroom, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, code, name, capacity, rows, cols, bench_size
         FROM classrooms
         WHERE id IN (?)
         ORDER BY name`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("build classroom query: %w", err)
	}
	query = r.db.Rebind(query)

	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list classrooms by id: %w", err)
	}
	return rooms, nil
}
