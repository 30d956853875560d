package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// CourseRepository manages persistence for course records.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByIDs returns the department's courses among the given IDs, ordered by code.
func (r *CourseRepository) ListByIDs(ctx context.Context, departmentID int64, ids []int64) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, code, name, class_year, department_id
         FROM courses
         WHERE department_id = ? AND id IN (?)
         ORDER BY code`,
		departmentID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("build course query: %w", err)
	}
	query = r.db.Rebind(query)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByDepartment returns every course of a department, ordered by code.
func (r *CourseRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]models.Course, error) {
	query := `SELECT id, code, name, class_year, department_id
        FROM courses
        WHERE department_id = $1
        ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department courses: %w", err)
	}
	return courses, nil
}
