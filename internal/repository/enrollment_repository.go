package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// EnrollmentRepository reads course rosters and enrollment counts.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CountByCourse returns distinct enrolled-student counts keyed by course ID.
// Courses without enrollments are absent from the map.
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseIDs []int64) (map[int64]int, error) {
	if len(courseIDs) == 0 {
		return map[int64]int{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT course_id, COUNT(DISTINCT student_no) AS total
         FROM student_courses
         WHERE course_id IN (?)
         GROUP BY course_id`,
		courseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build enrollment count query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []struct {
		CourseID int64 `db:"course_id"`
		Total    int   `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}

	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	return counts, nil
}

// StudentsByCourse returns distinct student numbers per course, ordered by
// student number inside each course.
func (r *EnrollmentRepository) StudentsByCourse(ctx context.Context, courseIDs []int64) (map[int64][]string, error) {
	if len(courseIDs) == 0 {
		return map[int64][]string{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT DISTINCT course_id, student_no
         FROM student_courses
         WHERE course_id IN (?)
         ORDER BY course_id, student_no`,
		courseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build roster query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []struct {
		CourseID  int64  `db:"course_id"`
		StudentNo string `db:"student_no"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rosters: %w", err)
	}

	rosters := make(map[int64][]string, len(courseIDs))
	for _, row := range rows {
		rosters[row.CourseID] = append(rosters[row.CourseID], row.StudentNo)
	}
	return rosters, nil
}

// StudentsForCourse returns the full student records enrolled in a course,
// ordered by student number.
func (r *EnrollmentRepository) StudentsForCourse(ctx context.Context, courseID int64) ([]models.Student, error) {
	query := `SELECT DISTINCT s.student_no, s.full_name, COALESCE(s.class_year, 0) AS class_year
        FROM student_courses sc
        JOIN students s ON s.student_no = sc.student_no
        WHERE sc.course_id = $1
        ORDER BY s.student_no`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}
