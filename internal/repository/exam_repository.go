package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// ExamRepository manages persistence for scheduled exams.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ReplaceSchedule deletes the stored schedule for the department, exam type
// and date window, then inserts the new rows. Both steps run on the caller's
// transaction so a failed insert never leaves the window empty.
func (r *ExamRepository) ReplaceSchedule(ctx context.Context, tx *sqlx.Tx, departmentID int64, examType string, from, to time.Time, exams []models.Exam) error {
	deleteQuery := `DELETE FROM exams
        WHERE department_id = $1 AND exam_type = $2
          AND start_at >= $3 AND start_at < $4`
	if _, err := tx.ExecContext(ctx, deleteQuery, departmentID, examType, from, to.AddDate(0, 0, 1)); err != nil {
		return fmt.Errorf("clear exam window: %w", err)
	}

	insertQuery := `INSERT INTO exams (department_id, course_id, classroom_id, exam_type, start_at, duration_min)
        VALUES (:department_id, :course_id, :classroom_id, :exam_type, :start_at, :duration_min)`
	for _, exam := range exams {
		if _, err := tx.NamedExecContext(ctx, insertQuery, exam); err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}
	}
	return nil
}

// ListSlots returns distinct (course, start) slots with their room names
// aggregated, ordered chronologically.
func (r *ExamRepository) ListSlots(ctx context.Context, departmentID int64, examType string) ([]models.ExamSlot, error) {
	query := `SELECT e.course_id, c.code AS course_code, c.name AS course_name, e.start_at,
               STRING_AGG(DISTINCT cl.name, ', ' ORDER BY cl.name) AS rooms
        FROM exams e
        JOIN courses c ON c.id = e.course_id
        JOIN classrooms cl ON cl.id = e.classroom_id
        WHERE e.department_id = $1 AND e.exam_type = $2
        GROUP BY e.course_id, c.code, c.name, e.start_at
        ORDER BY e.start_at, c.code`
	var slots []models.ExamSlot
	if err := r.db.SelectContext(ctx, &slots, query, departmentID, examType); err != nil {
		return nil, fmt.Errorf("list exam slots: %w", err)
	}
	return slots, nil
}

// SlotExams returns every stored exam row of one (course, start) slot,
// oldest first. The start predicate keeps plans scoped to a single slot even
// when the same course sits in two disjoint scheduling windows.
func (r *ExamRepository) SlotExams(ctx context.Context, departmentID, courseID int64, examType string, startAt time.Time) ([]models.Exam, error) {
	query := `SELECT id, department_id, course_id, classroom_id, exam_type, start_at, duration_min, created_at
        FROM exams
        WHERE department_id = $1 AND course_id = $2 AND exam_type = $3 AND start_at = $4
        ORDER BY id`
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, departmentID, courseID, examType, startAt); err != nil {
		return nil, fmt.Errorf("list slot exams: %w", err)
	}
	return exams, nil
}
