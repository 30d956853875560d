package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// SeatPlanRepository manages persisted seat assignments.
type SeatPlanRepository struct {
	db *sqlx.DB
}

// NewSeatPlanRepository constructs a SeatPlanRepository.
func NewSeatPlanRepository(db *sqlx.DB) *SeatPlanRepository {
	return &SeatPlanRepository{db: db}
}

// Replace overwrites the stored plan for an exam on the caller's transaction.
func (r *SeatPlanRepository) Replace(ctx context.Context, tx *sqlx.Tx, examID int64, assignments []models.SeatAssignment) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM seat_plans WHERE exam_id = $1", examID); err != nil {
		return fmt.Errorf("clear seat plan: %w", err)
	}

	insertQuery := `INSERT INTO seat_plans (exam_id, student_no, classroom_id, row_index, col_index)
        VALUES (:exam_id, :student_no, :classroom_id, :row_index, :col_index)`
	for _, assignment := range assignments {
		if _, err := tx.NamedExecContext(ctx, insertQuery, assignment); err != nil {
			return fmt.Errorf("insert seat assignment: %w", err)
		}
	}
	return nil
}

// FetchPlacements returns the stored plan joined with student and room names,
// ordered for stable rendering.
func (r *SeatPlanRepository) FetchPlacements(ctx context.Context, examID int64) ([]models.Placement, error) {
	query := `SELECT sp.student_no, COALESCE(s.full_name, sp.student_no) AS full_name,
               sp.classroom_id, COALESCE(cl.name, '') AS classroom_name,
               sp.row_index, sp.col_index
        FROM seat_plans sp
        LEFT JOIN students s ON s.student_no = sp.student_no
        LEFT JOIN classrooms cl ON cl.id = sp.classroom_id
        WHERE sp.exam_id = $1
        ORDER BY cl.name, sp.row_index, sp.col_index, sp.student_no`

	var rows []struct {
		StudentNo     string `db:"student_no"`
		FullName      string `db:"full_name"`
		ClassroomID   int64  `db:"classroom_id"`
		ClassroomName string `db:"classroom_name"`
		RowIndex      int    `db:"row_index"`
		ColIndex      int    `db:"col_index"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, examID); err != nil {
		return nil, fmt.Errorf("fetch seat plan: %w", err)
	}

	placements := make([]models.Placement, 0, len(rows))
	for _, row := range rows {
		placements = append(placements, models.Placement{
			Student:       models.Student{No: row.StudentNo, FullName: row.FullName},
			ClassroomID:   row.ClassroomID,
			ClassroomName: row.ClassroomName,
			Pos:           models.SeatPos{Row: row.RowIndex, Col: row.ColIndex},
		})
	}
	return placements, nil
}
