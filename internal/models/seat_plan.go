package models

import "time"

// SeatPos is a zero-indexed (row, col) coordinate inside a classroom grid.
type SeatPos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Placement seats one student at one position in one room.
type Placement struct {
	Student       Student `json:"student"`
	ClassroomID   int64   `json:"classroom_id"`
	ClassroomName string  `json:"classroom_name"`
	Pos           SeatPos `json:"pos"`
}

// PlanResult is the outcome of one seat-planning call. Errors are fatal
// (the placements must not be trusted); warnings are advisory. EmptySeats
// maps classroom ID to the occupiable positions left unused.
type PlanResult struct {
	ExamID     int64               `json:"exam_id"`
	Placements []Placement         `json:"placements"`
	Warnings   []string            `json:"warnings"`
	Errors     []string            `json:"errors"`
	EmptySeats map[int64][]SeatPos `json:"empty_seats"`
}

// OK reports whether the plan completed without fatal errors.
func (r PlanResult) OK() bool {
	return len(r.Errors) == 0
}

// SeatAssignment is a persisted placement.
type SeatAssignment struct {
	ExamID      int64     `db:"exam_id" json:"exam_id"`
	StudentNo   string    `db:"student_no" json:"student_no"`
	ClassroomID int64     `db:"classroom_id" json:"classroom_id"`
	RowIndex    int       `db:"row_index" json:"row_index"`
	ColIndex    int       `db:"col_index" json:"col_index"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ConflictPair marks two students who must not share an adjacency group.
// Pairs are stored unit-ordered (A < B).
type ConflictPair struct {
	DepartmentID int64  `db:"department_id" json:"department_id"`
	StudentA     string `db:"student_a" json:"student_a"`
	StudentB     string `db:"student_b" json:"student_b"`
}

// NormalizePair returns the unit-ordered form of a student pair.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
