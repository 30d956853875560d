package models

// Course is an immutable scheduling input. ClassYear groups courses for
// day-fairness targets only.
type Course struct {
	ID           int64  `db:"id" json:"id"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
	ClassYear    int    `db:"class_year" json:"class_year"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
}
