package models

// Student is an immutable seat-planning input. ClassYear is zero when
// unknown.
type Student struct {
	No        string `db:"student_no" json:"student_no"`
	FullName  string `db:"full_name" json:"full_name"`
	ClassYear int    `db:"class_year" json:"class_year,omitempty"`
}
