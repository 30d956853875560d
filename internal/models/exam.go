package models

import "time"

// ScheduleRow is one generated exam placement. A course whose slot spans
// multiple rooms emits one row per room, all sharing StartAt and EndAt;
// rooms after the first carry a part suffix in ClassroomName.
type ScheduleRow struct {
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	DurationMin int       `json:"duration_min"`

	CourseID   int64  `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`

	ClassroomID   int64  `json:"classroom_id"`
	ClassroomName string `json:"classroom_name"`

	ExamType string `json:"exam_type"`
}

// Exam is a persisted schedule row.
type Exam struct {
	ID           int64     `db:"id" json:"id"`
	DepartmentID int64     `db:"department_id" json:"department_id"`
	CourseID     int64     `db:"course_id" json:"course_id"`
	ClassroomID  int64     `db:"classroom_id" json:"classroom_id"`
	ExamType     string    `db:"exam_type" json:"exam_type"`
	StartAt      time.Time `db:"start_at" json:"start_at"`
	DurationMin  int       `db:"duration_min" json:"duration_min"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExamSlot is a distinct (course, start time) pair, the unit seat plans are
// built against. Rooms aggregates the distinct room names sharing the slot.
type ExamSlot struct {
	CourseID   int64     `db:"course_id" json:"course_id"`
	CourseCode string    `db:"course_code" json:"course_code"`
	CourseName string    `db:"course_name" json:"course_name"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	Rooms      string    `db:"rooms" json:"rooms"`
}
