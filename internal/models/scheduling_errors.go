package models

import (
	"fmt"
	"time"
)

// Reason tags carried by ClassroomNotFoundError.
const (
	ReasonNoRooms          = "no_rooms"
	ReasonNoRoomBundle     = "no_room_bundle"
	ReasonGlobalNoOverlap  = "global_no_overlap_occupied"
	ReasonNoCompatibleSlot = "no_compatible_slot"
)

// Student conflict kinds attached to StudentOverlapError examples.
const (
	ConflictSameTime = "same-time"
	ConflictBuffer   = "buffer"
)

// DateRangeError reports that the requested range contains no usable exam
// days after weekday exclusions.
type DateRangeError struct {
	From time.Time
	To   time.Time
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("no exam days between %s and %s", e.From.Format("2006-01-02"), e.To.Format("2006-01-02"))
}

// ClassroomNotFoundError reports that no room (or room bundle, or free
// slot under the global no-overlap rule) could serve a course.
type ClassroomNotFoundError struct {
	CourseCode string
	Reason     string
}

func (e *ClassroomNotFoundError) Error() string {
	if e.CourseCode == "" {
		return fmt.Sprintf("no classroom available (%s)", e.Reason)
	}
	return fmt.Sprintf("no classroom available for course %s (%s)", e.CourseCode, e.Reason)
}

// CapacityError reports a course whose enrollment exceeds the combined
// capacity of every supplied classroom.
type CapacityError struct {
	CourseCode    string
	Need          int
	TotalCapacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("course %s needs %d seats but total capacity is %d", e.CourseCode, e.Need, e.TotalCapacity)
}

// StudentConflictExample illustrates why a student blocks every remaining
// slot for a course.
type StudentConflictExample struct {
	StudentNo    string   `json:"student_no"`
	Type         string   `json:"type"`
	ConflictWith []string `json:"conflict_with"`
}

// StudentOverlapError reports that student-level conflicts block every
// candidate slot for a course. Examples holds at most ten students.
type StudentOverlapError struct {
	CourseCode string
	Examples   []StudentConflictExample
}

func (e *StudentOverlapError) Error() string {
	return fmt.Sprintf("student exam conflicts block course %s (%d examples)", e.CourseCode, len(e.Examples))
}

// SchedulingError is the generic fallback for a run that produced nothing
// despite passing all earlier checks.
type SchedulingError struct {
	Message string
}

func (e *SchedulingError) Error() string {
	if e.Message == "" {
		return "no schedule satisfies the constraints"
	}
	return e.Message
}
