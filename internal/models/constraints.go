package models

import "time"

// Constraints configures a single scheduling run. It is built once per
// invocation and never mutated by the engine; all run-scoped bookkeeping
// lives in the scheduler's own working state.
type Constraints struct {
	DepartmentID int64
	DateStart    time.Time
	DateEnd      time.Time

	// ExcludeWeekdays holds weekdays that carry no exams.
	ExcludeWeekdays map[time.Weekday]bool

	DefaultDurationMin int
	BufferMin          int

	// GlobalNoOverlap forbids two exams starting at the same instant
	// anywhere in the department.
	GlobalNoOverlap bool

	ChosenCourses []Course
	ExamType      string

	// PerCourseDurations overrides DefaultDurationMin per course ID.
	PerCourseDurations map[int64]int

	// Day timetable bounds. DayEndHour is the last permissible start hour.
	DayStartHour    int
	DayEndHour      int
	SlotStepMinutes int

	// RotateDays applies a per-class-year round-robin offset to the day
	// ordering so early days do not soak up every exam.
	RotateDays bool
}

// DurationFor resolves the exam duration for a course.
func (c Constraints) DurationFor(courseID int64) time.Duration {
	if minutes, ok := c.PerCourseDurations[courseID]; ok {
		return time.Duration(minutes) * time.Minute
	}
	return time.Duration(c.DefaultDurationMin) * time.Minute
}
