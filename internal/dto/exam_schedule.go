package dto

import "time"

// GenerateExamScheduleRequest instructs the generator to build an exam
// timetable proposal for a department's selected courses.
type GenerateExamScheduleRequest struct {
	DepartmentID       int64         `json:"departmentId" validate:"required,min=1"`
	DateStart          string        `json:"dateStart" validate:"required,datetime=2006-01-02"`
	DateEnd            string        `json:"dateEnd" validate:"required,datetime=2006-01-02"`
	CourseIDs          []int64       `json:"courseIds" validate:"required,min=1,dive,min=1"`
	ExamType           string        `json:"examType" validate:"required,oneof=midterm final makeup"`
	ExcludeWeekdays    []int         `json:"excludeWeekdays" validate:"omitempty,dive,min=0,max=6"`
	DefaultDurationMin int           `json:"defaultDurationMin" validate:"omitempty,min=15,max=480"`
	BufferMin          int           `json:"bufferMin" validate:"omitempty,min=0,max=600"`
	GlobalNoOverlap    bool          `json:"globalNoOverlap"`
	PerCourseDurations map[int64]int `json:"perCourseDurations" validate:"omitempty,dive,min=15,max=480"`
}

// ExamScheduleRow is one (course, classroom) row of a proposal.
type ExamScheduleRow struct {
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
	DurationMin   int       `json:"durationMin"`
	CourseID      int64     `json:"courseId"`
	CourseCode    string    `json:"courseCode"`
	CourseName    string    `json:"courseName"`
	ClassroomID   int64     `json:"classroomId"`
	ClassroomName string    `json:"classroomName"`
	ExamType      string    `json:"examType"`
}

// ExamScheduleStats summarises a generated proposal.
type ExamScheduleStats struct {
	Courses  int `json:"courses"`
	Rooms    int `json:"rooms"`
	ExamDays int `json:"examDays"`
}

// GenerateExamScheduleResponse returns the built proposal.
type GenerateExamScheduleResponse struct {
	ProposalID string            `json:"proposalId"`
	Rows       []ExamScheduleRow `json:"rows"`
	Stats      ExamScheduleStats `json:"stats"`
}

// SaveExamScheduleRequest persists a previously generated proposal.
type SaveExamScheduleRequest struct {
	ProposalID string `json:"proposalId" validate:"required,uuid4"`
}

// ExamSlotQuery filters stored exam slots.
type ExamSlotQuery struct {
	DepartmentID int64  `form:"departmentId" json:"departmentId"`
	ExamType     string `form:"examType" json:"examType"`
}
