package dto

// BuildSeatPlanRequest asks for a seating plan covering every room of a
// stored exam slot.
type BuildSeatPlanRequest struct {
	DepartmentID int64    `json:"departmentId" validate:"required,min=1"`
	CourseID     int64    `json:"courseId" validate:"required,min=1"`
	ExamType     string   `json:"examType" validate:"required,oneof=midterm final makeup"`
	StartAt      string   `json:"startAt" validate:"required"`
	PreferFront  []string `json:"preferFront" validate:"omitempty,dive,required"`
}

// SeatPlacement locates one student on a bench.
type SeatPlacement struct {
	StudentNo     string `json:"studentNo"`
	ClassroomID   int64  `json:"classroomId"`
	ClassroomName string `json:"classroomName"`
	Row           int    `json:"row"`
	Col           int    `json:"col"`
}

// SeatPosition is an unoccupied usable seat.
type SeatPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// BuildSeatPlanResponse returns the plan along with advisory findings.
type BuildSeatPlanResponse struct {
	PlanID     string                   `json:"planId"`
	Placements []SeatPlacement          `json:"placements"`
	Warnings   []string                 `json:"warnings"`
	EmptySeats map[int64][]SeatPosition `json:"emptySeats"`
}

// SaveSeatPlanRequest persists a previously built plan.
type SaveSeatPlanRequest struct {
	PlanID string `json:"planId" validate:"required,uuid4"`
}

// ConflictPairRequest registers two students who must not share a bench group.
type ConflictPairRequest struct {
	DepartmentID int64  `json:"departmentId" validate:"required,min=1"`
	StudentA     string `json:"studentA" validate:"required"`
	StudentB     string `json:"studentB" validate:"required,nefield=StudentA"`
}
