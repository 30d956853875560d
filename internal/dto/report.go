package dto

// ReportRequest enqueues an asynchronous export.
type ReportRequest struct {
	DepartmentID int64  `json:"departmentId" validate:"required,min=1"`
	Type         string `json:"type" validate:"required,oneof=schedule seat_plan"`
	Format       string `json:"format" validate:"required,oneof=csv pdf"`
	ExamType     string `json:"examType" validate:"required_if=Type schedule,omitempty,oneof=midterm final makeup"`
	ExamID       *int64 `json:"examId" validate:"required_if=Type seat_plan,omitempty,min=1"`
}

// ReportJobResponse acknowledges a queued export.
type ReportJobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// ReportStatusResponse exposes job progress and the download link once ready.
type ReportStatusResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Progress  int     `json:"progress"`
	ResultURL *string `json:"resultUrl,omitempty"`
	Error     *string `json:"error,omitempty"`
}
