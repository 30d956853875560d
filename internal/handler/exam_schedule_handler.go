package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/middleware"
	"github.com/noah-isme/exam-plan-api/internal/models"
	"github.com/noah-isme/exam-plan-api/internal/service"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
	"github.com/noah-isme/exam-plan-api/pkg/response"
)

const maxChosenCourses = 256

type examSchedulePreviewResponse struct {
	Mode     string                            `json:"mode"`
	Proposal *dto.GenerateExamScheduleResponse `json:"proposal"`
}

type examScheduler interface {
	Generate(ctx context.Context, req dto.GenerateExamScheduleRequest) (*dto.GenerateExamScheduleResponse, error)
	Save(ctx context.Context, req dto.SaveExamScheduleRequest) (int, error)
	ListSlots(ctx context.Context, query dto.ExamSlotQuery) ([]models.ExamSlot, bool, error)
}

// ExamScheduleHandler exposes exam scheduling endpoints.
type ExamScheduleHandler struct {
	service examScheduler
	metrics *service.MetricsService
}

// NewExamScheduleHandler constructs the handler.
func NewExamScheduleHandler(svc *service.ScheduleGeneratorService, metrics *service.MetricsService) *ExamScheduleHandler {
	return &ExamScheduleHandler{service: svc, metrics: metrics}
}

// Generate godoc
// @Summary Generate an exam schedule proposal
// @Description Runs the constructive scheduler and returns a preview proposal. Nothing is persisted until the proposal is saved.
// @Tags ExamSchedule
// @Accept json
// @Produce json
// @Param payload body dto.GenerateExamScheduleRequest true "Generate exam schedule payload"
// @Success 200 {object} response.Envelope
// @Router /exam-schedule/generate [post]
func (h *ExamScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateExamScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	if len(req.CourseIDs) > maxChosenCourses {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseIds exceeds supported limit"))
		return
	}

	start := time.Now()
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveSchedulingRun("failure", time.Since(start))
		response.Error(c, err)
		return
	}
	h.metrics.ObserveSchedulingRun("success", time.Since(start))

	payload := examSchedulePreviewResponse{
		Mode:     "preview",
		Proposal: result,
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Save godoc
// @Summary Persist a generated exam schedule proposal
// @Description Replaces the stored schedule for the proposal's department, exam type and date window.
// @Tags ExamSchedule
// @Accept json
// @Produce json
// @Param payload body dto.SaveExamScheduleRequest true "Save exam schedule payload"
// @Success 201 {object} response.Envelope
// @Router /exam-schedule/save [post]
func (h *ExamScheduleHandler) Save(c *gin.Context) {
	var req dto.SaveExamScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	count, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"examsSaved": count})
}

// Slots godoc
// @Summary List stored exam slots
// @Tags ExamSchedule
// @Produce json
// @Param departmentId query int true "Department ID"
// @Param examType query string true "Exam type"
// @Success 200 {object} response.Envelope
// @Router /exam-schedule/slots [get]
func (h *ExamScheduleHandler) Slots(c *gin.Context) {
	departmentID, err := strconv.ParseInt(c.Query("departmentId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "departmentId must be an integer"))
		return
	}
	query := dto.ExamSlotQuery{
		DepartmentID: departmentID,
		ExamType:     c.Query("examType"),
	}
	slots, cacheHit, err := h.service.ListSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, slots, middleware.ExtractMeta(c))
}
