package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/middleware"
	"github.com/noah-isme/exam-plan-api/internal/models"
	"github.com/noah-isme/exam-plan-api/internal/service"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
	"github.com/noah-isme/exam-plan-api/pkg/response"
)

type seatPlanner interface {
	Build(ctx context.Context, req dto.BuildSeatPlanRequest) (*dto.BuildSeatPlanResponse, error)
	Save(ctx context.Context, req dto.SaveSeatPlanRequest) (int64, error)
	Fetch(ctx context.Context, examID int64) ([]models.Placement, bool, error)
}

// SeatPlanHandler exposes seat planning endpoints.
type SeatPlanHandler struct {
	service seatPlanner
	metrics *service.MetricsService
}

// NewSeatPlanHandler constructs the handler.
func NewSeatPlanHandler(svc *service.SeatPlanService, metrics *service.MetricsService) *SeatPlanHandler {
	return &SeatPlanHandler{service: svc, metrics: metrics}
}

// Build godoc
// @Summary Build a seating plan for a stored exam slot
// @Description Seats the course roster across every room of the slot. The plan is held in memory until saved.
// @Tags SeatPlan
// @Accept json
// @Produce json
// @Param payload body dto.BuildSeatPlanRequest true "Build seat plan payload"
// @Success 200 {object} response.Envelope
// @Router /seat-plan/build [post]
func (h *SeatPlanHandler) Build(c *gin.Context) {
	var req dto.BuildSeatPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid build payload"))
		return
	}
	result, err := h.service.Build(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveSeatPlanBuilt()
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Persist a built seating plan
// @Tags SeatPlan
// @Accept json
// @Produce json
// @Param payload body dto.SaveSeatPlanRequest true "Save seat plan payload"
// @Success 201 {object} response.Envelope
// @Router /seat-plan/save [post]
func (h *SeatPlanHandler) Save(c *gin.Context) {
	var req dto.SaveSeatPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	examID, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"examId": examID})
}

// Fetch godoc
// @Summary Get the persisted seating plan of an exam
// @Tags SeatPlan
// @Produce json
// @Param examId path int true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /seat-plan/{examId} [get]
func (h *SeatPlanHandler) Fetch(c *gin.Context) {
	examID, err := strconv.ParseInt(c.Param("examId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "examId must be an integer"))
		return
	}
	placements, cacheHit, err := h.service.Fetch(c.Request.Context(), examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, placements, middleware.ExtractMeta(c))
}
