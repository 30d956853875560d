package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/models"
	"github.com/noah-isme/exam-plan-api/internal/service"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
	"github.com/noah-isme/exam-plan-api/pkg/response"
)

type conflictPairManager interface {
	List(ctx context.Context, departmentID int64) ([]models.ConflictPair, error)
	Create(ctx context.Context, req dto.ConflictPairRequest) (models.ConflictPair, error)
	Delete(ctx context.Context, req dto.ConflictPairRequest) error
}

// ConflictPairHandler exposes separation pair endpoints.
type ConflictPairHandler struct {
	service conflictPairManager
}

// NewConflictPairHandler constructs the handler.
func NewConflictPairHandler(svc *service.ConflictPairService) *ConflictPairHandler {
	return &ConflictPairHandler{service: svc}
}

// List godoc
// @Summary List a department's separation pairs
// @Tags ConflictPairs
// @Produce json
// @Param departmentId query int true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /conflict-pairs [get]
func (h *ConflictPairHandler) List(c *gin.Context) {
	departmentID, err := strconv.ParseInt(c.Query("departmentId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "departmentId must be an integer"))
		return
	}
	pairs, err := h.service.List(c.Request.Context(), departmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pairs, nil)
}

// Create godoc
// @Summary Register a separation pair
// @Description The pair is consulted by seat planning; the two students should not share a bench group.
// @Tags ConflictPairs
// @Accept json
// @Produce json
// @Param payload body dto.ConflictPairRequest true "Separation pair payload"
// @Success 201 {object} response.Envelope
// @Router /conflict-pairs [post]
func (h *ConflictPairHandler) Create(c *gin.Context) {
	var req dto.ConflictPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pair payload"))
		return
	}
	pair, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pair)
}

// Delete godoc
// @Summary Remove a separation pair
// @Tags ConflictPairs
// @Accept json
// @Param payload body dto.ConflictPairRequest true "Separation pair payload"
// @Success 204
// @Router /conflict-pairs [delete]
func (h *ConflictPairHandler) Delete(c *gin.Context) {
	var req dto.ConflictPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pair payload"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
