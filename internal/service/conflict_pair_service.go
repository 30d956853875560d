package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/models"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
)

type conflictPairStore interface {
	ListByDepartment(ctx context.Context, departmentID int64) ([]models.ConflictPair, error)
	Create(ctx context.Context, pair models.ConflictPair) error
	Delete(ctx context.Context, pair models.ConflictPair) error
}

// ConflictPairService manages the separation pairs consulted by seat planning.
type ConflictPairService struct {
	pairs     conflictPairStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictPairService wires conflict pair dependencies.
func NewConflictPairService(pairs conflictPairStore, validate *validator.Validate, logger *zap.Logger) *ConflictPairService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictPairService{pairs: pairs, validator: validate, logger: logger}
}

// List returns the department's separation pairs.
func (s *ConflictPairService) List(ctx context.Context, departmentID int64) ([]models.ConflictPair, error) {
	if departmentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentId is required")
	}
	pairs, err := s.pairs.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list separation pairs")
	}
	return pairs, nil
}

// Create registers a pair; the stored form is always unit-ordered.
func (s *ConflictPairService) Create(ctx context.Context, req dto.ConflictPairRequest) (models.ConflictPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ConflictPair{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid separation pair payload")
	}
	a, b := models.NormalizePair(strings.TrimSpace(req.StudentA), strings.TrimSpace(req.StudentB))
	pair := models.ConflictPair{DepartmentID: req.DepartmentID, StudentA: a, StudentB: b}
	if err := s.pairs.Create(ctx, pair); err != nil {
		return models.ConflictPair{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create separation pair")
	}
	return pair, nil
}

// Delete removes a pair given in either order.
func (s *ConflictPairService) Delete(ctx context.Context, req dto.ConflictPairRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid separation pair payload")
	}
	a, b := models.NormalizePair(strings.TrimSpace(req.StudentA), strings.TrimSpace(req.StudentB))
	pair := models.ConflictPair{DepartmentID: req.DepartmentID, StudentA: a, StudentB: b}
	if err := s.pairs.Delete(ctx, pair); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "separation pair not found")
	}
	return nil
}
