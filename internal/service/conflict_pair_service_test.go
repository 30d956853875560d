package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/models"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
)

func TestConflictPairServiceCreateNormalizesOrder(t *testing.T) {
	store := &pairStoreStub{}
	svc := NewConflictPairService(store, validator.New(), zap.NewNop())

	pair, err := svc.Create(context.Background(), dto.ConflictPairRequest{
		DepartmentID: 1,
		StudentA:     " S9 ",
		StudentB:     "S1",
	})
	require.NoError(t, err)
	assert.Equal(t, "S1", pair.StudentA)
	assert.Equal(t, "S9", pair.StudentB)
	require.Len(t, store.created, 1)
	assert.Equal(t, pair, store.created[0])
}

func TestConflictPairServiceCreateRejectsSelfPair(t *testing.T) {
	svc := NewConflictPairService(&pairStoreStub{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), dto.ConflictPairRequest{
		DepartmentID: 1,
		StudentA:     "S1",
		StudentB:     "S1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConflictPairServiceListRequiresDepartment(t *testing.T) {
	svc := NewConflictPairService(&pairStoreStub{}, validator.New(), zap.NewNop())

	_, err := svc.List(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConflictPairServiceDeleteMissingPair(t *testing.T) {
	store := &pairStoreStub{deleteErr: errors.New("conflict pair not found")}
	svc := NewConflictPairService(store, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), dto.ConflictPairRequest{
		DepartmentID: 1,
		StudentA:     "S1",
		StudentB:     "S2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestConflictPairServiceDeleteAcceptsEitherOrder(t *testing.T) {
	store := &pairStoreStub{}
	svc := NewConflictPairService(store, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), dto.ConflictPairRequest{
		DepartmentID: 1,
		StudentA:     "S9",
		StudentB:     "S1",
	})
	require.NoError(t, err)
	require.Len(t, store.deleted, 1)
	assert.Equal(t, "S1", store.deleted[0].StudentA)
	assert.Equal(t, "S9", store.deleted[0].StudentB)
}

type pairStoreStub struct {
	items     []models.ConflictPair
	created   []models.ConflictPair
	deleted   []models.ConflictPair
	deleteErr error
}

func (s *pairStoreStub) ListByDepartment(ctx context.Context, departmentID int64) ([]models.ConflictPair, error) {
	return s.items, nil
}

func (s *pairStoreStub) Create(ctx context.Context, pair models.ConflictPair) error {
	s.created = append(s.created, pair)
	return nil
}

func (s *pairStoreStub) Delete(ctx context.Context, pair models.ConflictPair) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, pair)
	return nil
}
