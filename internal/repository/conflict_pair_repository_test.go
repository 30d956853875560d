package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

func TestConflictPairRepositoryCreateNormalizes(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewConflictPairRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conflict_pairs")).
		WithArgs(int64(1), "S1", "S9").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), models.ConflictPair{DepartmentID: 1, StudentA: "S9", StudentB: "S1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictPairRepositoryDeleteMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewConflictPairRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM conflict_pairs")).
		WithArgs(int64(1), "S1", "S2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), models.ConflictPair{DepartmentID: 1, StudentA: "S2", StudentB: "S1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictPairRepositoryList(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewConflictPairRepository(db)

	rows := sqlmock.NewRows([]string{"department_id", "student_a", "student_b"}).
		AddRow(int64(1), "S1", "S2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT department_id, student_a, student_b")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	pairs, err := repo.ListByDepartment(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "S1", pairs[0].StudentA)
	require.NoError(t, mock.ExpectationsWereMet())
}
