package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentRepositoryCountByCourse(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"course_id", "total"}).
		AddRow(int64(1), 30).
		AddRow(int64(2), 12)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id, COUNT(DISTINCT student_no) AS total")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	counts, err := repo.CountByCourse(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Equal(t, map[int64]int{1: 30, 2: 12}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCountByCourseEmptyInput(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEnrollmentRepository(db)

	counts, err := repo.CountByCourse(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryStudentsByCourse(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"course_id", "student_no"}).
		AddRow(int64(1), "S1").
		AddRow(int64(1), "S2").
		AddRow(int64(2), "S3")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT course_id, student_no")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	rosters, err := repo.StudentsByCourse(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Equal(t, []string{"S1", "S2"}, rosters[1])
	require.Equal(t, []string{"S3"}, rosters[2])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryStudentsForCourse(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"student_no", "full_name", "class_year"}).
		AddRow("S1", "First Student", 2).
		AddRow("S2", "Second Student", 0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT s.student_no, s.full_name, COALESCE(s.class_year, 0) AS class_year")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	students, err := repo.StudentsForCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "S1", students[0].No)
	require.Equal(t, 2, students[0].ClassYear)
	require.NoError(t, mock.ExpectationsWereMet())
}
