package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/models"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
)

func TestSeatPlanServiceBuildSuccess(t *testing.T) {
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{})

	resp, err := fixture.service.Build(context.Background(), validBuildRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.PlanID)
	assert.Len(t, resp.Placements, 3)
	assert.Empty(t, resp.Warnings)

	// Rooms are walked in name order, front rows first.
	assert.Equal(t, "Hall A", resp.Placements[0].ClassroomName)
	assert.Equal(t, 0, resp.Placements[0].Row)
	assert.Equal(t, "Hall B", resp.Placements[1].ClassroomName)
	assert.Equal(t, 0, resp.Placements[1].Row)
}

func TestSeatPlanServiceBuildUnknownSlot(t *testing.T) {
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{noExams: true})

	_, err := fixture.service.Build(context.Background(), validBuildRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSeatPlanServiceBuildEmptyRoster(t *testing.T) {
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{noStudents: true})

	_, err := fixture.service.Build(context.Background(), validBuildRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestSeatPlanServiceBuildScopedToOneSlot(t *testing.T) {
	// The same course and exam type can sit in two disjoint scheduling
	// windows; only the rooms of the requested start may enter the plan.
	laterStart := seatPlanSlotStart().AddDate(0, 0, 7)
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{
		exams: []models.Exam{
			{ID: 11, DepartmentID: 1, CourseID: 1, ClassroomID: 1, ExamType: "final", StartAt: seatPlanSlotStart()},
			{ID: 31, DepartmentID: 1, CourseID: 1, ClassroomID: 2, ExamType: "final", StartAt: laterStart},
		},
		rooms: []models.Classroom{
			{ID: 1, Name: "Hall A", Rows: 3, Cols: 1, BenchSize: 1},
			{ID: 2, Name: "Hall B", Rows: 3, Cols: 1, BenchSize: 1},
		},
	})

	resp, err := fixture.service.Build(context.Background(), validBuildRequest())
	require.NoError(t, err)
	require.Len(t, resp.Placements, 3)
	for _, placement := range resp.Placements {
		assert.Equal(t, "Hall A", placement.ClassroomName)
	}

	later := validBuildRequest()
	later.StartAt = laterStart.Format(time.RFC3339)
	resp, err = fixture.service.Build(context.Background(), later)
	require.NoError(t, err)
	for _, placement := range resp.Placements {
		assert.Equal(t, "Hall B", placement.ClassroomName)
	}
}

func TestSeatPlanServiceBuildRejectsBadStart(t *testing.T) {
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{})

	req := validBuildRequest()
	req.StartAt = "01.06.2026 09:00"
	_, err := fixture.service.Build(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSeatPlanServiceBuildCapacityExceeded(t *testing.T) {
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{
		rooms: []models.Classroom{{ID: 1, Name: "Hall A", Rows: 1, Cols: 1, BenchSize: 1}},
		exams: []models.Exam{{ID: 11, ClassroomID: 1, StartAt: seatPlanSlotStart()}},
	})

	_, err := fixture.service.Build(context.Background(), validBuildRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "MATH101")
}

func TestSeatPlanServiceBuildWarnsOnForbiddenPair(t *testing.T) {
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{
		rooms: []models.Classroom{{ID: 1, Name: "Hall A", Rows: 3, Cols: 1, BenchSize: 3}},
		exams: []models.Exam{{ID: 11, ClassroomID: 1, StartAt: seatPlanSlotStart()}},
		students: []models.Student{
			{No: "S1", FullName: "Student S1"},
			{No: "S2", FullName: "Student S2"},
		},
		pairs: []models.ConflictPair{{DepartmentID: 1, StudentA: "S1", StudentB: "S2"}},
	})

	resp, err := fixture.service.Build(context.Background(), validBuildRequest())
	require.NoError(t, err)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "separation rule")
	assert.Len(t, resp.Placements, 2)
}

func TestSeatPlanServiceSaveFlow(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{tx: tx})

	resp, err := fixture.service.Build(context.Background(), validBuildRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	examID, err := fixture.service.Save(context.Background(), dto.SaveSeatPlanRequest{PlanID: resp.PlanID})
	require.NoError(t, err)
	assert.Equal(t, int64(11), examID, "the plan keys on the oldest exam row of the slot")
	assert.Len(t, fixture.plans.replaced, 3)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = fixture.service.Save(context.Background(), dto.SaveSeatPlanRequest{PlanID: resp.PlanID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSeatPlanServiceFetchCaches(t *testing.T) {
	cache := newSlotCacheStub()
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{cache: cache})
	fixture.plans.placements = []models.Placement{
		{Student: models.Student{No: "S1"}, ClassroomID: 1, ClassroomName: "Hall A"},
	}

	placements, cacheHit, err := fixture.service.Fetch(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, fixture.plans.fetchCalls)

	placements, cacheHit, err = fixture.service.Fetch(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, placements, 1)
	assert.True(t, cacheHit)
	assert.Equal(t, 1, fixture.plans.fetchCalls, "the second read must hit the cache")
}

func TestSeatPlanServiceFetchValidation(t *testing.T) {
	fixture := newSeatPlanFixture(t, seatPlanFixtureConfig{})

	_, _, err := fixture.service.Fetch(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type seatPlanFixtureConfig struct {
	exams      []models.Exam
	rooms      []models.Classroom
	students   []models.Student
	pairs      []models.ConflictPair
	tx         txProvider
	cache      slotCache
	noExams    bool
	noStudents bool
}

type seatPlanFixture struct {
	service *SeatPlanService
	plans   *planWriterStub
}

func seatPlanSlotStart() time.Time {
	return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
}

func validBuildRequest() dto.BuildSeatPlanRequest {
	return dto.BuildSeatPlanRequest{
		DepartmentID: 1,
		CourseID:     1,
		ExamType:     "final",
		StartAt:      seatPlanSlotStart().Format(time.RFC3339),
	}
}

func newSeatPlanFixture(t *testing.T, cfg seatPlanFixtureConfig) *seatPlanFixture {
	t.Helper()

	exams := cfg.exams
	if exams == nil && !cfg.noExams {
		exams = []models.Exam{
			{ID: 12, DepartmentID: 1, CourseID: 1, ClassroomID: 2, ExamType: "final", StartAt: seatPlanSlotStart()},
			{ID: 11, DepartmentID: 1, CourseID: 1, ClassroomID: 1, ExamType: "final", StartAt: seatPlanSlotStart()},
		}
	}
	rooms := cfg.rooms
	if rooms == nil {
		rooms = []models.Classroom{
			{ID: 2, Name: "Hall B", Rows: 2, Cols: 1, BenchSize: 1},
			{ID: 1, Name: "Hall A", Rows: 2, Cols: 1, BenchSize: 1},
		}
	}
	students := cfg.students
	if students == nil && !cfg.noStudents {
		students = studentList("S1", "S2", "S3")
	}
	tx := cfg.tx
	if tx == nil {
		tx = noopTxProvider{}
	}

	plans := &planWriterStub{}
	svc := NewSeatPlanService(
		slotExamReaderStub{items: exams},
		roomReaderStub{items: rooms},
		rosterStub{items: students},
		pairReaderStub{items: cfg.pairs},
		plans,
		courseReaderStub{items: []models.Course{{ID: 1, Code: "MATH101", DepartmentID: 1}}},
		tx,
		cfg.cache,
		validator.New(),
		zap.NewNop(),
		SeatPlanConfig{},
	)
	return &seatPlanFixture{service: svc, plans: plans}
}

type slotExamReaderStub struct {
	items []models.Exam
}

func (s slotExamReaderStub) SlotExams(ctx context.Context, departmentID, courseID int64, examType string, startAt time.Time) ([]models.Exam, error) {
	matched := make([]models.Exam, 0, len(s.items))
	for _, exam := range s.items {
		if exam.StartAt.Equal(startAt) {
			matched = append(matched, exam)
		}
	}
	return matched, nil
}

type roomReaderStub struct {
	items []models.Classroom
}

func (s roomReaderStub) ListByIDs(ctx context.Context, ids []int64) ([]models.Classroom, error) {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	matched := make([]models.Classroom, 0, len(ids))
	for _, room := range s.items {
		if _, ok := wanted[room.ID]; ok {
			matched = append(matched, room)
		}
	}
	return matched, nil
}

type rosterStub struct {
	items []models.Student
}

func (s rosterStub) StudentsForCourse(ctx context.Context, courseID int64) ([]models.Student, error) {
	return s.items, nil
}

type pairReaderStub struct {
	items []models.ConflictPair
}

func (s pairReaderStub) ListByDepartment(ctx context.Context, departmentID int64) ([]models.ConflictPair, error) {
	return s.items, nil
}

type planWriterStub struct {
	replaced   []models.SeatAssignment
	placements []models.Placement
	fetchCalls int
}

func (s *planWriterStub) Replace(ctx context.Context, tx *sqlx.Tx, examID int64, assignments []models.SeatAssignment) error {
	s.replaced = assignments
	return nil
}

func (s *planWriterStub) FetchPlacements(ctx context.Context, examID int64) ([]models.Placement, error) {
	s.fetchCalls++
	return s.placements, nil
}
