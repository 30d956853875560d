package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/models"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
)

func TestScheduleGeneratorServiceGenerateSuccess(t *testing.T) {
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{})

	resp, err := fixture.service.Generate(context.Background(), validGenerateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Len(t, resp.Rows, 2)
	assert.Equal(t, 2, resp.Stats.Courses)
	assert.Equal(t, 2, resp.Stats.ExamDays)
}

func TestScheduleGeneratorServiceGenerateValidation(t *testing.T) {
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{})

	req := validGenerateRequest()
	req.ExamType = "oral"
	_, err := fixture.service.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceGenerateReversedRange(t *testing.T) {
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{})

	req := validGenerateRequest()
	req.DateStart = "2026-06-10"
	req.DateEnd = "2026-06-01"
	_, err := fixture.service.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceGenerateUnknownCourse(t *testing.T) {
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{})

	req := validGenerateRequest()
	req.CourseIDs = []int64{1, 2, 99}
	_, err := fixture.service.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceGenerateCapacityExceeded(t *testing.T) {
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{
		counts: map[int64]int{1: 500, 2: 2},
	})

	_, err := fixture.service.Generate(context.Background(), validGenerateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceSaveFlow(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{tx: tx})

	resp, err := fixture.service.Generate(context.Background(), validGenerateRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	saved, err := fixture.service.Save(context.Background(), dto.SaveExamScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Len(t, fixture.exams.replaced, 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	// A saved proposal is spent.
	_, err = fixture.service.Save(context.Background(), dto.SaveExamScheduleRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceSaveExpiredProposal(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{
		tx:          tx,
		proposalTTL: time.Millisecond,
	})

	resp, err := fixture.service.Generate(context.Background(), validGenerateRequest())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = fixture.service.Save(context.Background(), dto.SaveExamScheduleRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceListSlotsCaches(t *testing.T) {
	cache := newSlotCacheStub()
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{cache: cache})
	fixture.exams.slots = []models.ExamSlot{{CourseID: 1, CourseCode: "MATH101", Rooms: "Hall A"}}

	query := dto.ExamSlotQuery{DepartmentID: 1, ExamType: "final"}
	slots, cacheHit, err := fixture.service.ListSlots(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, fixture.exams.listCalls)

	slots, cacheHit, err = fixture.service.ListSlots(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, cacheHit)
	assert.Equal(t, 1, fixture.exams.listCalls, "the second read must hit the cache")
}

func TestScheduleGeneratorServiceListSlotsValidation(t *testing.T) {
	fixture := newSchedulerFixture(t, schedulerFixtureConfig{})

	_, _, err := fixture.service.ListSlots(context.Background(), dto.ExamSlotQuery{ExamType: "final"})
	require.Error(t, err)

	_, _, err = fixture.service.ListSlots(context.Background(), dto.ExamSlotQuery{DepartmentID: 1})
	require.Error(t, err)
}

// --- Fixtures ---

type schedulerFixtureConfig struct {
	counts      map[int64]int
	tx          txProvider
	cache       slotCache
	proposalTTL time.Duration
}

type schedulerFixture struct {
	service *ScheduleGeneratorService
	exams   *examWriterStub
}

func validGenerateRequest() dto.GenerateExamScheduleRequest {
	return dto.GenerateExamScheduleRequest{
		DepartmentID: 1,
		DateStart:    "2026-06-01",
		DateEnd:      "2026-06-02",
		CourseIDs:    []int64{1, 2},
		ExamType:     "final",
	}
}

func newSchedulerFixture(t *testing.T, cfg schedulerFixtureConfig) *schedulerFixture {
	t.Helper()

	courses := courseReaderStub{items: []models.Course{
		{ID: 1, Code: "MATH101", Name: "Calculus", ClassYear: 1, DepartmentID: 1},
		{ID: 2, Code: "PHYS101", Name: "Mechanics", ClassYear: 1, DepartmentID: 1},
	}}
	classrooms := classroomReaderStub{items: []models.Classroom{
		{ID: 1, Code: "A", Name: "Hall A", Capacity: 40, Rows: 8, Cols: 5, BenchSize: 1},
	}}
	counts := cfg.counts
	if counts == nil {
		counts = map[int64]int{1: 3, 2: 2}
	}
	enrollments := enrollmentReaderStub{
		counts: counts,
		students: map[int64][]string{
			1: {"S1", "S2", "S3"},
			2: {"S4", "S5"},
		},
	}
	exams := &examWriterStub{}
	tx := cfg.tx
	if tx == nil {
		tx = noopTxProvider{}
	}

	svc := NewScheduleGeneratorService(
		courses,
		classrooms,
		enrollments,
		exams,
		tx,
		cfg.cache,
		validator.New(),
		zap.NewNop(),
		ScheduleGeneratorConfig{
			ProposalTTL:     cfg.proposalTTL,
			DayStartHour:    9,
			DayEndHour:      10,
			SlotStepMinutes: 60,
		},
	)
	return &schedulerFixture{service: svc, exams: exams}
}

type courseReaderStub struct {
	items []models.Course
	err   error
}

func (s courseReaderStub) ListByIDs(ctx context.Context, departmentID int64, ids []int64) ([]models.Course, error) {
	if s.err != nil {
		return nil, s.err
	}
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []models.Course
	for _, course := range s.items {
		if _, ok := wanted[course.ID]; ok {
			out = append(out, course)
		}
	}
	return out, nil
}

type classroomReaderStub struct {
	items []models.Classroom
}

func (s classroomReaderStub) ListByDepartment(ctx context.Context, departmentID int64) ([]models.Classroom, error) {
	return s.items, nil
}

type enrollmentReaderStub struct {
	counts   map[int64]int
	students map[int64][]string
}

func (s enrollmentReaderStub) CountByCourse(ctx context.Context, courseIDs []int64) (map[int64]int, error) {
	return s.counts, nil
}

func (s enrollmentReaderStub) StudentsByCourse(ctx context.Context, courseIDs []int64) (map[int64][]string, error) {
	return s.students, nil
}

type examWriterStub struct {
	replaced  []models.Exam
	slots     []models.ExamSlot
	listCalls int
}

func (s *examWriterStub) ReplaceSchedule(ctx context.Context, tx *sqlx.Tx, departmentID int64, examType string, from, to time.Time, exams []models.Exam) error {
	s.replaced = exams
	return nil
}

func (s *examWriterStub) ListSlots(ctx context.Context, departmentID int64, examType string) ([]models.ExamSlot, error) {
	s.listCalls++
	return s.slots, nil
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type txProviderMock struct {
	db *sqlx.DB
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

// slotCacheStub is a type-aware in-memory stand-in for the redis cache.
type slotCacheStub struct {
	slots      map[string][]models.ExamSlot
	placements map[string][]models.Placement
}

func newSlotCacheStub() *slotCacheStub {
	return &slotCacheStub{
		slots:      make(map[string][]models.ExamSlot),
		placements: make(map[string][]models.Placement),
	}
}

func (s *slotCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	switch d := dest.(type) {
	case *[]models.ExamSlot:
		if cached, ok := s.slots[key]; ok {
			*d = cached
			return nil
		}
	case *[]models.Placement:
		if cached, ok := s.placements[key]; ok {
			*d = cached
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (s *slotCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	switch v := value.(type) {
	case []models.ExamSlot:
		s.slots[key] = v
	case []models.Placement:
		s.placements[key] = v
	}
	return nil
}

func (s *slotCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.slots = make(map[string][]models.ExamSlot)
	s.placements = make(map[string][]models.Placement)
	return nil
}
