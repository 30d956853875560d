package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-plan-api/internal/dto"
	"github.com/noah-isme/exam-plan-api/internal/models"
	appErrors "github.com/noah-isme/exam-plan-api/pkg/errors"
)

type examCourseReader interface {
	ListByIDs(ctx context.Context, departmentID int64, ids []int64) ([]models.Course, error)
}

type examClassroomReader interface {
	ListByDepartment(ctx context.Context, departmentID int64) ([]models.Classroom, error)
}

type examEnrollmentReader interface {
	CountByCourse(ctx context.Context, courseIDs []int64) (map[int64]int, error)
	StudentsByCourse(ctx context.Context, courseIDs []int64) (map[int64][]string, error)
}

type examScheduleWriter interface {
	ReplaceSchedule(ctx context.Context, tx *sqlx.Tx, departmentID int64, examType string, from, to time.Time, exams []models.Exam) error
	ListSlots(ctx context.Context, departmentID int64, examType string) ([]models.ExamSlot, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type slotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleGeneratorService builds exam timetable proposals and persists
// accepted ones. Proposals live in an in-memory TTL store between the
// generate and save calls.
type ScheduleGeneratorService struct {
	courses     examCourseReader
	classrooms  examClassroomReader
	enrollments examEnrollmentReader
	exams       examScheduleWriter
	tx          txProvider
	cache       slotCache
	validator   *validator.Validate
	logger      *zap.Logger
	store       *proposalStore
	cfg         ScheduleGeneratorConfig
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL        time.Duration
	SlotCacheTTL       time.Duration
	DayStartHour       int
	DayEndHour         int
	SlotStepMinutes    int
	DefaultDurationMin int
	RotateDays         bool
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	courses examCourseReader,
	classrooms examClassroomReader,
	enrollments examEnrollmentReader,
	exams examScheduleWriter,
	tx txProvider,
	cache slotCache,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.SlotCacheTTL <= 0 {
		cfg.SlotCacheTTL = 10 * time.Minute
	}
	if cfg.DayStartHour <= 0 {
		cfg.DayStartHour = 9
	}
	if cfg.DayEndHour <= 0 {
		cfg.DayEndHour = 20
	}
	if cfg.SlotStepMinutes <= 0 {
		cfg.SlotStepMinutes = 15
	}
	if cfg.DefaultDurationMin <= 0 {
		cfg.DefaultDurationMin = 60
	}
	return &ScheduleGeneratorService{
		courses:     courses,
		classrooms:  classrooms,
		enrollments: enrollments,
		exams:       exams,
		tx:          tx,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		store:       newProposalStore(cfg.ProposalTTL),
		cfg:         cfg,
	}
}

// Generate runs the constructive scheduler and caches the result as a proposal.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateExamScheduleRequest) (*dto.GenerateExamScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	from, err := time.ParseInLocation("2006-01-02", req.DateStart, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateStart must be formatted as YYYY-MM-DD")
	}
	to, err := time.ParseInLocation("2006-01-02", req.DateEnd, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateEnd must be formatted as YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateEnd must not precede dateStart")
	}

	courses, err := s.courses.ListByIDs(ctx, req.DepartmentID, req.CourseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if len(courses) != len(uniqueIDs(req.CourseIDs)) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more selected courses do not exist in this department")
	}

	classrooms, err := s.classrooms.ListByDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}

	counts, err := s.enrollments.CountByCourse(ctx, req.CourseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment counts")
	}
	studentsByCourse, err := s.enrollments.StudentsByCourse(ctx, req.CourseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course rosters")
	}

	cs := s.buildConstraints(req, from, to, courses)
	rows, err := buildExamSchedule(cs, classrooms, counts, studentsByCourse)
	if err != nil {
		return nil, schedulingError(err)
	}

	proposal := examProposal{
		ProposalID:   uuid.NewString(),
		DepartmentID: req.DepartmentID,
		ExamType:     req.ExamType,
		From:         from,
		To:           to,
		Rows:         rows,
		RequestedAt:  time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Info("exam schedule proposal generated",
		zap.String("proposalId", proposal.ProposalID),
		zap.Int64("departmentId", req.DepartmentID),
		zap.Int("rows", len(rows)),
	)

	return &dto.GenerateExamScheduleResponse{
		ProposalID: proposal.ProposalID,
		Rows:       toScheduleRowDTOs(rows),
		Stats:      proposalStats(rows),
	}, nil
}

// Save replaces the stored schedule for the proposal's department, exam type
// and date window in one transaction, then invalidates the slot cache.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveExamScheduleRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if s.tx == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exams := make([]models.Exam, 0, len(proposal.Rows))
	for _, row := range proposal.Rows {
		exams = append(exams, models.Exam{
			DepartmentID: proposal.DepartmentID,
			CourseID:     row.CourseID,
			ClassroomID:  row.ClassroomID,
			ExamType:     row.ExamType,
			StartAt:      row.StartAt,
			DurationMin:  row.DurationMin,
		})
	}

	if err = s.exams.ReplaceSchedule(ctx, tx, proposal.DepartmentID, proposal.ExamType, proposal.From, proposal.To, exams); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist exam schedule")
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return 0, err
	}

	if s.cache != nil {
		pattern := fmt.Sprintf("exam-slots:%d:*", proposal.DepartmentID)
		if cacheErr := s.cache.DeleteByPattern(ctx, pattern); cacheErr != nil {
			s.logger.Warn("failed to invalidate exam slot cache", zap.Error(cacheErr))
		}
	}

	s.store.Delete(req.ProposalID)
	return len(exams), nil
}

// ListSlots returns stored (course, start) slots, served from cache when warm.
func (s *ScheduleGeneratorService) ListSlots(ctx context.Context, query dto.ExamSlotQuery) ([]models.ExamSlot, bool, error) {
	if query.DepartmentID <= 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "departmentId is required")
	}
	if query.ExamType == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "examType is required")
	}

	key := fmt.Sprintf("exam-slots:%d:%s", query.DepartmentID, query.ExamType)
	if s.cache != nil {
		var cached []models.ExamSlot
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("exam slot cache read failed", zap.Error(err))
		}
	}

	slots, err := s.exams.ListSlots(ctx, query.DepartmentID, query.ExamType)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam slots")
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, slots, s.cfg.SlotCacheTTL); cacheErr != nil {
			s.logger.Warn("exam slot cache write failed", zap.Error(cacheErr))
		}
	}
	return slots, false, nil
}

func (s *ScheduleGeneratorService) buildConstraints(req dto.GenerateExamScheduleRequest, from, to time.Time, courses []models.Course) models.Constraints {
	excluded := make(map[time.Weekday]bool, len(req.ExcludeWeekdays))
	for _, day := range req.ExcludeWeekdays {
		excluded[time.Weekday(day)] = true
	}

	defaultDuration := req.DefaultDurationMin
	if defaultDuration <= 0 {
		defaultDuration = s.cfg.DefaultDurationMin
	}

	return models.Constraints{
		DepartmentID:       req.DepartmentID,
		DateStart:          from,
		DateEnd:            to,
		ExcludeWeekdays:    excluded,
		DefaultDurationMin: defaultDuration,
		BufferMin:          req.BufferMin,
		GlobalNoOverlap:    req.GlobalNoOverlap,
		ChosenCourses:      courses,
		ExamType:           req.ExamType,
		PerCourseDurations: req.PerCourseDurations,
		DayStartHour:       s.cfg.DayStartHour,
		DayEndHour:         s.cfg.DayEndHour,
		SlotStepMinutes:    s.cfg.SlotStepMinutes,
		RotateDays:         s.cfg.RotateDays,
	}
}

// schedulingError maps engine failures onto API error codes while keeping
// the typed cause available for handlers.
func schedulingError(err error) error {
	var (
		dateRange *models.DateRangeError
		noRoom    *models.ClassroomNotFoundError
		capacity  *models.CapacityError
		overlap   *models.StudentOverlapError
		generic   *models.SchedulingError
	)
	switch {
	case errors.As(err, &dateRange):
		return appErrors.Wrap(err, appErrors.ErrDateRangeEmpty.Code, appErrors.ErrDateRangeEmpty.Status, err.Error())
	case errors.As(err, &noRoom):
		return appErrors.Wrap(err, appErrors.ErrClassroomNotFound.Code, appErrors.ErrClassroomNotFound.Status, err.Error())
	case errors.As(err, &capacity):
		return appErrors.Wrap(err, appErrors.ErrCapacityExceeded.Code, appErrors.ErrCapacityExceeded.Status, err.Error())
	case errors.As(err, &overlap):
		return appErrors.Wrap(err, appErrors.ErrStudentOverlap.Code, appErrors.ErrStudentOverlap.Status, err.Error())
	case errors.As(err, &generic):
		return appErrors.Wrap(err, appErrors.ErrSchedulingFailed.Code, appErrors.ErrSchedulingFailed.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule generation failed")
	}
}

func toScheduleRowDTOs(rows []models.ScheduleRow) []dto.ExamScheduleRow {
	out := make([]dto.ExamScheduleRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ExamScheduleRow{
			StartAt:       row.StartAt,
			EndAt:         row.EndAt,
			DurationMin:   row.DurationMin,
			CourseID:      row.CourseID,
			CourseCode:    row.CourseCode,
			CourseName:    row.CourseName,
			ClassroomID:   row.ClassroomID,
			ClassroomName: row.ClassroomName,
			ExamType:      row.ExamType,
		})
	}
	return out
}

func proposalStats(rows []models.ScheduleRow) dto.ExamScheduleStats {
	courses := make(map[int64]struct{})
	rooms := make(map[int64]struct{})
	days := make(map[string]struct{})
	for _, row := range rows {
		courses[row.CourseID] = struct{}{}
		rooms[row.ClassroomID] = struct{}{}
		days[row.StartAt.Format("2006-01-02")] = struct{}{}
	}
	return dto.ExamScheduleStats{Courses: len(courses), Rooms: len(rooms), ExamDays: len(days)}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// --- Proposal cache ---

type examProposal struct {
	ProposalID   string
	DepartmentID int64
	ExamType     string
	From         time.Time
	To           time.Time
	Rows         []models.ScheduleRow
	RequestedAt  time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]examProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]examProposal),
	}
}

func (s *proposalStore) Save(proposal examProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (examProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return examProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return examProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
