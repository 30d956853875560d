package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

type seatPlanExamReader interface {
	SlotExams(ctx context.Context, departmentID, courseID int64, examType string, startAt time.Time) ([]models.Exam, error)
}

type seatPlanRoomReader interface {
	ListByIDs(ctx context.Context, ids []int64) ([]models.Classroom, error)
}

type rosterReader interface {
	StudentsForCourse(ctx context.Context, courseID int64) ([]models.Student, error)
}

type conflictPairReader interface {
	ListByDepartment(ctx context.Context, departmentID int64) ([]models.ConflictPair, error)
}

type seatPlanWriter interface {
	Replace(ctx context.Context, tx *sqlx.Tx, examID int64, assignments []models.SeatAssignment) error
	FetchPlacements(ctx context.Context, examID int64) ([]models.Placement, error)
}

// SeatPlanService builds seating plans for stored exam slots and persists
// accepted ones. Built plans wait in an in-memory TTL store between the
// build and save calls.
type SeatPlanService struct {
	exams      seatPlanExamReader
	classrooms seatPlanRoomReader
	rosters    rosterReader
	pairs      conflictPairReader
	plans      seatPlanWriter
	courses    examCourseReader
	tx         txProvider
	cache      slotCache
	validator  *validator.Validate
	logger     *zap.Logger
	store      *seatPlanStore
	cacheTTL   time.Duration
}

// SeatPlanConfig governs seat plan behaviour.
type SeatPlanConfig struct {
	PlanTTL  time.Duration
	CacheTTL time.Duration
}

// NewSeatPlanService wires seat planning dependencies.
func NewSeatPlanService(
	exams seatPlanExamReader,
	classrooms seatPlanRoomReader,
	rosters rosterReader,
	pairs conflictPairReader,
	plans seatPlanWriter,
	courses examCourseReader,
	tx txProvider,
	cache slotCache,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SeatPlanConfig,
) *SeatPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PlanTTL <= 0 {
		cfg.PlanTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &SeatPlanService{
		exams:      exams,
		classrooms: classrooms,
		rosters:    rosters,
		pairs:      pairs,
		plans:      plans,
		courses:    courses,
		tx:         tx,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		store:      newSeatPlanStore(cfg.PlanTTL),
		cacheTTL:   cfg.CacheTTL,
	}
}

// Build produces a seating plan covering every room of the requested slot.
func (s *SeatPlanService) Build(ctx context.Context, req dto.BuildSeatPlanRequest) (*dto.BuildSeatPlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seat plan payload")
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startAt must be an RFC 3339 timestamp")
	}

	exams, err := s.exams.SlotExams(ctx, req.DepartmentID, req.CourseID, req.ExamType, startAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam slot")
	}
	if len(exams) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no stored exam found for this slot")
	}

	roomIDs := make([]int64, 0, len(exams))
	seen := make(map[int64]struct{}, len(exams))
	for _, exam := range exams {
		if _, dup := seen[exam.ClassroomID]; dup {
			continue
		}
		seen[exam.ClassroomID] = struct{}{}
		roomIDs = append(roomIDs, exam.ClassroomID)
	}

	rooms, err := s.classrooms.ListByIDs(ctx, roomIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classrooms assigned to this exam slot")
	}
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })

	students, err := s.rosters.StudentsForCourse(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course roster")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no enrolled students for this course")
	}

	forbidden, err := s.forbiddenPairs(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	plan, err := buildSeatingPlan(students, rooms, forbidden, req.PreferFront)
	if err != nil {
		var capErr *models.CapacityError
		if errors.As(err, &capErr) {
			capErr.CourseCode = s.courseCode(ctx, req.DepartmentID, req.CourseID)
		}
		return nil, schedulingError(err)
	}
	if !plan.OK() {
		return nil, appErrors.Clone(appErrors.ErrSchedulingFailed, plan.Errors[0])
	}

	// Oldest exam row of the slot keys the stored plan.
	examID := exams[0].ID
	for _, exam := range exams[1:] {
		if exam.ID < examID {
			examID = exam.ID
		}
	}
	plan.ExamID = examID

	stored := seatPlanProposal{
		PlanID:       uuid.NewString(),
		DepartmentID: req.DepartmentID,
		Plan:         plan,
		RequestedAt:  time.Now().UTC(),
	}
	s.store.Save(stored)

	s.logger.Info("seat plan built",
		zap.String("planId", stored.PlanID),
		zap.Int64("examId", examID),
		zap.Int("placements", len(plan.Placements)),
		zap.Int("warnings", len(plan.Warnings)),
	)

	return &dto.BuildSeatPlanResponse{
		PlanID:     stored.PlanID,
		Placements: toSeatPlacementDTOs(plan.Placements),
		Warnings:   plan.Warnings,
		EmptySeats: toEmptySeatDTOs(plan.EmptySeats),
	}, nil
}

// Save persists a previously built plan, replacing any stored plan for the
// same exam in one transaction.
func (s *SeatPlanService) Save(ctx context.Context, req dto.SaveSeatPlanRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save seat plan payload")
	}
	stored, ok := s.store.Get(req.PlanID)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "seat plan not found or expired")
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

	assignments := make([]models.SeatAssignment, 0, len(stored.Plan.Placements))
	for _, p := range stored.Plan.Placements {
		assignments = append(assignments, models.SeatAssignment{
			ExamID:      stored.Plan.ExamID,
			StudentNo:   p.Student.No,
			ClassroomID: p.ClassroomID,
			RowIndex:    p.Pos.Row,
			ColIndex:    p.Pos.Col,
		})
	}

	if err = s.plans.Replace(ctx, tx, stored.Plan.ExamID, assignments); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist seat plan")
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit seat plan transaction")
		return 0, err
	}

	if s.cache != nil {
		key := fmt.Sprintf("seat-plan:%d", stored.Plan.ExamID)
		if cacheErr := s.cache.DeleteByPattern(ctx, key); cacheErr != nil {
			s.logger.Warn("failed to invalidate seat plan cache", zap.Error(cacheErr))
		}
	}

	s.store.Delete(req.PlanID)
	return stored.Plan.ExamID, nil
}

// Fetch returns the persisted plan for an exam, served from cache when warm.
func (s *SeatPlanService) Fetch(ctx context.Context, examID int64) ([]models.Placement, bool, error) {
	if examID <= 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "exam id is required")
	}

	key := fmt.Sprintf("seat-plan:%d", examID)
	if s.cache != nil {
		var cached []models.Placement
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("seat plan cache read failed", zap.Error(err))
		}
	}

	placements, err := s.plans.FetchPlacements(ctx, examID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seat plan")
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, placements, s.cacheTTL); cacheErr != nil {
			s.logger.Warn("seat plan cache write failed", zap.Error(cacheErr))
		}
	}
	return placements, false, nil
}

func (s *SeatPlanService) forbiddenPairs(ctx context.Context, departmentID int64) (map[pairKey]struct{}, error) {
	if s.pairs == nil {
		return nil, nil
	}
	pairs, err := s.pairs.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load separation pairs")
	}
	forbidden := make(map[pairKey]struct{}, len(pairs))
	for _, pair := range pairs {
		forbidden[normalizedPairKey(pair.StudentA, pair.StudentB)] = struct{}{}
	}
	return forbidden, nil
}

func (s *SeatPlanService) courseCode(ctx context.Context, departmentID, courseID int64) string {
	if s.courses == nil {
		return ""
	}
	courses, err := s.courses.ListByIDs(ctx, departmentID, []int64{courseID})
	if err != nil || len(courses) == 0 {
		return ""
	}
	return courses[0].Code
}

func toSeatPlacementDTOs(placements []models.Placement) []dto.SeatPlacement {
	out := make([]dto.SeatPlacement, 0, len(placements))
	for _, p := range placements {
		out = append(out, dto.SeatPlacement{
			StudentNo:     p.Student.No,
			ClassroomID:   p.ClassroomID,
			ClassroomName: p.ClassroomName,
			Row:           p.Pos.Row,
			Col:           p.Pos.Col,
		})
	}
	return out
}

func toEmptySeatDTOs(empty map[int64][]models.SeatPos) map[int64][]dto.SeatPosition {
	out := make(map[int64][]dto.SeatPosition, len(empty))
	for roomID, seats := range empty {
		positions := make([]dto.SeatPosition, 0, len(seats))
		for _, pos := range seats {
			positions = append(positions, dto.SeatPosition{Row: pos.Row, Col: pos.Col})
		}
		out[roomID] = positions
	}
	return out
}

// --- Plan cache ---

type seatPlanProposal struct {
	PlanID       string
	DepartmentID int64
	Plan         models.PlanResult
	RequestedAt  time.Time
}

type seatPlanStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]seatPlanProposal
}

func newSeatPlanStore(ttl time.Duration) *seatPlanStore {
	return &seatPlanStore{
		ttl:   ttl,
		items: make(map[string]seatPlanProposal),
	}
}

func (s *seatPlanStore) Save(plan seatPlanProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[plan.PlanID] = plan
}

func (s *seatPlanStore) Get(id string) (seatPlanProposal, bool) {
	s.mu.RLock()
	plan, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return seatPlanProposal{}, false
	}
	if time.Since(plan.RequestedAt) > s.ttl {
		s.Delete(id)
		return seatPlanProposal{}, false
	}
	return plan, true
}

func (s *seatPlanStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
