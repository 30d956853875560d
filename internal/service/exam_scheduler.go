package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

const conflictExampleLimit = 10

// schedulerState is the bookkeeping for one scheduling run: which students
// and courses occupy each slot, each student's last exam end, per-day
// per-class-year load and the round-robin day offsets. It is owned by a
// single buildExamSchedule call and discarded afterwards.
type schedulerState struct {
	slotStudents map[time.Time]map[string]struct{}
	slotCourses  map[time.Time]map[string]struct{}
	lastEnd      map[string]time.Time
	lastCourse   map[string]string
	dayYearLoad  map[time.Time]map[int]int
	dayOffsets   map[int]int
}

func newSchedulerState() *schedulerState {
	return &schedulerState{
		slotStudents: make(map[time.Time]map[string]struct{}),
		slotCourses:  make(map[time.Time]map[string]struct{}),
		lastEnd:      make(map[string]time.Time),
		lastCourse:   make(map[string]string),
		dayYearLoad:  make(map[time.Time]map[int]int),
		dayOffsets:   make(map[int]int),
	}
}

func (s *schedulerState) studentsAt(slot time.Time) map[string]struct{} {
	if s.slotStudents[slot] == nil {
		s.slotStudents[slot] = make(map[string]struct{})
	}
	return s.slotStudents[slot]
}

func (s *schedulerState) coursesAt(slot time.Time) map[string]struct{} {
	if s.slotCourses[slot] == nil {
		s.slotCourses[slot] = make(map[string]struct{})
	}
	return s.slotCourses[slot]
}

func (s *schedulerState) loadFor(day time.Time, year int) int {
	return s.dayYearLoad[day][year]
}

func (s *schedulerState) addLoad(day time.Time, year int) {
	if s.dayYearLoad[day] == nil {
		s.dayYearLoad[day] = make(map[int]int)
	}
	s.dayYearLoad[day][year]++
}

// examDays expands the date range into non-excluded days at midnight.
func examDays(cs models.Constraints) []time.Time {
	var days []time.Time
	start := truncateToDay(cs.DateStart)
	end := truncateToDay(cs.DateEnd)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if cs.ExcludeWeekdays[d.Weekday()] {
			continue
		}
		days = append(days, d)
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// candidateOffsets produces start-of-day offsets from the first permissible
// start hour up to and including the last one, stepped by the slot grain.
func candidateOffsets(cs models.Constraints) []time.Duration {
	step := time.Duration(cs.SlotStepMinutes) * time.Minute
	if step <= 0 {
		step = 15 * time.Minute
	}
	first := time.Duration(cs.DayStartHour) * time.Hour
	last := time.Duration(cs.DayEndHour) * time.Hour
	var offsets []time.Duration
	for cur := first; cur <= last; cur += step {
		offsets = append(offsets, cur)
	}
	return offsets
}

// yearDayTargets spreads n exams over the days: one per day first, then a
// second per day, looping without ever exceeding two until n is exhausted.
// Overflow beyond the cap never happens here; phase-two slot search absorbs
// it instead.
func yearDayTargets(n int, days []time.Time) map[time.Time]int {
	targets := make(map[time.Time]int, len(days))
	base := make([]int, len(days))
	remain := n

	for i := 0; remain > 0 && i < len(days); i++ {
		base[i] = 1
		remain--
	}
	for i := 0; remain > 0 && i < len(days); i++ {
		if base[i] < 2 {
			base[i]++
			remain--
		}
	}
	for remain > 0 {
		progressed := false
		for i := range base {
			if base[i] < 2 {
				add := 2 - base[i]
				if add > remain {
					add = remain
				}
				base[i] += add
				remain -= add
				progressed = true
				if remain == 0 {
					break
				}
			}
		}
		if !progressed {
			break
		}
	}

	for i, day := range days {
		targets[day] = base[i]
	}
	return targets
}

// orderedDays sorts days by ascending deviation from the fairness target
// (most under-target first), then chronologically, then rotates by the
// round-robin offset.
func orderedDays(days []time.Time, year int, state *schedulerState, targets map[time.Time]int, offset int) []time.Time {
	ordered := append([]time.Time(nil), days...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di := state.loadFor(ordered[i], year) - targets[ordered[i]]
		dj := state.loadFor(ordered[j], year) - targets[ordered[j]]
		if di != dj {
			return di < dj
		}
		return ordered[i].Before(ordered[j])
	})
	if offset > 0 && len(ordered) > 1 {
		k := offset % len(ordered)
		ordered = append(ordered[k:], ordered[:k]...)
	}
	return ordered
}

// slotConflicts reports whether the slot is unusable for the given
// students: occupied at all under the global rule, already holding one of
// the students, or starting inside some student's rest buffer.
func slotConflicts(slot time.Time, students []string, state *schedulerState, buffer time.Duration, globalNoOverlap bool) bool {
	occupied := state.slotStudents[slot]
	if globalNoOverlap && len(occupied) > 0 {
		return true
	}
	for _, st := range students {
		if last, ok := state.lastEnd[st]; ok && slot.Sub(last) < buffer {
			return true
		}
		if _, in := occupied[st]; in {
			return true
		}
	}
	return false
}

// chooseSlot finds the first acceptable (day, time) start. Phase one honours
// the per-day fairness targets; phase two retries without the target gate so
// a full day never deadlocks the run.
func chooseSlot(
	days []time.Time,
	slotsByDay map[time.Time][]time.Time,
	year int,
	state *schedulerState,
	cs models.Constraints,
	students []string,
	targets map[time.Time]int,
	offset int,
) (time.Time, bool) {
	buffer := time.Duration(cs.BufferMin) * time.Minute

	for _, day := range orderedDays(days, year, state, targets, offset) {
		if state.loadFor(day, year) >= targets[day] {
			continue
		}
		for _, slot := range slotsByDay[day] {
			if !slotConflicts(slot, students, state, buffer, cs.GlobalNoOverlap) {
				return slot, true
			}
		}
	}

	for _, day := range orderedDays(days, year, state, targets, offset) {
		for _, slot := range slotsByDay[day] {
			if !slotConflicts(slot, students, state, buffer, cs.GlobalNoOverlap) {
				return slot, true
			}
		}
	}
	return time.Time{}, false
}

// diagnoseNoSlot classifies a failed slot search: every slot blocked by the
// global single-exam rule, blocked by student conflicts, or simply no
// compatible slot.
func diagnoseNoSlot(slots []time.Time, students []string, state *schedulerState, cs models.Constraints) string {
	if cs.GlobalNoOverlap {
		for _, slot := range slots {
			if len(state.slotStudents[slot]) > 0 {
				return "global"
			}
		}
	}
	buffer := time.Duration(cs.BufferMin) * time.Minute
	for _, slot := range slots {
		occupied := state.slotStudents[slot]
		for _, st := range students {
			if last, ok := state.lastEnd[st]; ok && slot.Sub(last) < buffer {
				return "student"
			}
			if _, in := occupied[st]; in {
				return "student"
			}
		}
	}
	return "none"
}

// conflictExamples explains up to limit students blocking a course: the
// courses they already sit at the same instant, or the course whose buffer
// window they fall into.
func conflictExamples(slots []time.Time, students []string, state *schedulerState, buffer time.Duration, limit int) []models.StudentConflictExample {
	var examples []models.StudentConflictExample
	for _, st := range students {
		if len(examples) >= limit {
			break
		}
		sameTime := make(map[string]struct{})
		bufferBlock := false
		for _, slot := range slots {
			if _, in := state.slotStudents[slot][st]; in {
				for code := range state.slotCourses[slot] {
					sameTime[code] = struct{}{}
				}
			}
			if last, ok := state.lastEnd[st]; ok && slot.Sub(last) < buffer {
				bufferBlock = true
			}
		}
		if len(sameTime) > 0 {
			codes := lo.Keys(sameTime)
			sort.Strings(codes)
			if len(codes) > 5 {
				codes = codes[:5]
			}
			examples = append(examples, models.StudentConflictExample{
				StudentNo:    st,
				Type:         models.ConflictSameTime,
				ConflictWith: codes,
			})
		} else if bufferBlock {
			examples = append(examples, models.StudentConflictExample{
				StudentNo:    st,
				Type:         models.ConflictBuffer,
				ConflictWith: []string{state.lastCourse[st]},
			})
		}
	}
	return examples
}

// buildExamSchedule runs the greedy constructive scheduler: capacity
// pre-check, largest-enrollment-first ordering, fairness-aware slot search
// and minimal-waste room bundling. It returns one row per (course, room)
// or a typed scheduling error. Committed placements are never revisited.
func buildExamSchedule(
	cs models.Constraints,
	classrooms []models.Classroom,
	counts map[int64]int,
	studentsByCourse map[int64][]string,
) ([]models.ScheduleRow, error) {
	days := examDays(cs)
	if len(days) == 0 {
		return nil, &models.DateRangeError{From: cs.DateStart, To: cs.DateEnd}
	}
	if len(classrooms) == 0 {
		return nil, &models.ClassroomNotFoundError{Reason: models.ReasonNoRooms}
	}

	totalCapacity := lo.SumBy(classrooms, func(r models.Classroom) int { return r.Capacity })
	for _, course := range cs.ChosenCourses {
		need := counts[course.ID]
		if need < 1 {
			need = 1
		}
		if need > totalCapacity {
			return nil, &models.CapacityError{CourseCode: course.Code, Need: need, TotalCapacity: totalCapacity}
		}
	}

	// Largest enrollment first: place the hardest-to-fit exams while the
	// most slots and rooms are still free.
	courses := append([]models.Course(nil), cs.ChosenCourses...)
	sort.SliceStable(courses, func(i, j int) bool {
		return counts[courses[i].ID] > counts[courses[j].ID]
	})

	offsets := candidateOffsets(cs)
	slotsByDay := make(map[time.Time][]time.Time, len(days))
	var slots []time.Time
	for _, day := range days {
		for _, off := range offsets {
			slot := day.Add(off)
			slotsByDay[day] = append(slotsByDay[day], slot)
			slots = append(slots, slot)
		}
	}

	yearCourseCount := make(map[int]int)
	for _, course := range cs.ChosenCourses {
		yearCourseCount[course.ClassYear]++
	}
	targetsByYear := make(map[int]map[time.Time]int, len(yearCourseCount))
	for year, n := range yearCourseCount {
		targetsByYear[year] = yearDayTargets(n, days)
	}

	state := newSchedulerState()
	allocator := newRoomAllocator(classrooms)
	buffer := time.Duration(cs.BufferMin) * time.Minute

	var result []models.ScheduleRow
	for _, course := range courses {
		need := counts[course.ID]
		if need < 1 {
			need = 1
		}
		students := studentsByCourse[course.ID]
		duration := cs.DurationFor(course.ID)

		targets := targetsByYear[course.ClassYear]
		if targets == nil {
			targets = yearDayTargets(len(days), days)
		}
		offset := 0
		if cs.RotateDays {
			offset = state.dayOffsets[course.ClassYear]
		}

		slot, ok := chooseSlot(days, slotsByDay, course.ClassYear, state, cs, students, targets, offset)
		if !ok {
			switch diagnoseNoSlot(slots, students, state, cs) {
			case "student":
				return nil, &models.StudentOverlapError{
					CourseCode: course.Code,
					Examples:   conflictExamples(slots, students, state, buffer, conflictExampleLimit),
				}
			case "global":
				return nil, &models.ClassroomNotFoundError{CourseCode: course.Code, Reason: models.ReasonGlobalNoOverlap}
			default:
				return nil, &models.ClassroomNotFoundError{CourseCode: course.Code, Reason: models.ReasonNoCompatibleSlot}
			}
		}

		durationMin := int(duration / time.Minute)
		bundle := allocator.Allocate(need, durationMin)
		if len(bundle) == 0 {
			return nil, &models.ClassroomNotFoundError{CourseCode: course.Code, Reason: models.ReasonNoRoomBundle}
		}

		end := slot.Add(duration)
		state.coursesAt(slot)[course.Code] = struct{}{}
		for part, room := range bundle {
			label := fmt.Sprintf("%s - %s", room.Code, room.Name)
			if part > 0 {
				label = fmt.Sprintf("%s (Room %d)", label, part+1)
			}
			result = append(result, models.ScheduleRow{
				StartAt:       slot,
				EndAt:         end,
				DurationMin:   durationMin,
				CourseID:      course.ID,
				CourseCode:    course.Code,
				CourseName:    course.Name,
				ClassroomID:   room.ID,
				ClassroomName: label,
				ExamType:      cs.ExamType,
			})
		}

		occupied := state.studentsAt(slot)
		for _, st := range students {
			occupied[st] = struct{}{}
			state.lastEnd[st] = end
			state.lastCourse[st] = course.Code
		}
		state.addLoad(truncateToDay(slot), course.ClassYear)
		if cs.RotateDays {
			state.dayOffsets[course.ClassYear]++
		}
	}

	if len(result) == 0 {
		return nil, &models.SchedulingError{}
	}
	return result, nil
}
