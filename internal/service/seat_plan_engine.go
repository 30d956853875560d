package service

import (
	"fmt"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// maskForBench gives the occupiable pattern within one bench group. A seat
// is usable when its mask entry is 1; the zeros keep students apart on the
// same bench.
func maskForBench(benchSize int) []int {
	switch benchSize {
	case 4:
		return []int{1, 0, 0, 1}
	case 3:
		return []int{1, 0, 1}
	case 2:
		return []int{1, 0}
	default:
		return []int{1}
	}
}

// usableSeats enumerates occupiable positions front row first. The bench
// pattern runs down the rows, so mask[row % len] decides usability for the
// whole row.
func usableSeats(room models.Classroom) []models.SeatPos {
	mask := maskForBench(room.BenchSize)
	var seats []models.SeatPos
	for r := 0; r < room.Rows; r++ {
		if mask[r%len(mask)] != 1 {
			continue
		}
		for c := 0; c < room.Cols; c++ {
			seats = append(seats, models.SeatPos{Row: r, Col: c})
		}
	}
	return seats
}

// adjacencyGroups partitions the grid into bench blocks: per column, each
// run of benchSize consecutive rows shares one physical bench.
func adjacencyGroups(room models.Classroom) [][]models.SeatPos {
	mask := maskForBench(room.BenchSize)
	size := len(mask)

	var groups [][]models.SeatPos
	for c := 0; c < room.Cols; c++ {
		for start := 0; start < room.Rows; start += size {
			var group []models.SeatPos
			for i := 0; i < size; i++ {
				r := start + i
				if r >= room.Rows {
					break
				}
				group = append(group, models.SeatPos{Row: r, Col: c})
			}
			if len(group) > 0 {
				groups = append(groups, group)
			}
		}
	}
	return groups
}

type seatRef struct {
	roomID int64
	pos    models.SeatPos
}

type pairKey struct {
	a, b string
}

func normalizedPairKey(a, b string) pairKey {
	x, y := models.NormalizePair(a, b)
	return pairKey{a: x, b: y}
}

// buildSeatingPlan seats the roster across the rooms in order: front-row
// seats of every room first, then the remaining seats room by room.
// Prefer-front students are seated first and best-effort only; a front-row
// miss downgrades to a warning, never an error. The forbidden-pair check
// runs after placement and is advisory. A capacity shortfall is the only
// fatal outcome.
func buildSeatingPlan(
	students []models.Student,
	rooms []models.Classroom,
	forbidden map[pairKey]struct{},
	preferFront []string,
) (models.PlanResult, error) {
	result := models.PlanResult{
		ExamID:     -1,
		EmptySeats: make(map[int64][]models.SeatPos, len(rooms)),
	}

	roomByID := make(map[int64]models.Classroom, len(rooms))
	var frontQ, restQ []seatRef
	capacity := 0
	for _, room := range rooms {
		roomByID[room.ID] = room
		seats := usableSeats(room)
		capacity += len(seats)
		result.EmptySeats[room.ID] = append([]models.SeatPos(nil), seats...)
		for _, pos := range seats {
			if pos.Row == 0 {
				frontQ = append(frontQ, seatRef{roomID: room.ID, pos: pos})
			} else {
				restQ = append(restQ, seatRef{roomID: room.ID, pos: pos})
			}
		}
	}

	if len(students) > capacity {
		return result, &models.CapacityError{Need: len(students), TotalCapacity: capacity}
	}

	takeSeat := func() (seatRef, bool) {
		if len(frontQ) > 0 {
			seat := frontQ[0]
			frontQ = frontQ[1:]
			return seat, true
		}
		if len(restQ) > 0 {
			seat := restQ[0]
			restQ = restQ[1:]
			return seat, true
		}
		return seatRef{}, false
	}

	removeEmpty := func(seat seatRef) {
		seats := result.EmptySeats[seat.roomID]
		for i, pos := range seats {
			if pos == seat.pos {
				result.EmptySeats[seat.roomID] = append(seats[:i], seats[i+1:]...)
				return
			}
		}
	}

	place := func(st models.Student, seat seatRef) {
		result.Placements = append(result.Placements, models.Placement{
			Student:       st,
			ClassroomID:   seat.roomID,
			ClassroomName: roomByID[seat.roomID].Name,
			Pos:           seat.pos,
		})
		removeEmpty(seat)
	}

	studentByNo := make(map[string]models.Student, len(students))
	for _, st := range students {
		studentByNo[st.No] = st
	}

	placed := make(map[string]struct{}, len(students))
	for _, no := range preferFront {
		st, enrolled := studentByNo[no]
		if !enrolled {
			continue
		}
		if _, done := placed[no]; done {
			continue
		}
		if len(frontQ) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("student %s could not be seated in the front row", no))
		}
		seat, ok := takeSeat()
		if !ok {
			result.Errors = append(result.Errors, "seat assignment stopped unexpectedly: no seats left")
			break
		}
		place(st, seat)
		placed[no] = struct{}{}
	}

	for _, st := range students {
		if _, done := placed[st.No]; done {
			continue
		}
		seat, ok := takeSeat()
		if !ok {
			result.Errors = append(result.Errors, "seat assignment stopped unexpectedly: no seats left")
			break
		}
		place(st, seat)
		placed[st.No] = struct{}{}
	}

	if !result.OK() {
		return result, nil
	}

	// Advisory pass: every placement stands, offending pairs only warn.
	seatedBy := make(map[int64]map[models.SeatPos]string)
	for _, p := range result.Placements {
		if seatedBy[p.ClassroomID] == nil {
			seatedBy[p.ClassroomID] = make(map[models.SeatPos]string)
		}
		seatedBy[p.ClassroomID][p.Pos] = p.Student.No
	}

	warned := make(map[pairKey]struct{})
	for _, room := range rooms {
		occupied := seatedBy[room.ID]
		for _, group := range adjacencyGroups(room) {
			var seated []string
			for _, pos := range group {
				if no, ok := occupied[pos]; ok {
					seated = append(seated, no)
				}
			}
			for i := 0; i < len(seated); i++ {
				for j := i + 1; j < len(seated); j++ {
					key := normalizedPairKey(seated[i], seated[j])
					if _, bad := forbidden[key]; !bad {
						continue
					}
					if _, done := warned[key]; done {
						continue
					}
					warned[key] = struct{}{}
					result.Warnings = append(result.Warnings, fmt.Sprintf("students %s and %s share a bench group despite the separation rule", key.a, key.b))
				}
			}
		}
	}

	return result, nil
}
