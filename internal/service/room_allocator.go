package service

import (
	"sort"

	"github.com/samber/lo"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

// roomAllocator selects room bundles for one scheduling run. Primary goal
// is the smallest bundle, then the least wasted capacity; across the run it
// leans towards reusing rooms already in play and balancing used minutes.
// State is scoped to a single run and must not be shared.
type roomAllocator struct {
	rooms       []models.Classroom
	usedMinutes map[int64]int
	usedOnce    map[int64]bool
}

func newRoomAllocator(rooms []models.Classroom) *roomAllocator {
	return &roomAllocator{
		rooms:       append([]models.Classroom(nil), rooms...),
		usedMinutes: make(map[int64]int),
		usedOnce:    make(map[int64]bool),
	}
}

// bundleScore orders candidate bundles: fewer rooms, then less waste, then
// fewer never-used rooms, then lower accumulated minutes. Smaller wins.
type bundleScore struct {
	size        int
	waste       int
	newRooms    int
	usedMinutes int
}

func (a *roomAllocator) score(bundle []models.Classroom, need int) bundleScore {
	total := lo.SumBy(bundle, func(r models.Classroom) int { return r.Capacity })
	waste := total - need
	if waste < 0 {
		waste = 0
	}
	s := bundleScore{size: len(bundle), waste: waste}
	for _, r := range bundle {
		if !a.usedOnce[r.ID] {
			s.newRooms++
		}
		s.usedMinutes += a.usedMinutes[r.ID]
	}
	return s
}

func (s bundleScore) less(o bundleScore) bool {
	if s.size != o.size {
		return s.size < o.size
	}
	if s.waste != o.waste {
		return s.waste < o.waste
	}
	if s.newRooms != o.newRooms {
		return s.newRooms < o.newRooms
	}
	return s.usedMinutes < o.usedMinutes
}

func (a *roomAllocator) sortedByCapacityAsc() []models.Classroom {
	rooms := append([]models.Classroom(nil), a.rooms...)
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Capacity < rooms[j].Capacity })
	return rooms
}

func (a *roomAllocator) sortedByCapacityDesc() []models.Classroom {
	rooms := append([]models.Classroom(nil), a.rooms...)
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Capacity > rooms[j].Capacity })
	return rooms
}

// bestSingle returns the smallest single room covering need, preferring
// reused rooms and low accumulated minutes on ties.
func (a *roomAllocator) bestSingle(need int) []models.Classroom {
	candidates := lo.Filter(a.sortedByCapacityAsc(), func(r models.Classroom, _ int) bool {
		return r.Capacity >= need
	})
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i], candidates[j]
		ni, nj := 0, 0
		if !a.usedOnce[ri.ID] {
			ni = 1
		}
		if !a.usedOnce[rj.ID] {
			nj = 1
		}
		if ni != nj {
			return ni < nj
		}
		if a.usedMinutes[ri.ID] != a.usedMinutes[rj.ID] {
			return a.usedMinutes[ri.ID] < a.usedMinutes[rj.ID]
		}
		return ri.Capacity < rj.Capacity
	})
	return []models.Classroom{candidates[0]}
}

// bestPair runs a two-pointer scan over capacity-sorted rooms for the pair
// with the minimal sum still covering need.
func (a *roomAllocator) bestPair(need int) []models.Classroom {
	asc := a.sortedByCapacityAsc()
	i, j := 0, len(asc)-1
	bestSum := -1
	var best []models.Classroom
	for i < j {
		sum := asc[i].Capacity + asc[j].Capacity
		if sum >= need {
			if bestSum < 0 || sum < bestSum {
				bestSum = sum
				best = []models.Classroom{asc[i], asc[j]}
			}
			j--
		} else {
			i++
		}
	}
	return best
}

// bestTriple is exhaustive; room pools are small in practice.
func (a *roomAllocator) bestTriple(need int) []models.Classroom {
	asc := a.sortedByCapacityAsc()
	n := len(asc)
	bestSum := -1
	var best []models.Classroom
	for x := 0; x < n; x++ {
		for y := x + 1; y < n; y++ {
			for z := y + 1; z < n; z++ {
				sum := asc[x].Capacity + asc[y].Capacity + asc[z].Capacity
				if sum >= need && (bestSum < 0 || sum < bestSum) {
					bestSum = sum
					best = []models.Classroom{asc[x], asc[y], asc[z]}
				}
			}
		}
	}
	return best
}

// Allocate picks the cheapest acceptable bundle for need, falling back to a
// largest-first greedy fill that minimises room count when no single, pair
// or triple covers it. Returns nil when the pool cannot cover need.
func (a *roomAllocator) Allocate(need, durationMin int) []models.Classroom {
	var candidates [][]models.Classroom
	if s := a.bestSingle(need); s != nil {
		candidates = append(candidates, s)
	}
	if p := a.bestPair(need); p != nil {
		candidates = append(candidates, p)
	}
	if t := a.bestTriple(need); t != nil {
		candidates = append(candidates, t)
	}

	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return a.score(candidates[i], need).less(a.score(candidates[j], need))
		})
		return a.commit(candidates[0], durationMin)
	}

	var plan []models.Classroom
	remain := need
	for _, r := range a.sortedByCapacityDesc() {
		if remain <= 0 {
			break
		}
		if r.Capacity <= 0 {
			continue
		}
		plan = append(plan, r)
		remain -= r.Capacity
	}
	if remain > 0 {
		return nil
	}

	sort.SliceStable(plan, func(i, j int) bool {
		ri, rj := plan[i], plan[j]
		ni, nj := 0, 0
		if !a.usedOnce[ri.ID] {
			ni = 1
		}
		if !a.usedOnce[rj.ID] {
			nj = 1
		}
		if ni != nj {
			return ni < nj
		}
		if a.usedMinutes[ri.ID] != a.usedMinutes[rj.ID] {
			return a.usedMinutes[ri.ID] < a.usedMinutes[rj.ID]
		}
		return ri.Capacity > rj.Capacity
	})
	return a.commit(plan, durationMin)
}

func (a *roomAllocator) commit(bundle []models.Classroom, durationMin int) []models.Classroom {
	for _, r := range bundle {
		a.usedMinutes[r.ID] += durationMin
		a.usedOnce[r.ID] = true
	}
	return bundle
}
