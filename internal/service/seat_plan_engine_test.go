package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-plan-api/internal/models"
)

func studentList(nos ...string) []models.Student {
	students := make([]models.Student, 0, len(nos))
	for _, no := range nos {
		students = append(students, models.Student{No: no, FullName: "Student " + no})
	}
	return students
}

func TestMaskForBench(t *testing.T) {
	assert.Equal(t, []int{1, 0, 0, 1}, maskForBench(4))
	assert.Equal(t, []int{1, 0, 1}, maskForBench(3))
	assert.Equal(t, []int{1, 0}, maskForBench(2))
	assert.Equal(t, []int{1}, maskForBench(1))
	assert.Equal(t, []int{1}, maskForBench(0))
	assert.Equal(t, []int{1}, maskForBench(7))
}

func TestUsableSeatsBenchPatternRunsDownRows(t *testing.T) {
	room := models.Classroom{ID: 1, Rows: 6, Cols: 2, BenchSize: 3}

	seats := usableSeats(room)
	require.Len(t, seats, 8)

	rows := make(map[int]int)
	for _, pos := range seats {
		rows[pos.Row]++
	}
	assert.Equal(t, map[int]int{0: 2, 2: 2, 3: 2, 5: 2}, rows)
}

func TestAdjacencyGroupsPartitionColumns(t *testing.T) {
	room := models.Classroom{ID: 1, Rows: 4, Cols: 2, BenchSize: 2}

	groups := adjacencyGroups(room)
	require.Len(t, groups, 4)
	assert.Equal(t, []models.SeatPos{{Row: 0, Col: 0}, {Row: 1, Col: 0}}, groups[0])
	assert.Equal(t, []models.SeatPos{{Row: 2, Col: 0}, {Row: 3, Col: 0}}, groups[1])
}

func TestAdjacencyGroupsTruncatedTail(t *testing.T) {
	room := models.Classroom{ID: 1, Rows: 5, Cols: 1, BenchSize: 3}

	groups := adjacencyGroups(room)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 2)
}

func TestBuildSeatingPlanFillsFrontRowFirst(t *testing.T) {
	rooms := []models.Classroom{
		{ID: 1, Name: "Hall A", Rows: 2, Cols: 1, BenchSize: 1},
		{ID: 2, Name: "Hall B", Rows: 2, Cols: 1, BenchSize: 1},
	}

	plan, err := buildSeatingPlan(studentList("S1", "S2", "S3"), rooms, nil, nil)
	require.NoError(t, err)
	require.True(t, plan.OK())
	require.Len(t, plan.Placements, 3)

	// Front rows of both rooms fill before any deeper seat.
	assert.Equal(t, int64(1), plan.Placements[0].ClassroomID)
	assert.Equal(t, 0, plan.Placements[0].Pos.Row)
	assert.Equal(t, int64(2), plan.Placements[1].ClassroomID)
	assert.Equal(t, 0, plan.Placements[1].Pos.Row)
	assert.Equal(t, int64(1), plan.Placements[2].ClassroomID)
	assert.Equal(t, 1, plan.Placements[2].Pos.Row)

	assert.Empty(t, plan.Warnings)
	assert.Equal(t, []models.SeatPos{{Row: 1, Col: 0}}, plan.EmptySeats[2])
}

func TestBuildSeatingPlanSeatsAreUnique(t *testing.T) {
	rooms := []models.Classroom{{ID: 1, Name: "Hall A", Rows: 3, Cols: 3, BenchSize: 1}}

	plan, err := buildSeatingPlan(studentList("S1", "S2", "S3", "S4", "S5", "S6"), rooms, nil, nil)
	require.NoError(t, err)
	require.True(t, plan.OK())

	seen := make(map[models.SeatPos]string)
	for _, p := range plan.Placements {
		prev, dup := seen[p.Pos]
		require.False(t, dup, "seat %v double booked by %s and %s", p.Pos, prev, p.Student.No)
		seen[p.Pos] = p.Student.No
	}
	assert.Len(t, plan.EmptySeats[1], 3)
}

func TestBuildSeatingPlanCapacityShortfall(t *testing.T) {
	rooms := []models.Classroom{{ID: 1, Name: "Hall A", Rows: 1, Cols: 1, BenchSize: 1}}

	_, err := buildSeatingPlan(studentList("S1", "S2"), rooms, nil, nil)
	var capErr *models.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Need)
	assert.Equal(t, 1, capErr.TotalCapacity)
}

func TestBuildSeatingPlanPreferFrontBestEffort(t *testing.T) {
	rooms := []models.Classroom{{ID: 1, Name: "Hall A", Rows: 2, Cols: 1, BenchSize: 1}}

	plan, err := buildSeatingPlan(studentList("S1", "S2"), rooms, nil, []string{"S2", "S1"})
	require.NoError(t, err)
	require.True(t, plan.OK())
	require.Len(t, plan.Placements, 2)

	assert.Equal(t, "S2", plan.Placements[0].Student.No)
	assert.Equal(t, 0, plan.Placements[0].Pos.Row)
	assert.Equal(t, "S1", plan.Placements[1].Student.No)
	assert.Equal(t, 1, plan.Placements[1].Pos.Row)

	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "S1")
	assert.Contains(t, plan.Warnings[0], "front row")
}

func TestBuildSeatingPlanPreferFrontIgnoresUnknownStudents(t *testing.T) {
	rooms := []models.Classroom{{ID: 1, Name: "Hall A", Rows: 2, Cols: 1, BenchSize: 1}}

	plan, err := buildSeatingPlan(studentList("S1"), rooms, nil, []string{"GHOST", "S1", "S1"})
	require.NoError(t, err)
	require.True(t, plan.OK())
	require.Len(t, plan.Placements, 1)
	assert.Equal(t, "S1", plan.Placements[0].Student.No)
	assert.Empty(t, plan.Warnings)
}

func TestBuildSeatingPlanWarnsOnForbiddenBenchGroup(t *testing.T) {
	// Bench of three down one column: rows 0 and 2 are usable and share the
	// same bench group.
	rooms := []models.Classroom{{ID: 1, Name: "Hall A", Rows: 3, Cols: 1, BenchSize: 3}}
	forbidden := map[pairKey]struct{}{
		normalizedPairKey("S2", "S1"): {},
	}

	plan, err := buildSeatingPlan(studentList("S1", "S2"), rooms, forbidden, nil)
	require.NoError(t, err)
	require.True(t, plan.OK())
	require.Len(t, plan.Placements, 2)

	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "S1")
	assert.Contains(t, plan.Warnings[0], "S2")
	assert.Contains(t, plan.Warnings[0], "separation rule")
}

func TestBuildSeatingPlanForbiddenPairNeverBlocksPlacement(t *testing.T) {
	rooms := []models.Classroom{{ID: 1, Name: "Hall A", Rows: 3, Cols: 1, BenchSize: 3}}
	forbidden := map[pairKey]struct{}{
		normalizedPairKey("S1", "S2"): {},
	}

	plan, err := buildSeatingPlan(studentList("S1", "S2"), rooms, forbidden, nil)
	require.NoError(t, err)
	assert.Len(t, plan.Placements, 2, "advisory pairs must not drop placements")
}
