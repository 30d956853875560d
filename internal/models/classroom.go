package models

// Classroom describes an exam room: headline capacity for scheduling plus
// the physical bench grid used by seat planning. BenchSize is the number of
// seats per bench group (1-4).
type Classroom struct {
	ID        int64  `db:"id" json:"id"`
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	Capacity  int    `db:"capacity" json:"capacity"`
	Rows      int    `db:"rows" json:"rows"`
	Cols      int    `db:"cols" json:"cols"`
	BenchSize int    `db:"bench_size" json:"bench_size"`
}
