package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot for the health surface.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SchedulingRuns           uint64    `json:"scheduling_runs"`
	SchedulingFailures       uint64    `json:"scheduling_failures"`
	SeatPlansBuilt           uint64    `json:"seat_plans_built"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
