package entity

import "time"

// StatusReport summarizes how many articles sit in each status and bucket
type StatusReport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Total       int            `json:"total"`
	ByStatus    []StatusCount  `json:"by_status"`
	ByBucket    map[Bucket]int `json:"by_bucket"`
}
