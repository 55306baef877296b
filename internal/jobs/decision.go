package jobs

import "time"

// Decision is the relevance verdict for a single posting.
type Decision struct {
	Posting  *Posting `json:"posting"`
	Score    float64  `json:"score"`
	Selected bool     `json:"selected"`
	Reason   string   `json:"reason,omitempty"`
}

// OutcomeStatus enumerates terminal application states.
type OutcomeStatus string

const (
	OutcomeSubmitted OutcomeStatus = "submitted"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome records the result of one application attempt.
type Outcome struct {
	JobID         string        `json:"job_id"`
	Status        OutcomeStatus `json:"status"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}
