package pipeline

import (
	"time"

	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/profile"
)

// Report is the terminal artifact of a workflow run. It is immutable once
// Run returns; sinks only read it.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	State      State     `json:"state"`

	Stages []StageResult `json:"stages"`

	Profile       *profile.Profile `json:"profile,omitempty"`
	PostingsFound int              `json:"postings_found"`
	PagesFetched  int              `json:"pages_fetched"`
	Decisions     []*jobs.Decision `json:"decisions,omitempty"`
	Outcomes      []*jobs.Outcome  `json:"outcomes,omitempty"`
}

// Degraded reports whether any stage completed with a partial status.
func (r *Report) Degraded() bool {
	for _, stage := range r.Stages {
		if stage.Status == StatusPartial {
			return true
		}
	}
	return false
}

// StageByName returns the result for the named stage, or nil.
func (r *Report) StageByName(name string) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// SelectedCount returns how many postings were selected for submission.
func (r *Report) SelectedCount() int {
	count := 0
	for _, d := range r.Decisions {
		if d.Selected {
			count++
		}
	}
	return count
}

// OutcomeCounts tallies outcomes by status.
func (r *Report) OutcomeCounts() map[jobs.OutcomeStatus]int {
	counts := make(map[jobs.OutcomeStatus]int)
	for _, outcome := range r.Outcomes {
		counts[outcome.Status]++
	}
	return counts
}

// Warnings returns all stage warnings in stage order.
func (r *Report) Warnings() []string {
	var all []string
	for _, stage := range r.Stages {
		all = append(all, stage.Warnings...)
	}
	return all
}
