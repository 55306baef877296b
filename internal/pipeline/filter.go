package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/retry"
)

// filterStage scores every posting against the candidate profile. Scoring is
// sequential in posting insertion order, which keeps the outcome
// deterministic for a deterministic scorer. A scorer failure on one posting
// produces an unselected zero-score decision rather than aborting the stage.
type filterStage struct{}

func (s *filterStage) Name() string             { return "filter" }
func (s *filterStage) State() State             { return StateFiltering }
func (s *filterStage) AbortsRunOnFailure() bool { return false }

func (s *filterStage) Execute(ctx context.Context, rc *runContext) StageResult {
	postings := rc.state.postings.Items()
	if len(postings) == 0 {
		return StageResult{Status: StatusOK, Warnings: []string{"no postings to score"}}
	}

	var warnings []string
	failed := 0
	selected := 0
	decisions := make([]*jobs.Decision, 0, len(postings))

	for _, posting := range postings {
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, fmt.Sprintf("scoring interrupted: %v", err))
			rc.state.decisions = decisions
			return StageResult{Status: StatusPartial, Warnings: warnings}
		}

		decision, retries, err := retry.Do(ctx, rc.Retry, "score_posting", func(ctx context.Context) (*jobs.Decision, error) {
			return rc.Scorer.Score(ctx, rc.corr, rc.state.profile, posting)
		})
		for i := 0; i < retries; i++ {
			warnings = append(warnings, fmt.Sprintf("scoring %s: transient failure retried", posting.ID))
		}

		if err != nil {
			failed++
			warnings = append(warnings, fmt.Sprintf("scoring %s failed: %v", posting.ID, err))
			decisions = append(decisions, &jobs.Decision{
				Posting:  posting,
				Score:    0,
				Selected: false,
				Reason:   "scoring failed: " + err.Error(),
			})
			continue
		}

		if decision.Selected {
			selected++
		}
		decisions = append(decisions, decision)
	}

	rc.state.decisions = decisions

	rc.logger.Info("filtering completed",
		zap.Int("scored", len(postings)),
		zap.Int("selected", selected),
		zap.Int("scoring_failures", failed),
	)

	status := StatusOK
	switch {
	case failed == len(postings):
		status = StatusFailed
	case failed > 0:
		status = StatusPartial
	}

	return StageResult{Status: status, Warnings: warnings}
}
