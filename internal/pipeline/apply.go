package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/retry"
	"github.com/spigell/job-pilot/internal/toolproto"
)

// applyStage submits an application for every selected decision. A failed
// submission is recorded as a failed outcome and never blocks the remaining
// jobs; the stage is partial when some submissions failed and failed only
// when all of them did.
type applyStage struct{}

func (s *applyStage) Name() string             { return "apply" }
func (s *applyStage) State() State             { return StateApplying }
func (s *applyStage) AbortsRunOnFailure() bool { return false }

func (s *applyStage) Execute(ctx context.Context, rc *runContext) StageResult {
	var selected []*jobs.Decision
	for _, decision := range rc.state.decisions {
		if decision.Selected {
			selected = append(selected, decision)
		}
	}

	if len(selected) == 0 {
		return StageResult{Status: StatusOK, Warnings: []string{"no postings selected for submission"}}
	}

	if rc.Confirm != nil {
		approved, err := rc.Confirm(selected)
		if err != nil {
			return StageResult{
				Status:   StatusFailed,
				Warnings: []string{fmt.Sprintf("submission confirmation failed: %v", err)},
			}
		}
		if !approved {
			rc.state.outcomes = skippedOutcomes(selected, "submission declined by operator")
			return StageResult{Status: StatusOK, Warnings: []string{"submission declined by operator"}}
		}
	}

	// Salary expectation follows the first criterion, matching how the
	// search was originally requested.
	salary := 0
	if len(rc.state.criteria) > 0 {
		salary = rc.state.criteria[0].SalaryFloor
	}

	outcomes := make([]*jobs.Outcome, len(selected))
	stageWarnings := make([][]string, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.workers())

	for i, decision := range selected {
		g.Go(func() error {
			outcomes[i], stageWarnings[i] = s.applyOne(gctx, rc, decision, salary)
			return nil
		})
	}
	// Workers never return errors; failures live in their outcome slot.
	_ = g.Wait()

	var warnings []string
	failed := 0
	for i, outcome := range outcomes {
		warnings = append(warnings, stageWarnings[i]...)
		if outcome.Status == jobs.OutcomeFailed {
			failed++
		}
	}

	rc.state.outcomes = outcomes

	rc.logger.Info("applications completed",
		zap.Int("attempted", len(selected)),
		zap.Int("failed", failed),
	)

	status := StatusOK
	switch {
	case failed == len(selected):
		status = StatusFailed
	case failed > 0:
		status = StatusPartial
	}

	return StageResult{Status: status, Warnings: warnings}
}

func (s *applyStage) applyOne(ctx context.Context, rc *runContext, decision *jobs.Decision, salary int) (*jobs.Outcome, []string) {
	jobID := decision.Posting.ID
	var warnings []string

	if err := rc.wait(ctx); err != nil {
		warnings = append(warnings, fmt.Sprintf("applying to %s failed: %v", jobID, err))
		return failedOutcome(jobID, err), warnings
	}

	result, retries, err := retry.Do(ctx, rc.Retry, "apply_to_job", func(ctx context.Context) (*toolproto.ApplyResult, error) {
		return rc.Tools.ApplyToJob(ctx, rc.corr, jobID, rc.state.profile, salary)
	})
	for i := 0; i < retries; i++ {
		warnings = append(warnings, fmt.Sprintf("applying to %s: transient failure retried", jobID))
	}

	if err != nil {
		rc.logger.Warn("application failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		warnings = append(warnings, fmt.Sprintf("applying to %s failed: %v", jobID, err))
		return failedOutcome(jobID, err), warnings
	}

	status := jobs.OutcomeStatus(result.Status)
	if status == "" {
		status = jobs.OutcomeSubmitted
	}

	rc.logger.Info("application submitted",
		zap.String("job_id", jobID),
		zap.String("status", string(status)),
	)

	return &jobs.Outcome{
		JobID:         jobID,
		Status:        status,
		FailureReason: result.Reason,
		Timestamp:     time.Now(),
	}, warnings
}

func failedOutcome(jobID string, err error) *jobs.Outcome {
	return &jobs.Outcome{
		JobID:         jobID,
		Status:        jobs.OutcomeFailed,
		FailureReason: err.Error(),
		Timestamp:     time.Now(),
	}
}

func skippedOutcomes(selected []*jobs.Decision, reason string) []*jobs.Outcome {
	outcomes := make([]*jobs.Outcome, 0, len(selected))
	for _, decision := range selected {
		outcomes = append(outcomes, &jobs.Outcome{
			JobID:         decision.Posting.ID,
			Status:        jobs.OutcomeSkipped,
			FailureReason: reason,
			Timestamp:     time.Now(),
		})
	}
	return outcomes
}
