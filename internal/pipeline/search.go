package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/retry"
	"github.com/spigell/job-pilot/internal/toolproto"
)

// searchStage queries the remote source for every criterion, following
// cursors until the criterion's limit is reached or pages run out, and
// merges everything into one deduplicated posting set. One failing criterion
// degrades the stage instead of aborting the run.
type searchStage struct{}

func (s *searchStage) Name() string             { return "search" }
func (s *searchStage) State() State             { return StateSearching }
func (s *searchStage) AbortsRunOnFailure() bool { return false }

type criterionResult struct {
	postings []*jobs.Posting
	pages    int
	warnings []string
	err      error
}

func (s *searchStage) Execute(ctx context.Context, rc *runContext) StageResult {
	criteria := rc.state.criteria
	results := make([]criterionResult, len(criteria))

	// The pool is bounded separately from errgroup's error handling:
	// workers record failures instead of returning them so one bad
	// criterion never cancels its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.workers())

	for i, criterion := range criteria {
		g.Go(func() error {
			results[i] = s.searchCriterion(gctx, rc, criterion)
			return nil
		})
	}
	// Workers never return errors; failures live in their result slot.
	_ = g.Wait()

	var warnings []string
	failed := 0

	for i, result := range results {
		warnings = append(warnings, result.warnings...)

		if result.err != nil {
			failed++
			warnings = append(warnings, fmt.Sprintf("search %q failed: %v", criteria[i].Label(), result.err))
			continue
		}

		added := rc.state.postings.Merge(result.postings)
		rc.state.pages += result.pages

		rc.logger.Info("criterion searched",
			zap.String("criterion", criteria[i].Label()),
			zap.Int("retrieved", len(result.postings)),
			zap.Int("new", added),
			zap.Int("pages", result.pages),
		)
	}

	rc.logger.Info("search completed",
		zap.Int("unique_postings", rc.state.postings.Len()),
		zap.Int("pages_fetched", rc.state.pages),
		zap.Int("failed_criteria", failed),
	)

	status := StatusOK
	switch {
	case failed == len(criteria):
		status = StatusFailed
	case failed > 0:
		status = StatusPartial
	}

	return StageResult{Status: status, Warnings: warnings}
}

// searchCriterion pages through results for one criterion. Whole pages are
// kept: the stop condition is checked between pages, so the final tally may
// slightly exceed the requested limit.
func (s *searchStage) searchCriterion(ctx context.Context, rc *runContext, criterion jobs.Criteria) criterionResult {
	var out criterionResult

	cursor := ""
	for {
		if err := rc.wait(ctx); err != nil {
			out.err = err
			return out
		}

		page, retries, err := retry.Do(ctx, rc.Retry, "search_jobs", func(ctx context.Context) (*toolproto.SearchPage, error) {
			return rc.Tools.SearchJobs(ctx, rc.corr, criterion, cursor)
		})
		for i := 0; i < retries; i++ {
			out.warnings = append(out.warnings, fmt.Sprintf("search %q: transient failure retried", criterion.Label()))
		}
		if err != nil {
			out.err = err
			return out
		}

		out.postings = append(out.postings, page.Postings...)
		out.pages++

		if page.NextCursor == "" || len(out.postings) >= criterion.Limit {
			return out
		}
		cursor = page.NextCursor
	}
}
