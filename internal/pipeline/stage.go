package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/job-pilot/internal/ai"
	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/profile"
	"github.com/spigell/job-pilot/internal/retry"
	"github.com/spigell/job-pilot/internal/toolproto"
)

// Status is a stage verdict recorded in the workflow report.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageResult is the envelope every stage hands back to the orchestrator.
// Stages never return raw errors; failures are folded into the status and
// warning list.
type StageResult struct {
	Stage    string        `json:"stage"`
	Status   Status        `json:"status"`
	Warnings []string      `json:"warnings,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// ToolClient is the slice of the tool protocol client the stages consume.
// The seam keeps the orchestrator transport-agnostic and lets tests plug in
// an in-process fake.
type ToolClient interface {
	SearchJobs(ctx context.Context, corr correlation.Context, criteria jobs.Criteria, cursor string) (*toolproto.SearchPage, error)
	ApplyToJob(ctx context.Context, corr correlation.Context, jobID string, p *profile.Profile, monthlySalary int) (*toolproto.ApplyResult, error)
}

// Deps aggregates collaborators shared across all stages.
type Deps struct {
	Logger    *zap.Logger
	Extractor ai.Extractor
	Scorer    ai.Scorer
	Tools     ToolClient

	// Retry is the per-call policy applied to every external call.
	Retry retry.Config
	// Limiter paces tool-server calls. Optional.
	Limiter *rate.Limiter
	// Concurrency bounds the worker pool inside the Search and Apply
	// stages. Values outside 1-4 are clamped.
	Concurrency int
	// Confirm is consulted before submitting applications. A nil hook
	// means submissions proceed unattended.
	Confirm func(selected []*jobs.Decision) (bool, error)
}

func (d *Deps) workers() int {
	n := d.Concurrency
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return n
}

func (d *Deps) wait(ctx context.Context) error {
	if d.Limiter == nil {
		return nil
	}
	return d.Limiter.Wait(ctx)
}

// runState carries the typed outputs between stages of a single run.
type runState struct {
	doc      *profile.Document
	criteria []jobs.Criteria

	profile   *profile.Profile
	postings  *jobs.PostingSet
	pages     int
	decisions []*jobs.Decision
	outcomes  []*jobs.Outcome
}

// runContext bundles what a stage needs: shared deps, the run correlation
// identity, a pre-tagged logger and the mutable run state.
type runContext struct {
	*Deps
	corr   correlation.Context
	logger *zap.Logger
	state  *runState
}

// Stage is one fixed step of the pipeline.
type Stage interface {
	Name() string
	// State is the orchestrator state while this stage runs.
	State() State
	// AbortsRunOnFailure reports whether a failed result stops the run.
	AbortsRunOnFailure() bool
	Execute(ctx context.Context, rc *runContext) StageResult
}
