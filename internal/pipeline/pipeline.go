package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/profile"
)

// State is the orchestrator's position in the fixed pipeline.
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateSearching State = "searching"
	StateFiltering State = "filtering"
	StateApplying  State = "applying"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// Input is the full request for one workflow run.
type Input struct {
	Document *profile.Document
	Criteria []jobs.Criteria
}

// Orchestrator drives the fixed Analyze, Search, Filter, Apply pipeline to a
// single WorkflowReport. It performs no I/O itself; every external
// interaction happens inside a stage executor.
type Orchestrator struct {
	deps   *Deps
	stages []Stage
	state  State
}

// New validates the collaborators and builds an orchestrator.
func New(deps *Deps) (*Orchestrator, error) {
	if deps == nil {
		return nil, errors.New("pipeline deps are required")
	}
	if deps.Extractor == nil {
		return nil, errors.New("profile extractor is required")
	}
	if deps.Scorer == nil {
		return nil, errors.New("relevance scorer is required")
	}
	if deps.Tools == nil {
		return nil, errors.New("tool client is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Orchestrator{
		deps:  deps,
		state: StateIdle,
		stages: []Stage{
			&analyzeStage{},
			&searchStage{},
			&filterStage{},
			&applyStage{},
		},
	}, nil
}

// State returns the orchestrator's current position.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the pipeline. Exactly one correlation context is minted per
// run and threaded through every external call. The returned report is
// always non-nil; the error is non-nil only for configuration failures
// detected before any stage ran.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Report, error) {
	corr := correlation.New()
	logger := corr.Logger(o.deps.Logger)

	report := &Report{
		RunID:     corr.RunID(),
		StartedAt: corr.StartedAt(),
		Stages:    make([]StageResult, 0, len(o.stages)),
	}

	if err := validateInput(in); err != nil {
		cfgErr := &ConfigurationError{Err: err}
		logger.Error("rejecting run before any stage", zap.Error(cfgErr))

		for _, stage := range o.stages {
			report.Stages = append(report.Stages, StageResult{Stage: stage.Name(), Status: StatusSkipped})
		}
		o.state = StateAborted
		o.finish(report)
		return report, cfgErr
	}

	logger.Info("workflow run started",
		zap.Int("criteria", len(in.Criteria)),
		zap.String("cv", in.Document.Path),
	)

	rc := &runContext{
		Deps:   o.deps,
		corr:   corr,
		logger: logger,
		state: &runState{
			doc:      in.Document,
			criteria: in.Criteria,
			postings: jobs.NewPostingSet(),
		},
	}

	aborted := false
	for _, stage := range o.stages {
		if aborted || ctx.Err() != nil {
			report.Stages = append(report.Stages, StageResult{Stage: stage.Name(), Status: StatusSkipped})
			continue
		}

		o.state = stage.State()
		logger.Info("stage started", zap.String("stage", stage.Name()))

		start := time.Now()
		result := stage.Execute(ctx, rc)
		result.Stage = stage.Name()
		result.Elapsed = time.Since(start)

		report.Stages = append(report.Stages, result)

		logger.Info("stage finished",
			zap.String("stage", stage.Name()),
			zap.String("status", string(result.Status)),
			zap.Int("warnings", len(result.Warnings)),
			zap.Duration("elapsed", result.Elapsed),
		)

		if result.Status == StatusFailed && stage.AbortsRunOnFailure() {
			logger.Warn("aborting run", zap.String("failed_stage", stage.Name()))
			aborted = true
		}
	}

	if aborted || ctx.Err() != nil {
		o.state = StateAborted
	} else {
		o.state = StateCompleted
	}

	state := rc.state
	report.Profile = state.profile
	report.PostingsFound = state.postings.Len()
	report.PagesFetched = state.pages
	report.Decisions = state.decisions
	report.Outcomes = state.outcomes

	o.finish(report)

	logger.Info("workflow run finished",
		zap.String("state", string(o.state)),
		zap.Bool("degraded", report.Degraded()),
		zap.Int("postings_found", report.PostingsFound),
		zap.Int("selected", report.SelectedCount()),
		zap.Int("outcomes", len(report.Outcomes)),
	)

	return report, nil
}

func (o *Orchestrator) finish(report *Report) {
	report.State = o.state
	report.FinishedAt = time.Now()
}

func validateInput(in Input) error {
	if in.Document == nil {
		return fmt.Errorf("cv document is required")
	}
	if len(in.Criteria) == 0 {
		return fmt.Errorf("at least one search criterion is required")
	}
	for i, criterion := range in.Criteria {
		if err := criterion.Validate(); err != nil {
			return fmt.Errorf("criterion %d (%s): %w", i+1, criterion.Label(), err)
		}
	}
	return nil
}
