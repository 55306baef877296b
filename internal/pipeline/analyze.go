package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/profile"
	"github.com/spigell/job-pilot/internal/retry"
)

// analyzeStage extracts the candidate profile from the raw CV. Without a
// profile no downstream stage can do meaningful work, so a failure here
// aborts the run.
type analyzeStage struct{}

func (s *analyzeStage) Name() string             { return "analyze" }
func (s *analyzeStage) State() State             { return StateAnalyzing }
func (s *analyzeStage) AbortsRunOnFailure() bool { return true }

func (s *analyzeStage) Execute(ctx context.Context, rc *runContext) StageResult {
	var warnings []string

	p, retries, err := retry.Do(ctx, rc.Retry, "extract_profile", func(ctx context.Context) (*profile.Profile, error) {
		return rc.Extractor.Extract(ctx, rc.corr, rc.state.doc)
	})
	for i := 0; i < retries; i++ {
		warnings = append(warnings, "profile extraction: transient failure retried")
	}

	if err != nil {
		rc.logger.Error("profile extraction failed", zap.Error(err))
		warnings = append(warnings, "profile extraction failed: "+err.Error())
		return StageResult{Status: StatusFailed, Warnings: warnings}
	}

	rc.state.profile = p

	rc.logger.Info("profile extracted",
		zap.Int("skills", len(p.Skills)),
		zap.Int("experience_entries", len(p.Experience)),
		zap.String("skills_preview", p.SkillsLine(5)),
	)

	return StageResult{Status: StatusOK, Warnings: warnings}
}
