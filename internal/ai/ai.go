package ai

import (
	"context"

	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/profile"
)

// Extractor converts a raw CV document into a structured candidate profile.
type Extractor interface {
	Extract(ctx context.Context, corr correlation.Context, doc *profile.Document) (*profile.Profile, error)
}

// Scorer judges how well one posting fits the candidate profile. A
// deterministic scorer makes the Filter stage idempotent.
type Scorer interface {
	Score(ctx context.Context, corr correlation.Context, p *profile.Profile, posting *jobs.Posting) (*jobs.Decision, error)
}
