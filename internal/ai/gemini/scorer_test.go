package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/profile"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func testProfile() *profile.Profile {
	return &profile.Profile{
		Skills: []string{"Go", "Python"},
		Experience: []profile.Experience{
			{Title: "Backend Engineer", Employer: "Acme", Duration: "3 years"},
		},
	}
}

func TestScorerSelectsFittingPosting(t *testing.T) {
	stub := &stubGenerator{response: `{"fit": true, "score": 0.9, "reason": "Matches skills"}`}
	scorer := NewScorer(stub, zap.NewNop(), 0.5, 0)

	posting := &jobs.Posting{ID: "j1", Title: "Go Developer"}
	decision, err := scorer.Score(context.Background(), correlation.New(), testProfile(), posting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !decision.Selected {
		t.Fatal("expected posting to be selected")
	}
	if decision.Score != 0.9 {
		t.Fatalf("unexpected score: %v", decision.Score)
	}
	if decision.Reason != "Matches skills" {
		t.Fatalf("unexpected reason: %q", decision.Reason)
	}
	if decision.Posting != posting {
		t.Fatal("decision must reference the scored posting")
	}

	if !strings.Contains(stub.lastPrompt, `"Go Developer"`) {
		t.Fatal("prompt must embed the posting payload")
	}
}

func TestScorerThresholdOverridesFit(t *testing.T) {
	stub := &stubGenerator{response: `{"fit": true, "score": 0.3, "reason": "weak overlap"}`}
	scorer := NewScorer(stub, zap.NewNop(), 0.6, 0)

	decision, err := scorer.Score(context.Background(), correlation.New(), testProfile(), &jobs.Posting{ID: "j1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decision.Selected {
		t.Fatal("score below threshold must deselect the posting")
	}
}

func TestScorerStripsCodeFences(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"fit\": false, \"score\": 0.1, \"reason\": \"no overlap\"}\n```"}
	scorer := NewScorer(stub, zap.NewNop(), 0, 0)

	decision, err := scorer.Score(context.Background(), correlation.New(), testProfile(), &jobs.Posting{ID: "j1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Selected || decision.Score != 0.1 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestScorerCoercesStringValues(t *testing.T) {
	stub := &stubGenerator{response: `{"fit": "yes", "score": "0.75", "reason": "solid match"}`}
	scorer := NewScorer(stub, zap.NewNop(), 0, 0)

	decision, err := scorer.Score(context.Background(), correlation.New(), testProfile(), &jobs.Posting{ID: "j1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Selected || decision.Score != 0.75 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestScorerClampsScore(t *testing.T) {
	stub := &stubGenerator{response: `{"fit": true, "score": 1.7, "reason": "overenthusiastic"}`}
	scorer := NewScorer(stub, zap.NewNop(), 0, 0)

	decision, err := scorer.Score(context.Background(), correlation.New(), testProfile(), &jobs.Posting{ID: "j1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Score != 1 {
		t.Fatalf("score must be clamped to 1, got %v", decision.Score)
	}
}

func TestScorerPropagatesGeneratorError(t *testing.T) {
	genErr := errors.New("quota exceeded")
	scorer := NewScorer(&stubGenerator{err: genErr}, zap.NewNop(), 0, 0)

	_, err := scorer.Score(context.Background(), correlation.New(), testProfile(), &jobs.Posting{ID: "j1"})
	if !errors.Is(err, genErr) {
		t.Fatalf("expected generator error, got %v", err)
	}
}

func TestScorerRejectsUnparsableResponse(t *testing.T) {
	scorer := NewScorer(&stubGenerator{response: "definitely not json"}, zap.NewNop(), 0, 0)

	if _, err := scorer.Score(context.Background(), correlation.New(), testProfile(), &jobs.Posting{ID: "j1"}); err == nil {
		t.Fatal("expected parse error")
	}
}
